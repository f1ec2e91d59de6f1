package listener

import (
	"context"
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

// TriggerVeto lets a TriggerListener veto a fire after it has been
// acquired but before the job runs.
type TriggerVeto int

const (
	VetoNone TriggerVeto = iota
	VetoFire
)

// TriggerListener observes a trigger's fire lifecycle.
type TriggerListener interface {
	Name() string
	TriggerFired(ctx context.Context, tr *domain.Trigger, scheduledTime time.Time)
	VetoJobExecution(ctx context.Context, tr *domain.Trigger) TriggerVeto
	TriggerMisfired(ctx context.Context, tr *domain.Trigger)
	TriggerComplete(ctx context.Context, tr *domain.Trigger, instruction domain.CompletionInstruction)
}

type triggerEntry struct {
	l       TriggerListener
	matcher Matcher
}

// TriggerListenerRegistry holds an ordered set of listeners, each scoped by
// a Matcher, and fans events out to whichever listeners match a given key.
// Registration order is preserved across Add/Remove so fanout order never
// depends on map iteration.
type TriggerListenerRegistry struct {
	entries []triggerEntry
}

func NewTriggerListenerRegistry() *TriggerListenerRegistry {
	return &TriggerListenerRegistry{}
}

func (r *TriggerListenerRegistry) Add(l TriggerListener, m Matcher) {
	if m == nil {
		m = Any()
	}
	r.entries = append(r.entries, triggerEntry{l: l, matcher: m})
}

func (r *TriggerListenerRegistry) Remove(name string) bool {
	for i, e := range r.entries {
		if e.l.Name() == name {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (r *TriggerListenerRegistry) matching(key domain.Key) []TriggerListener {
	var out []TriggerListener
	for _, e := range r.entries {
		if e.matcher.Matches(key) {
			out = append(out, e.l)
		}
	}
	return out
}

func (r *TriggerListenerRegistry) FireTriggerFired(ctx context.Context, tr *domain.Trigger, scheduledTime time.Time) {
	for _, l := range r.matching(tr.Key) {
		l.TriggerFired(ctx, tr, scheduledTime)
	}
}

// FireVetoJobExecution returns VetoFire if any matching listener vetoes.
func (r *TriggerListenerRegistry) FireVetoJobExecution(ctx context.Context, tr *domain.Trigger) TriggerVeto {
	for _, l := range r.matching(tr.Key) {
		if l.VetoJobExecution(ctx, tr) == VetoFire {
			return VetoFire
		}
	}
	return VetoNone
}

func (r *TriggerListenerRegistry) FireTriggerMisfired(ctx context.Context, tr *domain.Trigger) {
	for _, l := range r.matching(tr.Key) {
		l.TriggerMisfired(ctx, tr)
	}
}

func (r *TriggerListenerRegistry) FireTriggerComplete(ctx context.Context, tr *domain.Trigger, instr domain.CompletionInstruction) {
	for _, l := range r.matching(tr.Key) {
		l.TriggerComplete(ctx, tr, instr)
	}
}
