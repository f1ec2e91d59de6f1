package listener

import (
	"context"
	"testing"
	"time"

	"github.com/quartzgo/quartz/internal/domain"
)

type recordingTriggerListener struct {
	name   string
	events *[]string
}

func (l recordingTriggerListener) Name() string { return l.name }
func (l recordingTriggerListener) TriggerFired(context.Context, *domain.Trigger, time.Time) {
	*l.events = append(*l.events, l.name)
}
func (l recordingTriggerListener) VetoJobExecution(context.Context, *domain.Trigger) TriggerVeto {
	return VetoNone
}
func (l recordingTriggerListener) TriggerMisfired(context.Context, *domain.Trigger) {}
func (l recordingTriggerListener) TriggerComplete(context.Context, *domain.Trigger, domain.CompletionInstruction) {
}

func TestTriggerListenerRegistryPreservesOrder(t *testing.T) {
	var events []string
	r := NewTriggerListenerRegistry()
	r.Add(recordingTriggerListener{name: "a", events: &events}, Any())
	r.Add(recordingTriggerListener{name: "b", events: &events}, Any())
	r.Add(recordingTriggerListener{name: "c", events: &events}, Any())

	tr := &domain.Trigger{TriggerCommon: domain.TriggerCommon{Key: domain.Key{Name: "t1", Group: "g"}}}
	r.FireTriggerFired(context.Background(), tr, time.Now())

	want := []string{"a", "b", "c"}
	if len(events) != len(want) {
		t.Fatalf("got %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("got %v, want %v", events, want)
		}
	}
}

func TestTriggerListenerRegistryOrderSurvivesRemoveAndReAdd(t *testing.T) {
	var events []string
	r := NewTriggerListenerRegistry()
	r.Add(recordingTriggerListener{name: "a", events: &events}, Any())
	r.Add(recordingTriggerListener{name: "b", events: &events}, Any())
	r.Remove("a")
	r.Add(recordingTriggerListener{name: "a", events: &events}, Any())

	tr := &domain.Trigger{TriggerCommon: domain.TriggerCommon{Key: domain.Key{Name: "t1", Group: "g"}}}
	r.FireTriggerFired(context.Background(), tr, time.Now())

	want := []string{"b", "a"}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("got %v, want %v", events, want)
		}
	}
}

func TestMatcherScoping(t *testing.T) {
	var events []string
	r := NewTriggerListenerRegistry()
	r.Add(recordingTriggerListener{name: "only-reports", events: &events}, GroupEquals("reports"))

	billing := &domain.Trigger{TriggerCommon: domain.TriggerCommon{Key: domain.Key{Name: "t1", Group: "billing"}}}
	reports := &domain.Trigger{TriggerCommon: domain.TriggerCommon{Key: domain.Key{Name: "t2", Group: "reports"}}}

	r.FireTriggerFired(context.Background(), billing, time.Now())
	r.FireTriggerFired(context.Background(), reports, time.Now())

	if len(events) != 1 {
		t.Fatalf("expected exactly one matching fire, got %v", events)
	}
}
