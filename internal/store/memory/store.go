// Package memory implements repository.Store for a single process: one
// mutex guards plain maps, with no cross-instance coordination. It is the
// store used by an embedded, non-clustered scheduler.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quartzgo/quartz/internal/domain"
	"github.com/quartzgo/quartz/internal/repository"
	"github.com/quartzgo/quartz/internal/trigger"
)

// Store is an in-memory repository.Store.
type Store struct {
	mu sync.Mutex

	jobs      map[domain.Key]*domain.JobDetail
	triggers  map[domain.Key]*domain.Trigger
	calendars map[string]*domain.Calendar

	pausedTriggerGroups map[string]bool
	pausedJobGroups     map[string]bool
	schedulerPaused     bool

	firedTriggers map[string]*domain.FiredTriggerRecord // keyed by FireInstanceID
	instances     map[string]*domain.SchedulerInstance

	seq int
}

var _ repository.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		jobs:                make(map[domain.Key]*domain.JobDetail),
		triggers:            make(map[domain.Key]*domain.Trigger),
		calendars:           make(map[string]*domain.Calendar),
		pausedTriggerGroups: make(map[string]bool),
		pausedJobGroups:     make(map[string]bool),
		firedTriggers:       make(map[string]*domain.FiredTriggerRecord),
		instances:           make(map[string]*domain.SchedulerInstance),
	}
}

func (s *Store) StoreJob(_ context.Context, job *domain.JobDetail, replaceExisting bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Key]; exists && !replaceExisting {
		return domain.ErrJobAlreadyExists
	}
	s.jobs[job.Key] = job.Clone()
	return nil
}

func (s *Store) StoreTrigger(_ context.Context, tr *domain.Trigger, replaceExisting bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeTriggerLocked(tr, replaceExisting)
}

func (s *Store) storeTriggerLocked(tr *domain.Trigger, replaceExisting bool) error {
	if err := trigger.ValidateSchedule(tr); err != nil {
		return err
	}
	if _, exists := s.triggers[tr.Key]; exists && !replaceExisting {
		return domain.ErrTriggerAlreadyExists
	}
	if _, ok := s.jobs[tr.JobKey]; !ok {
		return fmt.Errorf("store: trigger %s references unknown job %s", tr.Key, tr.JobKey)
	}
	cp := tr.Clone()
	if s.pausedTriggerGroups[cp.Key.Group] || s.pausedJobGroups[s.jobs[tr.JobKey].Key.Group] {
		cp.State = domain.StatePaused
	} else if cp.State == "" {
		cp.State = domain.StateWaiting
	}
	s.triggers[tr.Key] = cp
	return nil
}

func (s *Store) StoreJobAndTrigger(_ context.Context, job *domain.JobDetail, tr *domain.Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.Key] = job.Clone()
	return s.storeTriggerLocked(tr, true)
}

func (s *Store) RemoveJob(_ context.Context, key domain.Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[key]; !ok {
		return false, nil
	}
	delete(s.jobs, key)
	for tk, tr := range s.triggers {
		if tr.JobKey == key {
			delete(s.triggers, tk)
		}
	}
	return true, nil
}

func (s *Store) RemoveTrigger(_ context.Context, key domain.Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeTriggerLocked(key)
}

func (s *Store) removeTriggerLocked(key domain.Key) (bool, error) {
	tr, ok := s.triggers[key]
	if !ok {
		return false, nil
	}
	delete(s.triggers, key)

	job, ok := s.jobs[tr.JobKey]
	if !ok || job.Durable {
		return true, nil
	}
	for _, other := range s.triggers {
		if other.JobKey == tr.JobKey {
			return true, nil
		}
	}
	delete(s.jobs, tr.JobKey)
	return true, nil
}

func (s *Store) ReplaceTrigger(_ context.Context, key domain.Key, newTrigger *domain.Trigger) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.triggers[key]; !ok {
		return false, nil
	}
	delete(s.triggers, key)
	if err := s.storeTriggerLocked(newTrigger, true); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) RetrieveJob(_ context.Context, key domain.Key) (*domain.JobDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[key]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job.Clone(), nil
}

func (s *Store) RetrieveTrigger(_ context.Context, key domain.Key) (*domain.Trigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.triggers[key]
	if !ok {
		return nil, domain.ErrTriggerNotFound
	}
	return tr.Clone(), nil
}

func (s *Store) CheckExistsJob(_ context.Context, key domain.Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[key]
	return ok, nil
}

func (s *Store) CheckExistsTrigger(_ context.Context, key domain.Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.triggers[key]
	return ok, nil
}

func (s *Store) GetTriggersForJob(_ context.Context, jobKey domain.Key) ([]*domain.Trigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Trigger
	for _, tr := range s.triggers {
		if tr.JobKey == jobKey {
			out = append(out, tr.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Name < out[j].Key.Name })
	return out, nil
}

func (s *Store) GetJobKeys(_ context.Context, m repository.Matcher) ([]domain.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Key
	for k := range s.jobs {
		if m == nil || m.Matches(k) {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (s *Store) GetTriggerKeys(_ context.Context, m repository.Matcher) ([]domain.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Key
	for k := range s.triggers {
		if m == nil || m.Matches(k) {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (s *Store) GetJobGroupNames(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return groupNames(s.jobs), nil
}

func (s *Store) GetTriggerGroupNames(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return groupNames(s.triggers), nil
}

func groupNames[V any](m map[domain.Key]V) []string {
	seen := make(map[string]bool)
	for k := range m {
		seen[k.Group] = true
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

func (s *Store) nextFireInstanceID() string {
	s.seq++
	return fmt.Sprintf("firedtrigger-%d-%d", time.Now().UnixNano(), s.seq)
}
