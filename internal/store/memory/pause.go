package memory

import (
	"context"
	"sort"

	"github.com/quartzgo/quartz/internal/domain"
	"github.com/quartzgo/quartz/internal/repository"
)

func (s *Store) PauseTrigger(_ context.Context, key domain.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.triggers[key]
	if !ok {
		return domain.ErrTriggerNotFound
	}
	s.pauseTriggerLocked(tr)
	return nil
}

func (s *Store) pauseTriggerLocked(tr *domain.Trigger) {
	switch tr.State {
	case domain.StateBlocked:
		tr.State = domain.StatePausedBlocked
	case domain.StateComplete:
		// terminal, leave as-is
	default:
		tr.State = domain.StatePaused
	}
}

func (s *Store) PauseTriggers(_ context.Context, m repository.Matcher) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := make(map[string]bool)
	for k, tr := range s.triggers {
		if m == nil || m.Matches(k) {
			s.pauseTriggerLocked(tr)
			groups[k.Group] = true
			s.pausedTriggerGroups[k.Group] = true
		}
	}
	return sortedKeys(groups), nil
}

func (s *Store) ResumeTrigger(_ context.Context, key domain.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.triggers[key]
	if !ok {
		return domain.ErrTriggerNotFound
	}
	s.resumeTriggerLocked(tr)
	return nil
}

func (s *Store) resumeTriggerLocked(tr *domain.Trigger) {
	switch tr.State {
	case domain.StatePausedBlocked:
		tr.State = domain.StateBlocked
	case domain.StatePaused:
		tr.State = domain.StateWaiting
	}
}

func (s *Store) ResumeTriggers(_ context.Context, m repository.Matcher) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := make(map[string]bool)
	for k, tr := range s.triggers {
		if m == nil || m.Matches(k) {
			delete(s.pausedTriggerGroups, k.Group)
			s.resumeTriggerLocked(tr)
			groups[k.Group] = true
		}
	}
	return sortedKeys(groups), nil
}

func (s *Store) PauseJob(_ context.Context, key domain.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[key]; !ok {
		return domain.ErrJobNotFound
	}
	for _, tr := range s.triggers {
		if tr.JobKey == key {
			s.pauseTriggerLocked(tr)
		}
	}
	return nil
}

func (s *Store) PauseJobs(_ context.Context, m repository.Matcher) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := make(map[string]bool)
	for jk := range s.jobs {
		if m == nil || m.Matches(jk) {
			groups[jk.Group] = true
			s.pausedJobGroups[jk.Group] = true
			for _, tr := range s.triggers {
				if tr.JobKey == jk {
					s.pauseTriggerLocked(tr)
				}
			}
		}
	}
	return sortedKeys(groups), nil
}

func (s *Store) ResumeJob(_ context.Context, key domain.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[key]; !ok {
		return domain.ErrJobNotFound
	}
	for _, tr := range s.triggers {
		if tr.JobKey == key {
			s.resumeTriggerLocked(tr)
		}
	}
	return nil
}

func (s *Store) ResumeJobs(_ context.Context, m repository.Matcher) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := make(map[string]bool)
	for jk := range s.jobs {
		if m == nil || m.Matches(jk) {
			groups[jk.Group] = true
			delete(s.pausedJobGroups, jk.Group)
			for _, tr := range s.triggers {
				if tr.JobKey == jk {
					s.resumeTriggerLocked(tr)
				}
			}
		}
	}
	return sortedKeys(groups), nil
}

func (s *Store) PauseAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedulerPaused = true
	for k, tr := range s.triggers {
		s.pauseTriggerLocked(tr)
		s.pausedTriggerGroups[k.Group] = true
	}
	return nil
}

func (s *Store) ResumeAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedulerPaused = false
	s.pausedTriggerGroups = make(map[string]bool)
	for _, tr := range s.triggers {
		s.resumeTriggerLocked(tr)
	}
	return nil
}

func (s *Store) GetPausedTriggerGroups(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := make(map[string]bool, len(s.pausedTriggerGroups))
	for g := range s.pausedTriggerGroups {
		groups[g] = true
	}
	return sortedKeys(groups), nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
