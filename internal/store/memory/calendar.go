package memory

import (
	"context"
	"sort"

	"github.com/quartzgo/quartz/internal/calendar"
	"github.com/quartzgo/quartz/internal/domain"
)

func (s *Store) StoreCalendar(_ context.Context, cal *domain.Calendar, replaceExisting bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.calendars[cal.Name]; exists && !replaceExisting {
		return errCalendarExists
	}
	cp := *cal
	s.calendars[cal.Name] = &cp
	return nil
}

func (s *Store) RemoveCalendar(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.calendars[name]; !ok {
		return false, nil
	}
	delete(s.calendars, name)
	return true, nil
}

func (s *Store) RetrieveCalendar(_ context.Context, name string) (*domain.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, ok := s.calendars[name]
	if !ok {
		return nil, errCalendarNotFound
	}
	cp := *cal
	return &cp, nil
}

func (s *Store) GetCalendarNames(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.calendars))
	for name := range s.calendars {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// buildFilterLocked compiles the named calendar into a live Filter. Caller
// must hold s.mu.
func (s *Store) buildFilterLocked(name string) (calendar.Filter, error) {
	if name == "" {
		return nil, nil
	}
	cal, ok := s.calendars[name]
	if !ok {
		return nil, nil
	}
	return calendar.Build(cal, func(n string) (*domain.Calendar, bool) {
		c, ok := s.calendars[n]
		return c, ok
	})
}
