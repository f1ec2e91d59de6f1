package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quartzgo/quartz/internal/calendar"
	"github.com/quartzgo/quartz/internal/domain"
)

func (s *Store) StoreCalendar(ctx context.Context, cal *domain.Calendar, replaceExisting bool) error {
	data, err := marshalCalendarData(cal)
	if err != nil {
		return err
	}

	query := `INSERT INTO calendars (calendar_name, base_name, kind, description, data) VALUES ($1,$2,$3,$4,$5)`
	if replaceExisting {
		query += ` ON CONFLICT (calendar_name) DO UPDATE SET base_name=EXCLUDED.base_name, kind=EXCLUDED.kind, description=EXCLUDED.description, data=EXCLUDED.data`
	}

	_, err = s.pool.Exec(ctx, query, cal.Name, cal.BaseName, int16(cal.Kind), cal.Description, data)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return errCalendarExists
		}
		return fmt.Errorf("postgres: store calendar: %w", err)
	}
	return nil
}

func (s *Store) RemoveCalendar(ctx context.Context, name string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM calendars WHERE calendar_name=$1`, name)
	if err != nil {
		return false, fmt.Errorf("postgres: remove calendar: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) RetrieveCalendar(ctx context.Context, name string) (*domain.Calendar, error) {
	return s.retrieveCalendar(ctx, s.pool, name)
}

func (s *Store) retrieveCalendar(ctx context.Context, q pgxPool, name string) (*domain.Calendar, error) {
	var (
		baseName, description string
		kind                  int16
		data                  []byte
	)
	err := q.QueryRow(ctx, `SELECT base_name, kind, description, data FROM calendars WHERE calendar_name=$1`, name).
		Scan(&baseName, &kind, &description, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errCalendarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: retrieve calendar: %w", err)
	}
	return unmarshalCalendarData(name, baseName, description, domain.CalendarKind(kind), data)
}

func (s *Store) GetCalendarNames(ctx context.Context) ([]string, error) {
	return scanGroupNames(ctx, s.pool, `SELECT calendar_name FROM calendars ORDER BY calendar_name`)
}

// buildFilter compiles the named calendar (and its base chain) into a live
// calendar.Filter, fetching bases lazily from the store.
func (s *Store) buildFilter(ctx context.Context, q pgxPool, name string) (calendar.Filter, error) {
	if name == "" {
		return nil, nil
	}
	cal, err := s.retrieveCalendar(ctx, q, name)
	if errors.Is(err, errCalendarNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return calendar.Build(cal, func(n string) (*domain.Calendar, bool) {
		base, err := s.retrieveCalendar(ctx, q, n)
		if err != nil {
			return nil, false
		}
		return base, true
	})
}

func marshalCalendarData(cal *domain.Calendar) ([]byte, error) {
	var payload any
	switch cal.Kind {
	case domain.CalendarAnnual:
		payload = cal.Annual
	case domain.CalendarWeekly:
		payload = cal.Weekly
	case domain.CalendarMonthly:
		payload = cal.Monthly
	case domain.CalendarDaily:
		payload = cal.Daily
	case domain.CalendarCron:
		payload = cal.Cron
	case domain.CalendarHoliday:
		payload = cal.Holiday
	default:
		return nil, fmt.Errorf("postgres: calendar %q has unknown kind %d", cal.Name, cal.Kind)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal calendar data: %w", err)
	}
	return b, nil
}

func unmarshalCalendarData(name, baseName, description string, kind domain.CalendarKind, data []byte) (*domain.Calendar, error) {
	cal := &domain.Calendar{Name: name, BaseName: baseName, Description: description, Kind: kind}
	var err error
	switch kind {
	case domain.CalendarAnnual:
		cal.Annual = &domain.AnnualCalendarData{}
		err = json.Unmarshal(data, cal.Annual)
	case domain.CalendarWeekly:
		cal.Weekly = &domain.WeeklyCalendarData{}
		err = json.Unmarshal(data, cal.Weekly)
	case domain.CalendarMonthly:
		cal.Monthly = &domain.MonthlyCalendarData{}
		err = json.Unmarshal(data, cal.Monthly)
	case domain.CalendarDaily:
		cal.Daily = &domain.DailyCalendarData{}
		err = json.Unmarshal(data, cal.Daily)
	case domain.CalendarCron:
		cal.Cron = &domain.CronCalendarData{}
		err = json.Unmarshal(data, cal.Cron)
	case domain.CalendarHoliday:
		cal.Holiday = &domain.HolidayCalendarData{}
		err = json.Unmarshal(data, cal.Holiday)
	default:
		return nil, fmt.Errorf("postgres: calendar %q has unknown kind %d", name, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: unmarshal calendar data: %w", err)
	}
	return cal, nil
}
