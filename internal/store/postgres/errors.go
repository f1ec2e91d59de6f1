package postgres

import "errors"

var (
	errCalendarExists   = errors.New("postgres: calendar already exists")
	errCalendarNotFound = errors.New("postgres: calendar not found")
)
