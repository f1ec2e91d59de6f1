package memory

import "errors"

var (
	errCalendarExists  = errors.New("memory: calendar already exists")
	errCalendarNotFound = errors.New("memory: calendar not found")
)
