// Package listener implements the trigger/job/scheduler listener registries:
// ordered fanout to interested listeners, filtered by key matchers.
package listener

import (
	"strings"

	"github.com/quartzgo/quartz/internal/domain"
)

// Matcher decides whether a listener cares about a given key.
type Matcher interface {
	Matches(key domain.Key) bool
}

type anyMatcher struct{}

func (anyMatcher) Matches(domain.Key) bool { return true }

// Any matches every key.
func Any() Matcher { return anyMatcher{} }

type compareOp int

const (
	opEquals compareOp = iota
	opStartsWith
	opContains
	opEndsWith
)

type fieldMatcher struct {
	op     compareOp
	group  bool // true = compare Group, false = compare Name
	value  string
}

func (m fieldMatcher) Matches(key domain.Key) bool {
	field := key.Name
	if m.group {
		field = key.Group
	}
	switch m.op {
	case opEquals:
		return field == m.value
	case opStartsWith:
		return strings.HasPrefix(field, m.value)
	case opContains:
		return strings.Contains(field, m.value)
	case opEndsWith:
		return strings.HasSuffix(field, m.value)
	default:
		return false
	}
}

type keyMatcher struct{ key domain.Key }

func (m keyMatcher) Matches(key domain.Key) bool { return key == m.key }

func KeyEquals(key domain.Key) Matcher     { return keyMatcher{key: key} }
func NameStartsWith(prefix string) Matcher { return fieldMatcher{op: opStartsWith, value: prefix} }
func NameContains(substr string) Matcher   { return fieldMatcher{op: opContains, value: substr} }
func NameEndsWith(suffix string) Matcher   { return fieldMatcher{op: opEndsWith, value: suffix} }

func GroupEquals(group string) Matcher      { return fieldMatcher{op: opEquals, group: true, value: group} }
func GroupStartsWith(prefix string) Matcher { return fieldMatcher{op: opStartsWith, group: true, value: prefix} }
func GroupContains(substr string) Matcher   { return fieldMatcher{op: opContains, group: true, value: substr} }
func GroupEndsWith(suffix string) Matcher   { return fieldMatcher{op: opEndsWith, group: true, value: suffix} }
