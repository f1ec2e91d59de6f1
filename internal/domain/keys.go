// Package domain holds the core Quartz data model: keys, job details, triggers,
// calendars, and the records the clustered store uses to coordinate fires.
package domain

import "errors"

// DefaultGroup is the group name used when a caller supplies an empty one.
const DefaultGroup = "DEFAULT"

var ErrEmptyName = errors.New("domain: name must not be empty")

// Key pairs a name with a group. Two keys are equal iff both fields match;
// an empty group is normalized to DefaultGroup by NewKey, never by direct
// struct construction — callers building a Key literal are expected to
// already have a non-empty group.
type Key struct {
	Name  string
	Group string
}

// NewKey builds a Key, normalizing an empty group to DefaultGroup and
// rejecting an empty name.
func NewKey(name, group string) (Key, error) {
	if name == "" {
		return Key{}, ErrEmptyName
	}
	if group == "" {
		group = DefaultGroup
	}
	return Key{Name: name, Group: group}, nil
}

func (k Key) String() string {
	return k.Group + "." + k.Name
}

// JobKey identifies a JobDetail.
type JobKey = Key

// TriggerKey identifies a Trigger.
type TriggerKey = Key
