package domain

import (
	"fmt"
	"time"
)

// ReminderUnit is the time unit of a reminder offset before the deadline.
type ReminderUnit string

const (
	UnitMinute ReminderUnit = "minute"
	UnitHour   ReminderUnit = "hour"
	UnitDay    ReminderUnit = "day"
	UnitWeek   ReminderUnit = "week"
)

// Duration returns the length of one unit. The second return value is
// false for units the engine does not support.
func (u ReminderUnit) Duration() (time.Duration, bool) {
	switch u {
	case UnitMinute:
		return time.Minute, true
	case UnitHour:
		return time.Hour, true
	case UnitDay:
		return 24 * time.Hour, true
	case UnitWeek:
		return 7 * 24 * time.Hour, true
	}
	return 0, false
}

// ReminderInterval is a configured offset before the deadline at which
// a reminder should fire. Intervals are independent of each other.
type ReminderInterval struct {
	Value   int          `json:"value"`
	Unit    ReminderUnit `json:"unit"`
	Enabled bool         `json:"enabled"`
}

// Key derives the deterministic identifier used to dedup this interval
// within one task's sent log, e.g. "2_hour".
func (i ReminderInterval) Key() string {
	return fmt.Sprintf("%d_%s", i.Value, i.Unit)
}

// Offset is the interval expressed as a duration. False for
// unsupported units.
func (i ReminderInterval) Offset() (time.Duration, bool) {
	unit, ok := i.Unit.Duration()
	if !ok {
		return 0, false
	}
	return time.Duration(i.Value) * unit, true
}

func (i ReminderInterval) Validate() error {
	if i.Value <= 0 {
		return fmt.Errorf("reminder interval value must be positive, got %d", i.Value)
	}
	if _, ok := i.Unit.Duration(); !ok {
		return fmt.Errorf("unsupported reminder unit %q", i.Unit)
	}
	return nil
}

// ReminderSettings controls whether and when deadline reminders fire
// for a task, and who receives them.
type ReminderSettings struct {
	Enabled          bool               `json:"enabled"`
	Intervals        []ReminderInterval `json:"intervals"`
	NotifyAssignee   bool               `json:"notify_assignee"`
	NotifyCreator    bool               `json:"notify_creator"`
	NotifyGroupAdmin bool               `json:"notify_group_admins"`
}

// DefaultReminderSettings mirrors the defaults offered in the mini app:
// a day-before and two-hours-before reminder on, a 15-minute one off.
func DefaultReminderSettings() ReminderSettings {
	return ReminderSettings{
		Enabled: true,
		Intervals: []ReminderInterval{
			{Value: 1, Unit: UnitDay, Enabled: true},
			{Value: 2, Unit: UnitHour, Enabled: true},
			{Value: 15, Unit: UnitMinute, Enabled: false},
		},
		NotifyAssignee: true,
		NotifyCreator:  true,
	}
}

// Validate rejects unsupported units and non-positive values at
// configuration time so evaluation never sees them.
func (s ReminderSettings) Validate() error {
	for _, interval := range s.Intervals {
		if err := interval.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SentReminder records one dispatched reminder for a task.
type SentReminder struct {
	Key    string    `json:"key"`
	SentAt time.Time `json:"sent_at"`
}

// SentReminders is the append-only log of reminders already dispatched
// for a task, stored as a JSON column.
type SentReminders []SentReminder

func (r SentReminders) Contains(key string) bool {
	for _, sent := range r {
		if sent.Key == key {
			return true
		}
	}
	return false
}

// ReminderSent reports whether the reminder identified by key has
// already been dispatched for this task.
func (t *Task) ReminderSent(key string) bool {
	return t.Reminders.Contains(key)
}

// MarkReminderSent appends a sent record for key. Re-marking an already
// recorded key is a no-op, keeping the log free of duplicates.
func (t *Task) MarkReminderSent(key string, sentAt time.Time) {
	if t.Reminders.Contains(key) {
		return
	}
	t.Reminders = append(t.Reminders, SentReminder{Key: key, SentAt: sentAt})
	t.UpdatedAt = sentAt
}
