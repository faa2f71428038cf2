package scheduler

import (
	"log"
	"sort"
	"time"

	"minitask-backend/internal/task/domain"
)

// DueReminder identifies the next reminder that should fire for a task.
type DueReminder struct {
	Interval     domain.ReminderInterval
	ReminderTime time.Time
	Key          string
}

// Evaluate returns the first configured reminder that is due now and
// has not been sent yet, or nil when there is nothing to do. Intervals
// are checked in configuration order and at most one reminder is
// reported per call; after recording the dispatch the next call
// surfaces the next due interval.
//
// Tasks without a deadline, with reminders disabled, or already
// completed never produce a reminder.
func Evaluate(task *domain.Task, now time.Time) *DueReminder {
	if !task.HasDeadline() || !task.ReminderSettings.Enabled || task.IsCompleted() {
		return nil
	}

	deadline := *task.Deadline
	for _, interval := range task.ReminderSettings.Intervals {
		if !interval.Enabled {
			continue
		}

		offset, ok := interval.Offset()
		if !ok {
			// Validation upstream should have rejected this; skip the
			// interval rather than abort the task's other reminders.
			log.Printf("[Scheduler] Task %s has reminder with unsupported unit %q, skipping", task.ID, interval.Unit)
			continue
		}

		reminderTime := deadline.Add(-offset)
		key := interval.Key()
		if !now.Before(reminderTime) && !task.ReminderSent(key) {
			return &DueReminder{Interval: interval, ReminderTime: reminderTime, Key: key}
		}
	}

	return nil
}

// UpcomingReminder is a reminder that has not fired yet.
type UpcomingReminder struct {
	Interval     domain.ReminderInterval
	ReminderTime time.Time
	Key          string
}

// UpcomingReminders lists every enabled, not-yet-sent interval whose
// fire time is still in the future, soonest first. Display only; the
// sent log is never touched.
func UpcomingReminders(task *domain.Task, now time.Time) []UpcomingReminder {
	if !task.HasDeadline() || !task.ReminderSettings.Enabled {
		return nil
	}

	deadline := *task.Deadline
	var upcoming []UpcomingReminder
	for _, interval := range task.ReminderSettings.Intervals {
		if !interval.Enabled {
			continue
		}

		offset, ok := interval.Offset()
		if !ok {
			continue
		}

		reminderTime := deadline.Add(-offset)
		key := interval.Key()
		if reminderTime.After(now) && !task.ReminderSent(key) {
			upcoming = append(upcoming, UpcomingReminder{Interval: interval, ReminderTime: reminderTime, Key: key})
		}
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].ReminderTime.Before(upcoming[j].ReminderTime)
	})
	return upcoming
}
