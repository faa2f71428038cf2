package domain

import (
	"errors"
	"fmt"
	"time"
)

// Priority represents task priority level
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Severity classifies how urgent a task's deadline is right now.
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityOverdue  Severity = "overdue"
	SeverityCritical Severity = "critical"
	SeverityUrgent   Severity = "urgent"
	SeveritySoon     Severity = "soon"
	SeverityNormal   Severity = "normal"
)

const (
	criticalThreshold = 2 * time.Hour
	urgentThreshold   = 24 * time.Hour
	soonThreshold     = 72 * time.Hour
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
)

// Task represents a to-do item shared by a team through the mini app
type Task struct {
	ID               string           `json:"id" gorm:"primaryKey"`
	GroupID          string           `json:"group_id,omitempty" gorm:"index"`
	Title            string           `json:"title" gorm:"not null"`
	Description      string           `json:"description,omitempty"`
	Assignee         string           `json:"assignee,omitempty" gorm:"index"`
	CreatedBy        string           `json:"created_by,omitempty" gorm:"index"`
	Priority         Priority         `json:"priority" gorm:"default:medium"`
	Status           TaskStatus       `json:"status" gorm:"default:pending"`
	Deadline         *time.Time       `json:"deadline,omitempty"`
	Tags             StringList       `json:"tags" gorm:"serializer:json"`
	ReminderSettings ReminderSettings `json:"reminder_settings" gorm:"serializer:json"`
	Reminders        SentReminders    `json:"reminders" gorm:"serializer:json"`
	CompletedBy      string           `json:"completed_by,omitempty"`
	StartedBy        string           `json:"started_by,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// StringList is stored as a JSON column
type StringList []string

// Validate checks the task's user-supplied fields
func (t *Task) Validate() error {
	if t.Title == "" {
		return errors.New("title is required")
	}
	if len(t.Title) > maxTitleLength {
		return fmt.Errorf("title must be less than %d characters", maxTitleLength)
	}
	if len(t.Description) > maxDescriptionLength {
		return fmt.Errorf("description must be less than %d characters", maxDescriptionLength)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", t.Priority)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("invalid status %q", t.Status)
	}
	return t.ReminderSettings.Validate()
}

// HasDeadline reports whether the task has a usable deadline. A zero
// time slipped in through deserialization counts as no deadline.
func (t *Task) HasDeadline() bool {
	return t.Deadline != nil && !t.Deadline.IsZero()
}

func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

func (t *Task) IsHighPriority() bool {
	return t.Priority == PriorityHigh
}

// IsOverdue reports whether the deadline is strictly in the past.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.HasDeadline() && t.Deadline.Before(now)
}

// DaysOverdue returns how many days past the deadline the task is,
// rounded up: a deadline missed by a minute counts as one full day.
// The coarse rounding is an intentional escalation signal.
func (t *Task) DaysOverdue(now time.Time) int {
	if !t.IsOverdue(now) {
		return 0
	}
	diff := now.Sub(*t.Deadline)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// TimeRemaining is the signed distance between now and the deadline.
type TimeRemaining struct {
	Overdue bool
	Amount  time.Duration
}

// TimeUntilDeadline returns nil when the task has no deadline.
func (t *Task) TimeUntilDeadline(now time.Time) *TimeRemaining {
	if !t.HasDeadline() {
		return nil
	}
	diff := t.Deadline.Sub(now)
	if diff <= 0 {
		return &TimeRemaining{Overdue: true, Amount: -diff}
	}
	return &TimeRemaining{Overdue: false, Amount: diff}
}

// Severity buckets the remaining time into urgency tiers. Thresholds
// are inclusive: exactly two hours out is still critical.
func (t *Task) Severity(now time.Time) Severity {
	remaining := t.TimeUntilDeadline(now)
	if remaining == nil {
		return SeverityNone
	}
	if remaining.Overdue {
		return SeverityOverdue
	}
	switch {
	case remaining.Amount <= criticalThreshold:
		return SeverityCritical
	case remaining.Amount <= urgentThreshold:
		return SeverityUrgent
	case remaining.Amount <= soonThreshold:
		return SeveritySoon
	}
	return SeverityNormal
}

// IsDueSoon reports whether the task is due within the given number of
// hours (and not already overdue).
func (t *Task) IsDueSoon(now time.Time, hoursThreshold int) bool {
	remaining := t.TimeUntilDeadline(now)
	if remaining == nil || remaining.Overdue {
		return false
	}
	return remaining.Amount <= time.Duration(hoursThreshold)*time.Hour
}

// FormatTimeUntilDeadline renders the distance to the deadline using
// the largest whole unit, e.g. "2 days", "1 hour", "Overdue by 5 minutes".
// Returns "" when the task has no deadline.
func (t *Task) FormatTimeUntilDeadline(now time.Time) string {
	remaining := t.TimeUntilDeadline(now)
	if remaining == nil {
		return ""
	}

	prefix := ""
	if remaining.Overdue {
		prefix = "Overdue by "
	}

	days := int(remaining.Amount / (24 * time.Hour))
	hours := int(remaining.Amount % (24 * time.Hour) / time.Hour)
	minutes := int(remaining.Amount % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%s%d day%s", prefix, days, plural(days))
	case hours > 0:
		return fmt.Sprintf("%s%d hour%s", prefix, hours, plural(hours))
	default:
		return fmt.Sprintf("%s%d minute%s", prefix, minutes, plural(minutes))
	}
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// MarkCompleted transitions the task to completed and stamps who did it.
func (t *Task) MarkCompleted(userID string, now time.Time) {
	t.Status = TaskStatusCompleted
	if userID != "" {
		t.CompletedBy = userID
	}
	t.UpdatedAt = now
}

// MarkInProgress transitions the task to in-progress.
func (t *Task) MarkInProgress(userID string, now time.Time) {
	t.Status = TaskStatusInProgress
	if userID != "" {
		t.StartedBy = userID
	}
	t.UpdatedAt = now
}

// MarkPending returns the task to the pending state.
func (t *Task) MarkPending(now time.Time) {
	t.Status = TaskStatusPending
	t.UpdatedAt = now
}

func (t *Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

func (t *Task) AddTag(tag string, now time.Time) {
	if tag == "" || t.HasTag(tag) {
		return
	}
	t.Tags = append(t.Tags, tag)
	t.UpdatedAt = now
}

func (t *Task) RemoveTag(tag string, now time.Time) {
	kept := t.Tags[:0]
	for _, existing := range t.Tags {
		if existing != tag {
			kept = append(kept, existing)
		}
	}
	t.Tags = kept
	t.UpdatedAt = now
}
