package notification

import (
	"time"

	"minitask-backend/internal/task/domain"
)

// Notification types understood by the dispatch channels.
const (
	TypeDeadlineReminder = "deadline_reminder"
	TypeManualReminder   = "manual_reminder"
	TypeTaskAssigned     = "task_assigned"
	TypeTaskCompleted    = "task_completed"
	TypeTaskOverdue      = "task_overdue"
	TypeDailySummary     = "daily_summary"
)

// Priority of a notification, independent of task priority.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Notification is the payload handed to the dispatch channels. The
// dispatcher resolves Recipients (user IDs) to Telegram chats and FCM
// device tokens.
type Notification struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	TaskID     string            `json:"task_id,omitempty"`
	Recipients []string          `json:"recipients,omitempty"`
	Priority   Priority          `json:"priority"`
	Timestamp  time.Time         `json:"timestamp"`
	Data       map[string]string `json:"data,omitempty"`

	// TelegramHTML is the prerendered Telegram body. When empty the
	// dispatcher falls back to a generic title plus message rendering.
	// Never serialized; push and SSE payloads carry Message instead.
	TelegramHTML string `json:"-"`
}

// PriorityFor maps a task and the reminder interval that fired to a
// notification priority. High-priority tasks and short-fuse intervals
// escalate; everything else stays low.
func PriorityFor(task *domain.Task, interval domain.ReminderInterval) Priority {
	if task.IsHighPriority() {
		return PriorityHigh
	}
	if interval.Unit == domain.UnitMinute {
		return PriorityHigh
	}
	if interval.Unit == domain.UnitHour && interval.Value <= 2 {
		return PriorityHigh
	}
	if interval.Unit == domain.UnitHour && interval.Value <= 24 {
		return PriorityMedium
	}
	return PriorityLow
}
