package sync

import (
	"context"
	"time"
)

// Event kinds published on the task-change bus.
const (
	EventTaskCreated  = "task.created"
	EventTaskUpdated  = "task.updated"
	EventTaskDeleted  = "task.deleted"
	EventReminderSent = "task.reminder_sent"
	EventGroupChanged = "group.changed"
)

// Event describes one change to shared state. Subscribers (the SSE
// fan-out, other app instances) receive it verbatim; the core never
// talks to connected clients directly.
type Event struct {
	Kind      string            `json:"kind"`
	TaskID    string            `json:"task_id,omitempty"`
	GroupID   string            `json:"group_id,omitempty"`
	ActorID   string            `json:"actor_id,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Publisher pushes change events onto the bus. Implementations must be
// safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. Used when no Pub/Sub project is
// configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event Event) error { return nil }
