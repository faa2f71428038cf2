package repository

import (
	"time"

	"minitask-backend/internal/task/domain"
)

// Filter narrows listing queries. Nil fields match everything.
type Filter struct {
	Status   *domain.TaskStatus
	Assignee *string
	GroupID  *string
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create stores a new task
	Create(task *domain.Task) error

	// FindByID finds a task by its ID; (nil, nil) when absent
	FindByID(id string) (*domain.Task, error)

	// FindAll returns tasks matching the filter
	FindAll(filter Filter) ([]*domain.Task, error)

	// Update saves an existing task
	Update(task *domain.Task) error

	// Delete removes a task by ID
	Delete(id string) error

	// AllTasks returns the whole collection, for the reminder scheduler
	AllTasks() ([]*domain.Task, error)

	// TaskByID is FindByID under the scheduler's narrower contract
	TaskByID(id string) (*domain.Task, error)

	// SaveReminderLog persists only a task's sent-reminder log
	SaveReminderLog(id string, reminders domain.SentReminders, updatedAt time.Time) error
}
