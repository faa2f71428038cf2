package usecase

import (
	"minitask-backend/internal/task/domain"
)

// TaskUsecase defines the interface for task business logic
type TaskUsecase interface {
	// CreateTask creates a new task on behalf of userID
	CreateTask(userID string, req TaskCreateRequest) (*domain.Task, error)

	// GetTask retrieves a task by ID
	GetTask(taskID string) (*domain.Task, error)

	// GetTasks retrieves tasks matching the optional filters
	GetTasks(status, assignee, groupID *string) ([]*domain.Task, error)

	// UpdateTask applies partial updates to an existing task
	UpdateTask(userID, taskID string, updates TaskUpdateRequest) (*domain.Task, error)

	// DeleteTask removes a task
	DeleteTask(userID, taskID string) error

	// SetStatus transitions a task between pending, in-progress and completed
	SetStatus(userID, taskID string, status domain.TaskStatus) (*domain.Task, error)

	// AssignTask changes the assignee ("" unassigns)
	AssignTask(userID, taskID, assignee string) (*domain.Task, error)

	// UpdateReminderSettings replaces a task's reminder configuration
	UpdateReminderSettings(userID, taskID string, settings domain.ReminderSettings) (*domain.Task, error)

	// SearchTasks fuzzy-matches the query against titles, descriptions and tags
	SearchTasks(query string) ([]*domain.Task, error)

	// Stats aggregates counters over tasks matching the filter
	Stats(groupID *string) (TaskStats, error)

	// ExportCSV renders tasks as a CSV document
	ExportCSV() ([]byte, error)

	// ExportJSON renders tasks as a JSON document
	ExportJSON() ([]byte, error)
}

// TaskCreateRequest carries the fields accepted at creation time.
type TaskCreateRequest struct {
	Title            string                   `json:"title"`
	Description      string                   `json:"description"`
	Assignee         string                   `json:"assignee"`
	GroupID          string                   `json:"group_id"`
	Priority         string                   `json:"priority"`
	Deadline         *string                  `json:"deadline"`
	Tags             []string                 `json:"tags"`
	ReminderSettings *domain.ReminderSettings `json:"reminder_settings"`
}

// TaskUpdateRequest represents the fields that can be updated. Nil
// means "leave unchanged"; an empty-string Deadline clears it.
type TaskUpdateRequest struct {
	Title            *string                  `json:"title,omitempty"`
	Description      *string                  `json:"description,omitempty"`
	Assignee         *string                  `json:"assignee,omitempty"`
	GroupID          *string                  `json:"group_id,omitempty"`
	Priority         *string                  `json:"priority,omitempty"`
	Status           *string                  `json:"status,omitempty"`
	Deadline         *string                  `json:"deadline,omitempty"`
	Tags             *[]string                `json:"tags,omitempty"`
	ReminderSettings *domain.ReminderSettings `json:"reminder_settings,omitempty"`
}

// TaskStats mirrors the counters the mini app's dashboard shows.
type TaskStats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	InProgress     int `json:"in_progress"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completion_rate"`
}
