package repository

import (
	"sync"
	"time"

	"minitask-backend/internal/task/domain"

	"github.com/google/uuid"
)

// memoryTaskRepository is a map-backed TaskRepository. It backs tests
// and local development without a database.
type memoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
}

// NewMemoryTaskRepository creates an empty in-memory TaskRepository
func NewMemoryTaskRepository() TaskRepository {
	return &memoryTaskRepository{tasks: make(map[string]*domain.Task)}
}

func (r *memoryTaskRepository) Create(task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *memoryTaskRepository) FindByID(id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	clone := *task
	return &clone, nil
}

func (r *memoryTaskRepository) FindAll(filter Filter) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tasks []*domain.Task
	for _, task := range r.tasks {
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.Assignee != nil && task.Assignee != *filter.Assignee {
			continue
		}
		if filter.GroupID != nil && task.GroupID != *filter.GroupID {
			continue
		}
		clone := *task
		tasks = append(tasks, &clone)
	}
	return tasks, nil
}

func (r *memoryTaskRepository) Update(task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.UpdatedAt = time.Now()
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *memoryTaskRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
	return nil
}

func (r *memoryTaskRepository) AllTasks() ([]*domain.Task, error) {
	return r.FindAll(Filter{})
}

func (r *memoryTaskRepository) TaskByID(id string) (*domain.Task, error) {
	return r.FindByID(id)
}

func (r *memoryTaskRepository) SaveReminderLog(id string, reminders domain.SentReminders, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil
	}
	task.Reminders = append(domain.SentReminders(nil), reminders...)
	task.UpdatedAt = updatedAt
	return nil
}
