package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"minitask-backend/internal/sync"
	"minitask-backend/internal/task/domain"
	"minitask-backend/internal/task/repository"
	"minitask-backend/pkg/fuzzy"

	"github.com/google/uuid"
)

var ErrTaskNotFound = errors.New("task not found")

// GroupCounter keeps group task counters in step with task changes.
// Optional; nil disables counter maintenance.
type GroupCounter interface {
	TaskAdded(groupID string) error
	TaskRemoved(groupID string, completed bool) error
	TaskCompleted(groupID string) error
	TaskReopened(groupID string) error
}

// Notifier pushes task lifecycle notifications (assignment, completion).
// Optional; nil disables them.
type Notifier interface {
	NotifyTaskAssigned(task *domain.Task, assignee string) error
	NotifyTaskCompleted(task *domain.Task, completedBy string) error
}

// taskUsecase implements TaskUsecase
type taskUsecase struct {
	taskRepo repository.TaskRepository
	groups   GroupCounter
	notifier Notifier
	events   sync.Publisher
	now      func() time.Time
}

// NewTaskUsecase creates a new instance of taskUsecase. groups,
// notifier and events may be nil; now defaults to time.Now.
func NewTaskUsecase(taskRepo repository.TaskRepository, groups GroupCounter, notifier Notifier, events sync.Publisher, now func() time.Time) TaskUsecase {
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = sync.NoopPublisher{}
	}
	return &taskUsecase{
		taskRepo: taskRepo,
		groups:   groups,
		notifier: notifier,
		events:   events,
		now:      now,
	}
}

func (u *taskUsecase) CreateTask(userID string, req TaskCreateRequest) (*domain.Task, error) {
	settings := domain.DefaultReminderSettings()
	if req.ReminderSettings != nil {
		settings = *req.ReminderSettings
	}

	task := &domain.Task{
		ID:               uuid.New().String(),
		GroupID:          req.GroupID,
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		Assignee:         req.Assignee,
		CreatedBy:        userID,
		Priority:         parsePriority(req.Priority),
		Status:           domain.TaskStatusPending,
		Tags:             req.Tags,
		ReminderSettings: settings,
	}

	if req.Deadline != nil && *req.Deadline != "" {
		t, err := time.Parse(time.RFC3339, *req.Deadline)
		if err != nil {
			return nil, fmt.Errorf("invalid deadline: %w", err)
		}
		task.Deadline = &t
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := u.taskRepo.Create(task); err != nil {
		return nil, err
	}

	if task.GroupID != "" && u.groups != nil {
		if err := u.groups.TaskAdded(task.GroupID); err != nil {
			log.Printf("[TaskUsecase] Failed to bump task count for group %s: %v", task.GroupID, err)
		}
	}

	if task.Assignee != "" && task.Assignee != userID {
		u.notifyAssigned(task)
	}

	u.publish(sync.EventTaskCreated, task, userID)
	return task, nil
}

func (u *taskUsecase) GetTask(taskID string) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (u *taskUsecase) GetTasks(status, assignee, groupID *string) ([]*domain.Task, error) {
	filter := repository.Filter{Assignee: assignee, GroupID: groupID}
	if status != nil && *status != "" && *status != "all" {
		s := domain.TaskStatus(*status)
		filter.Status = &s
	}
	return u.taskRepo.FindAll(filter)
}

func (u *taskUsecase) UpdateTask(userID, taskID string, updates TaskUpdateRequest) (*domain.Task, error) {
	task, err := u.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	previousAssignee := task.Assignee

	if updates.Title != nil {
		task.Title = strings.TrimSpace(*updates.Title)
	}
	if updates.Description != nil {
		task.Description = *updates.Description
	}
	if updates.Assignee != nil {
		task.Assignee = *updates.Assignee
	}
	if updates.GroupID != nil {
		task.GroupID = *updates.GroupID
	}
	if updates.Priority != nil {
		task.Priority = parsePriority(*updates.Priority)
	}
	if updates.Status != nil {
		if _, err := u.applyStatus(task, domain.TaskStatus(*updates.Status), userID); err != nil {
			return nil, err
		}
	}
	if updates.Deadline != nil {
		if *updates.Deadline == "" {
			task.Deadline = nil
		} else {
			t, err := time.Parse(time.RFC3339, *updates.Deadline)
			if err != nil {
				return nil, fmt.Errorf("invalid deadline: %w", err)
			}
			task.Deadline = &t
		}
	}
	if updates.Tags != nil {
		task.Tags = *updates.Tags
	}
	if updates.ReminderSettings != nil {
		task.ReminderSettings = *updates.ReminderSettings
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	task.UpdatedAt = u.now()
	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}

	if task.Assignee != "" && task.Assignee != previousAssignee && task.Assignee != userID {
		u.notifyAssigned(task)
	}

	u.publish(sync.EventTaskUpdated, task, userID)
	return task, nil
}

func (u *taskUsecase) DeleteTask(userID, taskID string) error {
	task, err := u.GetTask(taskID)
	if err != nil {
		return err
	}

	if err := u.taskRepo.Delete(taskID); err != nil {
		return err
	}

	if task.GroupID != "" && u.groups != nil {
		if err := u.groups.TaskRemoved(task.GroupID, task.IsCompleted()); err != nil {
			log.Printf("[TaskUsecase] Failed to drop task count for group %s: %v", task.GroupID, err)
		}
	}

	u.publish(sync.EventTaskDeleted, task, userID)
	return nil
}

func (u *taskUsecase) SetStatus(userID, taskID string, status domain.TaskStatus) (*domain.Task, error) {
	task, err := u.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	changed, err := u.applyStatus(task, status, userID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return task, nil
	}

	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}

	u.publish(sync.EventTaskUpdated, task, userID)
	return task, nil
}

// applyStatus mutates the task's status and keeps group counters and
// completion notifications consistent. Reports whether anything changed.
func (u *taskUsecase) applyStatus(task *domain.Task, status domain.TaskStatus, userID string) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("invalid status %q", status)
	}
	if task.Status == status {
		return false, nil
	}

	wasCompleted := task.IsCompleted()
	now := u.now()
	switch status {
	case domain.TaskStatusCompleted:
		task.MarkCompleted(userID, now)
	case domain.TaskStatusInProgress:
		task.MarkInProgress(userID, now)
	case domain.TaskStatusPending:
		task.MarkPending(now)
	}

	if task.GroupID != "" && u.groups != nil {
		var err error
		if !wasCompleted && task.IsCompleted() {
			err = u.groups.TaskCompleted(task.GroupID)
		} else if wasCompleted && !task.IsCompleted() {
			err = u.groups.TaskReopened(task.GroupID)
		}
		if err != nil {
			log.Printf("[TaskUsecase] Failed to adjust counters for group %s: %v", task.GroupID, err)
		}
	}

	if !wasCompleted && task.IsCompleted() && u.notifier != nil && task.CreatedBy != "" && task.CreatedBy != userID {
		if err := u.notifier.NotifyTaskCompleted(task, userID); err != nil {
			log.Printf("[TaskUsecase] Completion notification failed for task %s: %v", task.ID, err)
		}
	}
	return true, nil
}

func (u *taskUsecase) AssignTask(userID, taskID, assignee string) (*domain.Task, error) {
	return u.UpdateTask(userID, taskID, TaskUpdateRequest{Assignee: &assignee})
}

func (u *taskUsecase) UpdateReminderSettings(userID, taskID string, settings domain.ReminderSettings) (*domain.Task, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return u.UpdateTask(userID, taskID, TaskUpdateRequest{ReminderSettings: &settings})
}

// SearchTasks matches the query against title, description and tags,
// tolerating small typos.
func (u *taskUsecase) SearchTasks(query string) ([]*domain.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	tasks, err := u.taskRepo.FindAll(repository.Filter{})
	if err != nil {
		return nil, err
	}

	threshold := fuzzy.ThresholdFor(query)
	var matches []*domain.Task
	for _, task := range tasks {
		if fuzzy.Match(query, task.Title, threshold) ||
			fuzzy.Match(query, task.Description, threshold) {
			matches = append(matches, task)
			continue
		}
		for _, tag := range task.Tags {
			if fuzzy.Match(query, tag, threshold) {
				matches = append(matches, task)
				break
			}
		}
	}
	return matches, nil
}

func (u *taskUsecase) Stats(groupID *string) (TaskStats, error) {
	tasks, err := u.taskRepo.FindAll(repository.Filter{GroupID: groupID})
	if err != nil {
		return TaskStats{}, err
	}

	now := u.now()
	stats := TaskStats{Total: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case domain.TaskStatusCompleted:
			stats.Completed++
		case domain.TaskStatusPending:
			stats.Pending++
		case domain.TaskStatusInProgress:
			stats.InProgress++
		}
		if task.IsOverdue(now) && !task.IsCompleted() {
			stats.Overdue++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = int(float64(stats.Completed)/float64(stats.Total)*100 + 0.5)
	}
	return stats, nil
}

func (u *taskUsecase) notifyAssigned(task *domain.Task) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.NotifyTaskAssigned(task, task.Assignee); err != nil {
		log.Printf("[TaskUsecase] Assignment notification failed for task %s: %v", task.ID, err)
	}
}

func (u *taskUsecase) publish(kind string, task *domain.Task, actorID string) {
	event := sync.Event{
		Kind:      kind,
		TaskID:    task.ID,
		GroupID:   task.GroupID,
		ActorID:   actorID,
		Timestamp: u.now(),
	}
	if err := u.events.Publish(context.Background(), event); err != nil {
		log.Printf("[TaskUsecase] Failed to publish %s event for task %s: %v", kind, task.ID, err)
	}
}

func parsePriority(p string) domain.Priority {
	switch p {
	case "high":
		return domain.PriorityHigh
	case "low":
		return domain.PriorityLow
	default:
		return domain.PriorityMedium
	}
}
