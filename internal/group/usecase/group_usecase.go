package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"minitask-backend/internal/group/domain"
	"minitask-backend/internal/group/repository"
	"minitask-backend/internal/sync"

	"github.com/google/uuid"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrNotGroupAdmin = errors.New("group admin role required")
	ErrNotMember     = errors.New("user is not a group member")
)

// GroupUsecase defines the interface for group business logic
type GroupUsecase interface {
	CreateGroup(userID string, req GroupCreateRequest) (*domain.Group, error)
	GetGroup(id string) (*domain.Group, error)
	GroupsForUser(userID string) ([]*domain.Group, error)
	UpdateGroup(userID, groupID string, req GroupUpdateRequest) (*domain.Group, error)
	DeleteGroup(userID, groupID string) error

	Join(userID, groupID string) error
	Leave(userID, groupID string) error
	Promote(adminID, groupID, userID string) error
	Demote(adminID, groupID, userID string) error

	// GroupAdmins returns the admin user IDs for reminder fan-out
	GroupAdmins(groupID string) ([]string, error)

	// Task counter hooks, driven by the task layer
	TaskAdded(groupID string) error
	TaskRemoved(groupID string, completed bool) error
	TaskCompleted(groupID string) error
	TaskReopened(groupID string) error
}

type GroupCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// GroupUpdateRequest fields are pointers; nil leaves the field as is.
type GroupUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

type groupUsecase struct {
	repo   repository.GroupRepository
	events sync.Publisher
	now    func() time.Time
}

// NewGroupUsecase creates a new instance of groupUsecase. events may
// be nil; now defaults to time.Now.
func NewGroupUsecase(repo repository.GroupRepository, events sync.Publisher, now func() time.Time) GroupUsecase {
	if events == nil {
		events = sync.NoopPublisher{}
	}
	if now == nil {
		now = time.Now
	}
	return &groupUsecase{repo: repo, events: events, now: now}
}

func (u *groupUsecase) CreateGroup(userID string, req GroupCreateRequest) (*domain.Group, error) {
	now := u.now()
	group := &domain.Group{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Color:       req.Color,
		CreatedBy:   userID,
		Members:     domain.StringList{userID},
		Admins:      domain.StringList{userID},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}
	if err := u.repo.Create(group); err != nil {
		return nil, err
	}
	u.publishChanged(group.ID, userID)
	return group, nil
}

func (u *groupUsecase) GetGroup(id string) (*domain.Group, error) {
	group, err := u.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

func (u *groupUsecase) GroupsForUser(userID string) ([]*domain.Group, error) {
	return u.repo.FindByMember(userID)
}

func (u *groupUsecase) UpdateGroup(userID, groupID string, req GroupUpdateRequest) (*domain.Group, error) {
	group, err := u.GetGroup(groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsAdmin(userID) {
		return nil, ErrNotGroupAdmin
	}

	if req.Name != nil {
		group.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if req.Color != nil {
		group.Color = *req.Color
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	group.UpdatedAt = u.now()
	if err := u.repo.Update(group); err != nil {
		return nil, err
	}
	u.publishChanged(group.ID, userID)
	return group, nil
}

// DeleteGroup removes the group record. Tasks keep their group_id and
// fall back to ungrouped presentation on the client.
func (u *groupUsecase) DeleteGroup(userID, groupID string) error {
	group, err := u.GetGroup(groupID)
	if err != nil {
		return err
	}
	if !group.IsAdmin(userID) {
		return ErrNotGroupAdmin
	}
	if err := u.repo.Delete(groupID); err != nil {
		return err
	}
	u.publishChanged(groupID, userID)
	return nil
}

func (u *groupUsecase) Join(userID, groupID string) error {
	return u.mutate(groupID, userID, func(g *domain.Group) error {
		g.AddMember(userID)
		return nil
	})
}

func (u *groupUsecase) Leave(userID, groupID string) error {
	return u.mutate(groupID, userID, func(g *domain.Group) error {
		if g.CreatedBy == userID {
			return fmt.Errorf("group creator cannot leave; delete the group instead")
		}
		if !g.RemoveMember(userID) {
			return ErrNotMember
		}
		return nil
	})
}

func (u *groupUsecase) Promote(adminID, groupID, userID string) error {
	return u.mutate(groupID, adminID, func(g *domain.Group) error {
		if !g.IsAdmin(adminID) {
			return ErrNotGroupAdmin
		}
		if !g.Promote(userID) {
			return ErrNotMember
		}
		return nil
	})
}

func (u *groupUsecase) Demote(adminID, groupID, userID string) error {
	return u.mutate(groupID, adminID, func(g *domain.Group) error {
		if !g.IsAdmin(adminID) {
			return ErrNotGroupAdmin
		}
		if !g.Demote(userID) {
			return fmt.Errorf("cannot demote user %s", userID)
		}
		return nil
	})
}

func (u *groupUsecase) GroupAdmins(groupID string) ([]string, error) {
	group, err := u.repo.FindByID(groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, nil
	}
	return group.Admins, nil
}

func (u *groupUsecase) TaskAdded(groupID string) error {
	return u.adjustCounters(groupID, func(g *domain.Group) {
		g.TaskCount++
	})
}

func (u *groupUsecase) TaskRemoved(groupID string, completed bool) error {
	return u.adjustCounters(groupID, func(g *domain.Group) {
		if g.TaskCount > 0 {
			g.TaskCount--
		}
		if completed && g.CompletedCount > 0 {
			g.CompletedCount--
		}
	})
}

func (u *groupUsecase) TaskCompleted(groupID string) error {
	return u.adjustCounters(groupID, func(g *domain.Group) {
		if g.CompletedCount < g.TaskCount {
			g.CompletedCount++
		}
	})
}

func (u *groupUsecase) TaskReopened(groupID string) error {
	return u.adjustCounters(groupID, func(g *domain.Group) {
		if g.CompletedCount > 0 {
			g.CompletedCount--
		}
	})
}

func (u *groupUsecase) mutate(groupID, actorID string, fn func(*domain.Group) error) error {
	group, err := u.GetGroup(groupID)
	if err != nil {
		return err
	}
	if err := fn(group); err != nil {
		return err
	}
	group.UpdatedAt = u.now()
	if err := u.repo.Update(group); err != nil {
		return err
	}
	u.publishChanged(groupID, actorID)
	return nil
}

// adjustCounters tolerates missing groups; counter drift must never
// fail a task write.
func (u *groupUsecase) adjustCounters(groupID string, fn func(*domain.Group)) error {
	if groupID == "" {
		return nil
	}
	group, err := u.repo.FindByID(groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return nil
	}
	fn(group)
	group.UpdatedAt = u.now()
	return u.repo.Update(group)
}

func (u *groupUsecase) publishChanged(groupID, actorID string) {
	event := sync.Event{
		Kind:      sync.EventGroupChanged,
		GroupID:   groupID,
		ActorID:   actorID,
		Timestamp: u.now(),
	}
	if err := u.events.Publish(context.Background(), event); err != nil {
		log.Printf("[GroupUsecase] failed to publish group event: %v", err)
	}
}
