package repository

import (
	"minitask-backend/internal/group/domain"
)

// GroupRepository defines the interface for group data access
type GroupRepository interface {
	Create(group *domain.Group) error
	FindByID(id string) (*domain.Group, error)
	FindAll() ([]*domain.Group, error)
	FindByMember(userID string) ([]*domain.Group, error)
	Update(group *domain.Group) error
	Delete(id string) error
}
