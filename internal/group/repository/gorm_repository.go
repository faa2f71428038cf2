package repository

import (
	"errors"
	"fmt"

	"minitask-backend/internal/group/domain"

	"gorm.io/gorm"
)

type gormGroupRepository struct {
	db *gorm.DB
}

// NewGormGroupRepository creates a new GORM-based group repository
func NewGormGroupRepository(db *gorm.DB) GroupRepository {
	return &gormGroupRepository{db: db}
}

func (r *gormGroupRepository) Create(group *domain.Group) error {
	if err := r.db.Create(group).Error; err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

func (r *gormGroupRepository) FindByID(id string) (*domain.Group, error) {
	var group domain.Group
	err := r.db.Where("id = ?", id).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	return &group, nil
}

func (r *gormGroupRepository) FindAll() ([]*domain.Group, error) {
	var groups []*domain.Group
	if err := r.db.Order("name ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// FindByMember filters in memory; membership rosters are JSON columns
// and the team size is capped, so a table scan stays cheap.
func (r *gormGroupRepository) FindByMember(userID string) ([]*domain.Group, error) {
	all, err := r.FindAll()
	if err != nil {
		return nil, err
	}
	var groups []*domain.Group
	for _, g := range all {
		if g.IsMember(userID) {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func (r *gormGroupRepository) Update(group *domain.Group) error {
	if err := r.db.Save(group).Error; err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return nil
}

func (r *gormGroupRepository) Delete(id string) error {
	if err := r.db.Delete(&domain.Group{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}
