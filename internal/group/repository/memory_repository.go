package repository

import (
	"sync"

	"minitask-backend/internal/group/domain"
)

type memoryGroupRepository struct {
	mu     sync.RWMutex
	groups map[string]*domain.Group
}

// NewMemoryGroupRepository creates an in-memory group repository,
// used in tests.
func NewMemoryGroupRepository() GroupRepository {
	return &memoryGroupRepository{groups: make(map[string]*domain.Group)}
}

func (r *memoryGroupRepository) Create(group *domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.ID] = clone(group)
	return nil
}

func (r *memoryGroupRepository) FindByID(id string) (*domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, ok := r.groups[id]
	if !ok {
		return nil, nil
	}
	return clone(group), nil
}

func (r *memoryGroupRepository) FindAll() ([]*domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	groups := make([]*domain.Group, 0, len(r.groups))
	for _, g := range r.groups {
		groups = append(groups, clone(g))
	}
	return groups, nil
}

func (r *memoryGroupRepository) FindByMember(userID string) ([]*domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var groups []*domain.Group
	for _, g := range r.groups {
		if g.IsMember(userID) {
			groups = append(groups, clone(g))
		}
	}
	return groups, nil
}

func (r *memoryGroupRepository) Update(group *domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.ID] = clone(group)
	return nil
}

func (r *memoryGroupRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, id)
	return nil
}

func clone(g *domain.Group) *domain.Group {
	cp := *g
	cp.Members = append(domain.StringList(nil), g.Members...)
	cp.Admins = append(domain.StringList(nil), g.Admins...)
	return &cp
}
