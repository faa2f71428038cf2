package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// StringList is stored as a JSON column.
type StringList []string

func (l StringList) Contains(value string) bool {
	for _, v := range l {
		if v == value {
			return true
		}
	}
	return false
}

// Group is a shared task list with its own member and admin rosters.
// Counters are denormalized so list views avoid per-group task scans.
type Group struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	Name           string     `json:"name" gorm:"not null"`
	Description    string     `json:"description"`
	Color          string     `json:"color"`
	CreatedBy      string     `json:"created_by" gorm:"index"`
	Members        StringList `json:"members" gorm:"serializer:json"`
	Admins         StringList `json:"admins" gorm:"serializer:json"`
	TaskCount      int        `json:"task_count"`
	CompletedCount int        `json:"completed_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Validate checks group fields before persistence.
func (g *Group) Validate() error {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return errors.New("group name is required")
	}
	if len(name) > 100 {
		return errors.New("group name must be 100 characters or less")
	}
	if len(g.Description) > 500 {
		return errors.New("group description must be 500 characters or less")
	}
	if g.Color != "" && !hexColorPattern.MatchString(g.Color) {
		return errors.New("group color must be a hex value like #RRGGBB")
	}
	return nil
}

func (g *Group) IsMember(userID string) bool {
	return g.Members.Contains(userID)
}

func (g *Group) IsAdmin(userID string) bool {
	return g.Admins.Contains(userID)
}

// AddMember appends userID to the roster. Returns false when already a
// member.
func (g *Group) AddMember(userID string) bool {
	if g.IsMember(userID) {
		return false
	}
	g.Members = append(g.Members, userID)
	return true
}

// RemoveMember drops userID from both rosters. Returns false when not
// a member.
func (g *Group) RemoveMember(userID string) bool {
	if !g.IsMember(userID) {
		return false
	}
	g.Members = remove(g.Members, userID)
	g.Admins = remove(g.Admins, userID)
	return true
}

// Promote grants admin to an existing member.
func (g *Group) Promote(userID string) bool {
	if !g.IsMember(userID) || g.IsAdmin(userID) {
		return false
	}
	g.Admins = append(g.Admins, userID)
	return true
}

// Demote revokes admin. The group creator keeps admin permanently.
func (g *Group) Demote(userID string) bool {
	if userID == g.CreatedBy || !g.IsAdmin(userID) {
		return false
	}
	g.Admins = remove(g.Admins, userID)
	return true
}

// CompletionRate returns the completed share in percent, rounded to
// whole numbers. Zero tasks yields zero.
func (g *Group) CompletionRate() int {
	if g.TaskCount <= 0 {
		return 0
	}
	return int(float64(g.CompletedCount)/float64(g.TaskCount)*100 + 0.5)
}

func remove(list StringList, value string) StringList {
	out := list[:0]
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
