package domain

import "time"

// Role of a user within the team.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ApprovalStatus tracks the admin gate new users pass through.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// User is a team member identified by their Telegram account.
type User struct {
	ID            string         `json:"id" gorm:"primaryKey"`
	TelegramID    int64          `json:"telegram_id" gorm:"uniqueIndex;not null"`
	Username      string         `json:"username,omitempty"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name,omitempty"`
	Role          Role           `json:"role" gorm:"default:user"`
	Status        ApprovalStatus `json:"status" gorm:"default:pending"`
	PhoneNumber   string         `json:"phone_number,omitempty"`
	PhoneVerified bool           `json:"phone_verified" gorm:"default:false"`
	LastSeenAt    *time.Time     `json:"last_seen_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsApproved() bool {
	return u.Status == StatusApproved
}

// DisplayName prefers the username, falling back to the full name.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
