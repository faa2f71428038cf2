package domain

import "time"

// VerificationCode is a short-lived phone verification challenge. Only
// the bcrypt hash of the code is stored.
type VerificationCode struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	CodeHash  string    `json:"-" gorm:"not null"`
	Attempts  int       `json:"attempts" gorm:"default:0"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	// CodeTTL is how long a verification code stays valid.
	CodeTTL = 5 * time.Minute
	// MaxCodeAttempts before the code is burned.
	MaxCodeAttempts = 3
)

func (v *VerificationCode) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

func (v *VerificationCode) AttemptsExhausted() bool {
	return v.Attempts >= MaxCodeAttempts
}
