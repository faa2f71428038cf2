package repository

import (
	"time"

	authdomain "minitask-backend/internal/auth/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// VerificationRepository stores phone verification challenges.
type VerificationRepository interface {
	// CreateCode hashes and stores a fresh code, replacing earlier ones
	CreateCode(userID, code string, now time.Time) error
	// LatestForUser returns the newest code for a user; (nil, nil) when none
	LatestForUser(userID string) (*authdomain.VerificationCode, error)
	// RecordAttempt bumps the attempt counter
	RecordAttempt(id string) error
	// DeleteForUser removes all codes for a user
	DeleteForUser(userID string) error
}

// CheckCode compares a submitted code against the stored hash.
func CheckCode(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) CreateCode(userID, code string, now time.Time) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := r.DeleteForUser(userID); err != nil {
		return err
	}

	record := &authdomain.VerificationCode{
		ID:        uuid.New().String(),
		UserID:    userID,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(authdomain.CodeTTL),
		CreatedAt: now,
	}
	return r.db.Create(record).Error
}

func (r *verificationRepository) LatestForUser(userID string) (*authdomain.VerificationCode, error) {
	var code authdomain.VerificationCode
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").First(&code).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

func (r *verificationRepository) RecordAttempt(id string) error {
	return r.db.Model(&authdomain.VerificationCode{}).Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

func (r *verificationRepository) DeleteForUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&authdomain.VerificationCode{}).Error
}
