package repository

import (
	"time"

	authdomain "minitask-backend/internal/auth/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *authdomain.User) error
	FindByID(id string) (*authdomain.User, error)
	FindByTelegramID(telegramID int64) (*authdomain.User, error)
	FindAll() ([]*authdomain.User, error)
	FindByStatus(status authdomain.ApprovalStatus) ([]*authdomain.User, error)
	Update(user *authdomain.User) error
	Delete(id string) error
	CountByStatus(status authdomain.ApprovalStatus) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *authdomain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByTelegramID(telegramID int64) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.Where("telegram_id = ?", telegramID).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindAll() ([]*authdomain.User, error) {
	var users []*authdomain.User
	err := r.db.Order("created_at ASC").Find(&users).Error
	return users, err
}

func (r *userRepository) FindByStatus(status authdomain.ApprovalStatus) ([]*authdomain.User, error) {
	var users []*authdomain.User
	err := r.db.Where("status = ?", status).Order("created_at ASC").Find(&users).Error
	return users, err
}

func (r *userRepository) Update(user *authdomain.User) error {
	user.UpdatedAt = time.Now()
	return r.db.Save(user).Error
}

func (r *userRepository) Delete(id string) error {
	return r.db.Delete(&authdomain.User{}, "id = ?", id).Error
}

func (r *userRepository) CountByStatus(status authdomain.ApprovalStatus) (int64, error) {
	var count int64
	err := r.db.Model(&authdomain.User{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
