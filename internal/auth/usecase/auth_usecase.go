package usecase

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	authdomain "minitask-backend/internal/auth/domain"
	"minitask-backend/internal/auth/repository"
	"minitask-backend/pkg/config"
	"minitask-backend/pkg/telegram"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrApprovalPending = errors.New("account pending admin approval")
	ErrAccountRejected = errors.New("account access was rejected")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotAdmin        = errors.New("admin role required")
	ErrTeamFull        = errors.New("team is full")
	ErrCodeInvalid     = errors.New("verification code invalid or expired")
	ErrNoPhoneNumber   = errors.New("user has no phone number on file")
	ErrInvalidToken    = errors.New("invalid or expired token")
)

// AuthUsecase defines the interface for authentication business logic
type AuthUsecase interface {
	// Authenticate validates Mini App initData and returns a session
	// token for an approved user. New Telegram identities are
	// registered as pending and the admin is notified.
	Authenticate(initData string) (*SessionResponse, error)

	// ValidateToken parses a session token and loads its user
	ValidateToken(token string) (*authdomain.User, error)

	// Team listing and approval management
	TeamMembers() ([]*authdomain.User, error)
	PendingApprovals() ([]*authdomain.User, error)
	Approve(adminID, userID string) error
	Reject(adminID, userID string) error
	RemoveMember(adminID, userID string) error

	// ApproveByTelegramID resolves bot callback approvals, where only
	// the admin's Telegram ID is known
	ApproveByTelegramID(adminTelegramID int64, userID string, approve bool) error

	// Phone verification
	RequestPhoneCode(userID, phoneNumber string) error
	VerifyPhoneCode(userID, code string) error
}

// SessionResponse carries the issued token and its user.
type SessionResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *authdomain.User `json:"user"`
}

type authUsecase struct {
	userRepo     repository.UserRepository
	verification repository.VerificationRepository
	bot          *telegram.Client
	config       *config.Config
	now          func() time.Time
}

// NewAuthUsecase creates a new instance of authUsecase. bot may be nil
// (approval notifications are then skipped); now defaults to time.Now.
func NewAuthUsecase(userRepo repository.UserRepository, verification repository.VerificationRepository, bot *telegram.Client, cfg *config.Config, now func() time.Time) AuthUsecase {
	if now == nil {
		now = time.Now
	}
	return &authUsecase{
		userRepo:     userRepo,
		verification: verification,
		bot:          bot,
		config:       cfg,
		now:          now,
	}
}

func (u *authUsecase) Authenticate(initData string) (*SessionResponse, error) {
	tgUser, err := ValidateInitData(initData, u.config.TelegramBotToken, u.now())
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.FindByTelegramID(tgUser.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = u.register(tgUser)
		if err != nil {
			return nil, err
		}
	}

	switch user.Status {
	case authdomain.StatusPending:
		return nil, ErrApprovalPending
	case authdomain.StatusRejected:
		return nil, ErrAccountRejected
	}

	seen := u.now()
	user.LastSeenAt = &seen
	if err := u.userRepo.Update(user); err != nil {
		log.Printf("[Auth] Failed to stamp last seen for user %s: %v", user.ID, err)
	}

	token, expiresAt, err := u.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// register creates the user record. The configured admin Telegram ID
// is auto-approved with the admin role; everyone else waits for
// approval unless the gate is disabled.
func (u *authUsecase) register(tgUser *TelegramUser) (*authdomain.User, error) {
	approved, err := u.userRepo.CountByStatus(authdomain.StatusApproved)
	if err != nil {
		return nil, err
	}
	if int(approved) >= u.config.MaxTeamSize {
		return nil, ErrTeamFull
	}

	user := &authdomain.User{
		TelegramID: tgUser.ID,
		Username:   tgUser.Username,
		FirstName:  tgUser.FirstName,
		LastName:   tgUser.LastName,
		Role:       authdomain.RoleUser,
		Status:     authdomain.StatusPending,
	}
	if tgUser.ID == u.config.AdminTelegramID {
		user.Role = authdomain.RoleAdmin
		user.Status = authdomain.StatusApproved
	} else if !u.config.RequireAdminApproval {
		user.Status = authdomain.StatusApproved
	}

	if err := u.userRepo.Create(user); err != nil {
		return nil, err
	}
	log.Printf("[Auth] Registered user %s (telegram %d, status %s)", user.ID, user.TelegramID, user.Status)

	if user.Status == authdomain.StatusPending {
		u.notifyAdminOfRequest(user)
	}
	return user, nil
}

func (u *authUsecase) notifyAdminOfRequest(user *authdomain.User) {
	if u.bot == nil || u.config.AdminTelegramID == 0 {
		return
	}
	text := fmt.Sprintf("👤 <b>Access request</b>\n%s wants to join the team.", user.DisplayName())
	keyboard := telegram.ApprovalKeyboard(user.ID)
	if err := u.bot.SendMessageWithKeyboard(u.config.AdminTelegramID, text, keyboard); err != nil {
		log.Printf("[Auth] Failed to notify admin of access request: %v", err)
	}
}

func (u *authUsecase) issueToken(user *authdomain.User) (string, time.Time, error) {
	expiresAt := u.now().Add(u.config.JWTExpiry)
	claims := jwt.MapClaims{
		"sub":         user.ID,
		"telegram_id": user.TelegramID,
		"role":        string(user.Role),
		"iat":         u.now().Unix(),
		"exp":         expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(u.config.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(u.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsApproved() {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (u *authUsecase) TeamMembers() ([]*authdomain.User, error) {
	return u.userRepo.FindByStatus(authdomain.StatusApproved)
}

func (u *authUsecase) PendingApprovals() ([]*authdomain.User, error) {
	return u.userRepo.FindByStatus(authdomain.StatusPending)
}

func (u *authUsecase) Approve(adminID, userID string) error {
	return u.decide(adminID, userID, true)
}

func (u *authUsecase) Reject(adminID, userID string) error {
	return u.decide(adminID, userID, false)
}

func (u *authUsecase) decide(adminID, userID string, approve bool) error {
	admin, err := u.userRepo.FindByID(adminID)
	if err != nil {
		return err
	}
	if admin == nil || !admin.IsAdmin() {
		return ErrNotAdmin
	}
	return u.applyDecision(userID, approve)
}

func (u *authUsecase) ApproveByTelegramID(adminTelegramID int64, userID string, approve bool) error {
	admin, err := u.userRepo.FindByTelegramID(adminTelegramID)
	if err != nil {
		return err
	}
	if admin == nil || !admin.IsAdmin() {
		return ErrNotAdmin
	}
	return u.applyDecision(userID, approve)
}

func (u *authUsecase) applyDecision(userID string, approve bool) error {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if approve {
		user.Status = authdomain.StatusApproved
	} else {
		user.Status = authdomain.StatusRejected
	}
	if err := u.userRepo.Update(user); err != nil {
		return err
	}

	if u.bot != nil {
		var text string
		if approve {
			text = "✅ <b>You're in!</b>\nYour access to the task manager was approved. Open the app to get started."
		} else {
			text = "❌ Your access request was declined."
		}
		if err := u.bot.SendMessage(user.TelegramID, text); err != nil {
			log.Printf("[Auth] Failed to send decision notification to user %s: %v", user.ID, err)
		}
	}
	log.Printf("[Auth] User %s %s", user.ID, user.Status)
	return nil
}

func (u *authUsecase) RemoveMember(adminID, userID string) error {
	admin, err := u.userRepo.FindByID(adminID)
	if err != nil {
		return err
	}
	if admin == nil || !admin.IsAdmin() {
		return ErrNotAdmin
	}
	if adminID == userID {
		return errors.New("admins cannot remove themselves")
	}
	return u.userRepo.Delete(userID)
}

func (u *authUsecase) RequestPhoneCode(userID, phoneNumber string) error {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if phoneNumber != "" {
		user.PhoneNumber = phoneNumber
		user.PhoneVerified = false
		if err := u.userRepo.Update(user); err != nil {
			return err
		}
	}
	if user.PhoneNumber == "" {
		return ErrNoPhoneNumber
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := u.verification.CreateCode(userID, code, u.now()); err != nil {
		return err
	}

	if u.bot != nil {
		text := fmt.Sprintf("🔐 Your verification code: <b>%s</b>\nIt expires in 5 minutes.", code)
		if err := u.bot.SendMessage(user.TelegramID, text); err != nil {
			return fmt.Errorf("failed to deliver verification code: %w", err)
		}
	}
	return nil
}

func (u *authUsecase) VerifyPhoneCode(userID, code string) error {
	record, err := u.verification.LatestForUser(userID)
	if err != nil {
		return err
	}
	if record == nil || record.Expired(u.now()) || record.AttemptsExhausted() {
		return ErrCodeInvalid
	}

	if !repository.CheckCode(code, record.CodeHash) {
		if err := u.verification.RecordAttempt(record.ID); err != nil {
			log.Printf("[Auth] Failed to record code attempt: %v", err)
		}
		return ErrCodeInvalid
	}

	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	user.PhoneVerified = true
	if err := u.userRepo.Update(user); err != nil {
		return err
	}
	return u.verification.DeleteForUser(userID)
}

// generateCode draws a random 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
