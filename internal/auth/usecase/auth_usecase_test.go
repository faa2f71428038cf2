package usecase

import (
	"fmt"
	stdsync "sync"
	"testing"
	"time"

	authdomain "minitask-backend/internal/auth/domain"
	"minitask-backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryUserRepo is an in-memory stand-in for the user table.
type memoryUserRepo struct {
	mu    stdsync.Mutex
	seq   int
	users map[string]*authdomain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*authdomain.User)}
}

func (r *memoryUserRepo) Create(user *authdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		r.seq++
		user.ID = fmt.Sprintf("user-%d", r.seq)
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memoryUserRepo) FindByID(id string) (*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (r *memoryUserRepo) FindByTelegramID(telegramID int64) (*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.TelegramID == telegramID {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepo) FindAll() ([]*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*authdomain.User
	for _, user := range r.users {
		cp := *user
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memoryUserRepo) FindByStatus(status authdomain.ApprovalStatus) ([]*authdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*authdomain.User
	for _, user := range r.users {
		if user.Status == status {
			cp := *user
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memoryUserRepo) Update(user *authdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memoryUserRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepo) CountByStatus(status authdomain.ApprovalStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, user := range r.users {
		if user.Status == status {
			count++
		}
	}
	return count, nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:            "test-secret",
		JWTExpiry:            time.Hour,
		TelegramBotToken:     testBotToken,
		AdminTelegramID:      1000,
		RequireAdminApproval: true,
		MaxTeamSize:          50,
	}
}

func signedInitDataFor(t *testing.T, telegramID int64, name string) string {
	t.Helper()
	return signInitData(t, testBotToken, map[string]string{
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
		"user":      fmt.Sprintf(`{"id":%d,"first_name":%q,"username":%q}`, telegramID, name, name),
	})
}

func TestAuthenticateAdminAutoApproved(t *testing.T) {
	users := newMemoryUserRepo()
	uc := NewAuthUsecase(users, nil, nil, testConfig(), nil)

	session, err := uc.Authenticate(signedInitDataFor(t, 1000, "admin"))
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, authdomain.RoleAdmin, session.User.Role)
	assert.Equal(t, authdomain.StatusApproved, session.User.Status)
	require.NotNil(t, session.User.LastSeenAt)

	// The token resolves back to the same user.
	user, err := uc.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, user.ID)
}

func TestAuthenticateNewUserPending(t *testing.T) {
	users := newMemoryUserRepo()
	uc := NewAuthUsecase(users, nil, nil, testConfig(), nil)

	_, err := uc.Authenticate(signedInitDataFor(t, 2000, "newbie"))
	assert.ErrorIs(t, err, ErrApprovalPending)

	// The record exists and is waiting.
	user, err := users.FindByTelegramID(2000)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, authdomain.StatusPending, user.Status)

	// Retrying while pending does not create a duplicate.
	_, err = uc.Authenticate(signedInitDataFor(t, 2000, "newbie"))
	assert.ErrorIs(t, err, ErrApprovalPending)
	all, _ := users.FindAll()
	assert.Len(t, all, 1)
}

func TestAuthenticateWithoutApprovalGate(t *testing.T) {
	cfg := testConfig()
	cfg.RequireAdminApproval = false
	uc := NewAuthUsecase(newMemoryUserRepo(), nil, nil, cfg, nil)

	session, err := uc.Authenticate(signedInitDataFor(t, 2000, "walkin"))
	require.NoError(t, err)
	assert.Equal(t, authdomain.StatusApproved, session.User.Status)
	assert.Equal(t, authdomain.RoleUser, session.User.Role)
}

func TestAuthenticateRejectsBadSignature(t *testing.T) {
	uc := NewAuthUsecase(newMemoryUserRepo(), nil, nil, testConfig(), nil)

	initData := signInitData(t, "wrong-token", map[string]string{
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
		"user":      `{"id":5,"first_name":"Eve"}`,
	})
	_, err := uc.Authenticate(initData)
	assert.ErrorIs(t, err, ErrInitDataSignature)
}

func TestTeamCap(t *testing.T) {
	cfg := testConfig()
	cfg.RequireAdminApproval = false
	cfg.MaxTeamSize = 3
	uc := NewAuthUsecase(newMemoryUserRepo(), nil, nil, cfg, nil)

	for i := int64(1); i <= 3; i++ {
		_, err := uc.Authenticate(signedInitDataFor(t, 2000+i, fmt.Sprintf("user%d", i)))
		require.NoError(t, err)
	}

	_, err := uc.Authenticate(signedInitDataFor(t, 2999, "overflow"))
	assert.ErrorIs(t, err, ErrTeamFull)
}

func TestApprovalFlow(t *testing.T) {
	users := newMemoryUserRepo()
	uc := NewAuthUsecase(users, nil, nil, testConfig(), nil)

	adminSession, err := uc.Authenticate(signedInitDataFor(t, 1000, "admin"))
	require.NoError(t, err)

	_, err = uc.Authenticate(signedInitDataFor(t, 2000, "pending"))
	assert.ErrorIs(t, err, ErrApprovalPending)

	pending, err := uc.PendingApprovals()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Non-admins cannot decide.
	withoutGate := testConfig()
	withoutGate.RequireAdminApproval = false
	plainSession, err := NewAuthUsecase(users, nil, nil, withoutGate, nil).Authenticate(signedInitDataFor(t, 3000, "plain"))
	require.NoError(t, err)
	assert.ErrorIs(t, uc.Approve(plainSession.User.ID, pending[0].ID), ErrNotAdmin)

	require.NoError(t, uc.Approve(adminSession.User.ID, pending[0].ID))

	session, err := uc.Authenticate(signedInitDataFor(t, 2000, "pending"))
	require.NoError(t, err)
	assert.Equal(t, authdomain.StatusApproved, session.User.Status)

	// A rejected account stays locked out.
	_, err = uc.Authenticate(signedInitDataFor(t, 4000, "denied"))
	assert.ErrorIs(t, err, ErrApprovalPending)
	denied, err := users.FindByTelegramID(4000)
	require.NoError(t, err)
	require.NoError(t, uc.Reject(adminSession.User.ID, denied.ID))
	_, err = uc.Authenticate(signedInitDataFor(t, 4000, "denied"))
	assert.ErrorIs(t, err, ErrAccountRejected)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	uc := NewAuthUsecase(newMemoryUserRepo(), nil, nil, testConfig(), nil)

	_, err := uc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// A token signed with a different secret is refused.
	otherCfg := testConfig()
	otherCfg.JWTSecret = "other-secret"
	other := NewAuthUsecase(newMemoryUserRepo(), nil, nil, otherCfg, nil)
	session, err := other.Authenticate(signedInitDataFor(t, 1000, "admin"))
	require.NoError(t, err)

	_, err = uc.ValidateToken(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRemoveMember(t *testing.T) {
	users := newMemoryUserRepo()
	uc := NewAuthUsecase(users, nil, nil, testConfig(), nil)

	adminSession, err := uc.Authenticate(signedInitDataFor(t, 1000, "admin"))
	require.NoError(t, err)

	cfg := testConfig()
	cfg.RequireAdminApproval = false
	memberSession, err := NewAuthUsecase(users, nil, nil, cfg, nil).Authenticate(signedInitDataFor(t, 2000, "member"))
	require.NoError(t, err)

	require.NoError(t, uc.RemoveMember(adminSession.User.ID, memberSession.User.ID))

	gone, err := users.FindByID(memberSession.User.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
