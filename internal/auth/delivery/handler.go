package delivery

import (
	"errors"
	"log"
	"net/http"

	authdomain "minitask-backend/internal/auth/domain"
	"minitask-backend/internal/auth/repository"
	"minitask-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication and team management HTTP requests
type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	fcmRepo     repository.FCMTokenRepository
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, fcmRepo repository.FCMTokenRepository) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		fcmRepo:     fcmRepo,
	}
}

// Login handles POST /api/auth/telegram. The body carries the raw
// initData string produced by the Telegram Mini App client.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		InitData string `json:"init_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data is required"})
		return
	}

	session, err := h.authUsecase.Authenticate(req.InitData)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrApprovalPending):
			c.JSON(http.StatusForbidden, gin.H{"error": "account pending admin approval", "status": string(authdomain.StatusPending)})
		case errors.Is(err, usecase.ErrAccountRejected):
			c.JSON(http.StatusForbidden, gin.H{"error": "account rejected", "status": string(authdomain.StatusRejected)})
		case errors.Is(err, usecase.ErrTeamFull):
			c.JSON(http.StatusForbidden, gin.H{"error": "team is full"})
		case errors.Is(err, usecase.ErrInitDataSignature), errors.Is(err, usecase.ErrInitDataExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid initData"})
		default:
			log.Printf("[AuthHandler] authenticate failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		}
		return
	}

	c.JSON(http.StatusOK, session)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// RegisterFCMToken handles POST /api/auth/fcm-token
func (h *AuthHandler) RegisterFCMToken(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		Token      string `json:"token" binding:"required"`
		DeviceInfo string `json:"device_info"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	if err := h.fcmRepo.SaveToken(user.ID, req.Token, req.DeviceInfo); err != nil {
		log.Printf("[AuthHandler] failed to save FCM token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token registered"})
}

// UnregisterFCMToken handles DELETE /api/auth/fcm-token
func (h *AuthHandler) UnregisterFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	if err := h.fcmRepo.DeleteToken(req.Token); err != nil {
		log.Printf("[AuthHandler] failed to delete FCM token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token removed"})
}

// TeamMembers handles GET /api/team
func (h *AuthHandler) TeamMembers(c *gin.Context) {
	members, err := h.authUsecase.TeamMembers()
	if err != nil {
		log.Printf("[AuthHandler] failed to list team members: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list team members"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "count": len(members)})
}

// PendingApprovals handles GET /api/team/pending (admin)
func (h *AuthHandler) PendingApprovals(c *gin.Context) {
	pending, err := h.authUsecase.PendingApprovals()
	if err != nil {
		log.Printf("[AuthHandler] failed to list pending approvals: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pending approvals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending, "count": len(pending)})
}

// Approve handles POST /api/team/:id/approve (admin)
func (h *AuthHandler) Approve(c *gin.Context) {
	h.decide(c, true)
}

// Reject handles POST /api/team/:id/reject (admin)
func (h *AuthHandler) Reject(c *gin.Context) {
	h.decide(c, false)
}

func (h *AuthHandler) decide(c *gin.Context, approve bool) {
	admin := currentUser(c)
	if admin == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	userID := c.Param("id")
	var err error
	if approve {
		err = h.authUsecase.Approve(admin.ID, userID)
	} else {
		err = h.authUsecase.Reject(admin.ID, userID)
	}
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, usecase.ErrNotAdmin):
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		case errors.Is(err, usecase.ErrTeamFull):
			c.JSON(http.StatusConflict, gin.H{"error": "team is full"})
		default:
			log.Printf("[AuthHandler] approval decision failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "decision failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "decision recorded"})
}

// RemoveMember handles DELETE /api/team/:id (admin)
func (h *AuthHandler) RemoveMember(c *gin.Context) {
	admin := currentUser(c)
	if admin == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	if err := h.authUsecase.RemoveMember(admin.ID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, usecase.ErrNotAdmin):
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		default:
			log.Printf("[AuthHandler] failed to remove member: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove member"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}

// RequestPhoneCode handles POST /api/auth/phone/request
func (h *AuthHandler) RequestPhoneCode(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		PhoneNumber string `json:"phone_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone_number is required"})
		return
	}

	if err := h.authUsecase.RequestPhoneCode(user.ID, req.PhoneNumber); err != nil {
		log.Printf("[AuthHandler] failed to send verification code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send verification code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}

// VerifyPhoneCode handles POST /api/auth/phone/verify
func (h *AuthHandler) VerifyPhoneCode(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	if err := h.authUsecase.VerifyPhoneCode(user.ID, req.Code); err != nil {
		if errors.Is(err, usecase.ErrCodeInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "verification code invalid or expired"})
			return
		}
		log.Printf("[AuthHandler] phone verification failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "phone number verified"})
}

func currentUser(c *gin.Context) *authdomain.User {
	value, exists := c.Get("user")
	if !exists {
		return nil
	}
	user, ok := value.(*authdomain.User)
	if !ok {
		return nil
	}
	return user
}
