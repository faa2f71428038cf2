package delivery

import (
	"errors"
	"log"
	"net/http"

	"minitask-backend/internal/group/usecase"

	"github.com/gin-gonic/gin"
)

// GroupHandler handles group management HTTP requests
type GroupHandler struct {
	groupUsecase usecase.GroupUsecase
}

func NewGroupHandler(groupUsecase usecase.GroupUsecase) *GroupHandler {
	return &GroupHandler{groupUsecase: groupUsecase}
}

// CreateGroup handles POST /api/groups
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req usecase.GroupCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	group, err := h.groupUsecase.CreateGroup(c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, group)
}

// ListGroups handles GET /api/groups
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groupUsecase.GroupsForUser(c.GetString("userID"))
	if err != nil {
		log.Printf("[GroupHandler] failed to list groups: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list groups"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups, "count": len(groups)})
}

// GetGroup handles GET /api/groups/:id
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.groupUsecase.GetGroup(c.Param("id"))
	if err != nil {
		h.renderError(c, err, "failed to load group")
		return
	}
	c.JSON(http.StatusOK, group)
}

// UpdateGroup handles PUT /api/groups/:id
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	var req usecase.GroupUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	group, err := h.groupUsecase.UpdateGroup(c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		h.renderError(c, err, "failed to update group")
		return
	}
	c.JSON(http.StatusOK, group)
}

// DeleteGroup handles DELETE /api/groups/:id
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	if err := h.groupUsecase.DeleteGroup(c.GetString("userID"), c.Param("id")); err != nil {
		h.renderError(c, err, "failed to delete group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "group deleted"})
}

// Join handles POST /api/groups/:id/join
func (h *GroupHandler) Join(c *gin.Context) {
	if err := h.groupUsecase.Join(c.GetString("userID"), c.Param("id")); err != nil {
		h.renderError(c, err, "failed to join group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "joined group"})
}

// Leave handles POST /api/groups/:id/leave
func (h *GroupHandler) Leave(c *gin.Context) {
	if err := h.groupUsecase.Leave(c.GetString("userID"), c.Param("id")); err != nil {
		h.renderError(c, err, "failed to leave group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left group"})
}

// Promote handles POST /api/groups/:id/members/:userId/promote
func (h *GroupHandler) Promote(c *gin.Context) {
	if err := h.groupUsecase.Promote(c.GetString("userID"), c.Param("id"), c.Param("userId")); err != nil {
		h.renderError(c, err, "failed to promote member")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member promoted"})
}

// Demote handles POST /api/groups/:id/members/:userId/demote
func (h *GroupHandler) Demote(c *gin.Context) {
	if err := h.groupUsecase.Demote(c.GetString("userID"), c.Param("id"), c.Param("userId")); err != nil {
		h.renderError(c, err, "failed to demote member")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member demoted"})
}

func (h *GroupHandler) renderError(c *gin.Context, err error, internal string) {
	switch {
	case errors.Is(err, usecase.ErrGroupNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
	case errors.Is(err, usecase.ErrNotGroupAdmin):
		c.JSON(http.StatusForbidden, gin.H{"error": "group admin role required"})
	case errors.Is(err, usecase.ErrNotMember):
		c.JSON(http.StatusBadRequest, gin.H{"error": "user is not a group member"})
	default:
		log.Printf("[GroupHandler] %s: %v", internal, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": internal})
	}
}
