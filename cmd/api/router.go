package api

import (
	"net/http"

	authDelivery "minitask-backend/internal/auth/delivery"
	authUsecase "minitask-backend/internal/auth/usecase"
	"minitask-backend/internal/bot"
	groupDelivery "minitask-backend/internal/group/delivery"
	groupUsecase "minitask-backend/internal/group/usecase"
	taskDelivery "minitask-backend/internal/task/delivery"
	"minitask-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything SetupRoutes wires into the engine.
type Handlers struct {
	Auth    authUsecase.AuthUsecase
	Groups  groupUsecase.GroupUsecase
	AuthH   *authDelivery.AuthHandler
	GroupH  *groupDelivery.GroupHandler
	TaskH   *taskDelivery.TaskHandler
	Webhook *bot.WebhookHandler
	SSE     *sse.Manager
}

func SetupRoutes(r *gin.Engine, h Handlers) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Telegram delivers bot updates here; authenticated by webhook
		// URL secrecy, not by session tokens.
		if h.Webhook != nil {
			api.POST("/telegram/webhook", h.Webhook.Handle)
		}

		// SSE endpoint
		api.GET("/events", authDelivery.AuthMiddleware(h.Auth), func(c *gin.Context) {
			h.SSE.ServeHTTP(c, c.GetString("userID"))
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/telegram", h.AuthH.Login)
			auth.GET("/me", authDelivery.AuthMiddleware(h.Auth), h.AuthH.Me)

			phone := auth.Group("/phone")
			phone.Use(authDelivery.AuthMiddleware(h.Auth))
			{
				phone.POST("/request", h.AuthH.RequestPhoneCode)
				phone.POST("/verify", h.AuthH.VerifyPhoneCode)
			}

			fcm := auth.Group("/fcm-token")
			fcm.Use(authDelivery.AuthMiddleware(h.Auth))
			{
				fcm.POST("", h.AuthH.RegisterFCMToken)
				fcm.DELETE("", h.AuthH.UnregisterFCMToken)
			}
		}

		// Team routes (protected)
		team := api.Group("/team")
		team.Use(authDelivery.AuthMiddleware(h.Auth))
		{
			team.GET("", h.AuthH.TeamMembers)
			team.GET("/pending", authDelivery.AdminOnly(), h.AuthH.PendingApprovals)
			team.POST("/:id/approve", authDelivery.AdminOnly(), h.AuthH.Approve)
			team.POST("/:id/reject", authDelivery.AdminOnly(), h.AuthH.Reject)
			team.DELETE("/:id", authDelivery.AdminOnly(), h.AuthH.RemoveMember)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(authDelivery.AuthMiddleware(h.Auth))
		{
			tasks.POST("", h.TaskH.CreateTask)
			tasks.GET("", h.TaskH.ListTasks)
			tasks.GET("/search", h.TaskH.SearchTasks)
			tasks.GET("/stats", h.TaskH.Stats)
			tasks.GET("/export", h.TaskH.Export)
			tasks.GET("/:id", h.TaskH.GetTask)
			tasks.PUT("/:id", h.TaskH.UpdateTask)
			tasks.DELETE("/:id", h.TaskH.DeleteTask)
			tasks.PATCH("/:id/status", h.TaskH.SetStatus)
			tasks.PATCH("/:id/assign", h.TaskH.AssignTask)
			tasks.PUT("/:id/reminders", h.TaskH.UpdateReminderSettings)
			tasks.GET("/:id/reminders/upcoming", h.TaskH.UpcomingReminders)
			tasks.POST("/:id/remind", h.TaskH.SendManualReminder)
		}

		// Deadline dashboard routes (protected)
		deadlines := api.Group("/deadlines")
		deadlines.Use(authDelivery.AuthMiddleware(h.Auth))
		{
			deadlines.GET("/overdue", h.TaskH.OverdueTasks)
			deadlines.GET("/upcoming", h.TaskH.UpcomingDeadlines)
			deadlines.GET("/stats", h.TaskH.DeadlineStats)
			deadlines.GET("/scheduler", authDelivery.AdminOnly(), h.TaskH.SchedulerStatus)
			deadlines.PUT("/scheduler/interval", authDelivery.AdminOnly(), h.TaskH.SetCheckInterval)
		}

		// Group routes (protected)
		groups := api.Group("/groups")
		groups.Use(authDelivery.AuthMiddleware(h.Auth))
		{
			groups.POST("", h.GroupH.CreateGroup)
			groups.GET("", h.GroupH.ListGroups)
			groups.GET("/:id", h.GroupH.GetGroup)
			groups.PUT("/:id", h.GroupH.UpdateGroup)
			groups.DELETE("/:id", h.GroupH.DeleteGroup)
			groups.POST("/:id/join", h.GroupH.Join)
			groups.POST("/:id/leave", h.GroupH.Leave)
			groups.POST("/:id/members/:userId/promote", h.GroupH.Promote)
			groups.POST("/:id/members/:userId/demote", h.GroupH.Demote)
		}
	}
}
