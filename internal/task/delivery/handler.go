package delivery

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"minitask-backend/internal/task/domain"
	"minitask-backend/internal/task/scheduler"
	"minitask-backend/internal/task/usecase"

	"github.com/gin-gonic/gin"
)

// TaskHandler handles task HTTP requests
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
	scheduler   *scheduler.DeadlineScheduler
	now         func() time.Time
}

// NewTaskHandler creates a new TaskHandler. now defaults to time.Now.
func NewTaskHandler(taskUsecase usecase.TaskUsecase, sched *scheduler.DeadlineScheduler, now func() time.Time) *TaskHandler {
	if now == nil {
		now = time.Now
	}
	return &TaskHandler{taskUsecase: taskUsecase, scheduler: sched, now: now}
}

// CreateTask handles POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req usecase.TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	task, err := h.taskUsecase.CreateTask(c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, task)
}

// ListTasks handles GET /api/tasks with optional status, assignee and
// group_id filters.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var status, assignee, groupID *string
	if v := c.Query("status"); v != "" {
		status = &v
	}
	if v := c.Query("assignee"); v != "" {
		assignee = &v
	}
	if v := c.Query("group_id"); v != "" {
		groupID = &v
	}

	tasks, err := h.taskUsecase.GetTasks(status, assignee, groupID)
	if err != nil {
		log.Printf("[TaskHandler] failed to list tasks: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// GetTask handles GET /api/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskUsecase.GetTask(c.Param("id"))
	if err != nil {
		h.renderError(c, err, "failed to load task")
		return
	}

	now := h.now()
	c.JSON(http.StatusOK, gin.H{
		"task":           task,
		"is_overdue":     task.IsOverdue(now),
		"severity":       task.Severity(now),
		"time_remaining": task.FormatTimeUntilDeadline(now),
	})
}

// UpdateTask handles PUT /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req usecase.TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	task, err := h.taskUsecase.UpdateTask(c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		h.renderError(c, err, "failed to update task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.taskUsecase.DeleteTask(c.GetString("userID"), c.Param("id")); err != nil {
		h.renderError(c, err, "failed to delete task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

// SetStatus handles PATCH /api/tasks/:id/status
func (h *TaskHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	status := domain.TaskStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	task, err := h.taskUsecase.SetStatus(c.GetString("userID"), c.Param("id"), status)
	if err != nil {
		h.renderError(c, err, "failed to update status")
		return
	}
	c.JSON(http.StatusOK, task)
}

// AssignTask handles PATCH /api/tasks/:id/assign
func (h *TaskHandler) AssignTask(c *gin.Context) {
	var req struct {
		Assignee string `json:"assignee"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	task, err := h.taskUsecase.AssignTask(c.GetString("userID"), c.Param("id"), req.Assignee)
	if err != nil {
		h.renderError(c, err, "failed to assign task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateReminderSettings handles PUT /api/tasks/:id/reminders
func (h *TaskHandler) UpdateReminderSettings(c *gin.Context) {
	var settings domain.ReminderSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	task, err := h.taskUsecase.UpdateReminderSettings(c.GetString("userID"), c.Param("id"), settings)
	if err != nil {
		h.renderError(c, err, "failed to update reminder settings")
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpcomingReminders handles GET /api/tasks/:id/reminders/upcoming
func (h *TaskHandler) UpcomingReminders(c *gin.Context) {
	task, err := h.taskUsecase.GetTask(c.Param("id"))
	if err != nil {
		h.renderError(c, err, "failed to load task")
		return
	}

	upcoming := scheduler.UpcomingReminders(task, h.now())
	c.JSON(http.StatusOK, gin.H{"upcoming": upcoming, "count": len(upcoming)})
}

// SendManualReminder handles POST /api/tasks/:id/remind
func (h *TaskHandler) SendManualReminder(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	// Body is optional; an empty message falls back to the default text.
	_ = c.ShouldBindJSON(&req)

	n, err := h.scheduler.SendManualReminder(c.Param("id"), req.Message)
	if err != nil {
		h.renderError(c, err, "failed to send reminder")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reminder sent", "notification": n})
}

// SearchTasks handles GET /api/tasks/search?q=
func (h *TaskHandler) SearchTasks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	tasks, err := h.taskUsecase.SearchTasks(query)
	if err != nil {
		log.Printf("[TaskHandler] search failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// Stats handles GET /api/tasks/stats
func (h *TaskHandler) Stats(c *gin.Context) {
	var groupID *string
	if v := c.Query("group_id"); v != "" {
		groupID = &v
	}

	stats, err := h.taskUsecase.Stats(groupID)
	if err != nil {
		log.Printf("[TaskHandler] failed to compute stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Export handles GET /api/tasks/export?format=csv|json
func (h *TaskHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	switch format {
	case "csv":
		data, err := h.taskUsecase.ExportCSV()
		if err != nil {
			log.Printf("[TaskHandler] CSV export failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="tasks.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	case "json":
		data, err := h.taskUsecase.ExportJSON()
		if err != nil {
			log.Printf("[TaskHandler] JSON export failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="tasks.json"`)
		c.Data(http.StatusOK, "application/json", data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or json"})
	}
}

// OverdueTasks handles GET /api/deadlines/overdue
func (h *TaskHandler) OverdueTasks(c *gin.Context) {
	tasks, err := h.scheduler.OverdueTasks()
	if err != nil {
		log.Printf("[TaskHandler] failed to list overdue tasks: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list overdue tasks"})
		return
	}

	now := h.now()
	type overdueEntry struct {
		Task        *domain.Task `json:"task"`
		DaysOverdue int          `json:"days_overdue"`
	}
	entries := make([]overdueEntry, 0, len(tasks))
	for _, t := range tasks {
		entries = append(entries, overdueEntry{Task: t, DaysOverdue: t.DaysOverdue(now)})
	}
	c.JSON(http.StatusOK, gin.H{"overdue": entries, "count": len(entries)})
}

// UpcomingDeadlines handles GET /api/deadlines/upcoming?days=N
func (h *TaskHandler) UpcomingDeadlines(c *gin.Context) {
	days := 7
	if v := c.Query("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	tasks, err := h.scheduler.UpcomingDeadlines(days)
	if err != nil {
		log.Printf("[TaskHandler] failed to list upcoming deadlines: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list upcoming deadlines"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks), "days": days})
}

// DeadlineStats handles GET /api/deadlines/stats
func (h *TaskHandler) DeadlineStats(c *gin.Context) {
	stats, err := h.scheduler.Statistics()
	if err != nil {
		log.Printf("[TaskHandler] failed to compute deadline stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute deadline stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SchedulerStatus handles GET /api/deadlines/scheduler (admin)
func (h *TaskHandler) SchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running":        h.scheduler.Running(),
		"check_interval": h.scheduler.CheckInterval().String(),
	})
}

// SetCheckInterval handles PUT /api/deadlines/scheduler/interval (admin)
func (h *TaskHandler) SetCheckInterval(c *gin.Context) {
	var req struct {
		Interval string `json:"interval" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval is required"})
		return
	}

	interval, err := time.ParseDuration(req.Interval)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval must be a duration like 30s or 2m"})
		return
	}

	h.scheduler.SetCheckInterval(interval)
	c.JSON(http.StatusOK, gin.H{"check_interval": h.scheduler.CheckInterval().String()})
}

func (h *TaskHandler) renderError(c *gin.Context, err error, internal string) {
	if errors.Is(err, usecase.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	log.Printf("[TaskHandler] %s: %v", internal, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": internal})
}
