package bot

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	authrepo "minitask-backend/internal/auth/repository"
	authusecase "minitask-backend/internal/auth/usecase"
	"minitask-backend/internal/task/domain"
	taskusecase "minitask-backend/internal/task/usecase"
	"minitask-backend/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
)

// WebhookHandler processes Telegram bot updates: approval decisions and
// task completion taps on inline keyboards, plus the /start command.
type WebhookHandler struct {
	bot         *telegram.Client
	authUsecase authusecase.AuthUsecase
	taskUsecase taskusecase.TaskUsecase
	users       authrepo.UserRepository
	frontendURL string
}

func NewWebhookHandler(bot *telegram.Client, authUsecase authusecase.AuthUsecase, taskUsecase taskusecase.TaskUsecase, users authrepo.UserRepository, frontendURL string) *WebhookHandler {
	return &WebhookHandler{
		bot:         bot,
		authUsecase: authUsecase,
		taskUsecase: taskUsecase,
		users:       users,
		frontendURL: frontendURL,
	}
}

// Handle is the POST endpoint Telegram delivers updates to. It always
// answers 200; Telegram retries non-2xx responses aggressively.
func (h *WebhookHandler) Handle(c *gin.Context) {
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Printf("[BotWebhook] malformed update: %v", err)
		c.Status(http.StatusOK)
		return
	}

	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		h.handleMessage(update.Message)
	}

	c.Status(http.StatusOK)
}

func (h *WebhookHandler) handleCallback(cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	fromID := cb.From.ID

	var answer string
	switch {
	case strings.HasPrefix(data, "approve_"):
		answer = h.decideApproval(fromID, strings.TrimPrefix(data, "approve_"), true)
	case strings.HasPrefix(data, "reject_"):
		answer = h.decideApproval(fromID, strings.TrimPrefix(data, "reject_"), false)
	case strings.HasPrefix(data, "complete_"):
		answer = h.completeTask(fromID, strings.TrimPrefix(data, "complete_"))
	case strings.HasPrefix(data, "view_"):
		answer = "Open the app to see task details"
	default:
		log.Printf("[BotWebhook] unknown callback data %q", data)
		answer = "Unknown action"
	}

	if err := h.bot.AnswerCallback(cb.ID, answer); err != nil {
		log.Printf("[BotWebhook] failed to answer callback: %v", err)
	}
}

func (h *WebhookHandler) decideApproval(adminTelegramID int64, userID string, approve bool) string {
	if err := h.authUsecase.ApproveByTelegramID(adminTelegramID, userID, approve); err != nil {
		log.Printf("[BotWebhook] approval decision failed: %v", err)
		return "Could not record the decision"
	}
	if approve {
		return "Member approved"
	}
	return "Request rejected"
}

func (h *WebhookHandler) completeTask(telegramID int64, taskID string) string {
	user, err := h.users.FindByTelegramID(telegramID)
	if err != nil || user == nil {
		log.Printf("[BotWebhook] unknown telegram user %d: %v", telegramID, err)
		return "Account not found, open the app first"
	}

	if _, err := h.taskUsecase.SetStatus(user.ID, taskID, domain.TaskStatusCompleted); err != nil {
		log.Printf("[BotWebhook] failed to complete task %s: %v", taskID, err)
		return "Could not complete the task"
	}
	return "Task marked as completed ✅"
}

func (h *WebhookHandler) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}

	switch msg.Command() {
	case "start":
		text := fmt.Sprintf("\U0001F44B Welcome to the team task manager!\n\nOpen the Mini App to manage tasks:\n%s", h.frontendURL)
		if err := h.bot.SendMessage(msg.Chat.ID, text); err != nil {
			log.Printf("[BotWebhook] failed to send start reply: %v", err)
		}
	case "help":
		text := "Commands:\n/start – open the app link\n/help – this message\n\nTask reminders and approvals arrive here automatically."
		if err := h.bot.SendMessage(msg.Chat.ID, text); err != nil {
			log.Printf("[BotWebhook] failed to send help reply: %v", err)
		}
	}
}
