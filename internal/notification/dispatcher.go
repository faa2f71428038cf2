package notification

import (
	"context"
	"fmt"
	"html"
	"log"

	authrepo "minitask-backend/internal/auth/repository"
	"minitask-backend/internal/task/domain"
	"minitask-backend/pkg/fcm"
	"minitask-backend/pkg/telegram"
)

// TelegramDispatcher fans a notification out to each recipient's
// Telegram chat and registered web-push devices. Per-recipient failures
// are logged and do not abort delivery to the remaining recipients.
type TelegramDispatcher struct {
	users    authrepo.UserRepository
	tokens   authrepo.FCMTokenRepository
	bot      *telegram.Client
	push     *fcm.Client
	frontend string
}

// NewTelegramDispatcher creates a dispatcher. bot and push may each be
// nil; the corresponding channel is then skipped.
func NewTelegramDispatcher(users authrepo.UserRepository, tokens authrepo.FCMTokenRepository, bot *telegram.Client, push *fcm.Client, frontendURL string) *TelegramDispatcher {
	return &TelegramDispatcher{
		users:    users,
		tokens:   tokens,
		bot:      bot,
		push:     push,
		frontend: frontendURL,
	}
}

// Dispatch sends n to every recipient. It returns an error only when no
// recipient could be reached at all.
func (d *TelegramDispatcher) Dispatch(ctx context.Context, n Notification) error {
	if len(n.Recipients) == 0 {
		return nil
	}

	delivered := 0
	for _, userID := range n.Recipients {
		if err := d.deliverTo(ctx, userID, n); err != nil {
			log.Printf("[Dispatcher] delivery to user %s failed: %v", userID, err)
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return fmt.Errorf("notification %s reached none of %d recipients", n.ID, len(n.Recipients))
	}
	return nil
}

func (d *TelegramDispatcher) deliverTo(ctx context.Context, userID string, n Notification) error {
	user, err := d.users.FindByID(userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %s not found", userID)
	}

	sent := false
	if d.bot != nil && user.TelegramID != 0 {
		if err := d.sendTelegram(user.TelegramID, n); err != nil {
			log.Printf("[Dispatcher] telegram send to chat %d failed: %v", user.TelegramID, err)
		} else {
			sent = true
		}
	}
	if d.push != nil {
		if err := d.sendPush(ctx, userID, n); err != nil {
			log.Printf("[Dispatcher] web push to user %s failed: %v", userID, err)
		} else {
			sent = true
		}
	}

	if !sent {
		return fmt.Errorf("no channel delivered to user %s", userID)
	}
	return nil
}

func (d *TelegramDispatcher) sendTelegram(chatID int64, n Notification) error {
	body := n.TelegramHTML
	if body == "" {
		body = fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(n.Title), html.EscapeString(n.Message))
	}
	if n.TaskID != "" {
		return d.bot.SendMessageWithKeyboard(chatID, body, telegram.TaskActionKeyboard(n.TaskID))
	}
	return d.bot.SendMessage(chatID, body)
}

func (d *TelegramDispatcher) sendPush(ctx context.Context, userID string, n Notification) error {
	deviceTokens, err := d.tokens.GetTokensByUserID(userID)
	if err != nil {
		return fmt.Errorf("failed to load device tokens: %w", err)
	}
	if len(deviceTokens) == 0 {
		return fmt.Errorf("user %s has no registered devices", userID)
	}

	tokens := make([]string, 0, len(deviceTokens))
	for _, t := range deviceTokens {
		tokens = append(tokens, t.Token)
	}

	data := map[string]string{"notification_id": n.ID, "type": n.Type}
	if n.TaskID != "" {
		data["task_id"] = n.TaskID
		data["url"] = d.frontend + "/tasks/" + n.TaskID
	}

	failed, err := d.push.SendToDevices(ctx, tokens, fcm.Message{
		Title: n.Title,
		Body:  n.Message,
		Data:  data,
	})
	// Stale tokens are pruned so dead devices do not accumulate.
	for _, token := range failed {
		if delErr := d.tokens.DeleteToken(token); delErr != nil {
			log.Printf("[Dispatcher] failed to prune stale token: %v", delErr)
		}
	}
	if err != nil {
		return fmt.Errorf("web push failed: %w", err)
	}
	if len(failed) == len(tokens) {
		return fmt.Errorf("all %d device tokens rejected", len(tokens))
	}
	return nil
}

// NotifyTaskAssigned implements the task usecase notifier. Errors are
// returned for the caller to log; assignment flow is not aborted.
func (d *TelegramDispatcher) NotifyTaskAssigned(task *domain.Task, assigneeID string) error {
	if d.bot == nil {
		return nil
	}
	user, err := d.users.FindByID(assigneeID)
	if err != nil || user == nil || user.TelegramID == 0 {
		return fmt.Errorf("assignee %s unreachable", assigneeID)
	}

	var assignerName string
	if task.CreatedBy != "" && task.CreatedBy != assigneeID {
		if creator, err := d.users.FindByID(task.CreatedBy); err == nil && creator != nil {
			assignerName = creator.DisplayName()
		}
	}
	return d.bot.SendMessageWithKeyboard(user.TelegramID, FormatAssigned(task, assignerName), telegram.TaskActionKeyboard(task.ID))
}

// NotifyTaskCompleted tells the task creator their task was finished by
// someone else.
func (d *TelegramDispatcher) NotifyTaskCompleted(task *domain.Task, completedByID string) error {
	if d.bot == nil || task.CreatedBy == "" || task.CreatedBy == completedByID {
		return nil
	}
	creator, err := d.users.FindByID(task.CreatedBy)
	if err != nil || creator == nil || creator.TelegramID == 0 {
		return fmt.Errorf("creator %s unreachable", task.CreatedBy)
	}

	var completerName string
	if completer, err := d.users.FindByID(completedByID); err == nil && completer != nil {
		completerName = completer.DisplayName()
	}
	return d.bot.SendMessage(creator.TelegramID, FormatCompleted(task, completerName))
}
