package telegram

import (
	"fmt"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	// rateLimitCount is the maximum messages per chat per window.
	rateLimitCount  = 5
	rateLimitWindow = time.Minute
)

// Client wraps the Telegram Bot API for sending notifications to the
// mini app's users.
type Client struct {
	bot *tgbotapi.BotAPI

	mu       sync.Mutex
	sendLog  map[int64][]time.Time
	now      func() time.Time
	username string
}

// NewClient authenticates the bot with the given token.
func NewClient(token string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	log.Printf("[Telegram] Bot authorized as @%s", bot.Self.UserName)
	return &Client{
		bot:      bot,
		sendLog:  make(map[int64][]time.Time),
		now:      time.Now,
		username: bot.Self.UserName,
	}, nil
}

// Username returns the bot's username.
func (c *Client) Username() string {
	if c == nil {
		return ""
	}
	return c.username
}

// SendMessage delivers an HTML-formatted message to a chat. Messages
// beyond the per-chat rate limit are dropped with a log line rather
// than queued.
func (c *Client) SendMessage(chatID int64, text string) error {
	return c.send(chatID, text, nil)
}

// SendMessageWithKeyboard delivers a message with an inline keyboard.
func (c *Client) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	return c.send(chatID, text, &keyboard)
}

func (c *Client) send(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	if c == nil || chatID == 0 {
		log.Printf("[Telegram] Skipping send, no client or empty chatID (%d)", chatID)
		return nil
	}
	if !c.allow(chatID) {
		log.Printf("[Telegram] Rate limit hit for chat %d, dropping message", chatID)
		return fmt.Errorf("rate limit exceeded for chat %d", chatID)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	return nil
}

// allow prunes the chat's send log and admits the message when fewer
// than rateLimitCount were sent inside the window.
func (c *Client) allow(chatID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	cutoff := now.Add(-rateLimitWindow)
	recent := c.sendLog[chatID][:0]
	for _, sent := range c.sendLog[chatID] {
		if sent.After(cutoff) {
			recent = append(recent, sent)
		}
	}
	if len(recent) >= rateLimitCount {
		c.sendLog[chatID] = recent
		return false
	}
	c.sendLog[chatID] = append(recent, now)
	return true
}

// SetWebhook registers the webhook URL for bot updates.
func (c *Client) SetWebhook(url string) error {
	if c == nil || url == "" {
		return nil
	}
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	_, err = c.bot.Request(wh)
	if err != nil {
		return fmt.Errorf("telegram setWebhook failed: %w", err)
	}
	log.Printf("[Telegram] Webhook set to %s", url)
	return nil
}

// AnswerCallback acknowledges an inline keyboard press.
func (c *Client) AnswerCallback(callbackID, text string) error {
	if c == nil {
		return nil
	}
	_, err := c.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// TaskActionKeyboard builds the complete/open buttons attached to task
// notifications.
func TaskActionKeyboard(taskID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Complete", "complete_"+taskID),
			tgbotapi.NewInlineKeyboardButtonData("📋 View", "view_"+taskID),
		),
	)
}

// ApprovalKeyboard builds the approve/reject buttons sent to the admin
// when a new user requests access.
func ApprovalKeyboard(userID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", "approve_"+userID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", "reject_"+userID),
		),
	)
}
