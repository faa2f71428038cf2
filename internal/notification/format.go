package notification

import (
	"fmt"
	"html"
	"strings"
	"time"

	"minitask-backend/internal/task/domain"
)

func priorityEmoji(p domain.Priority) string {
	switch p {
	case domain.PriorityHigh:
		return "\U0001F534" // red circle
	case domain.PriorityMedium:
		return "\U0001F7E1" // yellow circle
	default:
		return "\U0001F7E2" // green circle
	}
}

// FormatReminder builds the Telegram HTML body for a deadline reminder.
func FormatReminder(task *domain.Task, timeLeft string) string {
	var b strings.Builder
	b.WriteString("⏰ <b>Deadline Reminder</b>\n\n")
	fmt.Fprintf(&b, "%s <b>%s</b>\n", priorityEmoji(task.Priority), html.EscapeString(task.Title))
	if task.Description != "" {
		fmt.Fprintf(&b, "%s\n", html.EscapeString(truncate(task.Description, 200)))
	}
	fmt.Fprintf(&b, "\n⏳ %s\n", html.EscapeString(timeLeft))
	if task.Deadline != nil {
		fmt.Fprintf(&b, "\U0001F4C5 %s\n", task.Deadline.Format("Mon, 02 Jan 2006 15:04"))
	}
	return b.String()
}

// FormatOverdue builds the Telegram HTML body for an overdue alert.
func FormatOverdue(task *domain.Task, daysOverdue int) string {
	var b strings.Builder
	b.WriteString("\U0001F6A8 <b>Task Overdue</b>\n\n")
	fmt.Fprintf(&b, "%s <b>%s</b>\n", priorityEmoji(task.Priority), html.EscapeString(task.Title))
	if daysOverdue == 1 {
		b.WriteString("\nOverdue by 1 day\n")
	} else {
		fmt.Fprintf(&b, "\nOverdue by %d days\n", daysOverdue)
	}
	return b.String()
}

// FormatAssigned builds the Telegram HTML body for a task assignment.
func FormatAssigned(task *domain.Task, assignerName string) string {
	var b strings.Builder
	b.WriteString("\U0001F4CB <b>New Task Assigned</b>\n\n")
	fmt.Fprintf(&b, "%s <b>%s</b>\n", priorityEmoji(task.Priority), html.EscapeString(task.Title))
	if task.Description != "" {
		fmt.Fprintf(&b, "%s\n", html.EscapeString(truncate(task.Description, 200)))
	}
	if assignerName != "" {
		fmt.Fprintf(&b, "\nAssigned by %s\n", html.EscapeString(assignerName))
	}
	if task.Deadline != nil {
		fmt.Fprintf(&b, "\U0001F4C5 Due %s\n", task.Deadline.Format("Mon, 02 Jan 2006 15:04"))
	}
	return b.String()
}

// FormatCompleted builds the Telegram HTML body for a completion notice.
func FormatCompleted(task *domain.Task, completerName string) string {
	var b strings.Builder
	b.WriteString("✅ <b>Task Completed</b>\n\n")
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(task.Title))
	if completerName != "" {
		fmt.Fprintf(&b, "Completed by %s\n", html.EscapeString(completerName))
	}
	return b.String()
}

// FormatDailySummary builds the Telegram HTML body for the daily digest.
func FormatDailySummary(overdue, dueToday []*domain.Task, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\U0001F4CA <b>Daily Summary</b> for %s\n", now.Format("Mon, 02 Jan"))
	if len(overdue) == 0 && len(dueToday) == 0 {
		b.WriteString("\nNothing overdue and nothing due today. \U0001F389\n")
		return b.String()
	}
	if len(overdue) > 0 {
		fmt.Fprintf(&b, "\n\U0001F6A8 <b>Overdue (%d)</b>\n", len(overdue))
		for _, t := range overdue {
			fmt.Fprintf(&b, "  %s %s\n", priorityEmoji(t.Priority), html.EscapeString(t.Title))
		}
	}
	if len(dueToday) > 0 {
		fmt.Fprintf(&b, "\n⏰ <b>Due today (%d)</b>\n", len(dueToday))
		for _, t := range dueToday {
			fmt.Fprintf(&b, "  %s %s\n", priorityEmoji(t.Priority), html.EscapeString(t.Title))
		}
	}
	return b.String()
}

// truncate limits s to max runes. Cutting by runes keeps multi-byte
// characters intact.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
