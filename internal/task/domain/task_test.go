package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func taskDueIn(offset time.Duration) *Task {
	deadline := baseTime.Add(offset)
	return &Task{
		ID:       "task-1",
		Title:    "Ship the release",
		Priority: PriorityMedium,
		Status:   TaskStatusPending,
		Deadline: &deadline,
	}
}

func TestValidate(t *testing.T) {
	task := taskDueIn(time.Hour)
	require.NoError(t, task.Validate())

	task.Title = ""
	assert.Error(t, task.Validate())

	task.Title = strings.Repeat("x", 201)
	assert.Error(t, task.Validate())

	task.Title = "ok"
	task.Description = strings.Repeat("x", 1001)
	assert.Error(t, task.Validate())

	task.Description = ""
	task.Priority = "extreme"
	assert.Error(t, task.Validate())

	task.Priority = PriorityLow
	task.ReminderSettings.Intervals = []ReminderInterval{{Value: 1, Unit: "fortnight"}}
	assert.Error(t, task.Validate())
}

func TestHasDeadline(t *testing.T) {
	task := &Task{Title: "no deadline"}
	assert.False(t, task.HasDeadline())

	zero := time.Time{}
	task.Deadline = &zero
	assert.False(t, task.HasDeadline())

	assert.True(t, taskDueIn(time.Hour).HasDeadline())
}

func TestIsOverdue(t *testing.T) {
	assert.False(t, (&Task{Title: "t"}).IsOverdue(baseTime))
	assert.False(t, taskDueIn(time.Minute).IsOverdue(baseTime))
	// A deadline equal to now is not yet overdue.
	assert.False(t, taskDueIn(0).IsOverdue(baseTime))
	assert.True(t, taskDueIn(-time.Second).IsOverdue(baseTime))
}

func TestDaysOverdue(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		want   int
	}{
		{"not overdue", time.Hour, 0},
		{"exactly at deadline", 0, 0},
		{"one second late", -time.Second, 1},
		{"almost a day late", -23 * time.Hour, 1},
		{"exactly one day late", -24 * time.Hour, 1},
		{"one day and a minute late", -(24*time.Hour + time.Minute), 2},
		{"exactly two days late", -48 * time.Hour, 2},
		{"ten days late", -10 * 24 * time.Hour, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, taskDueIn(tt.offset).DaysOverdue(baseTime))
		})
	}
}

func TestTimeUntilDeadline(t *testing.T) {
	assert.Nil(t, (&Task{Title: "t"}).TimeUntilDeadline(baseTime))

	remaining := taskDueIn(3 * time.Hour).TimeUntilDeadline(baseTime)
	require.NotNil(t, remaining)
	assert.False(t, remaining.Overdue)
	assert.Equal(t, 3*time.Hour, remaining.Amount)

	// Exactly at the deadline counts as overdue with zero distance.
	remaining = taskDueIn(0).TimeUntilDeadline(baseTime)
	require.NotNil(t, remaining)
	assert.True(t, remaining.Overdue)
	assert.Equal(t, time.Duration(0), remaining.Amount)

	remaining = taskDueIn(-90 * time.Minute).TimeUntilDeadline(baseTime)
	require.NotNil(t, remaining)
	assert.True(t, remaining.Overdue)
	assert.Equal(t, 90*time.Minute, remaining.Amount)
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		want   Severity
	}{
		{"overdue", -time.Minute, SeverityOverdue},
		{"one hour out", time.Hour, SeverityCritical},
		{"exactly two hours out", 2 * time.Hour, SeverityCritical},
		{"just past critical", 2*time.Hour + time.Second, SeverityUrgent},
		{"exactly 24 hours out", 24 * time.Hour, SeverityUrgent},
		{"just past urgent", 24*time.Hour + time.Second, SeveritySoon},
		{"exactly 72 hours out", 72 * time.Hour, SeveritySoon},
		{"just past soon", 72*time.Hour + time.Second, SeverityNormal},
		{"a month out", 30 * 24 * time.Hour, SeverityNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, taskDueIn(tt.offset).Severity(baseTime))
		})
	}

	assert.Equal(t, SeverityNone, (&Task{Title: "t"}).Severity(baseTime))
}

func TestSeverityMonotonic(t *testing.T) {
	// Walking the deadline closer must never make the tier less urgent.
	rank := map[Severity]int{
		SeverityNormal:   0,
		SeveritySoon:     1,
		SeverityUrgent:   2,
		SeverityCritical: 3,
		SeverityOverdue:  4,
	}
	prev := -1
	for offset := 100 * time.Hour; offset >= -2*time.Hour; offset -= 13 * time.Minute {
		got := rank[taskDueIn(offset).Severity(baseTime)]
		assert.GreaterOrEqual(t, got, prev, "severity regressed at offset %s", offset)
		prev = got
	}
}

func TestFormatTimeUntilDeadline(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		want   string
	}{
		{"days dominate", 2*24*time.Hour + 3*time.Hour, "2 days"},
		{"single day", 24 * time.Hour, "1 day"},
		{"hours", 5*time.Hour + 30*time.Minute, "5 hours"},
		{"single hour", time.Hour, "1 hour"},
		{"minutes", 45 * time.Minute, "45 minutes"},
		{"single minute", time.Minute, "1 minute"},
		{"under a minute", 30 * time.Second, "0 minute"},
		{"overdue minutes", -5 * time.Minute, "Overdue by 5 minutes"},
		{"overdue hours", -3 * time.Hour, "Overdue by 3 hours"},
		{"overdue days", -49 * time.Hour, "Overdue by 2 days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, taskDueIn(tt.offset).FormatTimeUntilDeadline(baseTime))
		})
	}

	assert.Equal(t, "", (&Task{Title: "t"}).FormatTimeUntilDeadline(baseTime))
}

func TestStatusTransitions(t *testing.T) {
	task := taskDueIn(time.Hour)

	task.MarkInProgress("alice", baseTime)
	assert.Equal(t, TaskStatusInProgress, task.Status)
	assert.Equal(t, "alice", task.StartedBy)

	task.MarkCompleted("bob", baseTime.Add(time.Minute))
	assert.Equal(t, TaskStatusCompleted, task.Status)
	assert.Equal(t, "bob", task.CompletedBy)
	assert.True(t, task.IsCompleted())

	task.MarkPending(baseTime.Add(2 * time.Minute))
	assert.Equal(t, TaskStatusPending, task.Status)
}

func TestTags(t *testing.T) {
	task := taskDueIn(time.Hour)

	task.AddTag("backend", baseTime)
	task.AddTag("backend", baseTime)
	task.AddTag("", baseTime)
	assert.Equal(t, StringList{"backend"}, task.Tags)

	task.AddTag("urgent", baseTime)
	task.RemoveTag("backend", baseTime)
	assert.Equal(t, StringList{"urgent"}, task.Tags)
}
