package scheduler

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"testing"
	"time"

	"minitask-backend/internal/notification"
	"minitask-backend/internal/task/domain"
	"minitask-backend/internal/task/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDispatcher records dispatched notifications and can be told to
// fail for specific task IDs.
type fakeDispatcher struct {
	mu       stdsync.Mutex
	sent     []notification.Notification
	failFor  map[string]bool
	panicFor map[string]bool
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{failFor: make(map[string]bool), panicFor: make(map[string]bool)}
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, n notification.Notification) error {
	if d.panicFor[n.TaskID] {
		panic("dispatcher exploded")
	}
	if d.failFor[n.TaskID] {
		return errors.New("delivery failed")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return nil
}

func (d *fakeDispatcher) notifications() []notification.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notification.Notification(nil), d.sent...)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func storeTask(t *testing.T, repo repository.TaskRepository, id string, deadlineOffset time.Duration, intervals ...domain.ReminderInterval) {
	t.Helper()
	deadline := evalTime.Add(deadlineOffset)
	task := &domain.Task{
		ID:       id,
		Title:    "Task " + id,
		Assignee: "alice",
		Priority: domain.PriorityMedium,
		Status:   domain.TaskStatusPending,
		Deadline: &deadline,
		ReminderSettings: domain.ReminderSettings{
			Enabled:        true,
			Intervals:      intervals,
			NotifyAssignee: true,
		},
	}
	require.NoError(t, repo.Create(task))
}

func TestRunTickDispatchesDueReminders(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	dispatcher := newFakeDispatcher()
	sched := NewDeadlineScheduler(repo, dispatcher, nil, nil, fixedClock(evalTime))

	twoHour := domain.ReminderInterval{Value: 2, Unit: domain.UnitHour, Enabled: true}
	storeTask(t, repo, "due-1", 90*time.Minute, twoHour)
	storeTask(t, repo, "due-2", time.Hour, twoHour)
	storeTask(t, repo, "future", 3*time.Hour, twoHour)

	sched.runTick()
	sched.Wait()

	sent := dispatcher.notifications()
	require.Len(t, sent, 2)
	ids := map[string]bool{sent[0].TaskID: true, sent[1].TaskID: true}
	assert.True(t, ids["due-1"] && ids["due-2"])

	// Sent log was persisted through the store.
	task, err := repo.TaskByID("due-1")
	require.NoError(t, err)
	assert.True(t, task.ReminderSent("2_hour"))
}

func TestRunTickDedupsAcrossTicks(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	dispatcher := newFakeDispatcher()
	sched := NewDeadlineScheduler(repo, dispatcher, nil, nil, fixedClock(evalTime))

	storeTask(t, repo, "due-1", 90*time.Minute, domain.ReminderInterval{Value: 2, Unit: domain.UnitHour, Enabled: true})

	sched.runTick()
	sched.runTick()
	sched.runTick()
	sched.Wait()

	assert.Len(t, dispatcher.notifications(), 1)
}

func TestRunTickIsolatesFailures(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	dispatcher := newFakeDispatcher()
	sched := NewDeadlineScheduler(repo, dispatcher, nil, nil, fixedClock(evalTime))

	twoHour := domain.ReminderInterval{Value: 2, Unit: domain.UnitHour, Enabled: true}
	for i := 0; i < 50; i++ {
		offset := 3 * time.Hour
		if i < 3 {
			offset = time.Hour
		}
		storeTask(t, repo, fmt.Sprintf("task-%02d", i), offset, twoHour)
	}
	// One of the due tasks fails delivery, another panics mid-dispatch.
	dispatcher.failFor["task-00"] = true
	dispatcher.panicFor["task-01"] = true

	sched.runTick()
	sched.Wait()

	// The healthy due task still went out.
	sent := dispatcher.notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, "task-02", sent[0].TaskID)

	// Failed deliveries are still recorded as sent and never retried.
	task, err := repo.TaskByID("task-00")
	require.NoError(t, err)
	assert.True(t, task.ReminderSent("2_hour"))

	sched.runTick()
	sched.Wait()
	assert.Len(t, dispatcher.notifications(), 1)
}

func TestRunTickSurvivesFetchFailure(t *testing.T) {
	dispatcher := newFakeDispatcher()
	sched := NewDeadlineScheduler(failingSource{}, dispatcher, nil, nil, fixedClock(evalTime))

	sched.runTick()
	sched.Wait()
	assert.Empty(t, dispatcher.notifications())
}

type failingSource struct{}

func (failingSource) AllTasks() ([]*domain.Task, error)     { return nil, errors.New("db down") }
func (failingSource) TaskByID(string) (*domain.Task, error) { return nil, errors.New("db down") }
func (failingSource) SaveReminderLog(string, domain.SentReminders, time.Time) error {
	return errors.New("db down")
}

func TestStartStopIdempotent(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	sched := NewDeadlineScheduler(repo, newFakeDispatcher(), nil, nil, fixedClock(evalTime))

	assert.False(t, sched.Running())
	sched.Start()
	sched.Start()
	assert.True(t, sched.Running())

	sched.Stop()
	sched.Stop()
	assert.False(t, sched.Running())
	sched.Wait()
}

func TestSetCheckIntervalClamps(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	sched := NewDeadlineScheduler(repo, newFakeDispatcher(), nil, nil, fixedClock(evalTime))

	assert.Equal(t, DefaultCheckInterval, sched.CheckInterval())

	sched.SetCheckInterval(time.Second)
	assert.Equal(t, MinCheckInterval, sched.CheckInterval())

	sched.SetCheckInterval(5 * time.Minute)
	assert.Equal(t, 5*time.Minute, sched.CheckInterval())

	// Changing cadence while running keeps the scheduler running.
	sched.Start()
	sched.SetCheckInterval(30 * time.Second)
	assert.True(t, sched.Running())
	assert.Equal(t, 30*time.Second, sched.CheckInterval())
	sched.Stop()
	sched.Wait()
}

func TestReminderNotificationContent(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	dispatcher := newFakeDispatcher()
	sched := NewDeadlineScheduler(repo, dispatcher, nil, nil, fixedClock(evalTime))

	deadline := evalTime.Add(90 * time.Minute)
	task := &domain.Task{
		ID:        "task-1",
		Title:     "Quarterly report",
		Assignee:  "alice",
		CreatedBy: "bob",
		Priority:  domain.PriorityLow,
		Status:    domain.TaskStatusPending,
		Deadline:  &deadline,
		ReminderSettings: domain.ReminderSettings{
			Enabled:        true,
			Intervals:      []domain.ReminderInterval{{Value: 2, Unit: domain.UnitHour, Enabled: true}},
			NotifyAssignee: true,
			NotifyCreator:  true,
		},
	}
	require.NoError(t, repo.Create(task))

	sched.runTick()
	sched.Wait()

	sent := dispatcher.notifications()
	require.Len(t, sent, 1)
	n := sent[0]
	assert.Equal(t, notification.TypeDeadlineReminder, n.Type)
	assert.Equal(t, []string{"alice", "bob"}, n.Recipients)
	// 2-hour interval on a non-high-priority task escalates to high.
	assert.Equal(t, notification.PriorityHigh, n.Priority)
	assert.Equal(t, "2 hours", n.Data["reminder_interval"])
	assert.Equal(t, "1 hour", n.Data["time_until"])
	assert.Contains(t, n.Message, "Quarterly report")

	// The prerendered Telegram body comes from the reminder formatter.
	assert.Contains(t, n.TelegramHTML, "Deadline Reminder")
	assert.Contains(t, n.TelegramHTML, "Quarterly report")
	assert.Contains(t, n.TelegramHTML, "1 hour")
}

func TestRunTickSendsOverdueAlerts(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	dispatcher := newFakeDispatcher()
	sched := NewDeadlineScheduler(repo, dispatcher, nil, nil, fixedClock(evalTime))

	storeTask(t, repo, "late", -26*time.Hour)
	storeTask(t, repo, "on-track", 3*time.Hour)

	deadline := evalTime.Add(-48 * time.Hour)
	done := &domain.Task{
		ID:       "finished",
		Title:    "Finished late task",
		Assignee: "alice",
		Status:   domain.TaskStatusCompleted,
		Deadline: &deadline,
	}
	require.NoError(t, repo.Create(done))

	sched.runTick()
	sched.Wait()

	sent := dispatcher.notifications()
	require.Len(t, sent, 1)
	n := sent[0]
	assert.Equal(t, "late", n.TaskID)
	assert.Equal(t, notification.TypeTaskOverdue, n.Type)
	assert.Equal(t, notification.PriorityHigh, n.Priority)
	assert.Contains(t, n.Message, "overdue by 2 days")
	assert.Contains(t, n.TelegramHTML, "Task Overdue")
	assert.Equal(t, "2", n.Data["days_overdue"])

	// The alert goes out once, not on every tick.
	sched.runTick()
	sched.Wait()
	assert.Len(t, dispatcher.notifications(), 1)
}

func TestDailySummaryOncePerDay(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	dispatcher := newFakeDispatcher()
	now := evalTime // 12:00 UTC, past the summary hour
	sched := NewDeadlineScheduler(repo, dispatcher, nil, nil, func() time.Time { return now })

	storeTask(t, repo, "late", -3*time.Hour)
	storeTask(t, repo, "today", 5*time.Hour)
	storeTask(t, repo, "next-week", 6*24*time.Hour)

	sched.maybeSendDailySummary()
	sched.Wait()

	sent := dispatcher.notifications()
	require.Len(t, sent, 1)
	n := sent[0]
	assert.Equal(t, notification.TypeDailySummary, n.Type)
	assert.Equal(t, []string{"alice"}, n.Recipients)
	assert.Contains(t, n.TelegramHTML, "Overdue (1)")
	assert.Contains(t, n.TelegramHTML, "Due today (1)")
	assert.NotContains(t, n.TelegramHTML, "next-week")

	// A second pass the same day is a no-op.
	sched.maybeSendDailySummary()
	sched.Wait()
	assert.Len(t, dispatcher.notifications(), 1)

	// Next morning before the summary hour nothing goes out.
	now = evalTime.AddDate(0, 0, 1).Truncate(24 * time.Hour).Add(6 * time.Hour)
	sched.maybeSendDailySummary()
	sched.Wait()
	assert.Len(t, dispatcher.notifications(), 1)

	// Past the summary hour the next day's digest fires.
	now = now.Add(4 * time.Hour)
	sched.maybeSendDailySummary()
	sched.Wait()
	assert.Len(t, dispatcher.notifications(), 2)
}

func TestSendManualReminder(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	dispatcher := newFakeDispatcher()
	sched := NewDeadlineScheduler(repo, dispatcher, nil, nil, fixedClock(evalTime))

	storeTask(t, repo, "task-1", 3*time.Hour)

	n, err := sched.SendManualReminder("task-1", "")
	require.NoError(t, err)
	sched.Wait()

	assert.Equal(t, notification.TypeManualReminder, n.Type)
	assert.Contains(t, n.Message, "3 hours")
	require.Len(t, dispatcher.notifications(), 1)

	// The interval sent log is untouched by manual reminders.
	task, err := repo.TaskByID("task-1")
	require.NoError(t, err)
	assert.Empty(t, task.Reminders)

	_, err = sched.SendManualReminder("missing", "")
	assert.Error(t, err)
}
