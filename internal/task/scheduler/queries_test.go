package scheduler

import (
	"testing"
	"time"

	"minitask-backend/internal/task/domain"
	"minitask-backend/internal/task/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storePlainTask(t *testing.T, repo repository.TaskRepository, id string, deadline *time.Time, status domain.TaskStatus) {
	t.Helper()
	task := &domain.Task{
		ID:       id,
		Title:    "Task " + id,
		Priority: domain.PriorityMedium,
		Status:   status,
		Deadline: deadline,
	}
	require.NoError(t, repo.Create(task))
}

func deadlineAt(offset time.Duration) *time.Time {
	d := evalTime.Add(offset)
	return &d
}

func TestOverdueTasks(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	sched := NewDeadlineScheduler(repo, newFakeDispatcher(), nil, nil, fixedClock(evalTime))

	storePlainTask(t, repo, "old", deadlineAt(-48*time.Hour), domain.TaskStatusPending)
	storePlainTask(t, repo, "recent", deadlineAt(-time.Hour), domain.TaskStatusInProgress)
	storePlainTask(t, repo, "done", deadlineAt(-24*time.Hour), domain.TaskStatusCompleted)
	storePlainTask(t, repo, "future", deadlineAt(time.Hour), domain.TaskStatusPending)
	storePlainTask(t, repo, "no deadline", nil, domain.TaskStatusPending)

	overdue, err := sched.OverdueTasks()
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	// Earliest deadline first; completed tasks never count.
	assert.Equal(t, "old", overdue[0].ID)
	assert.Equal(t, "recent", overdue[1].ID)
}

func TestUpcomingDeadlines(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	sched := NewDeadlineScheduler(repo, newFakeDispatcher(), nil, nil, fixedClock(evalTime))

	storePlainTask(t, repo, "tomorrow", deadlineAt(24*time.Hour), domain.TaskStatusPending)
	storePlainTask(t, repo, "in-six-days", deadlineAt(6*24*time.Hour), domain.TaskStatusPending)
	storePlainTask(t, repo, "in-ten-days", deadlineAt(10*24*time.Hour), domain.TaskStatusPending)
	storePlainTask(t, repo, "overdue", deadlineAt(-time.Hour), domain.TaskStatusPending)
	storePlainTask(t, repo, "done", deadlineAt(24*time.Hour), domain.TaskStatusCompleted)

	upcoming, err := sched.UpcomingDeadlines(7)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "tomorrow", upcoming[0].ID)
	assert.Equal(t, "in-six-days", upcoming[1].ID)

	upcoming, err = sched.UpcomingDeadlines(14)
	require.NoError(t, err)
	assert.Len(t, upcoming, 3)
}

func TestStatistics(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	sched := NewDeadlineScheduler(repo, newFakeDispatcher(), nil, nil, fixedClock(evalTime))

	storePlainTask(t, repo, "overdue", deadlineAt(-time.Hour), domain.TaskStatusPending)
	storePlainTask(t, repo, "this-week", deadlineAt(3*24*time.Hour), domain.TaskStatusPending)
	storePlainTask(t, repo, "far-out", deadlineAt(30*24*time.Hour), domain.TaskStatusPending)
	storePlainTask(t, repo, "no-deadline", nil, domain.TaskStatusPending)

	withReminders := &domain.Task{
		ID:       "reminded",
		Title:    "Reminded twice",
		Priority: domain.PriorityMedium,
		Status:   domain.TaskStatusPending,
		Deadline: deadlineAt(2 * 24 * time.Hour),
		Reminders: domain.SentReminders{
			{Key: "1_day", SentAt: evalTime},
			{Key: "2_hour", SentAt: evalTime},
		},
	}
	require.NoError(t, repo.Create(withReminders))

	stats, err := sched.Statistics()
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalTasksWithDeadlines)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 2, stats.DueThisWeek)
	assert.Equal(t, 2, stats.RemindersSent)
	assert.InDelta(t, 0.5, stats.AverageRemindersPerTask, 0.001)
}

func TestStatisticsEmpty(t *testing.T) {
	repo := repository.NewMemoryTaskRepository()
	sched := NewDeadlineScheduler(repo, newFakeDispatcher(), nil, nil, fixedClock(evalTime))

	stats, err := sched.Statistics()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalTasksWithDeadlines)
	assert.Zero(t, stats.AverageRemindersPerTask)
}
