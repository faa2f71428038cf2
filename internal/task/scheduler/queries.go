package scheduler

import (
	"math"
	"sort"
	"time"

	"minitask-backend/internal/task/domain"
)

// DeadlineStatistics is an aggregate snapshot over the live task
// collection. Recomputed on every call, nothing is cached.
type DeadlineStatistics struct {
	TotalTasksWithDeadlines int     `json:"total_tasks_with_deadlines"`
	Overdue                 int     `json:"overdue"`
	DueToday                int     `json:"due_today"`
	DueTomorrow             int     `json:"due_tomorrow"`
	DueThisWeek             int     `json:"due_this_week"`
	RemindersSent           int     `json:"reminders_sent"`
	AverageRemindersPerTask float64 `json:"average_reminders_per_task"`
}

// OverdueTasks lists incomplete tasks whose deadline has passed,
// earliest deadline first.
func (s *DeadlineScheduler) OverdueTasks() ([]*domain.Task, error) {
	tasks, err := s.tasks.AllTasks()
	if err != nil {
		return nil, err
	}

	now := s.now()
	var overdue []*domain.Task
	for _, task := range tasks {
		if task.IsOverdue(now) && !task.IsCompleted() {
			overdue = append(overdue, task)
		}
	}

	sort.Slice(overdue, func(i, j int) bool {
		return overdue[i].Deadline.Before(*overdue[j].Deadline)
	})
	return overdue, nil
}

// UpcomingDeadlines lists incomplete tasks due within the next N days,
// earliest deadline first.
func (s *DeadlineScheduler) UpcomingDeadlines(days int) ([]*domain.Task, error) {
	tasks, err := s.tasks.AllTasks()
	if err != nil {
		return nil, err
	}

	now := s.now()
	cutoff := now.AddDate(0, 0, days)
	var upcoming []*domain.Task
	for _, task := range tasks {
		if !task.HasDeadline() || task.IsCompleted() {
			continue
		}
		deadline := *task.Deadline
		if !deadline.Before(now) && !deadline.After(cutoff) {
			upcoming = append(upcoming, task)
		}
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].Deadline.Before(*upcoming[j].Deadline)
	})
	return upcoming, nil
}

// Statistics aggregates deadline counters over the whole collection.
// DueToday and DueTomorrow bucket by UTC calendar day; deadlines are
// stored in UTC and the server has no per-user timezone.
func (s *DeadlineScheduler) Statistics() (DeadlineStatistics, error) {
	tasks, err := s.tasks.AllTasks()
	if err != nil {
		return DeadlineStatistics{}, err
	}

	now := s.now()
	today := now.Truncate(24 * time.Hour)
	tomorrow := today.AddDate(0, 0, 1)
	weekCutoff := now.AddDate(0, 0, 7)

	var stats DeadlineStatistics
	for _, task := range tasks {
		stats.RemindersSent += len(task.Reminders)
		if !task.HasDeadline() {
			continue
		}
		stats.TotalTasksWithDeadlines++

		if task.IsCompleted() {
			continue
		}
		deadline := *task.Deadline
		switch {
		case deadline.Before(now):
			stats.Overdue++
		case !deadline.After(weekCutoff):
			stats.DueThisWeek++
		}
		day := deadline.Truncate(24 * time.Hour)
		if day.Equal(today) {
			stats.DueToday++
		}
		if day.Equal(tomorrow) {
			stats.DueTomorrow++
		}
	}

	if stats.TotalTasksWithDeadlines > 0 {
		avg := float64(stats.RemindersSent) / float64(stats.TotalTasksWithDeadlines)
		stats.AverageRemindersPerTask = math.Round(avg*100) / 100
	}
	return stats, nil
}
