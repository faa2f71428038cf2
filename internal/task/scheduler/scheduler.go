package scheduler

import (
	"context"
	"fmt"
	"log"
	stdsync "sync"
	"time"

	"minitask-backend/internal/notification"
	"minitask-backend/internal/sync"
	"minitask-backend/internal/task/domain"
)

const (
	// DefaultCheckInterval is how often the scheduler scans for due reminders.
	DefaultCheckInterval = time.Minute
	// MinCheckInterval is the floor; shorter requests are clamped up.
	MinCheckInterval = 10 * time.Second
	// DailySummaryHour is the UTC hour after which the daily digest
	// goes out, once per calendar day.
	DailySummaryHour = 9
)

// TaskSource is the slice of the task store the scheduler needs.
type TaskSource interface {
	AllTasks() ([]*domain.Task, error)
	TaskByID(id string) (*domain.Task, error)
	SaveReminderLog(id string, reminders domain.SentReminders, updatedAt time.Time) error
}

// Dispatcher delivers a notification to its recipients. Implementations
// carry their own error boundary; a returned error is logged by the
// scheduler and never mutates reminder state.
type Dispatcher interface {
	Dispatch(ctx context.Context, n notification.Notification) error
}

// RecipientSource resolves the admins of a group, for tasks configured
// to notify them. Optional.
type RecipientSource interface {
	GroupAdmins(groupID string) ([]string, error)
}

// DeadlineScheduler polls the task collection on a fixed cadence and
// dispatches due deadline reminders exactly once per process lifetime.
type DeadlineScheduler struct {
	tasks      TaskSource
	dispatcher Dispatcher
	recipients RecipientSource
	events     sync.Publisher
	now        func() time.Time

	mu            stdsync.Mutex
	checkInterval time.Duration
	running       bool
	stopChan      chan struct{}
	// sent dedups (taskID, reminderKey) pairs across ticks, including
	// overlapping ones: membership is checked and inserted under the
	// lock before any dispatch hand-off. Overdue alerts share the set
	// under the reserved "overdue" key.
	sent map[string]struct{}
	// lastSummaryDay guards the daily digest, one per calendar day.
	lastSummaryDay string

	// inflight tracks fire-and-forget dispatch goroutines so tests and
	// shutdown can wait for them.
	inflight stdsync.WaitGroup
}

// NewDeadlineScheduler wires the scheduler with its collaborators.
// recipients and events may be nil; now defaults to time.Now.
func NewDeadlineScheduler(tasks TaskSource, dispatcher Dispatcher, recipients RecipientSource, events sync.Publisher, now func() time.Time) *DeadlineScheduler {
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = sync.NoopPublisher{}
	}
	return &DeadlineScheduler{
		tasks:         tasks,
		dispatcher:    dispatcher,
		recipients:    recipients,
		events:        events,
		now:           now,
		checkInterval: DefaultCheckInterval,
		sent:          make(map[string]struct{}),
	}
}

// Start begins the recurring reminder scan. No-op if already running.
func (s *DeadlineScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stopChan := s.stopChan
	interval := s.checkInterval
	s.mu.Unlock()

	log.Printf("[Scheduler] Deadline reminder scheduler started (interval: %s)", interval)

	go func() {
		// Run immediately on start
		s.runTick()
		s.maybeSendDailySummary()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runTick()
				s.maybeSendDailySummary()
			case <-stopChan:
				log.Println("[Scheduler] Deadline reminder scheduler stopped")
				return
			}
		}
	}()
}

// Stop cancels future ticks. In-flight dispatches are not aborted.
// No-op if already stopped.
func (s *DeadlineScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopChan)
	s.running = false
}

// SetCheckInterval changes the scan cadence, clamping to the floor.
// A running scheduler is restarted with the new cadence; the brief gap
// is harmless because the next tick re-evaluates the same unsent set.
func (s *DeadlineScheduler) SetCheckInterval(interval time.Duration) {
	if interval < MinCheckInterval {
		log.Printf("[Scheduler] Check interval %s too short, using minimum of %s", interval, MinCheckInterval)
		interval = MinCheckInterval
	}

	s.mu.Lock()
	s.checkInterval = interval
	running := s.running
	s.mu.Unlock()

	if running {
		s.Stop()
		s.Start()
	}
}

// Running reports whether the recurring scan is active.
func (s *DeadlineScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// CheckInterval returns the current scan cadence.
func (s *DeadlineScheduler) CheckInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkInterval
}

type reminderBatchEntry struct {
	task *domain.Task
	due  *DueReminder
}

// runTick performs one scan: evaluate every task, dedup against the
// process-lifetime sent set, then record-then-notify each entry.
// Overdue incomplete tasks additionally get a one-time overdue alert.
func (s *DeadlineScheduler) runTick() {
	tasks, err := s.tasks.AllTasks()
	if err != nil {
		log.Printf("[Scheduler] Failed to fetch tasks for reminder check: %v", err)
		return
	}

	now := s.now()
	var batch []reminderBatchEntry
	for _, task := range tasks {
		if task.IsOverdue(now) && !task.IsCompleted() && s.claim(task.ID+"_overdue") {
			s.dispatch(s.buildOverdueNotification(task, now))
		}

		due := Evaluate(task, now)
		if due == nil {
			continue
		}
		if !s.claim(task.ID + "_" + due.Key) {
			continue
		}

		batch = append(batch, reminderBatchEntry{task: task, due: due})
	}

	if len(batch) == 0 {
		return
	}

	log.Printf("[Scheduler] Found %d tasks with due reminders", len(batch))
	for _, entry := range batch {
		s.processReminder(entry.task, entry.due, now)
	}
}

// claim checks and inserts a dedup key in one step under the lock.
// Returns false when the key was already taken by an earlier tick.
func (s *DeadlineScheduler) claim(dedupKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.sent[dedupKey]; seen {
		return false
	}
	s.sent[dedupKey] = struct{}{}
	return true
}

// processReminder records the reminder as sent, persists the log, then
// hands the notification off. Record-then-notify: a failed delivery is
// never retried, which trades a possibly lost reminder for never
// spamming duplicates.
func (s *DeadlineScheduler) processReminder(task *domain.Task, due *DueReminder, now time.Time) {
	task.MarkReminderSent(due.Key, now)
	if err := s.tasks.SaveReminderLog(task.ID, task.Reminders, task.UpdatedAt); err != nil {
		log.Printf("[Scheduler] Failed to persist reminder log for task %s: %v", task.ID, err)
	}

	n := s.buildReminderNotification(task, due, now)
	s.dispatch(n)

	if err := s.events.Publish(context.Background(), sync.Event{
		Kind:      sync.EventReminderSent,
		TaskID:    task.ID,
		GroupID:   task.GroupID,
		Data:      map[string]string{"reminder_key": due.Key},
		Timestamp: now,
	}); err != nil {
		log.Printf("[Scheduler] Failed to publish reminder event for task %s: %v", task.ID, err)
	}

	log.Printf("[Scheduler] Sent reminder for task %q (%s)", task.Title, due.Key)
}

// dispatch fires the notification on its own goroutine with its own
// error boundary, so one slow or failing channel never blocks the rest
// of the batch.
func (s *DeadlineScheduler) dispatch(n notification.Notification) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Scheduler] Notification dispatch panicked for task %s: %v", n.TaskID, r)
			}
		}()
		if err := s.dispatcher.Dispatch(context.Background(), n); err != nil {
			log.Printf("[Scheduler] Notification dispatch failed for task %s: %v", n.TaskID, err)
		}
	}()
}

// Wait blocks until all in-flight notification dispatches finish.
func (s *DeadlineScheduler) Wait() {
	s.inflight.Wait()
}

func (s *DeadlineScheduler) buildReminderNotification(task *domain.Task, due *DueReminder, now time.Time) notification.Notification {
	timeUntil := task.FormatTimeUntilDeadline(now)
	return notification.Notification{
		ID:           fmt.Sprintf("reminder_%s_%d", task.ID, now.UnixMilli()),
		Type:         notification.TypeDeadlineReminder,
		Title:        "Task Deadline Reminder",
		Message:      fmt.Sprintf("%q is due %s", task.Title, timeUntil),
		TaskID:       task.ID,
		Recipients:   s.recipientsFor(task),
		Priority:     notification.PriorityFor(task, due.Interval),
		Timestamp:    now,
		TelegramHTML: notification.FormatReminder(task, timeUntil),
		Data: map[string]string{
			"task_title":        task.Title,
			"deadline":          task.Deadline.Format(time.RFC3339),
			"time_until":        timeUntil,
			"reminder_interval": fmt.Sprintf("%d %s%s", due.Interval.Value, due.Interval.Unit, pluralSuffix(due.Interval.Value)),
			"task_priority":     string(task.Priority),
			"task_status":       string(task.Status),
		},
	}
}

func (s *DeadlineScheduler) buildOverdueNotification(task *domain.Task, now time.Time) notification.Notification {
	days := task.DaysOverdue(now)
	return notification.Notification{
		ID:           fmt.Sprintf("overdue_%s_%d", task.ID, now.UnixMilli()),
		Type:         notification.TypeTaskOverdue,
		Title:        "Task Overdue",
		Message:      fmt.Sprintf("%q is overdue by %d day%s", task.Title, days, pluralSuffix(days)),
		TaskID:       task.ID,
		Recipients:   s.recipientsFor(task),
		Priority:     notification.PriorityHigh,
		Timestamp:    now,
		TelegramHTML: notification.FormatOverdue(task, days),
		Data: map[string]string{
			"task_title":   task.Title,
			"deadline":     task.Deadline.Format(time.RFC3339),
			"days_overdue": fmt.Sprintf("%d", days),
		},
	}
}

// maybeSendDailySummary sends each task owner a digest of their overdue
// and due-today tasks, at most once per calendar day and never before
// DailySummaryHour. Days and hours follow UTC, like the deadline day
// buckets in Statistics.
func (s *DeadlineScheduler) maybeSendDailySummary() {
	now := s.now()
	if now.Hour() < DailySummaryHour {
		return
	}
	day := now.Format("2006-01-02")
	s.mu.Lock()
	sentToday := s.lastSummaryDay == day
	s.mu.Unlock()
	if sentToday {
		return
	}

	tasks, err := s.tasks.AllTasks()
	if err != nil {
		log.Printf("[Scheduler] Failed to fetch tasks for daily summary: %v", err)
		return
	}

	// The day is only consumed once the fetch succeeded, so a bad tick
	// retries on the next one.
	s.mu.Lock()
	s.lastSummaryDay = day
	s.mu.Unlock()

	type digest struct {
		overdue  []*domain.Task
		dueToday []*domain.Task
	}
	today := now.Truncate(24 * time.Hour)
	perOwner := make(map[string]*digest)
	for _, task := range tasks {
		if !task.HasDeadline() || task.IsCompleted() {
			continue
		}
		owner := task.Assignee
		if owner == "" {
			owner = task.CreatedBy
		}
		if owner == "" {
			continue
		}

		d := perOwner[owner]
		if d == nil {
			d = &digest{}
			perOwner[owner] = d
		}
		switch {
		case task.IsOverdue(now):
			d.overdue = append(d.overdue, task)
		case task.Deadline.Truncate(24 * time.Hour).Equal(today):
			d.dueToday = append(d.dueToday, task)
		}
	}

	for owner, d := range perOwner {
		if len(d.overdue) == 0 && len(d.dueToday) == 0 {
			continue
		}
		s.dispatch(notification.Notification{
			ID:           fmt.Sprintf("summary_%s_%s", owner, day),
			Type:         notification.TypeDailySummary,
			Title:        "Daily Summary",
			Message:      fmt.Sprintf("%d overdue, %d due today", len(d.overdue), len(d.dueToday)),
			Recipients:   []string{owner},
			Priority:     notification.PriorityLow,
			Timestamp:    now,
			TelegramHTML: notification.FormatDailySummary(d.overdue, d.dueToday, now),
		})
	}
}

func (s *DeadlineScheduler) recipientsFor(task *domain.Task) []string {
	var recipients []string
	seen := make(map[string]struct{})
	add := func(userID string) {
		if userID == "" {
			return
		}
		if _, dup := seen[userID]; dup {
			return
		}
		seen[userID] = struct{}{}
		recipients = append(recipients, userID)
	}

	if task.ReminderSettings.NotifyAssignee {
		add(task.Assignee)
	}
	if task.ReminderSettings.NotifyCreator {
		add(task.CreatedBy)
	}
	if task.ReminderSettings.NotifyGroupAdmin && task.GroupID != "" && s.recipients != nil {
		admins, err := s.recipients.GroupAdmins(task.GroupID)
		if err != nil {
			log.Printf("[Scheduler] Failed to resolve group admins for %s: %v", task.GroupID, err)
		} else {
			for _, admin := range admins {
				add(admin)
			}
		}
	}
	return recipients
}

// SendManualReminder pushes an immediate ad-hoc reminder for one task,
// outside the interval machinery. The sent log is not touched.
func (s *DeadlineScheduler) SendManualReminder(taskID, message string) (notification.Notification, error) {
	task, err := s.tasks.TaskByID(taskID)
	if err != nil {
		return notification.Notification{}, err
	}
	if task == nil {
		return notification.Notification{}, fmt.Errorf("task %s not found", taskID)
	}
	if !task.HasDeadline() {
		return notification.Notification{}, fmt.Errorf("task %s has no deadline set", taskID)
	}

	now := s.now()
	if message == "" {
		message = fmt.Sprintf("Reminder: %q is due %s", task.Title, task.FormatTimeUntilDeadline(now))
	}

	n := notification.Notification{
		ID:         fmt.Sprintf("manual_reminder_%s_%d", task.ID, now.UnixMilli()),
		Type:       notification.TypeManualReminder,
		Title:      "Manual Reminder",
		Message:    message,
		TaskID:     task.ID,
		Recipients: s.recipientsFor(task),
		Priority:   notification.PriorityMedium,
		Timestamp:  now,
	}
	s.dispatch(n)
	return n, nil
}

func pluralSuffix(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
