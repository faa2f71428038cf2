package usecase

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"minitask-backend/internal/task/repository"
)

// ExportCSV renders every task as one CSV row, deadline and reminder
// counters included, for download from the mini app.
func (u *taskUsecase) ExportCSV() ([]byte, error) {
	tasks, err := u.taskRepo.FindAll(repository.Filter{})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"id", "title", "description", "status", "priority", "assignee", "group_id", "deadline", "tags", "reminders_sent", "created_at", "updated_at"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, task := range tasks {
		deadline := ""
		if task.HasDeadline() {
			deadline = task.Deadline.Format(time.RFC3339)
		}
		row := []string{
			task.ID,
			task.Title,
			task.Description,
			string(task.Status),
			string(task.Priority),
			task.Assignee,
			task.GroupID,
			deadline,
			strings.Join(task.Tags, ";"),
			strconv.Itoa(len(task.Reminders)),
			task.CreatedAt.Format(time.RFC3339),
			task.UpdatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportJSON renders the full task collection as an indented JSON array.
func (u *taskUsecase) ExportJSON() ([]byte, error) {
	tasks, err := u.taskRepo.FindAll(repository.Filter{})
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(tasks, "", "  ")
}
