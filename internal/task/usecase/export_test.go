package usecase

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"minitask-backend/internal/task/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV(t *testing.T) {
	uc, _, _ := newTestUsecase()

	deadline := testTime.Add(24 * time.Hour).Format(time.RFC3339)
	_, err := uc.CreateTask("alice", TaskCreateRequest{
		Title:    "Ship it, carefully",
		Deadline: &deadline,
		Tags:     []string{"release", "backend"},
	})
	require.NoError(t, err)
	_, err = uc.CreateTask("alice", TaskCreateRequest{Title: "No deadline"})
	require.NoError(t, err)

	data, err := uc.ExportCSV()
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus two rows")
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, "reminders_sent", records[0][9])

	byTitle := map[string][]string{records[1][1]: records[1], records[2][1]: records[2]}
	shipRow := byTitle["Ship it, carefully"]
	require.NotNil(t, shipRow, "comma in title survives the round trip")
	assert.Equal(t, "release;backend", shipRow[8])
	assert.Equal(t, deadline, shipRow[7])
	assert.Equal(t, "", byTitle["No deadline"][7])
}

func TestExportJSON(t *testing.T) {
	uc, _, _ := newTestUsecase()

	_, err := uc.CreateTask("alice", TaskCreateRequest{Title: "Only task"})
	require.NoError(t, err)

	data, err := uc.ExportJSON()
	require.NoError(t, err)

	var tasks []*domain.Task
	require.NoError(t, json.Unmarshal(data, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Only task", tasks[0].Title)
}
