package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderUnitDuration(t *testing.T) {
	tests := []struct {
		unit ReminderUnit
		want time.Duration
		ok   bool
	}{
		{UnitMinute, time.Minute, true},
		{UnitHour, time.Hour, true},
		{UnitDay, 24 * time.Hour, true},
		{UnitWeek, 7 * 24 * time.Hour, true},
		{"month", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.unit.Duration()
		assert.Equal(t, tt.ok, ok, "unit %q", tt.unit)
		assert.Equal(t, tt.want, got, "unit %q", tt.unit)
	}
}

func TestReminderIntervalKey(t *testing.T) {
	assert.Equal(t, "2_hour", ReminderInterval{Value: 2, Unit: UnitHour}.Key())
	assert.Equal(t, "15_minute", ReminderInterval{Value: 15, Unit: UnitMinute}.Key())
	assert.Equal(t, "1_week", ReminderInterval{Value: 1, Unit: UnitWeek}.Key())
}

func TestReminderIntervalOffset(t *testing.T) {
	offset, ok := ReminderInterval{Value: 3, Unit: UnitDay}.Offset()
	require.True(t, ok)
	assert.Equal(t, 72*time.Hour, offset)

	_, ok = ReminderInterval{Value: 3, Unit: "quarter"}.Offset()
	assert.False(t, ok)
}

func TestReminderIntervalValidate(t *testing.T) {
	assert.NoError(t, ReminderInterval{Value: 1, Unit: UnitDay}.Validate())
	assert.Error(t, ReminderInterval{Value: 0, Unit: UnitDay}.Validate())
	assert.Error(t, ReminderInterval{Value: -2, Unit: UnitHour}.Validate())
	assert.Error(t, ReminderInterval{Value: 1, Unit: "month"}.Validate())
}

func TestReminderSettingsValidate(t *testing.T) {
	settings := DefaultReminderSettings()
	require.NoError(t, settings.Validate())
	assert.True(t, settings.Enabled)
	assert.Len(t, settings.Intervals, 3)

	settings.Intervals = append(settings.Intervals, ReminderInterval{Value: 1, Unit: "month"})
	assert.Error(t, settings.Validate())
}

func TestMarkReminderSent(t *testing.T) {
	task := taskDueIn(time.Hour)

	assert.False(t, task.ReminderSent("2_hour"))

	task.MarkReminderSent("2_hour", baseTime)
	assert.True(t, task.ReminderSent("2_hour"))
	require.Len(t, task.Reminders, 1)

	// Re-marking the same key leaves the log untouched.
	task.MarkReminderSent("2_hour", baseTime.Add(time.Hour))
	require.Len(t, task.Reminders, 1)
	assert.Equal(t, baseTime, task.Reminders[0].SentAt)

	task.MarkReminderSent("1_day", baseTime)
	assert.Len(t, task.Reminders, 2)
	assert.True(t, task.ReminderSent("1_day"))
	assert.False(t, task.ReminderSent("15_minute"))
}
