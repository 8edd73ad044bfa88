package model

import "time"

// Reminder presets relative to a task's due date.
const (
	ReminderPreset1Hour = "1 hour before"
	ReminderPreset1Day  = "1 day before"
	ReminderPreset1Week = "1 week before"
)

// PresetOffset returns the duration before the due date that a preset
// stands for, or false for an unknown preset.
func PresetOffset(preset string) (time.Duration, bool) {
	switch preset {
	case ReminderPreset1Hour:
		return time.Hour, true
	case ReminderPreset1Day:
		return 24 * time.Hour, true
	case ReminderPreset1Week:
		return 7 * 24 * time.Hour, true
	}
	return 0, false
}

// Reminder is a scheduled alert for a task. RemindAt is snapshot from
// the preset and due date at creation time and is not recomputed if
// the due date later changes.
type Reminder struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	RemindAt  time.Time `json:"remind_at"`
	Preset    string    `json:"preset"`
	Fired     bool      `json:"fired"`
	CreatedAt time.Time `json:"created_at"`
}
