package models

import "time"

// Timer activity actions recorded against a task.
const (
	ActionTimerStarted   = "timer_started"
	ActionTimerPaused    = "timer_paused"
	ActionTimerResumed   = "timer_resumed"
	ActionTimerStopped   = "timer_stopped"
	ActionTaskCompleted  = "task_completed"
	ActionSessionDeleted = "session_deleted"
)

// Activity is one append-only audit entry for a timer action on a task.
type Activity struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	TaskID uint   `gorm:"not null;index" json:"task_id"`
	UserID string `gorm:"not null" json:"user_id"`
	Action string `gorm:"not null" json:"action"`
	Detail string `json:"detail"`
}
