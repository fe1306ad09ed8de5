package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkSession is one contiguous interval of active work on a task. A session
// with no EndedAt is open; a task has at most one open session at a time.
type WorkSession struct {
	ID        string    `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TaskID    uint       `gorm:"not null;index" json:"task_id"`
	UserID    string     `gorm:"not null" json:"user_id"`
	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`

	// DurationSeconds is set exactly when EndedAt is set: whole seconds,
	// truncated toward zero.
	DurationSeconds *int64 `json:"duration_seconds"`

	// Relationships
	Task Task `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"task"`
}

// BeforeCreate assigns an opaque id when the caller did not provide one.
func (s *WorkSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Open reports whether the session is still accumulating time.
func (s *WorkSession) Open() bool {
	return s.EndedAt == nil
}
