package models

import (
	"time"

	"gorm.io/gorm"
)

// StatusCategory classifies a ProjectStatus into the task lifecycle stage
// the timer core cares about.
type StatusCategory string

const (
	CategoryTodo      StatusCategory = "todo"
	CategoryActive    StatusCategory = "active"
	CategoryDone      StatusCategory = "done"
	CategoryCancelled StatusCategory = "cancelled"
)

// Terminal reports whether the category ends a task's timer lifecycle.
func (c StatusCategory) Terminal() bool {
	return c == CategoryDone || c == CategoryCancelled
}

// Project groups tasks under a shared status catalog
type Project struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name string `gorm:"not null" json:"name"`

	// Relationships
	Statuses []ProjectStatus `gorm:"foreignKey:ProjectID" json:"statuses"`
	Tasks    []Task          `gorm:"foreignKey:ProjectID" json:"tasks"`
}

// ProjectStatus is one entry of a project's status catalog. The timer core
// reads it to classify the task's lifecycle stage; it never edits the catalog.
type ProjectStatus struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID   uint           `gorm:"not null;index" json:"project_id"`
	Name        string         `gorm:"not null" json:"name"`
	Category    StatusCategory `gorm:"not null;default:todo" json:"category"`
	IsDefault   bool           `gorm:"default:false" json:"is_default"`
	IsCompleted bool           `gorm:"default:false" json:"is_completed"`
	Position    int            `gorm:"default:0" json:"position"`
}

// Task is the timing-relevant subset of a Hamro task
type Task struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ProjectID      uint   `gorm:"not null;index" json:"project_id"`
	Title          string `gorm:"not null" json:"title"`
	CustomStatusID *uint  `json:"custom_status_id"`

	// TotalWorkTime accumulates closed-session seconds. Only ever mutated
	// through the ledger's atomic operations, never read-add-write.
	TotalWorkTime int64 `gorm:"default:0" json:"total_work_time"`

	// IsTimerRunning mirrors "an open work session exists for this task".
	// The ledger stays the source of truth; every write path repairs the flag.
	IsTimerRunning bool `gorm:"default:false" json:"is_timer_running"`

	FirstStartedAt *time.Time `json:"first_started_at"`
	CompletedAt    *time.Time `json:"completed_at"`

	// Relationships
	Status   *ProjectStatus `gorm:"foreignKey:CustomStatusID" json:"status"`
	Sessions []WorkSession  `gorm:"foreignKey:TaskID" json:"sessions"`
}

// StatusCategory returns the task's lifecycle category, or "" when the task
// has no status assigned yet.
func (t *Task) StatusCategory() StatusCategory {
	if t.Status == nil {
		return ""
	}
	return t.Status.Category
}
