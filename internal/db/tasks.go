package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hamrotask/hamro/internal/feed"
	"github.com/hamrotask/hamro/internal/models"
)

// defaultStatuses is the catalog seeded into every new project.
var defaultStatuses = []models.ProjectStatus{
	{Name: "Backlog", Category: models.CategoryTodo, IsDefault: true, Position: 0},
	{Name: "In Progress", Category: models.CategoryActive, Position: 1},
	{Name: "Done", Category: models.CategoryDone, IsCompleted: true, Position: 2},
	{Name: "Cancelled", Category: models.CategoryCancelled, Position: 3},
}

// CreateProject creates a project and seeds its status catalog.
func (s *Store) CreateProject(name string) (*models.Project, error) {
	project := models.Project{Name: name}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		for _, status := range defaultStatuses {
			status.ProjectID = project.ID
			if err := tx.Create(&status).Error; err != nil {
				return err
			}
			project.Statuses = append(project.Statuses, status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &project, nil
}

// CreateTask creates a task in a project, placed on the project's default
// status when the catalog defines one.
func (s *Store) CreateTask(projectID uint, title string) (*models.Task, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		return nil, fmt.Errorf("project #%d not found", projectID)
	}

	task := models.Task{
		ProjectID: projectID,
		Title:     title,
	}

	var status models.ProjectStatus
	err := s.db.Where("project_id = ? AND is_default = ?", projectID, true).
		Order("position ASC").
		First(&status).Error
	if err == nil {
		task.CustomStatusID = &status.ID
	}

	if err := s.db.Create(&task).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// GetTask retrieves a task with its status loaded.
func (s *Store) GetTask(id uint) (*models.Task, error) {
	var task models.Task
	err := s.db.Preload("Status").First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTasks retrieves all tasks with their statuses loaded.
func (s *Store) GetTasks() ([]models.Task, error) {
	var tasks []models.Task
	if err := s.db.Preload("Status").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// SetTaskStatus moves the task to the given status. Moving into a done or
// cancelled category stamps completed_at once.
func (s *Store) SetTaskStatus(taskID, statusID uint) error {
	var status models.ProjectStatus
	if err := s.db.First(&status, statusID).Error; err != nil {
		return ErrNoStatus
	}

	updates := map[string]interface{}{"custom_status_id": statusID}
	if status.Category.Terminal() || status.IsCompleted {
		// Set-once under racing terminal moves; the first stamp stands.
		updates["completed_at"] = gorm.Expr("COALESCE(completed_at, ?)", time.Now())
	}

	res := s.db.Model(&models.Task{}).Where("id = ?", taskID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}

	s.publish(feed.TaskTopic(taskID), "task_updated")
	return nil
}

// SetTimerRunning repairs the task's denormalized running flag.
func (s *Store) SetTimerRunning(taskID uint, running bool) error {
	err := s.db.Model(&models.Task{}).
		Where("id = ?", taskID).
		Update("is_timer_running", running).Error
	if err != nil {
		return err
	}

	s.publish(feed.TaskTopic(taskID), "task_updated")
	return nil
}

// MarkFirstStarted stamps the task's first-ever session start. The guard
// predicate keeps the timestamp set-once under concurrent starts.
func (s *Store) MarkFirstStarted(taskID uint, startedAt time.Time) error {
	err := s.db.Model(&models.Task{}).
		Where("id = ? AND first_started_at IS NULL", taskID).
		Update("first_started_at", startedAt).Error
	if err != nil {
		return err
	}

	s.publish(feed.TaskTopic(taskID), "task_updated")
	return nil
}

// StatusesForProject returns the project's status catalog in display order.
func (s *Store) StatusesForProject(projectID uint) ([]models.ProjectStatus, error) {
	var statuses []models.ProjectStatus
	err := s.db.Where("project_id = ?", projectID).
		Order("position ASC").
		Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// FindStatusByCategory returns the project's first status of the given
// category in display order.
func (s *Store) FindStatusByCategory(projectID uint, category models.StatusCategory) (*models.ProjectStatus, error) {
	var status models.ProjectStatus
	err := s.db.Where("project_id = ? AND category = ?", projectID, category).
		Order("position ASC").
		First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoStatus
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// FindCompletionStatus picks the status a completed task should land on:
// first by done category, falling back to any status flagged is_completed.
func (s *Store) FindCompletionStatus(projectID uint) (*models.ProjectStatus, error) {
	status, err := s.FindStatusByCategory(projectID, models.CategoryDone)
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, ErrNoStatus) {
		return nil, err
	}

	var fallback models.ProjectStatus
	err = s.db.Where("project_id = ? AND is_completed = ?", projectID, true).
		Order("position ASC").
		First(&fallback).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoStatus
	}
	if err != nil {
		return nil, err
	}
	return &fallback, nil
}
