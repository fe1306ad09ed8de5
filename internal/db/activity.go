package db

import "github.com/hamrotask/hamro/internal/models"

// RecordActivity appends one audit entry for a timer action on a task.
func (s *Store) RecordActivity(taskID uint, userID, action, detail string) error {
	activity := models.Activity{
		TaskID: taskID,
		UserID: userID,
		Action: action,
		Detail: detail,
	}
	return s.db.Create(&activity).Error
}

// ActivitiesForTask returns the task's audit trail, most recent first.
func (s *Store) ActivitiesForTask(taskID uint) ([]models.Activity, error) {
	var activities []models.Activity
	err := s.db.Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}
