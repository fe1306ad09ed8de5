package db

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hamrotask/hamro/internal/feed"
	"github.com/hamrotask/hamro/internal/models"
)

// OpenSession appends an open work session to the task's ledger. Callers must
// first guarantee no other open session exists for the task; the timer
// controller does this by closing stale sessions before opening.
func (s *Store) OpenSession(taskID uint, userID string, startedAt time.Time) (*models.WorkSession, error) {
	session := models.WorkSession{
		TaskID:    taskID,
		UserID:    userID,
		StartedAt: startedAt,
	}

	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}

	s.publish(feed.SessionsTopic(taskID), "session_opened")
	return &session, nil
}

// CloseOpenSession closes the task's open session and credits its duration to
// the task's total work time, all in one transaction. The guarded update
// (`ended_at IS NULL`) is the compare-and-swap: when two closers race, one
// commits and the other sees zero rows affected and gets ErrNoOpenSession.
// The task's running flag is repaired in the same transaction.
func (s *Store) CloseOpenSession(taskID uint, userID string) (int64, error) {
	var duration int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var session models.WorkSession
		err := tx.Where("task_id = ? AND ended_at IS NULL", taskID).First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoOpenSession
		}
		if err != nil {
			return err
		}

		now := time.Now()
		duration = int64(now.Sub(session.StartedAt) / time.Second)
		if duration < 0 {
			duration = 0
		}

		res := tx.Model(&models.WorkSession{}).
			Where("id = ? AND ended_at IS NULL", session.ID).
			Updates(map[string]interface{}{
				"ended_at":         now,
				"duration_seconds": duration,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoOpenSession
		}

		return tx.Model(&models.Task{}).
			Where("id = ?", taskID).
			Updates(map[string]interface{}{
				"total_work_time":  gorm.Expr("total_work_time + ?", duration),
				"is_timer_running": false,
			}).Error
	})
	if err != nil {
		return 0, err
	}

	s.publish(feed.SessionsTopic(taskID), "session_closed")
	s.publish(feed.TaskTopic(taskID), "task_updated")
	return duration, nil
}

// AdjustWorkTime shifts the task's total work time by delta seconds inside the
// database, floored at zero. Used when a closed session is deleted after the
// fact; never replaced by a client-side read-add-write.
func (s *Store) AdjustWorkTime(taskID uint, deltaSeconds int64) error {
	err := s.db.Model(&models.Task{}).
		Where("id = ?", taskID).
		Update("total_work_time", gorm.Expr("MAX(total_work_time + ?, 0)", deltaSeconds)).Error
	if err != nil {
		return err
	}

	s.publish(feed.TaskTopic(taskID), "task_updated")
	return nil
}

// DeleteSession removes a session row and reverses its contribution. For an
// open session the task's running flag is cleared before the row goes away, so
// a crash mid-sequence never leaves the flag pointing at a missing session; an
// open session has no duration and the total is untouched. The deleted row is
// returned for audit logging.
func (s *Store) DeleteSession(sessionID string) (*models.WorkSession, error) {
	var session models.WorkSession
	err := s.db.First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if session.Open() {
		err := s.db.Model(&models.Task{}).
			Where("id = ?", session.TaskID).
			Update("is_timer_running", false).Error
		if err != nil {
			return nil, err
		}
	}

	if err := s.db.Delete(&models.WorkSession{}, "id = ?", sessionID).Error; err != nil {
		return nil, err
	}

	if !session.Open() && session.DurationSeconds != nil {
		if err := s.AdjustWorkTime(session.TaskID, -*session.DurationSeconds); err != nil {
			return nil, err
		}
	}

	s.publish(feed.SessionsTopic(session.TaskID), "session_deleted")
	s.publish(feed.TaskTopic(session.TaskID), "task_updated")
	return &session, nil
}

// SessionsForTask returns the task's full ledger, most recent first.
func (s *Store) SessionsForTask(taskID uint) ([]models.WorkSession, error) {
	var sessions []models.WorkSession
	err := s.db.Where("task_id = ?", taskID).
		Order("started_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// OpenSessionForTask returns the task's open session, or nil when the task is
// not being worked on.
func (s *Store) OpenSessionForTask(taskID uint) (*models.WorkSession, error) {
	var session models.WorkSession
	err := s.db.Where("task_id = ? AND ended_at IS NULL", taskID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
