package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hamrotask/hamro/internal/models"
)

func closedSession(start time.Time, seconds int64) models.WorkSession {
	end := start.Add(time.Duration(seconds) * time.Second)
	return models.WorkSession{
		ID:              "closed",
		StartedAt:       start,
		EndedAt:         &end,
		DurationSeconds: &seconds,
	}
}

func openSessionAt(start time.Time) models.WorkSession {
	return models.WorkSession{ID: "open", StartedAt: start}
}

func TestDerivePhase(t *testing.T) {
	now := time.Now()
	open := openSessionAt(now)
	closed := closedSession(now.Add(-10*time.Minute), 60)

	tests := []struct {
		name     string
		sessions []models.WorkSession
		category models.StatusCategory
		want     Phase
	}{
		{"no sessions, no status", nil, "", PhaseIdle},
		{"no sessions, todo", nil, models.CategoryTodo, PhaseIdle},
		{"no sessions, active", nil, models.CategoryActive, PhaseIdle},
		{"open session, active", []models.WorkSession{open}, models.CategoryActive, PhaseRunning},
		{"open session, todo", []models.WorkSession{open}, models.CategoryTodo, PhaseRunning},
		{"open after closed", []models.WorkSession{open, closed}, models.CategoryActive, PhaseRunning},
		{"all closed", []models.WorkSession{closed}, models.CategoryActive, PhasePaused},
		{"all closed, todo", []models.WorkSession{closed}, models.CategoryTodo, PhasePaused},
		{"done wins over open session", []models.WorkSession{open}, models.CategoryDone, PhaseCompleted},
		{"cancelled wins over closed", []models.WorkSession{closed}, models.CategoryCancelled, PhaseCompleted},
		{"done with no sessions", nil, models.CategoryDone, PhaseCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DerivePhase(tt.sessions, tt.category)
			assert.Equal(t, tt.want, got)
			// Deterministic: same input, same phase.
			assert.Equal(t, got, DerivePhase(tt.sessions, tt.category))
		})
	}
}

func TestNewStateProjectsOpenSession(t *testing.T) {
	start := time.Now().Add(-30 * time.Second)
	task := &models.Task{
		TotalWorkTime: 120,
		Status:        &models.ProjectStatus{Category: models.CategoryActive},
	}
	sessions := []models.WorkSession{openSessionAt(start)}

	st := NewState(task, sessions)

	assert.Equal(t, PhaseRunning, st.Phase)
	assert.True(t, st.IsRunning)
	if assert.NotNil(t, st.CurrentSessionStart) {
		assert.Equal(t, start, *st.CurrentSessionStart)
	}
	assert.Equal(t, int64(120), st.TotalWorkTime)
	assert.Equal(t, models.CategoryActive, st.StatusCategory)
}

func TestNewStateWithoutOpenSession(t *testing.T) {
	task := &models.Task{
		TotalWorkTime: 60,
		Status:        &models.ProjectStatus{Category: models.CategoryActive},
	}
	sessions := []models.WorkSession{closedSession(time.Now().Add(-time.Hour), 60)}

	st := NewState(task, sessions)

	assert.Equal(t, PhasePaused, st.Phase)
	assert.False(t, st.IsRunning)
	assert.Nil(t, st.CurrentSessionStart)
}

func TestElapsedIncludesOpenInterval(t *testing.T) {
	start := time.Now().Add(-40 * time.Second)
	task := &models.Task{
		TotalWorkTime: 100,
		Status:        &models.ProjectStatus{Category: models.CategoryActive},
	}

	running := NewState(task, []models.WorkSession{openSessionAt(start)})
	elapsed := running.Elapsed(start.Add(40 * time.Second))
	assert.Equal(t, 140*time.Second, elapsed)

	paused := NewState(task, []models.WorkSession{closedSession(start, 40)})
	assert.Equal(t, 100*time.Second, paused.Elapsed(time.Now()))
}
