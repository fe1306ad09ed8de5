// Package timer implements the work-timer core: a pure phase derivation over
// the session ledger and a controller that drives play/pause/resume/stop/
// complete transitions through the store's atomic primitives.
package timer

import (
	"time"

	"github.com/hamrotask/hamro/internal/models"
)

// Phase is the derived timer lifecycle stage of a task.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhasePaused    Phase = "paused"
	PhaseCompleted Phase = "completed"
)

// DerivePhase maps a task's session ledger and status category to its phase.
// Total over all reachable states, rules applied in order: a done/cancelled
// status wins over everything, then an open session means running, then any
// closed session means paused, otherwise idle.
func DerivePhase(sessions []models.WorkSession, category models.StatusCategory) Phase {
	if category.Terminal() {
		return PhaseCompleted
	}
	if openSession(sessions) != nil {
		return PhaseRunning
	}
	if len(sessions) > 0 {
		return PhasePaused
	}
	return PhaseIdle
}

// openSession finds the ledger's open session. At most one exists per task;
// scanning the whole slice keeps the lookup independent of ordering.
func openSession(sessions []models.WorkSession) *models.WorkSession {
	for i := range sessions {
		if sessions[i].Open() {
			return &sessions[i]
		}
	}
	return nil
}

// State is the derived timer projection of one task. It is recomputed from
// fresh reads on every refresh and is never itself the source of truth.
type State struct {
	Phase               Phase
	IsRunning           bool
	TotalWorkTime       int64
	CurrentSessionStart *time.Time
	Sessions            []models.WorkSession
	FirstStartedAt      *time.Time
	CompletedAt         *time.Time
	StatusCategory      models.StatusCategory
}

// NewState projects a task row and its ledger into a State.
func NewState(task *models.Task, sessions []models.WorkSession) State {
	category := task.StatusCategory()
	phase := DerivePhase(sessions, category)

	st := State{
		Phase:          phase,
		IsRunning:      phase == PhaseRunning,
		TotalWorkTime:  task.TotalWorkTime,
		Sessions:       sessions,
		FirstStartedAt: task.FirstStartedAt,
		CompletedAt:    task.CompletedAt,
		StatusCategory: category,
	}

	if phase == PhaseRunning {
		if open := openSession(sessions); open != nil {
			start := open.StartedAt
			st.CurrentSessionStart = &start
		}
	}

	return st
}

// Elapsed is the task's accumulated work time as of now, including the open
// session's in-progress interval while running.
func (s State) Elapsed(now time.Time) time.Duration {
	total := time.Duration(s.TotalWorkTime) * time.Second
	if s.Phase == PhaseRunning && s.CurrentSessionStart != nil {
		total += now.Sub(*s.CurrentSessionStart)
	}
	return total
}
