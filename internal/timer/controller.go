package timer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hamrotask/hamro/internal/db"
	"github.com/hamrotask/hamro/internal/feed"
	"github.com/hamrotask/hamro/internal/models"
)

var (
	// ErrBusy rejects an action invoked while another is in flight for the
	// same controller. The second call is dropped, never queued.
	ErrBusy = errors.New("another timer action is in flight")
	// ErrNoActor rejects every action when no actor identity is configured.
	ErrNoActor = errors.New("no actor configured")
	// ErrCompleted rejects timer actions on a done or cancelled task.
	ErrCompleted = errors.New("task is completed")
	// ErrNotRunning rejects pause when no work is in progress.
	ErrNotRunning = errors.New("timer is not running")
	// ErrNotStarted rejects resume on a task that was never started.
	ErrNotStarted = errors.New("timer was never started")
	// ErrPaused rejects start on a paused task; resume continues it.
	ErrPaused = errors.New("timer is paused, resume it instead")
)

// Controller drives the timer of a single task. It is the only writer to the
// task's session ledger: every action re-reads the authoritative rows, applies
// its mutation through the store's atomic primitives, and re-derives the
// cached State. A busy flag serializes actions within one controller; racing
// writers on other devices are resolved by the store's guarded updates.
type Controller struct {
	store  *db.Store
	taskID uint
	actor  string

	mu        sync.Mutex
	state     State
	projectID uint

	busy atomic.Bool
}

// New builds a controller for one task and primes its state from a fresh read.
func New(store *db.Store, taskID uint, actor string) (*Controller, error) {
	c := &Controller{
		store:  store,
		taskID: taskID,
		actor:  actor,
	}
	if _, err := c.Refresh(); err != nil {
		return nil, err
	}
	return c, nil
}

// TaskID returns the task this controller drives.
func (c *Controller) TaskID() uint {
	return c.taskID
}

// State returns the last successfully derived timer state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Refresh re-reads the task and its ledger and re-derives the state. On a
// failed read the cached state keeps its last derived value.
func (c *Controller) Refresh() (State, error) {
	task, err := c.store.GetTask(c.taskID)
	if err != nil {
		return c.State(), err
	}
	sessions, err := c.store.SessionsForTask(c.taskID)
	if err != nil {
		return c.State(), err
	}

	st := NewState(task, sessions)

	c.mu.Lock()
	c.state = st
	c.projectID = task.ProjectID
	c.mu.Unlock()

	return st, nil
}

// Subscribe opens change-feed subscriptions for the task row and its ledger.
// Any delivered event means the state is stale and a Refresh is due.
func (c *Controller) Subscribe() (task, sessions *feed.Subscription) {
	bus := c.store.Bus()
	return bus.Subscribe(feed.TaskTopic(c.taskID)), bus.Subscribe(feed.SessionsTopic(c.taskID))
}

// begin takes the in-flight guard. The returned release must run on every
// exit path of the action.
func (c *Controller) begin() (func(), error) {
	if c.actor == "" {
		return nil, ErrNoActor
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return func() { c.busy.Store(false) }, nil
}

// Start opens the task's first-or-next work session from idle. A task already
// running is a harmless no-op; a paused task must be resumed instead. When
// the task sits on a todo (or no) status it is moved to the project's active
// status before the session opens, so running always implies active.
func (c *Controller) Start() error {
	release, err := c.begin()
	if err != nil {
		return err
	}
	defer release()

	st, err := c.Refresh()
	if err != nil {
		return err
	}
	switch st.Phase {
	case PhaseCompleted:
		return ErrCompleted
	case PhaseRunning:
		return nil
	case PhasePaused:
		return ErrPaused
	}

	// Defensive: a stale open session would violate the single-open-session
	// invariant once we insert ours.
	stale, err := c.store.OpenSessionForTask(c.taskID)
	if err != nil {
		return err
	}
	if stale != nil {
		if _, err := c.store.CloseOpenSession(c.taskID, c.actor); err != nil && !errors.Is(err, db.ErrNoOpenSession) {
			return err
		}
	}

	if st.StatusCategory == "" || st.StatusCategory == models.CategoryTodo {
		status, err := c.store.FindStatusByCategory(c.currentProjectID(), models.CategoryActive)
		if err == nil {
			if err := c.store.SetTaskStatus(c.taskID, status.ID); err != nil {
				return err
			}
		} else if !errors.Is(err, db.ErrNoStatus) {
			return err
		}
		// No active status in the catalog: start anyway, status unchanged.
	}

	now := time.Now()
	if err := c.store.SetTimerRunning(c.taskID, true); err != nil {
		return err
	}
	if _, err := c.store.OpenSession(c.taskID, c.actor, now); err != nil {
		return err
	}
	if err := c.store.MarkFirstStarted(c.taskID, now); err != nil {
		return err
	}

	c.record(models.ActionTimerStarted, "")
	_, err = c.Refresh()
	return err
}

// Pause atomically closes the open session, crediting its duration to the
// task's total work time. Pausing an already paused task is a no-op.
func (c *Controller) Pause() error {
	release, err := c.begin()
	if err != nil {
		return err
	}
	defer release()

	st, err := c.Refresh()
	if err != nil {
		return err
	}
	switch st.Phase {
	case PhaseCompleted:
		return ErrCompleted
	case PhasePaused:
		return nil
	case PhaseIdle:
		return ErrNotRunning
	}

	duration, err := c.store.CloseOpenSession(c.taskID, c.actor)
	if errors.Is(err, db.ErrNoOpenSession) {
		// Another device closed it first; converge on their result.
		_, err = c.Refresh()
		return err
	}
	if err != nil {
		return err
	}

	c.record(models.ActionTimerPaused, fmt.Sprintf("+%ds", duration))
	_, err = c.Refresh()
	return err
}

// Resume opens a new session on a paused task. The status is left alone: the
// task is presumed active, or the user intentionally parked it mid-status.
func (c *Controller) Resume() error {
	release, err := c.begin()
	if err != nil {
		return err
	}
	defer release()

	st, err := c.Refresh()
	if err != nil {
		return err
	}
	switch st.Phase {
	case PhaseCompleted:
		return ErrCompleted
	case PhaseRunning:
		return nil
	case PhaseIdle:
		return ErrNotStarted
	}

	if err := c.store.SetTimerRunning(c.taskID, true); err != nil {
		return err
	}
	if _, err := c.store.OpenSession(c.taskID, c.actor, time.Now()); err != nil {
		return err
	}

	c.record(models.ActionTimerResumed, "")
	_, err = c.Refresh()
	return err
}

// Stop closes any open session and clears the running flag without touching
// the task's status. Stopping an idle task is a no-op.
func (c *Controller) Stop() error {
	release, err := c.begin()
	if err != nil {
		return err
	}
	defer release()

	st, err := c.Refresh()
	if err != nil {
		return err
	}
	switch st.Phase {
	case PhaseCompleted:
		return ErrCompleted
	case PhaseIdle:
		return nil
	}

	if st.Phase == PhaseRunning {
		if _, err := c.store.CloseOpenSession(c.taskID, c.actor); err != nil && !errors.Is(err, db.ErrNoOpenSession) {
			return err
		}
	}
	if err := c.store.SetTimerRunning(c.taskID, false); err != nil {
		return err
	}

	c.record(models.ActionTimerStopped, "")
	_, err = c.Refresh()
	return err
}

// Complete closes any open session, then moves the task to a done status:
// the caller-supplied one when non-zero, else the project's first done-or-
// completed status. Completing an already completed task writes nothing.
func (c *Controller) Complete(completedStatusID uint) error {
	release, err := c.begin()
	if err != nil {
		return err
	}
	defer release()

	st, err := c.Refresh()
	if err != nil {
		return err
	}
	if st.Phase == PhaseCompleted {
		return nil
	}

	if st.Phase == PhaseRunning {
		if _, err := c.store.CloseOpenSession(c.taskID, c.actor); err != nil && !errors.Is(err, db.ErrNoOpenSession) {
			return err
		}
	}

	statusID := completedStatusID
	if statusID == 0 {
		status, err := c.store.FindCompletionStatus(c.currentProjectID())
		if err != nil {
			return fmt.Errorf("cannot complete task #%d: %w", c.taskID, err)
		}
		statusID = status.ID
	}
	if err := c.store.SetTaskStatus(c.taskID, statusID); err != nil {
		return err
	}

	c.record(models.ActionTaskCompleted, "")
	_, err = c.Refresh()
	return err
}

// DeleteSession removes one of the task's sessions and reverses its work-time
// contribution. Deleting the open session clears the running flag and leaves
// the total untouched.
func (c *Controller) DeleteSession(sessionID string) error {
	release, err := c.begin()
	if err != nil {
		return err
	}
	defer release()

	st, err := c.Refresh()
	if err != nil {
		return err
	}

	// Only this task's sessions are in reach of this controller.
	found := false
	for i := range st.Sessions {
		if st.Sessions[i].ID == sessionID {
			found = true
			break
		}
	}
	if !found {
		return db.ErrSessionNotFound
	}

	session, err := c.store.DeleteSession(sessionID)
	if err != nil {
		return err
	}

	detail := ""
	if session.DurationSeconds != nil {
		detail = fmt.Sprintf("-%ds", *session.DurationSeconds)
	}
	c.record(models.ActionSessionDeleted, detail)
	_, err = c.Refresh()
	return err
}

// record appends an audit entry. Audit writes never fail an action.
func (c *Controller) record(action, detail string) {
	_ = c.store.RecordActivity(c.taskID, c.actor, action, detail)
}

func (c *Controller) currentProjectID() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectID
}
