package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hamrotask/hamro/internal/feed"
	"github.com/hamrotask/hamro/internal/timer"
)

// WatchModel is the live timer view for one task. It re-derives its state
// from the controller on every clock tick, after every local action, and
// whenever the change feed reports that another process touched the task.
type WatchModel struct {
	width  int
	height int

	controller *timer.Controller
	state      timer.State
	spin       spinner.Model

	taskSub     *feed.Subscription
	sessionsSub *feed.Subscription

	notice   string
	quitting bool
}

// clockTickMsg advances the elapsed display every second
type clockTickMsg struct{}

// changeMsg reports a change-feed delivery for one subscription
type changeMsg struct {
	sub *feed.Subscription
}

// actionDoneMsg reports the outcome of a controller action
type actionDoneMsg struct {
	err error
}

// NewWatchModel creates the watch view bound to a task's controller.
func NewWatchModel(c *timer.Controller) WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))

	taskSub, sessionsSub := c.Subscribe()

	return WatchModel{
		controller:  c,
		state:       c.State(),
		spin:        sp,
		taskSub:     taskSub,
		sessionsSub: sessionsSub,
	}
}

// Init starts the clock, the spinner, and the change-feed listeners.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(
		clockTick(),
		m.spin.Tick,
		waitForChange(m.taskSub),
		waitForChange(m.sessionsSub),
	)
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return clockTickMsg{}
	})
}

// waitForChange blocks on one subscription's delivery channel.
func waitForChange(sub *feed.Subscription) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-sub.Events(); !ok {
			return nil
		}
		return changeMsg{sub: sub}
	}
}

// action runs a controller action off the UI loop.
func action(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: fn()}
	}
}

// Update handles messages
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clockTickMsg:
		if m.quitting {
			return m, nil
		}
		// The change feed only reaches subscribers in this process; poll
		// the store each tick so another process's actions surface too.
		if st, err := m.controller.Refresh(); err == nil {
			m.state = st
		}
		return m, clockTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case changeMsg:
		// Invalidate and refresh; a failed read keeps the last state.
		if st, err := m.controller.Refresh(); err == nil {
			m.state = st
		}
		return m, waitForChange(msg.sub)

	case actionDoneMsg:
		m.state = m.controller.State()
		m.notice = ""
		if msg.err != nil && !errors.Is(msg.err, timer.ErrBusy) {
			m.notice = msg.err.Error()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case " ", "space":
			switch m.state.Phase {
			case timer.PhaseRunning:
				return m, action(m.controller.Pause)
			case timer.PhasePaused:
				return m, action(m.controller.Resume)
			case timer.PhaseIdle:
				return m, action(m.controller.Start)
			}
			return m, nil
		case "s", "S":
			return m, action(m.controller.Stop)
		case "c", "C":
			return m, action(func() error { return m.controller.Complete(0) })
		case "ctrl+c", "esc", "q":
			m.quitting = true
			m.taskSub.Cancel()
			m.sessionsSub.Cancel()
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the watch view
func (m WatchModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := m.renderHelpBar()
	contentHeight := m.height - 2

	var components []string

	components = append(components, m.renderHeader())
	components = append(components, m.renderClock())
	components = append(components, m.renderDetails())

	if m.notice != "" {
		noticeStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError)).
			Align(lipgloss.Center).
			Width(m.width)
		components = append(components, noticeStyle.Render(m.notice))
	}

	content := strings.Join(components, "\n\n")
	panel := lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, panel, helpBar)
}

// renderHeader shows the task id and current phase
func (m WatchModel) renderHeader() string {
	phaseColor := ColorSecondaryText
	label := strings.ToUpper(string(m.state.Phase))

	switch m.state.Phase {
	case timer.PhaseRunning:
		phaseColor = ColorAccentBright
		label = m.spin.View() + " " + label
	case timer.PhasePaused:
		phaseColor = ColorWarning
	case timer.PhaseCompleted:
		phaseColor = ColorSuccess
	}

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(phaseColor)).
		Bold(true).
		Align(lipgloss.Center).
		Width(m.width)

	return headerStyle.Render(fmt.Sprintf("Task #%d  ·  %s", m.controller.TaskID(), label))
}

// renderClock renders the accumulated work time as a big ASCII clock
func (m WatchModel) renderClock() string {
	elapsed := m.state.Elapsed(time.Now())

	clockColor := ColorDisabledText
	if m.state.Phase == timer.PhaseRunning {
		clockColor = ColorAccentBright
	}

	clock := renderBigClock(elapsed, clockColor)
	var out strings.Builder
	for _, line := range strings.Split(clock, "\n") {
		out.WriteString(lipgloss.NewStyle().
			Align(lipgloss.Center).
			Width(m.width).
			Render(line))
		out.WriteString("\n")
	}
	return strings.TrimRight(out.String(), "\n")
}

// renderDetails shows session and lifecycle timestamps
func (m WatchModel) renderDetails() string {
	detailStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width)

	var lines []string
	if m.state.CurrentSessionStart != nil {
		lines = append(lines, fmt.Sprintf("Session since %s", m.state.CurrentSessionStart.Format("15:04:05")))
	}
	if m.state.FirstStartedAt != nil {
		lines = append(lines, fmt.Sprintf("First started %s", m.state.FirstStartedAt.Format("Jan 02, 15:04")))
	}
	if m.state.CompletedAt != nil {
		lines = append(lines, fmt.Sprintf("Completed %s", m.state.CompletedAt.Format("Jan 02, 15:04")))
	}
	lines = append(lines, fmt.Sprintf("%d session(s) on record", len(m.state.Sessions)))

	return detailStyle.Render(strings.Join(lines, "\n"))
}

// renderHelpBar renders the phase-aware help bar at the bottom
func (m WatchModel) renderHelpBar() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width)

	var helpText string
	switch m.state.Phase {
	case timer.PhaseRunning:
		helpText = "space pause · s stop · c complete · q exit (keep running)"
	case timer.PhasePaused:
		helpText = "space resume · s stop · c complete · q exit"
	case timer.PhaseIdle:
		helpText = "space start · c complete · q exit"
	default:
		helpText = "q exit"
	}

	return helpStyle.Render(helpText)
}

// RunWatch runs the watch view for a task's controller.
func RunWatch(c *timer.Controller) error {
	model := NewWatchModel(c)

	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	final := finalModel.(WatchModel)
	st := final.state
	switch st.Phase {
	case timer.PhaseRunning:
		fmt.Printf("💡 Timer is still running for task #%d.\n", c.TaskID())
		fmt.Printf("   Use 'hamro pause %d' or 'hamro stop %d' when you step away.\n", c.TaskID(), c.TaskID())
	case timer.PhaseCompleted:
		fmt.Printf("✅ Task #%d completed. Total time worked: %s\n", c.TaskID(), formatDuration(st.Elapsed(time.Now())))
	default:
		fmt.Printf("⏹️  Task #%d is %s. Total time worked: %s\n", c.TaskID(), st.Phase, formatDuration(st.Elapsed(time.Now())))
	}

	return nil
}

// formatDuration formats a duration in a human-readable way (copied from list.go)
func formatDuration(d time.Duration) string {
	if d.Hours() >= 1 {
		return fmt.Sprintf("%.1fh", d.Hours())
	} else if d.Minutes() >= 1 {
		return fmt.Sprintf("%.0fm", d.Minutes())
	} else {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
}
