package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamrotask/hamro/internal/timer"
	"github.com/hamrotask/hamro/internal/tui"
)

// newController parses the task-id argument and builds its timer controller.
func newController(arg string) (*timer.Controller, error) {
	taskID, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid task ID '%s'", arg)
	}
	return timer.New(store, uint(taskID), cfg.Actor)
}

var startCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Start tracking time on a task",
	Long: `Start tracking time on a task. Opens the live timer view by default,
use --no-ui for a plain start.

Examples:
  hamro start 42        # Start timer with live view
  hamro start 42 --no-ui # Start timer and return to the shell`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		c, err := newController(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := c.Start(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		if noUI {
			st := c.State()
			fmt.Printf("⏱️  Started tracking time on task #%d\n", c.TaskID())
			if st.CurrentSessionStart != nil {
				fmt.Printf("Started at: %s\n", st.CurrentSessionStart.Format("15:04:05"))
			}
			return
		}

		if err := tui.RunWatch(c); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause [task-id]",
	Short: "Pause the task's timer, banking the session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		c, err := newController(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := c.Pause(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		st := c.State()
		fmt.Printf("⏸️  Paused task #%d\n", c.TaskID())
		fmt.Printf("Total time worked: %s\n", formatDuration(time.Duration(st.TotalWorkTime)*time.Second))
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume [task-id]",
	Short: "Resume a paused task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		c, err := newController(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := c.Resume(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("▶️  Resumed task #%d\n", c.TaskID())
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop [task-id]",
	Short: "Stop tracking time on a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		c, err := newController(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := c.Stop(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		st := c.State()
		fmt.Printf("⏹️  Stopped tracking time on task #%d\n", c.TaskID())
		fmt.Printf("Total time worked: %s\n", formatDuration(time.Duration(st.TotalWorkTime)*time.Second))
	},
}

var completeStatusID uint

var completeCmd = &cobra.Command{
	Use:   "complete [task-id]",
	Short: "Complete a task, closing any running session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		c, err := newController(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := c.Complete(completeStatusID); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		st := c.State()
		fmt.Printf("✅ Completed task #%d\n", c.TaskID())
		fmt.Printf("Total time worked: %s\n", formatDuration(time.Duration(st.TotalWorkTime)*time.Second))
		if st.CompletedAt != nil {
			fmt.Printf("Completed at: %s\n", st.CompletedAt.Format("15:04:05"))
		}
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Show a task's timer state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		c, err := newController(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		st := c.State()
		fmt.Printf("Task #%d — %s\n", c.TaskID(), st.Phase)
		fmt.Printf("Total time worked: %s\n", formatDuration(st.Elapsed(time.Now())))
		if st.CurrentSessionStart != nil {
			fmt.Printf("Current session since: %s\n", st.CurrentSessionStart.Format("15:04:05"))
		}
		if st.FirstStartedAt != nil {
			fmt.Printf("First started: %s\n", st.FirstStartedAt.Format("Jan 02, 2006 15:04"))
		}
		if st.CompletedAt != nil {
			fmt.Printf("Completed: %s\n", st.CompletedAt.Format("Jan 02, 2006 15:04"))
		}
	},
}

func init() {
	startCmd.Flags().Bool("no-ui", false, "Start without the live timer view")
	completeCmd.Flags().UintVar(&completeStatusID, "status-id", 0, "Status to complete the task into (default: project's done status)")
}
