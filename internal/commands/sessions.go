package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamrotask/hamro/internal/tui"
)

var (
	sessionsDelete  string
	sessionsShowLog bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions [task-id]",
	Short: "List a task's work sessions",
	Long: `List a task's work sessions, newest first.

Examples:
  hamro sessions 42                   # List the ledger
  hamro sessions 42 --log             # Include the activity log
  hamro sessions 42 --delete <id>     # Delete a session, reversing its time`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		c, err := newController(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if sessionsDelete != "" {
			if err := c.DeleteSession(sessionsDelete); err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			st := c.State()
			fmt.Printf("🗑️  Deleted session %s\n", sessionsDelete)
			fmt.Printf("Total time worked: %s\n", formatDuration(time.Duration(st.TotalWorkTime)*time.Second))
			return
		}

		st := c.State()
		if len(st.Sessions) == 0 {
			fmt.Printf("No sessions for task #%d\n", c.TaskID())
		}
		for _, session := range st.Sessions {
			if session.Open() {
				fmt.Printf("%s  %s → (running)\n",
					session.ID, session.StartedAt.Format("Jan 02 15:04:05"))
				continue
			}
			duration := time.Duration(0)
			if session.DurationSeconds != nil {
				duration = time.Duration(*session.DurationSeconds) * time.Second
			}
			fmt.Printf("%s  %s → %s  %s\n",
				session.ID,
				session.StartedAt.Format("Jan 02 15:04:05"),
				session.EndedAt.Format("15:04:05"),
				formatDuration(duration))
		}

		if sessionsShowLog {
			activities, err := store.ActivitiesForTask(c.TaskID())
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			fmt.Println("\nActivity:")
			for _, activity := range activities {
				detail := ""
				if activity.Detail != "" {
					detail = " " + activity.Detail
				}
				fmt.Printf("  %s  %s by %s%s\n",
					activity.CreatedAt.Format("Jan 02 15:04:05"),
					activity.Action, activity.UserID, detail)
			}
		}
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [task-id]",
	Short: "Open the live timer view for a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		c, err := newController(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := tui.RunWatch(c); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	},
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsDelete, "delete", "", "Delete a session by id")
	sessionsCmd.Flags().BoolVar(&sessionsShowLog, "log", false, "Show the task's activity log")
}
