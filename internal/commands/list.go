package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with their timer state",
	Run: func(cmd *cobra.Command, args []string) {
		initDB()

		tasks, err := store.GetTasks()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks yet. Add one with 'hamro add'.")
			return
		}

		for _, task := range tasks {
			statusName := "none"
			if task.Status != nil {
				statusName = task.Status.Name
			}

			indicator := " "
			if task.IsTimerRunning {
				indicator = "⏱"
			}

			worked := formatDuration(time.Duration(task.TotalWorkTime) * time.Second)
			fmt.Printf("%s #%-4d %-40s %-12s %s\n", indicator, task.ID, task.Title, statusName, worked)
		}
	},
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d.Hours() >= 1 {
		return fmt.Sprintf("%.1fh", d.Hours())
	} else if d.Minutes() >= 1 {
		return fmt.Sprintf("%.0fm", d.Minutes())
	} else {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
}
