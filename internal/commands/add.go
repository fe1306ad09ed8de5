package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var addProjectID uint

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task to a project",
	Long: `Add a task to a project. The task lands on the project's default status.

Examples:
  hamro add Fix login redirect --project 1
  hamro add "Write release notes"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		title := strings.Join(args, " ")

		task, err := store.CreateTask(addProjectID, title)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Added task #%d: %s\n", task.ID, task.Title)
	},
}

func init() {
	addCmd.Flags().UintVar(&addProjectID, "project", 1, "Project to add the task to")
}
