package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [project-name]",
	Short: "Create a project with a default status catalog",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initDB()
		name := strings.Join(args, " ")

		project, err := store.CreateProject(name)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("📁 Created project #%d: %s\n", project.ID, project.Name)

		statuses, err := store.StatusesForProject(project.ID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Println("Statuses:")
		for _, status := range statuses {
			marker := " "
			if status.IsDefault {
				marker = "*"
			}
			fmt.Printf("  %s #%d %s (%s)\n", marker, status.ID, status.Name, status.Category)
		}
	},
}
