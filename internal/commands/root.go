package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hamrotask/hamro/internal/config"
	"github.com/hamrotask/hamro/internal/db"
	"github.com/hamrotask/hamro/internal/feed"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfg   *config.Config
	store *db.Store
)

var rootCmd = &cobra.Command{
	Use:   "hamro",
	Short: "Task timer for Hamro Task",
	Long: `hamro is the command-line timer for Hamro Task. Start, pause, and resume
work sessions on your tasks, and keep an auditable ledger of where your time went.`,
}

// initDB loads config, opens the database, and panics on failure
func initDB() {
	c, err := config.Load()
	if err != nil {
		panic(err)
	}
	cfg = c

	s, err := db.Open(cfg.DBPath, feed.NewBus())
	if err != nil {
		panic(err)
	}
	store = s
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hamro %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}
