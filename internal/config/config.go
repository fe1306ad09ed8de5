package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the runtime settings of the timer CLI.
type Config struct {
	// DBPath is the SQLite database file location.
	DBPath string `mapstructure:"db_path"`
	// Actor identifies who opens and closes work sessions. When empty,
	// timer actions refuse to run.
	Actor string `mapstructure:"actor"`
}

// Load reads ~/.hamro/config.toml when present and applies HAMRO_* environment
// overrides on top of the defaults.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	v := viper.New()
	v.SetDefault("db_path", filepath.Join(homeDir, ".hamro", "hamro.db"))
	v.SetDefault("actor", os.Getenv("USER"))

	// A missing config file is fine; defaults and env cover it.
	cfgFile := filepath.Join(homeDir, ".hamro", "config.toml")
	if _, err := os.Stat(cfgFile); err == nil {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if actor := os.Getenv("HAMRO_ACTOR"); actor != "" {
		v.Set("actor", actor)
	}
	if dbPath := os.Getenv("HAMRO_DB_PATH"); dbPath != "" {
		v.Set("db_path", dbPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}
