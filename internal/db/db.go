package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hamrotask/hamro/internal/feed"
	"github.com/hamrotask/hamro/internal/models"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoOpenSession   = errors.New("no open session for task")
	ErrNoStatus        = errors.New("no matching project status")
)

// Store wraps the SQLite database and the change feed the mutations publish to.
type Store struct {
	db  *gorm.DB
	bus *feed.Bus
}

// Open connects to the SQLite database at path, runs migrations, and wires the
// change feed. The parent directory is created when missing.
func Open(path string, bus *feed.Bus) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Quiet by default
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if bus == nil {
		bus = feed.NewBus()
	}
	s := &Store{db: gdb, bus: bus}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// migrate creates/updates the database schema
func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&models.Project{},
		&models.ProjectStatus{},
		&models.Task{},
		&models.WorkSession{},
		&models.Activity{},
	)
}

// Bus exposes the change feed so consumers can subscribe.
func (s *Store) Bus() *feed.Bus {
	return s.bus
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// publish emits a change event for one of a task's topics.
func (s *Store) publish(topic, kind string) {
	s.bus.Publish(feed.Event{Topic: topic, Kind: kind})
}
