// Package cli implements studyctl, a terminal front end over a local SQLite
// question store.
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"studytracker-backend/internal/database"
	"studytracker-backend/internal/logger"
	"studytracker-backend/internal/repository"
	"studytracker-backend/internal/scheduler"
	"studytracker-backend/internal/validation"
)

// NewRootCmd builds the full command tree. Each call returns a fresh tree so
// flags never leak between invocations.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studyctl",
		Short:         "Spaced practice for hard problems",
		Long:          "studyctl picks a random eligible problem, times the session and tracks how it went.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("db", "", "Path to SQLite database file (overrides STUDYTRACKER_DB env var)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Show debug logs")

	root.AddCommand(
		newAddCmd(),
		newListCmd(),
		newShowCmd(),
		newDeleteCmd(),
		newNextCmd(),
		newCompleteCmd(),
		newStudyCmd(),
		newStatsCmd(),
		newSeedCmd(),
		newResetCmd(),
	)
	return root
}

// Execute runs the CLI against the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}

type app struct {
	db        *sql.DB
	engine    *scheduler.Engine
	validator *validation.Validator
}

func (a *app) Close() error {
	return a.db.Close()
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then STUDYTRACKER_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, database.EnsureDir(p)
	}
	return database.DefaultSQLitePath()
}

// openApp opens the store and loads the engine from it.
func openApp(cmd *cobra.Command) (*app, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}

	db, err := database.OpenSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	engine := scheduler.New(
		repository.NewSQLiteQuestionRepo(db),
		scheduler.WithLogger(logger.NewCLI(cmd.ErrOrStderr(), verbose)),
	)
	if err := engine.Load(commandContext(cmd)); err != nil {
		db.Close()
		return nil, err
	}

	return &app{db: db, engine: engine, validator: validation.New()}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// withApp opens the store, runs fn and closes the store again.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(commandContext(cmd), a)
}
