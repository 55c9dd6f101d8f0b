// Package cli implements the nutritrack command line client. It works
// directly against a local SQLite log store.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/franckalain/nutritrack/internal/database"
	"github.com/franckalain/nutritrack/internal/tracker"
	"github.com/spf13/cobra"
)

type options struct {
	dbPath string
	userID string
	tz     string
	format string
	// now overrides the clock in tests
	now func() time.Time
}

// NewRootCmd builds the top-level command with every subcommand attached
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "nutritrack",
		Short:         "Track meals, water and streaks",
		Long:          "A small CLI over the nutritrack log store. Meals and water in, dashboards and achievements out.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&o.dbPath, "db", "d", "", "Database path (default: $NUTRITRACK_DB or ~/.nutritrack/nutritrack.db)")
	root.PersistentFlags().StringVarP(&o.userID, "user", "u", "", "User id (default: $NUTRITRACK_USER or \"local\")")
	root.PersistentFlags().StringVar(&o.tz, "tz", "Local", "IANA timezone deciding today's date")
	root.PersistentFlags().StringVarP(&o.format, "format", "f", "text", "Output format: json or text")

	root.AddCommand(
		newLogMealCmd(o),
		newLogWaterCmd(o),
		newDeleteMealCmd(o),
		newDashboardCmd(o),
		newWeekCmd(o),
		newHistoryCmd(o),
		newAchievementsCmd(o),
		newProfileCmd(o),
		newTokenCmd(o),
	)
	return root
}

// Execute runs the CLI with os.Args
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "error: %v\n", err)
	}
	return err
}

func (o *options) path() string {
	if o.dbPath != "" {
		return o.dbPath
	}
	if env := os.Getenv("NUTRITRACK_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nutritrack", "nutritrack.db")
}

func (o *options) user() string {
	if o.userID != "" {
		return o.userID
	}
	if env := os.Getenv("NUTRITRACK_USER"); env != "" {
		return env
	}
	return "local"
}

// open builds a tracking service over the local store. The caller closes
// the returned DB.
func (o *options) open(cmd *cobra.Command) (*tracker.Service, database.DB, error) {
	loc, err := time.LoadLocation(o.tz)
	if err != nil {
		return nil, nil, fmt.Errorf("timezone %q: %w", o.tz, err)
	}

	db, err := database.NewSQLiteDB(o.path())
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc := tracker.New(tracker.Config{
		DB:       db,
		Location: loc,
		Now:      o.now,
		Logger:   logger,
	})
	return svc, db, nil
}

// print writes v as indented JSON, or through text when the format is text
func (o *options) print(w io.Writer, v any, text func(io.Writer)) error {
	switch o.format {
	case "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
		return nil
	case "text":
		text(w)
		return nil
	default:
		return fmt.Errorf("unknown format %q (use json or text)", o.format)
	}
}
