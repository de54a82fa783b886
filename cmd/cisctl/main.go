// Command cisctl extracts benchmark tables from documents and produces
// remediation reports from answer files.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/cisaudit/internal/store"
)

type app struct {
	log      *slog.Logger
	verbose  bool
	format   string
	dbDriver string
	dbURL    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "cisctl",
		Short:         "Extract CIS benchmark chapters and report remediation findings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			switch a.format {
			case "yaml", "json":
			default:
				return fmt.Errorf("unknown output format %q (yaml or json)", a.format)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")
	pf.StringVarP(&a.format, "format", "o", "yaml", "output format: yaml or json")
	pf.StringVar(&a.dbDriver, "db-driver", envOr("DATABASE_DRIVER", store.DriverSQLite), "database driver: sqlite or pgx")
	pf.StringVar(&a.dbURL, "db-url", envOr("DATABASE_URL", "file:cisaudit.db"), "database connection string")

	root.AddCommand(
		newExtractCmd(a),
		newChaptersCmd(a),
		newFindingsCmd(a),
	)
	return root
}

// openStore connects to the configured database and applies the schema.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	db, err := store.Open(ctx, a.dbDriver, a.dbURL)
	if err != nil {
		return nil, err
	}
	s := store.New(db, a.dbDriver)
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	a.log.Debug("database ready", "driver", a.dbDriver)
	return s, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
