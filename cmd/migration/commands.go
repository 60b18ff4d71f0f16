package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"

	"github.com/PrOLmOg/MatchMapProject/db/migrations"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
)

func newRootCmd(logger *logging.Logger) *cobra.Command {
	var (
		dbURL string
		dir   string
	)

	root := &cobra.Command{
		Use:           "migration",
		Short:         "Apply the MatchMap PostGIS schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dbURL, "db-url", os.Getenv("DB_URL"), "postgres connection URL (default $DB_URL)")
	root.PersistentFlags().StringVar(&dir, "dir", os.Getenv("MIGRATIONS_DIR"), "read migrations from this directory instead of the embedded set")

	withMigrator := func(run func(m *migrate.Migrate, args []string) error) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, args []string) error {
			m, source, err := newMigrator(dbURL, dir)
			if err != nil {
				return err
			}
			defer closeMigrator(m, logger)
			logger.Info("migrator ready", "source", source)
			return run(m, args)
		}
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(m *migrate.Migrate, _ []string) error {
			if err := ignoreNoChange(m.Up(), logger); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		}),
	})

	root.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1 step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withMigrator(func(m *migrate.Migrate, args []string) error {
			steps, err := parseSteps(args)
			if err != nil {
				return err
			}
			if err := ignoreNoChange(m.Steps(-steps), logger); err != nil {
				return err
			}
			logger.Info("migrations rolled back", "steps", steps)
			return nil
		}),
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(m *migrate.Migrate, _ []string) error {
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("version: none")
				fmt.Println("dirty: false")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read version: %w", err)
			}
			fmt.Printf("version: %d\n", version)
			fmt.Printf("dirty: %t\n", dirty)
			return nil
		}),
	})

	root.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Set the version without running migrations, clearing the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(func(m *migrate.Migrate, args []string) error {
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			if err := m.Force(version); err != nil {
				return fmt.Errorf("force version %d: %w", version, err)
			}
			logger.Info("version forced", "version", version)
			return nil
		}),
	})

	root.AddCommand(&cobra.Command{
		Use:     "goto <version>",
		Aliases: []string{"migrate"},
		Short:   "Migrate up or down to a specific version",
		Args:    cobra.ExactArgs(1),
		RunE: withMigrator(func(m *migrate.Migrate, args []string) error {
			target, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			if err := ignoreNoChange(m.Migrate(target), logger); err != nil {
				return err
			}
			logger.Info("migrated", "version", target)
			return nil
		}),
	})

	return root
}

// newMigrator prefers an explicit directory and falls back to the schema compiled into the binary.
func newMigrator(dbURL, dir string) (*migrate.Migrate, string, error) {
	dbURL = strings.TrimSpace(dbURL)
	if dbURL == "" {
		return nil, "", fmt.Errorf("DB_URL is required")
	}

	if dir = strings.TrimSpace(dir); dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, "", fmt.Errorf("resolve migrations dir: %w", err)
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return nil, "", fmt.Errorf("migrations dir %q not found", abs)
		}
		sourceURL := "file://" + filepath.ToSlash(abs)
		m, err := migrate.New(sourceURL, dbURL)
		if err != nil {
			return nil, "", fmt.Errorf("create migrator: %w", err)
		}
		return m, sourceURL, nil
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, "", fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return nil, "", fmt.Errorf("create migrator: %w", err)
	}
	return m, "embedded", nil
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}

	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}
	if value > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("version is too large for this platform")
	}

	return int(value), nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func ignoreNoChange(err error, logger *logging.Logger) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	return err
}

func closeMigrator(m *migrate.Migrate, logger *logging.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("close migration source", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("close migration db", "error", dbErr)
	}
}
