package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/academic-scheduler/internal/persistence/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
	Long:  "Apply every pending migration, or roll back with --down-to. --status only reports the current version.",
	RunE:  runMigrate,
}

var (
	migrateDownTo int64
	migrateStatus bool
)

func init() {
	migrateCmd.Flags().Int64Var(&migrateDownTo, "down-to", -1, "roll back to this schema version")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print the current schema version and exit")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	store, err := sqlite.Open(sqlite.DefaultConfig(cfg.SQLiteDSN))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	migrator, err := store.Migrator(logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	switch {
	case migrateStatus:
	case migrateDownTo >= 0:
		if err := migrator.DownTo(ctx, migrateDownTo); err != nil {
			return err
		}
	default:
		if err := migrator.Up(ctx); err != nil {
			return err
		}
	}

	version, err := migrator.Version(ctx)
	if err != nil {
		return err
	}
	logger.Info("schema version", slog.Int64("version", version))
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return nil
}
