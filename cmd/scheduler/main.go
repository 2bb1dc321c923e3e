package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/academic-scheduler/internal/config"
	"github.com/example/academic-scheduler/internal/logging"
)

var (
	logger *slog.Logger
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Academic scheduler",
	Long:  "Academic scheduler manages class timetables, exam and assessment calendars with conflict detection.",
	// Usage output on every runtime error buries the actual message.
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, generateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and the process logger. Commands call it
// from RunE so that --help works without a valid environment.
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.New(os.Stdout, cfg.Production(), cfg.LogLevel)
	slog.SetDefault(logger)
	return nil
}
