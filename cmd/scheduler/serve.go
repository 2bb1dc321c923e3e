package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httptransport "github.com/example/academic-scheduler/internal/http"
	"github.com/example/academic-scheduler/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Open the database, apply migrations and serve the scheduling API until interrupted.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", slog.Any("error", cerr))
		}
	}()

	locker, closeLocker, err := newLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	notifier, closeNotifier, err := newNotifier(store, cfg, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	metrics := telemetry.New()
	svc := newServices(store, locker, notifier, metrics, cfg, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Containers: httptransport.NewContainerHandler(svc.containers, svc.lifecycle, logger),
		Slots:      httptransport.NewSlotHandler(svc.slots, svc.conflicts, logger),
		Timetables: httptransport.NewTimetableHandler(svc.generation, svc.containers, svc.lessons, logger),
		Metrics:    metrics.Handler(),
		Instrument: metrics.Middleware,
		Logger:     logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			slog.Int("port", cfg.HTTPPort),
			slog.String("env", cfg.Env),
			slog.Bool("redis_locks", cfg.RedisAddr != ""),
			slog.Bool("nats", cfg.NATSURL != ""),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
