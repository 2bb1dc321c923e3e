package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/academic-scheduler/internal/application"
	"github.com/example/academic-scheduler/internal/config"
	"github.com/example/academic-scheduler/internal/locks"
	"github.com/example/academic-scheduler/internal/notify"
	"github.com/example/academic-scheduler/internal/persistence/sqlite"
	"github.com/example/academic-scheduler/internal/recurrence"
)

// openStore opens the configured database and brings its schema up to date.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlite.Store, error) {
	store, err := sqlite.Open(sqlite.DefaultConfig(cfg.SQLiteDSN))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := store.Migrate(ctx, logger); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return store, nil
}

// newLocker returns a Redis-backed locker when an address is configured so
// that several replicas serialise on the same keys. A single process falls
// back to the in-memory keyed mutex.
func newLocker(ctx context.Context, cfg config.Config, logger *slog.Logger) (locks.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		return locks.NewKeyedMutex(cfg.LockWait), func() {}, nil
	}
	client, err := locks.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	locker := locks.NewRedisLocker(client, locks.RedisConfig{
		TTL:  cfg.LockTTL,
		Wait: cfg.LockWait,
	}, logger)
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", slog.Any("error", err))
		}
	}
	return locker, closeFn, nil
}

// newNotifier always records notifications in the store and additionally
// publishes them on NATS when a server URL is configured.
func newNotifier(store *sqlite.Store, cfg config.Config, logger *slog.Logger) (notify.Notifier, func(), error) {
	notifiers := notify.Multi{notify.NewStoreNotifier(store, uuid.NewString, time.Now)}
	if cfg.NATSURL == "" {
		return notifiers, func() {}, nil
	}

	natsCfg := notify.DefaultNATSConfig(cfg.NATSURL)
	natsCfg.SubjectPrefix = cfg.NATSSubjectPrefix
	conn, err := notify.Connect(natsCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}
	notifiers = append(notifiers, notify.NewNATSPublisher(conn, natsCfg.SubjectPrefix))
	closeFn := func() {
		if err := conn.Drain(); err != nil {
			logger.Warn("failed to drain nats connection", slog.Any("error", err))
		}
	}
	return notifiers, closeFn, nil
}

type services struct {
	containers *application.ContainerService
	slots      *application.SlotService
	conflicts  *application.ConflictService
	generation *application.GenerationService
	lifecycle  *application.LifecycleService
	lessons    *application.LessonService
}

func newServices(store *sqlite.Store, locker locks.Locker, notifier notify.Notifier, metrics application.Metrics, cfg config.Config, logger *slog.Logger) services {
	idGen := uuid.NewString
	now := time.Now
	return services{
		containers: application.NewContainerServiceWithLogger(store, idGen, now, logger),
		slots:      application.NewSlotServiceWithLogger(store, locker, notifier, metrics, idGen, now, logger),
		conflicts:  application.NewConflictServiceWithLogger(store, logger),
		generation: application.NewGenerationServiceWithLogger(store, locker, cfg.GeneratorPolicy, cfg.GeneratorSeed, metrics, idGen, now, logger),
		lifecycle:  application.NewLifecycleServiceWithLogger(store, notifier, metrics, now, logger),
		lessons:    application.NewLessonServiceWithLogger(store, recurrence.NewEngine(time.Local), logger),
	}
}
