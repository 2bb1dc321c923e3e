package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/academic-scheduler/internal/persistence"
	"github.com/example/academic-scheduler/internal/scheduler"
)

// Store implements the persistence repositories on SQLite. A Store bound to
// a transaction is handed to Atomic callbacks; the root Store runs
// statements directly on the pool.
type Store struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
	inTx   bool
}

var (
	_ persistence.Store                  = (*Store)(nil)
	_ persistence.ScheduleStore          = (*Store)(nil)
	_ persistence.CatalogRepository      = (*Store)(nil)
	_ persistence.NotificationRepository = (*Store)(nil)
)

// Open connects to the database described by cfg.
func Open(cfg Config) (*Store, error) {
	pool, err := NewConnectionPool(cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}

// NewStore wraps an existing pool.
func NewStore(pool *ConnectionPool) *Store {
	return &Store{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies all pending schema migrations.
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) error {
	migrator, err := s.Migrator(logger)
	if err != nil {
		return err
	}
	return migrator.Up(ctx)
}

// Migrator exposes the schema migrator for the underlying database.
func (s *Store) Migrator(logger *slog.Logger) (*Migrator, error) {
	return NewMigrator(s.pool, logger)
}

// Atomic runs fn inside one transaction. Nested calls reuse the open
// transaction. Busy errors retry the whole unit, so fn must not keep state
// across attempts.
func (s *Store) Atomic(ctx context.Context, fn func(tx persistence.ScheduleStore) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			return fn(s.bind(tx))
		})
	})
}

func (s *Store) bind(tx *sql.Tx) *Store {
	return &Store{
		pool:   s.pool,
		helper: s.helper.withTx(tx),
		mapper: s.mapper,
		retry:  s.retry,
		inTx:   true,
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(column, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return t, nil
}

func nullDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(scheduler.DateLayout), Valid: true}
}

func parseNullDate(column string, value sql.NullString) (time.Time, error) {
	if !value.Valid || value.String == "" {
		return time.Time{}, nil
	}
	t, err := scheduler.ParseDate(value.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
