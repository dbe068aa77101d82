// Package sqlite persists the booking ledgers in SQLite through modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/barbershop-booking/internal/persistence"
)

// Store implements persistence.Store on top of a single-connection pool.
type Store struct {
	pool *ConnectionPool
	now  func() time.Time
}

var _ persistence.Store = (*Store)(nil)

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open connects to the database and applies pending migrations.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	pool, err := NewConnectionPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := &Store{pool: pool, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.pool.Close()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Hour tokens never contain commas, so a joined column round-trips.
func encodeHours(hours []string) string {
	return strings.Join(hours, ",")
}

func decodeHours(value string) []string {
	if value == "" {
		return []string{}
	}
	return strings.Split(value, ",")
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func nextID(ctx context.Context, q queryer, table string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM `+table).Scan(&id)
	return id, err
}
