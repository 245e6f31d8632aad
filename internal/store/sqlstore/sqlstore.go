// Package sqlstore is the SQL Record Store. It compiles query pipelines into a
// single statement per request with go-sqlbuilder and runs them through sqlx,
// on Postgres (pgx) or SQLite (modernc).
//
// Game dates are stored as unix seconds so that range filters compare the
// same way in both dialects. Referential integrity is not enforced by the
// schema; ingestion order provides it.
package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/albapepper/hoopstats/internal/listener"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store is a Record Store over a SQL database.
type Store struct {
	db     *sqlx.DB
	flavor sqlbuilder.Flavor
	driver string
	pool   *pgxpool.Pool
}

// NewPostgres wraps an open pgx pool. The pool stays owned by the caller.
func NewPostgres(pool *pgxpool.Pool) *Store {
	return &Store{
		db:     sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"),
		flavor: sqlbuilder.PostgreSQL,
		driver: DriverPostgres,
		pool:   pool,
	}
}

// OpenSQLite opens (or creates) the SQLite database at path. ":memory:" gives
// a private in-memory database.
func OpenSQLite(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; also keeps a :memory: database on a single connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{db: db, flavor: sqlbuilder.SQLite, driver: DriverSQLite}, nil
}

// Driver names the backend.
func (s *Store) Driver() string { return s.driver }

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle. A Postgres pool passed to NewPostgres
// must still be closed by its owner.
func (s *Store) Close() error {
	return s.db.Close()
}

// NotifyIngested publishes a batch summary on listener.Channel. It is a no-op on
// SQLite, which has no LISTEN/NOTIFY.
func (s *Store) NotifyIngested(ctx context.Context, inserted int) error {
	if s.driver != DriverPostgres {
		return nil
	}
	payload, err := json.Marshal(listener.IngestEvent{
		Inserted:  inserted,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", listener.Channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", listener.Channel, err)
	}
	return nil
}

// Analyze refreshes planner statistics.
func (s *Store) Analyze(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return nil
}
