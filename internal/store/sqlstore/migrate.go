package sqlstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations
var migrationFS embed.FS

// migrationLogger routes migrate's progress output through slog.
type migrationLogger struct {
	logger *slog.Logger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrationLogger) Verbose() bool { return false }

// MigrationStatus is the schema version recorded by migrate.
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// Migrate applies every pending up migration for the store's dialect.
// A schema that is already current is not an error.
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) error {
	logger = orDefault(logger)
	return s.withMigrator(ctx, logger, func(m *migrate.Migrate) error {
		before, _, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("read version: %w", err)
		}
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("schema up to date", "driver", s.driver, "version", before)
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		after, _, _ := m.Version()
		logger.Info("schema migrated", "driver", s.driver, "from", before, "to", after)
		return nil
	})
}

// Rollback reverts every applied migration.
func (s *Store) Rollback(ctx context.Context, logger *slog.Logger) error {
	logger = orDefault(logger)
	return s.withMigrator(ctx, logger, func(m *migrate.Migrate) error {
		err := m.Down()
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		logger.Info("schema rolled back", "driver", s.driver)
		return nil
	})
}

// MigrationVersion reports the applied schema version. A database with no
// migrations applied reports version 0.
func (s *Store) MigrationVersion(ctx context.Context, logger *slog.Logger) (MigrationStatus, error) {
	var st MigrationStatus
	err := s.withMigrator(ctx, logger, func(m *migrate.Migrate) error {
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return err
		}
		st = MigrationStatus{Version: v, Dirty: dirty}
		return nil
	})
	return st, err
}

func (s *Store) withMigrator(ctx context.Context, logger *slog.Logger, fn func(*migrate.Migrate) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sub, err := fs.Sub(migrationFS, "migrations/"+s.driver)
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", s.driver, err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, closeFn, err := s.newMigrator(src)
	if err != nil {
		src.Close()
		return err
	}
	defer closeFn()
	m.Log = migrationLogger{logger: orDefault(logger)}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	return fn(m)
}

// newMigrator binds a migrate instance to the store's database. The returned
// close func releases only what newMigrator opened.
func (s *Store) newMigrator(src source.Driver) (*migrate.Migrate, func(), error) {
	switch s.driver {
	case DriverPostgres:
		// A dedicated handle: the migrate driver closes it along with itself.
		conn := stdlib.OpenDB(*s.pool.Config().ConnConfig)
		drv, err := migratepgx.WithInstance(conn, &migratepgx.Config{MultiStatementEnabled: true})
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("migrate driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, "pgx5", drv)
		if err != nil {
			drv.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return m, func() { m.Close() }, nil

	case DriverSQLite:
		drv, err := migratesqlite.WithInstance(s.db.DB, &migratesqlite.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("migrate driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
		if err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		// m.Close would close the shared handle.
		return m, func() { src.Close() }, nil
	}
	return nil, nil, fmt.Errorf("migrations unsupported for driver %q", s.driver)
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
