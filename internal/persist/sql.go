package persist

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// Dialect selects the SQL flavour of a SQL store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQL is a KV backed by the ledger_kv table.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (and migrates) the SQLite database at path.
func OpenSQLite(path string) (*SQL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("OpenSQLite: create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("OpenSQLite: open database: %w", err)
	}
	// A single connection serializes writers.
	db.SetMaxOpenConns(1)
	return newSQL(db, DialectSQLite, path)
}

// OpenPostgres opens (and migrates) the Postgres database at dsn.
func OpenPostgres(dsn string) (*SQL, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("OpenPostgres: open database: %w", err)
	}
	return newSQL(db, DialectPostgres, dsn)
}

func newSQL(db *sql.DB, dialect Dialect, dsn string) (*SQL, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQL{db: db, dialect: dialect}, nil
}

func runMigrations(dialect Dialect, dsn string) error {
	return MigrateUp(dialect, dsn)
}

// MigrateUp applies every pending migration. An up-to-date schema is not
// an error.
func MigrateUp(dialect Dialect, dsn string) error {
	return withMigrate(dialect, dsn, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate up: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(dialect Dialect, dsn string, steps int) error {
	if steps < 1 {
		return fmt.Errorf("MigrateDown: steps must be positive, got %d", steps)
	}
	return withMigrate(dialect, dsn, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		return nil
	})
}

// MigrationVersion reports the current schema version. ok is false when
// no migration has been applied yet.
func MigrationVersion(dialect Dialect, dsn string) (version uint, dirty, ok bool, err error) {
	err = withMigrate(dialect, dsn, func(m *migrate.Migrate) error {
		v, d, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		if verr != nil {
			return fmt.Errorf("read version: %w", verr)
		}
		version, dirty, ok = v, d, true
		return nil
	})
	return version, dirty, ok, err
}

// withMigrate runs fn on a migrate instance with its own connection;
// closing the instance closes it.
func withMigrate(dialect Dialect, dsn string, fn func(*migrate.Migrate) error) error {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	var driver database.Driver
	switch dialect {
	case DialectSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case DialectPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		return fmt.Errorf("create %s driver: %w", dialect, err)
	}

	d, err := iofs.New(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, string(dialect), driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	return fn(m)
}

func (s *SQL) query(sqlite, postgres string) string {
	if s.dialect == DialectPostgres {
		return postgres
	}
	return sqlite
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	q := s.query(
		`SELECT value FROM ledger_kv WHERE name = ?`,
		`SELECT value FROM ledger_kv WHERE name = $1`,
	)
	var value []byte
	err := s.db.QueryRowContext(ctx, q, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %s: %w", key, err)
	}
	return value, nil
}

func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	q := s.query(
		`INSERT INTO ledger_kv (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		`INSERT INTO ledger_kv (name, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = now()`,
	)
	if _, err := s.db.ExecContext(ctx, q, key, string(value)); err != nil {
		return fmt.Errorf("Put: %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	q := s.query(
		`DELETE FROM ledger_kv WHERE name = ?`,
		`DELETE FROM ledger_kv WHERE name = $1`,
	)
	if _, err := s.db.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("Delete: %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ KV = (*SQL)(nil)
