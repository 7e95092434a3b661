// Package sqlstore implements orders.Store on top of sqlx.
//
// Two dialects are supported: Postgres through the pgx stdlib driver for the service
// deployment, and SQLite through the pure Go modernc driver for the single-user desktop
// mode and the test suite. Queries are written with `?` placeholders and rebound per
// driver. Row locks (`FOR UPDATE`) are only emitted for Postgres; the SQLite handle uses a
// single connection so transactions are serialized instead.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// DB wraps the sqlx handle with the dialect it speaks.
type DB struct {
	*sqlx.DB
	dialect Dialect
}

var _ orders.Store = (*DB)(nil)

// OpenPostgres connects through pgx's database/sql driver.
func OpenPostgres(ctx context.Context, dsn string) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{DB: db, dialect: Postgres}, nil
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	dsn := "file:" + path +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// one writer at a time: every transaction owns the only connection.
	db.SetMaxOpenConns(1)
	return &DB{DB: db, dialect: SQLite}, nil
}

// Open picks the dialect from the configured driver name.
func Open(ctx context.Context, driver, postgresDSN, sqlitePath string) (*DB, error) {
	switch strings.ToLower(driver) {
	case "", "postgres", "pgx":
		return OpenPostgres(ctx, postgresDSN)
	case "sqlite":
		return OpenSQLite(ctx, sqlitePath)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}

func (db *DB) Dialect() Dialect { return db.dialect }

// InTx begins a transaction, hands it to fn and commits when fn succeeds.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context, tx orders.Tx) error) error {
	var opts *sql.TxOptions
	if db.dialect == Postgres {
		opts = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	sqlTx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(ctx, &tx{tx: sqlTx, dialect: db.dialect}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
			(liteErr.Code() == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "FOREIGN KEY"))
	}
	return false
}

// inUse turns a foreign key violation into orders.ErrInUse.
func inUse(err error, what string) error {
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w", what, orders.ErrInUse)
	}
	return err
}

func notFound(err error, target error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return target
	}
	return err
}
