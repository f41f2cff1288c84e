package db

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// sqliteDriverName is go-sqlite3 registered with a Unicode-aware lower(), so
// case-insensitive matching folds "Dvořák" the same on SQLite as on Postgres.
// Connections opened through it still report DriverSQLite.
const sqliteDriverName = "sqlite3_concertarchive"

// sqliteParams apply to every connection the pool opens.
const sqliteParams = "_foreign_keys=on&_busy_timeout=5000"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(c *sqlite3.SQLiteConn) error {
			return c.RegisterFunc("lower", strings.ToLower, true)
		},
	})
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteParams
	}
	return dsn + "?" + sqliteParams
}

//go:embed migrations/sqlite3/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Open connects to the store, checks it is reachable and brings the schema
// up to date.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	var conn *sqlx.DB
	if driver == DriverSQLite {
		sqlDB, err := sql.Open(sqliteDriverName, sqliteDSN(dsn))
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", driver)
		}
		conn = sqlx.NewDb(sqlDB, DriverSQLite)
		// A single connection keeps ":memory:" databases shared and
		// serializes writers the way SQLite wants.
		conn.SetMaxOpenConns(1)
	} else {
		var err error
		conn, err = sqlx.Open(driver, dsn)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", driver)
		}
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	if err := Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Migrate applies the embedded migrations for the connection's dialect.
func Migrate(ctx context.Context, conn *sqlx.DB) error {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch conn.DriverName() {
	case DriverSQLite:
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite3"
	case DriverPostgres:
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	default:
		return errors.Errorf("no migrations for driver %q", conn.DriverName())
	}
	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return errors.Wrap(err, "migrations dir")
	}
	provider, err := goose.NewProvider(dialect, conn.DB, fsys)
	if err != nil {
		return errors.Wrap(err, "goose provider")
	}
	if _, err := provider.Up(ctx); err != nil {
		return errors.Wrap(err, "apply migrations")
	}
	return nil
}
