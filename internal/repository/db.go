package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB is the shared handle the repositories run on: an ent SQL driver over
// either a pgx pool (postgres:// DSNs) or modernc SQLite (everything else).
type DB struct {
	drv    *entsql.Driver
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func (d *DB) Dialect() string { return d.drv.Dialect() }

func (d *DB) builder() *entsql.DialectBuilder { return entsql.Dialect(d.drv.Dialect()) }

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects, wraps the connection for ent and creates the schema if needed.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		d   *DB
		err error
	)
	if isPostgresDSN(cfg.DSN) {
		d, err = openPostgres(ctx, cfg, logger)
	} else {
		d, err = openSQLite(cfg, logger)
	}
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := d.Migrate(ctx); err != nil {
		d.Close()
		return nil, err
	}
	logger.Info("successfully connected to database", "dialect", d.Dialect())
	return d, nil
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", "pgx")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "tax-parser"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}
	// Wrap pool as *sql.DB for ent
	db := stdlib.OpenDBFromPool(pool)
	return &DB{drv: entsql.OpenDB(dialect.Postgres, db), pool: pool, logger: logger}, nil
}

func openSQLite(cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", "sqlite")
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// one writer; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{drv: entsql.OpenDB(dialect.SQLite, db), logger: logger}, nil
}

// Close closes the database connections gracefully.
func (d *DB) Close() {
	d.logger.Info("closing database connections")
	if err := d.drv.Close(); err != nil {
		d.logger.Error("failed to close database", "error", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
	d.logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	d.logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var err error
	if d.pool != nil {
		err = d.pool.Ping(ctx)
	} else {
		err = d.drv.DB().PingContext(ctx)
	}
	if err != nil {
		d.logger.Error("database ping failed", "error", err)
		return err
	}
	d.logger.Debug("database ping successful")
	return nil
}

// Migrate creates the tables and indexes when they do not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	ts, bigint := "DATETIME", "INTEGER"
	if d.Dialect() == dialect.Postgres {
		ts, bigint = "TIMESTAMPTZ", "BIGINT"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tax_forms (
			id            TEXT PRIMARY KEY,
			file_name     TEXT NOT NULL,
			file_path     TEXT NOT NULL UNIQUE,
			status        TEXT NOT NULL,
			error_message TEXT NULL,
			uploaded_at   ` + ts + ` NOT NULL,
			parsed_at     ` + ts + ` NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tax_fields (
			id                          TEXT PRIMARY KEY,
			tax_form_id                 TEXT NOT NULL REFERENCES tax_forms(id) ON DELETE CASCADE,
			tax_field                   TEXT NOT NULL,
			instruction_text            TEXT NOT NULL,
			instruction_matched_pattern TEXT NOT NULL,
			value_text                  TEXT NOT NULL,
			value_normalized_text       TEXT NOT NULL,
			value_in_numeric            ` + bigint + ` NOT NULL,
			value_matched_pattern       TEXT NOT NULL,
			page_number                 INTEGER NOT NULL,
			UNIQUE (tax_form_id, tax_field)
		)`,
		`CREATE INDEX IF NOT EXISTS tax_forms_status_idx ON tax_forms (status)`,
	}
	for _, s := range stmts {
		if err := d.drv.Exec(ctx, s, []any{}, nil); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// nullTime scans timestamps from either driver; SQLite may hand back text.
type nullTime struct {
	Time  time.Time
	Valid bool
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

func (n *nullTime) Scan(v any) error {
	switch t := v.(type) {
	case nil:
		n.Valid = false
		return nil
	case time.Time:
		n.Time, n.Valid = t, true
		return nil
	case []byte:
		return n.parse(string(t))
	case string:
		return n.parse(t)
	case int64:
		n.Time, n.Valid = time.Unix(t, 0).UTC(), true
		return nil
	}
	return fmt.Errorf("unsupported time value %T", v)
}

func (n *nullTime) parse(s string) error {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			n.Time, n.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("unparsable time %q", s)
}

func (n nullTime) ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
