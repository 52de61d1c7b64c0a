// Package sqlstore is the optional SQL mirror of pkg/txstore named in
// SPEC_FULL.md's domain stack: a queryable, durable copy of the relay
// transaction history for operational dashboards, built the same way the
// teacher's database client is (embedded migrations, lib/pq driver,
// connection-pool configuration).
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/gear-tech/gear-bridges-sub000/pkg/txstore"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Client mirrors txstore.Record writes into a Postgres table for
// queryable operational history; the JSON file in pkg/txstore remains
// the authoritative resume source.
type Client struct {
	db     *sql.DB
	logger *log.Logger
}

// Config configures the SQL connection pool.
type Config struct {
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// ClientOption is a functional option for configuring the client.
type ClientOption func(*Client)

// WithLogger sets a custom logger for the client.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient opens a pooled connection and verifies it with a ping.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("sqlstore: database URL cannot be empty")
	}

	c := &Client{logger: log.New(log.Writer(), "[TxStoreSQL] ", log.LstdFlags)}
	for _, opt := range opts {
		opt(c)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping database: %w", err)
	}

	c.db = db
	return c, nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error { return c.db.Close() }

// Migrate applies every embedded migration file in lexical order,
// tracking applied migrations in a schema_migrations table.
func (c *Client) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("sqlstore: create schema_migrations: %w", err)
	}

	entries, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("sqlstore: glob migrations: %w", err)
	}
	sort.Strings(entries)

	for _, path := range entries {
		version := strings.TrimSuffix(strings.TrimPrefix(path, "migrations/"), ".sql")

		var exists bool
		if err := c.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists); err != nil {
			return fmt.Errorf("sqlstore: check migration %s: %w", version, err)
		}
		if exists {
			continue
		}

		raw, err := migrationsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("sqlstore: read migration %s: %w", path, err)
		}

		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("sqlstore: begin migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, string(raw)); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlstore: apply migration %s: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlstore: record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("sqlstore: commit migration %s: %w", version, err)
		}
		if c.logger != nil {
			c.logger.Printf("applied migration %s", version)
		}
	}
	return nil
}

// RecordTransaction upserts a mirrored copy of a txstore.Record.
func (c *Client) RecordTransaction(ctx context.Context, r *txstore.Record) error {
	_, err := c.db.ExecContext(ctx, `INSERT INTO relay_transactions
		(id, kind, block_number, status, tx_hash, attempts, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			tx_hash = EXCLUDED.tx_hash,
			attempts = EXCLUDED.attempts,
			last_error = EXCLUDED.last_error,
			updated_at = EXCLUDED.updated_at`,
		r.ID, string(r.Kind), r.BlockNumber, string(r.Status), r.TxHash[:], r.Attempts, r.LastError, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlstore: record transaction %s: %w", r.ID, err)
	}
	return nil
}
