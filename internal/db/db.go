// Package db persists star-schema tables to PostgreSQL or SQLite.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/data-jobs-etl/internal/tables"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

// EnsureSchema creates any missing table of the star schema
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range tables.Schema(tables.Postgres) {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops every star-schema table, fact table first
func (db *DB) DropSchema(ctx context.Context) error {
	for _, stmt := range dropStatements() {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}
	return nil
}

// WriteTable bulk-loads a table with COPY. A single COPY is atomic, so a
// rejected table leaves nothing behind.
func (db *DB) WriteTable(ctx context.Context, t *types.Table) (int64, error) {
	return copyTable(ctx, db.pool, t)
}

// InTx runs fn with a writer bound to one transaction and commits if fn
// succeeds.
func (db *DB) InTx(ctx context.Context, fn func(w types.TableWriter) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&pgTx{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Count returns the number of rows in a table
func (db *DB) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+tables.QuoteIdent(table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

type pgTx struct {
	tx pgx.Tx
}

func (w *pgTx) WriteTable(ctx context.Context, t *types.Table) (int64, error) {
	return copyTable(ctx, w.tx, t)
}

// copier is satisfied by both *pgxpool.Pool and pgx.Tx.
type copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

func copyTable(ctx context.Context, c copier, t *types.Table) (int64, error) {
	n, err := c.CopyFrom(ctx, pgx.Identifier{t.Name}, t.Columns, pgx.CopyFromRows(t.Rows))
	if err != nil {
		return n, &SinkWriteError{Table: t.Name, Rows: t.Len(), Cause: err}
	}
	return n, nil
}

func dropStatements() []string {
	all := tables.All()
	stmts := make([]string, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		stmts = append(stmts, "DROP TABLE IF EXISTS "+tables.QuoteIdent(all[i].Name))
	}
	return stmts
}
