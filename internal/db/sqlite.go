package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jonathan/data-jobs-etl/internal/tables"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

// SQLite is a file-backed sink with foreign keys enforced.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer; also keeps pragma state on a single connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// EnsureSchema creates any missing table of the star schema.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	for _, stmt := range tables.Schema(tables.SQLite) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops every star-schema table, fact table first.
func (s *SQLite) DropSchema(ctx context.Context) error {
	for _, stmt := range dropStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}
	return nil
}

// WriteTable inserts every row of t in its own transaction, so a rejected
// table leaves nothing behind.
func (s *SQLite) WriteTable(ctx context.Context, t *types.Table) (int64, error) {
	var n int64
	err := s.InTx(ctx, func(w types.TableWriter) error {
		var err error
		n, err = w.WriteTable(ctx, t)
		return err
	})
	return n, err
}

// InTx runs fn with a writer bound to one transaction and commits if fn
// succeeds.
func (s *SQLite) InTx(ctx context.Context, fn func(w types.TableWriter) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&sqliteTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Count returns the number of rows in a table.
func (s *SQLite) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tables.QuoteIdent(table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (w *sqliteTx) WriteTable(ctx context.Context, t *types.Table) (int64, error) {
	stmt, err := w.tx.PrepareContext(ctx, insertStatement(t))
	if err != nil {
		return 0, &SinkWriteError{Table: t.Name, Rows: t.Len(), Cause: err}
	}
	defer stmt.Close()

	var n int64
	for _, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return n, &SinkWriteError{Table: t.Name, Rows: t.Len(), Cause: err}
		}
		n++
	}
	return n, nil
}

func insertStatement(t *types.Table) string {
	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = tables.QuoteIdent(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tables.QuoteIdent(t.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))
}
