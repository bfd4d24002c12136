package db

import (
	"context"
	"fmt"

	"github.com/jonathan/data-jobs-etl/internal/types"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store is a transactional table sink that manages its own schema.
type Store interface {
	types.TxTableWriter
	EnsureSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error
	Count(ctx context.Context, table string) (int64, error)
	Close() error
}

// Open connects to the store selected by driver. For postgres dsn is a
// connection URL, for sqlite a file path.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverPostgres, "":
		db, err := Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}
