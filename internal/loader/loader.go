// Package loader writes star-schema tables to a sink in dependency order,
// dimensions before the fact table.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jonathan/data-jobs-etl/internal/export"
	"github.com/jonathan/data-jobs-etl/internal/tables"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

// ErrNotTransactional is returned when transactional loading is requested
// from a sink that cannot run a transaction.
var ErrNotTransactional = errors.New("sink does not support transactions")

// Options configure a load.
type Options struct {
	// Transactional wraps every table in one transaction and rolls back on
	// the first failure. Otherwise loading is best-effort: a failed table is
	// logged and the remaining tables are still attempted.
	Transactional bool
	Logger        *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// TableResult is the outcome of one table.
type TableResult struct {
	Table    string
	Rows     int64
	Duration time.Duration
	Err      error
}

// Report summarizes a load.
type Report struct {
	Transactional bool
	RolledBack    bool
	Tables        []TableResult
}

// Rows returns the number of rows that were persisted.
func (r *Report) Rows() int64 {
	if r.RolledBack {
		return 0
	}
	var n int64
	for _, t := range r.Tables {
		if t.Err == nil {
			n += t.Rows
		}
	}
	return n
}

// Failed returns the results of tables that did not load.
func (r *Report) Failed() []TableResult {
	var out []TableResult
	for _, t := range r.Tables {
		if t.Err != nil {
			out = append(out, t)
		}
	}
	return out
}

// Err combines every table failure, or returns nil.
func (r *Report) Err() error {
	var err error
	for _, t := range r.Tables {
		err = multierr.Append(err, t.Err)
	}
	return err
}

// Load writes ts to w in dependency order. Per-table failures are recorded
// in the report; the returned error is reserved for unusable input.
func Load(ctx context.Context, w types.TableWriter, ts []*types.Table, opts Options) (*Report, error) {
	ordered, err := order(ts)
	if err != nil {
		return nil, err
	}

	if !opts.Transactional {
		report := &Report{}
		for _, t := range ordered {
			report.Tables = append(report.Tables, write(ctx, w, t, opts.logger()))
		}
		return report, nil
	}

	txw, ok := w.(types.TxTableWriter)
	if !ok {
		return nil, ErrNotTransactional
	}
	return loadTx(ctx, txw, ordered, nil, opts), nil
}

// loadTx writes everything in one transaction. pending holds tables that
// already failed before writing started; any entry aborts the load.
func loadTx(ctx context.Context, w types.TxTableWriter, ts []*types.Table, pending []TableResult, opts Options) *Report {
	log := opts.logger()
	report := &Report{Transactional: true, Tables: pending}
	if len(pending) > 0 {
		report.RolledBack = true
		log.Error("load aborted before writing", zap.Int("failed_tables", len(pending)))
		return report
	}

	err := w.InTx(ctx, func(tw types.TableWriter) error {
		for _, t := range ts {
			res := write(ctx, tw, t, log)
			report.Tables = append(report.Tables, res)
			if res.Err != nil {
				return res.Err
			}
		}
		return nil
	})
	if err != nil {
		report.RolledBack = true
		// A begin or commit failure is not attached to any table.
		if len(report.Failed()) == 0 {
			report.Tables = append(report.Tables, TableResult{Err: err})
		}
		log.Error("transaction rolled back", zap.Error(err))
	}
	return report
}

func write(ctx context.Context, w types.TableWriter, t *types.Table, log *zap.Logger) TableResult {
	start := time.Now()
	n, err := w.WriteTable(ctx, t)
	res := TableResult{Table: t.Name, Rows: n, Duration: time.Since(start), Err: err}
	if err != nil {
		log.Error("table load failed", zap.String("table", t.Name), zap.Int("rows", t.Len()), zap.Error(err))
		return res
	}
	log.Info("table loaded", zap.String("table", t.Name), zap.Int64("rows", n), zap.Duration("duration", res.Duration))
	return res
}

func order(ts []*types.Table) ([]*types.Table, error) {
	out := make([]*types.Table, len(ts))
	copy(out, ts)
	for _, t := range out {
		if tables.Order(t.Name) < 0 {
			return nil, fmt.Errorf("unknown table %q", t.Name)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return tables.Order(out[i].Name) < tables.Order(out[j].Name)
	})
	return out, nil
}

// LoadDir reads every exported table from dir and loads it. A missing or
// unreadable file fails that table only in best-effort mode; in
// transactional mode it aborts the load before anything is written.
func LoadDir(ctx context.Context, w types.TableWriter, dir string, opts Options) (*Report, error) {
	log := opts.logger()

	var (
		ts     []*types.Table
		failed []TableResult
	)
	for _, spec := range tables.All() {
		t, err := export.ReadTable(dir, spec)
		if err != nil {
			log.Error("table skipped", zap.String("table", spec.Name), zap.Error(err))
			failed = append(failed, TableResult{Table: spec.Name, Err: err})
			continue
		}
		log.Debug("table read", zap.String("table", spec.Name), zap.Int("rows", t.Len()))
		ts = append(ts, t)
	}

	if opts.Transactional {
		txw, ok := w.(types.TxTableWriter)
		if !ok {
			return nil, ErrNotTransactional
		}
		return loadTx(ctx, txw, ts, failed, opts), nil
	}

	report, err := Load(ctx, w, ts, opts)
	if err != nil {
		return nil, err
	}
	report.Tables = append(report.Tables, failed...)
	sort.SliceStable(report.Tables, func(i, j int) bool {
		return tables.Order(report.Tables[i].Table) < tables.Order(report.Tables[j].Table)
	})
	return report, nil
}
