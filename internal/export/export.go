// Package export writes star-schema tables as one CSV file per table and
// reads them back for a separate load step.
//
// Dimension files hold a single value column; the surrogate id of a value is
// its 1-based row position. The fact file holds every job_postings column.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/data-jobs-etl/internal/tables"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

// TimestampLayout is the layout of job_posted_date in exported files.
const TimestampLayout = "2006-01-02 15:04:05"

// Dir is a directory of exported tables. It implements types.TableWriter.
type Dir struct {
	path string
}

// NewDir creates the directory if needed.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory path.
func (d *Dir) Path() string { return d.path }

// WriteTable replaces the table's export file.
func (d *Dir) WriteTable(ctx context.Context, t *types.Table) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	spec, ok := tables.Lookup(t.Name)
	if !ok {
		return 0, fmt.Errorf("unknown table %q", t.Name)
	}

	records, err := encode(spec, t)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(d.path, "."+spec.File+".*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file for %s: %w", spec.Name, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write %s: %w", spec.File, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", spec.File, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.path, spec.File)); err != nil {
		return 0, fmt.Errorf("failed to replace %s: %w", spec.File, err)
	}
	return int64(t.Len()), nil
}

// WriteAll writes every table concurrently. The files are independent so a
// failure in one does not affect the others already written.
func (d *Dir) WriteAll(ctx context.Context, ts []*types.Table) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range ts {
		t := t
		g.Go(func() error {
			_, err := d.WriteTable(ctx, t)
			return err
		})
	}
	return g.Wait()
}

func encode(spec tables.Spec, t *types.Table) ([][]string, error) {
	if spec.Kind == tables.Dimension {
		records := make([][]string, 0, t.Len()+1)
		records = append(records, []string{spec.ValueColumn()})
		for i, row := range t.Rows {
			if len(row) != 2 {
				return nil, fmt.Errorf("%s row %d: want 2 values, got %d", spec.Name, i, len(row))
			}
			if id, ok := row[0].(int); !ok || id != i+1 {
				return nil, fmt.Errorf("%s row %d: id %v is not its 1-based position", spec.Name, i, row[0])
			}
			records = append(records, []string{formatValue(row[1])})
		}
		return records, nil
	}

	records := make([][]string, 0, t.Len()+1)
	records = append(records, append([]string(nil), t.Columns...))
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, fmt.Errorf("%s row %d: want %d values, got %d", spec.Name, i, len(t.Columns), len(row))
		}
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = formatValue(v)
		}
		records = append(records, rec)
	}
	return records, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.UTC().Format(TimestampLayout)
	default:
		return fmt.Sprint(x)
	}
}
