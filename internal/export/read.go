package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonathan/data-jobs-etl/internal/dimension"
	"github.com/jonathan/data-jobs-etl/internal/source"
	"github.com/jonathan/data-jobs-etl/internal/tables"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

// ReadTable reads one exported table from dir and converts every cell to the
// Go type of its column. A missing file yields *source.MissingSourceFileError.
func ReadTable(dir string, spec tables.Spec) (*types.Table, error) {
	path := filepath.Join(dir, spec.File)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &source.MissingSourceFileError{Table: spec.Name, Path: path}
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, &source.SourceFormatError{Path: path, Message: "empty file"}
	}
	if err != nil {
		return nil, &source.SourceFormatError{Path: path, Message: "unreadable header", Cause: err}
	}

	if spec.Kind == tables.Dimension {
		return readDimension(path, spec, header, r)
	}
	return readFact(path, spec, header, r)
}

func readDimension(path string, spec tables.Spec, header []string, r *csv.Reader) (*types.Table, error) {
	if len(header) != 1 || header[0] != spec.ValueColumn() {
		return nil, &source.SourceFormatError{Path: path, Column: spec.ValueColumn(), Message: "expected a single value column"}
	}
	var values []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &source.SourceFormatError{Path: path, Row: len(values) + 1, Message: "unreadable record", Cause: err}
		}
		values = append(values, rec[0])
	}

	// Ids are row positions, so a repeated value would get two ids.
	d, err := dimension.FromValues(spec.Name, values)
	if err != nil {
		var dup *dimension.DuplicateValueError
		if errors.As(err, &dup) {
			return nil, &source.SourceFormatError{Path: path, Row: dup.SecondID, Column: spec.ValueColumn(), Value: dup.Value, Message: "duplicate value", Cause: err}
		}
		return nil, err
	}
	return d.Table(spec.IDColumn(), spec.ValueColumn()), nil
}

func readFact(path string, spec tables.Spec, header []string, r *csv.Reader) (*types.Table, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[h] = i
	}
	index := make([]int, len(spec.Columns))
	for i, c := range spec.Columns {
		p, ok := pos[c.Name]
		if !ok {
			return nil, &source.SourceFormatError{Path: path, Column: c.Name, Message: "missing column"}
		}
		index[i] = p
	}

	t := &types.Table{Name: spec.Name, Columns: spec.ColumnNames()}
	for row := 1; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, &source.SourceFormatError{Path: path, Row: row, Message: "unreadable record", Cause: err}
		}
		values := make([]any, len(spec.Columns))
		for i, c := range spec.Columns {
			raw := rec[index[i]]
			v, err := parseValue(c, raw)
			if err != nil {
				return nil, &source.SourceFormatError{Path: path, Row: row, Column: c.Name, Value: raw, Message: "invalid " + c.Type.String(), Cause: err}
			}
			values[i] = v
		}
		t.Rows = append(t.Rows, values)
	}
}

func parseValue(c tables.Column, raw string) (any, error) {
	if raw == "" && c.Nullable {
		return nil, nil
	}
	switch c.Type {
	case tables.Int:
		return strconv.Atoi(raw)
	case tables.Bool:
		return strconv.ParseBool(raw)
	case tables.Float:
		return strconv.ParseFloat(raw, 64)
	case tables.Timestamp:
		if t, err := time.Parse(TimestampLayout, raw); err == nil {
			return t, nil
		}
		return time.Parse(time.RFC3339, raw)
	default:
		return raw, nil
	}
}
