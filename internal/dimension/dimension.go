// Package dimension builds dimension tables (dense 1-based surrogate ids over
// sorted canonical values) and resolves fact values to those ids.
package dimension

import (
	"sort"

	"github.com/jonathan/data-jobs-etl/internal/types"
)

// Dimension is an immutable mapping between surrogate ids 1..N and canonical
// values. Ids follow ascending byte-wise order of the values.
type Dimension struct {
	name   string
	values []string // values[id-1]
	ids    map[string]int
}

// Normalizer maps a raw value to its canonical form.
type Normalizer func(string) string

// Extract applies normalize (when non-nil) to every value, maps empty
// results to the NULL sentinel, deduplicates and assigns ids in sorted order.
func Extract(name string, values []string, normalize Normalizer) *Dimension {
	seen := make(map[string]struct{}, len(values))
	distinct := make([]string, 0, len(values))
	for _, v := range values {
		if normalize != nil {
			v = normalize(v)
		}
		if v == "" {
			v = types.NullValue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}
	sort.Strings(distinct)

	ids := make(map[string]int, len(distinct))
	for i, v := range distinct {
		ids[v] = i + 1
	}
	return &Dimension{name: name, values: distinct, ids: ids}
}

// Name returns the dimension's table name.
func (d *Dimension) Name() string { return d.name }

// Len returns the number of entries.
func (d *Dimension) Len() int { return len(d.values) }

// ID returns the surrogate id of a canonical value.
func (d *Dimension) ID(value string) (int, bool) {
	id, ok := d.ids[value]
	return id, ok
}

// Value returns the canonical value of a surrogate id.
func (d *Dimension) Value(id int) (string, bool) {
	if id < 1 || id > len(d.values) {
		return "", false
	}
	return d.values[id-1], true
}

// Values returns the canonical values in id order.
func (d *Dimension) Values() []string {
	out := make([]string, len(d.values))
	copy(out, d.values)
	return out
}

// Table renders the dimension as a two-column table (id, value).
func (d *Dimension) Table(idColumn, valueColumn string) *types.Table {
	rows := make([][]any, len(d.values))
	for i, v := range d.values {
		rows[i] = []any{i + 1, v}
	}
	return &types.Table{
		Name:    d.name,
		Columns: []string{idColumn, valueColumn},
		Rows:    rows,
	}
}

// FromValues rebuilds a dimension whose ids are the 1-based positions of
// values, as stored in a single-column export. Values must be distinct.
func FromValues(name string, values []string) (*Dimension, error) {
	ids := make(map[string]int, len(values))
	for i, v := range values {
		if prev, ok := ids[v]; ok {
			return nil, &DuplicateValueError{Dimension: name, Value: v, FirstID: prev, SecondID: i + 1}
		}
		ids[v] = i + 1
	}
	return &Dimension{name: name, values: append([]string(nil), values...), ids: ids}, nil
}
