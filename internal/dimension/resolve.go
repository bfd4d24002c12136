package dimension

// Resolve maps every value to its surrogate id in d. It fails on the first
// value with no entry; that only happens when extraction and resolution were
// run over inconsistently normalized data. The error's Row is the index into
// values; callers holding source rows translate it.
func Resolve(values []string, d *Dimension) ([]int, error) {
	ids := make([]int, len(values))
	for i, v := range values {
		id, ok := d.ids[v]
		if !ok {
			return nil, &UnmappedValueError{Dimension: d.name, Value: v, Row: i}
		}
		ids[i] = id
	}
	return ids, nil
}
