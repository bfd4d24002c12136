package dimension

import "fmt"

// UnmappedValueError reports a fact value with no dimension entry. It means
// referential integrity between the fact table and a dimension is broken and
// is fatal to the run.
type UnmappedValueError struct {
	Dimension string
	Value     string
	Row       int
}

func (e *UnmappedValueError) Error() string {
	return fmt.Sprintf("unmapped value %q in dimension %s (row %d)", e.Value, e.Dimension, e.Row)
}

// DuplicateValueError reports a dimension export listing a value twice.
type DuplicateValueError struct {
	Dimension string
	Value     string
	FirstID   int
	SecondID  int
}

func (e *DuplicateValueError) Error() string {
	return fmt.Sprintf("duplicate value %q in dimension %s (ids %d and %d)", e.Value, e.Dimension, e.FirstID, e.SecondID)
}
