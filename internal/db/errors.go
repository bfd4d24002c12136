package db

import "fmt"

// SinkWriteError reports a table the store rejected.
type SinkWriteError struct {
	Table string
	Rows  int
	Cause error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("failed to write %d rows to %s: %v", e.Rows, e.Table, e.Cause)
}

func (e *SinkWriteError) Unwrap() error {
	return e.Cause
}
