package expand

import "fmt"

// MalformedValueError reports a multi-valued cell that cannot be split.
type MalformedValueError struct {
	Column string
	Row    int
	Value  string
	Reason string
}

func (e *MalformedValueError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("malformed %s value %q: %s", e.Column, e.Value, e.Reason)
	}
	return fmt.Sprintf("malformed %s value %q at row %d: %s", e.Column, e.Value, e.Row, e.Reason)
}

func malformed(column, value, reason string) *MalformedValueError {
	return &MalformedValueError{Column: column, Row: -1, Value: value, Reason: reason}
}
