package source

import "fmt"

// MissingSourceFileError reports an input file that does not exist. Table is
// the table the file would have populated, or empty for the raw dataset.
type MissingSourceFileError struct {
	Table string
	Path  string
}

func (e *MissingSourceFileError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("missing source file for table %s: %s", e.Table, e.Path)
	}
	return fmt.Sprintf("missing source file: %s", e.Path)
}

// SourceFormatError reports a dataset that cannot be decoded: an unsupported
// file type, a missing required column or an unparseable cell.
type SourceFormatError struct {
	Path    string
	Row     int // 1-based data row, 0 when not row specific
	Column  string
	Value   string
	Message string
	Cause   error
}

func (e *SourceFormatError) Error() string {
	msg := e.Message
	if e.Column != "" {
		msg = fmt.Sprintf("column %s: %s", e.Column, msg)
	}
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s %q", e.Row, msg, e.Value)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("source format error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("source format error: %s", msg)
}

func (e *SourceFormatError) Unwrap() error {
	return e.Cause
}
