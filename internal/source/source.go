// Package source reads the raw job-postings dataset from an .xlsx workbook
// or a .csv file.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/data-jobs-etl/internal/types"
)

// Options control how a dataset is read.
type Options struct {
	// Sheet selects the workbook sheet. Empty means the first sheet.
	Sheet string
}

// ReadFile reads postings from path, choosing the decoder by extension.
func ReadFile(path string, opts Options) ([]types.RawPosting, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingSourceFileError{Path: path}
		}
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(path, opts.Sheet)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open source: %w", err)
		}
		defer f.Close()
		return readCSV(path, f)
	default:
		return nil, &SourceFormatError{Path: path, Message: "unsupported file type " + filepath.Ext(path)}
	}
}

// ReadCSV reads postings from a CSV stream with a header row.
func ReadCSV(r io.Reader) ([]types.RawPosting, error) {
	return readCSV("", r)
}

func readCSV(path string, r io.Reader) ([]types.RawPosting, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &SourceFormatError{Path: path, Message: "empty file"}
	}
	if err != nil {
		return nil, &SourceFormatError{Path: path, Message: "unreadable header", Cause: err}
	}
	dec, err := newDecoder(path, header)
	if err != nil {
		return nil, err
	}

	var postings []types.RawPosting
	for row := 1; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &SourceFormatError{Path: path, Row: row, Message: "unreadable record", Cause: err}
		}
		p, err := dec.decode(row, record)
		if err != nil {
			return nil, err
		}
		postings = append(postings, p)
	}
	return postings, nil
}

func readWorkbook(path, sheet string) ([]types.RawPosting, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &SourceFormatError{Path: path, Message: "failed to open workbook", Cause: err}
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &SourceFormatError{Path: path, Message: "workbook has no sheets"}
		}
		sheet = sheets[0]
	}

	// Raw values keep dates as serial numbers instead of locale formatting.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &SourceFormatError{Path: path, Message: "failed to read sheet " + sheet, Cause: err}
	}
	if len(rows) == 0 {
		return nil, &SourceFormatError{Path: path, Message: "empty sheet " + sheet}
	}

	dec, err := newDecoder(path, rows[0])
	if err != nil {
		return nil, err
	}
	postings := make([]types.RawPosting, 0, len(rows)-1)
	for i, record := range rows[1:] {
		if isBlank(record) {
			continue
		}
		p, err := dec.decode(i+1, record)
		if err != nil {
			return nil, err
		}
		postings = append(postings, p)
	}
	return postings, nil
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
