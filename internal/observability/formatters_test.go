package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/data-jobs-etl/internal/dimension"
	"github.com/jonathan/data-jobs-etl/internal/loader"
	"github.com/jonathan/data-jobs-etl/internal/pipeline"
	"github.com/jonathan/data-jobs-etl/internal/tables"
)

func TestPrintBuildSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	res := &pipeline.Result{
		RunID: "run-123",
		Dimensions: map[string]*dimension.Dimension{
			tables.Skills:    dimension.Extract(tables.Skills, []string{"sql", "python", "go", "aws"}, nil),
			tables.Companies: dimension.Extract(tables.Companies, []string{"Walmart"}, nil),
		},
		Stats: pipeline.Stats{Postings: 10, Expanded: 42, Facts: 42},
	}

	p.PrintBuildSummary(res, 1500*time.Millisecond)
	output := buf.String()

	assert.Contains(t, output, "BUILD SUMMARY")
	assert.Contains(t, output, "run-123")
	assert.Contains(t, output, "Postings:  10")
	assert.Contains(t, output, "Facts:     42")
	assert.Contains(t, output, "1.5s")
	assert.Contains(t, output, "aws, go, python, ...")
	assert.Contains(t, output, "Walmart")
	assert.NotContains(t, output, tables.Locations, "missing dimensions are skipped")
}

func TestPrintBuildSummary_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBuildSummary(nil, 0)

	assert.Empty(t, buf.String())
}

func TestPrintLoadReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLoadReport(&loader.Report{
		Tables: []loader.TableResult{
			{Table: tables.Companies, Rows: 12},
			{Table: tables.Skills, Err: errors.New("missing source file")},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "LOAD REPORT")
	assert.Contains(t, output, "best-effort")
	assert.Contains(t, output, "Rows:      12")
	assert.Contains(t, output, "✓ companies")
	assert.Contains(t, output, "✗ skills")
	assert.Contains(t, output, "missing source file")
	assert.NotContains(t, output, "rolled back")
}

func TestPrintLoadReport_RolledBack(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLoadReport(&loader.Report{
		Transactional: true,
		RolledBack:    true,
		Tables:        []loader.TableResult{{Table: tables.Companies, Rows: 3}, {Err: errors.New("commit failed")}},
	})
	output := buf.String()

	assert.Contains(t, output, "transactional")
	assert.Contains(t, output, "Rows:      0")
	assert.Contains(t, output, "(transaction)")
	assert.Contains(t, output, "rolled back")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("x", 100))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[3], "...")
}

func TestSampleValues(t *testing.T) {
	assert.Equal(t, "", sampleValues(nil))
	assert.Equal(t, "a, b", sampleValues([]string{"a", "b"}))
	assert.Equal(t, "a, b, c, ...", sampleValues([]string{"a", "b", "c", "d"}))
}

func TestNewLogger(t *testing.T) {
	for _, verbose := range []bool{false, true} {
		logger, err := NewLogger(verbose)
		require.NoError(t, err)
		assert.Equal(t, verbose, logger.Core().Enabled(-1), "debug enabled only when verbose")
	}
}
