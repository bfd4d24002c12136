// Package observability provides logging and formatted summaries for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/data-jobs-etl/internal/loader"
	"github.com/jonathan/data-jobs-etl/internal/pipeline"
	"github.com/jonathan/data-jobs-etl/internal/tables"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for summaries
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintBuildSummary outputs row counts for every stage and dimension.
func (p *Printer) PrintBuildSummary(res *pipeline.Result, elapsed time.Duration) {
	if res == nil {
		return
	}

	var sb strings.Builder
	if res.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run:       %s\n", res.RunID))
	}
	sb.WriteString(fmt.Sprintf("Postings:  %d\n", res.Stats.Postings))
	sb.WriteString(fmt.Sprintf("Expanded:  %d\n", res.Stats.Expanded))
	sb.WriteString(fmt.Sprintf("Facts:     %d\n", res.Stats.Facts))
	sb.WriteString(fmt.Sprintf("Elapsed:   %s\n", elapsed.Round(time.Millisecond)))
	sb.WriteString("\nDimensions:\n")
	for _, spec := range tables.Dimensions() {
		d := res.Dimension(spec.Name)
		if d == nil {
			continue
		}
		line := fmt.Sprintf("  • %-15s %6d", spec.Name, d.Len())
		if sample := sampleValues(d.Values()); sample != "" {
			line += "  " + sample
		}
		sb.WriteString(line + "\n")
	}

	p.printBox("BUILD SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLoadReport outputs the per-table outcome of a load.
func (p *Printer) PrintLoadReport(report *loader.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	mode := "best-effort"
	if report.Transactional {
		mode = "transactional"
	}
	sb.WriteString(fmt.Sprintf("Mode:      %s\n", mode))
	sb.WriteString(fmt.Sprintf("Rows:      %d\n\n", report.Rows()))

	for _, t := range report.Tables {
		name := t.Table
		if name == "" {
			name = "(transaction)"
		}
		if t.Err != nil {
			sb.WriteString(fmt.Sprintf("  ✗ %-15s %s\n", name, t.Err))
			continue
		}
		sb.WriteString(fmt.Sprintf("  ✓ %-15s %6d rows\n", name, t.Rows))
	}
	if report.RolledBack {
		sb.WriteString("\nTransaction rolled back; nothing was persisted.\n")
	}

	p.printBox("LOAD REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// sampleValues lists the first few values of a dimension.
func sampleValues(values []string) string {
	if len(values) == 0 {
		return ""
	}
	count := min(len(values), 3)
	sample := strings.Join(values[:count], ", ")
	if len(values) > count {
		sample += ", ..."
	}
	return sample
}
