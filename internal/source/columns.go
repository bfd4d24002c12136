package source

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/data-jobs-etl/internal/types"
)

// Source column names.
const (
	ColJobTitleShort   = "job_title_short"
	ColJobTitle        = "job_title"
	ColJobLocation     = "job_location"
	ColJobVia          = "job_via"
	ColJobScheduleType = "job_schedule_type"
	ColWorkFromHome    = "job_work_from_home"
	ColSearchLocation  = "search_location"
	ColPostedDate      = "job_posted_date"
	ColNoDegreeMention = "job_no_degree_mention"
	ColHealthInsurance = "job_health_insurance"
	ColJobCountry      = "job_country"
	ColSalaryRate      = "salary_rate"
	ColSalaryYearAvg   = "salary_year_avg"
	ColSalaryHourAvg   = "salary_hour_avg"
	ColCompanyName     = "company_name"
	ColJobSkills       = "job_skills"
)

// RequiredColumns must be present in the header row. Salary columns are
// optional and read as null when absent.
var RequiredColumns = []string{
	ColJobTitleShort, ColJobTitle, ColJobLocation, ColJobVia, ColJobScheduleType,
	ColWorkFromHome, ColSearchLocation, ColPostedDate, ColNoDegreeMention,
	ColHealthInsurance, ColJobCountry, ColCompanyName, ColJobSkills,
}

// DateLayouts are tried in order before falling back to an Excel serial.
var DateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// decoder turns header-indexed records into raw postings.
type decoder struct {
	path  string
	index map[string]int
}

func newDecoder(path string, header []string) (*decoder, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &SourceFormatError{Path: path, Column: col, Message: "missing required column"}
		}
	}
	return &decoder{path: path, index: index}, nil
}

func (d *decoder) cell(record []string, col string) string {
	i, ok := d.index[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (d *decoder) fail(row int, col, value, msg string, cause error) error {
	return &SourceFormatError{Path: d.path, Row: row, Column: col, Value: value, Message: msg, Cause: cause}
}

// decode converts one record. row is the 1-based data row used in errors.
func (d *decoder) decode(row int, record []string) (types.RawPosting, error) {
	p := types.RawPosting{
		Row:             row,
		JobTitleShort:   d.cell(record, ColJobTitleShort),
		JobTitle:        d.cell(record, ColJobTitle),
		JobLocation:     d.cell(record, ColJobLocation),
		JobVia:          d.cell(record, ColJobVia),
		JobScheduleType: d.cell(record, ColJobScheduleType),
		SearchLocation:  d.cell(record, ColSearchLocation),
		JobCountry:      d.cell(record, ColJobCountry),
		CompanyName:     d.cell(record, ColCompanyName),
		JobSkills:       d.cell(record, ColJobSkills),
	}

	var err error
	if p.WorkFromHome, err = d.boolean(row, record, ColWorkFromHome); err != nil {
		return p, err
	}
	if p.NoDegreeMention, err = d.boolean(row, record, ColNoDegreeMention); err != nil {
		return p, err
	}
	if p.HealthInsurance, err = d.boolean(row, record, ColHealthInsurance); err != nil {
		return p, err
	}

	raw := d.cell(record, ColPostedDate)
	if p.PostedDate, err = ParseDate(raw); err != nil {
		return p, d.fail(row, ColPostedDate, raw, "invalid date", err)
	}

	if rate := d.cell(record, ColSalaryRate); rate != "" {
		p.SalaryRate = &rate
	}
	if p.SalaryYearAvg, err = d.float(row, record, ColSalaryYearAvg); err != nil {
		return p, err
	}
	if p.SalaryHourAvg, err = d.float(row, record, ColSalaryHourAvg); err != nil {
		return p, err
	}
	return p, nil
}

func (d *decoder) boolean(row int, record []string, col string) (bool, error) {
	raw := d.cell(record, col)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, d.fail(row, col, raw, "invalid boolean", err)
	}
	return b, nil
}

func (d *decoder) float(row int, record []string, col string) (*float64, error) {
	raw := d.cell(record, col)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, d.fail(row, col, raw, "invalid number", err)
	}
	return &f, nil
}

// ParseDate accepts the layouts in DateLayouts or an Excel serial day number
// and returns the time in UTC, rounded to the second.
func ParseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(serial) || serial <= 0 {
		return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to convert excel serial: %w", err)
	}
	return t.Round(time.Second).UTC(), nil
}
