// Package types provides type definitions for the structured data that flows
// through the job-postings pipeline.
package types

import "time"

// NullValue is the sentinel stored in place of an absent categorical value.
// It is a regular, addressable dimension entry.
const NullValue = "NULL"

// RawPosting is one job posting as read from the source spreadsheet.
// Absent categorical values are empty strings.
type RawPosting struct {
	Row             int // 1-based data row in the source file, 0 when unknown
	JobTitleShort   string
	JobTitle        string
	JobLocation     string
	JobVia          string
	JobScheduleType string // may combine several schedules ("Full-time and Contract")
	WorkFromHome    bool
	SearchLocation  string
	PostedDate      time.Time
	NoDegreeMention bool
	HealthInsurance bool
	JobCountry      string
	SalaryRate      *string
	SalaryYearAvg   *float64
	SalaryHourAvg   *float64
	CompanyName     string
	JobSkills       string // pseudo-list, e.g. "['python', 'sql']"
}

// NormalizedPosting is a posting whose categorical fields are in canonical
// form and whose multi-valued fields have been parsed.
type NormalizedPosting struct {
	Row             int // 1-based data row in the source
	JobTitleShort   string
	JobTitle        string
	JobLocation     string
	Portal          string
	Schedules       []string
	WorkFromHome    bool
	SearchLocation  string
	PostedDate      time.Time
	NoDegreeMention bool
	HealthInsurance bool
	JobCountry      string
	SalaryRate      *string
	SalaryYearAvg   *float64
	SalaryHourAvg   *float64
	Company         string
	Skills          []string
}

// ExpandedPosting is a single (posting, schedule, skill) combination.
type ExpandedPosting struct {
	Row             int
	JobTitleShort   string
	JobTitle        string
	JobLocation     string
	Portal          string
	Schedule        string
	WorkFromHome    bool
	SearchLocation  string
	PostedDate      time.Time
	NoDegreeMention bool
	HealthInsurance bool
	JobCountry      string
	SalaryRate      *string
	SalaryYearAvg   *float64
	SalaryHourAvg   *float64
	Company         string
	Skill           string
}

// FactRow is an expanded posting with every categorical field replaced by
// the surrogate id of its dimension entry.
type FactRow struct {
	JobTitleID       int
	JobTitleFull     string
	JobLocationID    int
	PortalID         int
	ScheduleID       int
	WorkFromHome     bool
	SearchLocationID int
	PostedDate       time.Time
	NoDegreeMention  bool
	HealthInsurance  bool
	JobCountryID     int
	SalaryRate       *string
	SalaryYearAvg    *float64
	SalaryHourAvg    *float64
	CompanyID        int
	SkillID          int
}
