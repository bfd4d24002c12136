// Package expand splits multi-valued posting cells and cross joins them into
// one row per (schedule, skill) pair.
package expand

import (
	"strings"

	"github.com/jonathan/data-jobs-etl/internal/types"
)

// Column names used in MalformedValueError.
const (
	ScheduleColumn = "job_schedule_type"
	SkillsColumn   = "job_skills"
)

// ParseSchedules splits a schedule cell such as "Full-time and Part-time" or
// "Full-time, Contractor". The NULL sentinel becomes a single NULL element.
func ParseSchedules(value string) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == types.NullValue {
		return []string{types.NullValue}, nil
	}

	joined := strings.ReplaceAll(value, " and ", ",")
	for strings.Contains(joined, ",,") {
		joined = strings.ReplaceAll(joined, ",,", ",")
	}

	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, malformed(ScheduleColumn, value, "empty schedule element")
		}
		out = append(out, p)
	}
	return out, nil
}
