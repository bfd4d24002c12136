package tables

import "github.com/jonathan/data-jobs-etl/internal/types"

// FactTable renders fact rows in job_postings column order. Nil salary
// pointers become untyped nil so every sink sees NULL.
func FactTable(rows []types.FactRow) *types.Table {
	spec, _ := Lookup(JobPostings)
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{
			r.JobTitleID,
			r.JobTitleFull,
			r.JobLocationID,
			r.PortalID,
			r.ScheduleID,
			r.WorkFromHome,
			r.SearchLocationID,
			r.PostedDate,
			r.NoDegreeMention,
			r.HealthInsurance,
			r.JobCountryID,
			nullString(r.SalaryRate),
			nullFloat(r.SalaryYearAvg),
			nullFloat(r.SalaryHourAvg),
			r.CompanyID,
			r.SkillID,
		}
	}
	return &types.Table{Name: spec.Name, Columns: spec.ColumnNames(), Rows: out}
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
