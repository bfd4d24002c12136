package expand

import "github.com/jonathan/data-jobs-etl/internal/types"

// Posting cross joins a posting's schedules and skills, schedule-major.
// A posting with m schedules and k skills yields m*k rows.
func Posting(p types.NormalizedPosting) []types.ExpandedPosting {
	out := make([]types.ExpandedPosting, 0, len(p.Schedules)*len(p.Skills))
	for _, sched := range p.Schedules {
		for _, skill := range p.Skills {
			out = append(out, types.ExpandedPosting{
				Row:             p.Row,
				JobTitleShort:   p.JobTitleShort,
				JobTitle:        p.JobTitle,
				JobLocation:     p.JobLocation,
				Portal:          p.Portal,
				Schedule:        sched,
				WorkFromHome:    p.WorkFromHome,
				SearchLocation:  p.SearchLocation,
				PostedDate:      p.PostedDate,
				NoDegreeMention: p.NoDegreeMention,
				HealthInsurance: p.HealthInsurance,
				JobCountry:      p.JobCountry,
				SalaryRate:      p.SalaryRate,
				SalaryYearAvg:   p.SalaryYearAvg,
				SalaryHourAvg:   p.SalaryHourAvg,
				Company:         p.Company,
				Skill:           skill,
			})
		}
	}
	return out
}

// All expands every posting in input order.
func All(postings []types.NormalizedPosting) []types.ExpandedPosting {
	n := 0
	for _, p := range postings {
		n += len(p.Schedules) * len(p.Skills)
	}
	out := make([]types.ExpandedPosting, 0, n)
	for _, p := range postings {
		out = append(out, Posting(p)...)
	}
	return out
}
