package pipeline

import (
	"github.com/jonathan/data-jobs-etl/internal/expand"
	"github.com/jonathan/data-jobs-etl/internal/normalize"
	"github.com/jonathan/data-jobs-etl/internal/rules"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

// canonicalizer holds one normalizer per categorical column.
type canonicalizer struct {
	company  *normalize.CompanyNormalizer
	portal   *normalize.Field
	location *normalize.Field
	title    *normalize.Field
	plain    *normalize.Field
	country  *normalize.CountryCollapser
}

func newCanonicalizer(rs rules.Rules) *canonicalizer {
	return &canonicalizer{
		company:  normalize.NewCompanyNormalizer(rs.Company),
		portal:   normalize.NewField(rs.Portal),
		location: normalize.NewField(rs.Location),
		title:    normalize.NewField(rs.JobTitle),
		plain:    normalize.NewField(nil),
		country:  normalize.NewCountryCollapser(rs.Country),
	}
}

func normalizeAll(raw []types.RawPosting, c *canonicalizer) ([]types.NormalizedPosting, error) {
	out := make([]types.NormalizedPosting, len(raw))
	for i, r := range raw {
		p, err := c.posting(i, r)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// posting normalizes r, the i-th posting read. Error rows come from the
// source row when the reader recorded one.
func (c *canonicalizer) posting(i int, r types.RawPosting) (types.NormalizedPosting, error) {
	row := r.Row
	if row == 0 {
		row = i + 1
	}
	schedules, err := expand.ParseSchedules(normalize.Clean(r.JobScheduleType))
	if err != nil {
		return types.NormalizedPosting{}, atRow(err, row)
	}
	skills, err := expand.ParseSkills(normalize.Clean(r.JobSkills))
	if err != nil {
		return types.NormalizedPosting{}, atRow(err, row)
	}

	return types.NormalizedPosting{
		Row:             row,
		JobTitleShort:   c.title.Canonical(r.JobTitleShort),
		JobTitle:        c.plain.Canonical(r.JobTitle),
		JobLocation:     c.location.Canonical(r.JobLocation),
		Portal:          c.portal.Canonical(r.JobVia),
		Schedules:       schedules,
		WorkFromHome:    r.WorkFromHome,
		SearchLocation:  c.country.Canonical(r.SearchLocation),
		PostedDate:      r.PostedDate,
		NoDegreeMention: r.NoDegreeMention,
		HealthInsurance: r.HealthInsurance,
		JobCountry:      c.plain.Canonical(r.JobCountry),
		SalaryRate:      r.SalaryRate,
		SalaryYearAvg:   r.SalaryYearAvg,
		SalaryHourAvg:   r.SalaryHourAvg,
		Company:         c.company.Canonical(r.CompanyName),
		Skills:          skills,
	}, nil
}

// atRow stamps the 1-based data row onto a malformed value error.
func atRow(err error, row int) error {
	if mv, ok := err.(*expand.MalformedValueError); ok {
		mv.Row = row
	}
	return err
}
