package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/jonathan/data-jobs-etl/internal/rules"
	"github.com/jonathan/data-jobs-etl/internal/tables"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

func postingGen() gopter.Gen {
	pick := func(vs ...interface{}) gopter.Gen { return gen.OneConstOf(vs...) }
	return gopter.CombineGens(
		pick("Data Analyst", "Data Engineer", ""),
		pick("Walmart Inc.", "CVS Health", "", "Acme Co", "#twiceasnice Recruiting"),
		pick("via LinkedIn", "via Indeed", "", "Www.careers.example"),
		pick("Full-time", "Full-time and Contractor", "Part-time, Internship", ""),
		gen.SliceOfN(3, pick("python", "sql", "aws", "excel")),
		pick("United States", "Germany", ""),
		pick("Texas, United States", "Germany", "Anywhere", ""),
		gen.IntRange(1, 28),
	).Map(func(v []interface{}) types.RawPosting {
		skills := v[4].([]string)
		quoted := make([]string, len(skills))
		for i, s := range skills {
			quoted[i] = fmt.Sprintf("'%s'", s)
		}
		return types.RawPosting{
			JobTitleShort:   v[0].(string),
			CompanyName:     v[1].(string),
			JobVia:          v[2].(string),
			JobScheduleType: v[3].(string),
			JobSkills:       "[" + strings.Join(quoted, ", ") + "]",
			JobCountry:      v[5].(string),
			SearchLocation:  v[6].(string),
			PostedDate:      time.Date(2023, 1, v[7].(int), 0, 0, 0, 0, time.UTC),
		}
	})
}

func TestBuildProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	rs := rules.Default()

	properties.Property("every fact id exists in its dimension", prop.ForAll(
		func(ps []types.RawPosting) bool {
			res, err := Build(context.Background(), ps, rs, Options{})
			if err != nil {
				return false
			}
			has := func(table string, id int) bool {
				_, ok := res.Dimension(table).Value(id)
				return ok
			}
			for _, f := range res.Facts {
				if !has(tables.JobTitles, f.JobTitleID) || !has(tables.Locations, f.JobLocationID) ||
					!has(tables.Portals, f.PortalID) || !has(tables.Schedules, f.ScheduleID) ||
					!has(tables.Countries, f.SearchLocationID) || !has(tables.Countries, f.JobCountryID) ||
					!has(tables.Companies, f.CompanyID) || !has(tables.Skills, f.SkillID) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(postingGen()),
	))

	properties.Property("facts are sorted by posted date", prop.ForAll(
		func(ps []types.RawPosting) bool {
			res, err := Build(context.Background(), ps, rs, Options{})
			if err != nil {
				return false
			}
			for i := 1; i < len(res.Facts); i++ {
				if res.Facts[i].PostedDate.Before(res.Facts[i-1].PostedDate) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(postingGen()),
	))

	properties.Property("fact count is the sum of schedules times skills", prop.ForAll(
		func(ps []types.RawPosting) bool {
			res, err := Build(context.Background(), ps, rs, Options{})
			if err != nil {
				return false
			}
			want := 0
			for _, p := range ps {
				m := 1
				if p.JobScheduleType != "" {
					m = len(strings.Split(strings.ReplaceAll(p.JobScheduleType, " and ", ","), ","))
				}
				want += m * 3
			}
			return len(res.Facts) == want
		},
		gen.SliceOf(postingGen()),
	))

	properties.TestingRun(t)
}
