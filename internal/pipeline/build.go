// Package pipeline turns raw postings into the star schema: normalization,
// dimension extraction, expansion, foreign-key resolution and fact assembly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	goerrors "github.com/go-errors/errors"
	"go.uber.org/zap"

	"github.com/jonathan/data-jobs-etl/internal/dimension"
	"github.com/jonathan/data-jobs-etl/internal/expand"
	"github.com/jonathan/data-jobs-etl/internal/rules"
	"github.com/jonathan/data-jobs-etl/internal/tables"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

// Stage names reported in progress events and logs.
const (
	StageNormalize  = "normalize"
	StageDimensions = "dimensions"
	StageExpand     = "expand"
	StageResolve    = "resolve"
	StageAssemble   = "assemble"
)

// ProgressEvent represents a progress update during a build
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Count   int    `json:"count"`
}

// ProgressCallback is called when build progress occurs
type ProgressCallback func(event ProgressEvent)

// Options holds configuration for a build
type Options struct {
	RunID      string
	Logger     *zap.Logger
	OnProgress ProgressCallback
}

// emitProgress calls the progress callback if configured and logs the event
func emitProgress(opts *Options, stage, message string, count int) {
	opts.Logger.Info(message, zap.String("stage", stage), zap.Int("rows", count))
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Stage:   stage,
			Message: message,
			RunID:   opts.RunID,
			Count:   count,
		})
	}
}

// Stats counts rows at each stage boundary.
type Stats struct {
	Postings int
	Expanded int
	Facts    int
}

// Result is the output of a build. Dimensions are keyed by table name.
type Result struct {
	RunID      string
	Dimensions map[string]*dimension.Dimension
	Facts      []types.FactRow
	Stats      Stats
}

// Dimension returns the dimension for a table name, or nil.
func (r *Result) Dimension(name string) *dimension.Dimension {
	return r.Dimensions[name]
}

// Tables renders the result in load order, dimensions first.
func (r *Result) Tables() []*types.Table {
	var out []*types.Table
	for _, spec := range tables.Dimensions() {
		d := r.Dimensions[spec.Name]
		if d == nil {
			continue
		}
		out = append(out, d.Table(spec.IDColumn(), spec.ValueColumn()))
	}
	return append(out, tables.FactTable(r.Facts))
}

// Build runs every stage over postings. Each stage consumes the complete
// output of the previous one. Any error is fatal and carries a stack trace.
func Build(ctx context.Context, postings []types.RawPosting, rs rules.Rules, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RunID != "" {
		opts.Logger = opts.Logger.With(zap.String("run_id", opts.RunID))
	}

	normalized, err := normalizeAll(postings, newCanonicalizer(rs))
	if err != nil {
		return nil, goerrors.Wrap(err, 0)
	}
	emitProgress(&opts, StageNormalize, "Normalized postings", len(normalized))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dims := extractDimensions(normalized, rs.Country.Extra)
	for _, spec := range tables.Dimensions() {
		opts.Logger.Debug("dimension extracted",
			zap.String("stage", StageDimensions),
			zap.String("table", spec.Name),
			zap.Int("rows", dims[spec.Name].Len()))
	}
	emitProgress(&opts, StageDimensions, "Extracted dimensions", len(dims))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	expanded := expand.All(normalized)
	emitProgress(&opts, StageExpand, "Expanded schedules and skills", len(expanded))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	facts, err := resolve(expanded, dims)
	if err != nil {
		return nil, goerrors.Wrap(err, 0)
	}
	emitProgress(&opts, StageResolve, "Resolved foreign keys", len(facts))

	sortFacts(facts)
	emitProgress(&opts, StageAssemble, "Assembled fact table", len(facts))

	return &Result{
		RunID:      opts.RunID,
		Dimensions: dims,
		Facts:      facts,
		Stats: Stats{
			Postings: len(postings),
			Expanded: len(expanded),
			Facts:    len(facts),
		},
	}, nil
}

func extractDimensions(ps []types.NormalizedPosting, extraCountries []string) map[string]*dimension.Dimension {
	var (
		companies, countries, locations, portals []string
		schedules, skills, titles                []string
	)
	for _, p := range ps {
		companies = append(companies, p.Company)
		countries = append(countries, p.JobCountry, p.SearchLocation)
		locations = append(locations, p.JobLocation)
		portals = append(portals, p.Portal)
		schedules = append(schedules, p.Schedules...)
		skills = append(skills, p.Skills...)
		titles = append(titles, p.JobTitleShort)
	}
	countries = append(countries, extraCountries...)

	return map[string]*dimension.Dimension{
		tables.Companies: dimension.Extract(tables.Companies, companies, nil),
		tables.Countries: dimension.Extract(tables.Countries, countries, nil),
		tables.Locations: dimension.Extract(tables.Locations, locations, nil),
		tables.Portals:   dimension.Extract(tables.Portals, portals, nil),
		tables.Schedules: dimension.Extract(tables.Schedules, schedules, nil),
		tables.Skills:    dimension.Extract(tables.Skills, skills, nil),
		tables.JobTitles: dimension.Extract(tables.JobTitles, titles, nil),
	}
}

// resolve maps every categorical column of the expanded rows to ids.
func resolve(rows []types.ExpandedPosting, dims map[string]*dimension.Dimension) ([]types.FactRow, error) {
	column := func(get func(types.ExpandedPosting) string) []string {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = get(r)
		}
		return out
	}

	lookups := []struct {
		table string
		get   func(types.ExpandedPosting) string
		set   func(*types.FactRow, int)
	}{
		{tables.JobTitles, func(r types.ExpandedPosting) string { return r.JobTitleShort }, func(f *types.FactRow, id int) { f.JobTitleID = id }},
		{tables.Locations, func(r types.ExpandedPosting) string { return r.JobLocation }, func(f *types.FactRow, id int) { f.JobLocationID = id }},
		{tables.Portals, func(r types.ExpandedPosting) string { return r.Portal }, func(f *types.FactRow, id int) { f.PortalID = id }},
		{tables.Schedules, func(r types.ExpandedPosting) string { return r.Schedule }, func(f *types.FactRow, id int) { f.ScheduleID = id }},
		{tables.Countries, func(r types.ExpandedPosting) string { return r.SearchLocation }, func(f *types.FactRow, id int) { f.SearchLocationID = id }},
		{tables.Countries, func(r types.ExpandedPosting) string { return r.JobCountry }, func(f *types.FactRow, id int) { f.JobCountryID = id }},
		{tables.Companies, func(r types.ExpandedPosting) string { return r.Company }, func(f *types.FactRow, id int) { f.CompanyID = id }},
		{tables.Skills, func(r types.ExpandedPosting) string { return r.Skill }, func(f *types.FactRow, id int) { f.SkillID = id }},
	}

	facts := make([]types.FactRow, len(rows))
	for i, r := range rows {
		facts[i] = types.FactRow{
			JobTitleFull:    r.JobTitle,
			WorkFromHome:    r.WorkFromHome,
			PostedDate:      r.PostedDate,
			NoDegreeMention: r.NoDegreeMention,
			HealthInsurance: r.HealthInsurance,
			SalaryRate:      r.SalaryRate,
			SalaryYearAvg:   r.SalaryYearAvg,
			SalaryHourAvg:   r.SalaryHourAvg,
		}
	}

	for _, l := range lookups {
		d, ok := dims[l.table]
		if !ok {
			return nil, fmt.Errorf("dimension %s not built", l.table)
		}
		ids, err := dimension.Resolve(column(l.get), d)
		if err != nil {
			var um *dimension.UnmappedValueError
			if errors.As(err, &um) && um.Row >= 0 && um.Row < len(rows) {
				um.Row = rows[um.Row].Row
			}
			return nil, err
		}
		for i, id := range ids {
			l.set(&facts[i], id)
		}
	}
	return facts, nil
}

// sortFacts orders facts by posting date; ties keep expansion order.
func sortFacts(facts []types.FactRow) {
	sort.SliceStable(facts, func(i, j int) bool {
		return facts[i].PostedDate.Before(facts[j].PostedDate)
	})
}
