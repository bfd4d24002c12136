package normalize

import (
	"strings"

	"github.com/jonathan/data-jobs-etl/internal/rules"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

// Rewriter applies an ordered list of rewrite rules. Each rule sees the
// output of the previous one.
type Rewriter struct {
	rules []rules.Rewrite
}

// NewRewriter copies the rule list into a Rewriter.
func NewRewriter(rs []rules.Rewrite) *Rewriter {
	return &Rewriter{rules: append([]rules.Rewrite(nil), rs...)}
}

// Apply runs every rule over value and trims the result.
func (rw *Rewriter) Apply(value string) string {
	for _, r := range rw.rules {
		switch r.Match {
		case rules.MatchExact:
			if value == r.Pattern {
				value = r.Value
			}
		case rules.MatchContains:
			if strings.Contains(value, r.Pattern) {
				value = r.Value
			}
		case rules.MatchContainsFold:
			if strings.Contains(strings.ToLower(value), strings.ToLower(r.Pattern)) {
				value = r.Value
			}
		case rules.MatchPrefix:
			if strings.HasPrefix(value, r.Pattern) {
				value = r.Value
			}
		case rules.MatchReplace:
			value = strings.ReplaceAll(value, r.Pattern, r.Value)
		}
	}
	return strings.TrimSpace(value)
}

// Field canonicalizes a plain categorical column (location, portal, job
// title): Clean, then the column's rewrites, then NULL for an absent value.
// The NULL sentinel itself is never rewritten.
type Field struct {
	rw *Rewriter
}

// NewField builds a Field from the column's rewrite rules.
func NewField(rs []rules.Rewrite) *Field {
	return &Field{rw: NewRewriter(rs)}
}

// Canonical returns the dimension key for raw.
func (f *Field) Canonical(raw string) string {
	v := Clean(raw)
	if v == "" || v == types.NullValue {
		return types.NullValue
	}
	return orNull(f.rw.Apply(v))
}

// CountryCollapser folds search locations into the country id space.
type CountryCollapser struct {
	countries []string
}

// NewCountryCollapser builds a collapser from the country rules.
func NewCountryCollapser(cfg rules.CountryRules) *CountryCollapser {
	return &CountryCollapser{countries: append([]string(nil), cfg.Collapse...)}
}

// Canonical returns the first configured country contained in raw, or the
// cleaned value itself.
func (c *CountryCollapser) Canonical(raw string) string {
	v := Clean(raw)
	if v == "" {
		return types.NullValue
	}
	for _, country := range c.countries {
		if strings.Contains(v, country) {
			return country
		}
	}
	return v
}
