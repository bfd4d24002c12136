// Package rules holds the normalization configuration for a dataset vintage:
// legal-entity words, the ordered company alias table, ordered rewrite rules
// and the country collapse list. Rules are plain data; the normalize package
// interprets them.
package rules

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/data-jobs-etl/internal/schemas"
)

//go:embed default_rules.json
var defaultRulesJSON []byte

//go:embed rules.schema.json
var schemaJSON []byte

// MatchKind selects how a rewrite rule's pattern is compared to a value.
type MatchKind string

const (
	MatchExact        MatchKind = "exact"
	MatchContains     MatchKind = "contains"
	MatchContainsFold MatchKind = "contains_fold"
	MatchPrefix       MatchKind = "prefix"
	MatchReplace      MatchKind = "replace"
)

// AliasMatch selects alias precedence when several patterns match.
type AliasMatch string

const (
	// AliasMatchDeclared returns the first matching alias in declared order.
	// A short pattern declared early shadows longer ones ("cvs" before
	// "cvs health").
	AliasMatchDeclared AliasMatch = "declared"
	// AliasMatchLongest returns the longest matching pattern; ties go to
	// declaration order.
	AliasMatchLongest AliasMatch = "longest"
)

// Rules is the complete normalization configuration.
type Rules struct {
	Version  string       `json:"version"`
	Company  CompanyRules `json:"company"`
	Portal   []Rewrite    `json:"portal,omitempty"`
	Location []Rewrite    `json:"location,omitempty"`
	JobTitle []Rewrite    `json:"job_title,omitempty"`
	Country  CountryRules `json:"country"`
}

// CompanyRules configures company-name canonicalization.
type CompanyRules struct {
	LegalWords []string   `json:"legal_words,omitempty"`
	AliasMatch AliasMatch `json:"alias_match,omitempty"`
	Aliases    []Alias    `json:"aliases,omitempty"`
	Pre        []Rewrite  `json:"pre,omitempty"`  // applied to the raw name
	Post       []Rewrite  `json:"post,omitempty"` // applied to the normalized name
}

// Alias maps any cleaned name containing Pattern to Canonical.
type Alias struct {
	Pattern   string `json:"pattern"`
	Canonical string `json:"canonical"`
}

// Rewrite replaces a value (or part of it) when Pattern matches.
type Rewrite struct {
	Match   MatchKind `json:"match"`
	Pattern string    `json:"pattern"`
	Value   string    `json:"value"`
}

// CountryRules configures the shared country / search-location id space.
type CountryRules struct {
	// Collapse lists country names; a search location containing one of them
	// is replaced by that name.
	Collapse []string `json:"collapse,omitempty"`
	// Extra lists countries that belong to the dimension even when no row
	// mentions them.
	Extra []string `json:"extra,omitempty"`
}

// Default returns the rules for the data_jobs_salary_all spreadsheet.
func Default() Rules {
	r, err := Parse(defaultRulesJSON, FormatJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded default rules are invalid: %v", err))
	}
	return r
}

// DefaultJSON returns the embedded default rules document.
func DefaultJSON() []byte {
	out := make([]byte, len(defaultRulesJSON))
	copy(out, defaultRulesJSON)
	return out
}

// Schema returns the JSON Schema every rules document must satisfy.
func Schema() []byte {
	out := make([]byte, len(schemaJSON))
	copy(out, schemaJSON)
	return out
}

// Format is the serialization of a rules document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads and validates a rules document.
func LoadFile(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	r, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return Rules{}, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes a rules document, validates it against the schema and
// checks the constraints the schema cannot express.
func Parse(data []byte, format Format) (Rules, error) {
	doc := data
	if format == FormatYAML {
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return Rules{}, fmt.Errorf("failed to parse rules YAML: %w", err)
		}
		converted, err := json.Marshal(generic)
		if err != nil {
			return Rules{}, fmt.Errorf("failed to convert rules YAML: %w", err)
		}
		doc = converted
	}

	if err := schemas.Validate("rules", schemaJSON, doc); err != nil {
		return Rules{}, err
	}

	var r Rules
	if err := json.Unmarshal(doc, &r); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules JSON: %w", err)
	}
	if r.Company.AliasMatch == "" {
		r.Company.AliasMatch = AliasMatchDeclared
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// Validate reports rule sets that would make normalization ambiguous.
func (r Rules) Validate() error {
	seen := make(map[string]bool, len(r.Company.Aliases))
	for i, a := range r.Company.Aliases {
		if a.Pattern != strings.ToLower(a.Pattern) {
			return &Error{Field: fmt.Sprintf("company.aliases[%d]", i), Message: fmt.Sprintf("pattern %q must be lowercase", a.Pattern)}
		}
		if seen[a.Pattern] {
			return &Error{Field: fmt.Sprintf("company.aliases[%d]", i), Message: fmt.Sprintf("duplicate pattern %q", a.Pattern)}
		}
		seen[a.Pattern] = true
	}
	for i, w := range r.Company.LegalWords {
		if w != strings.ToLower(w) || strings.ContainsFunc(w, isSeparator) {
			return &Error{Field: fmt.Sprintf("company.legal_words[%d]", i), Message: fmt.Sprintf("%q must be a single lowercase word", w)}
		}
	}
	switch r.Company.AliasMatch {
	case AliasMatchDeclared, AliasMatchLongest:
	default:
		return &Error{Field: "company.alias_match", Message: fmt.Sprintf("unknown alias match %q", r.Company.AliasMatch)}
	}
	return nil
}

// Marshal encodes the rules in the given format.
func (r Rules) Marshal(format Format) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	if format != FormatYAML {
		return data, nil
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

// Error reports a rules document that is well-formed but unusable.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("rules error in %s: %s", e.Field, e.Message)
}
