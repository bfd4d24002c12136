// Package tables describes the target star schema: table names, export file
// names, column names and types, and the DDL for each supported database.
package tables

// Table names.
const (
	Companies   = "companies"
	Countries   = "countries"
	Locations   = "locations"
	Portals     = "job_portals"
	Schedules   = "job_schedules"
	Skills      = "skills"
	JobTitles   = "job_titles"
	JobPostings = "job_postings"
)

// ColumnType is the logical type of a column.
type ColumnType int

const (
	Int ColumnType = iota
	Text
	Bool
	Timestamp
	Float
)

func (c ColumnType) String() string {
	switch c {
	case Int:
		return "int"
	case Text:
		return "text"
	case Bool:
		return "bool"
	case Timestamp:
		return "timestamp"
	case Float:
		return "float"
	}
	return "unknown"
}

// Kind distinguishes dimension tables from the fact table.
type Kind int

const (
	Dimension Kind = iota
	Fact
)

// Column describes one column of a table.
type Column struct {
	Name       string
	Type       ColumnType
	Nullable   bool
	PrimaryKey bool
	References string // referenced dimension table, empty if none
}

// Spec describes one table of the target schema.
type Spec struct {
	Name    string
	File    string // export file name
	Kind    Kind
	Columns []Column
}

// IDColumn returns the surrogate key column of a dimension.
func (s Spec) IDColumn() string {
	return s.Columns[0].Name
}

// ValueColumn returns the canonical value column of a dimension.
func (s Spec) ValueColumn() string {
	return s.Columns[1].Name
}

// ColumnNames returns the column names in declaration order.
func (s Spec) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

func dimension(name, file, id, value string) Spec {
	return Spec{
		Name: name,
		File: file,
		Kind: Dimension,
		Columns: []Column{
			{Name: id, Type: Int, PrimaryKey: true},
			{Name: value, Type: Text},
		},
	}
}

var catalog = []Spec{
	dimension(Companies, "companies.csv", "company_id", "company_name"),
	dimension(Countries, "countries.csv", "country_id", "country_name"),
	dimension(Locations, "locations.csv", "location_id", "location_name"),
	dimension(Portals, "job_via.csv", "portal_id", "portal_name"),
	dimension(Schedules, "job_schedules.csv", "schedule_id", "schedule_type"),
	dimension(Skills, "job_skills.csv", "skill_id", "skill_name"),
	dimension(JobTitles, "job_titles.csv", "job_title_id", "job_title_name"),
	{
		Name: JobPostings,
		File: "job_postings.csv",
		Kind: Fact,
		Columns: []Column{
			{Name: "job_title_id", Type: Int, References: JobTitles},
			{Name: "job_title_full", Type: Text},
			{Name: "job_location_id", Type: Int, References: Locations},
			{Name: "portal_id", Type: Int, References: Portals},
			{Name: "schedule_id", Type: Int, References: Schedules},
			{Name: "work_from_home", Type: Bool},
			{Name: "search_location_id", Type: Int, References: Countries},
			{Name: "job_posted_date", Type: Timestamp},
			{Name: "no_degree_mention", Type: Bool},
			{Name: "health_insurance", Type: Bool},
			{Name: "job_country_id", Type: Int, References: Countries},
			{Name: "salary_rate", Type: Text, Nullable: true},
			{Name: "salary_year_avg", Type: Float, Nullable: true},
			{Name: "salary_hour_avg", Type: Float, Nullable: true},
			{Name: "company_id", Type: Int, References: Companies},
			{Name: "skill_id", Type: Int, References: Skills},
		},
	},
}

// All returns every table in load order: dimensions first, then the fact
// table.
func All() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// Dimensions returns the dimension tables in load order.
func Dimensions() []Spec {
	var out []Spec
	for _, s := range catalog {
		if s.Kind == Dimension {
			out = append(out, s)
		}
	}
	return out
}

// Lookup returns the spec of a table by name.
func Lookup(name string) (Spec, bool) {
	for _, s := range catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// Order returns the position of a table in load order, or -1.
func Order(name string) int {
	for i, s := range catalog {
		if s.Name == name {
			return i
		}
	}
	return -1
}
