package tables

import (
	"fmt"
	"strings"
)

// Dialect selects the SQL flavor for generated DDL.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) columnType(t ColumnType) string {
	switch t {
	case Int:
		return "INTEGER"
	case Bool:
		return "BOOLEAN"
	case Timestamp:
		return "TIMESTAMP"
	case Float:
		if d == Postgres {
			return "DOUBLE PRECISION"
		}
		return "REAL"
	default:
		return "TEXT"
	}
}

// CreateTable returns a CREATE TABLE IF NOT EXISTS statement for s.
func (s Spec) CreateTable(d Dialect) string {
	defs := make([]string, 0, len(s.Columns)*2)
	for _, c := range s.Columns {
		def := fmt.Sprintf("%s %s", QuoteIdent(c.Name), d.columnType(c.Type))
		if c.PrimaryKey {
			def += " PRIMARY KEY"
		} else if !c.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	for _, c := range s.Columns {
		if c.References == "" {
			continue
		}
		ref, ok := Lookup(c.References)
		if !ok {
			continue
		}
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			QuoteIdent(c.Name), QuoteIdent(ref.Name), QuoteIdent(ref.IDColumn())))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		QuoteIdent(s.Name), strings.Join(defs, ",\n\t"))
}

// Schema returns the CREATE statements for every table in load order.
func Schema(d Dialect) []string {
	stmts := make([]string, len(catalog))
	for i, s := range catalog {
		stmts[i] = s.CreateTable(d)
	}
	return stmts
}

// QuoteIdent quotes an SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
