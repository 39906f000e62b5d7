package ddl

import "strings"

// ColumnDef is one column of a table definition. Name is unquoted; quoting
// happens at render time through the Dialect.
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef holds a dotted table name (e.g. "schema.table") and its columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect captures the few places SQL backends disagree on CREATE TABLE.
type Dialect struct {
	// Quote escapes a single identifier part.
	Quote func(ident string) string
	// TextType is the unbounded character type, e.g. TEXT or NVARCHAR(MAX).
	TextType string
	// IfNotExists selects "CREATE TABLE IF NOT EXISTS". Dialects without it
	// set Guard instead.
	IfNotExists bool
	// Guard wraps the statement so it only runs when the table is missing.
	Guard func(fqn, quotedFQN, stmt string) string
}

// QuoteFQN quotes every dotted part of name.
func (d Dialect) QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.quote(p)
	}
	return strings.Join(parts, ".")
}

func (d Dialect) quote(s string) string {
	if d.Quote == nil {
		return s
	}
	return d.Quote(s)
}

// TextTable builds a definition in which every column is a nullable text
// column of the dialect's TextType.
func TextTable(table string, columns []string, d Dialect) TableDef {
	td := TableDef{FQN: table, Columns: make([]ColumnDef, len(columns))}
	for i, c := range columns {
		td.Columns[i] = ColumnDef{Name: c, SQLType: d.TextType, Nullable: true}
	}
	return td
}
