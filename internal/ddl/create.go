// Package ddl renders CREATE TABLE statements for the export backends from a
// small table model. Dialect differences are limited to identifier quoting,
// the text type and how "only if missing" is expressed.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders t for dialect d:
//
//	CREATE TABLE [IF NOT EXISTS] <fqn> (
//	  <col> <type> [NOT NULL],
//	  ...
//	)
//
// Column names must be non-empty and unique after trimming.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	seen := make(map[string]struct{}, len(t.Columns))
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		if _, dup := seen[name]; dup {
			return "", fmt.Errorf("ddl: duplicate column %s in table %s", name, fqn)
		}
		seen[name] = struct{}{}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		col := d.quote(name) + " " + typ
		if !c.Nullable {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}

	quoted := d.QuoteFQN(fqn)
	head := "CREATE TABLE "
	if d.IfNotExists {
		head += "IF NOT EXISTS "
	}
	stmt := fmt.Sprintf("%s%s (\n  %s\n)", head, quoted, strings.Join(cols, ",\n  "))
	if d.Guard != nil {
		stmt = d.Guard(fqn, quoted, stmt)
	}
	return stmt, nil
}
