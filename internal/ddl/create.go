// Package ddl defines a small, backend-agnostic model for SQL DDL and helpers
// to render simple CREATE TABLE statements from that model.
//
// Dialect specifics stay with the storage backends: they supply a Quoter for
// identifiers and a type mapper for logical column kinds, and decide whether
// the IF NOT EXISTS clause is available.
package ddl

import (
	"fmt"
	"strings"

	"salesetl/internal/table"
)

// BuildCreateTableSQL renders a CREATE TABLE statement from a TableDef.
//
// Rules:
//
//   - t.FQN must be non-empty; it is rendered through quoteTable.
//
//   - Each column must have a non-empty Name and SQLType.
//
//   - A column is rendered as:
//
//     <quoteColumn(Name)> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
//   - Columns with PrimaryKey == true are collected into a trailing
//     PRIMARY KEY (...) clause.
//
// Nil quoters emit identifiers verbatim.
func BuildCreateTableSQL(t TableDef, quoteTable, quoteColumn Quoter) (string, error) {
	if quoteTable == nil {
		quoteTable = Verbatim
	}
	if quoteColumn == nil {
		quoteColumn = Verbatim
	}
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(quoteColumn(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quoteColumn(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	create := "CREATE TABLE "
	if t.IfNotExists {
		create = "CREATE TABLE IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (\n  %s\n);", create, quoteTable(fqn), strings.Join(cols, ",\n  ")), nil
}

// FromTable derives a TableDef from t's columns and kinds. mapType turns a
// logical kind name ("int", "float", "text", "timestamp") into the backend
// type. Every column is nullable since left joins leave gaps.
func FromTable(t *table.Table, fqn string, mapType func(logical string) string) TableDef {
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, len(t.Columns))}
	for i, name := range t.Columns {
		def.Columns[i] = ColumnDef{
			Name:     name,
			SQLType:  mapType(t.Kinds[i].String()),
			Nullable: true,
		}
	}
	return def
}
