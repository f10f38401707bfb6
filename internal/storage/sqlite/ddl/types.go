// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import "strings"

// MapType maps a logical kind ("int", "float", "text", "timestamp") into a
// SQLite column type.
//
// SQLite is dynamically typed, so this mapping picks canonical affinities:
//   - integer-ish types -> INTEGER
//   - floating point    -> REAL
//   - date/time         -> TEXT (the driver writes ISO-8601 strings)
//   - others            -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "INTEGER"
	case "bool", "boolean":
		return "INTEGER" // 0/1
	case "float", "double", "real":
		return "REAL"
	case "numeric", "decimal":
		return "NUMERIC"
	default:
		return "TEXT"
	}
}
