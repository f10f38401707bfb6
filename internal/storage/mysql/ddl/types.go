// Package ddl contains MySQL-specific helpers for generating DDL.
package ddl

import "strings"

// MapType maps a logical kind into a MySQL column type.
//
//	"int"       -> BIGINT
//	"float"     -> DOUBLE
//	"timestamp" -> DATETIME(6)
//	everything else -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "float", "double":
		return "DOUBLE"
	case "bool", "boolean":
		return "TINYINT(1)"
	case "date":
		return "DATE"
	case "timestamp", "datetime":
		return "DATETIME(6)"
	default:
		return "TEXT"
	}
}
