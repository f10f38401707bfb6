// Package ddl contains MSSQL-specific helpers for generating DDL.
package ddl

import "strings"

// MapType maps a logical kind into a SQL Server column type. Unknown or empty
// kinds fall back to NVARCHAR(MAX).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "BIT"
	case "float", "double":
		return "FLOAT"
	case "numeric", "decimal":
		return "DECIMAL(38, 10)"
	case "date":
		return "DATE"
	case "timestamp", "datetime":
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}
