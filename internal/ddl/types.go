package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., TEXT, BIGINT, TIMESTAMPTZ)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., 'n/a', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the fully-qualified table name (FQN) and an ordered list of
// columns. The FQN is expected in dotted form (e.g., "schema.table").
type TableDef struct {
	FQN     string
	Columns []ColumnDef

	// IfNotExists renders CREATE TABLE IF NOT EXISTS. Dialects without the
	// clause ignore it and guard the statement themselves.
	IfNotExists bool
}

// Quoter renders an identifier (column name or FQN) in a dialect's quoting.
type Quoter func(ident string) string

// Verbatim emits identifiers unchanged.
func Verbatim(ident string) string { return ident }
