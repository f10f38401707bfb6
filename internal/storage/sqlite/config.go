package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:sales.db?cache=shared"
	//   ":memory:"
	DSN string

	// Table is the target table name, e.g. "fact_sales". Dotted names such
	// as "main.fact_sales" are quoted segment by segment.
	Table string
}
