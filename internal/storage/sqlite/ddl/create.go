package ddl

import (
	"context"
	"strings"

	gddl "salesetl/internal/ddl"
	"salesetl/internal/storage"
)

// QuoteIdent double-quotes an identifier, escaping embedded quotes.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteFQN quotes each dotted segment of a table name ("main.fact_sales").
func QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQL returns a SQLite CREATE TABLE IF NOT EXISTS statement
// for def.
func BuildCreateTableSQL(def gddl.TableDef) (string, error) {
	def.IfNotExists = true
	return gddl.BuildCreateTableSQL(def, QuoteFQN, QuoteIdent)
}

// EnsureTable creates the target table if it does not exist.
func EnsureTable(ctx context.Context, repo storage.Repository, def gddl.TableDef) error {
	sql, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}
