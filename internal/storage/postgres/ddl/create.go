package ddl

import (
	"context"
	"strings"

	gddl "salesetl/internal/ddl"
	"salesetl/internal/storage"
)

// QuoteIdent double-quotes a single identifier segment, escaping embedded
// quotes.
func QuoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// QuoteFQN quotes a possibly schema-qualified name segment by segment.
// Empty segments are dropped: ".public..sales." -> "public"."sales".
func QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, QuoteIdent(p))
		}
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQL renders CREATE TABLE IF NOT EXISTS with Postgres
// quoting.
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
