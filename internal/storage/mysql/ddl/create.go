package ddl

import (
	"context"
	"strings"

	gddl "salesetl/internal/ddl"
	"salesetl/internal/storage"
)

// QuoteIdent backtick-quotes an identifier, doubling embedded backticks.
func QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// QuoteFQN quotes "db.table" segment by segment.
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

// BuildCreateTableSQL renders CREATE TABLE IF NOT EXISTS with MySQL quoting.
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
