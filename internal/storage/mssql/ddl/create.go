package ddl

import (
	"context"
	"fmt"
	"strings"

	gddl "salesetl/internal/ddl"
	"salesetl/internal/storage"
)

// BuildCreateTableSQL returns a T-SQL script that creates the table unless it
// already exists. T-SQL has no CREATE TABLE IF NOT EXISTS, so the statement
// is wrapped in an OBJECT_ID guard:
//
//	IF OBJECT_ID(N'[dbo].[fact_sales]', N'U') IS NULL
//	BEGIN
//	CREATE TABLE [dbo].[fact_sales] (
//	  [col1] TYPE,
//	  ...
//	);
//	END;
func BuildCreateTableSQL(def gddl.TableDef) (string, error) {
	def.IfNotExists = false
	create, err := gddl.BuildCreateTableSQL(def, QuoteFQN, QuoteIdent)
	if err != nil {
		return "", err
	}
	fqn := strings.ReplaceAll(QuoteFQN(strings.TrimSpace(def.FQN)), "'", "''")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n%s\nEND;", fqn, create), nil
}

// EnsureTable creates the target table if it does not already exist.
func EnsureTable(ctx context.Context, repo storage.Repository, def gddl.TableDef) error {
	sql, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}

// QuoteIdent quotes a single identifier using bracket syntax, escaping
// closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// QuoteFQN quotes a possibly schema-qualified table name:
//
//	"dbo.fact_sales" -> [dbo].[fact_sales]
//	"fact_sales"     -> [fact_sales]
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
