// Package sqlite publishes the fact table into a SQLite database through
// database/sql and the pure-Go modernc.org/sqlite driver. Rows go in as
// multi-row INSERTs inside one transaction per batch.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	sqliteddl "salesetl/internal/storage/sqlite/ddl"
)

// TimeLayout is how time values are stored. SQLite date functions
// (date(), strftime()) read this form directly.
const TimeLayout = "2006-01-02 15:04:05"

// maxVars stays under SQLITE_MAX_VARIABLE_NUMBER for older builds (999).
const maxVars = 999

type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens cfg.DSN ("sales.db", "file:sales.db?_pragma=busy_timeout(5000)",
// ":memory:") and pings it. The pool is pinned to one connection: SQLite
// has a single writer, and ":memory:" databases exist per connection.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping %s: %w", cfg.DSN, err)
	}
	return &Repository{db: db, cfg: cfg}, func() { db.Close() }, nil
}

// CopyFrom inserts rows in one transaction. Every row must have
// len(columns) values.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: no columns")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("sqlite: row %d has %d values, want %d", i, len(row), len(columns))
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	per := maxVars / len(columns)
	if per < 1 {
		per = 1
	}
	args := make([]any, 0, per*len(columns))
	var inserted int64
	for start := 0; start < len(rows); start += per {
		chunk := rows[start:min(start+per, len(rows))]
		args = args[:0]
		for _, row := range chunk {
			for _, v := range row {
				args = append(args, bindValue(v))
			}
		}
		res, err := tx.ExecContext(ctx, insertSQL(r.cfg.Table, columns, len(chunk)), args...)
		if err != nil {
			return 0, fmt.Errorf("sqlite: insert rows %d-%d: %w", start, start+len(chunk)-1, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// Exec runs one statement, typically DDL. Blank statements are a no-op.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

func insertSQL(table string, columns []string, nrows int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = sqliteddl.QuoteIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", sqliteddl.QuoteFQN(table), strings.Join(quoted, ", "))
	for i := 0; i < nrows; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(tuple)
	}
	return b.String()
}

func bindValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(TimeLayout)
	}
	return v
}
