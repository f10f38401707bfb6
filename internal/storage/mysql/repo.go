// Package mysql implements a MySQL repository on go-sql-driver/mysql. Rows are
// written with multi-row INSERT statements inside a transaction.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	myddl "salesetl/internal/storage/mysql/ddl"
)

// maxPlaceholders is the server-side limit on bind parameters per statement.
const maxPlaceholders = 65535

// Config holds MySQL repository configuration.
type Config struct {
	DSN   string // e.g. "user:pass@tcp(127.0.0.1:3306)/sales"
	Table string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NormalizeDSN parses dsn and forces parseTime so DATETIME columns round-trip
// as time.Time.
func NormalizeDSN(dsn string) (string, error) {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("mysql dsn: %w", err)
	}
	mc.ParseTime = true
	return mc.FormatDSN(), nil
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	dsn, err := NormalizeDSN(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// insertSQL renders INSERT INTO t (cols) VALUES (?,...),(?,...) for n rows.
func insertSQL(table string, columns []string, n int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = myddl.QuoteIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", myddl.QuoteFQN(table), strings.Join(quoted, ", "))
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(tuple)
	}
	return sb.String()
}

// chunkRows returns how many rows fit in one statement.
func chunkRows(columns int) int {
	if columns <= 0 {
		return 1
	}
	n := maxPlaceholders / columns
	if n < 1 {
		n = 1
	}
	return n
}

// CopyFrom inserts rows in as few statements as the placeholder limit allows,
// all inside one transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	var inserted int64
	step := chunkRows(len(columns))
	args := make([]any, 0, step*len(columns))
	for start := 0; start < len(rows); start += step {
		end := start + step
		if end > len(rows) {
			end = len(rows)
		}
		args = args[:0]
		for i, row := range rows[start:end] {
			if len(row) != len(columns) {
				_ = tx.Rollback()
				return 0, fmt.Errorf("mysql: CopyFrom: row %d length %d != columns length %d", start+i, len(row), len(columns))
			}
			args = append(args, row...)
		}
		res, err := tx.ExecContext(ctx, insertSQL(r.cfg.Table, columns, end-start), args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}
