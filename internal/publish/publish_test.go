package publish

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"salesetl/internal/config"
	"salesetl/internal/ddl"
	"salesetl/internal/storage"
	"salesetl/internal/table"
)

// memRepo collects rows in memory and records DDL.
type memRepo struct {
	mu      sync.Mutex
	rows    [][]any
	execs   []string
	failAt  int
	closed  bool
	batches int
}

func (m *memRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	if m.failAt > 0 && m.batches == m.failAt {
		return 0, errors.New("disk full")
	}
	for _, r := range rows {
		m.rows = append(m.rows, append([]any(nil), r...))
	}
	return int64(len(rows)), nil
}

func (m *memRepo) Exec(_ context.Context, sql string) error {
	m.execs = append(m.execs, sql)
	return nil
}

func (m *memRepo) Close() { m.closed = true }

// register installs a fresh memRepo under a kind unique to the test.
func register(t *testing.T, kind string, repo *memRepo) {
	t.Helper()
	storage.Register(kind, func(context.Context, storage.Config) (storage.Repository, error) {
		return repo, nil
	})
	storage.RegisterDDL(kind, strings.ToUpper, func(ctx context.Context, r storage.Repository, def ddl.TableDef) error {
		sql, err := ddl.BuildCreateTableSQL(def, nil, nil)
		if err != nil {
			return err
		}
		return r.Exec(ctx, sql)
	})
}

func factTable(n int) *table.Table {
	t := table.New("fact_sales", []string{"order_item_id", "net_sales"})
	t.Kinds = []table.Kind{table.KindInt, table.KindFloat}
	for i := 0; i < n; i++ {
		t.Append(i+2, []any{int64(i + 1), float64(i) * 1.5})
	}
	return t
}

func pipeline(kind string, batch int, autoCreate bool) config.Pipeline {
	cfg := config.Default()
	cfg.Storage.Kind = kind
	cfg.Storage.DB.Table = "fact_sales"
	cfg.Storage.DB.AutoCreateTable = autoCreate
	cfg.Runtime.BatchSize = batch
	return cfg
}

/*
TestPublish_BatchesAndCreatesTable covers the happy path: the table is
created once from the fact kinds, rows arrive in order and in batches.
*/
func TestPublish_BatchesAndCreatesTable(t *testing.T) {
	t.Parallel()

	repo := &memRepo{}
	register(t, "mem-happy", repo)

	fact := factTable(7)
	fact.Rows[3].V[1] = math.NaN()

	n, err := Publish(context.Background(), pipeline("mem-happy", 3, true), fact)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if n != 7 || len(repo.rows) != 7 {
		t.Fatalf("n=%d rows=%d, want 7", n, len(repo.rows))
	}
	if repo.batches != 3 {
		t.Fatalf("batches = %d, want 3", repo.batches)
	}
	if repo.rows[3][1] != nil {
		t.Fatalf("NaN not converted to nil: %v", repo.rows[3])
	}
	if len(repo.execs) != 1 || !strings.Contains(repo.execs[0], "order_item_id INT") || !strings.Contains(repo.execs[0], "net_sales FLOAT") {
		t.Fatalf("execs = %q", repo.execs)
	}
	if !repo.closed {
		t.Fatal("repository not closed")
	}
	if !math.IsNaN(fact.Rows[3].V[1].(float64)) {
		t.Fatal("fact table mutated")
	}
}

func TestPublish_NoAutoCreate(t *testing.T) {
	t.Parallel()

	repo := &memRepo{}
	register(t, "mem-nocreate", repo)

	if _, err := Publish(context.Background(), pipeline("mem-nocreate", 10, false), factTable(2)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(repo.execs) != 0 {
		t.Fatalf("unexpected DDL: %q", repo.execs)
	}
}

func TestPublish_CopyErrorStops(t *testing.T) {
	t.Parallel()

	repo := &memRepo{failAt: 2}
	register(t, "mem-fail", repo)

	n, err := Publish(context.Background(), pipeline("mem-fail", 2, false), factTable(6))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("err = %v, want disk full", err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2 (first batch only)", n)
	}
	if repo.batches != 2 {
		t.Fatalf("batches = %d, want 2", repo.batches)
	}
}

func TestPublish_UnknownKind(t *testing.T) {
	t.Parallel()

	_, err := Publish(context.Background(), pipeline("nope", 10, false), factTable(1))
	if err == nil || !strings.Contains(err.Error(), "unsupported storage.kind=nope") {
		t.Fatalf("err = %v", err)
	}
}

func TestEnabled(t *testing.T) {
	t.Parallel()

	if Enabled(config.Default()) {
		t.Fatal("default pipeline should not publish")
	}
	if !Enabled(pipeline("sqlite", 1, false)) {
		t.Fatal("storage.kind set: want enabled")
	}
}
