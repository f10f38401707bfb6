// Package publish loads the fact table into the configured database backend.
// It is optional: a pipeline without storage.kind only writes the CSV.
package publish

import (
	"context"
	"fmt"
	"log"
	"math"

	"salesetl/internal/config"
	"salesetl/internal/ddl"
	"salesetl/internal/metrics"
	"salesetl/internal/storage"
	"salesetl/internal/table"
)

// Enabled reports whether cfg asks for a database publish.
func Enabled(cfg config.Pipeline) bool { return cfg.Storage.Kind != "" }

// Publish writes every row of fact into cfg.Storage.DB.Table and returns the
// number of rows the backend reported as inserted. When AutoCreateTable is
// set, the destination table is created from fact's column kinds first.
func Publish(ctx context.Context, cfg config.Pipeline, fact *table.Table) (int64, error) {
	sc := storage.Config{
		Kind:    cfg.Storage.Kind,
		DSN:     cfg.Storage.DB.DSN,
		Table:   cfg.Storage.DB.Table,
		Columns: fact.Columns,
	}
	repo, err := storage.New(ctx, sc)
	if err != nil {
		return 0, fmt.Errorf("open storage: %w", err)
	}
	defer repo.Close()

	if cfg.Storage.DB.AutoCreateTable {
		mapType, err := storage.MapperFor(sc.Kind)
		if err != nil {
			return 0, err
		}
		def := ddl.FromTable(fact, sc.Table, mapType)
		if err := storage.EnsureTable(ctx, sc.Kind, repo, def); err != nil {
			return 0, fmt.Errorf("ensure table %s: %w", sc.Table, err)
		}
		log.Printf("publish: ensured table=%s kind=%s columns=%d", sc.Table, sc.Kind, len(def.Columns))
	}

	batchSize := cfg.Runtime.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}

	var batches int64
	copyFn := func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
		batches++
		return repo.CopyFrom(ctx, columns, rows)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	in := storage.Produce(ctx, dbRows(fact), batchSize)

	n, err := storage.LoadBatches(ctx, fact.Columns, in, batchSize, copyFn)
	metrics.RecordBatches(cfg.Job, batches)
	if err != nil {
		return n, fmt.Errorf("publish to %s: %w", sc.Table, err)
	}
	log.Printf("publish: table=%s kind=%s rows=%d batches=%d", sc.Table, sc.Kind, n, batches)
	return n, nil
}

// dbRows returns the row values with NaN replaced by nil, since drivers
// reject NaN for numeric columns.
func dbRows(t *table.Table) [][]any {
	out := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]any, len(r.V))
		for j, v := range r.V {
			if f, ok := v.(float64); ok && math.IsNaN(f) {
				v = nil
			}
			row[j] = v
		}
		out[i] = row
	}
	return out
}
