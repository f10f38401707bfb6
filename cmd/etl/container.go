package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"salesetl/internal/config"
	"salesetl/internal/datasource/file"
	"salesetl/internal/extract"
	"salesetl/internal/metrics"
	csvparser "salesetl/internal/parser/csv"
	"salesetl/internal/publish"
	"salesetl/internal/table"
	"salesetl/internal/transformer"
)

// parseErrorSampleLimit bounds how many distinct parse messages are kept for
// the end-of-run summary.
const parseErrorSampleLimit = 20

// Stage seams; tests replace them to inject failures.
var (
	loadFn    = extract.Load
	buildFn   = transformer.BuildFact
	publishFn = publish.Publish
	newRunID  = uuid.NewString
)

// runPipeline executes load -> transform -> write and, when storage.kind is
// set, publish. Nothing is written when load or transform fail.
func runPipeline(ctx context.Context, spec config.Pipeline) error {
	job, runID := spec.Job, newRunID()
	log.Printf("etl: start job=%s run_id=%s", job, runID)
	parseAgg := newErrAgg(parseErrorSampleLimit)
	onErr := func(line int, err error) {
		parseAgg.add(fmt.Sprintf("line %d: %v", line, err))
	}
	defer logParseSummary(job, parseAgg)

	// 1) Load.
	t0 := time.Now()
	src, err := loadFn(ctx, spec, onErr)
	metrics.RecordStep(job, metrics.StepLoad, err, time.Since(t0))
	if err != nil {
		var nf *extract.SourceNotFoundError
		if errors.As(err, &nf) {
			return fmt.Errorf("load: missing input files %s: %w", strings.Join(nf.Paths, ", "), err)
		}
		return fmt.Errorf("load: %w", err)
	}
	metrics.RecordRow(job, metrics.KindOrderItems, int64(src.OrderItems.Len()))
	metrics.RecordRow(job, metrics.KindDateParseFailures, int64(src.DateParseFailures))

	// 2) Transform.
	t0 = time.Now()
	fact, st, err := buildFn(src, transformer.FactOptions{ShippingThreshold: spec.Transform.Threshold()})
	metrics.RecordStep(job, metrics.StepTransform, err, time.Since(t0))
	if err != nil {
		return err
	}
	recordFactStats(job, st)

	// 3) Write.
	t0 = time.Now()
	err = writeOutput(ctx, spec.Output, spec.Transform.OutputDateLayout, fact)
	metrics.RecordStep(job, metrics.StepWrite, err, time.Since(t0))
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	log.Printf("write: path=%s rows=%d cols=%d", spec.Output.Path, fact.Len(), len(fact.Columns))

	// 4) Publish (optional).
	if publish.Enabled(spec) {
		t0 = time.Now()
		n, err := publishFn(ctx, spec, fact)
		metrics.RecordStep(job, metrics.StepPublish, err, time.Since(t0))
		metrics.RecordRow(job, metrics.KindPublished, n)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
	}

	log.Printf("summary: run_id=%s order_items=%d fact_rows=%d parse_errors=%d date_parse_failures=%d missing_order_dates=%d",
		runID, st.OrderItems, st.Rows, parseAgg.total(), src.DateParseFailures, st.MissingOrderDates)
	log.Printf("--- ETL SUCCESS! Final dataset saved to %s ---", spec.Output.Path)
	return nil
}

// writeOutput writes fact to out.Path through a temp file that is renamed
// into place only after a complete write.
func writeOutput(ctx context.Context, out config.Output, timeLayout string, fact *table.Table) error {
	pending, err := file.NewLocal(out.Path).Create(ctx)
	if err != nil {
		return err
	}
	comma, _ := utf8.DecodeRuneInString(out.Comma)
	if err := csvparser.WriteTable(pending, fact, csvparser.WriteOptions{Comma: comma, TimeLayout: timeLayout}); err != nil {
		pending.Abort()
		return err
	}
	return pending.Commit()
}

func recordFactStats(job string, st transformer.FactStats) {
	metrics.RecordRow(job, metrics.KindFactRows, int64(st.Rows))
	metrics.RecordRow(job, metrics.KindUnmatchedOrders, int64(st.UnmatchedOrders))
	metrics.RecordRow(job, metrics.KindUnmatchedProducts, int64(st.UnmatchedProducts))
	metrics.RecordRow(job, metrics.KindUnmatchedUsers, int64(st.UnmatchedUsers))
	metrics.RecordRow(job, metrics.KindDuplicateKeyFanout, int64(st.DuplicateKeyFanout))
}

// logParseSummary prints the aggregated parse errors. Only the first N
// messages (per errAgg) are shown.
func logParseSummary(job string, agg *errAgg) {
	n, distinct := agg.total(), agg.distinct()
	if n == 0 {
		return
	}
	first := agg.sample()
	log.Printf("parse errors: %d distinct=%d (showing first %d)", n, distinct, len(first))
	for i, s := range first {
		log.Printf("  #%03d: %s", i+1, s)
	}
	metrics.RecordRow(job, metrics.KindParseErrors, int64(n))
}

// errAgg aggregates per-row errors; onErr callbacks may arrive from several
// reader goroutines.
type errAgg struct {
	mu      sync.Mutex
	limit   int
	count   int
	first   []string
	buckets map[string]int
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit, buckets: make(map[string]int)}
}

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	a.buckets[msg]++
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

func (a *errAgg) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

func (a *errAgg) distinct() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buckets)
}

func (a *errAgg) sample() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.first...)
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("config: ignoring %s=%q (want a positive integer)", k, v)
	}
	return def
}
