// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the sales ETL.
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - Concrete metric systems live in subpackages (prompush, datadog) and are
//     selected by the binary at startup.
package metrics

import "time"

// Metric names emitted by the helpers below. Backends switch on these.
const (
	StepTotal           = "sales_etl_step_total"
	StepDurationSeconds = "sales_etl_step_duration_seconds"
	RecordsTotal        = "sales_etl_records_total"
	BatchesTotal        = "sales_etl_batches_total"
)

// Pipeline steps, used as the "step" label.
const (
	StepLoad      = "load"
	StepTransform = "transform"
	StepWrite     = "write"
	StepPublish   = "publish"
)

// Record kinds, used as the "kind" label of RecordsTotal.
const (
	KindOrderItems         = "order_items"
	KindFactRows           = "fact_rows"
	KindParseErrors        = "parse_errors"
	KindDateParseFailures  = "date_parse_failures"
	KindUnmatchedOrders    = "unmatched_orders"
	KindUnmatchedProducts  = "unmatched_products"
	KindUnmatchedUsers     = "unmatched_users"
	KindDuplicateKeyFanout = "duplicate_key_fanout"
	KindPublished          = "published"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure for one pipeline step.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind
// (one of the Kind* constants). Non-positive deltas are dropped.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments the publish batch counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}
