// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and HistogramVec collectors.
//   - Mapping the pipeline labels (step, status, kind) onto Prometheus labels;
//     the job label becomes the Pushgateway grouping key.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead of
//     exposing an HTTP scrape endpoint.
//
// A run is a short-lived batch job, so metrics are pushed once at the end of
// the run (Flush) rather than scraped.
package prompush

import (
	"fmt"

	"salesetl/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // metrics.StepTotal
	stepDuration *prometheus.SummaryVec // metrics.StepDurationSeconds

	recordCounter *prometheus.CounterVec // metrics.RecordsTotal
	batchCounter  prometheus.Counter     // metrics.BatchesTotal

	// lastRun is set to the push time on every Flush.
	lastRun prometheus.Gauge
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often same as pipeline job).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "sales_etl"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline step executions (load, transform, write, publish) by status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDurationSeconds,
			Help:       "Duration of pipeline steps in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)

	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Record-level counts per kind (order_items, fact_rows, unmatched_orders, published, ...).",
		},
		[]string{"kind"},
	)

	batchCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Bulk-load batches written while publishing the fact table.",
		},
	)
	lastRun := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sales_etl_last_push_timestamp_seconds",
			Help: "Unix time of the last metrics push for this job.",
		},
	)

	if err := reg.Register(stepCounter); err != nil {
		return nil, fmt.Errorf("prompush: register step counter: %w", err)
	}
	if err := reg.Register(stepDuration); err != nil {
		return nil, fmt.Errorf("prompush: register step summary: %w", err)
	}
	if err := reg.Register(recordCounter); err != nil {
		return nil, fmt.Errorf("prompush: register record counter: %w", err)
	}
	if err := reg.Register(batchCounter); err != nil {
		return nil, fmt.Errorf("prompush: register batch counter: %w", err)
	}
	if err := reg.Register(lastRun); err != nil {
		return nil, fmt.Errorf("prompush: register last push gauge: %w", err)
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
		recordCounter: recordCounter,
		batchCounter:  batchCounter,
		lastRun:       lastRun,
	}, nil
}

// IncCounter implements metrics.Backend. Unknown metric names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		step := labels["step"]
		status := labels["status"]
		b.stepCounter.WithLabelValues(step, status).Add(delta)

	case metrics.RecordsTotal:
		if b.recordCounter == nil {
			return
		}
		kind := labels["kind"]
		b.recordCounter.WithLabelValues(kind).Add(delta)

	case metrics.BatchesTotal:
		if b.batchCounter == nil {
			return
		}
		b.batchCounter.Add(delta)

	default:
		// unknown metric name: ignore
	}
}

// ObserveHistogram implements metrics.Backend for the step duration summary.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDurationSeconds || b.stepDuration == nil {
		return
	}
	step := labels["step"]
	status := labels["status"]
	b.stepDuration.WithLabelValues(step, status).Observe(value)
}

// Flush pushes the current registry to the Pushgateway, replacing the
// previous push for the same job.
func (b *Backend) Flush() error {
	if b.lastRun != nil {
		b.lastRun.SetToCurrentTime()
	}
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
