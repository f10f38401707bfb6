// Package datadog implements a Datadog backend for the metrics package.
//
// This package adapts the generic metrics.Backend interface to Datadog's
// DogStatsD protocol using the official statsd client library. It translates
// metric labels into Datadog tags and forwards counter and histogram
// observations to a local or remote Datadog agent.
package datadog

import (
	"fmt"
	"sort"

	"github.com/DataDog/datadog-go/v5/statsd"

	"salesetl/internal/metrics"
)

// DefaultAddr is the agent address used when none is configured.
const DefaultAddr = "127.0.0.1:8125"

// Config holds Datadog backend configuration.
type Config struct {
	// Addr is the DogStatsD address, e.g. "127.0.0.1:8125" or "unix:///path/to/socket".
	Addr string

	// Namespace is an optional prefix added to all metric names, e.g. "etl.".
	Namespace string

	// GlobalTags are tags applied to all metrics emitted by this backend,
	// e.g. []string{"env:prod","service:sales-etl"}.
	GlobalTags []string
}

// Backend is a Datadog implementation of metrics.Backend.
//
// It wraps a statsd client and maps metric names and labels to Datadog
// metric names and tags. The same Backend instance is intended to be
// installed as the global metrics backend via metrics.SetBackend.
type Backend struct {
	client statsd.ClientInterface
}

// newClient is a test seam.
var newClient = func(addr string, opts ...statsd.Option) (statsd.ClientInterface, error) {
	return statsd.New(addr, opts...)
}

// NewBackend constructs a Datadog metrics backend from the given configuration.
// An empty Addr falls back to DefaultAddr.
func NewBackend(cfg Config) (*Backend, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	var opts []statsd.Option
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}

	c, err := newClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{client: c}, nil
}

// IncCounter implements metrics.Backend.IncCounter using a Datadog Count metric.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	// DogStatsD Count expects an int64; fractional deltas are truncated.
	_ = b.client.Count(name, int64(delta), labelsToTags(labels), 1)
}

// ObserveHistogram implements metrics.Backend.ObserveHistogram using a Datadog Histogram metric.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	_ = b.client.Histogram(name, value, labelsToTags(labels), 1)
}

// Flush implements metrics.Backend.Flush. The run ends after the flush, so
// the client is closed as well.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	if err := b.client.Flush(); err != nil {
		return fmt.Errorf("datadog: flush: %w", err)
	}
	return b.client.Close()
}

// labelsToTags converts labels into sorted Datadog tag strings "key:value".
func labelsToTags(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	out := make([]string, 0, len(lbls))
	for k, v := range lbls {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}
