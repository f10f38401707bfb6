package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesetl/internal/config"
	"salesetl/internal/metrics"
	"salesetl/internal/metrics/datadog"
	"salesetl/internal/metrics/prompush"

	// register all backends with the storage factory; the pipeline's
	// storage.kind picks one at runtime.
	_ "salesetl/internal/storage/all"
)

const (
	defaultPushgatewayURL = "http://localhost:9091"
	defaultMetricsBackend = "none"
)

// main is the entry point for the ETL binary. It loads the pipeline config
// (or the built-in defaults), optionally initializes a metrics backend, and
// executes the run.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogStatsDAddrFlg  string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "", "pipeline config JSON path (built-in defaults when empty)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend: none, pushgateway, datadog (overrides env METRICS_BACKEND)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogStatsDAddrFlg, "dogstatsd-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p, err := loadPipeline(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	p = applyEnv(p)

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fatalf("configuration is invalid: %v", describeConfig(cfgPath))
	}
	if validate {
		log.Printf("configuration is valid: %v", describeConfig(cfgPath))
		os.Exit(0)
	}

	backendName := firstNonEmpty(metricsBackendFlg, os.Getenv("METRICS_BACKEND"), defaultMetricsBackend)
	if setupMetrics(backendName, p.Job, pushGatewayURLFlg, dogStatsDAddrFlg, *verbose) {
		defer func() {
			if err := metrics.Flush(); err != nil {
				log.Printf("metrics: flush error: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if *verbose {
		log.Printf("pipeline: job=%s users=%s products=%s orders=%s order_items=%s output=%s storage=%q",
			p.Job, p.Sources.Users.Path, p.Sources.Products.Path, p.Sources.Orders.Path,
			p.Sources.OrderItems.Path, p.Output.Path, p.Storage.Kind)
	}

	if err := runPipeline(ctx, p); err != nil {
		log.Printf("ETL failed: %v", err)
		// Deferred flushes do not run on os.Exit.
		if ferr := metrics.Flush(); ferr != nil {
			log.Printf("metrics: flush error: %v", ferr)
		}
		os.Exit(1)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// loadPipeline decodes path, or returns config.Default() when path is empty.
func loadPipeline(path string) (config.Pipeline, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

// applyEnv lets ETL_READER_WORKERS and ETL_BATCH_SIZE override the file.
func applyEnv(p config.Pipeline) config.Pipeline {
	p.Runtime.ReaderWorkers = getenvInt("ETL_READER_WORKERS", p.Runtime.ReaderWorkers)
	p.Runtime.BatchSize = getenvInt("ETL_BATCH_SIZE", p.Runtime.BatchSize)
	return p
}

// setupMetrics installs the selected backend and reports whether one was
// installed (and therefore needs a flush).
func setupMetrics(backendName, job, gwFlag, ddFlag string, verbose bool) bool {
	switch backendName {
	case "pushgateway":
		gwURL := firstNonEmpty(gwFlag, os.Getenv("PUSHGATEWAY_URL"), defaultPushgatewayURL)
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return false
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, job)
		metrics.SetBackend(b)
		return true

	case "datadog":
		addr := firstNonEmpty(ddFlag, os.Getenv("DOGSTATSD_ADDR"), datadog.DefaultAddr)
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			GlobalTags: []string{"job:" + job, "service:sales-etl"},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return false
		}
		log.Printf("metrics: addr=%v, backend=%v, job_name=%v", addr, backendName, job)
		metrics.SetBackend(b)
		return true

	case "none":
		if verbose {
			log.Printf("metrics: disabled")
		}
		return false

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
		return false
	}
}

func describeConfig(path string) string {
	if path == "" {
		return "(built-in defaults)"
	}
	return path
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
