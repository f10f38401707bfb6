// Package config provides configuration models and helpers for ETL pipelines.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "sources.orders.path"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline and does not touch the filesystem: missing
// input files are reported at load time, not here.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSources(p.Sources, p.Output)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateTransform(p.Transform)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

// validateSources requires every input path and rejects an output path that
// would overwrite one of the inputs.
func validateSources(s Sources, out Output) []Issue {
	var issues []Issue

	named := []struct {
		key  string
		path string
	}{
		{"users", s.Users.Path},
		{"products", s.Products.Path},
		{"orders", s.Orders.Path},
		{"order_items", s.OrderItems.Path},
	}

	seen := map[string]string{}
	for _, n := range named {
		p := fmt.Sprintf("sources.%s.path", n.key)
		if strings.TrimSpace(n.path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     p,
				Message:  "source path must not be empty",
			})
			continue
		}
		clean := filepath.Clean(n.path)
		if prev, dup := seen[clean]; dup {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     p,
				Message:  fmt.Sprintf("same file as sources.%s.path", prev),
			})
		}
		seen[clean] = n.key

		if out.Path != "" && filepath.Clean(out.Path) == clean {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.path",
				Message:  fmt.Sprintf("output would overwrite sources.%s.path", n.key),
			})
		}
	}
	return issues
}

// validateParser validates parser configuration.
func validateParser(p Parser) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  "parser.kind must not be empty",
		})
		return issues
	}
	if p.Kind != "csv" && p.Kind != "json" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q; want csv or json", p.Kind),
		})
		return issues
	}
	if p.Kind == "json" {
		return issues
	}

	if c := p.Options.String("comma", ","); utf8.RuneCountInString(c) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", c),
		})
	}
	return issues
}

// validateTransform checks the join/derive knobs.
func validateTransform(t Transform) []Issue {
	var issues []Issue

	for i, l := range t.DateLayouts {
		if strings.TrimSpace(l) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("transform.date_layouts[%d]", i),
				Message:  "date layout must not be empty",
			})
		}
	}
	if t.ShippingThreshold != nil {
		v := *t.ShippingThreshold
		if math.IsNaN(v) || math.IsInf(v, 0) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "transform.shipping_threshold",
				Message:  "shipping_threshold must be a finite number",
			})
		} else if v < 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "transform.shipping_threshold",
				Message:  "negative shipping_threshold flags every row with a known shipping cost",
			})
		}
	}
	return issues
}

// validateOutput validates the CSV writer settings.
func validateOutput(o Output) []Issue {
	var issues []Issue

	if strings.TrimSpace(o.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.path",
			Message:  "output.path must not be empty",
		})
	}
	if o.Comma != "" && utf8.RuneCountInString(o.Comma) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", o.Comma),
		})
	}
	return issues
}

// validateStorage validates the optional DB sink. An empty kind disables it.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		return nil
	}

	known := map[string]struct{}{
		"postgres": {},
		"mysql":    {},
		"mssql":    {},
		"sqlite":   {},
		"kafka":    {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "storage.db.table must not be empty",
		})
	}
	if s.Kind == "kafka" && s.DB.AutoCreateTable {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.auto_create_table",
			Message:  "auto_create_table is not supported for kafka; create the topic beforehand",
		})
	}
	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.ReaderWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.reader_workers",
			Message:  "reader_workers must not be negative",
		})
	}
	if r.ReaderWorkers > 4 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.reader_workers",
			Message:  fmt.Sprintf("reader_workers=%d; there are only four sources", r.ReaderWorkers),
		})
	}
	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	return issues
}
