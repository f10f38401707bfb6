package config

import (
	"reflect"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// Pipeline decoding tests
// -----------------------------------------------------------------------------
//
// These tests validate that the Pipeline JSON structure decodes into the
// intended Go struct graph and that defaults reproduce the classic run.

func TestDecode_FullPipeline(t *testing.T) {
	t.Parallel()

	const js = `{
	  "job": "nightly",
	  "sources": {
	    "users":       { "path": "in/u.csv" },
	    "products":    { "path": "in/p.csv" },
	    "orders":      { "path": "in/o.csv" },
	    "order_items": { "path": "in/oi.csv" }
	  },
	  "parser": { "kind": "csv", "options": { "comma": ";", "header_map": { "Order ID": "order_id" } } },
	  "transform": { "shipping_threshold": 55.5, "date_layouts": ["02.01.2006"] },
	  "output": { "path": "out/fact.csv" },
	  "storage": { "kind": "sqlite", "db": { "dsn": "f.db", "table": "fact_sales", "auto_create_table": true } },
	  "runtime": { "reader_workers": 2, "batch_size": 100 }
	}`

	p, err := Decode(strings.NewReader(js))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	if p.Job != "nightly" {
		t.Errorf("Job = %q", p.Job)
	}
	if p.Sources.OrderItems.Path != "in/oi.csv" || p.Sources.Users.Path != "in/u.csv" {
		t.Errorf("Sources = %+v", p.Sources)
	}
	if got := p.Parser.Options.Rune("comma", ','); got != ';' {
		t.Errorf("comma = %q, want ';'", got)
	}
	if got := p.Parser.Options.StringMap("header_map"); got["Order ID"] != "order_id" {
		t.Errorf("header_map = %v", got)
	}
	if got := p.Transform.Threshold(); got != 55.5 {
		t.Errorf("Threshold = %v, want 55.5", got)
	}
	if !reflect.DeepEqual(p.Transform.DateLayouts, []string{"02.01.2006"}) {
		t.Errorf("DateLayouts = %v", p.Transform.DateLayouts)
	}
	if p.Output.Path != "out/fact.csv" || p.Output.Comma != "," {
		t.Errorf("Output = %+v", p.Output)
	}
	if p.Storage.Kind != "sqlite" || !p.Storage.DB.AutoCreateTable || p.Storage.DB.Table != "fact_sales" {
		t.Errorf("Storage = %+v", p.Storage)
	}
	if p.Runtime.ReaderWorkers != 2 || p.Runtime.BatchSize != 100 {
		t.Errorf("Runtime = %+v", p.Runtime)
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader(`{"job":"x","sourcez":{}}`))
	if err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestDefault_MatchesClassicRun(t *testing.T) {
	t.Parallel()

	p := Default()

	want := map[string]string{
		"users":       "users.csv",
		"products":    "products.csv",
		"orders":      "orders.csv",
		"order_items": "order_items.csv",
	}
	if got := p.Sources.SourcePaths(); !reflect.DeepEqual(got, want) {
		t.Fatalf("SourcePaths = %v, want %v", got, want)
	}
	if p.Output.Path != "cleaned_sales_data.csv" {
		t.Fatalf("Output.Path = %q", p.Output.Path)
	}
	if p.Transform.Threshold() != 40 {
		t.Fatalf("Threshold = %v, want 40", p.Transform.Threshold())
	}
	if p.Parser.Kind != "csv" || p.Runtime.ReaderWorkers != 1 {
		t.Fatalf("unexpected defaults: parser=%q readers=%d", p.Parser.Kind, p.Runtime.ReaderWorkers)
	}
	if len(p.Transform.DateLayouts) != len(DefaultDateLayouts) {
		t.Fatalf("DateLayouts not defaulted")
	}
	if p.Storage.Kind != "" {
		t.Fatalf("publishing must be off by default")
	}
}

func TestWithDefaults_ZeroThresholdIsKept(t *testing.T) {
	t.Parallel()

	zero := 0.0
	p := Pipeline{Transform: Transform{ShippingThreshold: &zero}}.WithDefaults()
	if p.Transform.Threshold() != 0 {
		t.Fatalf("explicit zero threshold replaced by default: %v", p.Transform.Threshold())
	}
}

// -----------------------------------------------------------------------------
// Options helper tests
// -----------------------------------------------------------------------------

func TestOptions_TypedGetters(t *testing.T) {
	t.Parallel()

	o := Options{
		"s":   "x",
		"b":   true,
		"n":   float64(3),
		"r":   "|",
		"m":   map[string]any{"A": "a", "B": 1},
		"bad": []any{1},
	}

	if got := o.String("s", "d"); got != "x" {
		t.Errorf("String = %q", got)
	}
	if got := o.String("bad", "d"); got != "d" {
		t.Errorf("String on wrong type = %q, want default", got)
	}
	if got := o.Bool("b", false); !got {
		t.Errorf("Bool = %v", got)
	}
	if got := o.Int("n", 0); got != 3 {
		t.Errorf("Int = %d", got)
	}
	if got := o.Rune("r", ','); got != '|' {
		t.Errorf("Rune = %q", got)
	}
	if got := o.Rune("missing", ','); got != ',' {
		t.Errorf("Rune default = %q", got)
	}
	if got := o.StringMap("m"); !reflect.DeepEqual(got, map[string]string{"A": "a"}) {
		t.Errorf("StringMap = %v", got)
	}
	if o.Any("missing") != nil {
		t.Errorf("Any(missing) should be nil")
	}
}

func TestOptions_NullDecodesToEmptyMap(t *testing.T) {
	t.Parallel()

	p, err := Decode(strings.NewReader(`{"parser":{"kind":"csv","options":null}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Parser.Options == nil {
		t.Fatalf("Options is nil, want empty map")
	}
}
