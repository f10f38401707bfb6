// Package config defines the JSON-serializable configuration model for the
// sales fact-table ETL. Pipelines are decoded from disk with encoding/json and
// passed through the program without additional glue code.
//
// Every field has a default (see Default and Pipeline.WithDefaults) that
// reproduces the classic run: four CSV files in the working directory merged
// into cleaned_sales_data.csv.
//
// Example (trimmed):
//
//	{
//	  "job": "sales_fact",
//	  "sources": {
//	    "users":       { "path": "data/users.csv" },
//	    "products":    { "path": "data/products.csv" },
//	    "orders":      { "path": "data/orders.csv" },
//	    "order_items": { "path": "data/order_items.csv" }
//	  },
//	  "parser":    { "kind": "csv", "options": { "comma": ",", "trim_space": true } },
//	  "transform": { "shipping_threshold": 40, "date_layouts": ["2006-01-02"] },
//	  "output":    { "path": "cleaned_sales_data.csv" },
//	  "storage":   { "kind": "sqlite", "db": { "dsn": "sales.db", "table": "fact_sales", "auto_create_table": true } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Default file names used when a pipeline omits them.
const (
	DefaultUsersPath      = "users.csv"
	DefaultProductsPath   = "products.csv"
	DefaultOrdersPath     = "orders.csv"
	DefaultOrderItemsPath = "order_items.csv"
	DefaultOutputPath     = "cleaned_sales_data.csv"

	DefaultJob               = "sales_fact"
	DefaultShippingThreshold = 40.0
	DefaultOutputDateLayout  = "2006-01-02 15:04:05"
	DefaultBatchSize         = 5000
)

// DefaultDateLayouts are tried in order when leniently parsing order_date.
// The first layout that parses wins; a value no layout accepts becomes missing.
var DefaultDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"01.02.2006",
	"20060102",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run for metrics labeling and logs.
	Job string `json:"job"`

	// Sources locates the four input tables.
	Sources Sources `json:"sources"`

	// Parser configures how the CSV inputs are read.
	Parser Parser `json:"parser"`

	// Transform tunes the join/derive stage.
	Transform Transform `json:"transform"`

	// Output describes the fact-table CSV written at the end of a run.
	Output Output `json:"output"`

	// Storage optionally publishes the fact table into a database. An empty
	// Kind disables publishing.
	Storage Storage       `json:"storage"`
	Runtime RuntimeConfig `json:"runtime"`
}

// Sources holds one SourceFile per logical input table.
type Sources struct {
	Users      SourceFile `json:"users"`
	Products   SourceFile `json:"products"`
	Orders     SourceFile `json:"orders"`
	OrderItems SourceFile `json:"order_items"`
}

// SourceFile holds configuration for a local file source.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// Parser selects how to parse the raw source into rows/columns.
type Parser struct {
	// Kind selects the parser implementation: "csv" (default) or "json"
	// (a top-level array of objects, or one object per line).
	Kind string `json:"kind"`

	// Options is interpreted by the parser implementation. For CSV:
	//   comma (string), trim_space (bool), lazy_quotes (bool),
	//   header_map (object: source header -> canonical name)
	// JSON honors trim_space, header_map and normalize_headers.
	Options Options `json:"options"`
}

// Transform configures the fact-table build.
type Transform struct {
	// DateLayouts overrides DefaultDateLayouts for order_date parsing.
	DateLayouts []string `json:"date_layouts"`

	// OutputDateLayout formats time values in the output CSV.
	OutputDateLayout string `json:"output_date_layout"`

	// ShippingThreshold is the strict lower bound above which
	// high_shipping_flag is "Flagged". Nil means DefaultShippingThreshold.
	ShippingThreshold *float64 `json:"shipping_threshold"`
}

// Output configures the CSV writer.
type Output struct {
	Path string `json:"path"`

	// Comma is the output delimiter; defaults to ','.
	Comma string `json:"comma"`
}

// Storage selects the database sink used to publish the fact table.
type Storage struct {
	// Kind selects the backend: "postgres", "sqlite", "mssql", "mysql" or
	// "kafka" (dsn = brokers, table = topic).
	Kind string `json:"kind"`

	DB DBConfig `json:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is the backend connection string.
	DSN string `json:"dsn"`

	// Table is the (optionally schema-qualified) destination table.
	Table string `json:"table"`

	// AutoCreateTable creates the destination table from the fact table's
	// inferred column kinds when it does not exist.
	AutoCreateTable bool `json:"auto_create_table"`
}

// RuntimeConfig controls loader concurrency and publish batching.
type RuntimeConfig struct {
	// ReaderWorkers bounds how many input files are parsed at once.
	// 0 means "use the default" (1, strictly sequential).
	ReaderWorkers int `json:"reader_workers"`

	// BatchSize is the number of rows per bulk insert when publishing.
	BatchSize int `json:"batch_size"`
}

// Default returns the pipeline used when no config file is given.
func Default() Pipeline {
	return Pipeline{}.WithDefaults()
}

// WithDefaults returns a copy of p with every unset field filled in.
func (p Pipeline) WithDefaults() Pipeline {
	if p.Job == "" {
		p.Job = DefaultJob
	}
	p.Sources.Users.Path = orDefault(p.Sources.Users.Path, DefaultUsersPath)
	p.Sources.Products.Path = orDefault(p.Sources.Products.Path, DefaultProductsPath)
	p.Sources.Orders.Path = orDefault(p.Sources.Orders.Path, DefaultOrdersPath)
	p.Sources.OrderItems.Path = orDefault(p.Sources.OrderItems.Path, DefaultOrderItemsPath)

	if p.Parser.Kind == "" {
		p.Parser.Kind = "csv"
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}

	if len(p.Transform.DateLayouts) == 0 {
		p.Transform.DateLayouts = append([]string(nil), DefaultDateLayouts...)
	}
	p.Transform.OutputDateLayout = orDefault(p.Transform.OutputDateLayout, DefaultOutputDateLayout)
	if p.Transform.ShippingThreshold == nil {
		v := DefaultShippingThreshold
		p.Transform.ShippingThreshold = &v
	}

	p.Output.Path = orDefault(p.Output.Path, DefaultOutputPath)
	p.Output.Comma = orDefault(p.Output.Comma, ",")

	if p.Runtime.ReaderWorkers == 0 {
		p.Runtime.ReaderWorkers = 1
	}
	if p.Runtime.BatchSize == 0 {
		p.Runtime.BatchSize = DefaultBatchSize
	}
	return p
}

// Threshold returns the effective shipping threshold.
func (t Transform) Threshold() float64 {
	if t.ShippingThreshold == nil {
		return DefaultShippingThreshold
	}
	return *t.ShippingThreshold
}

// SourcePaths returns the configured input paths keyed by logical table name.
func (s Sources) SourcePaths() map[string]string {
	return map[string]string{
		"users":       s.Users.Path,
		"products":    s.Products.Path,
		"orders":      s.Orders.Path,
		"order_items": s.OrderItems.Path,
	}
}

// Decode reads a Pipeline from r and applies defaults.
func Decode(r io.Reader) (Pipeline, error) {
	var p Pipeline
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	return p.WithDefaults(), nil
}

// LoadFile opens path and decodes it with Decode.
func LoadFile(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It performs only
// minimal type coercion and returns provided defaults when a key is absent or
// of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		switch m := v.(type) {
		case map[string]any:
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		case map[string]string:
			for k, s := range m {
				res[k] = s
			}
		}
	}
	return res
}

// Any returns the raw value for key.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object decodes to a non-nil, empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
