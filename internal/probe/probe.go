// Package probe inspects a pipeline's inputs without writing anything: the
// normalized header and inferred kind of every source column, how many cells
// are missing, and the fact table (with its CREATE TABLE statement for a
// chosen backend) that a run would produce.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"salesetl/internal/config"
	"salesetl/internal/ddl"
	"salesetl/internal/extract"
	"salesetl/internal/storage"
	"salesetl/internal/table"
	"salesetl/internal/transformer"
)

// Column describes one column of a table.
type Column struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Missing int    `json:"missing"`
}

// TableInfo describes one table.
type TableInfo struct {
	Name    string   `json:"name"`
	Path    string   `json:"path,omitempty"`
	Rows    int      `json:"rows"`
	Columns []Column `json:"columns"`
}

// Report is the result of Probe.
type Report struct {
	Sources     []TableInfo           `json:"sources"`
	Fact        TableInfo             `json:"fact"`
	Stats       transformer.FactStats `json:"stats"`
	ParseErrors []string              `json:"parse_errors,omitempty"`

	// DDL is the CREATE TABLE statement for Options.Kind, when set.
	DDL string `json:"ddl,omitempty"`
}

// Options tunes Probe.
type Options struct {
	// Kind selects the storage dialect used to render DDL; empty skips it.
	Kind string

	// Table names the destination table in the DDL. Defaults to
	// cfg.Storage.DB.Table, then "fact_sales".
	Table string

	// MaxParseErrors bounds Report.ParseErrors. Zero means 20.
	MaxParseErrors int
}

// Probe loads and joins cfg's inputs and describes them.
func Probe(ctx context.Context, cfg config.Pipeline, opt Options) (*Report, error) {
	limit := opt.MaxParseErrors
	if limit <= 0 {
		limit = 20
	}
	var (
		mu   sync.Mutex
		rep  Report
		seen int
	)
	onErr := func(line int, err error) {
		mu.Lock()
		defer mu.Unlock()
		if seen < limit {
			rep.ParseErrors = append(rep.ParseErrors, fmt.Sprintf("line %d: %v", line, err))
		}
		seen++
	}

	src, err := extract.Load(ctx, cfg, onErr)
	if err != nil {
		return nil, err
	}
	rep.Sources = []TableInfo{
		describe(src.Users, cfg.Sources.Users.Path),
		describe(src.Products, cfg.Sources.Products.Path),
		describe(src.Orders, cfg.Sources.Orders.Path),
		describe(src.OrderItems, cfg.Sources.OrderItems.Path),
	}

	fact, st, err := transformer.BuildFact(src, transformer.FactOptions{ShippingThreshold: cfg.Transform.Threshold()})
	if err != nil {
		return nil, err
	}
	rep.Fact, rep.Stats = describe(fact, ""), st

	if opt.Kind != "" {
		name := firstNonEmpty(opt.Table, cfg.Storage.DB.Table, fact.Name)
		if rep.DDL, err = renderDDL(ctx, opt.Kind, name, fact); err != nil {
			return nil, err
		}
	}
	return &rep, nil
}

func describe(t *table.Table, path string) TableInfo {
	info := TableInfo{Name: t.Name, Path: path, Rows: t.Len(), Columns: make([]Column, len(t.Columns))}
	for c, name := range t.Columns {
		info.Columns[c] = Column{Name: name, Kind: t.Kinds[c].String()}
	}
	for _, r := range t.Rows {
		for c, v := range r.V {
			if v == nil {
				info.Columns[c].Missing++
			}
		}
	}
	return info
}

// sqlCapture satisfies storage.Repository and records DDL instead of
// running it.
type sqlCapture struct{ stmts []string }

func (s *sqlCapture) CopyFrom(context.Context, []string, [][]any) (int64, error) {
	return 0, fmt.Errorf("probe: CopyFrom not supported")
}
func (s *sqlCapture) Exec(_ context.Context, sql string) error {
	s.stmts = append(s.stmts, sql)
	return nil
}
func (s *sqlCapture) Close() {}

// renderDDL runs kind's registered bootstrapper against a capture repo.
func renderDDL(ctx context.Context, kind, name string, fact *table.Table) (string, error) {
	mapType, err := storage.MapperFor(kind)
	if err != nil {
		return "", err
	}
	capture := &sqlCapture{}
	if err := storage.EnsureTable(ctx, kind, capture, ddl.FromTable(fact, name, mapType)); err != nil {
		return "", err
	}
	return strings.Join(capture.stmts, "\n"), nil
}

// WriteJSON writes r as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes a human-readable, column-aligned report.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range append(append([]TableInfo(nil), r.Sources...), r.Fact) {
		fmt.Fprintf(tw, "== %s", t.Name)
		if t.Path != "" {
			fmt.Fprintf(tw, " (%s)", t.Path)
		}
		fmt.Fprintf(tw, " rows=%d\n", t.Rows)
		fmt.Fprintln(tw, "column\tkind\tmissing")
		for _, c := range t.Columns {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Name, c.Kind, c.Missing)
		}
		fmt.Fprintln(tw)
	}
	fmt.Fprintf(tw, "unmatched: orders=%d products=%d users=%d fanout=%d\n",
		r.Stats.UnmatchedOrders, r.Stats.UnmatchedProducts, r.Stats.UnmatchedUsers, r.Stats.DuplicateKeyFanout)
	for _, e := range r.ParseErrors {
		fmt.Fprintf(tw, "parse error: %s\n", e)
	}
	if r.DDL != "" {
		fmt.Fprintf(tw, "\n%s\n", r.DDL)
	}
	return tw.Flush()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
