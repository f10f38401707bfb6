// Package extract loads the four sales input tables from local files or
// http(s) URLs.
//
// Load is all-or-nothing: every configured path is checked before any file is
// parsed, and a run with a missing input fails without producing a partial
// result. After parsing, column kinds are inferred and orders.order_date is
// coerced to time.Time leniently (values no layout accepts become missing).
package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"salesetl/internal/config"
	"salesetl/internal/datasource"
	"salesetl/internal/datasource/file"
	"salesetl/internal/datasource/httpds"
	"salesetl/internal/parser"
	_ "salesetl/internal/parser/csv"
	_ "salesetl/internal/parser/json"
	"salesetl/internal/table"
)

// Logical table names, also used as Table.Name.
const (
	Users      = "users"
	Products   = "products"
	Orders     = "orders"
	OrderItems = "order_items"
)

// OrderDateColumn is the orders column coerced to time.Time.
const OrderDateColumn = "order_date"

// ErrSourceNotFound is matched by errors.Is on a *SourceNotFoundError.
var ErrSourceNotFound = errors.New("source not found")

// SourceNotFoundError lists every configured input that could not be opened.
type SourceNotFoundError struct {
	Paths []string
	Errs  []error
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSourceNotFound, strings.Join(e.Paths, ", "))
}

// Is reports whether target is ErrSourceNotFound.
func (e *SourceNotFoundError) Is(target error) bool { return target == ErrSourceNotFound }

// Unwrap exposes the per-path errors (os.ErrNotExist, permission errors).
func (e *SourceNotFoundError) Unwrap() []error { return e.Errs }

// Sources holds the four loaded tables.
type Sources struct {
	Users      *table.Table
	Products   *table.Table
	Orders     *table.Table
	OrderItems *table.Table

	// DateParseFailures counts non-empty order_date values that no layout
	// accepted.
	DateParseFailures int
}

// httpClient is shared by every remote source of a run.
var httpClient = httpds.NewClient(httpds.Config{MaxRetries: 3})

func sourceFor(path string) datasource.Source {
	if httpds.IsURL(path) {
		return httpds.NewSource(httpClient, path)
	}
	return file.NewLocal(path)
}

// Package-level seams so tests can substitute the sources.
var (
	checkSource = func(ctx context.Context, path string) error { return sourceFor(path).Check(ctx) }
	readSource  = func(ctx context.Context, name, path string, p config.Parser, onErr func(int, error)) (*table.Table, error) {
		kind := p.Kind
		if kind == "" {
			kind = "csv"
		}
		read, err := parser.Lookup(kind)
		if err != nil {
			return nil, err
		}
		rc, err := sourceFor(path).Open(ctx)
		if err != nil {
			return nil, err
		}
		return read(ctx, name, rc, p.Options, onErr)
	}
)

// Load reads all four sources described by cfg. onErr receives recoverable
// per-row parse problems; it may be called from several goroutines when
// cfg.Runtime.ReaderWorkers > 1 and must be safe for that.
func Load(ctx context.Context, cfg config.Pipeline, onErr func(line int, err error)) (*Sources, error) {
	type input struct {
		name string
		path string
		dst  **table.Table
	}
	var src Sources
	inputs := []input{
		{Users, cfg.Sources.Users.Path, &src.Users},
		{Products, cfg.Sources.Products.Path, &src.Products},
		{Orders, cfg.Sources.Orders.Path, &src.Orders},
		{OrderItems, cfg.Sources.OrderItems.Path, &src.OrderItems},
	}

	// Existence of every input is checked before any parsing starts.
	var missing SourceNotFoundError
	for _, in := range inputs {
		if err := checkSource(ctx, in.path); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			missing.Paths = append(missing.Paths, in.path)
			missing.Errs = append(missing.Errs, err)
		}
	}
	if len(missing.Paths) > 0 {
		return nil, &missing
	}

	workers := cfg.Runtime.ReaderWorkers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, in := range inputs {
		g.Go(func() error {
			start := time.Now()
			t, err := readSource(gctx, in.name, in.path, cfg.Parser, onErr)
			if err != nil {
				return fmt.Errorf("load %s: %w", in.name, err)
			}
			// order_date stays text here; it is coerced with date layouts below.
			table.InferKinds(t, OrderDateColumn)
			*in.dst = t
			log.Printf("load: table=%s path=%s rows=%d cols=%d elapsed=%s",
				in.name, in.path, t.Len(), len(t.Columns), time.Since(start).Truncate(time.Millisecond))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if src.Orders.Has(OrderDateColumn) {
		p := NewDateParser(cfg.Transform.DateLayouts)
		src.DateParseFailures = p.CoerceColumn(src.Orders, OrderDateColumn)
	}

	log.Printf("load: sources loaded and order_date cleaned (users=%d products=%d orders=%d order_items=%d date_parse_failures=%d)",
		src.Users.Len(), src.Products.Len(), src.Orders.Len(), src.OrderItems.Len(), src.DateParseFailures)
	return &src, nil
}
