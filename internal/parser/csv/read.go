// Package csv reads delimited input files into in-memory tables and writes
// tables back out as delimited text.
//
// Reading is a single pass over the source with encoding/csv buffer reuse.
// Header names are normalized so that cosmetic differences in the source files
// (a BOM, stray spaces, accents, capitalization) do not break column lookup
// downstream.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"salesetl/internal/config"
	"salesetl/internal/parser"
	"salesetl/internal/table"
)

func init() { parser.Register("csv", ReadTable) }

// ErrNoHeader is returned by ReadTable when the source is empty.
var ErrNoHeader = errors.New("csv: missing header row")

// logEveryN controls the reader progress heartbeat.
const logEveryN = 100_000

// ReadTable parses src into a table named name. The first record is the
// header row. Every cell is kept as a string; empty cells (after optional
// trimming) are stored as nil, the missing marker. Short rows are padded with
// missing values and long rows are truncated to the header width; both are
// reported through onErr but the row is still kept.
//
// Options (all optional):
//   - comma (string; first rune used; default ',')
//   - trim_space (bool; default true)
//   - lazy_quotes (bool; default false) → csv.Reader.LazyQuotes
//   - header_map (object; source header → canonical name, applied before
//     normalization)
//   - normalize_headers (bool; default true)
//
// A record that encoding/csv cannot parse is reported through onErr and
// skipped. A missing header row or a read error from src is fatal. src is
// always closed.
func ReadTable(
	ctx context.Context,
	name string,
	src io.ReadCloser,
	opt config.Options,
	onErr func(line int, err error),
) (*table.Table, error) {
	defer src.Close()

	comma := opt.Rune("comma", ',')
	trim := opt.Bool("trim_space", true)
	lazy := opt.Bool("lazy_quotes", false)
	hm := opt.StringMap("header_map")
	normalize := opt.Bool("normalize_headers", true)

	// BOMOverride strips a UTF-8 BOM and transcodes UTF-16 input that carries
	// one; plain UTF-8 passes through untouched.
	r := transform.NewReader(src, unicode.BOMOverride(transform.Nop))

	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.LazyQuotes = lazy
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1 // width is checked against the header below

	hdr, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", name, ErrNoHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}

	cols := make([]string, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		if mapped, ok := hm[h]; ok {
			h = mapped
		} else if normalize {
			h = NormalizeHeader(h)
		}
		cols[i] = h
	}
	cols = dedupeHeaders(cols)

	t := table.New(name, cols)
	width := len(cols)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				// I/O failure; the underlying reader keeps returning it.
				return nil, fmt.Errorf("%s: csv read: %w", name, err)
			}
			if onErr != nil {
				onErr(pe.StartLine, fmt.Errorf("%s: csv read: %w", name, err))
			}
			continue
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" && width > 1 {
			// Whitespace-only line.
			continue
		}
		if len(rec) != width && onErr != nil {
			onErr(line, fmt.Errorf("%s: %d fields, header has %d", name, len(rec), width))
		}

		v := make([]any, width)
		for i := 0; i < width && i < len(rec); i++ {
			s := rec[i]
			if trim {
				s = strings.TrimSpace(s)
			}
			if s != "" {
				v[i] = strings.Clone(s)
			}
		}
		t.Append(line, v)

		if n := t.Len(); n%logEveryN == 0 {
			log.Printf("reader: table=%s line=%d rows=%d", name, line, n)
		}
	}
	return t, nil
}
