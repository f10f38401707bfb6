// Package json reads JSON input files into in-memory tables.
//
// Two shapes are accepted, and may be mixed in one stream: a top-level array
// of objects, and a sequence of objects (NDJSON, or simply concatenated).
// Columns appear in the order their keys are first seen; a record without a
// key gets a missing value in that column.
package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"salesetl/internal/config"
	"salesetl/internal/parser"
	csvparser "salesetl/internal/parser/csv"
	"salesetl/internal/table"
)

func init() { parser.Register("json", ReadTable) }

// ErrNoRecords is returned by ReadTable when the source is empty.
var ErrNoRecords = errors.New("json: empty input")

const logEveryN = 100_000

type cell struct {
	col int
	v   any
}

type record struct {
	seq   int
	cells []cell
}

type reader struct {
	name      string
	dec       *json.Decoder
	onErr     func(int, error)
	trim      bool
	normalize bool
	hm        map[string]string

	cols   []string
	index  map[string]int // column name -> position
	keyCol map[string]int // raw key -> position
	seq    int
	recs   []record
}

// ReadTable parses src into a table named name. Scalars are kept as strings
// so kinds are inferred exactly as for CSV input: numbers keep their literal
// text, booleans become "true"/"false", null and empty strings are missing,
// and nested objects or arrays are stored as their compact JSON text.
//
// Options: trim_space (default true), header_map (source key → canonical
// name), normalize_headers (default true).
//
// A top-level value that is not an object is reported through onErr and
// skipped; its position in the stream is passed as the line. Malformed JSON
// is fatal. src is always closed.
func ReadTable(
	ctx context.Context,
	name string,
	src io.ReadCloser,
	opt config.Options,
	onErr func(line int, err error),
) (*table.Table, error) {
	defer src.Close()

	dec := json.NewDecoder(transform.NewReader(src, unicode.BOMOverride(transform.Nop)))
	dec.UseNumber()
	r := &reader{
		name:      name,
		dec:       dec,
		onErr:     onErr,
		trim:      opt.Bool("trim_space", true),
		normalize: opt.Bool("normalize_headers", true),
		hm:        opt.StringMap("header_map"),
		index:     map[string]int{},
		keyCol:    map[string]int{},
	}

	empty := true
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: decode: %w", name, err)
		}
		empty = false

		if tok == json.Delim('[') {
			for dec.More() {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				tok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("%s: decode: %w", name, err)
				}
				if err := r.value(tok); err != nil {
					return nil, err
				}
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("%s: decode: %w", name, err)
			}
			continue
		}
		if err := r.value(tok); err != nil {
			return nil, err
		}
	}
	if empty {
		return nil, fmt.Errorf("%s: %w", name, ErrNoRecords)
	}

	t := table.New(name, r.cols)
	for _, rec := range r.recs {
		v := make([]any, len(r.cols))
		for _, c := range rec.cells {
			v[c.col] = c.v
		}
		t.Append(rec.seq, v)
	}
	return t, nil
}

// value consumes the value that starts with tok: an object becomes a record,
// anything else is skipped and reported.
func (r *reader) value(tok json.Token) error {
	r.seq++
	if tok == json.Delim('{') {
		return r.object()
	}
	if err := r.skip(tok); err != nil {
		return err
	}
	if r.onErr != nil {
		r.onErr(r.seq, fmt.Errorf("%s: record %d is not an object", r.name, r.seq))
	}
	return nil
}

// object reads the members of an object whose '{' was already consumed.
func (r *reader) object() error {
	rec := record{seq: r.seq}
	for r.dec.More() {
		tok, err := r.dec.Token()
		if err != nil {
			return fmt.Errorf("%s: record %d: %w", r.name, r.seq, err)
		}
		key, _ := tok.(string)
		var raw any
		if err := r.dec.Decode(&raw); err != nil {
			return fmt.Errorf("%s: record %d: %w", r.name, r.seq, err)
		}
		rec.cells = append(rec.cells, cell{col: r.column(key), v: r.scalar(raw)})
	}
	if _, err := r.dec.Token(); err != nil {
		return fmt.Errorf("%s: record %d: %w", r.name, r.seq, err)
	}
	r.recs = append(r.recs, rec)

	if n := len(r.recs); n%logEveryN == 0 {
		log.Printf("reader: table=%s record=%d rows=%d", r.name, r.seq, n)
	}
	return nil
}

// skip consumes the rest of an array or object value.
func (r *reader) skip(tok json.Token) error {
	if tok != json.Delim('[') && tok != json.Delim('{') {
		return nil
	}
	for depth := 1; depth > 0; {
		t, err := r.dec.Token()
		if err != nil {
			return fmt.Errorf("%s: decode: %w", r.name, err)
		}
		switch t {
		case json.Delim('['), json.Delim('{'):
			depth++
		case json.Delim(']'), json.Delim('}'):
			depth--
		}
	}
	return nil
}

// column maps a raw key to its column, adding one on first sight. Keys that
// normalize to the same name share a column.
func (r *reader) column(key string) int {
	if c, ok := r.keyCol[key]; ok {
		return c
	}
	name := strings.TrimSpace(key)
	if mapped, ok := r.hm[name]; ok {
		name = mapped
	} else if r.normalize {
		name = csvparser.NormalizeHeader(name)
	}
	if name == "" {
		name = "unnamed_" + strconv.Itoa(len(r.cols))
	}
	c, ok := r.index[name]
	if !ok {
		c = len(r.cols)
		r.cols = append(r.cols, name)
		r.index[name] = c
	}
	r.keyCol[key] = c
	return c
}

func (r *reader) scalar(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if r.trim {
			v = strings.TrimSpace(v)
		}
		if v == "" {
			return nil
		}
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(b)
	}
}
