package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"salesetl/internal/config"
	"salesetl/internal/parser"
)

/*
fakeRC is a small helper implementing io.ReadCloser over a byte slice.
It lets tests verify that Close() is forwarded.
*/
type fakeRC struct {
	*bytes.Reader
	closed bool
}

func newFakeRC(b []byte) *fakeRC { return &fakeRC{Reader: bytes.NewReader(b)} }
func (f *fakeRC) Close() error   { f.closed = true; return nil }

/*
makeCSV builds a CSV document in-memory with the given header and rows.
It uses encoding/csv to ensure proper quoting and escaping.
*/
func makeCSV(delim rune, header []string, rows [][]string, useCRLF bool) []byte {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	w.Comma = delim
	w.UseCRLF = useCRLF
	if header != nil {
		_ = w.Write(header)
	}
	for _, r := range rows {
		_ = w.Write(r)
	}
	w.Flush()
	return b.Bytes()
}

/*
TestReadTable_HeaderNormalization covers BOM stripping, header_map remapping,
automatic normalization, trimming and nil for empty cells.
*/
func TestReadTable_HeaderNormalization(t *testing.T) {
	t.Parallel()

	header := []string{"\uFEFFOrder ID", "Unit Price", "Catégorie", "Qty"}
	rows := [][]string{
		{" 17 ", "  9.5", "  ", "3"},
	}
	src := newFakeRC(makeCSV(',', header, rows, true))

	opts := config.Options{
		"header_map": map[string]any{"Qty": "quantity"},
	}
	tbl, err := ReadTable(context.Background(), "order_items", src, opts, nil)
	if err != nil {
		t.Fatalf("ReadTable error: %v", err)
	}
	if !src.closed {
		t.Fatalf("expected source to be closed")
	}

	wantCols := []string{"order_id", "unit_price", "categorie", "quantity"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Fatalf("Columns = %v, want %v", tbl.Columns, wantCols)
	}
	if tbl.Len() != 1 {
		t.Fatalf("rows = %d, want 1", tbl.Len())
	}
	got := tbl.Rows[0].V
	want := []any{"17", "9.5", nil, "3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("row = %#v, want %#v", got, want)
	}
	if tbl.Rows[0].Line != 2 {
		t.Fatalf("Line = %d, want 2", tbl.Rows[0].Line)
	}
}

func TestReadTable_UTF16WithBOM(t *testing.T) {
	t.Parallel()

	// "a,b\n1,2\n" as UTF-16LE with BOM.
	utf8Text := "a,b\n1,2\n"
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xFE})
	for _, r := range utf8Text {
		b.WriteByte(byte(r))
		b.WriteByte(0)
	}

	tbl, err := ReadTable(context.Background(), "t", io.NopCloser(&b), config.Options{}, nil)
	if err != nil {
		t.Fatalf("ReadTable error: %v", err)
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"a", "b"}) {
		t.Fatalf("Columns = %v", tbl.Columns)
	}
	if tbl.Rows[0].V[1] != "2" {
		t.Fatalf("row = %#v", tbl.Rows[0].V)
	}
}

func TestReadTable_RaggedRows(t *testing.T) {
	t.Parallel()

	payload := "a,b,c\n1,2\n4,5,6,7\n8,9,10\n"
	var errs []string
	onErr := func(line int, err error) { errs = append(errs, fmt.Sprintf("%d:%v", line, err)) }

	tbl, err := ReadTable(context.Background(), "t", io.NopCloser(strings.NewReader(payload)), config.Options{}, onErr)
	if err != nil {
		t.Fatalf("ReadTable error: %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("rows = %d, want 3 (ragged rows are kept)", tbl.Len())
	}
	if tbl.Rows[0].V[2] != nil {
		t.Fatalf("short row not padded: %#v", tbl.Rows[0].V)
	}
	if len(tbl.Rows[1].V) != 3 || tbl.Rows[1].V[2] != "6" {
		t.Fatalf("long row not truncated: %#v", tbl.Rows[1].V)
	}
	if len(errs) != 2 {
		t.Fatalf("errs = %v, want 2 width reports", errs)
	}
	if !strings.HasPrefix(errs[0], "2:") || !strings.HasPrefix(errs[1], "3:") {
		t.Fatalf("unexpected error lines: %v", errs)
	}
}

func TestReadTable_MalformedRowSkipped(t *testing.T) {
	t.Parallel()

	payload := "a,b\n1,2\n\"x\"y,3\n4,5\n"
	var lines []int
	onErr := func(line int, err error) { lines = append(lines, line) }

	tbl, err := ReadTable(context.Background(), "t", io.NopCloser(strings.NewReader(payload)), config.Options{}, onErr)
	if err != nil {
		t.Fatalf("ReadTable error: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.Len())
	}
	if !reflect.DeepEqual(lines, []int{3}) {
		t.Fatalf("error lines = %v, want [3]", lines)
	}
}

/*
TestReadTable_TransportErrorIsFatal cuts the source off mid-record. The read
error must end the parse instead of being reported as a bad row.
*/
func TestReadTable_TransportErrorIsFatal(t *testing.T) {
	t.Parallel()

	errReset := errors.New("connection reset")
	src := &errRC{Reader: io.MultiReader(strings.NewReader("a,b\n1,2\n3,"), iotest.ErrReader(errReset))}
	calls := 0
	onErr := func(int, error) { calls++ }

	tbl, err := ReadTable(context.Background(), "order_items", src, config.Options{}, onErr)
	if !errors.Is(err, errReset) {
		t.Fatalf("err = %v, want %v", err, errReset)
	}
	if tbl != nil {
		t.Fatalf("table = %s, want nil", tbl)
	}
	if !strings.HasPrefix(err.Error(), "order_items: csv read: ") {
		t.Fatalf("err = %q", err)
	}
	if calls != 0 {
		t.Fatalf("onErr called %d times", calls)
	}
	if !src.closed {
		t.Fatal("source not closed")
	}
}

type errRC struct {
	io.Reader
	closed bool
}

func (e *errRC) Close() error { e.closed = true; return nil }

func TestReadTable_EmptySource(t *testing.T) {
	t.Parallel()

	_, err := ReadTable(context.Background(), "users", io.NopCloser(strings.NewReader("")), config.Options{}, nil)
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("err = %v, want ErrNoHeader", err)
	}
}

func TestReadTable_HeaderOnly(t *testing.T) {
	t.Parallel()

	tbl, err := ReadTable(context.Background(), "users", io.NopCloser(strings.NewReader("user_id,age\n")), config.Options{}, nil)
	if err != nil {
		t.Fatalf("ReadTable error: %v", err)
	}
	if tbl.Len() != 0 || len(tbl.Columns) != 2 {
		t.Fatalf("got %s", tbl)
	}
}

func TestReadTable_Semicolon(t *testing.T) {
	t.Parallel()

	src := io.NopCloser(bytes.NewReader(makeCSV(';', []string{"x", "y"}, [][]string{{"1,5", "2"}}, false)))
	tbl, err := ReadTable(context.Background(), "t", src, config.Options{"comma": ";"}, nil)
	if err != nil {
		t.Fatalf("ReadTable error: %v", err)
	}
	if tbl.Rows[0].V[0] != "1,5" {
		t.Fatalf("row = %#v", tbl.Rows[0].V)
	}
}

func TestReadTable_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadTable(ctx, "t", io.NopCloser(strings.NewReader("a\n1\n")), config.Options{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"order_id", "order_id"},
		{"Order Date", "order_date"},
		{"  Shipping  Cost ", "shipping_cost"},
		{"unit-price", "unit_price"},
		{"Catégorie", "categorie"},
		{"Město", "mesto"},
		{"a__b", "a__b"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeHeader(tt.in); got != tt.want {
				t.Fatalf("NormalizeHeader(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDedupeHeaders(t *testing.T) {
	t.Parallel()

	got := dedupeHeaders([]string{"a", "a", "a.1", "", "a"})
	want := []string{"a", "a.2", "a.1", "unnamed_3", "a.3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dedupeHeaders = %v, want %v", got, want)
	}
}

func TestRegistered(t *testing.T) {
	t.Parallel()

	if _, err := parser.Lookup("csv"); err != nil {
		t.Fatalf("Lookup(csv): %v", err)
	}
}
