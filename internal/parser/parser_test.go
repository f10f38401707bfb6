package parser

import (
	"context"
	"io"
	"slices"
	"testing"

	"salesetl/internal/config"
	"salesetl/internal/table"
)

func TestRegisterLookup(t *testing.T) {
	t.Parallel()

	Register("parser-test", func(_ context.Context, name string, src io.ReadCloser, _ config.Options, _ func(int, error)) (*table.Table, error) {
		src.Close()
		return table.New(name, []string{"a"}), nil
	})

	fn, err := Lookup("parser-test")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	tbl, err := fn(context.Background(), "x", io.NopCloser(nil), nil, nil)
	if err != nil || tbl.Name != "x" {
		t.Fatalf("fn = %v, %v", tbl, err)
	}
	if !slices.Contains(Kinds(), "parser-test") {
		t.Fatalf("Kinds() = %v", Kinds())
	}

	if _, err := Lookup("parquet"); err == nil {
		t.Fatal("unknown kind: want error")
	}
}
