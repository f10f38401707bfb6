package transformer

import (
	"errors"
	"reflect"
	"testing"

	"salesetl/internal/table"
)

func mkTable(name string, cols []string, rows ...[]any) *table.Table {
	t := table.New(name, cols)
	for i, r := range rows {
		t.Append(i+2, r)
	}
	return t
}

func TestLeftJoin_PreservesLeftRows(t *testing.T) {
	t.Parallel()

	left := mkTable("items", []string{"item", "order_id"},
		[]any{"a", int64(1)},
		[]any{"b", int64(2)},
		[]any{"c", nil},
		[]any{"d", int64(1)},
	)
	right := mkTable("orders", []string{"order_id", "user_id"},
		[]any{int64(1), int64(10)},
		[]any{int64(3), int64(30)},
	)

	out, st, err := LeftJoin(left, right, "order_id")
	if err != nil {
		t.Fatalf("LeftJoin: %v", err)
	}
	if !reflect.DeepEqual(out.Columns, []string{"item", "order_id", "user_id"}) {
		t.Fatalf("Columns = %v", out.Columns)
	}
	want := [][]any{
		{"a", int64(1), int64(10)},
		{"b", int64(2), nil},
		{"c", nil, nil},
		{"d", int64(1), int64(10)},
	}
	if out.Len() != len(want) {
		t.Fatalf("rows = %d, want %d", out.Len(), len(want))
	}
	for i, w := range want {
		if !reflect.DeepEqual(out.Rows[i].V, w) {
			t.Fatalf("row %d = %#v, want %#v", i, out.Rows[i].V, w)
		}
		if out.Rows[i].Line != left.Rows[i].Line {
			t.Fatalf("row %d line = %d, want %d", i, out.Rows[i].Line, left.Rows[i].Line)
		}
	}
	if st.Unmatched != 2 || st.Fanout != 0 {
		t.Fatalf("stats = %+v", st)
	}
	// Left table is untouched.
	if len(left.Rows[0].V) != 2 {
		t.Fatalf("left row mutated: %#v", left.Rows[0].V)
	}
}

func TestLeftJoin_MixedKeyKinds(t *testing.T) {
	t.Parallel()

	left := mkTable("l", []string{"k"}, []any{int64(5)}, []any{" 7 "})
	right := mkTable("r", []string{"k", "v"}, []any{"5", "five"}, []any{7.0, "seven"})

	out, st, err := LeftJoin(left, right, "k")
	if err != nil {
		t.Fatalf("LeftJoin: %v", err)
	}
	if st.Unmatched != 0 {
		t.Fatalf("Unmatched = %d, want 0", st.Unmatched)
	}
	if out.Rows[0].V[1] != "five" || out.Rows[1].V[1] != "seven" {
		t.Fatalf("rows = %#v %#v", out.Rows[0].V, out.Rows[1].V)
	}
}

func TestLeftJoin_DuplicateRightKeysFanOut(t *testing.T) {
	t.Parallel()

	left := mkTable("l", []string{"k", "x"}, []any{int64(1), "a"}, []any{int64(2), "b"})
	right := mkTable("r", []string{"k", "y"},
		[]any{int64(1), "first"},
		[]any{int64(1), "second"},
		[]any{int64(2), "only"},
	)

	out, st, err := LeftJoin(left, right, "k")
	if err != nil {
		t.Fatalf("LeftJoin: %v", err)
	}
	if out.Len() != 3 || st.Fanout != 1 {
		t.Fatalf("rows=%d fanout=%d, want 3 and 1", out.Len(), st.Fanout)
	}
	got := []any{out.Rows[0].V[2], out.Rows[1].V[2], out.Rows[2].V[2]}
	if !reflect.DeepEqual(got, []any{"first", "second", "only"}) {
		t.Fatalf("fan-out order = %v", got)
	}
}

func TestLeftJoin_OverlapSuffixes(t *testing.T) {
	t.Parallel()

	left := mkTable("l", []string{"k", "status"}, []any{int64(1), "shipped"})
	right := mkTable("r", []string{"k", "status", "z"}, []any{int64(1), "active", "z1"})

	out, _, err := LeftJoin(left, right, "k")
	if err != nil {
		t.Fatalf("LeftJoin: %v", err)
	}
	want := []string{"k", "status_x", "status_y", "z"}
	if !reflect.DeepEqual(out.Columns, want) {
		t.Fatalf("Columns = %v, want %v", out.Columns, want)
	}
}

func TestLeftJoin_MissingKey(t *testing.T) {
	t.Parallel()

	left := mkTable("order_items", []string{"order_id"})
	right := mkTable("products", []string{"sku"})

	_, _, err := LeftJoin(left, right, "order_id")
	var mc *table.MissingColumnError
	if !errors.As(err, &mc) {
		t.Fatalf("err = %v, want *table.MissingColumnError", err)
	}
	if mc.Table != "products" || mc.Column != "order_id" {
		t.Fatalf("err = %+v", mc)
	}
}

func TestKeyIndex_CollisionChecked(t *testing.T) {
	t.Parallel()

	right := mkTable("r", []string{"k"}, []any{"alpha"}, []any{"beta"})
	ix := buildIndex(right, 0)

	// Force both keys into one bucket to simulate a hash collision.
	var all []int
	for _, rows := range ix.buckets {
		all = append(all, rows...)
	}
	for h := range ix.buckets {
		ix.buckets[h] = all
	}

	if got := ix.lookup(nil, "beta"); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("lookup(beta) = %v, want [1]", got)
	}
	if got := ix.lookup(nil, "gamma"); len(got) != 0 {
		t.Fatalf("lookup(gamma) = %v, want none", got)
	}
}
