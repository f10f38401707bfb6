package table

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func sample() *Table {
	t := New("orders", []string{"order_id", "user_id", "payment_method"})
	t.Append(2, []any{"1", "5", "card"})
	t.Append(3, []any{"2", nil, "cash"})
	return t
}

func TestProjectCopiesValuesInOrder(t *testing.T) {
	t.Parallel()

	src := sample()
	got, err := src.Project("user_id", "order_id")
	if err != nil {
		t.Fatalf("Project error: %v", err)
	}
	if want := []string{"user_id", "order_id"}; !reflect.DeepEqual(got.Columns, want) {
		t.Fatalf("Columns = %v, want %v", got.Columns, want)
	}
	if got.Rows[0].V[0] != "5" || got.Rows[0].V[1] != "1" {
		t.Fatalf("row 0 = %#v", got.Rows[0].V)
	}
	if got.Rows[1].Line != 3 {
		t.Fatalf("line not preserved: %d", got.Rows[1].Line)
	}

	got.Rows[0].V[0] = "mutated"
	if src.Rows[0].V[1] != "5" {
		t.Fatalf("Project shares row storage with source")
	}
}

func TestProjectMissingColumn(t *testing.T) {
	t.Parallel()

	_, err := sample().Project("order_id", "status")
	var mce *MissingColumnError
	if !errors.As(err, &mce) {
		t.Fatalf("want *MissingColumnError, got %v", err)
	}
	if mce.Table != "orders" || mce.Column != "status" {
		t.Fatalf("unexpected error fields: %+v", mce)
	}
}

func TestDrop(t *testing.T) {
	t.Parallel()

	got := sample().Drop("payment_method", "not_there")
	if want := []string{"order_id", "user_id"}; !reflect.DeepEqual(got.Columns, want) {
		t.Fatalf("Columns = %v, want %v", got.Columns, want)
	}
	if got.Has("payment_method") {
		t.Fatalf("payment_method still present")
	}
}

func TestAddColumnWidensRows(t *testing.T) {
	t.Parallel()

	tb := sample()
	i := tb.AddColumn("gross_sales", KindFloat)
	if i != 3 {
		t.Fatalf("AddColumn index = %d, want 3", i)
	}
	for r, row := range tb.Rows {
		if len(row.V) != 4 || row.V[3] != nil {
			t.Fatalf("row %d not widened with missing: %#v", r, row.V)
		}
	}
	if _, ok := tb.ColumnIndex("gross_sales"); !ok {
		t.Fatalf("new column not indexed")
	}
}

func TestAddColumnReplacesExisting(t *testing.T) {
	t.Parallel()

	tb := sample()
	i := tb.AddColumn("user_id", KindInt)
	if i != 1 {
		t.Fatalf("AddColumn index = %d, want 1", i)
	}
	if want := []string{"order_id", "user_id", "payment_method"}; !reflect.DeepEqual(tb.Columns, want) {
		t.Fatalf("Columns = %v, want %v", tb.Columns, want)
	}
	if tb.Kinds[1] != KindInt {
		t.Fatalf("kind = %v, want KindInt", tb.Kinds[1])
	}
	for r, row := range tb.Rows {
		if len(row.V) != 3 || row.V[1] != nil {
			t.Fatalf("row %d not reset: %#v", r, row.V)
		}
	}
}

func TestInferKinds(t *testing.T) {
	t.Parallel()

	tb := New("items", []string{"qty", "price", "sku", "empty", "zip"})
	tb.Append(2, []any{"2", "50", "A-1", nil, "01234"})
	tb.Append(3, []any{"3", "9.5", "B-2", nil, "98765"})
	tb.Append(4, []any{nil, nil, "7", nil, nil})

	InferKinds(tb, "zip")

	wantKinds := []Kind{KindInt, KindFloat, KindText, KindText, KindText}
	if !reflect.DeepEqual(tb.Kinds, wantKinds) {
		t.Fatalf("Kinds = %v, want %v", tb.Kinds, wantKinds)
	}
	if tb.Rows[0].V[0] != int64(2) {
		t.Fatalf("qty not converted: %#v", tb.Rows[0].V[0])
	}
	if tb.Rows[1].V[1] != 9.5 || tb.Rows[0].V[1] != float64(50) {
		t.Fatalf("price not converted: %#v", tb.Rows[0].V[1])
	}
	if tb.Rows[2].V[0] != nil {
		t.Fatalf("missing value changed: %#v", tb.Rows[2].V[0])
	}
	if tb.Rows[0].V[4] != "01234" {
		t.Fatalf("kept column converted: %#v", tb.Rows[0].V[4])
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		in     any
		want   string
		wantOK bool
	}{
		{"int64", int64(5), "5", true},
		{"whole float", 5.0, "5", true},
		{"fraction", 5.5, "5.5", true},
		{"numeric text", " 5 ", "5", true},
		{"text", "abc", "abc", true},
		{"missing", nil, "", false},
		{"blank", "  ", "", false},
		{"time", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-03-01T00:00:00Z", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Key(tc.in)
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("Key(%#v) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestFloat(t *testing.T) {
	t.Parallel()

	if f, ok := Float(int64(3)); !ok || f != 3 {
		t.Fatalf("Float(int64) = %v, %v", f, ok)
	}
	if _, ok := Float("3"); ok {
		t.Fatalf("Float(text) should not be ok")
	}
	if _, ok := Float(nil); ok {
		t.Fatalf("Float(nil) should not be ok")
	}
}
