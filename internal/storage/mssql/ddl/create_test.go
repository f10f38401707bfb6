package ddl

import (
	"testing"

	gddl "salesetl/internal/ddl"
)

func TestBuildCreateTableSQL_GuardedAndQuoted(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(gddl.TableDef{
		FQN:         "dbo.fact_sales",
		IfNotExists: true,
		Columns: []gddl.ColumnDef{
			{Name: "order_item_id", SQLType: MapType("int"), Nullable: true},
			{Name: "weird]name", SQLType: MapType("timestamp"), Nullable: true},
			{Name: "category", SQLType: MapType("text"), Nullable: true},
		},
	})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := "IF OBJECT_ID(N'[dbo].[fact_sales]', N'U') IS NULL\nBEGIN\n" +
		"CREATE TABLE [dbo].[fact_sales] (\n  [order_item_id] BIGINT,\n  [weird]]name] DATETIME2,\n  [category] NVARCHAR(MAX)\n);\nEND;"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildCreateTableSQL_Errors(t *testing.T) {
	t.Parallel()

	if _, err := BuildCreateTableSQL(gddl.TableDef{FQN: " "}); err == nil {
		t.Fatal("empty FQN: want error")
	}
	if _, err := BuildCreateTableSQL(gddl.TableDef{FQN: "t"}); err == nil {
		t.Fatal("no columns: want error")
	}
}

func TestMapType(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"int":       "BIGINT",
		"float":     "FLOAT",
		"timestamp": "DATETIME2",
		"text":      "NVARCHAR(MAX)",
		"":          "NVARCHAR(MAX)",
	}
	for in, want := range cases {
		if got := MapType(in); got != want {
			t.Errorf("MapType(%q) = %q, want %q", in, got, want)
		}
	}
}
