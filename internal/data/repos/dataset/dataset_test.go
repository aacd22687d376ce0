package dataset

import (
	"context"
	"encoding/json"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/tabula-backend/internal/data/db"
	"github.com/yungbote/tabula-backend/internal/data/repos/testutil"
	types "github.com/yungbote/tabula-backend/internal/domain"
	"github.com/yungbote/tabula-backend/internal/domain/dataset"
	"github.com/yungbote/tabula-backend/internal/platform/dbctx"
)

var salesRows = []map[string]any{
	{"region": "north", "price": 10, "qty": 1.5, "note": "a"},
	{"region": "south", "price": 20, "qty": nil, "note": "12"},
	{"region": "east", "price": 30, "qty": 2.5, "note": nil},
	{"region": "west", "price": nil, "qty": 4, "note": "b"},
}

func seedSales(t *testing.T, tx *gorm.DB) {
	t.Helper()
	testutil.SeedDataset(t, context.Background(), tx, "sales.csv",
		map[string]string{"region": "object", "price": "float64", "qty": "float64", "note": "object"},
		[]string{"region", "price", "qty", "note"},
		salesRows,
	)
}

func TestMetadataRepo(t *testing.T) {
	database := testutil.DB(t)
	tx := testutil.Tx(t, database)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewMetadataRepo(database, testutil.Logger(t))

	got, err := repo.GetByFilename(dbc, "missing.csv")
	if err != nil || got != nil {
		t.Fatalf("GetByFilename(missing): got=%v err=%v", got, err)
	}

	seedSales(t, tx)
	got, err = repo.GetByFilename(dbc, "sales.csv")
	if err != nil || got == nil {
		t.Fatalf("GetByFilename: got=%v err=%v", got, err)
	}
	if got.RowCount != 4 {
		t.Fatalf("RowCount: got %d", got.RowCount)
	}
	cols, err := got.ColumnNames()
	if err != nil || len(cols) != 4 || cols[0] != "region" {
		t.Fatalf("ColumnNames: %v err=%v", cols, err)
	}
	ok, err := got.HasColumn("price")
	if err != nil || !ok {
		t.Fatalf("HasColumn(price): %v err=%v", ok, err)
	}

	list, err := repo.List(dbc)
	if err != nil || len(list) != 1 {
		t.Fatalf("List: %v err=%v", list, err)
	}

	dup := &types.DataSetMetadata{Filename: "sales.csv", Schema: testutil.MustJSON(t, map[string]string{}), Columns: testutil.MustJSON(t, []string{})}
	if err := repo.Create(dbc, dup); !db.IsUniqueViolation(err) {
		t.Fatalf("Create duplicate: expected unique violation, got %v", err)
	}
}

func TestMetadataRepoDelete(t *testing.T) {
	database := testutil.DB(t)
	tx := testutil.Tx(t, database)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewMetadataRepo(database, testutil.Logger(t))
	records := NewRecordRepo(database, testutil.Logger(t))

	seedSales(t, tx)
	n, err := repo.DeleteByFilename(dbc, "sales.csv")
	if err != nil || n != 1 {
		t.Fatalf("DeleteByFilename: n=%d err=%v", n, err)
	}
	n, err = records.DeleteByFilename(dbc, "sales.csv")
	if err != nil || n != 1 {
		t.Fatalf("records.DeleteByFilename: n=%d err=%v", n, err)
	}
	count, err := records.CountByFilename(dbc, "sales.csv")
	if err != nil || count != 0 {
		t.Fatalf("CountByFilename: %d err=%v", count, err)
	}
}

func TestRecordRepoAggregate(t *testing.T) {
	database := testutil.DB(t)
	tx := testutil.Tx(t, database)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewRecordRepo(database, testutil.Logger(t))
	seedSales(t, tx)

	cases := []struct {
		column string
		op     dataset.AggregateOp
		want   json.Number
	}{
		{"price", dataset.OpSum, "60"},
		{"price", dataset.OpAvg, "20"},
		{"price", dataset.OpMin, "10"},
		{"price", dataset.OpMax, "30"},
		{"price", dataset.OpCount, "3"},
		{"qty", dataset.OpSum, "8"},
		{"note", dataset.OpCount, "3"},
	}
	for _, tc := range cases {
		got, err := repo.Aggregate(dbc, "sales.csv", tc.column, tc.op)
		if err != nil {
			t.Fatalf("%s(%s): %v", tc.op, tc.column, err)
		}
		if got != tc.want {
			t.Fatalf("%s(%s): got %v want %v", tc.op, tc.column, got, tc.want)
		}
	}

	got, err := repo.Aggregate(dbc, "sales.csv", "region", dataset.OpSum)
	if err != nil {
		t.Fatalf("sum(region): %v", err)
	}
	if got != "" {
		t.Fatalf("sum(region): expected no value, got %v", got)
	}

	if _, err := repo.Aggregate(dbc, "sales.csv", "price", dataset.AggregateOp("median")); err == nil {
		t.Fatalf("expected unsupported aggregate error")
	}
}

func TestRecordRepoAggregateBindsColumn(t *testing.T) {
	database := testutil.DB(t)
	tx := testutil.Tx(t, database)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewRecordRepo(database, testutil.Logger(t))
	seedSales(t, tx)

	got, err := repo.Aggregate(dbc, "sales.csv", "price') FROM data_record; --", dataset.OpSum)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected no values for a hostile column name, got %v", got)
	}
	if _, err := repo.Aggregate(dbc, "sales.csv", "", dataset.OpSum); err == nil {
		t.Fatalf("expected invalid column name error")
	}
}

func TestRecordRepoFilter(t *testing.T) {
	database := testutil.DB(t)
	tx := testutil.Tx(t, database)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewRecordRepo(database, testutil.Logger(t))
	seedSales(t, tx)

	rows, err := repo.Filter(dbc, "sales.csv", "price", dataset.CmpGte, "20")
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Filter: expected 2 rows, got %d: %v", len(rows), rows)
	}
	if rows[0]["region"] != "south" || rows[1]["region"] != "east" {
		t.Fatalf("Filter: unexpected order: %v", rows)
	}
	if n, ok := rows[0]["price"].(json.Number); !ok || n.String() != "20" {
		t.Fatalf("Filter: expected price 20 as json.Number, got %#v", rows[0]["price"])
	}
	if rows[0]["qty"] != nil {
		t.Fatalf("Filter: expected null qty, got %v", rows[0]["qty"])
	}

	rows, err = repo.Filter(dbc, "sales.csv", "price", dataset.CmpEq, "10")
	if err != nil || len(rows) != 1 || rows[0]["region"] != "north" {
		t.Fatalf("Filter(=10): %v err=%v", rows, err)
	}

	rows, err = repo.Filter(dbc, "sales.csv", "price", dataset.CmpGt, "1000")
	if err != nil || len(rows) != 0 {
		t.Fatalf("Filter(>1000): %v err=%v", rows, err)
	}

	rows, err = repo.Filter(dbc, "sales.csv", "note", dataset.CmpEq, "12")
	if err != nil || len(rows) != 0 {
		t.Fatalf("Filter(note=12): strings must not match numerically: %v err=%v", rows, err)
	}

	if _, err := repo.Filter(dbc, "sales.csv", "price", dataset.Comparison("LIKE"), "1"); err == nil {
		t.Fatalf("expected unsupported comparison error")
	}
}

func TestRecordRepoPostgres(t *testing.T) {
	database := testutil.Postgres(t)
	tx := testutil.Tx(t, database)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewRecordRepo(database, testutil.Logger(t))
	seedSales(t, tx)

	got, err := repo.Aggregate(dbc, "sales.csv", "price", dataset.OpAvg)
	if err != nil || got != "20" {
		t.Fatalf("avg(price): %v err=%v", got, err)
	}
	rows, err := repo.Filter(dbc, "sales.csv", "qty", dataset.CmpLt, "3")
	if err != nil || len(rows) != 2 {
		t.Fatalf("Filter(qty<3): %v err=%v", rows, err)
	}
}

func TestDialectFor(t *testing.T) {
	if dialectFor(testutil.DB(t)).name() != "sqlite" {
		t.Fatalf("expected sqlite dialect")
	}
	if dialectFor(nil).name() != "postgres" {
		t.Fatalf("expected postgres default")
	}
}

func TestNormalizeDecimal(t *testing.T) {
	for in, want := range map[string]string{
		"3.7500000000000000":  "3.75",
		"20.0000000000000000": "20",
		"9007199254740993":    "9007199254740993",
		"1e+21":               "1e+21",
		"100":                 "100",
	} {
		if got := normalizeDecimal(in); got != want {
			t.Fatalf("normalizeDecimal(%q) = %q want %q", in, got, want)
		}
	}
}

func TestSQLiteNumber(t *testing.T) {
	if v, ok := sqliteNumber("9007199254740993").(int64); !ok || v != 9007199254740993 {
		t.Fatalf("expected exact int64, got %#v", sqliteNumber("9007199254740993"))
	}
	if v, ok := sqliteNumber("2.5").(float64); !ok || v != 2.5 {
		t.Fatalf("expected float64, got %#v", sqliteNumber("2.5"))
	}
}
