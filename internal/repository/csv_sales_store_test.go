package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestCSVSalesStoreLoad(t *testing.T) {
	path := writeCSV(t, "date,store,item,sales\n2024-01-01,1,3,42.5\n2024-01-02,2,3,17\n")
	store := NewCSVSalesStore(path, testLogger(t))

	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	records, err := store.LoadSales(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	r := records[0]
	if !r.Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", r.Date)
	}
	if r.StoreID != 1 || r.ItemID != 3 || r.Quantity != 42.5 {
		t.Errorf("record = %+v", r)
	}
}

func TestCSVSalesStoreColumnOrderIndependent(t *testing.T) {
	path := writeCSV(t, "sales,item,date,store\n9,4,2024-02-01,7\n")
	store := NewCSVSalesStore(path, testLogger(t))

	records, err := store.LoadSales(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if records[0].StoreID != 7 || records[0].ItemID != 4 || records[0].Quantity != 9 {
		t.Errorf("record = %+v", records[0])
	}
}

func TestCSVSalesStoreMissingColumn(t *testing.T) {
	path := writeCSV(t, "date,store,item\n2024-01-01,1,3\n")
	store := NewCSVSalesStore(path, testLogger(t))

	if err := store.Init(context.Background()); err == nil {
		t.Fatal("expected error for missing sales column")
	}
	if _, err := store.LoadSales(context.Background()); err == nil {
		t.Fatal("expected load error for missing sales column")
	}
}

func TestCSVSalesStoreBadDate(t *testing.T) {
	path := writeCSV(t, "date,store,item,sales\n01/02/2024,1,3,5\n")
	store := NewCSVSalesStore(path, testLogger(t))

	if _, err := store.LoadSales(context.Background()); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestCSVSalesStoreMissingFile(t *testing.T) {
	store := NewCSVSalesStore(filepath.Join(t.TempDir(), "absent.csv"), testLogger(t))

	if err := store.Init(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
	if err := store.Health(context.Background()); err == nil {
		t.Fatal("expected health error for missing file")
	}
}
