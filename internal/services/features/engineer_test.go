package features

import (
	"testing"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// buildFixture creates nDays of sales for the given items (two stores per
// item per day) plus matching weather.
func buildFixture(items []int, nDays int) ([]models.RawSalesRecord, []models.WeatherRecord) {
	var sales []models.RawSalesRecord
	var weather []models.WeatherRecord
	for n := 0; n < nDays; n++ {
		d := day(n)
		for _, item := range items {
			base := float64(item*100 + n)
			sales = append(sales,
				models.RawSalesRecord{Date: d, StoreID: 1, ItemID: item, Quantity: base},
				models.RawSalesRecord{Date: d, StoreID: 2, ItemID: item, Quantity: base},
			)
		}
		weather = append(weather, models.WeatherRecord{
			Date: d, TempMax: 30, TempMin: 20, TempMean: 25, Precipitation: 1, Rainfall: 0.5,
		})
	}
	return sales, weather
}

func TestBuildTrainingTableWarmupDrop(t *testing.T) {
	e := NewEngineer(testLogger(t))
	sales, weather := buildFixture([]int{1}, 40)

	table, err := e.BuildTrainingTable(sales, weather, models.NewCalendarDates())
	if err != nil {
		t.Fatalf("BuildTrainingTable: %v", err)
	}

	// 28 warm-up rows dropped per item (lag_28 undefined until row 28).
	if len(table) != 12 {
		t.Fatalf("expected 12 rows after warm-up drop, got %d", len(table))
	}
	if !table[0].Date.Equal(day(28)) {
		t.Fatalf("first surviving row = %v, want %v", table[0].Date, day(28))
	}
}

func TestBuildTrainingTableAggregatesStores(t *testing.T) {
	e := NewEngineer(testLogger(t))
	sales, weather := buildFixture([]int{1}, 40)

	table, err := e.BuildTrainingTable(sales, weather, models.NewCalendarDates())
	if err != nil {
		t.Fatalf("BuildTrainingTable: %v", err)
	}

	// Two stores selling (100+n) each on day n.
	want := 2 * float64(100+28)
	if table[0].Sales != want {
		t.Fatalf("sales = %v, want %v", table[0].Sales, want)
	}
}

func TestLagsNeverCrossItems(t *testing.T) {
	e := NewEngineer(testLogger(t))
	sales, weather := buildFixture([]int{1, 2}, 40)

	table, err := e.BuildTrainingTable(sales, weather, models.NewCalendarDates())
	if err != nil {
		t.Fatalf("BuildTrainingTable: %v", err)
	}

	for _, row := range table {
		// Item i sells 2*(i*100+n) on day n; its lag-1 value must come
		// from its own series, one day back.
		n := int(row.Date.Sub(day(0)).Hours() / 24)
		wantLag := 2 * float64(row.ItemID*100+n-1)
		if row.Lag1 != wantLag {
			t.Fatalf("item %d day %d: lag1 = %v, want %v (cross-item leakage?)",
				row.ItemID, n, row.Lag1, wantLag)
		}
	}
}

func TestTableSortedByItemThenDate(t *testing.T) {
	e := NewEngineer(testLogger(t))
	sales, weather := buildFixture([]int{2, 1}, 35)

	table, err := e.BuildTrainingTable(sales, weather, models.NewCalendarDates())
	if err != nil {
		t.Fatalf("BuildTrainingTable: %v", err)
	}

	for i := 1; i < len(table); i++ {
		prev, cur := table[i-1], table[i]
		if cur.ItemID < prev.ItemID {
			t.Fatalf("row %d: item order violated", i)
		}
		if cur.ItemID == prev.ItemID && !cur.Date.After(prev.Date) {
			t.Fatalf("row %d: date order violated within item %d", i, cur.ItemID)
		}
	}
}

func TestMissingWeatherDropsRows(t *testing.T) {
	e := NewEngineer(testLogger(t))
	sales, weather := buildFixture([]int{1}, 40)

	// Remove weather for day 30; that date survived the warm-up window
	// so it must be dropped by the join instead.
	var pruned []models.WeatherRecord
	for _, w := range weather {
		if !w.Date.Equal(day(30)) {
			pruned = append(pruned, w)
		}
	}

	table, err := e.BuildTrainingTable(sales, pruned, models.NewCalendarDates())
	if err != nil {
		t.Fatalf("BuildTrainingTable: %v", err)
	}
	if len(table) != 11 {
		t.Fatalf("expected 11 rows, got %d", len(table))
	}
	for _, row := range table {
		if row.Date.Equal(day(30)) {
			t.Fatal("row without weather survived the drop")
		}
	}
}

func TestTemporalAndCalendarFeatures(t *testing.T) {
	e := NewEngineer(testLogger(t))
	sales, weather := buildFixture([]int{1}, 40)

	cal := models.NewCalendarDates()
	examDay := day(33) // 2024-02-03, a Saturday
	cal.Exam[examDay.Format("2006-01-02")] = struct{}{}

	table, err := e.BuildTrainingTable(sales, weather, cal)
	if err != nil {
		t.Fatalf("BuildTrainingTable: %v", err)
	}

	var row *models.FeatureRow
	for i := range table {
		if table[i].Date.Equal(examDay) {
			row = &table[i]
			break
		}
	}
	if row == nil {
		t.Fatal("expected row for 2024-02-03")
	}
	if row.DayOfWeek != 5 || row.IsWeekend != 1 {
		t.Fatalf("weekday features wrong: dow=%d weekend=%d", row.DayOfWeek, row.IsWeekend)
	}
	if row.Month != 2 || row.Quarter != 1 || row.DayOfYear != 34 {
		t.Fatalf("date features wrong: month=%d quarter=%d doy=%d", row.Month, row.Quarter, row.DayOfYear)
	}
	if row.IsExam != 1 || row.IsSemester != 0 {
		t.Fatalf("calendar flags wrong: exam=%d semester=%d", row.IsExam, row.IsSemester)
	}
}

func TestBuildTrainingTableNoSales(t *testing.T) {
	e := NewEngineer(testLogger(t))
	if _, err := e.BuildTrainingTable(nil, nil, models.NewCalendarDates()); err == nil {
		t.Fatal("expected error for empty sales")
	}
}
