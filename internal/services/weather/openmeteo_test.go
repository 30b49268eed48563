package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apphttp "DemandCast/pkg/http"
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

func TestFetchParsesArchiveResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("timezone"); got != "Asia/Kolkata" {
			t.Errorf("timezone = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"daily": {
				"time": ["2024-01-01", "2024-01-02", "2024-01-03"],
				"temperature_2m_max": [28.5, 29.0, null],
				"temperature_2m_min": [18.0, 18.5, 19.0],
				"temperature_2m_mean": [23.0, 23.5, 24.0],
				"precipitation_sum": [0.0, 1.2, 0.4],
				"rain_sum": [0.0, 1.0, 0.3]
			}
		}`))
	}))
	defer srv.Close()

	o := New(apphttp.NewClient(), Config{BaseURL: srv.URL}, testLogger(t))
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	records, err := o.Fetch(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[1].TempMax != 29.0 || records[1].Rainfall != 1.0 {
		t.Fatalf("unexpected record: %+v", records[1])
	}
	// The null temperature_2m_max on day 3 forward-fills from day 2.
	if records[2].TempMax != 29.0 {
		t.Fatalf("expected forward-filled temp max 29.0, got %v", records[2].TempMax)
	}
}

func TestFetchFallsBackOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := New(apphttp.NewClient(), Config{BaseURL: srv.URL}, testLogger(t))
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	records, err := o.Fetch(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("expected 10 synthetic records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.TempMax <= rec.TempMin {
			t.Fatalf("temp range inverted: %+v", rec)
		}
		if rec.Precipitation < 0 || rec.Rainfall < 0 {
			t.Fatalf("negative rain: %+v", rec)
		}
	}
}

func TestSyntheticSeriesDeterministic(t *testing.T) {
	from := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 7, 31, 0, 0, 0, 0, time.UTC)

	a := SyntheticSeries(from, to)
	b := SyntheticSeries(from, to)
	if len(a) != 31 || len(b) != 31 {
		t.Fatalf("expected 31 days, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("day %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestFetchRejectsInvertedRange(t *testing.T) {
	o := New(apphttp.NewClient(), Config{}, testLogger(t))
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if _, err := o.Fetch(context.Background(), from, from.AddDate(0, 0, -1)); err == nil {
		t.Fatal("expected error for inverted range")
	}
}
