package calendar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

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

func writeCalendar(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "academic_calendar.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write calendar: %v", err)
	}
	return path
}

func TestLoadBuildsDateSets(t *testing.T) {
	path := writeCalendar(t, `{
		"semesters": [{"start": "2024-01-08", "end": "2024-05-10"}],
		"exam_periods": [{"start": "2024-04-20", "end": "2024-05-05"}],
		"holidays": [{"name": "Republic Day", "dates": ["2024-01-26"]}],
		"vacation_periods": [{"start": "2024-05-11", "end": "2024-06-30"}]
	}`)

	cal, err := New(path, testLogger(t)).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	date := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return d
	}

	if !cal.IsSemester(date("2024-03-15")) {
		t.Fatal("2024-03-15 should be a semester day")
	}
	if cal.IsSemester(date("2024-05-11")) {
		t.Fatal("2024-05-11 is past the semester end")
	}
	// Exam periods overlap the semester; both flags can be set.
	if !cal.IsExam(date("2024-04-25")) || !cal.IsSemester(date("2024-04-25")) {
		t.Fatal("2024-04-25 should be both exam and semester")
	}
	if !cal.IsHoliday(date("2024-01-26")) {
		t.Fatal("2024-01-26 should be a holiday")
	}
	if !cal.IsVacation(date("2024-06-01")) {
		t.Fatal("2024-06-01 should be vacation")
	}

	// Inclusive range arithmetic.
	if got := len(cal.Exam); got != 16 {
		t.Fatalf("exam days = %d, want 16", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope.json"), testLogger(t)).Load(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvertedRange(t *testing.T) {
	path := writeCalendar(t, `{"semesters": [{"start": "2024-02-01", "end": "2024-01-01"}]}`)
	if _, err := New(path, testLogger(t)).Load(); err == nil {
		t.Fatal("expected error for inverted range")
	}
}
