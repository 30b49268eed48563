package util

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2024 || got.Month() != time.October || got.Day() != 10 {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateInvalid(t *testing.T) {
	if _, ok := ParseDate(""); ok {
		t.Fatalf("expected not ok for empty")
	}
	if _, ok := ParseDate("10/10/2024"); ok {
		t.Fatalf("expected not ok for wrong layout")
	}
}

func TestMidnight(t *testing.T) {
	in := time.Date(2024, 10, 10, 13, 45, 12, 99, time.UTC)
	got := Midnight(in)
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 10, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 10, 8, 1, 0, 0, 0, time.UTC)
	if d := DaysBetween(a, b); d != 7 {
		t.Fatalf("expected 7 got %d", d)
	}
	if d := DaysBetween(b, a); d != -7 {
		t.Fatalf("expected -7 got %d", d)
	}
}
