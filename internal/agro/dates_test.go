package agro

import (
	"testing"
	"time"
)

func TestDayNormalizes(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2024, 3, 15, 23, 30, 0, 0, loc)

	got := Day(ts)
	if got.Hour() != 0 || got.Location() != time.UTC {
		t.Fatalf("expected UTC midnight, got %v", got)
	}
	// 23:30 CET is 22:30 UTC, still the 15th.
	if got.Day() != 15 {
		t.Fatalf("expected day 15, got %d", got.Day())
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 11, 2, 0, 0, 0, time.UTC)

	if got := DaysBetween(a, b); got != 10 {
		t.Fatalf("expected 10 days, got %d", got)
	}
	if got := DaysBetween(b, a); got != -10 {
		t.Fatalf("expected -10 days, got %d", got)
	}
}

func TestParseDayRoundTrip(t *testing.T) {
	d, err := ParseDay("2024-06-30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if DayKey(d) != "2024-06-30" {
		t.Fatalf("round trip mismatch: %s", DayKey(d))
	}

	if _, err := ParseDay("30/06/2024"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
