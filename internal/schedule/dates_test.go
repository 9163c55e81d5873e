package schedule

import (
	"testing"
	"time"
)

func TestDayStart(t *testing.T) {
	in := time.Date(2025, 6, 15, 23, 45, 12, 999, time.UTC)
	want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if got := DayStart(in); !got.Equal(want) {
		t.Errorf("DayStart(%v) = %v, want %v", in, got, want)
	}
}

func TestDayStartConvertsToUTC(t *testing.T) {
	// 01:30 on June 16 in UTC+5 is still June 15 in UTC.
	loc := time.FixedZone("UTC+5", 5*60*60)
	in := time.Date(2025, 6, 16, 1, 30, 0, 0, loc)
	want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if got := DayStart(in); !got.Equal(want) {
		t.Errorf("DayStart(%v) = %v, want %v", in, got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, 6, 15, 22, 0, 0, 0, time.UTC)
	b := time.Date(2025, 6, 18, 1, 0, 0, 0, time.UTC)

	if got := DaysBetween(a, b); got != 3 {
		t.Errorf("DaysBetween = %d, want 3", got)
	}
	if got := DaysBetween(b, a); got != -3 {
		t.Errorf("DaysBetween reversed = %d, want -3", got)
	}
	if got := DaysBetween(a, a); got != 0 {
		t.Errorf("DaysBetween same day = %d, want 0", got)
	}
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2025, 6, 15, 0, 0, 1, 0, time.UTC)
	night := time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC)
	nextDay := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	if !SameDay(morning, night) {
		t.Error("times on the same UTC day should compare equal")
	}
	if SameDay(night, nextDay) {
		t.Error("midnight boundary should separate days")
	}
}

func TestTodayUTCUsesMockableClock(t *testing.T) {
	fixed := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	original := timeNow
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = original }()

	want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if got := TodayUTC(); !got.Equal(want) {
		t.Errorf("TodayUTC() = %v, want %v", got, want)
	}
}
