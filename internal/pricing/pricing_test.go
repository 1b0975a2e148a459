package pricing

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func discountTiers(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable([]Rule{
		{ThresholdDays: 91, Percent: 30},
		{ThresholdDays: 80, Percent: 20},
		{ThresholdDays: 60, Percent: 10},
		{ThresholdDays: 45, Percent: 5},
	})
	if err != nil {
		t.Fatalf("building discount table: %v", err)
	}
	return tbl
}

func TestNewTableRejectsDuplicateThresholds(t *testing.T) {
	_, err := NewTable([]Rule{
		{ThresholdDays: 30, Percent: 10},
		{ThresholdDays: 30, Percent: 20},
	})
	if !errors.Is(err, ErrDuplicateThreshold) {
		t.Fatalf("expected ErrDuplicateThreshold, got %v", err)
	}
}

func TestSelectPicksLargestQualifyingThreshold(t *testing.T) {
	tbl := discountTiers(t)
	cases := []struct {
		days    int
		percent float64
		match   bool
	}{
		{120, 30, true},
		{95, 30, true},
		{91, 30, true},
		{90, 20, true},
		{60, 10, true},
		{59, 5, true},
		{45, 5, true},
		{44, 0, false},
		{0, 0, false},
		{-3, 0, false},
	}
	for _, c := range cases {
		p, ok := tbl.Select(c.days)
		if ok != c.match || p != c.percent {
			t.Fatalf("Select(%d) = (%v, %v), want (%v, %v)", c.days, p, ok, c.percent, c.match)
		}
	}
}

func TestSelectOnEmptyTable(t *testing.T) {
	tbl, err := NewTable(nil)
	if err != nil {
		t.Fatalf("empty table must be valid: %v", err)
	}
	if p, ok := tbl.Select(50); ok || p != 0 {
		t.Fatalf("empty table must never match, got (%v, %v)", p, ok)
	}
}

func TestFareAppliesTierDiscount(t *testing.T) {
	today := date(2026, time.March, 1)
	travel := today.AddDate(0, 0, 95)

	q, err := Fare(100, 1.5, 2, travel, today, discountTiers(t))
	if err != nil {
		t.Fatalf("Fare returned error: %v", err)
	}
	if q.Gross != 300.00 {
		t.Fatalf("gross = %v, want 300.00", q.Gross)
	}
	if q.DiscountPercent != 30 {
		t.Fatalf("discount percent = %v, want 30", q.DiscountPercent)
	}
	if q.Total != 210.00 {
		t.Fatalf("final price = %v, want 210.00", q.Total)
	}
	if q.DiscountAmount != 90.00 {
		t.Fatalf("discount amount = %v, want 90.00", q.DiscountAmount)
	}
}

func TestFareBookingWindow(t *testing.T) {
	today := date(2026, time.March, 1)

	if _, err := Fare(100, 1, 1, today.AddDate(0, 0, 121), today, discountTiers(t)); !errors.Is(err, ErrWindowExceeded) {
		t.Fatalf("121 days out: expected ErrWindowExceeded, got %v", err)
	}
	if _, err := Fare(100, 1, 1, today.AddDate(0, 0, 120), today, discountTiers(t)); err != nil {
		t.Fatalf("120 days out must succeed, got %v", err)
	}
}

func TestFareWithoutMatchingTier(t *testing.T) {
	today := date(2026, time.March, 1)
	q, err := Fare(80, 2.0, 3, today.AddDate(0, 0, 10), today, discountTiers(t))
	if err != nil {
		t.Fatalf("Fare returned error: %v", err)
	}
	if q.DiscountPercent != 0 || q.Total != 480.00 {
		t.Fatalf("expected undiscounted 480.00, got %v%% / %v", q.DiscountPercent, q.Total)
	}
}

func TestFarePastTravelDateNotRejected(t *testing.T) {
	today := date(2026, time.March, 1)
	q, err := Fare(50, 1, 1, today.AddDate(0, 0, -2), today, discountTiers(t))
	if err != nil {
		t.Fatalf("past travel dates are not validated by pricing, got %v", err)
	}
	if q.DiscountPercent != 0 || q.Total != 50.00 {
		t.Fatalf("negative day count must match no tier, got %v%% / %v", q.DiscountPercent, q.Total)
	}
}

func TestCancellationCharge(t *testing.T) {
	tbl, err := NewTable([]Rule{
		{ThresholdDays: 0, Percent: 100},
		{ThresholdDays: 40, Percent: 40},
		{ThresholdDays: 60, Percent: 0},
	})
	if err != nil {
		t.Fatalf("building cancellation table: %v", err)
	}
	today := date(2026, time.March, 1)

	percent, amount := CancellationCharge(210.00, today.AddDate(0, 0, 45), today, tbl)
	if percent != 40 || amount != 84.00 {
		t.Fatalf("45 days left: got %v%% / %v, want 40%% / 84.00", percent, amount)
	}

	percent, amount = CancellationCharge(210.00, today.AddDate(0, 0, 65), today, tbl)
	if percent != 0 || amount != 0.00 {
		t.Fatalf("65 days left: got %v%% / %v, want 0%% / 0.00", percent, amount)
	}
}

func TestCancellationChargeDefaultsToFullRetention(t *testing.T) {
	empty, _ := NewTable(nil)
	percent, amount := CancellationCharge(150.00, date(2026, 4, 1), date(2026, 3, 1), empty)
	if percent != 100 || amount != 150.00 {
		t.Fatalf("empty table must retain everything, got %v%% / %v", percent, amount)
	}
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2026, time.March, 1, 23, 50, 0, 0, time.UTC)
	b := time.Date(2026, time.March, 2, 0, 10, 0, 0, time.UTC)
	if d := DaysBetween(a, b); d != 1 {
		t.Fatalf("DaysBetween = %d, want 1", d)
	}
}
