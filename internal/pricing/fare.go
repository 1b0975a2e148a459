package pricing

import (
	"errors"
	"math"
	"time"
)

// MaxAdvanceDays is the booking window: no reservation may be made
// more than this many days before the travel date.
const MaxAdvanceDays = 120

// ErrWindowExceeded is returned when the travel date lies beyond the
// booking window.
var ErrWindowExceeded = errors.New("booking window exceeded")

// Quote is the result of a fare computation.  Total is always
// round(Gross × (1 − DiscountPercent/100), 2).
type Quote struct {
	Gross           float64
	DiscountPercent float64
	DiscountAmount  float64
	Total           float64
	DaysBefore      int
}

// Fare prices a booking of seats in a given class.  It computes the
// gross fare, selects the discount tier for the number of whole days
// between today and the travel date (default: no discount) and rounds
// the result to 2 decimal places.  Travel dates more than
// MaxAdvanceDays ahead fail with ErrWindowExceeded.  Travel dates in
// the past are not rejected here; negative day counts simply match no
// tier.
func Fare(baseFare, multiplier float64, seats int, travelDate, today time.Time, discounts *Table) (Quote, error) {
	days := DaysBetween(today, travelDate)
	if days > MaxAdvanceDays {
		return Quote{}, ErrWindowExceeded
	}
	gross := baseFare * multiplier * float64(seats)
	percent, ok := discounts.Select(days)
	if !ok {
		percent = 0
	}
	total := Round2(gross * (1 - percent/100))
	return Quote{
		Gross:           Round2(gross),
		DiscountPercent: percent,
		DiscountAmount:  Round2(gross - total),
		Total:           total,
		DaysBefore:      days,
	}, nil
}

// DaysBetween returns the number of whole calendar days from a to b,
// ignoring the time-of-day component.  The result is negative when b
// precedes a.
func DaysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// Round2 rounds a currency amount to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
