package model

import "time"

// DiscountRule maps a days-before-departure threshold to a fare
// reduction percentage.  The rule with the largest threshold not
// exceeding the booking's days-to-departure applies; when none
// matches, no discount is given.  Thresholds are unique.
type DiscountRule struct {
	ID            uint64    // discount_rules.id
	ThresholdDays int       // discount_rules.threshold_days
	Percent       float64   // discount_rules.percent
	CreatedAt     time.Time // discount_rules.created_at
}

// CancellationRule maps a days-before-departure threshold to the
// percentage of the paid price retained by the operator on
// cancellation.  Selection works like DiscountRule; when no rule
// matches, the full price is retained.
type CancellationRule struct {
	ID            uint64    // cancellation_rules.id
	ThresholdDays int       // cancellation_rules.threshold_days
	Percent       float64   // cancellation_rules.percent
	CreatedAt     time.Time // cancellation_rules.created_at
}
