// Package pricing implements the fare and cancellation-charge rules.
// All functions are pure: the reference date ("today") is passed in by
// the caller, never read from the wall clock, so quotes are
// deterministic and reproducible in tests.
package pricing

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateThreshold is returned when a rule table is loaded with
// two rules sharing the same threshold.  Thresholds are unique keys;
// a duplicate is a configuration error and must be rejected before
// the table is ever consulted.
var ErrDuplicateThreshold = errors.New("duplicate rule threshold")

// Rule is a single (threshold_days, percent) pair.  The semantics of
// the percent depend on the policy consuming the table: a price
// reduction for discounts, a retained charge for cancellations.
type Rule struct {
	ThresholdDays int
	Percent       float64
}

// Table is an immutable threshold-lookup structure shared by the
// discount and cancellation policies.  Rules are kept sorted by
// threshold descending so selection is a single forward scan.
type Table struct {
	rules []Rule
}

// NewTable validates and indexes a set of rules.  An empty set is
// valid: Select will simply never match and callers fall back to
// their default percent.  Duplicate thresholds are rejected with
// ErrDuplicateThreshold.
func NewTable(rules []Rule) (*Table, error) {
	seen := make(map[int]bool, len(rules))
	for _, r := range rules {
		if seen[r.ThresholdDays] {
			return nil, fmt.Errorf("%w: %d days", ErrDuplicateThreshold, r.ThresholdDays)
		}
		seen[r.ThresholdDays] = true
	}
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ThresholdDays > sorted[j].ThresholdDays
	})
	return &Table{rules: sorted}, nil
}

// Select returns the percent of the rule with the largest threshold
// that does not exceed days, and true.  When no rule qualifies it
// returns 0 and false; the caller supplies its own default percent.
func (t *Table) Select(days int) (float64, bool) {
	if t == nil {
		return 0, false
	}
	for _, r := range t.rules {
		if r.ThresholdDays <= days {
			return r.Percent, true
		}
	}
	return 0, false
}

// Len reports the number of rules in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}
