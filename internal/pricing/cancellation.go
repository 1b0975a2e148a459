package pricing

import "time"

// CancellationCharge computes the amount the operator retains when a
// booking is cancelled.  The charge tier is selected by the number of
// whole days left until travel; when no tier matches, the entire
// price is retained (default 100%).  The returned amount is rounded
// to 2 decimal places.  The charge represents value withheld, not
// refunded.
func CancellationCharge(finalPrice float64, travelDate, today time.Time, charges *Table) (percent, amount float64) {
	days := DaysBetween(today, travelDate)
	percent, ok := charges.Select(days)
	if !ok {
		percent = 100
	}
	return percent, Round2(finalPrice * percent / 100)
}
