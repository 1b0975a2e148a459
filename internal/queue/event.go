// Package queue defines message payloads exchanged over the message broker.
package queue

// Booking event types published on the booking.events queue.
const (
	EventBookingCreated   = "booking.created"
	EventBookingPaid      = "booking.paid"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published when a booking is created, paid or
// cancelled.  It carries enough information for downstream consumers
// (receipt rendering, email delivery) to act without querying the
// primary database.  Amount is the final price for created/paid
// events and the retained cancellation charge for cancelled events.
type BookingEvent struct {
	BookingID  uint64  `json:"booking_id"`
	UserID     uint64  `json:"user_id"`
	EventType  string  `json:"event_type"`
	Route      string  `json:"route"`
	TravelDate string  `json:"travel_date"`
	Amount     float64 `json:"amount"`
	OccurredAt string  `json:"occurred_at"`
}
