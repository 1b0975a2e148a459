package model

import "time"

// Booking lifecycle statuses.  Transitions move only forward:
// CART -> PAID, CART -> CANCELLED, PAID -> CANCELLED.  CANCELLED is
// terminal.  CART bookings may alternatively be abandoned, which
// removes the row entirely and releases the held seats.
const (
	StatusCart      = "CART"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
)

// Booking records a user's claim on seats for a slot.  The final
// price is fixed at creation (or reschedule) time from the fare rules
// in effect at that moment and does not drift when rule tables change
// afterwards.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user who made the booking.
//  JourneyID   – journey being travelled.
//  SlotID      – scheduled slot the seats are held against.
//  SeatClassID – fare class booked.
//  TravelDate  – date of travel; drives discount and cancellation tiers.
//  Seats       – number of seats held (>= 1).
//  FinalPrice  – total price, rounded to 2 decimal places.
//  Status      – CART, PAID or CANCELLED.
//  CreatedAt   – creation timestamp; stable ordering for listings.
//  UpdatedAt   – last update timestamp.
type Booking struct {
	ID          uint64    // bookings.id
	UserID      uint64    // bookings.user_id
	JourneyID   uint64    // bookings.journey_id
	SlotID      uint64    // bookings.slot_id
	SeatClassID uint64    // bookings.seat_class_id
	TravelDate  time.Time // bookings.travel_date
	Seats       int       // bookings.seats
	FinalPrice  float64   // bookings.final_price
	Status      string    // bookings.status
	CreatedAt   time.Time // bookings.created_at
	UpdatedAt   time.Time // bookings.updated_at
}

// Active reports whether the booking currently holds seat capacity,
// i.e. it is in CART or PAID status.
func (b Booking) Active() bool {
	return b.Status == StatusCart || b.Status == StatusPaid
}
