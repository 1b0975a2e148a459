package model

import "time"

// Slot is a scheduled departure/arrival instance of a journey.  Each
// slot carries a fixed total seat capacity shared by all seat classes.
// The sum of seats held by CART and PAID bookings against a slot must
// never exceed Capacity.
//
// Fields:
//  ID        – primary key identifier.
//  JourneyID – journey this slot belongs to.
//  DepartsAt – scheduled departure time.
//  ArrivesAt – scheduled arrival time (must be after DepartsAt).
//  Capacity  – total number of seats on this slot.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Slot struct {
	ID        uint64    // slots.id
	JourneyID uint64    // slots.journey_id
	DepartsAt time.Time // slots.departs_at
	ArrivesAt time.Time // slots.arrives_at
	Capacity  int       // slots.capacity
	CreatedAt time.Time // slots.created_at
	UpdatedAt time.Time // slots.updated_at
}
