package model

import "time"

// Journey is an immutable route descriptor.  A journey connects an
// origin to a destination and carries the base fare from which all
// seat prices are derived.  Scheduled departures of a journey are
// represented by slots.
//
// Fields:
//  ID        – primary key identifier.
//  Origin    – departure city or station.
//  Destination – arrival city or station.
//  BaseFare  – fare per seat in currency units before class multiplier
//              and discounts; never negative.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Journey struct {
	ID          uint64    // journeys.id
	Origin      string    // journeys.origin
	Destination string    // journeys.destination
	BaseFare    float64   // journeys.base_fare
	CreatedAt   time.Time // journeys.created_at
	UpdatedAt   time.Time // journeys.updated_at
}

// Route returns the human-readable "origin → destination" label used
// in notification events.
func (j Journey) Route() string {
	return j.Origin + " - " + j.Destination
}
