package model

import "time"

// SeatClass is a fare tier applying a multiplier to a journey's base
// fare.  Classes are independent of journeys and slots; the same class
// may be booked on any slot.  Multipliers are typically >= 1.0.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – class label (e.g. ECONOMY, BUSINESS).
//  Multiplier – factor applied to the journey base fare.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type SeatClass struct {
	ID         uint64    // seat_classes.id
	Name       string    // seat_classes.name
	Multiplier float64   // seat_classes.multiplier
	CreatedAt  time.Time // seat_classes.created_at
	UpdatedAt  time.Time // seat_classes.updated_at
}
