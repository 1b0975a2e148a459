package repository

import (
	"context"
	"database/sql"

	"github.com/transitbook/journey-reservation/internal/model"
)

// SlotRepo provides CRUD operations for slots and the capacity
// accounting queries used to prime the in-memory seat inventory.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

// Create inserts a slot and populates its generated ID.
func (r *SlotRepo) Create(ctx context.Context, s *model.Slot) error {
	const q = `INSERT INTO slots (journey_id, departs_at, arrives_at, capacity) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.JourneyID, s.DepartsAt.UTC(), s.ArrivesAt.UTC(), s.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID fetches a slot by id.  Returns sql.ErrNoRows when the slot
// does not exist.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (model.Slot, error) {
	const q = `SELECT id, journey_id, departs_at, arrives_at, capacity, created_at, updated_at
	           FROM slots WHERE id = ?`
	var s model.Slot
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.JourneyID, &s.DepartsAt, &s.ArrivesAt, &s.Capacity, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// ListByJourney returns all slots of a journey ordered by departure.
func (r *SlotRepo) ListByJourney(ctx context.Context, journeyID uint64) ([]model.Slot, error) {
	const q = `SELECT id, journey_id, departs_at, arrives_at, capacity, created_at, updated_at
	           FROM slots WHERE journey_id = ? ORDER BY departs_at`
	rows, err := r.db.QueryContext(ctx, q, journeyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]model.Slot, 0)
	for rows.Next() {
		var s model.Slot
		if err := rows.Scan(&s.ID, &s.JourneyID, &s.DepartsAt, &s.ArrivesAt, &s.Capacity, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// UpdateCapacity changes the total capacity of a slot.  The caller
// must invalidate any cached inventory state for the slot afterwards.
func (r *SlotRepo) UpdateCapacity(ctx context.Context, id uint64, capacity int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE slots SET capacity = ? WHERE id = ?`, capacity, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a slot.  It fails with ErrConflict when bookings in
// CART or PAID status still hold seats on it.
func (r *SlotRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE slot_id = ? AND status IN ('CART','PAID')`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CapacityAndReserved returns a slot's total capacity together with
// the live sum of seats held by CART and PAID bookings.  The seat
// inventory uses this as its loader; the sum is the authoritative
// reserved count at prime time.
func (r *SlotRepo) CapacityAndReserved(ctx context.Context, slotID uint64) (capacity, reserved int, err error) {
	const q = `SELECT s.capacity,
	                  COALESCE((SELECT SUM(b.seats) FROM bookings b
	                            WHERE b.slot_id = s.id AND b.status IN ('CART','PAID')), 0)
	           FROM slots s WHERE s.id = ?`
	err = r.db.QueryRowContext(ctx, q, slotID).Scan(&capacity, &reserved)
	return capacity, reserved, err
}
