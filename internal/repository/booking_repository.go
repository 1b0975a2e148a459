package repository

import (
	"context"
	"database/sql"

	"github.com/transitbook/journey-reservation/internal/model"
)

// BookingRepo provides CRUD operations for bookings.  Each lifecycle
// mutation is a single statement, so it commits atomically; the
// status predicates in the UPDATE/DELETE statements re-check the
// state machine at write time, which keeps the operations safely
// retryable as a whole.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, journey_id, slot_id, seat_class_id, travel_date, seats, final_price, status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.JourneyID, &b.SlotID, &b.SeatClassID,
		&b.TravelDate, &b.Seats, &b.FinalPrice, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// Create inserts a booking and populates its generated ID and
// timestamps by querying the row back.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, journey_id, slot_id, seat_class_id, travel_date, seats, final_price, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		b.UserID, b.JourneyID, b.SlotID, b.SeatClassID,
		b.TravelDate.UTC().Format("2006-01-02"), b.Seats, b.FinalPrice, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	stored, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = stored
	return nil
}

// GetByID fetches a booking by id.  Returns sql.ErrNoRows when the
// booking does not exist.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
}

// ListByUser returns all bookings of a user, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateStatus transitions a booking from one status to another.  The
// current status is part of the WHERE clause, so a concurrent
// transition loses cleanly: zero rows affected surfaces as
// sql.ErrNoRows and the caller re-reads the row.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`, to, id, from)
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

// UpdateSchedule overwrites the travel date, seat class and final
// price of a PAID booking in place.  Only PAID bookings may be
// rescheduled; the predicate enforces that at write time.
func (r *BookingRepo) UpdateSchedule(ctx context.Context, id uint64, travelDate string, seatClassID uint64, finalPrice float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET travel_date = ?, seat_class_id = ?, final_price = ? WHERE id = ? AND status = 'PAID'`,
		travelDate, seatClassID, finalPrice, id)
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

// Delete removes a booking row.  Used for cart abandonment and for
// administrative purge of cancelled rows; neither touches capacity
// beyond what the caller already released.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
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

// PurgeCancelled deletes cancelled bookings and returns how many rows
// were removed.  Cancelled rows hold no capacity, so this is a pure
// removal.
func (r *BookingRepo) PurgeCancelled(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE status = 'CANCELLED'`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
