package repository

import (
	"context"
	"database/sql"

	"github.com/transitbook/journey-reservation/internal/model"
)

// JourneyRepo provides CRUD operations for journeys.  A journey is an
// immutable route descriptor; only the base fare may be updated by an
// administrator.
type JourneyRepo struct {
	db *sql.DB
}

// NewJourneyRepo returns a JourneyRepo bound to the given database.
func NewJourneyRepo(db *sql.DB) *JourneyRepo { return &JourneyRepo{db: db} }

// Create inserts a journey and populates its generated ID.
func (r *JourneyRepo) Create(ctx context.Context, j *model.Journey) error {
	const q = `INSERT INTO journeys (origin, destination, base_fare) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, j.Origin, j.Destination, j.BaseFare)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	j.ID = uint64(id)
	return nil
}

// GetByID fetches a journey by id.  Returns sql.ErrNoRows when the
// journey does not exist.
func (r *JourneyRepo) GetByID(ctx context.Context, id uint64) (model.Journey, error) {
	const q = `SELECT id, origin, destination, base_fare, created_at, updated_at
	           FROM journeys WHERE id = ?`
	var j model.Journey
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&j.ID, &j.Origin, &j.Destination, &j.BaseFare, &j.CreatedAt, &j.UpdatedAt,
	)
	return j, err
}

// List returns all journeys ordered by origin then destination.
func (r *JourneyRepo) List(ctx context.Context) ([]model.Journey, error) {
	const q = `SELECT id, origin, destination, base_fare, created_at, updated_at
	           FROM journeys ORDER BY origin, destination`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	journeys := make([]model.Journey, 0)
	for rows.Next() {
		var j model.Journey
		if err := rows.Scan(&j.ID, &j.Origin, &j.Destination, &j.BaseFare, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		journeys = append(journeys, j)
	}
	return journeys, rows.Err()
}

// UpdateBaseFare changes the base fare of a journey.  Bookings priced
// under the old fare keep their fixed price.
func (r *JourneyRepo) UpdateBaseFare(ctx context.Context, id uint64, baseFare float64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE journeys SET base_fare = ? WHERE id = ?`, baseFare, id)
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

// Delete removes a journey.  It fails with ErrConflict when slots
// still reference the journey.
func (r *JourneyRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM slots WHERE journey_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM journeys WHERE id = ?`, id)
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
