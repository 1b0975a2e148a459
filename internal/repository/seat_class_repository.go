package repository

import (
	"context"
	"database/sql"

	"github.com/transitbook/journey-reservation/internal/model"
)

// SeatClassRepo provides CRUD operations for seat classes.
type SeatClassRepo struct {
	db *sql.DB
}

// NewSeatClassRepo returns a SeatClassRepo bound to the given database.
func NewSeatClassRepo(db *sql.DB) *SeatClassRepo { return &SeatClassRepo{db: db} }

// Create inserts a seat class and populates its generated ID.
func (r *SeatClassRepo) Create(ctx context.Context, sc *model.SeatClass) error {
	const q = `INSERT INTO seat_classes (name, multiplier) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, sc.Name, sc.Multiplier)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sc.ID = uint64(id)
	return nil
}

// GetByID fetches a seat class by id.  Returns sql.ErrNoRows when it
// does not exist.
func (r *SeatClassRepo) GetByID(ctx context.Context, id uint64) (model.SeatClass, error) {
	const q = `SELECT id, name, multiplier, created_at, updated_at FROM seat_classes WHERE id = ?`
	var sc model.SeatClass
	err := r.db.QueryRowContext(ctx, q, id).Scan(&sc.ID, &sc.Name, &sc.Multiplier, &sc.CreatedAt, &sc.UpdatedAt)
	return sc, err
}

// List returns all seat classes ordered by multiplier ascending.
func (r *SeatClassRepo) List(ctx context.Context) ([]model.SeatClass, error) {
	const q = `SELECT id, name, multiplier, created_at, updated_at FROM seat_classes ORDER BY multiplier`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	classes := make([]model.SeatClass, 0)
	for rows.Next() {
		var sc model.SeatClass
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Multiplier, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, sc)
	}
	return classes, rows.Err()
}

// Delete removes a seat class.  It fails with ErrConflict when active
// bookings still reference it.
func (r *SeatClassRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE seat_class_id = ? AND status IN ('CART','PAID')`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM seat_classes WHERE id = ?`, id)
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
