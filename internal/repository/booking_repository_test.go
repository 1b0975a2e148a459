package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUpdateStatusRequiresCurrentState(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// The row is already PAID, so the CART->PAID predicate matches nothing.
	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs("PAID", uint64(7), "CART").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewBookingRepo(db)
	if err := repo.UpdateStatus(context.Background(), 7, "CART", "PAID"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows on stale transition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateScheduleOnlyTouchesPaidBookings(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE bookings SET travel_date").
		WithArgs("2026-06-01", uint64(3), 199.50, uint64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewBookingRepo(db)
	if err := repo.UpdateSchedule(context.Background(), 12, "2026-06-01", 3, 199.50); err != nil {
		t.Fatalf("UpdateSchedule: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCapacityAndReservedSumsActiveBookings(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT s.capacity").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "reserved"}).AddRow(100, 42))

	repo := NewSlotRepo(db)
	capacity, reserved, err := repo.CapacityAndReserved(context.Background(), 5)
	if err != nil {
		t.Fatalf("CapacityAndReserved: %v", err)
	}
	if capacity != 100 || reserved != 42 {
		t.Fatalf("got capacity=%d reserved=%d, want 100/42", capacity, reserved)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateDiscountRejectsDuplicateThreshold(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM discount_rules").
		WithArgs(45).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	repo := NewRuleRepo(db)
	if _, err := repo.CreateDiscount(context.Background(), 45, 5); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate threshold, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDiscountTableSurfacesMalformedConfiguration(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// Two rows with the same threshold can only appear when the table
	// was populated outside the API; loading must reject it.
	mock.ExpectQuery("SELECT threshold_days, percent FROM discount_rules").
		WillReturnRows(sqlmock.NewRows([]string{"threshold_days", "percent"}).
			AddRow(30, 10.0).
			AddRow(30, 20.0))

	repo := NewRuleRepo(db)
	if _, err := repo.DiscountTable(context.Background()); err == nil {
		t.Fatal("expected configuration error for duplicate thresholds")
	}
}
