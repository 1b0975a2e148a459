// Package booking implements the booking lifecycle: the state machine
// that takes a booking from cart to paid to cancelled, coordinating
// fare rules, cancellation rules and seat inventory.  All operations
// are all-or-nothing: when any step fails, no inventory stays held
// and no booking row is left behind.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/transitbook/journey-reservation/internal/inventory"
	"github.com/transitbook/journey-reservation/internal/model"
	"github.com/transitbook/journey-reservation/internal/pricing"
	"github.com/transitbook/journey-reservation/internal/queue"
)

// JourneyStore loads journeys.  Implementations return sql.ErrNoRows
// when a journey does not exist.
type JourneyStore interface {
	GetByID(ctx context.Context, id uint64) (model.Journey, error)
}

// SlotStore loads slots.
type SlotStore interface {
	GetByID(ctx context.Context, id uint64) (model.Slot, error)
}

// SeatClassStore loads seat classes.
type SeatClassStore interface {
	GetByID(ctx context.Context, id uint64) (model.SeatClass, error)
}

// RuleStore loads immutable snapshots of the pricing rule tables.  A
// snapshot is taken per operation, so rule updates never affect
// prices already fixed on existing bookings.
type RuleStore interface {
	DiscountTable(ctx context.Context) (*pricing.Table, error)
	CancellationTable(ctx context.Context) (*pricing.Table, error)
}

// BookingStore persists bookings.  UpdateStatus and UpdateSchedule
// include the expected current state in their predicates and return
// sql.ErrNoRows when it no longer holds, so racing transitions lose
// cleanly.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (model.Booking, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, from, to string) error
	UpdateSchedule(ctx context.Context, id uint64, travelDate string, seatClassID uint64, finalPrice float64) error
	Delete(ctx context.Context, id uint64) error
}

// Inventory is the atomic per-slot seat accounting the service
// reserves against before persisting a booking.
type Inventory interface {
	Reserve(ctx context.Context, slotID uint64, seats int) error
	Release(ctx context.Context, slotID uint64, seats int) error
}

// EventPublisher delivers booking events to the notification sink.
// Publishing is best-effort: the service ignores publish errors and
// never fails an operation because a notification could not be sent.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Service is the booking lifecycle coordinator.
type Service struct {
	Journeys JourneyStore
	Slots    SlotStore
	Classes  SeatClassStore
	Rules    RuleStore
	Bookings BookingStore
	Seats    Inventory
	Events   EventPublisher // optional; nil disables notifications

	// Now supplies "today" for all day-difference computations so
	// pricing stays deterministic and testable.  Defaults to
	// time.Now in UTC.
	Now func() time.Time

	// ReleaseOnCancel controls whether cancelling a booking returns
	// its seats to the slot.  The historical behavior is to keep
	// cancelled seats unsold, so the default is false.
	ReleaseOnCancel bool
}

// CreateParams are the inputs to a reservation request.
type CreateParams struct {
	UserID      uint64
	JourneyID   uint64
	SlotID      uint64
	SeatClassID uint64
	TravelDate  time.Time
	Seats       int
	PayNow      bool
}

// CancellationResult reports the charge retained by the operator.
type CancellationResult struct {
	Booking model.Booking
	Percent float64
	Amount  float64
}

func (s *Service) today() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// mapNotFound converts the storage layer's no-row sentinel into the
// service taxonomy.
func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Create validates the booking window, reserves seats atomically,
// prices the booking and persists it in CART status (or PAID when
// paying immediately).  On any failure after the reservation the
// seats are released again, so a failed create holds nothing.
func (s *Service) Create(ctx context.Context, p CreateParams) (model.Booking, pricing.Quote, error) {
	if p.Seats < 1 {
		return model.Booking{}, pricing.Quote{}, ErrInvalidInput
	}
	journey, err := s.Journeys.GetByID(ctx, p.JourneyID)
	if err != nil {
		return model.Booking{}, pricing.Quote{}, mapNotFound(err)
	}
	slot, err := s.Slots.GetByID(ctx, p.SlotID)
	if err != nil {
		return model.Booking{}, pricing.Quote{}, mapNotFound(err)
	}
	if slot.JourneyID != journey.ID {
		return model.Booking{}, pricing.Quote{}, ErrNotFound
	}
	class, err := s.Classes.GetByID(ctx, p.SeatClassID)
	if err != nil {
		return model.Booking{}, pricing.Quote{}, mapNotFound(err)
	}
	discounts, err := s.Rules.DiscountTable(ctx)
	if err != nil {
		return model.Booking{}, pricing.Quote{}, err
	}
	quote, err := pricing.Fare(journey.BaseFare, class.Multiplier, p.Seats, p.TravelDate, s.today(), discounts)
	if err != nil {
		if errors.Is(err, pricing.ErrWindowExceeded) {
			return model.Booking{}, pricing.Quote{}, ErrBookingWindowExceeded
		}
		return model.Booking{}, pricing.Quote{}, err
	}
	if err := s.Seats.Reserve(ctx, slot.ID, p.Seats); err != nil {
		if errors.Is(err, inventory.ErrSeatsUnavailable) {
			return model.Booking{}, pricing.Quote{}, ErrSeatsUnavailable
		}
		return model.Booking{}, pricing.Quote{}, mapNotFound(err)
	}
	status := model.StatusCart
	if p.PayNow {
		status = model.StatusPaid
	}
	b := model.Booking{
		UserID:      p.UserID,
		JourneyID:   journey.ID,
		SlotID:      slot.ID,
		SeatClassID: class.ID,
		TravelDate:  p.TravelDate,
		Seats:       p.Seats,
		FinalPrice:  quote.Total,
		Status:      status,
	}
	if err := s.Bookings.Create(ctx, &b); err != nil {
		// All-or-nothing: give the seats back before reporting failure.
		_ = s.Seats.Release(ctx, slot.ID, p.Seats)
		return model.Booking{}, pricing.Quote{}, err
	}
	eventType := queue.EventBookingCreated
	if p.PayNow {
		eventType = queue.EventBookingPaid
	}
	s.publish(ctx, eventType, b, journey.Route(), b.FinalPrice)
	return b, quote, nil
}

// Checkout transitions a CART booking to PAID.  The price was fixed
// and the seats were held at creation time, so no re-pricing or
// re-reservation happens here.
func (s *Service) Checkout(ctx context.Context, bookingID, userID uint64) (model.Booking, error) {
	b, err := s.authorized(ctx, bookingID, userID)
	if err != nil {
		return model.Booking{}, err
	}
	if b.Status != model.StatusCart {
		return model.Booking{}, ErrInvalidState
	}
	if err := s.Bookings.UpdateStatus(ctx, b.ID, model.StatusCart, model.StatusPaid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Booking{}, ErrInvalidState
		}
		return model.Booking{}, err
	}
	b.Status = model.StatusPaid
	s.publishForBooking(ctx, queue.EventBookingPaid, b, b.FinalPrice)
	return b, nil
}

// Abandon removes a CART booking and releases its held seats back to
// the slot.  Exactly the reserved count is released, restoring
// pre-reservation availability.
func (s *Service) Abandon(ctx context.Context, bookingID, userID uint64) error {
	b, err := s.authorized(ctx, bookingID, userID)
	if err != nil {
		return err
	}
	if b.Status != model.StatusCart {
		return ErrInvalidState
	}
	if err := s.Bookings.Delete(ctx, b.ID); err != nil {
		return mapNotFound(err)
	}
	return s.Seats.Release(ctx, b.SlotID, b.Seats)
}

// Reschedule re-prices a PAID booking against a new travel date and
// seat class and overwrites date, class and price in place.  The slot
// and seat count never change, so the capacity held at creation time
// remains valid and is not re-verified.
func (s *Service) Reschedule(ctx context.Context, bookingID, userID uint64, travelDate time.Time, seatClassID uint64) (model.Booking, pricing.Quote, error) {
	b, err := s.authorized(ctx, bookingID, userID)
	if err != nil {
		return model.Booking{}, pricing.Quote{}, err
	}
	if b.Status != model.StatusPaid {
		return model.Booking{}, pricing.Quote{}, ErrInvalidState
	}
	journey, err := s.Journeys.GetByID(ctx, b.JourneyID)
	if err != nil {
		return model.Booking{}, pricing.Quote{}, mapNotFound(err)
	}
	class, err := s.Classes.GetByID(ctx, seatClassID)
	if err != nil {
		return model.Booking{}, pricing.Quote{}, mapNotFound(err)
	}
	discounts, err := s.Rules.DiscountTable(ctx)
	if err != nil {
		return model.Booking{}, pricing.Quote{}, err
	}
	quote, err := pricing.Fare(journey.BaseFare, class.Multiplier, b.Seats, travelDate, s.today(), discounts)
	if err != nil {
		if errors.Is(err, pricing.ErrWindowExceeded) {
			return model.Booking{}, pricing.Quote{}, ErrBookingWindowExceeded
		}
		return model.Booking{}, pricing.Quote{}, err
	}
	day := travelDate.UTC().Format("2006-01-02")
	if err := s.Bookings.UpdateSchedule(ctx, b.ID, day, class.ID, quote.Total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Booking{}, pricing.Quote{}, ErrInvalidState
		}
		return model.Booking{}, pricing.Quote{}, err
	}
	b.TravelDate = travelDate
	b.SeatClassID = class.ID
	b.FinalPrice = quote.Total
	return b, quote, nil
}

// Cancel transitions a CART or PAID booking to CANCELLED and reports
// the charge retained under the cancellation tiers.  Cancelling an
// already-cancelled booking fails with ErrInvalidState rather than
// silently double-charging.  Seats are only returned to the slot when
// the resale policy allows it.
func (s *Service) Cancel(ctx context.Context, bookingID, userID uint64) (CancellationResult, error) {
	b, err := s.authorized(ctx, bookingID, userID)
	if err != nil {
		return CancellationResult{}, err
	}
	if !b.Active() {
		return CancellationResult{}, ErrInvalidState
	}
	charges, err := s.Rules.CancellationTable(ctx)
	if err != nil {
		return CancellationResult{}, err
	}
	percent, amount := pricing.CancellationCharge(b.FinalPrice, b.TravelDate, s.today(), charges)
	if err := s.Bookings.UpdateStatus(ctx, b.ID, b.Status, model.StatusCancelled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CancellationResult{}, ErrInvalidState
		}
		return CancellationResult{}, err
	}
	if s.ReleaseOnCancel {
		_ = s.Seats.Release(ctx, b.SlotID, b.Seats)
	}
	b.Status = model.StatusCancelled
	s.publishForBooking(ctx, queue.EventBookingCancelled, b, amount)
	return CancellationResult{Booking: b, Percent: percent, Amount: amount}, nil
}

// GetForUser returns a booking owned by the given user.
func (s *Service) GetForUser(ctx context.Context, bookingID, userID uint64) (model.Booking, error) {
	return s.authorized(ctx, bookingID, userID)
}

// ListForUser returns all bookings of the given user, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.Bookings.ListByUser(ctx, userID)
}

// authorized loads a booking and enforces ownership.
func (s *Service) authorized(ctx context.Context, bookingID, userID uint64) (model.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.Booking{}, mapNotFound(err)
	}
	if b.UserID != userID {
		return model.Booking{}, ErrUnauthorized
	}
	return b, nil
}

// publishForBooking publishes an event for a booking whose journey
// must be loaded for the route label.  Lookup and publish failures
// are swallowed: notifications never fail the operation.
func (s *Service) publishForBooking(ctx context.Context, eventType string, b model.Booking, amount float64) {
	if s.Events == nil {
		return
	}
	route := ""
	if journey, err := s.Journeys.GetByID(ctx, b.JourneyID); err == nil {
		route = journey.Route()
	}
	s.publish(ctx, eventType, b, route, amount)
}

func (s *Service) publish(ctx context.Context, eventType string, b model.Booking, route string, amount float64) {
	if s.Events == nil {
		return
	}
	_ = s.Events.Publish(ctx, queue.BookingEvent{
		BookingID:  b.ID,
		UserID:     b.UserID,
		EventType:  eventType,
		Route:      route,
		TravelDate: b.TravelDate.UTC().Format("2006-01-02"),
		Amount:     amount,
		OccurredAt: s.today().Format(time.RFC3339),
	})
}
