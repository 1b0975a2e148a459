package booking

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/transitbook/journey-reservation/internal/inventory"
	"github.com/transitbook/journey-reservation/internal/model"
	"github.com/transitbook/journey-reservation/internal/pricing"
	"github.com/transitbook/journey-reservation/internal/queue"
)

// ---- in-memory fakes ----

type fakeJourneys map[uint64]model.Journey

func (f fakeJourneys) GetByID(_ context.Context, id uint64) (model.Journey, error) {
	j, ok := f[id]
	if !ok {
		return model.Journey{}, sql.ErrNoRows
	}
	return j, nil
}

type fakeSlots map[uint64]model.Slot

func (f fakeSlots) GetByID(_ context.Context, id uint64) (model.Slot, error) {
	s, ok := f[id]
	if !ok {
		return model.Slot{}, sql.ErrNoRows
	}
	return s, nil
}

type fakeClasses map[uint64]model.SeatClass

func (f fakeClasses) GetByID(_ context.Context, id uint64) (model.SeatClass, error) {
	c, ok := f[id]
	if !ok {
		return model.SeatClass{}, sql.ErrNoRows
	}
	return c, nil
}

type fakeRules struct {
	discounts     *pricing.Table
	cancellations *pricing.Table
}

func (f fakeRules) DiscountTable(context.Context) (*pricing.Table, error) {
	return f.discounts, nil
}

func (f fakeRules) CancellationTable(context.Context) (*pricing.Table, error) {
	return f.cancellations, nil
}

type fakeBookings struct {
	mu        sync.Mutex
	nextID    uint64
	rows      map[uint64]model.Booking
	createErr error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{nextID: 1, rows: make(map[uint64]model.Booking)}
}

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	b.ID = f.nextID
	b.CreatedAt = time.Now().UTC()
	f.nextID++
	f.rows[b.ID] = *b
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id uint64) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return model.Booking{}, sql.ErrNoRows
	}
	return b, nil
}

func (f *fakeBookings) ListByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.rows {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id uint64, from, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok || b.Status != from {
		return sql.ErrNoRows
	}
	b.Status = to
	f.rows[id] = b
	return nil
}

func (f *fakeBookings) UpdateSchedule(_ context.Context, id uint64, travelDate string, seatClassID uint64, finalPrice float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok || b.Status != model.StatusPaid {
		return sql.ErrNoRows
	}
	d, err := time.Parse("2006-01-02", travelDate)
	if err != nil {
		return err
	}
	b.TravelDate = d
	b.SeatClassID = seatClassID
	b.FinalPrice = finalPrice
	f.rows[id] = b
	return nil
}

func (f *fakeBookings) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.rows, id)
	return nil
}

type capturedEvents struct {
	mu     sync.Mutex
	events []queue.BookingEvent
}

func (c *capturedEvents) Publish(_ context.Context, ev queue.BookingEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *capturedEvents) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.EventType
	}
	return out
}

// ---- fixture ----

type fixture struct {
	svc      *Service
	bookings *fakeBookings
	seats    *inventory.SeatInventory
	events   *capturedEvents
	today    time.Time
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	discounts, err := pricing.NewTable([]pricing.Rule{
		{ThresholdDays: 91, Percent: 30},
		{ThresholdDays: 80, Percent: 20},
		{ThresholdDays: 60, Percent: 10},
		{ThresholdDays: 45, Percent: 5},
	})
	if err != nil {
		t.Fatalf("discount table: %v", err)
	}
	cancellations, err := pricing.NewTable([]pricing.Rule{
		{ThresholdDays: 0, Percent: 100},
		{ThresholdDays: 40, Percent: 40},
		{ThresholdDays: 60, Percent: 0},
	})
	if err != nil {
		t.Fatalf("cancellation table: %v", err)
	}
	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	bookings := newFakeBookings()
	seats := inventory.New(func(ctx context.Context, slotID uint64) (int, int, error) {
		return capacity, 0, nil
	})
	events := &capturedEvents{}
	svc := &Service{
		Journeys: fakeJourneys{1: {ID: 1, Origin: "Northport", Destination: "Easton", BaseFare: 100}},
		Slots:    fakeSlots{10: {ID: 10, JourneyID: 1, Capacity: capacity}},
		Classes: fakeClasses{
			2: {ID: 2, Name: "ECONOMY", Multiplier: 1.5},
			3: {ID: 3, Name: "BUSINESS", Multiplier: 2.0},
		},
		Rules:    fakeRules{discounts: discounts, cancellations: cancellations},
		Bookings: bookings,
		Seats:    seats,
		Events:   events,
		Now:      func() time.Time { return today },
	}
	return &fixture{svc: svc, bookings: bookings, seats: seats, events: events, today: today}
}

func (f *fixture) create(t *testing.T, userID uint64, seats int, daysAhead int, payNow bool) model.Booking {
	t.Helper()
	b, _, err := f.svc.Create(context.Background(), CreateParams{
		UserID:      userID,
		JourneyID:   1,
		SlotID:      10,
		SeatClassID: 2,
		TravelDate:  f.today.AddDate(0, 0, daysAhead),
		Seats:       seats,
		PayNow:      payNow,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

// ---- tests ----

func TestCreateCartFixesDiscountedPrice(t *testing.T) {
	f := newFixture(t, 100)
	b := f.create(t, 1, 2, 95, false)

	if b.Status != model.StatusCart {
		t.Fatalf("status = %s, want CART", b.Status)
	}
	if b.FinalPrice != 210.00 {
		t.Fatalf("final price = %v, want 210.00 (30%% off 300)", b.FinalPrice)
	}
	free, _ := f.seats.Available(context.Background(), 10)
	if free != 98 {
		t.Fatalf("available = %d, want 98 after holding 2 seats", free)
	}
	if got := f.events.types(); len(got) != 1 || got[0] != queue.EventBookingCreated {
		t.Fatalf("events = %v, want [booking.created]", got)
	}
}

func TestCreatePayNowGoesStraightToPaid(t *testing.T) {
	f := newFixture(t, 100)
	b := f.create(t, 1, 1, 30, true)

	if b.Status != model.StatusPaid {
		t.Fatalf("status = %s, want PAID", b.Status)
	}
	if got := f.events.types(); len(got) != 1 || got[0] != queue.EventBookingPaid {
		t.Fatalf("events = %v, want [booking.paid]", got)
	}
}

func TestCreateRejectsWindowWithoutSideEffects(t *testing.T) {
	f := newFixture(t, 100)
	_, _, err := f.svc.Create(context.Background(), CreateParams{
		UserID: 1, JourneyID: 1, SlotID: 10, SeatClassID: 2,
		TravelDate: f.today.AddDate(0, 0, 121), Seats: 1,
	})
	if !errors.Is(err, ErrBookingWindowExceeded) {
		t.Fatalf("expected ErrBookingWindowExceeded, got %v", err)
	}
	free, _ := f.seats.Available(context.Background(), 10)
	if free != 100 {
		t.Fatalf("available = %d, want untouched 100", free)
	}
	if len(f.bookings.rows) != 0 {
		t.Fatal("no booking row may be created on failure")
	}
}

func TestCreateReleasesSeatsWhenPersistenceFails(t *testing.T) {
	f := newFixture(t, 100)
	f.bookings.createErr = errors.New("insert failed")

	_, _, err := f.svc.Create(context.Background(), CreateParams{
		UserID: 1, JourneyID: 1, SlotID: 10, SeatClassID: 2,
		TravelDate: f.today.AddDate(0, 0, 30), Seats: 4,
	})
	if err == nil {
		t.Fatal("expected create to fail")
	}
	free, _ := f.seats.Available(context.Background(), 10)
	if free != 100 {
		t.Fatalf("available = %d, want 100 after compensation release", free)
	}
}

func TestCreateUnknownReferencesFail(t *testing.T) {
	f := newFixture(t, 100)
	cases := []CreateParams{
		{UserID: 1, JourneyID: 99, SlotID: 10, SeatClassID: 2, TravelDate: f.today, Seats: 1},
		{UserID: 1, JourneyID: 1, SlotID: 99, SeatClassID: 2, TravelDate: f.today, Seats: 1},
		{UserID: 1, JourneyID: 1, SlotID: 10, SeatClassID: 99, TravelDate: f.today, Seats: 1},
	}
	for i, p := range cases {
		if _, _, err := f.svc.Create(context.Background(), p); !errors.Is(err, ErrNotFound) {
			t.Fatalf("case %d: expected ErrNotFound, got %v", i, err)
		}
	}
}

func TestCheckoutStateMachine(t *testing.T) {
	f := newFixture(t, 100)
	b := f.create(t, 1, 1, 30, false)

	if _, err := f.svc.Checkout(context.Background(), b.ID, 2); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-owner checkout: expected ErrUnauthorized, got %v", err)
	}
	paid, err := f.svc.Checkout(context.Background(), b.ID, 1)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if paid.Status != model.StatusPaid {
		t.Fatalf("status = %s, want PAID", paid.Status)
	}
	if _, err := f.svc.Checkout(context.Background(), b.ID, 1); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double checkout: expected ErrInvalidState, got %v", err)
	}
}

func TestAbandonReleasesExactlyHeldSeats(t *testing.T) {
	f := newFixture(t, 10)
	b := f.create(t, 1, 3, 30, false)

	free, _ := f.seats.Available(context.Background(), 10)
	if free != 7 {
		t.Fatalf("available = %d, want 7 while cart holds seats", free)
	}
	if err := f.svc.Abandon(context.Background(), b.ID, 1); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	free, _ = f.seats.Available(context.Background(), 10)
	if free != 10 {
		t.Fatalf("available = %d, want 10 after abandon", free)
	}
	if _, err := f.svc.GetForUser(context.Background(), b.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("abandoned booking must be gone, got %v", err)
	}
	// The row is gone; a second abandon cannot double-release.
	if err := f.svc.Abandon(context.Background(), b.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second abandon: expected ErrNotFound, got %v", err)
	}
}

func TestAbandonOnlyAppliesToCart(t *testing.T) {
	f := newFixture(t, 100)
	b := f.create(t, 1, 1, 30, true)
	if err := f.svc.Abandon(context.Background(), b.ID, 1); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("abandoning a PAID booking: expected ErrInvalidState, got %v", err)
	}
}

func TestCancelChargesByTier(t *testing.T) {
	f := newFixture(t, 100)
	b := f.create(t, 1, 2, 95, true) // final price 210.00

	// Move the clock so 45 days remain before travel.
	f.svc.Now = func() time.Time { return f.today.AddDate(0, 0, 50) }
	res, err := f.svc.Cancel(context.Background(), b.ID, 1)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if res.Percent != 40 || res.Amount != 84.00 {
		t.Fatalf("charge = %v%% / %v, want 40%% / 84.00", res.Percent, res.Amount)
	}
	if res.Booking.Status != model.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", res.Booking.Status)
	}
}

func TestCancelIsNotIdempotent(t *testing.T) {
	f := newFixture(t, 100)
	b := f.create(t, 1, 1, 30, true)

	if _, err := f.svc.Cancel(context.Background(), b.ID, 1); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), b.ID, 1); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second cancel: expected ErrInvalidState, got %v", err)
	}
}

func TestCancelAuthorization(t *testing.T) {
	f := newFixture(t, 100)
	b := f.create(t, 1, 1, 30, true)
	if _, err := f.svc.Cancel(context.Background(), b.ID, 9); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCancelKeepsSeatsHeldByDefault(t *testing.T) {
	f := newFixture(t, 10)
	b := f.create(t, 1, 4, 30, true)

	if _, err := f.svc.Cancel(context.Background(), b.ID, 1); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	free, _ := f.seats.Available(context.Background(), 10)
	if free != 6 {
		t.Fatalf("available = %d, want 6: cancelled seats are not resold", free)
	}
}

func TestCancelReleasesSeatsWhenConfigured(t *testing.T) {
	f := newFixture(t, 10)
	f.svc.ReleaseOnCancel = true
	b := f.create(t, 1, 4, 30, true)

	if _, err := f.svc.Cancel(context.Background(), b.ID, 1); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	free, _ := f.seats.Available(context.Background(), 10)
	if free != 10 {
		t.Fatalf("available = %d, want 10 with resale enabled", free)
	}
}

func TestRescheduleRepricesInPlace(t *testing.T) {
	f := newFixture(t, 100)
	b := f.create(t, 1, 2, 95, true) // economy, 210.00

	// New date 30 days out (no tier), business class: 100×2.0×2 = 400.
	newDate := f.today.AddDate(0, 0, 30)
	updated, quote, err := f.svc.Reschedule(context.Background(), b.ID, 1, newDate, 3)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if updated.FinalPrice != 400.00 || quote.DiscountPercent != 0 {
		t.Fatalf("reprice = %v (%v%%), want 400.00 at 0%%", updated.FinalPrice, quote.DiscountPercent)
	}
	if updated.SeatClassID != 3 || !updated.TravelDate.Equal(newDate) {
		t.Fatalf("schedule fields not overwritten: %+v", updated)
	}
	stored, _ := f.svc.GetForUser(context.Background(), b.ID, 1)
	if stored.FinalPrice != 400.00 {
		t.Fatalf("stored price = %v, want 400.00", stored.FinalPrice)
	}
}

func TestRescheduleRequiresPaidStatus(t *testing.T) {
	f := newFixture(t, 100)
	b := f.create(t, 1, 1, 30, false)
	if _, _, err := f.svc.Reschedule(context.Background(), b.ID, 1, f.today.AddDate(0, 0, 20), 2); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cart reschedule: expected ErrInvalidState, got %v", err)
	}
}

func TestRescheduleEnforcesBookingWindow(t *testing.T) {
	f := newFixture(t, 100)
	b := f.create(t, 1, 1, 30, true)
	if _, _, err := f.svc.Reschedule(context.Background(), b.ID, 1, f.today.AddDate(0, 0, 121), 2); !errors.Is(err, ErrBookingWindowExceeded) {
		t.Fatalf("expected ErrBookingWindowExceeded, got %v", err)
	}
}

// Two concurrent reservations of 2 seats against a capacity-2 slot:
// exactly one succeeds with the tier-discounted price, the other is
// refused.
func TestConcurrentCreateGrantsExactlyOne(t *testing.T) {
	f := newFixture(t, 2)
	f.svc.Journeys = fakeJourneys{1: {ID: 1, Origin: "Northport", Destination: "Easton", BaseFare: 50}}
	f.svc.Classes = fakeClasses{3: {ID: 3, Name: "BUSINESS", Multiplier: 2.0}}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var granted []model.Booking
	var refused int
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			b, _, err := f.svc.Create(context.Background(), CreateParams{
				UserID: user, JourneyID: 1, SlotID: 10, SeatClassID: 3,
				TravelDate: f.today.AddDate(0, 0, 95), Seats: 2, PayNow: true,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				granted = append(granted, b)
			} else if errors.Is(err, ErrSeatsUnavailable) {
				refused++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	if len(granted) != 1 || refused != 1 {
		t.Fatalf("granted=%d refused=%d, want exactly one of each", len(granted), refused)
	}
	// 50 × 2.0 × 2 = 200 gross, 30% tier at 95 days → 140.00.
	if granted[0].FinalPrice != 140.00 {
		t.Fatalf("final price = %v, want 140.00", granted[0].FinalPrice)
	}
}

func TestCreateRejectsNonPositiveSeatCount(t *testing.T) {
	f := newFixture(t, 100)
	_, _, err := f.svc.Create(context.Background(), CreateParams{
		UserID: 1, JourneyID: 1, SlotID: 10, SeatClassID: 2,
		TravelDate: f.today.AddDate(0, 0, 10), Seats: 0,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCancelPublishesChargeAmount(t *testing.T) {
	f := newFixture(t, 100)
	b := f.create(t, 1, 2, 95, true)

	f.svc.Now = func() time.Time { return f.today.AddDate(0, 0, 50) }
	if _, err := f.svc.Cancel(context.Background(), b.ID, 1); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	last := f.events.events[len(f.events.events)-1]
	if last.EventType != queue.EventBookingCancelled || last.Amount != 84.00 {
		t.Fatalf("event = %+v, want booking.cancelled with amount 84.00", last)
	}
	if last.Route != "Northport - Easton" {
		t.Fatalf("route = %q", last.Route)
	}
}
