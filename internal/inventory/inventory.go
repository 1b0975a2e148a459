// Package inventory provides authoritative per-slot seat accounting.
// Every reservation against a slot funnels through a single per-slot
// critical section, so a check-then-reserve can never interleave with
// another and oversell the slot.  Unrelated slots do not contend.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrSeatsUnavailable is returned when a reservation would push the
// sum of held seats past the slot's capacity.  Callers must not retry
// transparently; the capacity may legitimately stay exhausted.
var ErrSeatsUnavailable = errors.New("not enough seats available")

// LoadFunc fetches a slot's capacity and the currently held seat
// count (the live sum over CART and PAID bookings) from durable
// storage.  It is invoked once per slot, on first use, inside the
// slot's critical section.
type LoadFunc func(ctx context.Context, slotID uint64) (capacity, reserved int, err error)

// SeatInventory tracks remaining capacity per slot.  State is loaded
// lazily and then maintained in memory; Reserve and Release keep it
// in step with the booking rows written by the lifecycle service.
type SeatInventory struct {
	mu    sync.Mutex
	slots map[uint64]*slotState
	load  LoadFunc
}

type slotState struct {
	mu       sync.Mutex
	loaded   bool
	capacity int
	reserved int
}

// New returns a SeatInventory that primes per-slot state through load.
func New(load LoadFunc) *SeatInventory {
	return &SeatInventory{
		slots: make(map[uint64]*slotState),
		load:  load,
	}
}

// state returns the tracked state for a slot, creating the entry if
// needed.  The entry starts unloaded; the caller primes it under the
// slot lock.
func (s *SeatInventory) state(slotID uint64) *slotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.slots[slotID]
	if !ok {
		st = &slotState{}
		s.slots[slotID] = st
	}
	return st
}

// ensureLoaded primes the slot state from storage.  Must be called
// with st.mu held.
func (s *SeatInventory) ensureLoaded(ctx context.Context, slotID uint64, st *slotState) error {
	if st.loaded {
		return nil
	}
	capacity, reserved, err := s.load(ctx, slotID)
	if err != nil {
		return err
	}
	st.capacity = capacity
	st.reserved = reserved
	st.loaded = true
	return nil
}

// Reserve atomically verifies that the slot can still accommodate
// seats and records the hold.  It fails with ErrSeatsUnavailable when the
// slot cannot accommodate the request; the check and the increment
// happen in one critical section.
func (s *SeatInventory) Reserve(ctx context.Context, slotID uint64, seats int) error {
	if seats < 1 {
		return fmt.Errorf("reserve: seat count %d out of range", seats)
	}
	st := s.state(slotID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := s.ensureLoaded(ctx, slotID, st); err != nil {
		return err
	}
	if st.reserved+seats > st.capacity {
		return ErrSeatsUnavailable
	}
	st.reserved += seats
	return nil
}

// Release returns seats to the slot.  It is called when a cart
// booking is abandoned, when persistence fails after a successful
// Reserve, and (when the resale policy allows it) on cancellation.
// The held count never goes below zero.
func (s *SeatInventory) Release(ctx context.Context, slotID uint64, seats int) error {
	if seats < 1 {
		return fmt.Errorf("release: seat count %d out of range", seats)
	}
	st := s.state(slotID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := s.ensureLoaded(ctx, slotID, st); err != nil {
		return err
	}
	st.reserved -= seats
	if st.reserved < 0 {
		st.reserved = 0
	}
	return nil
}

// Available reports the number of seats still free on the slot.
func (s *SeatInventory) Available(ctx context.Context, slotID uint64) (int, error) {
	st := s.state(slotID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := s.ensureLoaded(ctx, slotID, st); err != nil {
		return 0, err
	}
	return st.capacity - st.reserved, nil
}

// Invalidate drops the cached state for a slot so the next operation
// reloads it from storage.  Used after an admin changes a slot's
// capacity.
func (s *SeatInventory) Invalidate(slotID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slotID)
}
