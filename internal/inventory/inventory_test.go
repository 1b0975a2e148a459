package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func fixedLoader(capacity, reserved int) LoadFunc {
	return func(ctx context.Context, slotID uint64) (int, int, error) {
		return capacity, reserved, nil
	}
}

func TestReserveStopsAtCapacity(t *testing.T) {
	inv := New(fixedLoader(3, 0))
	ctx := context.Background()

	if err := inv.Reserve(ctx, 1, 2); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := inv.Reserve(ctx, 1, 2); !errors.Is(err, ErrSeatsUnavailable) {
		t.Fatalf("expected ErrSeatsUnavailable, got %v", err)
	}
	if err := inv.Reserve(ctx, 1, 1); err != nil {
		t.Fatalf("exact fit must succeed: %v", err)
	}
	free, err := inv.Available(ctx, 1)
	if err != nil || free != 0 {
		t.Fatalf("available = %d (%v), want 0", free, err)
	}
}

func TestReserveHonoursPreexistingBookings(t *testing.T) {
	inv := New(fixedLoader(10, 8))
	ctx := context.Background()

	if err := inv.Reserve(ctx, 7, 3); !errors.Is(err, ErrSeatsUnavailable) {
		t.Fatalf("expected ErrSeatsUnavailable over primed state, got %v", err)
	}
	if err := inv.Reserve(ctx, 7, 2); err != nil {
		t.Fatalf("remaining 2 seats must be grantable: %v", err)
	}
}

// Capacity invariant under contention: N parallel single-seat reserves
// against a capacity-C slot must grant exactly C.
func TestConcurrentReservesNeverOversell(t *testing.T) {
	const capacity = 100
	const attempts = 400
	inv := New(fixedLoader(capacity, 0))
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := inv.Reserve(ctx, 42, 1); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != capacity {
		t.Fatalf("granted %d seats, want exactly %d", granted, capacity)
	}
	free, err := inv.Available(ctx, 42)
	if err != nil || free != 0 {
		t.Fatalf("available = %d (%v), want 0", free, err)
	}
}

func TestConcurrentGroupReservesGrantExactlyOne(t *testing.T) {
	inv := New(fixedLoader(2, 0))
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var granted, refused int
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := inv.Reserve(ctx, 7, 2)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				granted++
			} else if errors.Is(err, ErrSeatsUnavailable) {
				refused++
			}
		}()
	}
	wg.Wait()

	if granted != 1 || refused != 1 {
		t.Fatalf("granted=%d refused=%d, want exactly one of each", granted, refused)
	}
}

func TestReleaseRestoresAvailabilityExactly(t *testing.T) {
	inv := New(fixedLoader(5, 0))
	ctx := context.Background()

	if err := inv.Reserve(ctx, 9, 3); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := inv.Release(ctx, 9, 3); err != nil {
		t.Fatalf("release: %v", err)
	}
	free, err := inv.Available(ctx, 9)
	if err != nil || free != 5 {
		t.Fatalf("available = %d (%v), want 5 after release", free, err)
	}

	// A spurious extra release must not create phantom capacity.
	if err := inv.Release(ctx, 9, 4); err != nil {
		t.Fatalf("release: %v", err)
	}
	free, _ = inv.Available(ctx, 9)
	if free != 5 {
		t.Fatalf("available = %d, want clamped at capacity 5", free)
	}
}

func TestLoaderErrorsPropagate(t *testing.T) {
	loadErr := errors.New("slot missing")
	inv := New(func(ctx context.Context, slotID uint64) (int, int, error) {
		return 0, 0, loadErr
	})
	if err := inv.Reserve(context.Background(), 1, 1); !errors.Is(err, loadErr) {
		t.Fatalf("expected loader error, got %v", err)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	capacity := 2
	inv := New(func(ctx context.Context, slotID uint64) (int, int, error) {
		return capacity, 0, nil
	})
	ctx := context.Background()

	if err := inv.Reserve(ctx, 5, 2); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	capacity = 4
	inv.Invalidate(5)
	free, err := inv.Available(ctx, 5)
	if err != nil || free != 4 {
		t.Fatalf("available = %d (%v), want 4 after capacity change", free, err)
	}
}
