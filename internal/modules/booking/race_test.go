// README: Concurrency tests for commit-time credit debits (run with -race).
package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"luxride/internal/pgtest"
	"luxride/internal/types"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(pgtest.Pool(t, "bookings", "account_credits", "credit_ledger"))
}

func seedBalance(t *testing.T, s *Store, id types.ID, balance types.Cents) {
	t.Helper()
	if _, err := s.db.Exec(context.Background(), `
        INSERT INTO account_credits (passenger_id, balance_cents) VALUES ($1, $2)`,
		string(id), int64(balance),
	); err != nil {
		t.Fatalf("seed balance: %v", err)
	}
}

func balanceOf(t *testing.T, s *Store, id types.ID) types.Cents {
	t.Helper()
	var v int64
	if err := s.db.QueryRow(context.Background(),
		`SELECT balance_cents FROM account_credits WHERE passenger_id = $1`, string(id)).Scan(&v); err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return types.Cents(v)
}

func TestStore_CreateGetCancel(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	seedBalance(t, store, "p_roundtrip", 3000)

	req := bookingRequest(8000)
	req.PassengerID = "p_roundtrip"
	b := &Booking{
		ID:          "bk_roundtrip",
		PassengerID: req.PassengerID,
		Status:      StatusConfirmed,
		VehicleType: req.VehicleType,
		ServiceType: req.ServiceType,
		Pickup:      req.Pickup,
		Destination: req.Destination,
		ScheduledAt: req.ScheduledAt,
		Fare:        quotedFare(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.Create(ctx, b, 8000); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if b.Fare.CreditAmountApplied != 3000 {
		t.Errorf("credit applied = %v, want 30.00", b.Fare.CreditAmountApplied)
	}
	if got := balanceOf(t, store, "p_roundtrip"); got != 0 {
		t.Errorf("balance = %v, want 0", got)
	}

	got, err := store.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Fare.TotalAmount != 11475 || got.Fare.RemainingAmount != 8475 || got.Pickup.AirportCode != "JFK" || got.Destination == nil {
		t.Errorf("Get() = %+v", got)
	}

	c, err := store.Cancel(ctx, b.ID, time.Now())
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if c.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", c.Status)
	}
	if got := balanceOf(t, store, "p_roundtrip"); got != 3000 {
		t.Errorf("balance after cancel = %v, want 30.00", got)
	}
	if _, err := store.Cancel(ctx, b.ID, time.Now()); err != ErrInvalidState {
		t.Errorf("second Cancel() error = %v, want ErrInvalidState", err)
	}
	if _, err := store.Get(ctx, "missing"); err != ErrNotFound {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestConcurrentBookingsNeverOverspendCredit(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	seedBalance(t, store, "p_race", 5000)

	const n = 8
	var wg sync.WaitGroup
	applied := make(chan types.Cents, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := &Booking{
				ID:          types.ID(fmt.Sprintf("bk_race_%d", i)),
				PassengerID: "p_race",
				Status:      StatusConfirmed,
				VehicleType: "business_sedan",
				ServiceType: "transfer",
				ScheduledAt: time.Now().UTC(),
				Fare:        quotedFare(),
				CreatedAt:   time.Now().UTC(),
			}
			if err := store.Create(ctx, b, 3000); err != nil {
				errs <- err
				return
			}
			applied <- b.Fare.CreditAmountApplied
		}(i)
	}
	wg.Wait()
	close(applied)
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	var total types.Cents
	for a := range applied {
		total += a
	}
	if total != 5000 {
		t.Fatalf("total credit applied = %v, want 50.00", total)
	}
	if got := balanceOf(t, store, "p_race"); got != 0 {
		t.Fatalf("final balance = %v, want 0", got)
	}
}
