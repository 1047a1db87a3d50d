// README: Passenger store integration tests (profiles, credit ledger).
package passenger

import (
	"context"
	"errors"
	"testing"

	"luxride/internal/modules/pricing"
	"luxride/internal/pgtest"
)

func TestStore_ProfileRoundTrip(t *testing.T) {
	store := NewStore(pgtest.Pool(t, "passenger_profiles", "account_credits", "credit_ledger"))
	ctx := context.Background()

	if _, err := store.GetProfile(ctx, "p_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProfile() error = %v, want ErrNotFound", err)
	}

	p := &Profile{PassengerID: "p_vip", DisplayName: "VIP", DiscountType: pricing.DiscountPercentage, DiscountValue: 12.5}
	if err := store.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}
	p.DiscountType, p.DiscountValue = pricing.DiscountFixed, 10
	if err := store.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile(update) error = %v", err)
	}

	got, err := store.GetProfile(ctx, "p_vip")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.DiscountType != pricing.DiscountFixed || got.DiscountValue != 10 || got.DisplayName != "VIP" {
		t.Errorf("GetProfile() = %+v", got)
	}
}

func TestStore_GrantCredit(t *testing.T) {
	db := pgtest.Pool(t, "passenger_profiles", "account_credits", "credit_ledger")
	store := NewStore(db)
	ctx := context.Background()

	if _, err := store.GetCredit(ctx, "p_credit"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetCredit() error = %v, want ErrNotFound", err)
	}
	if _, err := store.GrantCredit(ctx, "p_credit", 4000, "welcome"); err != nil {
		t.Fatalf("GrantCredit() error = %v", err)
	}
	c, err := store.GrantCredit(ctx, "p_credit", 1000, "refund")
	if err != nil {
		t.Fatalf("GrantCredit() error = %v", err)
	}
	if c.Balance != 5000 {
		t.Errorf("balance = %v, want 50.00", c.Balance)
	}

	var entries int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM credit_ledger WHERE passenger_id = $1`, "p_credit").Scan(&entries); err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if entries != 2 {
		t.Errorf("ledger entries = %d, want 2", entries)
	}
}
