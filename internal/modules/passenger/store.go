// README: Passenger store backed by PostgreSQL.
package passenger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"luxride/internal/modules/pricing"
	"luxride/internal/types"
)

var ErrNotFound = errors.New("passenger not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetProfile(ctx context.Context, id types.ID) (*Profile, error) {
	var p Profile
	var discountType string
	err := s.db.QueryRow(ctx, `
        SELECT passenger_id, display_name, discount_type, discount_value, updated_at
        FROM passenger_profiles
        WHERE passenger_id = $1`, string(id),
	).Scan(&p.PassengerID, &p.DisplayName, &discountType, &p.DiscountValue, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.DiscountType = pricing.DiscountType(discountType)
	return &p, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p *Profile) error {
	return s.db.QueryRow(ctx, `
        INSERT INTO passenger_profiles (passenger_id, display_name, discount_type, discount_value, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (passenger_id) DO UPDATE
        SET display_name = EXCLUDED.display_name,
            discount_type = EXCLUDED.discount_type,
            discount_value = EXCLUDED.discount_value,
            updated_at = NOW()
        RETURNING updated_at`,
		string(p.PassengerID), p.DisplayName, string(p.DiscountType), p.DiscountValue,
	).Scan(&p.UpdatedAt)
}

func (s *Store) GetCredit(ctx context.Context, id types.ID) (*Credit, error) {
	var c Credit
	var balance int64
	err := s.db.QueryRow(ctx, `
        SELECT passenger_id, balance_cents, updated_at
        FROM account_credits
        WHERE passenger_id = $1`, string(id),
	).Scan(&c.PassengerID, &balance, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Balance = types.Cents(balance)
	return &c, nil
}

// GrantCredit adds amount to the balance and records it in the ledger in one transaction.
func (s *Store) GrantCredit(ctx context.Context, id types.ID, amount types.Cents, reference string) (*Credit, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c := Credit{PassengerID: id}
	var balance int64
	err = tx.QueryRow(ctx, `
        INSERT INTO account_credits (passenger_id, balance_cents, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (passenger_id) DO UPDATE
        SET balance_cents = account_credits.balance_cents + EXCLUDED.balance_cents,
            updated_at = NOW()
        RETURNING balance_cents, updated_at`,
		string(id), int64(amount),
	).Scan(&balance, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
        INSERT INTO credit_ledger (passenger_id, booking_id, delta_cents, created_at)
        VALUES ($1, $2, $3, NOW())`,
		string(id), reference, int64(amount),
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	c.Balance = types.Cents(balance)
	return &c, nil
}
