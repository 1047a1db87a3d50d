// README: Booking store backed by PostgreSQL; credit is debited in the booking transaction.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"luxride/internal/modules/pricing"
	"luxride/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Create locks the passenger's credit row, re-clamps the credit against the
// balance it reads, debits it and inserts the booking. b.Fare is updated with
// the credit actually applied.
func (s *Store) Create(ctx context.Context, b *Booking, requestedCredit types.Cents) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var balance int64
	if requestedCredit > 0 {
		err := tx.QueryRow(ctx, `
            SELECT balance_cents
            FROM account_credits
            WHERE passenger_id = $1
            FOR UPDATE`, string(b.PassengerID),
		).Scan(&balance)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
	}
	b.Fare = b.Fare.WithCredit(types.Cents(balance), requestedCredit)

	if applied := int64(b.Fare.CreditAmountApplied); applied > 0 {
		if _, err := tx.Exec(ctx, `
            UPDATE account_credits
            SET balance_cents = balance_cents - $2, updated_at = NOW()
            WHERE passenger_id = $1`,
			string(b.PassengerID), applied,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
            INSERT INTO credit_ledger (passenger_id, booking_id, delta_cents, created_at)
            VALUES ($1, $2, $3, NOW())`,
			string(b.PassengerID), string(b.ID), -applied,
		); err != nil {
			return err
		}
	}

	fare, err := json.Marshal(b.Fare)
	if err != nil {
		return err
	}
	var dropLat, dropLng *float64
	var dropCode *string
	if b.Destination != nil {
		dropLat, dropLng = &b.Destination.Point.Lat, &b.Destination.Point.Lng
		dropCode = &b.Destination.AirportCode
	}
	if _, err := tx.Exec(ctx, `
        INSERT INTO bookings (
            id, passenger_id, status, vehicle_type, service_type,
            pickup_lat, pickup_lng, pickup_code, dropoff_lat, dropoff_lng, dropoff_code,
            scheduled_at, total_cents, credit_cents, fare, created_at
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8, $9, $10, $11,
            $12, $13, $14, $15, $16
        )`,
		string(b.ID), string(b.PassengerID), string(b.Status), string(b.VehicleType), string(b.ServiceType),
		b.Pickup.Point.Lat, b.Pickup.Point.Lng, b.Pickup.AirportCode, dropLat, dropLng, dropCode,
		b.ScheduledAt, int64(b.Fare.TotalAmount), int64(b.Fare.CreditAmountApplied), fare, b.CreatedAt,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, passenger_id, status, vehicle_type, service_type,
               pickup_lat, pickup_lng, pickup_code, dropoff_lat, dropoff_lng, dropoff_code,
               scheduled_at, fare, created_at, cancelled_at
        FROM bookings
        WHERE id = $1`, string(id),
	)

	var b Booking
	var status, vehicle, service string
	var dropLat, dropLng *float64
	var dropCode *string
	var fare []byte
	err := row.Scan(
		&b.ID, &b.PassengerID, &status, &vehicle, &service,
		&b.Pickup.Point.Lat, &b.Pickup.Point.Lng, &b.Pickup.AirportCode, &dropLat, &dropLng, &dropCode,
		&b.ScheduledAt, &fare, &b.CreatedAt, &b.CancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Status = Status(status)
	b.VehicleType = pricing.VehicleType(vehicle)
	b.ServiceType = pricing.ServiceType(service)
	if dropLat != nil && dropLng != nil {
		b.Destination = &pricing.Stop{Point: types.Point{Lat: *dropLat, Lng: *dropLng}}
		if dropCode != nil {
			b.Destination.AirportCode = *dropCode
		}
	}
	if err := json.Unmarshal(fare, &b.Fare); err != nil {
		return nil, err
	}
	return &b, nil
}

// Cancel moves a confirmed booking to cancelled and returns any applied
// credit to the passenger's balance.
func (s *Store) Cancel(ctx context.Context, id types.ID, at time.Time) (*Booking, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var passengerID, status string
	var credit int64
	err = tx.QueryRow(ctx, `
        SELECT passenger_id, status, credit_cents
        FROM bookings
        WHERE id = $1
        FOR UPDATE`, string(id),
	).Scan(&passengerID, &status, &credit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !CanTransition(Status(status), StatusCancelled) {
		return nil, ErrInvalidState
	}

	if _, err := tx.Exec(ctx, `
        UPDATE bookings SET status = $2, cancelled_at = $3 WHERE id = $1`,
		string(id), string(StatusCancelled), at,
	); err != nil {
		return nil, err
	}
	if credit > 0 {
		if _, err := tx.Exec(ctx, `
            INSERT INTO account_credits (passenger_id, balance_cents, updated_at)
            VALUES ($1, $2, NOW())
            ON CONFLICT (passenger_id) DO UPDATE
            SET balance_cents = account_credits.balance_cents + EXCLUDED.balance_cents,
                updated_at = NOW()`,
			passengerID, credit,
		); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `
            INSERT INTO credit_ledger (passenger_id, booking_id, delta_cents, created_at)
            VALUES ($1, $2, $3, NOW())`,
			passengerID, string(id), credit,
		); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
