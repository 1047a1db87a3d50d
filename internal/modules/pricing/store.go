// README: Pricing rule store backed by PostgreSQL with a Redis snapshot cache.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const rulesCacheKey = "pricing:rules:v1"

var ErrRuleNotFound = errors.New("pricing rule not found")

type Store struct {
	db       *pgxpool.Pool
	redis    *redis.Client
	cacheTTL time.Duration
}

func NewStore(db *pgxpool.Pool, redis *redis.Client, cacheTTL time.Duration) *Store {
	return &Store{db: db, redis: redis, cacheTTL: cacheTTL}
}

const ruleColumns = `id, vehicle_type, service_type, base_rate, per_mile_rate,
               hourly_rate, minimum_hours, minimum_fare, gratuity_percent, overtime_rate,
               effective_start, effective_end, is_active,
               distance_tiers, surge_windows, airport_fees, meet_and_greet, updated_at`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ListRules serves from the Redis snapshot when present. Cache failures fall
// through to Postgres.
func (s *Store) ListRules(ctx context.Context) ([]Rule, error) {
	if rules, ok := s.cachedRules(ctx); ok {
		return rules, nil
	}
	rules, err := queryRules(ctx, s.db, `SELECT `+ruleColumns+` FROM pricing_rules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	s.cacheRules(ctx, rules)
	return rules, nil
}

// SaveRule inserts r when r.ID is zero and updates it otherwise. check sees
// the stored rules for r's vehicle and service; it runs under a transaction
// advisory lock on that pair so concurrent saves cannot both pass it.
func (s *Store) SaveRule(ctx context.Context, r *Rule, check func(existing []Rule) error) error {
	tiers, err := json.Marshal(nonNil(r.DistanceTiers))
	if err != nil {
		return err
	}
	windows, err := json.Marshal(nonNil(r.SurgeWindows))
	if err != nil {
		return err
	}
	fees, err := json.Marshal(nonNil(r.AirportFees))
	if err != nil {
		return err
	}
	var meet []byte
	if r.MeetAndGreet != nil {
		if meet, err = json.Marshal(r.MeetAndGreet); err != nil {
			return err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ruleLockKey(r.VehicleType, r.ServiceType)); err != nil {
		return fmt.Errorf("lock pricing rules: %w", err)
	}
	if check != nil {
		existing, err := queryRules(ctx, tx, `
            SELECT `+ruleColumns+`
            FROM pricing_rules
            WHERE vehicle_type = $1 AND service_type = $2
            ORDER BY id`, string(r.VehicleType), string(r.ServiceType))
		if err != nil {
			return err
		}
		if err := check(existing); err != nil {
			return err
		}
	}

	args := []any{
		string(r.VehicleType), string(r.ServiceType), r.BaseRate, r.PerMileRate,
		r.HourlyRate, r.MinimumHours, r.MinimumFare, r.GratuityPercent, r.OvertimeRate,
		r.EffectiveStart, r.EffectiveEnd, r.IsActive,
		tiers, windows, fees, meet,
	}

	if r.ID == 0 {
		err = tx.QueryRow(ctx, `
            INSERT INTO pricing_rules (
                vehicle_type, service_type, base_rate, per_mile_rate,
                hourly_rate, minimum_hours, minimum_fare, gratuity_percent, overtime_rate,
                effective_start, effective_end, is_active,
                distance_tiers, surge_windows, airport_fees, meet_and_greet, updated_at
            ) VALUES (
                $1, $2, $3, $4,
                $5, $6, $7, $8, $9,
                $10, $11, $12,
                $13, $14, $15, $16, NOW()
            )
            RETURNING id, updated_at`, args...,
		).Scan(&r.ID, &r.UpdatedAt)
	} else {
		err = tx.QueryRow(ctx, `
            UPDATE pricing_rules
            SET vehicle_type = $1, service_type = $2, base_rate = $3, per_mile_rate = $4,
                hourly_rate = $5, minimum_hours = $6, minimum_fare = $7, gratuity_percent = $8, overtime_rate = $9,
                effective_start = $10, effective_end = $11, is_active = $12,
                distance_tiers = $13, surge_windows = $14, airport_fees = $15, meet_and_greet = $16,
                updated_at = NOW()
            WHERE id = $17
            RETURNING updated_at`, append(args, r.ID)...,
		).Scan(&r.UpdatedAt)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRuleNotFound
	}
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

func ruleLockKey(vehicle VehicleType, service ServiceType) string {
	return "pricing_rules:" + string(vehicle) + "/" + string(service)
}

func queryRules(ctx context.Context, q querier, sql string, args ...any) ([]Rule, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func scanRule(row pgx.Row) (Rule, error) {
	var r Rule
	var vehicle, service string
	var tiers, windows, fees, meet []byte
	err := row.Scan(
		&r.ID, &vehicle, &service, &r.BaseRate, &r.PerMileRate,
		&r.HourlyRate, &r.MinimumHours, &r.MinimumFare, &r.GratuityPercent, &r.OvertimeRate,
		&r.EffectiveStart, &r.EffectiveEnd, &r.IsActive,
		&tiers, &windows, &fees, &meet, &r.UpdatedAt,
	)
	if err != nil {
		return Rule{}, err
	}
	r.VehicleType = VehicleType(vehicle)
	r.ServiceType = ServiceType(service)

	if err := unmarshalIfSet(tiers, &r.DistanceTiers); err != nil {
		return Rule{}, fmt.Errorf("rule %d distance_tiers: %w", r.ID, err)
	}
	if err := unmarshalIfSet(windows, &r.SurgeWindows); err != nil {
		return Rule{}, fmt.Errorf("rule %d surge_windows: %w", r.ID, err)
	}
	if err := unmarshalIfSet(fees, &r.AirportFees); err != nil {
		return Rule{}, fmt.Errorf("rule %d airport_fees: %w", r.ID, err)
	}
	if len(meet) > 0 {
		r.MeetAndGreet = &MeetAndGreet{}
		if err := json.Unmarshal(meet, r.MeetAndGreet); err != nil {
			return Rule{}, fmt.Errorf("rule %d meet_and_greet: %w", r.ID, err)
		}
	}
	return r, nil
}

func (s *Store) cachedRules(ctx context.Context) ([]Rule, bool) {
	if s.redis == nil {
		return nil, false
	}
	raw, err := s.redis.Get(ctx, rulesCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var rules []Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, false
	}
	return rules, true
}

func (s *Store) cacheRules(ctx context.Context, rules []Rule) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return
	}
	_ = s.redis.Set(ctx, rulesCacheKey, raw, s.cacheTTL).Err()
}

func (s *Store) invalidate(ctx context.Context) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, rulesCacheKey).Err()
}

func unmarshalIfSet[T any](raw []byte, dst *[]T) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
