// README: Booking service prices a trip, commits it with its credit debit, and announces it.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"luxride/internal/metrics"
	"luxride/internal/modules/pricing"
	"luxride/internal/types"
)

var (
	ErrNotFound     = errors.New("booking not found")
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidState = errors.New("invalid booking state transition")
)

type Pricer interface {
	ComputeFare(ctx context.Context, req pricing.Request) (pricing.Breakdown, error)
}

type Repository interface {
	Create(ctx context.Context, b *Booking, requestedCredit types.Cents) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	Cancel(ctx context.Context, id types.ID, at time.Time) (*Booking, error)
}

type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

type Service struct {
	repo      Repository
	pricer    Pricer
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the booking flow. publisher may be nil.
func NewService(repo Repository, pricer Pricer, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{repo: repo, pricer: pricer, publisher: publisher, logger: logger, now: time.Now}
}

type CreateCommand struct {
	Request pricing.Request
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	req := cmd.Request
	if req.PassengerID == "" {
		return nil, fmt.Errorf("%w: passenger id is required", ErrBadRequest)
	}

	fare, err := s.pricer.ComputeFare(ctx, req)
	if err != nil {
		return nil, err
	}

	var requested types.Cents
	if req.RequestedCreditAmount != nil {
		requested = *req.RequestedCreditAmount
	}
	b := &Booking{
		ID:          types.ID(uuid.NewString()),
		PassengerID: req.PassengerID,
		Status:      StatusConfirmed,
		VehicleType: req.VehicleType,
		ServiceType: req.ServiceType,
		Pickup:      req.Pickup,
		Destination: req.Destination,
		ScheduledAt: req.ScheduledAt.UTC(),
		Fare:        fare,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, b, requested); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	metrics.BookingsCreated.Inc()
	s.announce(ctx, b)
	return b, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Cancel(ctx context.Context, id types.ID) (*Booking, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.repo.Cancel(ctx, id, s.now().UTC())
}

// announce is best effort: the booking is already committed.
func (s *Service) announce(ctx context.Context, b *Booking) {
	if s.publisher == nil {
		return
	}
	ev := PricedEvent{
		Type:          EventBookingPriced,
		BookingID:     b.ID,
		PassengerID:   b.PassengerID,
		TotalAmount:   b.Fare.TotalAmount,
		CreditApplied: b.Fare.CreditAmountApplied,
		Remaining:     b.Fare.RemainingAmount,
		Currency:      b.Fare.Currency,
		Fare:          b.Fare,
		OccurredAt:    b.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, string(b.ID), ev); err != nil {
		s.logger.WarnContext(ctx, "publish booking event failed", "booking_id", b.ID, "error", err)
	}
}
