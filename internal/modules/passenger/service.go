// README: Passenger service feeds discounts and credit balances to the fare engine.
package passenger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"luxride/internal/modules/pricing"
	"luxride/internal/types"
)

var ErrBadRequest = errors.New("bad request")

type Repository interface {
	GetProfile(ctx context.Context, id types.ID) (*Profile, error)
	UpsertProfile(ctx context.Context, p *Profile) error
	GetCredit(ctx context.Context, id types.ID) (*Credit, error)
	GrantCredit(ctx context.Context, id types.ID, amount types.Cents, reference string) (*Credit, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Discount returns the passenger's profile discount. A passenger without a
// profile has no discount.
func (s *Service) Discount(ctx context.Context, id types.ID) (pricing.Discount, error) {
	p, err := s.repo.GetProfile(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return pricing.Discount{}, nil
	}
	if err != nil {
		return pricing.Discount{}, err
	}
	return p.Discount(), nil
}

// Balance returns the passenger's credit balance, zero when none was ever granted.
func (s *Service) Balance(ctx context.Context, id types.ID) (types.Cents, error) {
	c, err := s.repo.GetCredit(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return c.Balance, nil
}

func (s *Service) Profile(ctx context.Context, id types.ID) (*Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

func (s *Service) SetProfile(ctx context.Context, p Profile) (*Profile, error) {
	if strings.TrimSpace(string(p.PassengerID)) == "" {
		return nil, fmt.Errorf("%w: passenger id is required", ErrBadRequest)
	}
	switch p.DiscountType {
	case pricing.DiscountNone:
		p.DiscountValue = 0
	case pricing.DiscountPercentage:
		if p.DiscountValue < 0 || p.DiscountValue > 100 {
			return nil, fmt.Errorf("%w: percentage discount must be within 0..100", ErrBadRequest)
		}
	case pricing.DiscountFixed:
		if p.DiscountValue < 0 {
			return nil, fmt.Errorf("%w: fixed discount must not be negative", ErrBadRequest)
		}
	default:
		return nil, fmt.Errorf("%w: unknown discount type %q", ErrBadRequest, p.DiscountType)
	}
	if err := s.repo.UpsertProfile(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) GrantCredit(ctx context.Context, id types.ID, amount types.Cents, reference string) (*Credit, error) {
	if id == "" || amount <= 0 {
		return nil, fmt.Errorf("%w: credit grant needs a passenger and a positive amount", ErrBadRequest)
	}
	if reference == "" {
		reference = "grant"
	}
	return s.repo.GrantCredit(ctx, id, amount, reference)
}
