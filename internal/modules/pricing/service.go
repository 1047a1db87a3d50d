// README: Pricing service computes itemized fares from the live rule catalog.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"luxride/internal/metrics"
	"luxride/internal/modules/location"
	"luxride/internal/types"
)

type CatalogSource interface {
	Catalog() *Catalog
}

type ProfileLookup interface {
	Discount(ctx context.Context, passengerID types.ID) (Discount, error)
}

type CreditLookup interface {
	Balance(ctx context.Context, passengerID types.ID) (types.Cents, error)
}

type Service struct {
	catalog  CatalogSource
	profiles ProfileLookup
	credits  CreditLookup
	now      func() time.Time
}

func NewService(catalog CatalogSource, profiles ProfileLookup, credits CreditLookup) *Service {
	return &Service{catalog: catalog, profiles: profiles, credits: credits, now: time.Now}
}

// ComputeFare reads one catalog snapshot, looks up the passenger's discount
// and credit balance, and prices the request.
func (s *Service) ComputeFare(ctx context.Context, req Request) (b Breakdown, err error) {
	start := time.Now()
	defer func() {
		metrics.QuoteDuration.Observe(time.Since(start).Seconds())
		metrics.Quotes.WithLabelValues(quoteResult(err)).Inc()
	}()

	cat := s.catalog.Catalog()

	var in PassengerInputs
	if req.PassengerID != "" && s.profiles != nil {
		d, err := s.profiles.Discount(ctx, req.PassengerID)
		if err != nil {
			return Breakdown{}, fmt.Errorf("lookup discount: %w", err)
		}
		in.Discount = d
	}
	if req.PassengerID != "" && s.credits != nil && req.RequestedCreditAmount != nil && *req.RequestedCreditAmount > 0 {
		bal, err := s.credits.Balance(ctx, req.PassengerID)
		if err != nil {
			return Breakdown{}, fmt.Errorf("lookup credit balance: %w", err)
		}
		in.CreditBalance = bal
	}

	b, err = Compute(cat, req, in)
	if err != nil {
		return Breakdown{}, err
	}
	b.ComputedAt = s.now().UTC()
	return b, nil
}

func quoteResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrNoApplicableRule):
		return metrics.ResultNoRule
	case errors.Is(err, ErrInvalidLocation), errors.Is(err, ErrInvalidRequest):
		return metrics.ResultInvalid
	case errors.Is(err, ErrConfiguration):
		return metrics.ResultConfigError
	default:
		return metrics.ResultError
	}
}

// Compute is the pure pricing pipeline: resolve rule, base fare, surge,
// airport fees, gratuity, discount, credit. No partial breakdown is returned
// on error.
func Compute(cat *Catalog, req Request, in PassengerInputs) (Breakdown, error) {
	if req.VehicleType == "" || req.ServiceType == "" {
		return Breakdown{}, fmt.Errorf("%w: vehicle and service type are required", ErrInvalidRequest)
	}
	if req.ScheduledAt.IsZero() {
		return Breakdown{}, fmt.Errorf("%w: scheduled time is required", ErrInvalidRequest)
	}
	if req.RequestedHours < 0 || (req.ActualHours != nil && *req.ActualHours < 0) {
		return Breakdown{}, fmt.Errorf("%w: negative hours", ErrInvalidRequest)
	}

	miles, err := tripMiles(req)
	if err != nil {
		return Breakdown{}, err
	}

	cr, err := cat.resolve(req.VehicleType, req.ServiceType, req.ScheduledAt)
	if err != nil {
		return Breakdown{}, err
	}
	if cr.err != nil {
		return Breakdown{}, fmt.Errorf("rule %d: %w", cr.rule.ID, cr.err)
	}
	r := cr.rule

	base, hours, err := baseFare(cr, trip{miles: miles, requestedHours: req.RequestedHours, actualHours: req.ActualHours})
	if err != nil {
		return Breakdown{}, err
	}

	multiplier, surge := evaluateSurge(cr.windows, req.ScheduledAt, base)

	destCode := ""
	if req.Destination != nil {
		destCode = req.Destination.AirportCode
	}
	airport, charges := evaluateAirportFees(r.AirportFees, req.Pickup.AirportCode, destCode, req.WaiverSignals)

	var meetAndGreet types.Cents
	if req.MeetAndGreet && r.MeetAndGreet != nil && r.MeetAndGreet.Enabled {
		meetAndGreet = types.FromFloat(r.MeetAndGreet.Charge)
		airport += meetAndGreet
	}

	gratuity := gratuityFor(r.GratuityPercent, base+surge+airport)
	subtotal := base + surge + airport + gratuity

	var floor types.Cents
	if r.MinimumFare != nil {
		floor = types.FromFloat(*r.MinimumFare)
	}
	pct, discount := applyDiscount(in.Discount, subtotal, floor)
	total := types.MaxCents(subtotal-discount, 0)

	var requested types.Cents
	if req.RequestedCreditAmount != nil {
		requested = *req.RequestedCreditAmount
	}

	b := Breakdown{
		VehicleType:        req.VehicleType,
		ServiceType:        req.ServiceType,
		DistanceMiles:      miles,
		BilledHours:        hours,
		BaseFare:           base,
		SurgeMultiplier:    multiplier,
		SurgeAmount:        surge,
		AirportFees:        charges,
		MeetAndGreetAmount: meetAndGreet,
		AirportFeeAmount:   airport,
		GratuityAmount:     gratuity,
		RegularPrice:       subtotal,
		DiscountPercentage: pct,
		DiscountAmount:     discount,
		TotalAmount:        total,
		Currency:           types.DefaultCurrency,
		Rule:               snapshotOf(cr),
	}
	return b.WithCredit(in.CreditBalance, requested), nil
}

// tripMiles validates the legs and returns the path distance. Transfers need a
// destination; hourly trips are priced by time and measure distance only when
// one is given.
func tripMiles(req Request) (float64, error) {
	if err := location.ValidatePoint(req.Pickup.Point); err != nil {
		return 0, fmt.Errorf("pickup: %w", err)
	}
	if req.Destination == nil {
		if req.ServiceType == ServiceTransfer {
			return 0, fmt.Errorf("%w: transfer requires a destination", ErrInvalidLocation)
		}
		return 0, nil
	}
	if err := location.ValidatePoint(req.Destination.Point); err != nil {
		return 0, fmt.Errorf("destination: %w", err)
	}

	points := make([]types.Point, 0, len(req.ViaPoints)+2)
	points = append(points, req.Pickup.Point)
	for i, p := range req.ViaPoints {
		if err := location.ValidatePoint(p); err != nil {
			return 0, fmt.Errorf("via point %d: %w", i, err)
		}
		points = append(points, p)
	}
	points = append(points, req.Destination.Point)
	miles := location.PathMiles(points...)
	if math.IsNaN(miles) || math.IsInf(miles, 0) {
		return 0, fmt.Errorf("%w: trip distance is not finite", ErrInvalidLocation)
	}
	return miles, nil
}

func snapshotOf(cr *compiledRule) RuleSnapshot {
	r := cr.rule
	return RuleSnapshot{
		ID:              r.ID,
		VehicleType:     r.VehicleType,
		ServiceType:     r.ServiceType,
		Mode:            cr.mode.String(),
		BaseRate:        valueOr(r.BaseRate, 0),
		PerMileRate:     valueOr(r.PerMileRate, 0),
		HourlyRate:      r.HourlyRate,
		MinimumHours:    r.MinimumHours,
		MinimumFare:     valueOr(r.MinimumFare, 0),
		GratuityPercent: r.GratuityPercent,
		OvertimeRate:    valueOr(r.OvertimeRate, 0),
		DistanceTiers:   append([]DistanceTier(nil), r.DistanceTiers...),
		UpdatedAt:       r.UpdatedAt,
	}
}
