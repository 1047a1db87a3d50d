// README: Pre-surcharge fare for tiered, flat and hourly rules.
package pricing

import (
	"fmt"

	"luxride/internal/types"
)

type trip struct {
	miles          float64
	requestedHours float64
	actualHours    *float64
}

// baseFare returns the fare before surge, fees and gratuity, floored at the
// rule's minimum fare, and the hours billed for hourly rules.
func baseFare(cr *compiledRule, t trip) (types.Cents, float64, error) {
	r := cr.rule
	var amount, hours float64
	switch cr.mode {
	case ModeTransferTiered:
		amount = tieredFare(r.DistanceTiers, t.miles)
	case ModeTransferFlat:
		amount = valueOr(r.BaseRate, 0) + valueOr(r.PerMileRate, 0)*t.miles
	case ModeHourly:
		amount, hours = hourlyFare(r, t.requestedHours, t.actualHours)
	default:
		return 0, 0, fmt.Errorf("%w: rule %d has no pricing mode", ErrConfiguration, r.ID)
	}

	fare := types.FromFloat(amount)
	if r.MinimumFare != nil {
		fare = types.MaxCents(fare, types.FromFloat(*r.MinimumFare))
	}
	return fare, hours, nil
}

// tieredFare walks the tiers in order. Each bounded tier consumes up to its
// own miles; a remaining tier consumes whatever is left.
func tieredFare(tiers []DistanceTier, miles float64) float64 {
	left := miles
	cost := 0.0
	for _, t := range tiers {
		if left <= 0 {
			break
		}
		used := left
		if !t.IsRemaining && t.Miles < left {
			used = t.Miles
		}
		cost += used * t.RatePerMile
		left -= used
	}
	return cost
}

// hourlyFare bills max(requested, minimum) hours. Post-trip actual hours
// beyond that bill at the overtime rate, or the hourly rate when none is set.
func hourlyFare(r Rule, requested float64, actual *float64) (float64, float64) {
	billed := requested
	if r.MinimumHours > billed {
		billed = r.MinimumHours
	}
	amount := r.HourlyRate * billed
	if actual != nil && *actual > billed {
		amount += (*actual - billed) * valueOr(r.OvertimeRate, r.HourlyRate)
		billed = *actual
	}
	return amount, billed
}
