// README: Gratuity, passenger discount and account-credit adjustments.
package pricing

import (
	"math"

	"luxride/internal/types"
)

// gratuityFor is computed on base + surge + airport fees, before any discount.
func gratuityFor(percent float64, preTip types.Cents) types.Cents {
	if percent <= 0 {
		return 0
	}
	return preTip.Percent(percent)
}

// applyDiscount never discounts more than the subtotal, and never below floor
// when floor is set. A clamped percentage discount reports the percent it
// actually took off.
func applyDiscount(d Discount, subtotal, floor types.Cents) (float64, types.Cents) {
	var pct float64
	var amount types.Cents
	switch d.Type {
	case DiscountPercentage:
		if d.Value > 0 {
			pct = d.Value
			amount = subtotal.Percent(pct)
		}
	case DiscountFixed:
		if d.Value > 0 {
			amount = types.FromFloat(d.Value)
		}
	}
	amount = types.MinCents(amount, subtotal)
	if floor > 0 && subtotal-amount < floor {
		amount = types.MaxCents(subtotal-floor, 0)
	}
	amount = types.MaxCents(amount, 0)
	if pct > 0 && amount != subtotal.Percent(pct) {
		pct = effectivePercent(amount, subtotal)
	}
	return pct, amount
}

func effectivePercent(amount, subtotal types.Cents) float64 {
	if subtotal <= 0 {
		return 0
	}
	return math.Round(float64(amount)*10000/float64(subtotal)) / 100
}

// ApplyCredit clamps a requested credit to min(balance, total). Over-requests
// are corrected, not rejected.
func ApplyCredit(balance, total, requested types.Cents) types.Cents {
	maxUsable := types.MinCents(types.MaxCents(balance, 0), types.MaxCents(total, 0))
	return types.MinCents(types.MaxCents(requested, 0), maxUsable)
}
