// README: Airport fees for airport pickups and drop-offs, honoring flight waivers.
package pricing

import (
	"math"
	"strings"

	"luxride/internal/types"
)

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// evaluateAirportFees charges each fee whose airport is the pickup or the
// destination, unless the caller's waiver signal for that airport applies.
func evaluateAirportFees(fees []AirportFee, pickupCode, destCode string, signals map[string]WaiverSignal) (types.Cents, []AirportCharge) {
	pickupCode, destCode = normalizeCode(pickupCode), normalizeCode(destCode)
	if pickupCode == "" && destCode == "" {
		return 0, nil
	}

	normalized := make(map[string]WaiverSignal, len(signals))
	for code, s := range signals {
		normalized[normalizeCode(code)] = s
	}

	var total types.Cents
	var charges []AirportCharge
	for _, f := range fees {
		code := normalizeCode(f.AirportCode)
		if code == "" || (code != pickupCode && code != destCode) {
			continue
		}
		charge := AirportCharge{AirportCode: code, Fee: types.FromFloat(f.Fee)}
		if sig, ok := normalized[code]; ok && waived(f, sig) {
			charge.Waived = true
		} else {
			total += charge.Fee
		}
		charges = append(charges, charge)
	}
	return total, charges
}

func waived(f AirportFee, sig WaiverSignal) bool {
	if sig.Waived {
		return true
	}
	if f.WaiverMinutes == nil || sig.MinutesFromEvent == nil {
		return false
	}
	return math.Abs(*sig.MinutesFromEvent) <= float64(*f.WaiverMinutes)
}
