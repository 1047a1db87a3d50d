// README: Passenger profile discounts and account-credit balances.
package passenger

import (
	"time"

	"luxride/internal/modules/pricing"
	"luxride/internal/types"
)

type Profile struct {
	PassengerID   types.ID             `json:"passenger_id"`
	DisplayName   string               `json:"display_name"`
	DiscountType  pricing.DiscountType `json:"discount_type"`
	DiscountValue float64              `json:"discount_value"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func (p Profile) Discount() pricing.Discount {
	return pricing.Discount{Type: p.DiscountType, Value: p.DiscountValue}
}

type Credit struct {
	PassengerID types.ID    `json:"passenger_id"`
	Balance     types.Cents `json:"balance"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
