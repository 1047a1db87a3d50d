// README: Booking aggregate with its frozen fare breakdown.
package booking

import (
	"time"

	"luxride/internal/modules/pricing"
	"luxride/internal/types"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// AllowedTransitions represents the booking status flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusConfirmed: {StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Booking stores the breakdown the passenger accepted. Fare is never
// recomputed after the booking is created.
type Booking struct {
	ID          types.ID            `json:"id"`
	PassengerID types.ID            `json:"passenger_id"`
	Status      Status              `json:"status"`
	VehicleType pricing.VehicleType `json:"vehicle_type"`
	ServiceType pricing.ServiceType `json:"service_type"`
	Pickup      pricing.Stop        `json:"pickup"`
	Destination *pricing.Stop       `json:"destination,omitempty"`
	ScheduledAt time.Time           `json:"scheduled_at"`
	Fare        pricing.Breakdown   `json:"fare"`
	CreatedAt   time.Time           `json:"created_at"`
	CancelledAt *time.Time          `json:"cancelled_at,omitempty"`
}

const EventBookingPriced = "booking.priced"

// PricedEvent is published once a booking and its credit debit are committed.
type PricedEvent struct {
	Type          string            `json:"type"`
	BookingID     types.ID          `json:"booking_id"`
	PassengerID   types.ID          `json:"passenger_id"`
	TotalAmount   types.Cents       `json:"total_amount"`
	CreditApplied types.Cents       `json:"credit_applied"`
	Remaining     types.Cents       `json:"remaining_amount"`
	Currency      string            `json:"currency"`
	Fare          pricing.Breakdown `json:"fare"`
	OccurredAt    time.Time         `json:"occurred_at"`
}
