// README: Pricing rule catalog entries, trip requests and the itemized fare breakdown.
package pricing

import (
	"time"

	"luxride/internal/types"
)

type VehicleType string

const (
	VehicleBusinessSedan   VehicleType = "business_sedan"
	VehicleBusinessSUV     VehicleType = "business_suv"
	VehicleFirstClassSedan VehicleType = "first_class_sedan"
	VehicleFirstClassSUV   VehicleType = "first_class_suv"
	VehicleBusinessVan     VehicleType = "business_van"
)

type ServiceType string

const (
	ServiceTransfer ServiceType = "transfer"
	ServiceHourly   ServiceType = "hourly"
)

// Mode is the pricing variant a rule compiles to.
type Mode int

const (
	ModeInvalid Mode = iota
	ModeTransferTiered
	ModeTransferFlat
	ModeHourly
)

func (m Mode) String() string {
	switch m {
	case ModeTransferTiered:
		return "transfer_tiered"
	case ModeTransferFlat:
		return "transfer_flat"
	case ModeHourly:
		return "hourly"
	default:
		return "invalid"
	}
}

type DistanceTier struct {
	Miles       float64 `json:"miles"`
	RatePerMile float64 `json:"rate_per_mile"`
	IsRemaining bool    `json:"is_remaining"`
}

// SurgeWindow applies Multiplier on DayOfWeek (0 = Sunday, -1 = every day)
// between StartTime and EndTime ("15:04"). EndTime before StartTime wraps
// past midnight.
type SurgeWindow struct {
	DayOfWeek  int     `json:"day_of_week"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Multiplier float64 `json:"multiplier"`
}

type AirportFee struct {
	AirportCode   string  `json:"airport_code"`
	Fee           float64 `json:"fee"`
	WaiverMinutes *int    `json:"waiver_minutes,omitempty"`
}

type MeetAndGreet struct {
	Enabled bool    `json:"enabled"`
	Charge  float64 `json:"charge"`
}

type Rule struct {
	ID              int64          `json:"id"`
	VehicleType     VehicleType    `json:"vehicle_type"`
	ServiceType     ServiceType    `json:"service_type"`
	BaseRate        *float64       `json:"base_rate,omitempty"`
	PerMileRate     *float64       `json:"per_mile_rate,omitempty"`
	HourlyRate      float64        `json:"hourly_rate"`
	MinimumHours    float64        `json:"minimum_hours"`
	MinimumFare     *float64       `json:"minimum_fare,omitempty"`
	GratuityPercent float64        `json:"gratuity_percent"`
	OvertimeRate    *float64       `json:"overtime_rate,omitempty"`
	EffectiveStart  *time.Time     `json:"effective_start,omitempty"`
	EffectiveEnd    *time.Time     `json:"effective_end,omitempty"`
	IsActive        bool           `json:"is_active"`
	DistanceTiers   []DistanceTier `json:"distance_tiers"`
	SurgeWindows    []SurgeWindow  `json:"surge_windows"`
	AirportFees     []AirportFee   `json:"airport_fees"`
	MeetAndGreet    *MeetAndGreet  `json:"meet_and_greet,omitempty"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// clone returns a deep copy so callers never share slices or pointers with a catalog.
func (r Rule) clone() Rule {
	out := r
	out.BaseRate = clonePtr(r.BaseRate)
	out.PerMileRate = clonePtr(r.PerMileRate)
	out.MinimumFare = clonePtr(r.MinimumFare)
	out.OvertimeRate = clonePtr(r.OvertimeRate)
	out.EffectiveStart = clonePtr(r.EffectiveStart)
	out.EffectiveEnd = clonePtr(r.EffectiveEnd)
	out.MeetAndGreet = clonePtr(r.MeetAndGreet)
	out.DistanceTiers = append([]DistanceTier(nil), r.DistanceTiers...)
	out.SurgeWindows = append([]SurgeWindow(nil), r.SurgeWindows...)
	out.AirportFees = make([]AirportFee, len(r.AirportFees))
	for i, f := range r.AirportFees {
		f.WaiverMinutes = clonePtr(f.WaiverMinutes)
		out.AirportFees[i] = f
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Stop is a trip endpoint. AirportCode is set by the caller when the stop is an airport.
type Stop struct {
	Point       types.Point `json:"point"`
	AirportCode string      `json:"airport_code,omitempty"`
}

// WaiverSignal carries precomputed flight data for one airport. The fee is
// waived when Waived is set, or when MinutesFromEvent is within the fee's
// WaiverMinutes.
type WaiverSignal struct {
	Waived           bool     `json:"waived"`
	MinutesFromEvent *float64 `json:"minutes_from_event,omitempty"`
}

type Request struct {
	VehicleType           VehicleType
	ServiceType           ServiceType
	Pickup                Stop
	Destination           *Stop
	ViaPoints             []types.Point
	ScheduledAt           time.Time
	RequestedHours        float64
	ActualHours           *float64
	PassengerID           types.ID
	WaiverSignals         map[string]WaiverSignal
	RequestedCreditAmount *types.Cents
	MeetAndGreet          bool
}

type DiscountType string

const (
	DiscountNone       DiscountType = ""
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is a passenger-level discount. Value is a percent for
// DiscountPercentage and a major-unit amount for DiscountFixed.
type Discount struct {
	Type  DiscountType `json:"type"`
	Value float64      `json:"value"`
}

// PassengerInputs are the passenger-owned values a fare depends on.
type PassengerInputs struct {
	Discount      Discount
	CreditBalance types.Cents
}

type AirportCharge struct {
	AirportCode string      `json:"airport_code"`
	Fee         types.Cents `json:"fee"`
	Waived      bool        `json:"waived"`
}

// RuleSnapshot is a value copy of the rule fields a breakdown was priced with.
type RuleSnapshot struct {
	ID              int64          `json:"id"`
	VehicleType     VehicleType    `json:"vehicle_type"`
	ServiceType     ServiceType    `json:"service_type"`
	Mode            string         `json:"mode"`
	BaseRate        float64        `json:"base_rate"`
	PerMileRate     float64        `json:"per_mile_rate"`
	HourlyRate      float64        `json:"hourly_rate"`
	MinimumHours    float64        `json:"minimum_hours"`
	MinimumFare     float64        `json:"minimum_fare"`
	GratuityPercent float64        `json:"gratuity_percent"`
	OvertimeRate    float64        `json:"overtime_rate"`
	DistanceTiers   []DistanceTier `json:"distance_tiers"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type Breakdown struct {
	VehicleType         VehicleType     `json:"vehicle_type"`
	ServiceType         ServiceType     `json:"service_type"`
	DistanceMiles       float64         `json:"distance_miles"`
	BilledHours         float64         `json:"billed_hours"`
	BaseFare            types.Cents     `json:"base_fare"`
	SurgeMultiplier     float64         `json:"surge_multiplier"`
	SurgeAmount         types.Cents     `json:"surge_amount"`
	AirportFees         []AirportCharge `json:"airport_fees"`
	MeetAndGreetAmount  types.Cents     `json:"meet_and_greet_amount"`
	AirportFeeAmount    types.Cents     `json:"airport_fee_amount"`
	GratuityAmount      types.Cents     `json:"gratuity_amount"`
	RegularPrice        types.Cents     `json:"regular_price"`
	// DiscountPercentage is the share of RegularPrice actually discounted; it
	// drops below the profile's percent when the subtotal or minimum fare clamps it.
	DiscountPercentage  float64         `json:"discount_percentage"`
	DiscountAmount      types.Cents     `json:"discount_amount"`
	CreditAmountApplied types.Cents     `json:"credit_amount_applied"`
	TotalAmount         types.Cents     `json:"total_amount"`
	RemainingAmount     types.Cents     `json:"remaining_amount"`
	Currency            string          `json:"currency"`
	Rule                RuleSnapshot    `json:"rule"`
	ComputedAt          time.Time       `json:"computed_at"`
}

// WithCredit returns a copy of b with balance re-applied against the total.
// requested is clamped the same way ComputeFare clamps it.
func (b Breakdown) WithCredit(balance, requested types.Cents) Breakdown {
	b.CreditAmountApplied = ApplyCredit(balance, b.TotalAmount, requested)
	b.RemainingAmount = b.TotalAmount - b.CreditAmountApplied
	return b
}
