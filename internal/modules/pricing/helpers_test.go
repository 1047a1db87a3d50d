// README: Shared pricing test fixtures.
package pricing

import (
	"math"
	"time"

	"luxride/internal/types"
)

func f64(v float64) *float64 { return &v }

func intp(v int) *int { return &v }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// eastOf returns a point on the equator the given number of miles east of the origin.
func eastOf(miles float64) types.Point {
	return types.Point{Lat: 0, Lng: miles / 3959.0 * 180 / math.Pi}
}

var origin = types.Point{Lat: 0, Lng: 0}

func tieredSedanRule() Rule {
	return Rule{
		ID:              1,
		VehicleType:     VehicleBusinessSedan,
		ServiceType:     ServiceTransfer,
		IsActive:        true,
		GratuityPercent: 20,
		DistanceTiers: []DistanceTier{
			{Miles: 20, RatePerMile: 0},
			{RatePerMile: 4.45, IsRemaining: true},
		},
	}
}

func flatSUVRule() Rule {
	return Rule{
		ID:          2,
		VehicleType: VehicleBusinessSUV,
		ServiceType: ServiceTransfer,
		IsActive:    true,
		BaseRate:    f64(50),
		PerMileRate: f64(2.5),
	}
}

func hourlySedanRule() Rule {
	return Rule{
		ID:           3,
		VehicleType:  VehicleBusinessSedan,
		ServiceType:  ServiceHourly,
		IsActive:     true,
		HourlyRate:   95,
		MinimumHours: 3,
		OvertimeRate: f64(120),
	}
}
