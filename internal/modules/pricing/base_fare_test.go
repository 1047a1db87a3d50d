// README: Base fare tests for tiered, flat and hourly rules.
package pricing

import (
	"errors"
	"testing"

	"luxride/internal/types"
)

func TestTieredFare(t *testing.T) {
	tiers := []DistanceTier{
		{Miles: 10, RatePerMile: 5},
		{Miles: 15, RatePerMile: 3},
		{RatePerMile: 2, IsRemaining: true},
	}
	tests := []struct {
		name  string
		miles float64
		want  float64
	}{
		{"zero distance", 0, 0},
		{"inside first tier", 4, 20},
		{"first tier exactly", 10, 50},
		{"into second tier", 12, 56},
		{"second tier exactly", 25, 95},
		{"into remaining tier", 30, 105},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tieredFare(tiers, tt.miles); got != tt.want {
				t.Errorf("tieredFare(%v) = %v, want %v", tt.miles, got, tt.want)
			}
		})
	}
}

func TestTieredFare_NoRemainingTierStopsBilling(t *testing.T) {
	tiers := []DistanceTier{{Miles: 10, RatePerMile: 2}}
	if got := tieredFare(tiers, 40); got != 20 {
		t.Errorf("tieredFare() = %v, want 20", got)
	}
}

func TestTieredFare_SumOfConsumedSlices(t *testing.T) {
	tiers := []DistanceTier{
		{Miles: 3, RatePerMile: 7},
		{Miles: 7, RatePerMile: 4},
		{Miles: 50, RatePerMile: 1.5},
	}
	for d := 0.0; d <= 60; d += 0.25 {
		want := 0.0
		left := d
		for _, tier := range tiers {
			used := min(left, tier.Miles)
			want += used * tier.RatePerMile
			left -= used
		}
		if got := tieredFare(tiers, d); got != want {
			t.Fatalf("tieredFare(%v) = %v, want %v", d, got, want)
		}
	}
}

func TestTieredFare_Monotonic(t *testing.T) {
	tiers := tieredSedanRule().DistanceTiers
	prev := types.Cents(-1)
	for d := 0.0; d <= 100; d += 0.1 {
		got := types.FromFloat(tieredFare(tiers, d))
		if got < prev {
			t.Fatalf("fare decreased at %v miles: %s < %s", d, got, prev)
		}
		prev = got
	}
}

func TestBaseFare_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		rule      Rule
		trip      trip
		want      types.Cents
		wantHours float64
	}{
		{
			name: "tiered 30mi with free first 20",
			rule: tieredSedanRule(),
			trip: trip{miles: 30},
			want: 4450,
		},
		{
			name: "flat base + per mile",
			rule: flatSUVRule(),
			trip: trip{miles: 10},
			want: 7500,
		},
		{
			name: "flat per mile only",
			rule: Rule{ServiceType: ServiceTransfer, VehicleType: VehicleBusinessSUV, PerMileRate: f64(3)},
			trip: trip{miles: 10},
			want: 3000,
		},
		{
			name:      "hourly below minimum hours",
			rule:      hourlySedanRule(),
			trip:      trip{requestedHours: 2},
			want:      28500,
			wantHours: 3,
		},
		{
			name:      "hourly above minimum hours",
			rule:      hourlySedanRule(),
			trip:      trip{requestedHours: 4},
			want:      38000,
			wantHours: 4,
		},
		{
			name:      "hourly overtime at overtime rate",
			rule:      hourlySedanRule(),
			trip:      trip{requestedHours: 4, actualHours: f64(5.5)},
			want:      38000 + 18000,
			wantHours: 5.5,
		},
		{
			name:      "hourly actual inside minimum is not overtime",
			rule:      hourlySedanRule(),
			trip:      trip{requestedHours: 2, actualHours: f64(2.5)},
			want:      28500,
			wantHours: 3,
		},
		{
			name: "hourly overtime without overtime rate uses hourly rate",
			rule: Rule{
				ServiceType: ServiceHourly, VehicleType: VehicleBusinessSedan,
				HourlyRate: 100, MinimumHours: 2,
			},
			trip:      trip{requestedHours: 2, actualHours: f64(3)},
			want:      30000,
			wantHours: 3,
		},
		{
			name: "minimum fare floor",
			rule: func() Rule {
				r := flatSUVRule()
				r.MinimumFare = f64(90)
				return r
			}(),
			trip: trip{miles: 10},
			want: 9000,
		},
		{
			name: "minimum fare below computed amount",
			rule: func() Rule {
				r := flatSUVRule()
				r.MinimumFare = f64(60)
				return r
			}(),
			trip: trip{miles: 10},
			want: 7500,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cr := compile(tt.rule)
			if cr.err != nil {
				t.Fatalf("compile: %v", cr.err)
			}
			got, hours, err := baseFare(&cr, tt.trip)
			if err != nil {
				t.Fatalf("baseFare() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("baseFare() = %s, want %s", got, tt.want)
			}
			if hours != tt.wantHours {
				t.Errorf("billed hours = %v, want %v", hours, tt.wantHours)
			}
		})
	}
}

func TestBaseFare_UncompiledRule(t *testing.T) {
	cr := compiledRule{rule: Rule{ID: 9}}
	if _, _, err := baseFare(&cr, trip{miles: 3}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("baseFare() error = %v, want ErrConfiguration", err)
	}
}
