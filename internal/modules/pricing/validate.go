// README: Rule validation and compilation into a fixed pricing mode.
package pricing

import (
	"fmt"
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// window is a SurgeWindow with its times parsed to seconds since midnight.
type window struct {
	day        int
	start      int
	end        int
	multiplier float64
}

// compiledRule is a rule with its mode and surge windows fixed at catalog build time.
type compiledRule struct {
	rule    Rule
	mode    Mode
	windows []window
	err     error
}

func compile(r Rule) compiledRule {
	cr := compiledRule{rule: r.clone()}
	if err := ValidateRule(r); err != nil {
		cr.err = err
		return cr
	}
	cr.mode, _ = resolveMode(r)
	cr.windows, _ = parseWindows(r.SurgeWindows)
	return cr
}

// ValidateRule reports every inconsistency that would make a rule unpriceable.
// All failures wrap ErrConfiguration.
func ValidateRule(r Rule) error {
	if r.VehicleType == "" {
		return fmt.Errorf("%w: vehicle type is required", ErrConfiguration)
	}
	if _, err := resolveMode(r); err != nil {
		return err
	}
	if r.EffectiveStart != nil && r.EffectiveEnd != nil && r.EffectiveEnd.Before(*r.EffectiveStart) {
		return fmt.Errorf("%w: effective end before effective start", ErrConfiguration)
	}
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"base rate", r.BaseRate},
		{"per-mile rate", r.PerMileRate},
		{"minimum fare", r.MinimumFare},
		{"overtime rate", r.OvertimeRate},
	} {
		if f.v != nil && *f.v < 0 {
			return fmt.Errorf("%w: negative %s", ErrConfiguration, f.name)
		}
	}
	if r.HourlyRate < 0 || r.MinimumHours < 0 || r.GratuityPercent < 0 {
		return fmt.Errorf("%w: negative hourly rate, minimum hours or gratuity", ErrConfiguration)
	}
	if err := validateTiers(r.DistanceTiers); err != nil {
		return err
	}
	if _, err := parseWindows(r.SurgeWindows); err != nil {
		return err
	}
	for i, f := range r.AirportFees {
		if strings.TrimSpace(f.AirportCode) == "" {
			return fmt.Errorf("%w: airport fee %d has no airport code", ErrConfiguration, i)
		}
		if f.Fee < 0 {
			return fmt.Errorf("%w: airport fee %s is negative", ErrConfiguration, f.AirportCode)
		}
		if f.WaiverMinutes != nil && *f.WaiverMinutes < 0 {
			return fmt.Errorf("%w: airport fee %s has negative waiver minutes", ErrConfiguration, f.AirportCode)
		}
	}
	if r.MeetAndGreet != nil && r.MeetAndGreet.Charge < 0 {
		return fmt.Errorf("%w: negative meet and greet charge", ErrConfiguration)
	}
	return nil
}

func resolveMode(r Rule) (Mode, error) {
	switch r.ServiceType {
	case ServiceHourly:
		return ModeHourly, nil
	case ServiceTransfer:
		if len(r.DistanceTiers) > 0 {
			return ModeTransferTiered, nil
		}
		if r.BaseRate == nil && r.PerMileRate == nil {
			return ModeInvalid, fmt.Errorf("%w: transfer rule has neither distance tiers nor base/per-mile rate", ErrConfiguration)
		}
		return ModeTransferFlat, nil
	default:
		return ModeInvalid, fmt.Errorf("%w: unknown service type %q", ErrConfiguration, r.ServiceType)
	}
}

func validateTiers(tiers []DistanceTier) error {
	for i, t := range tiers {
		if t.RatePerMile < 0 {
			return fmt.Errorf("%w: tier %d has negative rate", ErrConfiguration, i)
		}
		if t.IsRemaining {
			if i != len(tiers)-1 {
				return fmt.Errorf("%w: remaining tier %d is not last", ErrConfiguration, i)
			}
			continue
		}
		if t.Miles <= 0 {
			return fmt.Errorf("%w: tier %d must cover a positive distance", ErrConfiguration, i)
		}
	}
	return nil
}

func parseWindows(in []SurgeWindow) ([]window, error) {
	out := make([]window, 0, len(in))
	for i, w := range in {
		if w.DayOfWeek < -1 || w.DayOfWeek > 6 {
			return nil, fmt.Errorf("%w: surge window %d has day %d", ErrConfiguration, i, w.DayOfWeek)
		}
		start, err := parseClock(w.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: surge window %d start: %v", ErrConfiguration, i, err)
		}
		end, err := parseClock(w.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%w: surge window %d end: %v", ErrConfiguration, i, err)
		}
		if start == end {
			return nil, fmt.Errorf("%w: surge window %d is empty", ErrConfiguration, i)
		}
		if w.Multiplier < 1 {
			return nil, fmt.Errorf("%w: surge window %d multiplier %.2f below 1", ErrConfiguration, i, w.Multiplier)
		}
		out = append(out, window{day: w.DayOfWeek, start: start, end: end, multiplier: w.Multiplier})
	}
	return out, nil
}

// parseClock accepts "15:04", "15:04:05" and "24:00" (end of day).
func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" || s == "24:00:00" {
		return secondsPerDay, nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*3600 + t.Minute()*60 + t.Second(), nil
		}
	}
	return 0, fmt.Errorf("unparsable time %q", s)
}
