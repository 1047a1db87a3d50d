// README: Common money value objects used across modules.
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// DefaultCurrency is the only currency the platform prices in.
const DefaultCurrency = "USD"

// Cents is an amount in minor units. It renders as a two-digit decimal in JSON.
type Cents int64

// FromFloat converts a major-unit amount to cents, rounding half away from zero.
func FromFloat(v float64) Cents {
	return Cents(math.Round(v * 100))
}

func (c Cents) Float() float64 {
	return float64(c) / 100
}

// Percent returns p percent of c, rounded to the nearest cent.
func (c Cents) Percent(p float64) Cents {
	return Cents(math.Round(float64(c) * p / 100))
}

// Mul returns c scaled by f, rounded to the nearest cent.
func (c Cents) Mul(f float64) Cents {
	return Cents(math.Round(float64(c) * f))
}

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cents) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("cents: %w", err)
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return fmt.Errorf("cents: %w", err)
	}
	*c = FromFloat(f)
	return nil
}

func MinCents(a, b Cents) Cents {
	if a < b {
		return a
	}
	return b
}

func MaxCents(a, b Cents) Cents {
	if a > b {
		return a
	}
	return b
}
