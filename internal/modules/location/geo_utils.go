// README: Geographic helpers (haversine distance in miles, coordinate checks).
package location

import (
	"errors"
	"fmt"
	"math"

	"luxride/internal/types"
)

const earthRadiusMiles = 3959.0

var ErrInvalidLocation = errors.New("invalid location")

// HaversineMiles returns the great-circle distance in miles between two
// points specified in decimal degrees.
func HaversineMiles(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h just past 1 for near-antipodal points.
	h = math.Min(math.Max(h, 0), 1)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}

// PathMiles sums the leg distances between consecutive points in the order given.
func PathMiles(points ...types.Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += HaversineMiles(points[i-1], points[i])
	}
	return total
}

// ValidatePoint rejects coordinates that are not finite or fall outside the
// valid latitude/longitude ranges.
func ValidatePoint(p types.Point) error {
	switch {
	case math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0):
		return fmt.Errorf("%w: non-finite coordinate", ErrInvalidLocation)
	case p.Lat < -90 || p.Lat > 90:
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidLocation, p.Lat)
	case p.Lng < -180 || p.Lng > 180:
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidLocation, p.Lng)
	}
	return nil
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
