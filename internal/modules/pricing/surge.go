// README: Time-windowed surge multipliers matched against the scheduled pickup.
package pricing

import (
	"math"
	"time"

	"luxride/internal/types"
)

// covers reports whether t falls in [start, end) on the window's day. A
// wrapping window credits its after-midnight slice to the day it starts.
func (w window) covers(t time.Time) bool {
	day := int(t.Weekday())
	tod := t.Hour()*3600 + t.Minute()*60 + t.Second()

	if w.start < w.end {
		return w.onDay(day) && tod >= w.start && tod < w.end
	}
	if tod >= w.start {
		return w.onDay(day)
	}
	if tod < w.end {
		return w.onDay((day + 6) % 7)
	}
	return false
}

func (w window) onDay(day int) bool {
	return w.day == -1 || w.day == day
}

// evaluateSurge picks the largest matching multiplier, first declared on ties.
func evaluateSurge(windows []window, pickup time.Time, base types.Cents) (float64, types.Cents) {
	multiplier := 1.0
	matched := false
	for _, w := range windows {
		if !w.covers(pickup) {
			continue
		}
		if !matched || w.multiplier > multiplier {
			multiplier = w.multiplier
			matched = true
		}
	}
	if !matched {
		return 1.0, 0
	}
	multiplier = math.Round(multiplier*100) / 100
	return multiplier, base.Mul(multiplier - 1)
}
