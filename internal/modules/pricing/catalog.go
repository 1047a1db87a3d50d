// README: Immutable pricing rule catalog snapshot and rule resolution.
package pricing

import (
	"fmt"
	"time"
)

// Catalog is a read-only snapshot of the rule set. Rules are compiled once
// when the snapshot is built.
type Catalog struct {
	rules    []compiledRule
	loadedAt time.Time
}

func NewCatalog(rules []Rule) *Catalog {
	c := &Catalog{rules: make([]compiledRule, 0, len(rules)), loadedAt: time.Now()}
	for _, r := range rules {
		c.rules = append(c.rules, compile(r))
	}
	return c
}

func (c *Catalog) Len() int {
	return len(c.rules)
}

func (c *Catalog) LoadedAt() time.Time {
	return c.loadedAt
}

// Rules returns copies of every rule in the snapshot.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i := range c.rules {
		out[i] = c.rules[i].rule.clone()
	}
	return out
}

// Faults returns the configuration error of every rule that failed to compile, by rule ID.
func (c *Catalog) Faults() map[int64]error {
	faults := map[int64]error{}
	for i := range c.rules {
		if c.rules[i].err != nil {
			faults[c.rules[i].rule.ID] = c.rules[i].err
		}
	}
	return faults
}

// Resolve returns a copy of the single rule that prices vehicle/service on asOf.
func (c *Catalog) Resolve(vehicle VehicleType, service ServiceType, asOf time.Time) (Rule, error) {
	cr, err := c.resolve(vehicle, service, asOf)
	if err != nil {
		return Rule{}, err
	}
	return cr.rule.clone(), nil
}

// resolve filters active rules for the key whose effective dates contain
// asOf. The latest effective start wins; equal starts fall to the lower ID.
func (c *Catalog) resolve(vehicle VehicleType, service ServiceType, asOf time.Time) (*compiledRule, error) {
	var best *compiledRule
	for i := range c.rules {
		cr := &c.rules[i]
		r := cr.rule
		if !r.IsActive || r.VehicleType != vehicle || r.ServiceType != service || !r.effectiveOn(asOf) {
			continue
		}
		if best == nil || startsAfter(r.EffectiveStart, best.rule.EffectiveStart) ||
			(sameStart(r.EffectiveStart, best.rule.EffectiveStart) && r.ID < best.rule.ID) {
			best = cr
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s/%s on %s", ErrNoApplicableRule, vehicle, service, asOf.Format(time.DateOnly))
	}
	return best, nil
}

// CheckOverlap rejects an active rule whose effective dates intersect another
// active rule for the same vehicle and service. A rule never overlaps itself.
func (c *Catalog) CheckOverlap(r Rule) error {
	if !r.IsActive {
		return nil
	}
	for i := range c.rules {
		o := c.rules[i].rule
		if !o.IsActive || o.VehicleType != r.VehicleType || o.ServiceType != r.ServiceType {
			continue
		}
		if r.ID != 0 && o.ID == r.ID {
			continue
		}
		if dateLE(r.EffectiveStart, o.EffectiveEnd) && dateLE(o.EffectiveStart, r.EffectiveEnd) {
			return fmt.Errorf("%w: rule %d covers %s/%s for the same dates", ErrRuleOverlap, o.ID, r.VehicleType, r.ServiceType)
		}
	}
	return nil
}

// effectiveOn compares calendar dates: start <= asOf <= end, nil bounds open.
func (r Rule) effectiveOn(asOf time.Time) bool {
	day := dateKey(asOf)
	if r.EffectiveStart != nil && dateKey(*r.EffectiveStart) > day {
		return false
	}
	if r.EffectiveEnd != nil && dateKey(*r.EffectiveEnd) < day {
		return false
	}
	return true
}

func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// startsAfter treats a nil start as the oldest possible start.
func startsAfter(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return dateKey(*a) > dateKey(*b)
	}
}

func sameStart(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return dateKey(*a) == dateKey(*b)
}

// dateLE reports start <= end where a nil start is -inf and a nil end is +inf.
func dateLE(start, end *time.Time) bool {
	if start == nil || end == nil {
		return true
	}
	return dateKey(*start) <= dateKey(*end)
}
