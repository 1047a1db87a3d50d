// README: Pricing error sentinels.
package pricing

import (
	"errors"

	"luxride/internal/modules/location"
)

var (
	ErrNoApplicableRule = errors.New("no applicable pricing rule")
	ErrConfiguration    = errors.New("pricing rule configuration error")
	ErrInvalidLocation  = location.ErrInvalidLocation
	ErrInvalidRequest   = errors.New("invalid fare request")
	ErrRuleOverlap      = errors.New("overlapping active pricing rule")
)
