// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"luxride/internal/modules/booking"
	"luxride/internal/modules/passenger"
	"luxride/internal/modules/pricing"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts uuids and Firebase uids: 1..128 chars of [A-Za-z0-9_-].
func isValidID(v string) bool {
	if v == "" || len(v) > 128 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps module errors to status codes. Misconfigured rules
// and unknown failures are logged and never echoed to the caller.
func writeServiceError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidLocation),
		errors.Is(err, pricing.ErrInvalidRequest),
		errors.Is(err, booking.ErrBadRequest),
		errors.Is(err, passenger.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, pricing.ErrNoApplicableRule):
		writeError(c, http.StatusUnprocessableEntity, "pricing unavailable for this vehicle and service")
	case errors.Is(err, pricing.ErrConfiguration):
		logger.ErrorContext(c.Request.Context(), "pricing rule misconfigured", "error", err)
		writeError(c, http.StatusInternalServerError, "pricing temporarily unavailable")
	case errors.Is(err, pricing.ErrRuleOverlap), errors.Is(err, booking.ErrInvalidState):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, pricing.ErrRuleNotFound),
		errors.Is(err, booking.ErrNotFound),
		errors.Is(err, passenger.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
