// README: Booking handlers for create/get/cancel.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"luxride/internal/http/middleware"
	"luxride/internal/modules/booking"
	"luxride/internal/types"
)

type BookingService interface {
	Create(ctx context.Context, cmd booking.CreateCommand) (*booking.Booking, error)
	Get(ctx context.Context, id types.ID) (*booking.Booking, error)
	Cancel(ctx context.Context, id types.ID) (*booking.Booking, error)
}

type BookingHandler struct {
	bookings BookingService
	trips    tripParser
	logger   *slog.Logger
}

func NewBookingHandler(bookings BookingService, geocoder Geocoder, loc *time.Location, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, trips: tripParser{geocoder: geocoder, loc: loc}, logger: logger}
}

func (h *BookingHandler) Create(c *gin.Context) {
	var in tripReq
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req, err := h.trips.parse(c, in)
	if err != nil {
		writeTripError(c, h.logger, err)
		return
	}
	b, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{Request: req})
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, ok := h.owned(c)
	if !ok {
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	if _, ok := h.owned(c); !ok {
		return
	}
	b, err := h.bookings.Cancel(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

// owned loads the booking in the path and checks the caller may see it.
// Other passengers' bookings answer 404 so ids cannot be probed.
func (h *BookingHandler) owned(c *gin.Context) (*booking.Booking, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid booking id")
		return nil, false
	}
	b, err := h.bookings.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return nil, false
	}
	if string(b.PassengerID) != middleware.CallerUID(c) && !middleware.IsStaff(c) {
		writeError(c, http.StatusNotFound, booking.ErrNotFound.Error())
		return nil, false
	}
	return b, true
}
