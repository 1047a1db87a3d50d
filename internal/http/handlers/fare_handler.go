// README: Fare quote handler and the trip request payload shared with bookings.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"luxride/internal/http/middleware"
	"luxride/internal/maps"
	"luxride/internal/modules/pricing"
	"luxride/internal/types"
)

type Pricer interface {
	ComputeFare(ctx context.Context, req pricing.Request) (pricing.Breakdown, error)
}

// Geocoder resolves free-form addresses. It may be nil when no maps key is configured.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

var (
	errBadInput  = errors.New("bad request")
	errForbidden = errors.New("forbidden")
	errGeocode   = errors.New("address lookup failed")
)

type stopReq struct {
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Address     string   `json:"address"`
	AirportCode string   `json:"airport_code"`
}

type waiverReq struct {
	Waived           bool     `json:"waived"`
	MinutesFromEvent *float64 `json:"minutes_from_event"`
}

type tripReq struct {
	PassengerID     string               `json:"passenger_id"`
	VehicleType     string               `json:"vehicle_type"`
	ServiceType     string               `json:"service_type"`
	Pickup          stopReq              `json:"pickup"`
	Destination     *stopReq             `json:"destination"`
	Via             []stopReq            `json:"via"`
	ScheduledAt     string               `json:"scheduled_at"`
	RequestedHours  float64              `json:"requested_hours"`
	ActualHours     *float64             `json:"actual_hours"`
	WaiverSignals   map[string]waiverReq `json:"waiver_signals"`
	RequestedCredit *float64             `json:"requested_credit"`
	MeetAndGreet    bool                 `json:"meet_and_greet"`
}

// tripParser turns a tripReq into a pricing.Request for the calling user.
type tripParser struct {
	geocoder Geocoder
	loc      *time.Location
}

func (p tripParser) parse(c *gin.Context, in tripReq) (pricing.Request, error) {
	ctx := c.Request.Context()
	passengerID := in.PassengerID
	caller := middleware.CallerUID(c)
	switch {
	case passengerID == "":
		passengerID = caller
	case passengerID != caller && !middleware.IsStaff(c):
		return pricing.Request{}, errForbidden
	}
	if passengerID != "" && !isValidID(passengerID) {
		return pricing.Request{}, fmt.Errorf("%w: invalid passenger id", errBadInput)
	}

	scheduled, err := parseScheduledAt(in.ScheduledAt, p.loc)
	if err != nil {
		return pricing.Request{}, err
	}

	req := pricing.Request{
		VehicleType:    pricing.VehicleType(strings.TrimSpace(in.VehicleType)),
		ServiceType:    pricing.ServiceType(strings.TrimSpace(in.ServiceType)),
		ScheduledAt:    scheduled,
		RequestedHours: in.RequestedHours,
		ActualHours:    in.ActualHours,
		PassengerID:    types.ID(passengerID),
		MeetAndGreet:   in.MeetAndGreet,
	}

	if req.Pickup, err = p.stop(ctx, in.Pickup); err != nil {
		return pricing.Request{}, fmt.Errorf("pickup: %w", err)
	}
	if in.Destination != nil {
		dest, err := p.stop(ctx, *in.Destination)
		if err != nil {
			return pricing.Request{}, fmt.Errorf("destination: %w", err)
		}
		req.Destination = &dest
	}
	for i, v := range in.Via {
		s, err := p.stop(ctx, v)
		if err != nil {
			return pricing.Request{}, fmt.Errorf("via %d: %w", i, err)
		}
		req.ViaPoints = append(req.ViaPoints, s.Point)
	}

	if len(in.WaiverSignals) > 0 {
		req.WaiverSignals = make(map[string]pricing.WaiverSignal, len(in.WaiverSignals))
		for code, w := range in.WaiverSignals {
			req.WaiverSignals[code] = pricing.WaiverSignal{Waived: w.Waived, MinutesFromEvent: w.MinutesFromEvent}
		}
	}
	if in.RequestedCredit != nil {
		if *in.RequestedCredit < 0 {
			return pricing.Request{}, fmt.Errorf("%w: requested credit must not be negative", errBadInput)
		}
		amount := types.FromFloat(*in.RequestedCredit)
		req.RequestedCreditAmount = &amount
	}
	return req, nil
}

func (p tripParser) stop(ctx context.Context, in stopReq) (pricing.Stop, error) {
	s := pricing.Stop{AirportCode: strings.TrimSpace(in.AirportCode)}
	switch {
	case in.Lat != nil && in.Lng != nil:
		s.Point = types.Point{Lat: *in.Lat, Lng: *in.Lng}
	case strings.TrimSpace(in.Address) != "":
		if p.geocoder == nil {
			return pricing.Stop{}, fmt.Errorf("%w: address lookup is not available", errBadInput)
		}
		pt, err := p.geocoder.Geocode(ctx, in.Address)
		if errors.Is(err, maps.ErrAddressNotFound) {
			return pricing.Stop{}, err
		}
		if err != nil {
			return pricing.Stop{}, fmt.Errorf("%w: %v", errGeocode, err)
		}
		s.Point = pt
	default:
		return pricing.Stop{}, fmt.Errorf("%w: lat/lng or address is required", errBadInput)
	}
	return s, nil
}

// parseScheduledAt accepts RFC 3339, or a wall-clock time without offset read
// in the service zone. The result is always expressed in the service zone so
// surge windows see local time.
func parseScheduledAt(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: scheduled_at is required", errBadInput)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparsable scheduled_at %q", errBadInput, s)
}

// writeTripError handles request-parsing failures before falling back to module errors.
func writeTripError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, errForbidden):
		writeError(c, http.StatusForbidden, "cannot act for another passenger")
	case errors.Is(err, errBadInput), errors.Is(err, maps.ErrAddressNotFound):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, errGeocode):
		logger.WarnContext(c.Request.Context(), "geocoding failed", "error", err)
		writeError(c, http.StatusBadGateway, "address lookup failed")
	default:
		writeServiceError(c, logger, err)
	}
}

type FareHandler struct {
	pricer Pricer
	trips  tripParser
	logger *slog.Logger
}

func NewFareHandler(pricer Pricer, geocoder Geocoder, loc *time.Location, logger *slog.Logger) *FareHandler {
	return &FareHandler{pricer: pricer, trips: tripParser{geocoder: geocoder, loc: loc}, logger: logger}
}

func (h *FareHandler) Quote(c *gin.Context) {
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
	b, err := h.pricer.ComputeFare(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}
