// README: Passenger profile and credit handlers.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"luxride/internal/http/middleware"
	"luxride/internal/modules/passenger"
	"luxride/internal/modules/pricing"
	"luxride/internal/types"
)

type PassengerService interface {
	Profile(ctx context.Context, id types.ID) (*passenger.Profile, error)
	SetProfile(ctx context.Context, p passenger.Profile) (*passenger.Profile, error)
	Balance(ctx context.Context, id types.ID) (types.Cents, error)
	GrantCredit(ctx context.Context, id types.ID, amount types.Cents, reference string) (*passenger.Credit, error)
}

type PassengerHandler struct {
	passengers PassengerService
	logger     *slog.Logger
}

func NewPassengerHandler(passengers PassengerService, logger *slog.Logger) *PassengerHandler {
	return &PassengerHandler{passengers: passengers, logger: logger}
}

type profileReq struct {
	DisplayName   string  `json:"display_name"`
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
}

type grantReq struct {
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
}

type creditView struct {
	PassengerID types.ID    `json:"passenger_id"`
	Balance     types.Cents `json:"balance"`
}

func (h *PassengerHandler) GetProfile(c *gin.Context) {
	id, ok := h.selfOrStaff(c)
	if !ok {
		return
	}
	p, err := h.passengers.Profile(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *PassengerHandler) PutProfile(c *gin.Context) {
	id, ok := pathPassenger(c)
	if !ok {
		return
	}
	var in profileReq
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.passengers.SetProfile(c.Request.Context(), passenger.Profile{
		PassengerID:   id,
		DisplayName:   in.DisplayName,
		DiscountType:  pricing.DiscountType(in.DiscountType),
		DiscountValue: in.DiscountValue,
	})
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *PassengerHandler) GetCredit(c *gin.Context) {
	id, ok := h.selfOrStaff(c)
	if !ok {
		return
	}
	bal, err := h.passengers.Balance(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusOK, creditView{PassengerID: id, Balance: bal})
}

func (h *PassengerHandler) GrantCredit(c *gin.Context) {
	id, ok := pathPassenger(c)
	if !ok {
		return
	}
	var in grantReq
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	credit, err := h.passengers.GrantCredit(c.Request.Context(), id, types.FromFloat(in.Amount), in.Reference)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusOK, creditView{PassengerID: credit.PassengerID, Balance: credit.Balance})
}

func pathPassenger(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid passenger id")
		return "", false
	}
	return types.ID(id), true
}

func (h *PassengerHandler) selfOrStaff(c *gin.Context) (types.ID, bool) {
	id, ok := pathPassenger(c)
	if !ok {
		return "", false
	}
	if string(id) != middleware.CallerUID(c) && !middleware.IsStaff(c) {
		writeError(c, http.StatusForbidden, "forbidden")
		return "", false
	}
	return id, true
}
