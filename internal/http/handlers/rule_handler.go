// README: Admin handlers for the pricing rule catalog.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"luxride/internal/modules/pricing"
)

type CatalogManager interface {
	Catalog() *pricing.Catalog
	Save(ctx context.Context, r pricing.Rule) (pricing.Rule, error)
	Reload(ctx context.Context) error
}

type RuleHandler struct {
	catalog CatalogManager
	logger  *slog.Logger
}

func NewRuleHandler(catalog CatalogManager, logger *slog.Logger) *RuleHandler {
	return &RuleHandler{catalog: catalog, logger: logger}
}

type ruleFault struct {
	RuleID int64  `json:"rule_id"`
	Error  string `json:"error"`
}

type catalogView struct {
	LoadedAt string         `json:"loaded_at"`
	Rules    []pricing.Rule `json:"rules"`
	Faults   []ruleFault    `json:"faults"`
}

func (h *RuleHandler) List(c *gin.Context) {
	writeJSON(c, http.StatusOK, viewOf(h.catalog.Catalog()))
}

func (h *RuleHandler) Create(c *gin.Context) {
	var r pricing.Rule
	if err := c.ShouldBindJSON(&r); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r.ID = 0
	h.save(c, r, http.StatusCreated)
}

func (h *RuleHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "invalid rule id")
		return
	}
	var r pricing.Rule
	if err := c.ShouldBindJSON(&r); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r.ID = id
	h.save(c, r, http.StatusOK)
}

func (h *RuleHandler) Reload(c *gin.Context) {
	if err := h.catalog.Reload(c.Request.Context()); err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusOK, viewOf(h.catalog.Catalog()))
}

func (h *RuleHandler) save(c *gin.Context, r pricing.Rule, status int) {
	saved, err := h.catalog.Save(c.Request.Context(), r)
	if errors.Is(err, pricing.ErrConfiguration) {
		// A rejected draft is bad input, not a live-catalog fault.
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	writeJSON(c, status, saved)
}

func viewOf(cat *pricing.Catalog) catalogView {
	v := catalogView{LoadedAt: cat.LoadedAt().UTC().Format("2006-01-02T15:04:05Z07:00"), Rules: cat.Rules(), Faults: []ruleFault{}}
	for id, err := range cat.Faults() {
		v.Faults = append(v.Faults, ruleFault{RuleID: id, Error: err.Error()})
	}
	sort.Slice(v.Faults, func(i, j int) bool { return v.Faults[i].RuleID < v.Faults[j].RuleID })
	return v
}
