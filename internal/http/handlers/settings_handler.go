// README: Cost settings handlers: active version, updates, history and dry-run validation.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"loadapp/internal/modules/costsettings"
)

type SettingsService interface {
	Active(ctx context.Context, routeID string) (costsettings.CostSettings, error)
	Update(ctx context.Context, cmd costsettings.UpdateCommand) (costsettings.CostSettings, []string, error)
	History(ctx context.Context, routeID string, limit int) ([]costsettings.CostSettings, error)
	Validate(r costsettings.Rates) []string
}

type SettingsHandler struct {
	settings SettingsService
}

func NewSettingsHandler(svc SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: svc}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	cs, err := h.settings.Active(c.Request.Context(), c.Query("route_id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cs)
}

type updateSettingsReq struct {
	RouteID         string             `json:"route_id"`
	ModifiedBy      string             `json:"modified_by"`
	AllowViolations bool               `json:"allow_violations"`
	Rates           costsettings.Rates `json:"rates"`
}

type updateSettingsResp struct {
	Settings   costsettings.CostSettings `json:"settings"`
	Violations []string                  `json:"violations,omitempty"`
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	cs, violations, err := h.settings.Update(c.Request.Context(), costsettings.UpdateCommand{
		RouteID:         req.RouteID,
		Rates:           req.Rates,
		ModifiedBy:      req.ModifiedBy,
		AllowViolations: req.AllowViolations,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, updateSettingsResp{Settings: cs, Violations: violations})
}

func (h *SettingsHandler) History(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		badRequest(c, "invalid limit")
		return
	}
	versions, err := h.settings.History(c.Request.Context(), c.Query("route_id"), limit)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if versions == nil {
		versions = []costsettings.CostSettings{}
	}
	writeJSON(c, http.StatusOK, gin.H{"versions": versions})
}

func (h *SettingsHandler) Validate(c *gin.Context) {
	var rates costsettings.Rates
	if err := c.ShouldBindJSON(&rates); err != nil {
		badRequest(c, "invalid json")
		return
	}
	violations := h.settings.Validate(rates)
	if violations == nil {
		violations = []string{}
	}
	writeJSON(c, http.StatusOK, gin.H{"valid": len(violations) == 0, "violations": violations})
}
