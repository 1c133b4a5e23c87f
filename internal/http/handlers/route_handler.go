// README: Route handlers for plan/get and cost estimates.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"loadapp/internal/modules/cost"
	"loadapp/internal/modules/offer"
	"loadapp/internal/modules/route"
)

type RoutePlanner interface {
	Plan(ctx context.Context, cmd route.PlanCommand) (*route.Route, error)
	Get(ctx context.Context, id string) (*route.Route, error)
}

type CostEstimator interface {
	Estimate(ctx context.Context, cmd offer.EstimateCommand) (cost.Breakdown, []string, error)
}

type RouteHandler struct {
	routes RoutePlanner
	costs  CostEstimator
}

func NewRouteHandler(routes RoutePlanner, costs CostEstimator) *RouteHandler {
	return &RouteHandler{routes: routes, costs: costs}
}

type planRouteReq struct {
	Origin        route.Location            `json:"origin"`
	Destination   route.Location            `json:"destination"`
	PickupTime    time.Time                 `json:"pickup_time"`
	DeliveryTime  time.Time                 `json:"delivery_time"`
	TransportType string                    `json:"transport_type"`
	Cargo         *route.CargoSpecification `json:"cargo"`
}

func (h *RouteHandler) Create(c *gin.Context) {
	var req planRouteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	r, err := h.routes.Plan(c.Request.Context(), route.PlanCommand{
		Origin:        req.Origin,
		Destination:   req.Destination,
		PickupTime:    req.PickupTime,
		DeliveryTime:  req.DeliveryTime,
		TransportType: req.TransportType,
		Cargo:         req.Cargo,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, r)
}

func (h *RouteHandler) Get(c *gin.Context) {
	r, err := h.routes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

type estimateReq struct {
	Cargo               *route.CargoSpecification `json:"cargo"`
	ProceedWithDefaults bool                      `json:"proceed_with_defaults"`
}

type estimateResp struct {
	RouteID            string         `json:"route_id"`
	Breakdown          cost.Breakdown `json:"breakdown"`
	SettingsViolations []string       `json:"settings_violations,omitempty"`
}

// Estimate prices a route's costs without creating an offer. An empty body is allowed.
func (h *RouteHandler) Estimate(c *gin.Context) {
	var req estimateReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid json")
		return
	}
	id := c.Param("id")
	b, violations, err := h.costs.Estimate(c.Request.Context(), offer.EstimateCommand{
		RouteID:             id,
		Cargo:               req.Cargo,
		ProceedWithDefaults: req.ProceedWithDefaults,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, estimateResp{RouteID: id, Breakdown: b, SettingsViolations: violations})
}
