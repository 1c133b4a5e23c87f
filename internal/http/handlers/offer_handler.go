// README: Offer handlers for generate/get/list, status changes and alternatives.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"loadapp/internal/modules/offer"
	"loadapp/internal/modules/route"
)

type OfferService interface {
	Generate(ctx context.Context, cmd offer.GenerateCommand) (*offer.Offer, error)
	Get(ctx context.Context, id string) (*offer.Offer, error)
	List(ctx context.Context, f offer.Filter) ([]*offer.Offer, error)
	Transition(ctx context.Context, cmd offer.TransitionCommand) (*offer.Offer, error)
	Alternatives(ctx context.Context, id string) ([]offer.Alternative, error)
	Events(ctx context.Context, id string) ([]offer.Event, error)
}

type OfferHandler struct {
	offers OfferService
}

func NewOfferHandler(svc OfferService) *OfferHandler {
	return &OfferHandler{offers: svc}
}

type createOfferReq struct {
	RouteID             string                    `json:"route_id"`
	Margin              *decimal.Decimal          `json:"margin"`
	Cargo               *route.CargoSpecification `json:"cargo"`
	ProceedWithDefaults bool                      `json:"proceed_with_defaults"`
	SkipFunFact         bool                      `json:"skip_fun_fact"`
}

func (h *OfferHandler) Create(c *gin.Context) {
	var req createOfferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if req.RouteID == "" || req.Margin == nil {
		badRequest(c, "route_id and margin are required")
		return
	}
	o, err := h.offers.Generate(c.Request.Context(), offer.GenerateCommand{
		RouteID:             req.RouteID,
		Margin:              *req.Margin,
		Cargo:               req.Cargo,
		ProceedWithDefaults: req.ProceedWithDefaults,
		SkipFunFact:         req.SkipFunFact,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, o)
}

func (h *OfferHandler) Get(c *gin.Context) {
	o, err := h.offers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

func (h *OfferHandler) List(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		badRequest(c, "invalid limit")
		return
	}
	offers, err := h.offers.List(c.Request.Context(), offer.Filter{
		RouteID: c.Query("route_id"),
		Status:  offer.Status(c.Query("status")),
		Limit:   limit,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if offers == nil {
		offers = []*offer.Offer{}
	}
	writeJSON(c, http.StatusOK, gin.H{"offers": offers})
}

type statusReq struct {
	Status offer.Status `json:"status"`
}

func (h *OfferHandler) UpdateStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		badRequest(c, "status is required")
		return
	}
	o, err := h.offers.Transition(c.Request.Context(), offer.TransitionCommand{OfferID: c.Param("id"), To: req.Status})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

func (h *OfferHandler) Alternatives(c *gin.Context) {
	alts, err := h.offers.Alternatives(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"offer_id": c.Param("id"), "alternatives": alts})
}

func (h *OfferHandler) Events(c *gin.Context) {
	events, err := h.offers.Events(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if events == nil {
		events = []offer.Event{}
	}
	writeJSON(c, http.StatusOK, gin.H{"offer_id": c.Param("id"), "events": events})
}
