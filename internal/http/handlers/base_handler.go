// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"loadapp/internal/modules/cost"
	"loadapp/internal/modules/costsettings"
	"loadapp/internal/modules/offer"
	"loadapp/internal/modules/route"
)

type errorResponse struct {
	Error      string   `json:"error"`
	Code       string   `json:"code"`
	Violations []string `json:"violations,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, code, msg string) {
	writeJSON(c, status, errorResponse{Error: msg, Code: code})
}

func badRequest(c *gin.Context, msg string) {
	writeError(c, http.StatusBadRequest, "BAD_REQUEST", msg)
}

// writeDomainError maps error kinds from the modules to HTTP statuses.
func writeDomainError(c *gin.Context, err error) {
	var cfgErr *costsettings.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		writeJSON(c, http.StatusUnprocessableEntity, errorResponse{
			Error:      costsettings.ErrInvalidRateConfiguration.Error(),
			Code:       "INVALID_RATE_CONFIGURATION",
			Violations: cfgErr.Violations,
		})
	case errors.Is(err, offer.ErrBadRequest), errors.Is(err, route.ErrBadRequest):
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, route.ErrInvalidRoute):
		writeError(c, http.StatusBadRequest, "INVALID_ROUTE", err.Error())
	case errors.Is(err, offer.ErrInvalidMargin):
		writeError(c, http.StatusBadRequest, "INVALID_MARGIN", err.Error())
	case errors.Is(err, route.ErrNotFound), errors.Is(err, offer.ErrNotFound), errors.Is(err, costsettings.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, offer.ErrInvalidState), errors.Is(err, offer.ErrConflict), errors.Is(err, costsettings.ErrVersionConflict):
		writeError(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, costsettings.ErrInvalidRateConfiguration):
		writeError(c, http.StatusUnprocessableEntity, "INVALID_RATE_CONFIGURATION", err.Error())
	case errors.Is(err, cost.ErrInvariantViolation):
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "INVARIANT_VIOLATION", "internal error")
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
