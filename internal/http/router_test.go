package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadapp/internal/maps"
	"loadapp/internal/modules/costsettings"
	"loadapp/internal/modules/offer"
	"loadapp/internal/modules/route"
)

func buildTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	emptyLeg := route.EmptyDriving{DistanceKm: decimal.NewFromInt(200), DurationHours: decimal.NewFromInt(4)}
	routes := route.NewService(route.NewMemoryStore(), maps.MockProvider{}, emptyLeg, nil)
	settings := costsettings.NewService(costsettings.NewMemoryStore(), costsettings.DefaultRates(), nil)
	offers := offer.NewService(offer.NewMemoryStore(), routes, settings, nil)
	return NewRouter(RouterDeps{Routes: routes, Costs: offers, Offers: offers, Settings: settings})
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func planWarsawBerlin(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/api/routes", map[string]any{
		"origin":      map[string]any{"address": "Warsaw", "country_code": "PL"},
		"destination": map[string]any{"address": "Berlin", "country_code": "DE"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealth(t *testing.T) {
	w := doRequest(buildTestRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestRouteAndCosts(t *testing.T) {
	r := buildTestRouter(t)
	id := planWarsawBerlin(t, r)

	w := doRequest(r, http.MethodGet, "/api/routes/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	segments := decode(t, w)["segments"].([]any)
	assert.Len(t, segments, 3)

	w = doRequest(r, http.MethodPost, "/api/routes/"+id+"/costs", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	breakdown := decode(t, w)["breakdown"].(map[string]any)
	assert.Equal(t, "832.80", breakdown["total"])
	assert.Equal(t, "EUR", breakdown["currency"])
	assert.Equal(t, "282.80", breakdown["by_type"].(map[string]any)["fuel"])
	assert.Equal(t, "239.60", breakdown["by_country"].(map[string]any)["DE"])

	w = doRequest(r, http.MethodGet, "/api/routes/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodPost, "/api/routes", map[string]any{"origin": map[string]any{"address": ""}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOfferLifecycle(t *testing.T) {
	r := buildTestRouter(t)
	routeID := planWarsawBerlin(t, r)

	w := doRequest(r, http.MethodPost, "/api/offers", map[string]any{"route_id": routeID, "margin": "0.15"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "draft", created["status"])
	assert.Equal(t, "832.8", created["total_cost"])
	assert.Equal(t, "832.80", created["cost_breakdown"].(map[string]any)["total"])
	assert.Equal(t, "957.72", created["final_price"])
	offerID := created["id"].(string)

	w = doRequest(r, http.MethodGet, "/api/offers/"+offerID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/offers?route_id="+routeID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["offers"].([]any), 1)

	w = doRequest(r, http.MethodGet, "/api/offers/"+offerID+"/alternatives", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["alternatives"].([]any), 3)

	w = doRequest(r, http.MethodPost, "/api/offers/"+offerID+"/status", map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "active", decode(t, w)["status"])

	w = doRequest(r, http.MethodPost, "/api/offers/"+offerID+"/status", map[string]any{"status": "draft"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(r, http.MethodGet, "/api/offers/"+offerID+"/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["events"].([]any), 2)
}

func TestOfferValidation(t *testing.T) {
	r := buildTestRouter(t)
	routeID := planWarsawBerlin(t, r)

	tests := []struct {
		name string
		body map[string]any
		code int
		want string
	}{
		{"margin above one", map[string]any{"route_id": routeID, "margin": "1.5"}, http.StatusBadRequest, "INVALID_MARGIN"},
		{"missing margin", map[string]any{"route_id": routeID}, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown route", map[string]any{"route_id": "nope", "margin": "0.1"}, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/offers", tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.want, decode(t, w)["code"])
		})
	}

	w := doRequest(r, http.MethodGet, "/api/offers?status=sold", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(r, http.MethodGet, "/api/offers?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	r := buildTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.0", decode(t, w)["version"])

	bad := map[string]any{
		"fuel_rates":         map[string]any{"PL": "-1"},
		"enabled_components": []string{"fuel"},
	}
	w = doRequest(r, http.MethodPost, "/api/settings/validate", bad)
	require.Equal(t, http.StatusOK, w.Code)
	validation := decode(t, w)
	assert.Equal(t, false, validation["valid"])
	assert.NotEmpty(t, validation["violations"])

	w = doRequest(r, http.MethodPut, "/api/settings", map[string]any{"rates": bad, "modified_by": "ops"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	rejected := decode(t, w)
	assert.Equal(t, "INVALID_RATE_CONFIGURATION", rejected["code"])
	assert.NotEmpty(t, rejected["violations"])

	good := map[string]any{
		"fuel_rates":         map[string]any{"PL": "1.45"},
		"enabled_components": []string{"fuel", "toll", "driver"},
	}
	w = doRequest(r, http.MethodPut, "/api/settings", map[string]any{"rates": good, "modified_by": "ops"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stored := decode(t, w)["settings"].(map[string]any)
	assert.Equal(t, "1.0", stored["version"])

	w = doRequest(r, http.MethodPut, "/api/settings", map[string]any{"rates": good, "modified_by": "ops"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.1", decode(t, w)["settings"].(map[string]any)["version"])

	w = doRequest(r, http.MethodGet, "/api/settings/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["versions"].([]any), 2)
}

func TestPartialRatesKeepEmptyLegFactors(t *testing.T) {
	r := buildTestRouter(t)
	routeID := planWarsawBerlin(t, r)

	raw, err := json.Marshal(costsettings.DefaultRates())
	require.NoError(t, err)
	var rates map[string]any
	require.NoError(t, json.Unmarshal(raw, &rates))
	delete(rates, "cargo_rates")
	delete(rates, "empty_driving_factors")

	w := doRequest(r, http.MethodPut, "/api/settings", map[string]any{"route_id": routeID, "rates": rates, "modified_by": "ops"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	factors := decode(t, w)["settings"].(map[string]any)["empty_driving_factors"].(map[string]any)
	assert.Equal(t, "0.8", factors["fuel"])

	w = doRequest(r, http.MethodPost, "/api/routes/"+routeID+"/costs", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "832.80", decode(t, w)["breakdown"].(map[string]any)["total"])
}

func TestNegativeCargoIsBadRequest(t *testing.T) {
	r := buildTestRouter(t)
	routeID := planWarsawBerlin(t, r)

	w := doRequest(r, http.MethodPost, "/api/routes/"+routeID+"/costs", map[string]any{"cargo": map[string]any{"weight_kg": "-5000"}})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "BAD_REQUEST", decode(t, w)["code"])

	w = doRequest(r, http.MethodPost, "/api/offers", map[string]any{"route_id": routeID, "margin": "0.15", "cargo": map[string]any{"volume_m3": "-2"}})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "BAD_REQUEST", decode(t, w)["code"])
}

func TestNoRoute(t *testing.T) {
	w := doRequest(buildTestRouter(t), http.MethodGet, "/api/nothing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
