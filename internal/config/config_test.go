package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LOADAPP_HTTP_ADDR", "")
	t.Setenv("LOADAPP_EMPTY_DRIVING_KM", "")
	t.Setenv("LOADAPP_CORS_ORIGINS", "")
	t.Setenv("LOADAPP_STORAGE", "")
	t.Setenv("LOADAPP_AMQP_EXCHANGE", "")
	t.Setenv("LOADAPP_OFFER_EXPIRY_INTERVAL_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 200.0, cfg.EmptyDriving.DistanceKm)
	assert.Equal(t, 4.0, cfg.EmptyDriving.DurationHours)
	assert.Equal(t, 5, cfg.FunFact.TimeoutSeconds)
	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, "loadapp.offers", cfg.AMQP.Exchange)
	assert.Equal(t, 60, cfg.Offers.ExpiryIntervalSeconds)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOADAPP_HTTP_ADDR", ":9090")
	t.Setenv("LOADAPP_EMPTY_DRIVING_KM", "150.5")
	t.Setenv("LOADAPP_FUN_FACT_DAILY_BUDGET", "not-a-number")
	t.Setenv("LOADAPP_CORS_ORIGINS", "http://localhost:3000, https://dash.example.com ,")
	t.Setenv("LOADAPP_STORAGE", "Memory")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 150.5, cfg.EmptyDriving.DistanceKm)
	assert.Equal(t, 500, cfg.FunFact.DailyBudget, "invalid ints fall back to the default")
	assert.Equal(t, []string{"http://localhost:3000", "https://dash.example.com"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "sk-test", cfg.AI.OpenAIKey)
}
