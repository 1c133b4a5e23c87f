package costsettings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadapp/internal/testutil/pgtest"
)

func TestStoreAppendOnlyHistory(t *testing.T) {
	db := pgtest.Open(t, "cost_settings_versions")
	store := NewStore(db)
	ctx := context.Background()

	_, err := store.Latest(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	first := New(sampleRates(), Meta{ID: "s1", CreatedAt: at, CreatedBy: "ops"})
	require.NoError(t, store.Append(ctx, first))
	assert.ErrorIs(t, store.Append(ctx, first), ErrVersionConflict)

	changed := sampleRates()
	changed.FuelRates["PL"] = d("1.9")
	second := first.Revise(changed, "pricing", at.Add(time.Minute))
	require.NoError(t, store.Append(ctx, second))

	latest, err := store.Latest(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "1.1", latest.Version().String())
	assert.Equal(t, "pricing", latest.Meta().ModifiedBy)
	rate, found := latest.GetRate(ComponentFuel, "PL", "")
	assert.True(t, found)
	assert.True(t, rate.Equal(d("1.9")))
	assert.Equal(t, first.Enabled(), latest.Enabled())

	history, err := store.History(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "1.0", history[1].Version().String())
	rate, _ = history[1].GetRate(ComponentFuel, "PL", "")
	assert.True(t, rate.Equal(d("1.5")))
}
