package rates

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercatus/storefront/internal/pricing"
)

func TestTaxTableStateBeatsCountry(t *testing.T) {
	table := NewTaxTable()
	table.Set(1, "US", "", decimal.RequireFromString("0.05"))
	table.Set(1, "US", "CA", decimal.RequireFromString("0.0725"))

	rate, ok, err := table.Rate(context.Background(), 1, "US", "CA")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.0725")))

	rate, ok, err = table.Rate(context.Background(), 1, "US", "NY")
	require.NoError(t, err)
	require.True(t, ok, "unknown state falls back to the country rate")
	assert.True(t, rate.Equal(decimal.RequireFromString("0.05")))
}

func TestTaxTableMissIsNotAnError(t *testing.T) {
	table := NewTaxTable()

	_, ok, err := table.Rate(context.Background(), 1, "DE", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTaxTableNormalizesDestination(t *testing.T) {
	table := NewTaxTable()
	table.Set(1, "us", " ca ", decimal.RequireFromString("0.0725"))

	rate, ok, err := table.Rate(context.Background(), 1, "US", "CA")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.0725")))
}

func TestTaxTableScopedToStore(t *testing.T) {
	table := NewTaxTable()
	table.Set(1, "US", "", decimal.RequireFromString("0.05"))

	_, ok, err := table.Rate(context.Background(), 2, "US", "")
	require.NoError(t, err)
	assert.False(t, ok, "a tenant never sees another tenant's rates")
}

func TestStaticFXSource(t *testing.T) {
	source := NewStaticFXSource(map[string]decimal.Decimal{
		"USD/EUR": decimal.RequireFromString("0.92"),
	})

	rate, err := source.Fetch(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.92")))

	rate, err = source.Fetch(context.Background(), "USD", "USD")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))

	_, err = source.Fetch(context.Background(), "EUR", "USD")
	assert.ErrorIs(t, err, pricing.ErrCurrencyUnsupported, "pairs are directional")
}

func TestCachedFXLookupWithoutRedisFallsThrough(t *testing.T) {
	source := NewStaticFXSource(map[string]decimal.Decimal{
		"USD/JPY": decimal.RequireFromString("147.50"),
	})
	lookup := NewCachedFXLookup(source, nil, time.Minute)

	rate, err := lookup.Rate(context.Background(), "USD", "JPY")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("147.50")))

	_, err = lookup.Rate(context.Background(), "USD", "GBP")
	assert.ErrorIs(t, err, pricing.ErrCurrencyUnsupported)
}
