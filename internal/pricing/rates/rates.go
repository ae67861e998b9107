package rates

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/mercatus/storefront/internal/pricing"
	"github.com/mercatus/storefront/pkg/logger"
)

// TaxRule keys a tax rate by destination; State may be empty for a
// country-wide rate.
type TaxRule struct {
	StoreID uint
	Country string
	State   string
}

// TaxTable is an in-memory tax rate table loaded from the store-owner
// configuration collaborator. Absence of a rule means no tax is charged.
type TaxTable struct {
	mu    sync.RWMutex
	rules map[TaxRule]decimal.Decimal
}

// NewTaxTable creates an empty tax table
func NewTaxTable() *TaxTable {
	return &TaxTable{rules: make(map[TaxRule]decimal.Decimal)}
}

// Set registers a rate for a destination
func (t *TaxTable) Set(storeID uint, country, state string, rate decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules[TaxRule{StoreID: storeID, Country: normalize(country), State: normalize(state)}] = rate
}

// Rate looks up the most specific configured rate: (country, state) first,
// then country-wide. A miss is not an error.
func (t *TaxTable) Rate(_ context.Context, storeID uint, country, state string) (decimal.Decimal, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if rate, ok := t.rules[TaxRule{StoreID: storeID, Country: normalize(country), State: normalize(state)}]; ok {
		return rate, true, nil
	}
	if rate, ok := t.rules[TaxRule{StoreID: storeID, Country: normalize(country)}]; ok {
		return rate, true, nil
	}
	return decimal.Zero, false, nil
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// FXSource fetches a raw conversion rate from the external FX collaborator
type FXSource interface {
	Fetch(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// StaticFXSource serves rates from a fixed map, used for development and as
// the fallback when no provider is configured.
type StaticFXSource struct {
	rates map[string]decimal.Decimal
}

// NewStaticFXSource creates a source from pair keys like "USD/JPY"
func NewStaticFXSource(rates map[string]decimal.Decimal) *StaticFXSource {
	return &StaticFXSource{rates: rates}
}

func (s *StaticFXSource) Fetch(_ context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if rate, ok := s.rates[from+"/"+to]; ok {
		return rate, nil
	}
	return decimal.Zero, pricing.ErrCurrencyUnsupported
}

// CachedFXLookup caches FX rates in Redis with a TTL so the pricing path
// does not hit the external provider on every quote.
type CachedFXLookup struct {
	source FXSource
	client *redis.Client
	ttl    time.Duration
}

// NewCachedFXLookup creates a caching FX lookup
func NewCachedFXLookup(source FXSource, client *redis.Client, ttl time.Duration) *CachedFXLookup {
	return &CachedFXLookup{source: source, client: client, ttl: ttl}
}

// Rate returns the cached rate when present, otherwise fetches and caches
// it. Cache failures fall through to the source.
func (c *CachedFXLookup) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	key := fmt.Sprintf("fx:%s:%s", from, to)

	if c.client != nil {
		cached, err := c.client.Get(ctx, key).Result()
		if err == nil {
			rate, parseErr := decimal.NewFromString(cached)
			if parseErr == nil {
				return rate, nil
			}
		}
	}

	rate, err := c.source.Fetch(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	if c.client != nil {
		if err := c.client.Set(ctx, key, rate.String(), c.ttl).Err(); err != nil {
			logger.Warn(ctx).
				Err(err).
				Str("pair", from+"/"+to).
				Msg("Failed to cache FX rate")
		}
	}

	return rate, nil
}
