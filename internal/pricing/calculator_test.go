package pricing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercatus/storefront/internal/pricing"
	"github.com/mercatus/storefront/internal/pricing/domain"
	"github.com/mercatus/storefront/internal/pricing/rates"
	storedomain "github.com/mercatus/storefront/internal/store/domain"
)

type stubDiscounts struct{ discounts map[string]*domain.Discount }

func (s *stubDiscounts) Create(_ context.Context, _ *domain.Discount) error { return nil }

func (s *stubDiscounts) FindByCode(_ context.Context, storeID uint, code string) (*domain.Discount, error) {
	d, ok := s.discounts[code]
	if !ok || d.StoreID != storeID {
		return nil, domain.ErrDiscountInvalid
	}
	return d, nil
}

func (s *stubDiscounts) FindByStore(_ context.Context, _ uint, _, _ int) ([]domain.Discount, error) {
	return nil, nil
}

func (s *stubDiscounts) IncrementUses(_ context.Context, _ uint) error { return nil }

type stubGiftCards struct{ cards map[string]*domain.GiftCard }

func (s *stubGiftCards) Create(_ context.Context, _ *domain.GiftCard) error { return nil }

func (s *stubGiftCards) FindByCode(_ context.Context, storeID uint, code string) (*domain.GiftCard, error) {
	c, ok := s.cards[code]
	if !ok || c.StoreID != storeID {
		return nil, domain.ErrGiftCardInvalid
	}
	return c, nil
}

func (s *stubGiftCards) Debit(_ context.Context, _ uint, _ decimal.Decimal) error  { return nil }
func (s *stubGiftCards) Credit(_ context.Context, _ uint, _ decimal.Decimal) error { return nil }

type calcEnv struct {
	store     *storedomain.Store
	discounts *stubDiscounts
	giftCards *stubGiftCards
	taxes     *rates.TaxTable
	calc      *pricing.Calculator
}

func newCalcEnv(t *testing.T, fxPairs map[string]decimal.Decimal) *calcEnv {
	t.Helper()

	env := &calcEnv{
		store: &storedomain.Store{
			ID:       1,
			Name:     "Acme Outfitters",
			Slug:     "acme",
			Currency: "USD",
		},
		discounts: &stubDiscounts{discounts: make(map[string]*domain.Discount)},
		giftCards: &stubGiftCards{cards: make(map[string]*domain.GiftCard)},
		taxes:     rates.NewTaxTable(),
	}

	fx := rates.NewCachedFXLookup(rates.NewStaticFXSource(fxPairs), nil, time.Minute)
	env.calc = pricing.NewCalculator(env.discounts, env.giftCards, env.taxes, fx)
	return env
}

func lines(price string, qty int) []pricing.LineItem {
	return []pricing.LineItem{{VariantID: 1, SKU: "SKU-1", UnitPrice: decimal.RequireFromString(price), Quantity: qty}}
}

func strptr(s string) *string { return &s }

func TestQuoteSubtotalOnly(t *testing.T) {
	env := newCalcEnv(t, nil)

	breakdown, err := env.calc.Quote(context.Background(), pricing.QuoteInput{
		Store:   env.store,
		Lines:   lines("19.99", 3),
		Country: "US",
	})
	require.NoError(t, err)

	assert.True(t, breakdown.Total.Equal(decimal.RequireFromString("59.97")), "got %s", breakdown.Total)
	assert.True(t, breakdown.TaxAmount.IsZero(), "no configured rate means no tax")
	assert.Equal(t, "USD", breakdown.Currency)
}

func TestQuotePercentageDiscount(t *testing.T) {
	env := newCalcEnv(t, nil)
	env.discounts.discounts["SAVE10"] = &domain.Discount{
		ID: 1, StoreID: 1, Code: "SAVE10",
		Type: domain.DiscountPercentage, Value: decimal.NewFromInt(10),
	}

	breakdown, err := env.calc.Quote(context.Background(), pricing.QuoteInput{
		Store:        env.store,
		Lines:        lines("100.00", 1),
		DiscountCode: strptr("SAVE10"),
		Country:      "US",
	})
	require.NoError(t, err)

	assert.True(t, breakdown.DiscountAmount.Equal(decimal.NewFromInt(10)))
	assert.True(t, breakdown.Total.Equal(decimal.NewFromInt(90)))
	require.NotNil(t, breakdown.Discount)
	assert.Equal(t, uint(1), breakdown.Discount.ID)
}

func TestQuoteFixedDiscountCappedAtSubtotal(t *testing.T) {
	env := newCalcEnv(t, nil)
	env.discounts.discounts["BIG"] = &domain.Discount{
		ID: 1, StoreID: 1, Code: "BIG",
		Type: domain.DiscountFixedAmount, Value: decimal.NewFromInt(50),
	}

	breakdown, err := env.calc.Quote(context.Background(), pricing.QuoteInput{
		Store:        env.store,
		Lines:        lines("30.00", 1),
		DiscountCode: strptr("BIG"),
		Country:      "US",
	})
	require.NoError(t, err)

	assert.True(t, breakdown.DiscountAmount.Equal(decimal.NewFromInt(30)))
	assert.True(t, breakdown.Total.IsZero())
}

func TestQuoteTaxOnDiscountedSubtotalShippingUntaxed(t *testing.T) {
	env := newCalcEnv(t, nil)
	env.store.ShippingFlatFee = decimal.RequireFromString("5.00")
	env.taxes.Set(1, "US", "CA", decimal.RequireFromString("0.10"))
	env.discounts.discounts["SAVE20"] = &domain.Discount{
		ID: 1, StoreID: 1, Code: "SAVE20",
		Type: domain.DiscountPercentage, Value: decimal.NewFromInt(20),
	}

	breakdown, err := env.calc.Quote(context.Background(), pricing.QuoteInput{
		Store:        env.store,
		Lines:        lines("100.00", 1),
		DiscountCode: strptr("SAVE20"),
		Country:      "US",
		State:        "CA",
	})
	require.NoError(t, err)

	// tax is 10% of (100 - 20); the 5.00 shipping fee is not taxed
	assert.True(t, breakdown.TaxAmount.Equal(decimal.NewFromInt(8)), "got %s", breakdown.TaxAmount)
	assert.True(t, breakdown.Total.Equal(decimal.NewFromInt(93)), "got %s", breakdown.Total)
}

func TestQuoteGiftCardAppliedAfterTax(t *testing.T) {
	env := newCalcEnv(t, nil)
	env.taxes.Set(1, "US", "", decimal.RequireFromString("0.10"))
	env.giftCards.cards["GIFT"] = &domain.GiftCard{
		ID: 1, StoreID: 1, Code: "GIFT",
		InitialBalance: decimal.NewFromInt(20),
		CurrentBalance: decimal.NewFromInt(20),
		Status:         domain.GiftCardActive,
	}

	breakdown, err := env.calc.Quote(context.Background(), pricing.QuoteInput{
		Store:        env.store,
		Lines:        lines("50.00", 1),
		GiftCardCode: strptr("GIFT"),
		Country:      "US",
	})
	require.NoError(t, err)

	// 50 + 5 tax - 20 gift card
	assert.True(t, breakdown.GiftCardApplied.Equal(decimal.NewFromInt(20)))
	assert.True(t, breakdown.Total.Equal(decimal.NewFromInt(35)), "got %s", breakdown.Total)
}

func TestQuoteGiftCardNeverDrivesTotalNegative(t *testing.T) {
	env := newCalcEnv(t, nil)
	env.giftCards.cards["GIFT"] = &domain.GiftCard{
		ID: 1, StoreID: 1, Code: "GIFT",
		InitialBalance: decimal.NewFromInt(100),
		CurrentBalance: decimal.NewFromInt(100),
		Status:         domain.GiftCardActive,
	}

	breakdown, err := env.calc.Quote(context.Background(), pricing.QuoteInput{
		Store:        env.store,
		Lines:        lines("30.00", 1),
		GiftCardCode: strptr("GIFT"),
		Country:      "US",
	})
	require.NoError(t, err)

	assert.True(t, breakdown.GiftCardApplied.Equal(decimal.NewFromInt(30)), "applied amount is capped at the total")
	assert.True(t, breakdown.Total.IsZero())
}

func TestQuoteDiscountGating(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	maxUses := 5
	minimum := decimal.NewFromInt(100)

	tests := []struct {
		name     string
		discount *domain.Discount
	}{
		{"expired", &domain.Discount{
			StoreID: 1, Code: "X", Type: domain.DiscountPercentage,
			Value: decimal.NewFromInt(10), ExpiresAt: &past,
		}},
		{"not yet started", &domain.Discount{
			StoreID: 1, Code: "X", Type: domain.DiscountPercentage,
			Value: decimal.NewFromInt(10), StartsAt: &future,
		}},
		{"exhausted", &domain.Discount{
			StoreID: 1, Code: "X", Type: domain.DiscountPercentage,
			Value: decimal.NewFromInt(10), MaxUses: &maxUses, CurrentUses: 5,
		}},
		{"below minimum order", &domain.Discount{
			StoreID: 1, Code: "X", Type: domain.DiscountPercentage,
			Value: decimal.NewFromInt(10), MinimumOrderAmount: &minimum,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCalcEnv(t, nil)
			env.discounts.discounts["X"] = tt.discount

			_, err := env.calc.Quote(context.Background(), pricing.QuoteInput{
				Store:        env.store,
				Lines:        lines("50.00", 1),
				DiscountCode: strptr("X"),
				Country:      "US",
			})
			assert.ErrorIs(t, err, domain.ErrDiscountInvalid)
		})
	}
}

func TestQuoteGiftCardGating(t *testing.T) {
	tests := []struct {
		name string
		card *domain.GiftCard
	}{
		{"disabled", &domain.GiftCard{
			StoreID: 1, Code: "G", Status: domain.GiftCardDisabled,
			CurrentBalance: decimal.NewFromInt(10),
		}},
		{"empty", &domain.GiftCard{
			StoreID: 1, Code: "G", Status: domain.GiftCardActive,
			CurrentBalance: decimal.Zero,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCalcEnv(t, nil)
			env.giftCards.cards["G"] = tt.card

			_, err := env.calc.Quote(context.Background(), pricing.QuoteInput{
				Store:        env.store,
				Lines:        lines("50.00", 1),
				GiftCardCode: strptr("G"),
				Country:      "US",
			})
			assert.ErrorIs(t, err, domain.ErrGiftCardInvalid)
		})
	}
}

func TestQuoteConvertsOnceAtEnd(t *testing.T) {
	env := newCalcEnv(t, map[string]decimal.Decimal{
		"USD/JPY": decimal.RequireFromString("147.335"),
	})

	breakdown, err := env.calc.Quote(context.Background(), pricing.QuoteInput{
		Store:          env.store,
		Lines:          lines("10.01", 3),
		TargetCurrency: strptr("JPY"),
		Country:        "JP",
	})
	require.NoError(t, err)

	// 30.03 * 147.335 = 4424.470... rounded to yen with no minor unit
	assert.True(t, breakdown.Total.Equal(decimal.NewFromInt(4424)), "got %s", breakdown.Total)
	assert.Equal(t, "JPY", breakdown.Currency)
	assert.True(t, breakdown.Subtotal.Equal(decimal.RequireFromString("30.03")), "components stay in the base currency")
}

func TestQuoteTargetCurrencyEqualsBase(t *testing.T) {
	env := newCalcEnv(t, nil)

	breakdown, err := env.calc.Quote(context.Background(), pricing.QuoteInput{
		Store:          env.store,
		Lines:          lines("25.00", 1),
		TargetCurrency: strptr("USD"),
		Country:        "US",
	})
	require.NoError(t, err)

	assert.True(t, breakdown.Total.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, "USD", breakdown.Currency)
}

func TestQuoteUnsupportedCurrency(t *testing.T) {
	env := newCalcEnv(t, map[string]decimal.Decimal{
		"USD/EUR": decimal.RequireFromString("0.92"),
	})

	_, err := env.calc.Quote(context.Background(), pricing.QuoteInput{
		Store:          env.store,
		Lines:          lines("25.00", 1),
		TargetCurrency: strptr("XAU"),
		Country:        "US",
	})
	assert.ErrorIs(t, err, pricing.ErrCurrencyUnsupported)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int32(0), pricing.MinorUnits("JPY"))
	assert.Equal(t, int32(0), pricing.MinorUnits("KRW"))
	assert.Equal(t, int32(2), pricing.MinorUnits("USD"))
	assert.Equal(t, int32(2), pricing.MinorUnits("EUR"))
}
