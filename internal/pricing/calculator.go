package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercatus/storefront/internal/pricing/domain"
	storedomain "github.com/mercatus/storefront/internal/store/domain"
)

// ErrCurrencyUnsupported is returned when no FX rate exists for the
// requested target currency.
var ErrCurrencyUnsupported = errors.New("currency unsupported")

// TaxRateLookup resolves the tax rate for a shipping destination. The bool
// is false when no rate is configured, which is a valid "no tax" state.
type TaxRateLookup interface {
	Rate(ctx context.Context, storeID uint, country, state string) (decimal.Decimal, bool, error)
}

// FXRateLookup resolves the conversion rate between two currencies
type FXRateLookup interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// LineItem is one cart line with its unit price already resolved in the
// store's base currency.
type LineItem struct {
	VariantID uint
	SKU       string
	UnitPrice decimal.Decimal
	Quantity  int
}

// QuoteInput carries everything a quote depends on
type QuoteInput struct {
	Store          *storedomain.Store
	Lines          []LineItem
	DiscountCode   *string
	GiftCardCode   *string
	TargetCurrency *string
	Country        string
	State          string
}

// Breakdown is the priced result of a quote. Component amounts are in the
// store's base currency; Total is in Currency, converted once at the end.
type Breakdown struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount"`
	GiftCardApplied decimal.Decimal `json:"gift_card_applied"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`

	// Applied lookups, carried so the checkout transaction can charge them
	Discount *domain.Discount `json:"-"`
	GiftCard *domain.GiftCard `json:"-"`
}

// Calculator computes checkout pricing. It has no side effects: discount and
// gift card records are read and validated here, charged by the caller.
type Calculator struct {
	discounts domain.DiscountRepository
	giftCards domain.GiftCardRepository
	taxRates  TaxRateLookup
	fxRates   FXRateLookup
	now       func() time.Time
}

// NewCalculator creates a new pricing calculator
func NewCalculator(
	discounts domain.DiscountRepository,
	giftCards domain.GiftCardRepository,
	taxRates TaxRateLookup,
	fxRates FXRateLookup,
) *Calculator {
	return &Calculator{
		discounts: discounts,
		giftCards: giftCards,
		taxRates:  taxRates,
		fxRates:   fxRates,
		now:       time.Now,
	}
}

// Quote prices a cart: subtotal, discount, tax on the discounted subtotal,
// flat shipping, gift card offset after tax, then a single end-of-quote
// currency conversion rounded to the target currency's minor units.
func (c *Calculator) Quote(ctx context.Context, input QuoteInput) (*Breakdown, error) {
	subtotal := decimal.Zero
	for _, line := range input.Lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	breakdown := &Breakdown{
		Subtotal:        subtotal,
		DiscountAmount:  decimal.Zero,
		TaxAmount:       decimal.Zero,
		ShippingAmount:  input.Store.ShippingFlatFee,
		GiftCardApplied: decimal.Zero,
		Currency:        input.Store.Currency,
	}

	if input.DiscountCode != nil {
		discount, err := c.resolveDiscount(ctx, input.Store.ID, *input.DiscountCode, subtotal)
		if err != nil {
			return nil, err
		}
		breakdown.Discount = discount
		breakdown.DiscountAmount = discount.AmountOff(subtotal)
	}

	taxable := subtotal.Sub(breakdown.DiscountAmount)

	rate, ok, err := c.taxRates.Rate(ctx, input.Store.ID, input.Country, input.State)
	if err != nil {
		return nil, fmt.Errorf("tax rate lookup failed: %w", err)
	}
	if ok {
		breakdown.TaxAmount = taxable.Mul(rate)
	}

	total := taxable.Add(breakdown.TaxAmount).Add(breakdown.ShippingAmount)

	if input.GiftCardCode != nil {
		card, err := c.resolveGiftCard(ctx, input.Store.ID, *input.GiftCardCode)
		if err != nil {
			return nil, err
		}
		breakdown.GiftCard = card

		// Applied after tax as a payment offset, never below zero
		applied := card.CurrentBalance
		if applied.GreaterThan(total) {
			applied = total
		}
		breakdown.GiftCardApplied = applied
		total = total.Sub(applied)
	}

	breakdown.Total = total

	if input.TargetCurrency != nil && *input.TargetCurrency != input.Store.Currency {
		fxRate, err := c.fxRates.Rate(ctx, input.Store.Currency, *input.TargetCurrency)
		if err != nil {
			return nil, err
		}
		// Convert once at the end to avoid compounding per-line rounding
		breakdown.Total = total.Mul(fxRate).Round(MinorUnits(*input.TargetCurrency))
		breakdown.Currency = *input.TargetCurrency
	}

	return breakdown, nil
}

func (c *Calculator) resolveDiscount(ctx context.Context, storeID uint, code string, subtotal decimal.Decimal) (*domain.Discount, error) {
	discount, err := c.discounts.FindByCode(ctx, storeID, code)
	if err != nil {
		return nil, err
	}

	if !discount.ActiveAt(c.now()) || discount.Exhausted() {
		return nil, domain.ErrDiscountInvalid
	}
	if discount.MinimumOrderAmount != nil && subtotal.LessThan(*discount.MinimumOrderAmount) {
		return nil, domain.ErrDiscountInvalid
	}

	return discount, nil
}

func (c *Calculator) resolveGiftCard(ctx context.Context, storeID uint, code string) (*domain.GiftCard, error) {
	card, err := c.giftCards.FindByCode(ctx, storeID, code)
	if err != nil {
		return nil, err
	}

	if !card.Redeemable() {
		return nil, domain.ErrGiftCardInvalid
	}

	return card, nil
}

// zeroDecimalCurrencies have no minor unit
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"VND": true,
	"CLP": true,
	"ISK": true,
}

// MinorUnits returns the number of decimal places for a currency
func MinorUnits(currency string) int32 {
	if zeroDecimalCurrencies[currency] {
		return 0
	}
	return 2
}
