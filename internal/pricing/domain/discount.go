package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrDiscountInvalid covers every way a discount code can fail to apply:
	// unknown code, wrong store, outside its validity window, exhausted, or
	// an order below its minimum.
	ErrDiscountInvalid = errors.New("discount invalid")

	// ErrGiftCardInvalid covers unknown codes, wrong store, disabled cards
	// and cards with nothing left on them.
	ErrGiftCardInvalid = errors.New("gift card invalid")
)

// Discount types
const (
	DiscountPercentage  = "percentage"
	DiscountFixedAmount = "fixed_amount"
)

// Discount is a per-store promotion code. CurrentUses is only ever moved by
// the guarded IncrementUses so it can never pass MaxUses under concurrency.
type Discount struct {
	ID                 uint             `json:"id" gorm:"primaryKey"`
	StoreID            uint             `json:"store_id" gorm:"not null;uniqueIndex:idx_discount_store_code"`
	Code               string           `json:"code" gorm:"not null;uniqueIndex:idx_discount_store_code"`
	Type               string           `json:"type" gorm:"not null"`
	Value              decimal.Decimal  `json:"value" gorm:"type:numeric(12,2);not null"`
	MaxUses            *int             `json:"max_uses"`
	CurrentUses        int              `json:"current_uses" gorm:"not null;default:0"`
	MinimumOrderAmount *decimal.Decimal `json:"minimum_order_amount" gorm:"type:numeric(12,2)"`
	Category           string           `json:"category"`
	StartsAt           *time.Time       `json:"starts_at"`
	ExpiresAt          *time.Time       `json:"expires_at"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	DeletedAt          gorm.DeletedAt   `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Discount) TableName() string {
	return "discounts"
}

// ActiveAt reports whether the discount's validity window covers now
func (d *Discount) ActiveAt(now time.Time) bool {
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return false
	}
	if d.ExpiresAt != nil && !now.Before(*d.ExpiresAt) {
		return false
	}
	return true
}

// Exhausted reports whether the discount has no uses left
func (d *Discount) Exhausted() bool {
	return d.MaxUses != nil && d.CurrentUses >= *d.MaxUses
}

// AmountOff computes the discount for a subtotal. A fixed amount is capped
// at the subtotal so the result never goes negative.
func (d *Discount) AmountOff(subtotal decimal.Decimal) decimal.Decimal {
	switch d.Type {
	case DiscountPercentage:
		return subtotal.Mul(d.Value).Div(decimal.NewFromInt(100))
	case DiscountFixedAmount:
		if d.Value.GreaterThan(subtotal) {
			return subtotal
		}
		return d.Value
	}
	return decimal.Zero
}

// Gift card statuses
const (
	GiftCardActive   = "active"
	GiftCardDepleted = "depleted"
	GiftCardDisabled = "disabled"
)

// GiftCard holds stored value redeemable at checkout. The balance only moves
// through the guarded Debit and the explicit refund Credit.
type GiftCard struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	StoreID        uint            `json:"store_id" gorm:"not null;uniqueIndex:idx_gift_card_store_code"`
	Code           string          `json:"code" gorm:"not null;uniqueIndex:idx_gift_card_store_code"`
	InitialBalance decimal.Decimal `json:"initial_balance" gorm:"type:numeric(12,2);not null"`
	CurrentBalance decimal.Decimal `json:"current_balance" gorm:"type:numeric(12,2);not null"`
	Status         string          `json:"status" gorm:"default:'active'"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (GiftCard) TableName() string {
	return "gift_cards"
}

// Redeemable reports whether the card can cover any amount at all
func (g *GiftCard) Redeemable() bool {
	return g.Status == GiftCardActive && g.CurrentBalance.IsPositive()
}

// DiscountRepository defines the contract for discount data access
type DiscountRepository interface {
	Create(ctx context.Context, discount *Discount) error
	FindByCode(ctx context.Context, storeID uint, code string) (*Discount, error)
	FindByStore(ctx context.Context, storeID uint, limit, offset int) ([]Discount, error)

	// IncrementUses bumps current_uses only while it is still below
	// max_uses; it fails with ErrDiscountInvalid once the code is spent.
	IncrementUses(ctx context.Context, id uint) error
}

// GiftCardRepository defines the contract for gift card data access
type GiftCardRepository interface {
	Create(ctx context.Context, card *GiftCard) error
	FindByCode(ctx context.Context, storeID uint, code string) (*GiftCard, error)

	// Debit removes amount from the balance only while the balance covers
	// it, and marks the card depleted when it reaches zero.
	Debit(ctx context.Context, id uint, amount decimal.Decimal) error

	// Credit returns value to a card, used for gift-card refunds. The
	// balance never exceeds the initial balance.
	Credit(ctx context.Context, id uint, amount decimal.Decimal) error
}
