package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderNotFound is returned when an order lookup misses
	ErrOrderNotFound = errors.New("order not found")

	// ErrMissingTrackingInfo blocks the shipped transition without a
	// tracking number.
	ErrMissingTrackingInfo = errors.New("tracking number is required to ship")
)

// InvalidTransitionError names the current and requested state of an
// illegal transition.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition from %q to %q", e.From, e.To)
}

// Status is an order's lifecycle state
type Status string

// Order statuses
const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions is the full legality table: pending → paid → shipped →
// delivered, with cancellation reachable from pending and paid. No state is
// ever skipped.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows s → next
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Address is the shipping destination captured at checkout
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// Order is created exactly once at checkout and never deleted; it is only
// transitioned or annotated afterwards. All money amounts are copies taken
// at purchase time.
type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	StoreID         uint            `json:"store_id" gorm:"not null;index"`
	Reference       string          `json:"reference" gorm:"not null;uniqueIndex"`
	Status          Status          `json:"status" gorm:"not null;default:'pending';index"`
	CustomerEmail   string          `json:"customer_email" gorm:"not null"`
	ShippingAddress Address         `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" gorm:"type:numeric(12,2);not null"`
	TaxAmount       decimal.Decimal `json:"tax_amount" gorm:"type:numeric(12,2);not null"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount" gorm:"type:numeric(12,2);not null"`
	GiftCardApplied decimal.Decimal `json:"gift_card_applied" gorm:"type:numeric(12,2);not null"`
	Total           decimal.Decimal `json:"total" gorm:"type:numeric(12,2);not null"`
	Currency        string          `json:"currency" gorm:"size:3;not null"`
	DiscountID      *uint           `json:"discount_id"`
	GiftCardID      *uint           `json:"gift_card_id"`
	TrackingNumber  *string         `json:"tracking_number"`
	Carrier         *string         `json:"carrier"`
	Notes           *string         `json:"notes"`
	Refunded        bool            `json:"refunded" gorm:"default:false"`
	LineItems       []OrderLineItem `json:"line_items,omitempty"`
	PaidAt          *time.Time      `json:"paid_at"`
	ShippedAt       *time.Time      `json:"shipped_at"`
	DeliveredAt     *time.Time      `json:"delivered_at"`
	CancelledAt     *time.Time      `json:"cancelled_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (Order) TableName() string {
	return "orders"
}

// Open reports whether the order still needs fulfillment attention
func (o *Order) Open() bool {
	return o.Status != StatusDelivered && o.Status != StatusCancelled
}

// OrderLineItem pins one cart line to the variant, quantity and unit price
// at time of purchase. Position preserves cart insertion order.
type OrderLineItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	OrderID     uint            `json:"order_id" gorm:"not null;index"`
	VariantID   uint            `json:"variant_id" gorm:"not null;index"`
	WarehouseID uint            `json:"warehouse_id" gorm:"not null"`
	SKU         string          `json:"sku" gorm:"not null"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Position    int             `json:"position" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName specifies the table name
func (OrderLineItem) TableName() string {
	return "order_line_items"
}

// OrderRepository defines the contract for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uint) (*Order, error)

	// FindByIDForUpdate locks the order row so concurrent transitions and
	// refund approvals are serialized. Only meaningful inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uint) (*Order, error)

	FindByReference(ctx context.Context, reference string) (*Order, error)
	FindByStore(ctx context.Context, storeID uint, limit, offset int) ([]Order, error)
	Update(ctx context.Context, order *Order) error
	CountOpenByStore(ctx context.Context, storeID uint) (int64, error)
}
