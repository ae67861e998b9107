package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrRefundNotFound is returned when a refund lookup misses
	ErrRefundNotFound = errors.New("refund not found")

	// ErrRefundExceedsOrderTotal blocks refunds that would push the sum of
	// approved refunds past the order total.
	ErrRefundExceedsOrderTotal = errors.New("refund exceeds order total")

	// ErrRefundNotAllowed gates refunds on orders that never reached paid
	ErrRefundNotAllowed = errors.New("order is not refundable in its current status")

	// ErrRefundAlreadyDecided rejects a second decision on the same refund
	ErrRefundAlreadyDecided = errors.New("refund already decided")

	// ErrInvalidRefundAmount rejects zero or negative refund amounts
	ErrInvalidRefundAmount = errors.New("refund amount must be positive")

	// ErrInvalidRefundReason rejects unknown refund reasons
	ErrInvalidRefundReason = errors.New("invalid refund reason")
)

// Refund statuses
const (
	RefundPending  = "pending"
	RefundApproved = "approved"
	RefundRejected = "rejected"
)

// Refund reasons
const (
	ReasonDefective      = "defective"
	ReasonWrongItem      = "wrong_item"
	ReasonNotAsDescribed = "not_as_described"
	ReasonChangedMind    = "changed_mind"
	ReasonOther          = "other"
)

// ValidRefundReason reports whether reason is one of the known values
func ValidRefundReason(reason string) bool {
	switch reason {
	case ReasonDefective, ReasonWrongItem, ReasonNotAsDescribed, ReasonChangedMind, ReasonOther:
		return true
	}
	return false
}

// Refund records a requested return of money against a paid order. Creating
// one never touches inventory; restocking is a separate explicit adjustment.
type Refund struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	OrderID       uint            `json:"order_id" gorm:"not null;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Reason        string          `json:"reason" gorm:"not null"`
	ReasonDetails string          `json:"reason_details"`
	Status        string          `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (Refund) TableName() string {
	return "refunds"
}

// RefundRepository defines the contract for refund data access
type RefundRepository interface {
	Create(ctx context.Context, refund *Refund) error
	FindByID(ctx context.Context, id uint) (*Refund, error)
	FindByOrder(ctx context.Context, orderID uint) ([]Refund, error)
	Update(ctx context.Context, refund *Refund) error

	// SumApproved returns the total amount already approved for an order
	SumApproved(ctx context.Context, orderID uint) (decimal.Decimal, error)
}
