package command

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mercatus/storefront/internal/order/domain"
	"github.com/mercatus/storefront/pkg/database"
)

// CreateRefundCommand requests a refund against a paid order
type CreateRefundCommand struct {
	OrderID       uint
	Amount        decimal.Decimal
	Reason        string
	ReasonDetails string
}

// CreateRefundHandler records a pending refund. It never touches inventory;
// restocking returned goods is a separate, explicit ledger adjustment.
type CreateRefundHandler struct {
	tx      database.TxManager
	orders  domain.OrderRepository
	refunds domain.RefundRepository
}

// NewCreateRefundHandler creates a new create refund handler
func NewCreateRefundHandler(tx database.TxManager, orders domain.OrderRepository, refunds domain.RefundRepository) *CreateRefundHandler {
	return &CreateRefundHandler{tx: tx, orders: orders, refunds: refunds}
}

// Handle executes the create refund command
func (h *CreateRefundHandler) Handle(ctx context.Context, cmd CreateRefundCommand) (*domain.Refund, error) {
	if cmd.OrderID == 0 {
		return nil, fmt.Errorf("order_id is required")
	}
	if !cmd.Amount.IsPositive() {
		return nil, domain.ErrInvalidRefundAmount
	}
	if !domain.ValidRefundReason(cmd.Reason) {
		return nil, domain.ErrInvalidRefundReason
	}

	var refund *domain.Refund

	err := h.tx.WithTx(ctx, func(ctx context.Context) error {
		order, err := h.orders.FindByIDForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if !refundable(order.Status) {
			return domain.ErrRefundNotAllowed
		}

		approved, err := h.refunds.SumApproved(ctx, order.ID)
		if err != nil {
			return err
		}
		if approved.Add(cmd.Amount).GreaterThan(order.Total) {
			return domain.ErrRefundExceedsOrderTotal
		}

		refund = &domain.Refund{
			OrderID:       order.ID,
			Amount:        cmd.Amount,
			Reason:        cmd.Reason,
			ReasonDetails: cmd.ReasonDetails,
			Status:        domain.RefundPending,
		}
		return h.refunds.Create(ctx, refund)
	})
	if err != nil {
		return nil, err
	}

	return refund, nil
}

// DecideRefundCommand approves or rejects a pending refund
type DecideRefundCommand struct {
	RefundID uint
	Approve  bool
}

// DecideRefundHandler flips a pending refund to approved or rejected. The
// refund cap is re-checked at approval time under the order's row lock, so
// approvals in any order cannot exceed the total.
type DecideRefundHandler struct {
	tx      database.TxManager
	orders  domain.OrderRepository
	refunds domain.RefundRepository
}

// NewDecideRefundHandler creates a new decide refund handler
func NewDecideRefundHandler(tx database.TxManager, orders domain.OrderRepository, refunds domain.RefundRepository) *DecideRefundHandler {
	return &DecideRefundHandler{tx: tx, orders: orders, refunds: refunds}
}

// Handle executes the decide refund command
func (h *DecideRefundHandler) Handle(ctx context.Context, cmd DecideRefundCommand) (*domain.Refund, error) {
	if cmd.RefundID == 0 {
		return nil, fmt.Errorf("refund_id is required")
	}

	var refund *domain.Refund

	err := h.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		refund, err = h.refunds.FindByID(ctx, cmd.RefundID)
		if err != nil {
			return err
		}
		if refund.Status != domain.RefundPending {
			return domain.ErrRefundAlreadyDecided
		}

		if !cmd.Approve {
			refund.Status = domain.RefundRejected
			return h.refunds.Update(ctx, refund)
		}

		order, err := h.orders.FindByIDForUpdate(ctx, refund.OrderID)
		if err != nil {
			return err
		}

		approved, err := h.refunds.SumApproved(ctx, order.ID)
		if err != nil {
			return err
		}
		total := approved.Add(refund.Amount)
		if total.GreaterThan(order.Total) {
			return domain.ErrRefundExceedsOrderTotal
		}

		refund.Status = domain.RefundApproved
		if err := h.refunds.Update(ctx, refund); err != nil {
			return err
		}

		// Fully refunded orders carry an orthogonal flag; status is
		// untouched.
		if total.Equal(order.Total) && !order.Refunded {
			order.Refunded = true
			return h.orders.Update(ctx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return refund, nil
}

func refundable(status domain.Status) bool {
	switch status {
	case domain.StatusPaid, domain.StatusShipped, domain.StatusDelivered:
		return true
	}
	return false
}
