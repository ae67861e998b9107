package command

import (
	"context"
	"fmt"

	"github.com/mercatus/storefront/internal/order/domain"
	"github.com/mercatus/storefront/pkg/database"
)

// UpdateNotesCommand represents the command to annotate an order
type UpdateNotesCommand struct {
	OrderID uint
	Notes   *string
}

// UpdateNotesHandler updates an order's free-text notes. Notes are pure
// annotation and may change at any status without a transition.
type UpdateNotesHandler struct {
	tx     database.TxManager
	orders domain.OrderRepository
}

// NewUpdateNotesHandler creates a new update notes handler
func NewUpdateNotesHandler(tx database.TxManager, orders domain.OrderRepository) *UpdateNotesHandler {
	return &UpdateNotesHandler{tx: tx, orders: orders}
}

// Handle executes the update notes command. The order row is locked for the
// read-modify-write; Update saves the whole row, so writing from a stale
// snapshot would clobber a concurrent status transition.
func (h *UpdateNotesHandler) Handle(ctx context.Context, cmd UpdateNotesCommand) (*domain.Order, error) {
	if cmd.OrderID == 0 {
		return nil, fmt.Errorf("order_id is required")
	}

	var order *domain.Order

	err := h.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = h.orders.FindByIDForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}

		order.Notes = cmd.Notes
		if err := h.orders.Update(ctx, order); err != nil {
			return fmt.Errorf("failed to update notes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}
