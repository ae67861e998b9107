package command

import (
	"context"
	"fmt"

	orderdomain "github.com/mercatus/storefront/internal/order/domain"
	"github.com/mercatus/storefront/internal/store/domain"
)

// DeleteStoreCommand represents the command to delete a store
type DeleteStoreCommand struct {
	StoreID uint
}

// DeleteStoreHandler soft-deletes a store. Stores with open orders are
// protected here at the orchestration layer, not in the schema.
type DeleteStoreHandler struct {
	stores domain.StoreRepository
	orders orderdomain.OrderRepository
}

// NewDeleteStoreHandler creates a new delete store handler
func NewDeleteStoreHandler(stores domain.StoreRepository, orders orderdomain.OrderRepository) *DeleteStoreHandler {
	return &DeleteStoreHandler{stores: stores, orders: orders}
}

// Handle executes the delete store command
func (h *DeleteStoreHandler) Handle(ctx context.Context, cmd DeleteStoreCommand) error {
	if cmd.StoreID == 0 {
		return fmt.Errorf("store_id is required")
	}

	if _, err := h.stores.FindByID(ctx, cmd.StoreID); err != nil {
		return err
	}

	open, err := h.orders.CountOpenByStore(ctx, cmd.StoreID)
	if err != nil {
		return err
	}
	if open > 0 {
		return domain.ErrStoreHasOpenOrders
	}

	return h.stores.Delete(ctx, cmd.StoreID)
}
