package query

import (
	"context"
	"fmt"

	"github.com/mercatus/storefront/internal/order/domain"
)

// ListOrdersQuery represents the query to list a store's orders
type ListOrdersQuery struct {
	StoreID uint
	Limit   int
	Offset  int
}

// ListOrdersHandler handles list orders query
type ListOrdersHandler struct {
	orders domain.OrderRepository
}

// NewListOrdersHandler creates a new list orders handler
func NewListOrdersHandler(orders domain.OrderRepository) *ListOrdersHandler {
	return &ListOrdersHandler{orders: orders}
}

// Handle executes the list orders query
func (h *ListOrdersHandler) Handle(ctx context.Context, q ListOrdersQuery) ([]domain.Order, error) {
	if q.StoreID == 0 {
		return nil, fmt.Errorf("store_id is required")
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}

	return h.orders.FindByStore(ctx, q.StoreID, q.Limit, q.Offset)
}
