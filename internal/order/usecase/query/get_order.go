package query

import (
	"context"
	"fmt"

	"github.com/mercatus/storefront/internal/order/domain"
)

// GetOrderQuery represents the query to get an order with its line items
type GetOrderQuery struct {
	ID uint
}

// GetOrderHandler handles get order query
type GetOrderHandler struct {
	orders  domain.OrderRepository
	refunds domain.RefundRepository
}

// NewGetOrderHandler creates a new get order handler
func NewGetOrderHandler(orders domain.OrderRepository, refunds domain.RefundRepository) *GetOrderHandler {
	return &GetOrderHandler{orders: orders, refunds: refunds}
}

// OrderDetail bundles an order with its refunds
type OrderDetail struct {
	Order   *domain.Order   `json:"order"`
	Refunds []domain.Refund `json:"refunds"`
}

// Handle executes the get order query
func (h *GetOrderHandler) Handle(ctx context.Context, q GetOrderQuery) (*OrderDetail, error) {
	if q.ID == 0 {
		return nil, fmt.Errorf("id is required")
	}

	order, err := h.orders.FindByID(ctx, q.ID)
	if err != nil {
		return nil, err
	}

	refunds, err := h.refunds.FindByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	return &OrderDetail{Order: order, Refunds: refunds}, nil
}
