package command

import (
	"context"
	"fmt"
	"time"

	inventorydomain "github.com/mercatus/storefront/internal/inventory/domain"
	"github.com/mercatus/storefront/internal/order/domain"
	"github.com/mercatus/storefront/kafka"
	"github.com/mercatus/storefront/pkg/database"
	"github.com/mercatus/storefront/pkg/logger"
)

// EventPublisher emits order lifecycle events for the notification
// collaborator. Delivery is fire-and-forget.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event kafka.OrderEvent) error
}

// TransitionCommand requests a status change on an order
type TransitionCommand struct {
	OrderID        uint
	NewStatus      domain.Status
	TrackingNumber *string
	Carrier        *string
}

// TransitionHandler drives the order state machine. The status update and
// its inventory side effects commit in one transaction; the lifecycle event
// is emitted after commit and never rolls the transition back.
type TransitionHandler struct {
	tx        database.TxManager
	orders    domain.OrderRepository
	ledger    inventorydomain.Ledger
	publisher EventPublisher
	now       func() time.Time
}

// NewTransitionHandler creates a new transition handler
func NewTransitionHandler(
	tx database.TxManager,
	orders domain.OrderRepository,
	ledger inventorydomain.Ledger,
	publisher EventPublisher,
) *TransitionHandler {
	return &TransitionHandler{
		tx:        tx,
		orders:    orders,
		ledger:    ledger,
		publisher: publisher,
		now:       time.Now,
	}
}

// Handle executes the transition command
func (h *TransitionHandler) Handle(ctx context.Context, cmd TransitionCommand) (*domain.Order, error) {
	if cmd.OrderID == 0 {
		return nil, fmt.Errorf("order_id is required")
	}
	if !cmd.NewStatus.Valid() {
		return nil, &domain.InvalidTransitionError{To: cmd.NewStatus}
	}

	var order *domain.Order

	err := h.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = h.orders.FindByIDForUpdate(ctx, cmd.OrderID)
		if err != nil {
			return err
		}

		if !order.Status.CanTransitionTo(cmd.NewStatus) {
			return &domain.InvalidTransitionError{From: order.Status, To: cmd.NewStatus}
		}

		now := h.now()
		switch cmd.NewStatus {
		case domain.StatusPaid:
			// Stock was already decremented at checkout
			order.PaidAt = &now

		case domain.StatusShipped:
			if cmd.TrackingNumber == nil || *cmd.TrackingNumber == "" {
				return domain.ErrMissingTrackingInfo
			}
			order.TrackingNumber = cmd.TrackingNumber
			order.Carrier = cmd.Carrier
			order.ShippedAt = &now

		case domain.StatusDelivered:
			order.DeliveredAt = &now

		case domain.StatusCancelled:
			// The one path that returns stock
			if err := h.restock(ctx, order); err != nil {
				return err
			}
			order.CancelledAt = &now
		}

		order.Status = cmd.NewStatus
		return h.orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	h.emit(ctx, order)
	return order, nil
}

// restock returns every line item's quantity to its warehouse
func (h *TransitionHandler) restock(ctx context.Context, order *domain.Order) error {
	notes := fmt.Sprintf("order %s cancelled", order.Reference)
	for _, line := range order.LineItems {
		_, err := h.ledger.AdjustByVariant(ctx, line.VariantID, line.WarehouseID, line.Quantity,
			inventorydomain.ReasonOrderCancelled, notes)
		if err != nil {
			return fmt.Errorf("failed to restock variant %d: %w", line.VariantID, err)
		}
	}
	return nil
}

// emit publishes the lifecycle event. Failures are logged, never returned:
// notification delivery must not undo a committed transition.
func (h *TransitionHandler) emit(ctx context.Context, order *domain.Order) {
	if h.publisher == nil {
		return
	}

	eventType := ""
	switch order.Status {
	case domain.StatusPaid:
		eventType = kafka.EventTypeOrderPaid
	case domain.StatusShipped:
		eventType = kafka.EventTypeOrderShipped
	case domain.StatusDelivered:
		eventType = kafka.EventTypeOrderDelivered
	case domain.StatusCancelled:
		eventType = kafka.EventTypeOrderCancelled
	default:
		return
	}

	event := kafka.OrderEvent{
		EventType:     eventType,
		OrderID:       order.ID,
		OrderRef:      order.Reference,
		StoreID:       order.StoreID,
		CustomerEmail: order.CustomerEmail,
		Status:        string(order.Status),
		Total:         order.Total,
		Currency:      order.Currency,
	}

	if err := h.publisher.PublishOrderEvent(ctx, event); err != nil {
		logger.Error(ctx).
			Err(err).
			Uint("order_id", order.ID).
			Str("event_type", eventType).
			Msg("Failed to publish order lifecycle event")
	}
}
