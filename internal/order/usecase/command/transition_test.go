package command

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventorydomain "github.com/mercatus/storefront/internal/inventory/domain"
	"github.com/mercatus/storefront/internal/order/domain"
	"github.com/mercatus/storefront/kafka"
)

type transitionEnv struct {
	store     *memStore
	publisher *fakePublisher
	handler   *TransitionHandler
}

func newTransitionEnv(t *testing.T) *transitionEnv {
	t.Helper()

	mem := newMemStore()
	publisher := &fakePublisher{}
	handler := NewTransitionHandler(
		&fakeTxManager{store: mem},
		&fakeOrders{store: mem},
		&fakeLedger{store: mem},
		publisher,
	)
	return &transitionEnv{store: mem, publisher: publisher, handler: handler}
}

// seedOrder inserts an order in the given status with one line item backed
// by an inventory level that already had the sale decremented.
func (e *transitionEnv) seedOrder(status domain.Status, quantity, remainingStock int) *domain.Order {
	e.store.nextLevelID++
	e.store.levels[[2]uint{1, 1}] = &inventorydomain.InventoryLevel{
		ID:          e.store.nextLevelID,
		VariantID:   1,
		WarehouseID: 1,
		Quantity:    remainingStock,
	}

	e.store.nextOrderID++
	order := &domain.Order{
		ID:            e.store.nextOrderID,
		StoreID:       1,
		Reference:     "ORD-TEST0001",
		Status:        status,
		CustomerEmail: "buyer@example.com",
		Total:         decimal.RequireFromString("40.00"),
		Currency:      "USD",
		LineItems: []domain.OrderLineItem{
			{VariantID: 1, WarehouseID: 1, SKU: "SKU-1", Quantity: quantity, UnitPrice: decimal.RequireFromString("20.00")},
		},
	}
	e.store.orders[order.ID] = order
	return order
}

func TestTransitionPendingToPaid(t *testing.T) {
	env := newTransitionEnv(t)
	order := env.seedOrder(domain.StatusPending, 2, 8)

	updated, err := env.handler.Handle(context.Background(), TransitionCommand{
		OrderID:   order.ID,
		NewStatus: domain.StatusPaid,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPaid, updated.Status)
	assert.NotNil(t, updated.PaidAt)

	// Payment must not touch stock; the sale was decremented at checkout
	assert.Equal(t, 8, env.store.levels[[2]uint{1, 1}].Quantity)

	require.Len(t, env.publisher.events, 1)
	assert.Equal(t, kafka.EventTypeOrderPaid, env.publisher.events[0].EventType)
	assert.Equal(t, order.ID, env.publisher.events[0].OrderID)
}

func TestTransitionShippedRequiresTracking(t *testing.T) {
	env := newTransitionEnv(t)
	order := env.seedOrder(domain.StatusPaid, 2, 8)

	_, err := env.handler.Handle(context.Background(), TransitionCommand{
		OrderID:   order.ID,
		NewStatus: domain.StatusShipped,
	})
	assert.ErrorIs(t, err, domain.ErrMissingTrackingInfo)

	assert.Equal(t, domain.StatusPaid, env.store.orders[order.ID].Status)
	assert.Empty(t, env.publisher.events)

	tracking := "1Z999AA10123456784"
	carrier := "UPS"
	updated, err := env.handler.Handle(context.Background(), TransitionCommand{
		OrderID:        order.ID,
		NewStatus:      domain.StatusShipped,
		TrackingNumber: &tracking,
		Carrier:        &carrier,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusShipped, updated.Status)
	require.NotNil(t, updated.TrackingNumber)
	assert.Equal(t, tracking, *updated.TrackingNumber)
	assert.NotNil(t, updated.ShippedAt)
}

func TestTransitionCancelRestocks(t *testing.T) {
	env := newTransitionEnv(t)
	order := env.seedOrder(domain.StatusPending, 3, 7)

	updated, err := env.handler.Handle(context.Background(), TransitionCommand{
		OrderID:   order.ID,
		NewStatus: domain.StatusCancelled,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCancelled, updated.Status)
	assert.NotNil(t, updated.CancelledAt)

	assert.Equal(t, 10, env.store.levels[[2]uint{1, 1}].Quantity)

	require.Len(t, env.store.levelAudit, 1)
	assert.Equal(t, inventorydomain.ReasonOrderCancelled, env.store.levelAudit[0].Reason)
	assert.Equal(t, 3, env.store.levelAudit[0].Delta)
}

func TestTransitionIllegalJumps(t *testing.T) {
	tests := []struct {
		name string
		from domain.Status
		to   domain.Status
	}{
		{"pending to shipped", domain.StatusPending, domain.StatusShipped},
		{"pending to delivered", domain.StatusPending, domain.StatusDelivered},
		{"shipped to cancelled", domain.StatusShipped, domain.StatusCancelled},
		{"delivered to cancelled", domain.StatusDelivered, domain.StatusCancelled},
		{"delivered to paid", domain.StatusDelivered, domain.StatusPaid},
		{"cancelled to paid", domain.StatusCancelled, domain.StatusPaid},
		{"paid to pending", domain.StatusPaid, domain.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTransitionEnv(t)
			order := env.seedOrder(tt.from, 1, 9)

			_, err := env.handler.Handle(context.Background(), TransitionCommand{
				OrderID:   order.ID,
				NewStatus: tt.to,
			})

			var transitionErr *domain.InvalidTransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Equal(t, tt.from, transitionErr.From)
			assert.Equal(t, tt.to, transitionErr.To)

			assert.Equal(t, tt.from, env.store.orders[order.ID].Status)
			assert.Empty(t, env.publisher.events)
		})
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	env := newTransitionEnv(t)
	order := env.seedOrder(domain.StatusPending, 1, 9)

	_, err := env.handler.Handle(context.Background(), TransitionCommand{
		OrderID:   order.ID,
		NewStatus: domain.Status("archived"),
	})

	var transitionErr *domain.InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestTransitionPublisherFailureDoesNotUndoCommit(t *testing.T) {
	env := newTransitionEnv(t)
	env.publisher.fail = true
	order := env.seedOrder(domain.StatusPending, 1, 9)

	updated, err := env.handler.Handle(context.Background(), TransitionCommand{
		OrderID:   order.ID,
		NewStatus: domain.StatusPaid,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPaid, updated.Status)
	assert.Equal(t, domain.StatusPaid, env.store.orders[order.ID].Status)
}

func TestTransitionOrderNotFound(t *testing.T) {
	env := newTransitionEnv(t)

	_, err := env.handler.Handle(context.Background(), TransitionCommand{
		OrderID:   42,
		NewStatus: domain.StatusPaid,
	})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
