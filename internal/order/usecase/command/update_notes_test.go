package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercatus/storefront/internal/order/domain"
)

// contendedOrders simulates a payment webhook landing while a notes update is
// in flight. An unlocked read returns the row as it was and the transition
// commits right after; a locked read serializes behind the transition and
// sees the new status.
type contendedOrders struct {
	*fakeOrders
	transitionTo domain.Status
}

func (c *contendedOrders) commitTransition(id uint) {
	if order, ok := c.store.orders[id]; ok && c.transitionTo != "" {
		order.Status = c.transitionTo
		now := time.Now()
		order.PaidAt = &now
		c.transitionTo = ""
	}
}

func (c *contendedOrders) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	order, err := c.fakeOrders.FindByID(ctx, id)
	c.commitTransition(id)
	return order, err
}

func (c *contendedOrders) FindByIDForUpdate(ctx context.Context, id uint) (*domain.Order, error) {
	c.commitTransition(id)
	return c.fakeOrders.FindByIDForUpdate(ctx, id)
}

func TestUpdateNotesSetsAndClears(t *testing.T) {
	mem := newMemStore()
	mem.nextOrderID++
	mem.orders[1] = &domain.Order{ID: 1, StoreID: 1, Reference: "ORD-NOTES001", Status: domain.StatusPending}

	handler := NewUpdateNotesHandler(&fakeTxManager{store: mem}, &fakeOrders{store: mem})

	notes := "leave at the side door"
	order, err := handler.Handle(context.Background(), UpdateNotesCommand{OrderID: 1, Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, order.Notes)
	assert.Equal(t, notes, *mem.orders[1].Notes)

	order, err = handler.Handle(context.Background(), UpdateNotesCommand{OrderID: 1, Notes: nil})
	require.NoError(t, err)
	assert.Nil(t, order.Notes)
	assert.Nil(t, mem.orders[1].Notes)
}

func TestUpdateNotesOrderNotFound(t *testing.T) {
	mem := newMemStore()
	handler := NewUpdateNotesHandler(&fakeTxManager{store: mem}, &fakeOrders{store: mem})

	notes := "gift wrap"
	_, err := handler.Handle(context.Background(), UpdateNotesCommand{OrderID: 99, Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestUpdateNotesDoesNotRevertConcurrentTransition(t *testing.T) {
	mem := newMemStore()
	mem.nextOrderID++
	mem.orders[1] = &domain.Order{ID: 1, StoreID: 1, Reference: "ORD-NOTES002", Status: domain.StatusPending}

	orders := &contendedOrders{
		fakeOrders:   &fakeOrders{store: mem},
		transitionTo: domain.StatusPaid,
	}
	handler := NewUpdateNotesHandler(&fakeTxManager{store: mem}, orders)

	notes := "ring the bell twice"
	_, err := handler.Handle(context.Background(), UpdateNotesCommand{OrderID: 1, Notes: &notes})
	require.NoError(t, err)

	stored := mem.orders[1]
	assert.Equal(t, domain.StatusPaid, stored.Status, "notes update must not clobber the committed transition")
	assert.NotNil(t, stored.PaidAt)
	require.NotNil(t, stored.Notes)
	assert.Equal(t, notes, *stored.Notes)
}
