package query

import (
	"context"
	"fmt"

	"github.com/mercatus/storefront/internal/inventory/domain"
)

// ListAdjustmentsQuery represents the query to read a level's audit trail
type ListAdjustmentsQuery struct {
	LevelID uint
	Limit   int
	Offset  int
}

// ListAdjustmentsHandler handles list adjustments query
type ListAdjustmentsHandler struct {
	ledger domain.Ledger
}

// NewListAdjustmentsHandler creates a new list adjustments handler
func NewListAdjustmentsHandler(ledger domain.Ledger) *ListAdjustmentsHandler {
	return &ListAdjustmentsHandler{ledger: ledger}
}

// Handle executes the list adjustments query
func (h *ListAdjustmentsHandler) Handle(ctx context.Context, q ListAdjustmentsQuery) ([]domain.InventoryAdjustment, error) {
	if q.LevelID == 0 {
		return nil, fmt.Errorf("level_id is required")
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}

	return h.ledger.ListAdjustments(ctx, q.LevelID, q.Limit, q.Offset)
}
