package query

import (
	"context"
	"fmt"

	"github.com/mercatus/storefront/internal/inventory/domain"
)

// ListLevelsQuery represents the query to list a store's inventory levels
type ListLevelsQuery struct {
	StoreID uint
	LowOnly bool
}

// LevelView is an inventory level with its derived low-stock flag
type LevelView struct {
	domain.InventoryLevel
	LowStock bool `json:"low_stock"`
}

// ListLevelsHandler handles list levels query
type ListLevelsHandler struct {
	ledger domain.Ledger
}

// NewListLevelsHandler creates a new list levels handler
func NewListLevelsHandler(ledger domain.Ledger) *ListLevelsHandler {
	return &ListLevelsHandler{ledger: ledger}
}

// Handle executes the list levels query. Low stock is computed on read, not
// stored.
func (h *ListLevelsHandler) Handle(ctx context.Context, q ListLevelsQuery) ([]LevelView, error) {
	if q.StoreID == 0 {
		return nil, fmt.Errorf("store_id is required")
	}

	levels, err := h.ledger.ListByStore(ctx, q.StoreID)
	if err != nil {
		return nil, err
	}

	views := make([]LevelView, 0, len(levels))
	for _, level := range levels {
		low := level.LowStock()
		if q.LowOnly && !low {
			continue
		}
		views = append(views, LevelView{InventoryLevel: level, LowStock: low})
	}

	return views, nil
}
