package command

import (
	"context"
	"fmt"

	"github.com/mercatus/storefront/internal/inventory/domain"
	"github.com/mercatus/storefront/pkg/database"
)

// AdjustInventoryCommand represents a manual stock correction
type AdjustInventoryCommand struct {
	LevelID uint
	Delta   int
	Reason  string
	Notes   string
}

// AdjustInventoryHandler applies a manual inventory adjustment through the
// ledger, inside its own transaction.
type AdjustInventoryHandler struct {
	tx     database.TxManager
	ledger domain.Ledger
}

// NewAdjustInventoryHandler creates a new adjust inventory handler
func NewAdjustInventoryHandler(tx database.TxManager, ledger domain.Ledger) *AdjustInventoryHandler {
	return &AdjustInventoryHandler{tx: tx, ledger: ledger}
}

// Handle executes the adjust inventory command
func (h *AdjustInventoryHandler) Handle(ctx context.Context, cmd AdjustInventoryCommand) (*domain.InventoryLevel, error) {
	if cmd.LevelID == 0 {
		return nil, fmt.Errorf("level_id is required")
	}
	if cmd.Delta == 0 {
		return nil, domain.ErrZeroDelta
	}
	if cmd.Reason == "" {
		cmd.Reason = domain.ReasonCorrection
	}

	var level *domain.InventoryLevel
	err := h.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		level, err = h.ledger.Adjust(ctx, cmd.LevelID, cmd.Delta, cmd.Reason, cmd.Notes)
		return err
	})
	if err != nil {
		return nil, err
	}

	return level, nil
}

// CreateLevelCommand registers stock tracking for a variant in a warehouse
type CreateLevelCommand struct {
	VariantID       uint
	WarehouseID     uint
	Quantity        int
	ReorderPoint    int
	ReorderQuantity int
}

// CreateLevelHandler handles create level command
type CreateLevelHandler struct {
	tx     database.TxManager
	ledger domain.Ledger
}

// NewCreateLevelHandler creates a new create level handler
func NewCreateLevelHandler(tx database.TxManager, ledger domain.Ledger) *CreateLevelHandler {
	return &CreateLevelHandler{tx: tx, ledger: ledger}
}

// Handle executes the create level command. The opening quantity is written
// through the adjustment log like any other stock movement.
func (h *CreateLevelHandler) Handle(ctx context.Context, cmd CreateLevelCommand) (*domain.InventoryLevel, error) {
	if cmd.VariantID == 0 || cmd.WarehouseID == 0 {
		return nil, fmt.Errorf("variant_id and warehouse_id are required")
	}
	if cmd.Quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative")
	}

	level := &domain.InventoryLevel{
		VariantID:       cmd.VariantID,
		WarehouseID:     cmd.WarehouseID,
		Quantity:        0,
		ReorderPoint:    cmd.ReorderPoint,
		ReorderQuantity: cmd.ReorderQuantity,
	}

	err := h.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := h.ledger.CreateLevel(ctx, level); err != nil {
			return fmt.Errorf("failed to create inventory level: %w", err)
		}
		if cmd.Quantity > 0 {
			var err error
			level, err = h.ledger.Adjust(ctx, level.ID, cmd.Quantity, domain.ReasonReceived, "opening stock")
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return level, nil
}
