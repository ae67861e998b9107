package command

import (
	"context"
	"fmt"

	"github.com/mercatus/storefront/internal/catalog/domain"
	inventorydomain "github.com/mercatus/storefront/internal/inventory/domain"
	"github.com/mercatus/storefront/pkg/database"
)

// CreateWarehouseCommand represents the command to create a warehouse
type CreateWarehouseCommand struct {
	StoreID   uint
	Name      string
	Code      string
	IsDefault bool
}

// CreateWarehouseHandler handles create warehouse command. A store's first
// warehouse becomes the default regardless of the flag; marking a later one
// default demotes the previous default in the same transaction.
type CreateWarehouseHandler struct {
	tx         database.TxManager
	warehouses domain.WarehouseRepository
}

// NewCreateWarehouseHandler creates a new create warehouse handler
func NewCreateWarehouseHandler(tx database.TxManager, warehouses domain.WarehouseRepository) *CreateWarehouseHandler {
	return &CreateWarehouseHandler{tx: tx, warehouses: warehouses}
}

// Handle executes the create warehouse command
func (h *CreateWarehouseHandler) Handle(ctx context.Context, cmd CreateWarehouseCommand) (*domain.Warehouse, error) {
	if cmd.StoreID == 0 {
		return nil, fmt.Errorf("store_id is required")
	}
	if cmd.Name == "" || cmd.Code == "" {
		return nil, fmt.Errorf("name and code are required")
	}

	warehouse := &domain.Warehouse{
		StoreID:   cmd.StoreID,
		Name:      cmd.Name,
		Code:      cmd.Code,
		IsDefault: cmd.IsDefault,
	}

	err := h.tx.WithTx(ctx, func(ctx context.Context) error {
		existing, err := h.warehouses.FindByStore(ctx, cmd.StoreID)
		if err != nil {
			return err
		}

		if len(existing) == 0 {
			warehouse.IsDefault = true
		} else if cmd.IsDefault {
			for i := range existing {
				if existing[i].IsDefault {
					existing[i].IsDefault = false
					if err := h.warehouses.Update(ctx, &existing[i]); err != nil {
						return err
					}
				}
			}
		}

		return h.warehouses.Create(ctx, warehouse)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create warehouse: %w", err)
	}

	return warehouse, nil
}

// DeleteWarehouseCommand represents the command to delete a warehouse
type DeleteWarehouseCommand struct {
	WarehouseID uint
}

// DeleteWarehouseHandler deletes a non-default warehouse holding no
// inventory records. The default warehouse is never deletable.
type DeleteWarehouseHandler struct {
	warehouses domain.WarehouseRepository
	ledger     inventorydomain.Ledger
}

// NewDeleteWarehouseHandler creates a new delete warehouse handler
func NewDeleteWarehouseHandler(warehouses domain.WarehouseRepository, ledger inventorydomain.Ledger) *DeleteWarehouseHandler {
	return &DeleteWarehouseHandler{warehouses: warehouses, ledger: ledger}
}

// Handle executes the delete warehouse command
func (h *DeleteWarehouseHandler) Handle(ctx context.Context, cmd DeleteWarehouseCommand) error {
	if cmd.WarehouseID == 0 {
		return fmt.Errorf("warehouse_id is required")
	}

	warehouse, err := h.warehouses.FindByID(ctx, cmd.WarehouseID)
	if err != nil {
		return err
	}
	if warehouse.IsDefault {
		return domain.ErrDefaultWarehouse
	}

	count, err := h.ledger.CountByWarehouse(ctx, warehouse.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrWarehouseNotEmpty
	}

	return h.warehouses.Delete(ctx, warehouse.ID)
}
