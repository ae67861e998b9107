package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrLevelNotFound is returned when no inventory record exists for the
	// requested variant/warehouse pair.
	ErrLevelNotFound = errors.New("inventory level not found")

	// ErrZeroDelta rejects adjustments that would not change anything
	ErrZeroDelta = errors.New("adjustment delta must be non-zero")
)

// InsufficientStockError is returned when an operation would drive a level's
// quantity negative. Quantities are never clamped.
type InsufficientStockError struct {
	VariantID   uint
	WarehouseID uint
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %d in warehouse %d: requested %d, available %d",
		e.VariantID, e.WarehouseID, e.Requested, e.Available)
}

// Adjustment reasons
const (
	ReasonCheckout       = "checkout"
	ReasonOrderCancelled = "order_cancelled"
	ReasonRestock        = "restock"
	ReasonCorrection     = "correction"
	ReasonDamaged        = "damaged"
	ReasonReceived       = "received"
)

// InventoryLevel is the stock record for one variant in one warehouse.
// Quantity is decremented at checkout inside the order transaction; there is
// no separate reservation hold.
type InventoryLevel struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	VariantID       uint      `json:"variant_id" gorm:"not null;uniqueIndex:idx_level_variant_warehouse"`
	WarehouseID     uint      `json:"warehouse_id" gorm:"not null;uniqueIndex:idx_level_variant_warehouse"`
	Quantity        int       `json:"quantity" gorm:"not null;default:0"`
	ReorderPoint    int       `json:"reorder_point" gorm:"not null;default:0"`
	ReorderQuantity int       `json:"reorder_quantity" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (InventoryLevel) TableName() string {
	return "inventory_levels"
}

// LowStock reports whether the level has fallen to its reorder point. It is
// derived on read and never persisted.
func (l *InventoryLevel) LowStock() bool {
	return l.Quantity <= l.ReorderPoint
}

// InventoryAdjustment is one append-only audit entry per quantity change.
// Rows are never updated or deleted.
type InventoryAdjustment struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	LevelID           uint      `json:"level_id" gorm:"not null;index"`
	Delta             int       `json:"delta" gorm:"not null"`
	Reason            string    `json:"reason" gorm:"not null"`
	Notes             string    `json:"notes"`
	ResultingQuantity int       `json:"resulting_quantity" gorm:"not null"`
	CreatedAt         time.Time `json:"created_at"`
}

// TableName specifies the table name
func (InventoryAdjustment) TableName() string {
	return "inventory_adjustments"
}

// Ledger is the only component allowed to mutate inventory quantities and
// the only writer of the adjustment log. Implementations must serialize
// concurrent callers on the same (variant, warehouse) pair.
type Ledger interface {
	// Decrement removes quantity sold at checkout. It fails with
	// *InsufficientStockError rather than letting the level go negative.
	Decrement(ctx context.Context, variantID, warehouseID uint, quantity int, reason string) (*InventoryLevel, error)

	// Adjust applies a manual correction, positive or negative, to a level
	// by id. Negative deltas that would drive the level below zero fail.
	Adjust(ctx context.Context, levelID uint, delta int, reason, notes string) (*InventoryLevel, error)

	// AdjustByVariant is Adjust addressed by (variant, warehouse), used by
	// order cancellation to return stock.
	AdjustByVariant(ctx context.Context, variantID, warehouseID uint, delta int, reason, notes string) (*InventoryLevel, error)

	CreateLevel(ctx context.Context, level *InventoryLevel) error
	FindLevel(ctx context.Context, variantID, warehouseID uint) (*InventoryLevel, error)
	FindLevelByID(ctx context.Context, id uint) (*InventoryLevel, error)
	ListByStore(ctx context.Context, storeID uint) ([]InventoryLevel, error)
	ListAdjustments(ctx context.Context, levelID uint, limit, offset int) ([]InventoryAdjustment, error)
	CountByWarehouse(ctx context.Context, warehouseID uint) (int64, error)
}
