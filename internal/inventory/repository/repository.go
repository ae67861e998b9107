package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mercatus/storefront/internal/inventory/domain"
	"github.com/mercatus/storefront/pkg/database"
)

// GormLedger implements domain.Ledger with pessimistic row locks: the
// check-and-write on a level happens under SELECT ... FOR UPDATE, so two
// checkouts racing for the last unit are linearized by the database.
type GormLedger struct {
	base *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{base: db}
}

func (r *GormLedger) AutoMigrate() error {
	return r.base.AutoMigrate(&domain.InventoryLevel{}, &domain.InventoryAdjustment{})
}

func (r *GormLedger) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.base)
}

// lockLevel reads a level with a row lock. Must be called inside a
// transaction for the lock to outlive the read.
func (r *GormLedger) lockLevel(ctx context.Context, query string, args ...interface{}) (*domain.InventoryLevel, error) {
	var level domain.InventoryLevel
	err := r.db(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(query, args...).
		First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLevelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &level, nil
}

// apply writes the new quantity and appends the audit entry for it. The
// caller holds the row lock.
func (r *GormLedger) apply(ctx context.Context, level *domain.InventoryLevel, delta int, reason, notes string) (*domain.InventoryLevel, error) {
	level.Quantity += delta

	if err := r.db(ctx).Model(level).Update("quantity", level.Quantity).Error; err != nil {
		return nil, err
	}

	adjustment := &domain.InventoryAdjustment{
		LevelID:           level.ID,
		Delta:             delta,
		Reason:            reason,
		Notes:             notes,
		ResultingQuantity: level.Quantity,
	}
	if err := r.db(ctx).Create(adjustment).Error; err != nil {
		return nil, err
	}

	return level, nil
}

func (r *GormLedger) Decrement(ctx context.Context, variantID, warehouseID uint, quantity int, reason string) (*domain.InventoryLevel, error) {
	level, err := r.lockLevel(ctx, "variant_id = ? AND warehouse_id = ?", variantID, warehouseID)
	if errors.Is(err, domain.ErrLevelNotFound) {
		// No stock record at all means nothing to sell
		return nil, &domain.InsufficientStockError{
			VariantID:   variantID,
			WarehouseID: warehouseID,
			Requested:   quantity,
			Available:   0,
		}
	}
	if err != nil {
		return nil, err
	}

	if level.Quantity < quantity {
		return nil, &domain.InsufficientStockError{
			VariantID:   variantID,
			WarehouseID: warehouseID,
			Requested:   quantity,
			Available:   level.Quantity,
		}
	}

	return r.apply(ctx, level, -quantity, reason, "")
}

func (r *GormLedger) Adjust(ctx context.Context, levelID uint, delta int, reason, notes string) (*domain.InventoryLevel, error) {
	if delta == 0 {
		return nil, domain.ErrZeroDelta
	}

	level, err := r.lockLevel(ctx, "id = ?", levelID)
	if err != nil {
		return nil, err
	}

	if level.Quantity+delta < 0 {
		return nil, &domain.InsufficientStockError{
			VariantID:   level.VariantID,
			WarehouseID: level.WarehouseID,
			Requested:   -delta,
			Available:   level.Quantity,
		}
	}

	return r.apply(ctx, level, delta, reason, notes)
}

func (r *GormLedger) AdjustByVariant(ctx context.Context, variantID, warehouseID uint, delta int, reason, notes string) (*domain.InventoryLevel, error) {
	if delta == 0 {
		return nil, domain.ErrZeroDelta
	}

	level, err := r.lockLevel(ctx, "variant_id = ? AND warehouse_id = ?", variantID, warehouseID)
	if err != nil {
		return nil, err
	}

	if level.Quantity+delta < 0 {
		return nil, &domain.InsufficientStockError{
			VariantID:   variantID,
			WarehouseID: warehouseID,
			Requested:   -delta,
			Available:   level.Quantity,
		}
	}

	return r.apply(ctx, level, delta, reason, notes)
}

func (r *GormLedger) CreateLevel(ctx context.Context, level *domain.InventoryLevel) error {
	return r.db(ctx).Create(level).Error
}

func (r *GormLedger) FindLevel(ctx context.Context, variantID, warehouseID uint) (*domain.InventoryLevel, error) {
	var level domain.InventoryLevel
	err := r.db(ctx).Where("variant_id = ? AND warehouse_id = ?", variantID, warehouseID).First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLevelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *GormLedger) FindLevelByID(ctx context.Context, id uint) (*domain.InventoryLevel, error) {
	var level domain.InventoryLevel
	err := r.db(ctx).First(&level, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLevelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *GormLedger) ListByStore(ctx context.Context, storeID uint) ([]domain.InventoryLevel, error) {
	var levels []domain.InventoryLevel
	err := r.db(ctx).
		Joins("JOIN warehouses ON warehouses.id = inventory_levels.warehouse_id").
		Where("warehouses.store_id = ?", storeID).
		Find(&levels).Error
	return levels, err
}

func (r *GormLedger) ListAdjustments(ctx context.Context, levelID uint, limit, offset int) ([]domain.InventoryAdjustment, error) {
	var adjustments []domain.InventoryAdjustment
	err := r.db(ctx).
		Where("level_id = ?", levelID).
		Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&adjustments).Error
	return adjustments, err
}

func (r *GormLedger) CountByWarehouse(ctx context.Context, warehouseID uint) (int64, error) {
	var count int64
	err := r.db(ctx).Model(&domain.InventoryLevel{}).
		Where("warehouse_id = ?", warehouseID).
		Count(&count).Error
	return count, err
}
