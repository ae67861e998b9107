package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercatus/storefront/internal/inventory/domain"
)

type passTxManager struct{}

func (passTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeLedger keeps levels and the adjustment log in memory with the same
// guarantees the real ledger gives: no negative quantities, one audit row per
// change.
type fakeLedger struct {
	levels      map[uint]*domain.InventoryLevel
	adjustments []domain.InventoryAdjustment
	nextID      uint
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{levels: make(map[uint]*domain.InventoryLevel)}
}

func (l *fakeLedger) apply(level *domain.InventoryLevel, delta int, reason, notes string) (*domain.InventoryLevel, error) {
	if level.Quantity+delta < 0 {
		return nil, &domain.InsufficientStockError{
			VariantID:   level.VariantID,
			WarehouseID: level.WarehouseID,
			Requested:   -delta,
			Available:   level.Quantity,
		}
	}
	level.Quantity += delta
	l.adjustments = append(l.adjustments, domain.InventoryAdjustment{
		LevelID:           level.ID,
		Delta:             delta,
		Reason:            reason,
		Notes:             notes,
		ResultingQuantity: level.Quantity,
	})
	return level, nil
}

func (l *fakeLedger) Decrement(_ context.Context, variantID, warehouseID uint, quantity int, reason string) (*domain.InventoryLevel, error) {
	level, err := l.find(variantID, warehouseID)
	if err != nil {
		return nil, err
	}
	return l.apply(level, -quantity, reason, "")
}

func (l *fakeLedger) Adjust(_ context.Context, levelID uint, delta int, reason, notes string) (*domain.InventoryLevel, error) {
	level, ok := l.levels[levelID]
	if !ok {
		return nil, domain.ErrLevelNotFound
	}
	return l.apply(level, delta, reason, notes)
}

func (l *fakeLedger) AdjustByVariant(_ context.Context, variantID, warehouseID uint, delta int, reason, notes string) (*domain.InventoryLevel, error) {
	level, err := l.find(variantID, warehouseID)
	if err != nil {
		return nil, err
	}
	return l.apply(level, delta, reason, notes)
}

func (l *fakeLedger) CreateLevel(_ context.Context, level *domain.InventoryLevel) error {
	l.nextID++
	level.ID = l.nextID
	l.levels[level.ID] = level
	return nil
}

func (l *fakeLedger) find(variantID, warehouseID uint) (*domain.InventoryLevel, error) {
	for _, level := range l.levels {
		if level.VariantID == variantID && level.WarehouseID == warehouseID {
			return level, nil
		}
	}
	return nil, domain.ErrLevelNotFound
}

func (l *fakeLedger) FindLevel(_ context.Context, variantID, warehouseID uint) (*domain.InventoryLevel, error) {
	return l.find(variantID, warehouseID)
}

func (l *fakeLedger) FindLevelByID(_ context.Context, id uint) (*domain.InventoryLevel, error) {
	level, ok := l.levels[id]
	if !ok {
		return nil, domain.ErrLevelNotFound
	}
	return level, nil
}

func (l *fakeLedger) ListByStore(_ context.Context, _ uint) ([]domain.InventoryLevel, error) {
	out := make([]domain.InventoryLevel, 0, len(l.levels))
	for _, level := range l.levels {
		out = append(out, *level)
	}
	return out, nil
}

func (l *fakeLedger) ListAdjustments(_ context.Context, levelID uint, _, _ int) ([]domain.InventoryAdjustment, error) {
	var out []domain.InventoryAdjustment
	for _, adj := range l.adjustments {
		if adj.LevelID == levelID {
			out = append(out, adj)
		}
	}
	return out, nil
}

func (l *fakeLedger) CountByWarehouse(_ context.Context, warehouseID uint) (int64, error) {
	var n int64
	for _, level := range l.levels {
		if level.WarehouseID == warehouseID {
			n++
		}
	}
	return n, nil
}

func seedLevel(l *fakeLedger, quantity int) *domain.InventoryLevel {
	level := &domain.InventoryLevel{VariantID: 1, WarehouseID: 1, Quantity: quantity}
	_ = l.CreateLevel(context.Background(), level)
	return level
}

func TestAdjustInventoryAppliesDelta(t *testing.T) {
	ledger := newFakeLedger()
	level := seedLevel(ledger, 10)
	handler := NewAdjustInventoryHandler(passTxManager{}, ledger)

	updated, err := handler.Handle(context.Background(), AdjustInventoryCommand{
		LevelID: level.ID,
		Delta:   -4,
		Reason:  domain.ReasonDamaged,
		Notes:   "water damage in aisle 3",
	})
	require.NoError(t, err)

	assert.Equal(t, 6, updated.Quantity)
	require.Len(t, ledger.adjustments, 1)
	assert.Equal(t, domain.ReasonDamaged, ledger.adjustments[0].Reason)
	assert.Equal(t, -4, ledger.adjustments[0].Delta)
	assert.Equal(t, 6, ledger.adjustments[0].ResultingQuantity)
}

func TestAdjustInventoryDefaultsToCorrection(t *testing.T) {
	ledger := newFakeLedger()
	level := seedLevel(ledger, 10)
	handler := NewAdjustInventoryHandler(passTxManager{}, ledger)

	_, err := handler.Handle(context.Background(), AdjustInventoryCommand{
		LevelID: level.ID,
		Delta:   3,
	})
	require.NoError(t, err)

	require.Len(t, ledger.adjustments, 1)
	assert.Equal(t, domain.ReasonCorrection, ledger.adjustments[0].Reason)
}

func TestAdjustInventoryRejectsZeroDelta(t *testing.T) {
	ledger := newFakeLedger()
	level := seedLevel(ledger, 10)
	handler := NewAdjustInventoryHandler(passTxManager{}, ledger)

	_, err := handler.Handle(context.Background(), AdjustInventoryCommand{
		LevelID: level.ID,
		Delta:   0,
	})
	assert.ErrorIs(t, err, domain.ErrZeroDelta)
	assert.Empty(t, ledger.adjustments)
}

func TestAdjustInventoryCannotGoNegative(t *testing.T) {
	ledger := newFakeLedger()
	level := seedLevel(ledger, 5)
	handler := NewAdjustInventoryHandler(passTxManager{}, ledger)

	_, err := handler.Handle(context.Background(), AdjustInventoryCommand{
		LevelID: level.ID,
		Delta:   -8,
	})

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 8, stockErr.Requested)
	assert.Equal(t, 5, ledger.levels[level.ID].Quantity)
	assert.Empty(t, ledger.adjustments)
}

func TestAdjustInventoryUnknownLevel(t *testing.T) {
	ledger := newFakeLedger()
	handler := NewAdjustInventoryHandler(passTxManager{}, ledger)

	_, err := handler.Handle(context.Background(), AdjustInventoryCommand{
		LevelID: 42,
		Delta:   1,
	})
	assert.ErrorIs(t, err, domain.ErrLevelNotFound)
}

func TestCreateLevelWithOpeningStock(t *testing.T) {
	ledger := newFakeLedger()
	handler := NewCreateLevelHandler(passTxManager{}, ledger)

	level, err := handler.Handle(context.Background(), CreateLevelCommand{
		VariantID:    7,
		WarehouseID:  2,
		Quantity:     25,
		ReorderPoint: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, 25, level.Quantity)
	require.Len(t, ledger.adjustments, 1)
	assert.Equal(t, domain.ReasonReceived, ledger.adjustments[0].Reason)
	assert.Equal(t, "opening stock", ledger.adjustments[0].Notes)
	assert.Equal(t, 25, ledger.adjustments[0].ResultingQuantity)
}

func TestCreateLevelEmptyStartsAtZero(t *testing.T) {
	ledger := newFakeLedger()
	handler := NewCreateLevelHandler(passTxManager{}, ledger)

	level, err := handler.Handle(context.Background(), CreateLevelCommand{
		VariantID:   7,
		WarehouseID: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, level.Quantity)
	assert.Empty(t, ledger.adjustments, "no opening adjustment for an empty level")
}

func TestCreateLevelRejectsNegativeQuantity(t *testing.T) {
	ledger := newFakeLedger()
	handler := NewCreateLevelHandler(passTxManager{}, ledger)

	_, err := handler.Handle(context.Background(), CreateLevelCommand{
		VariantID:   7,
		WarehouseID: 2,
		Quantity:    -1,
	})
	assert.Error(t, err)
	assert.Empty(t, ledger.levels)
}
