package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/mercatus/storefront/internal/inventory/domain"
)

var tracer = otel.Tracer("inventory-ledger")

// LedgerWithTracing wraps GormLedger with tracing on the mutating operations
type LedgerWithTracing struct {
	*GormLedger
}

// NewLedgerWithTracing creates a new ledger with tracing
func NewLedgerWithTracing(db *gorm.DB) *LedgerWithTracing {
	return &LedgerWithTracing{GormLedger: NewGormLedger(db)}
}

func levelAttributes(variantID, warehouseID uint, delta int, reason string) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.Int("inventory.variant_id", int(variantID)),
		attribute.Int("inventory.warehouse_id", int(warehouseID)),
		attribute.Int("inventory.delta", delta),
		attribute.String("inventory.reason", reason),
	)
}

func (r *LedgerWithTracing) Decrement(ctx context.Context, variantID, warehouseID uint, quantity int, reason string) (*domain.InventoryLevel, error) {
	ctx, span := tracer.Start(ctx, "ledger.Decrement",
		levelAttributes(variantID, warehouseID, -quantity, reason),
	)
	defer span.End()

	level, err := r.GormLedger.Decrement(ctx, variantID, warehouseID, quantity, reason)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("inventory.resulting_quantity", level.Quantity))
	return level, nil
}

func (r *LedgerWithTracing) Adjust(ctx context.Context, levelID uint, delta int, reason, notes string) (*domain.InventoryLevel, error) {
	ctx, span := tracer.Start(ctx, "ledger.Adjust",
		trace.WithAttributes(
			attribute.Int("inventory.level_id", int(levelID)),
			attribute.Int("inventory.delta", delta),
			attribute.String("inventory.reason", reason),
		),
	)
	defer span.End()

	level, err := r.GormLedger.Adjust(ctx, levelID, delta, reason, notes)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("inventory.resulting_quantity", level.Quantity))
	return level, nil
}

func (r *LedgerWithTracing) AdjustByVariant(ctx context.Context, variantID, warehouseID uint, delta int, reason, notes string) (*domain.InventoryLevel, error) {
	ctx, span := tracer.Start(ctx, "ledger.AdjustByVariant",
		levelAttributes(variantID, warehouseID, delta, reason),
	)
	defer span.End()

	level, err := r.GormLedger.AdjustByVariant(ctx, variantID, warehouseID, delta, reason, notes)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("inventory.resulting_quantity", level.Quantity))
	return level, nil
}
