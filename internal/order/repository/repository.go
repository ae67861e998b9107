package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mercatus/storefront/internal/order/domain"
	"github.com/mercatus/storefront/pkg/database"
)

type GormOrderRepository struct {
	base *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{base: db}
}

func (r *GormOrderRepository) AutoMigrate() error {
	return r.base.AutoMigrate(&domain.Order{}, &domain.OrderLineItem{})
}

func (r *GormOrderRepository) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.base)
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db(ctx).Create(order).Error
}

func (r *GormOrderRepository) findOne(ctx context.Context, lock bool, query string, args ...interface{}) (*domain.Order, error) {
	tx := r.db(ctx)
	if lock {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var order domain.Order
	err := tx.Where(query, args...).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	// Line items are loaded separately so the row lock does not spill into
	// a join.
	err = r.db(ctx).Where("order_id = ?", order.ID).Order("position ASC").Find(&order.LineItems).Error
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	return r.findOne(ctx, false, "id = ?", id)
}

func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uint) (*domain.Order, error) {
	return r.findOne(ctx, true, "id = ?", id)
}

func (r *GormOrderRepository) FindByReference(ctx context.Context, reference string) (*domain.Order, error) {
	return r.findOne(ctx, false, "reference = ?", reference)
}

func (r *GormOrderRepository) FindByStore(ctx context.Context, storeID uint, limit, offset int) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db(ctx).
		Where("store_id = ?", storeID).
		Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	return orders, err
}

func (r *GormOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	return r.db(ctx).Omit("LineItems").Save(order).Error
}

func (r *GormOrderRepository) CountOpenByStore(ctx context.Context, storeID uint) (int64, error) {
	var count int64
	err := r.db(ctx).Model(&domain.Order{}).
		Where("store_id = ? AND status NOT IN ?", storeID, []domain.Status{domain.StatusDelivered, domain.StatusCancelled}).
		Count(&count).Error
	return count, err
}

type GormRefundRepository struct {
	base *gorm.DB
}

func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{base: db}
}

func (r *GormRefundRepository) AutoMigrate() error {
	return r.base.AutoMigrate(&domain.Refund{})
}

func (r *GormRefundRepository) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.base)
}

func (r *GormRefundRepository) Create(ctx context.Context, refund *domain.Refund) error {
	return r.db(ctx).Create(refund).Error
}

func (r *GormRefundRepository) FindByID(ctx context.Context, id uint) (*domain.Refund, error) {
	var refund domain.Refund
	err := r.db(ctx).First(&refund, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRefundNotFound
	}
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *GormRefundRepository) FindByOrder(ctx context.Context, orderID uint) ([]domain.Refund, error) {
	var refunds []domain.Refund
	err := r.db(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&refunds).Error
	return refunds, err
}

func (r *GormRefundRepository) Update(ctx context.Context, refund *domain.Refund) error {
	return r.db(ctx).Save(refund).Error
}

func (r *GormRefundRepository) SumApproved(ctx context.Context, orderID uint) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db(ctx).Model(&domain.Refund{}).
		Select("SUM(amount)").
		Where("order_id = ? AND status = ?", orderID, domain.RefundApproved).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
