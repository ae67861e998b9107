package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercatus/storefront/internal/pricing/domain"
	"github.com/mercatus/storefront/pkg/database"
)

type GormDiscountRepository struct {
	base *gorm.DB
}

func NewGormDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{base: db}
}

func (r *GormDiscountRepository) AutoMigrate() error {
	return r.base.AutoMigrate(&domain.Discount{})
}

func (r *GormDiscountRepository) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.base)
}

func (r *GormDiscountRepository) Create(ctx context.Context, discount *domain.Discount) error {
	return r.db(ctx).Create(discount).Error
}

func (r *GormDiscountRepository) FindByCode(ctx context.Context, storeID uint, code string) (*domain.Discount, error) {
	var discount domain.Discount
	err := r.db(ctx).Where("store_id = ? AND code = ?", storeID, code).First(&discount).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrDiscountInvalid
	}
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *GormDiscountRepository) FindByStore(ctx context.Context, storeID uint, limit, offset int) ([]domain.Discount, error) {
	var discounts []domain.Discount
	err := r.db(ctx).Where("store_id = ?", storeID).Limit(limit).Offset(offset).Find(&discounts).Error
	return discounts, err
}

// IncrementUses is a guarded single-statement update: the WHERE clause only
// matches while uses remain, so two concurrent redemptions of a last use
// cannot both succeed.
func (r *GormDiscountRepository) IncrementUses(ctx context.Context, id uint) error {
	res := r.db(ctx).Model(&domain.Discount{}).
		Where("id = ? AND (max_uses IS NULL OR current_uses < max_uses)", id).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrDiscountInvalid
	}
	return nil
}

type GormGiftCardRepository struct {
	base *gorm.DB
}

func NewGormGiftCardRepository(db *gorm.DB) *GormGiftCardRepository {
	return &GormGiftCardRepository{base: db}
}

func (r *GormGiftCardRepository) AutoMigrate() error {
	return r.base.AutoMigrate(&domain.GiftCard{})
}

func (r *GormGiftCardRepository) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.base)
}

func (r *GormGiftCardRepository) Create(ctx context.Context, card *domain.GiftCard) error {
	return r.db(ctx).Create(card).Error
}

func (r *GormGiftCardRepository) FindByCode(ctx context.Context, storeID uint, code string) (*domain.GiftCard, error) {
	var card domain.GiftCard
	err := r.db(ctx).Where("store_id = ? AND code = ?", storeID, code).First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrGiftCardInvalid
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// Debit spends amount from an active card. The guarded WHERE keeps the
// balance non-negative under concurrent redemptions; a second statement
// flips the card to depleted once the balance hits zero.
func (r *GormGiftCardRepository) Debit(ctx context.Context, id uint, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrGiftCardInvalid
	}

	res := r.db(ctx).Model(&domain.GiftCard{}).
		Where("id = ? AND status = ? AND current_balance >= ?", id, domain.GiftCardActive, amount).
		UpdateColumn("current_balance", gorm.Expr("current_balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrGiftCardInvalid
	}

	return r.db(ctx).Model(&domain.GiftCard{}).
		Where("id = ? AND current_balance = 0 AND status = ?", id, domain.GiftCardActive).
		UpdateColumn("status", domain.GiftCardDepleted).Error
}

// Credit returns value to a card without exceeding its initial balance, and
// reactivates a depleted card.
func (r *GormGiftCardRepository) Credit(ctx context.Context, id uint, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrGiftCardInvalid
	}

	res := r.db(ctx).Model(&domain.GiftCard{}).
		Where("id = ? AND status <> ? AND current_balance + ? <= initial_balance", id, domain.GiftCardDisabled, amount).
		UpdateColumns(map[string]interface{}{
			"current_balance": gorm.Expr("current_balance + ?", amount),
			"status":          domain.GiftCardActive,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrGiftCardInvalid
	}
	return nil
}
