package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mercatus/storefront/internal/catalog/domain"
	"github.com/mercatus/storefront/pkg/database"
)

type GormProductRepository struct {
	base *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{base: db}
}

func (r *GormProductRepository) AutoMigrate() error {
	return r.base.AutoMigrate(&domain.Product{}, &domain.Variant{})
}

func (r *GormProductRepository) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.base)
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.db(ctx).Create(product).Error
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	err := r.db(ctx).Preload("Variants").First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormProductRepository) FindByStore(ctx context.Context, storeID uint, limit, offset int) ([]domain.Product, error) {
	var products []domain.Product
	err := r.db(ctx).Where("store_id = ?", storeID).
		Preload("Variants").
		Limit(limit).Offset(offset).
		Find(&products).Error
	return products, err
}

func (r *GormProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return r.db(ctx).Save(product).Error
}

func (r *GormProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db(ctx).Delete(&domain.Product{}, id).Error
}

func (r *GormProductRepository) CreateVariant(ctx context.Context, variant *domain.Variant) error {
	return r.db(ctx).Create(variant).Error
}

// ResolveVariant loads a variant together with its owning product, which
// carries the store ownership and the fallback price.
func (r *GormProductRepository) ResolveVariant(ctx context.Context, variantID uint) (*domain.ResolvedVariant, error) {
	var variant domain.Variant
	err := r.db(ctx).First(&variant, variantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrVariantNotFound
	}
	if err != nil {
		return nil, err
	}

	var product domain.Product
	err = r.db(ctx).First(&product, variant.ProductID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrVariantNotFound
	}
	if err != nil {
		return nil, err
	}

	return &domain.ResolvedVariant{Variant: &variant, Product: &product}, nil
}

func (r *GormProductRepository) FindVariantBySKU(ctx context.Context, sku string) (*domain.Variant, error) {
	var variant domain.Variant
	err := r.db(ctx).Where("sku = ?", sku).First(&variant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrVariantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

type GormWarehouseRepository struct {
	base *gorm.DB
}

func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{base: db}
}

func (r *GormWarehouseRepository) AutoMigrate() error {
	return r.base.AutoMigrate(&domain.Warehouse{})
}

func (r *GormWarehouseRepository) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.base)
}

func (r *GormWarehouseRepository) Create(ctx context.Context, warehouse *domain.Warehouse) error {
	return r.db(ctx).Create(warehouse).Error
}

func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uint) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	err := r.db(ctx).First(&warehouse, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrWarehouseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (r *GormWarehouseRepository) FindByStore(ctx context.Context, storeID uint) ([]domain.Warehouse, error) {
	var warehouses []domain.Warehouse
	err := r.db(ctx).Where("store_id = ?", storeID).Find(&warehouses).Error
	return warehouses, err
}

func (r *GormWarehouseRepository) FindDefault(ctx context.Context, storeID uint) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	err := r.db(ctx).Where("store_id = ? AND is_default = ?", storeID, true).First(&warehouse).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrWarehouseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (r *GormWarehouseRepository) Update(ctx context.Context, warehouse *domain.Warehouse) error {
	return r.db(ctx).Save(warehouse).Error
}

func (r *GormWarehouseRepository) Delete(ctx context.Context, id uint) error {
	return r.db(ctx).Delete(&domain.Warehouse{}, id).Error
}
