package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mercatus/storefront/internal/store/domain"
	"github.com/mercatus/storefront/pkg/database"
)

type GormStoreRepository struct {
	base *gorm.DB
}

func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{base: db}
}

func (r *GormStoreRepository) AutoMigrate() error {
	return r.base.AutoMigrate(&domain.Store{})
}

func (r *GormStoreRepository) db(ctx context.Context) *gorm.DB {
	return database.FromContext(ctx, r.base)
}

func (r *GormStoreRepository) Create(ctx context.Context, store *domain.Store) error {
	return r.db(ctx).Create(store).Error
}

func (r *GormStoreRepository) FindByID(ctx context.Context, id uint) (*domain.Store, error) {
	var store domain.Store
	err := r.db(ctx).First(&store, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *GormStoreRepository) FindBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	var store domain.Store
	err := r.db(ctx).Where("slug = ?", slug).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *GormStoreRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Store, error) {
	var stores []domain.Store
	err := r.db(ctx).Limit(limit).Offset(offset).Find(&stores).Error
	return stores, err
}

func (r *GormStoreRepository) Update(ctx context.Context, store *domain.Store) error {
	return r.db(ctx).Save(store).Error
}

func (r *GormStoreRepository) Delete(ctx context.Context, id uint) error {
	return r.db(ctx).Delete(&domain.Store{}, id).Error
}
