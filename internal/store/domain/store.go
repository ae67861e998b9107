package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrStoreNotFound is returned when a store does not exist or is inactive
var ErrStoreNotFound = errors.New("store not found")

// ErrStoreHasOpenOrders blocks deletion of a store with undelivered orders
var ErrStoreHasOpenOrders = errors.New("store has open orders")

// Store is the tenant root. Products, orders, discounts, gift cards and
// warehouses all belong to exactly one store.
type Store struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Name            string          `json:"name" gorm:"not null"`
	Slug            string          `json:"slug" gorm:"not null;uniqueIndex"`
	Currency        string          `json:"currency" gorm:"size:3;default:'USD'"`
	ShippingFlatFee decimal.Decimal `json:"shipping_flat_fee" gorm:"type:numeric(12,2);default:0"`
	IsActive        bool            `json:"is_active" gorm:"default:true"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Store) TableName() string {
	return "stores"
}

// StoreRepository defines the contract for store data access
type StoreRepository interface {
	Create(ctx context.Context, store *Store) error
	FindByID(ctx context.Context, id uint) (*Store, error)
	FindBySlug(ctx context.Context, slug string) (*Store, error)
	FindAll(ctx context.Context, limit, offset int) ([]Store, error)
	Update(ctx context.Context, store *Store) error
	Delete(ctx context.Context, id uint) error
}
