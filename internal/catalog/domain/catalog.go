package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrVariantNotFound is returned when a variant does not exist or
	// belongs to a different store than the one being sold from.
	ErrVariantNotFound = errors.New("variant not found")

	// ErrWarehouseNotFound is returned when a warehouse lookup misses
	ErrWarehouseNotFound = errors.New("warehouse not found")

	// ErrDefaultWarehouse blocks deletion of a store's default warehouse
	ErrDefaultWarehouse = errors.New("default warehouse cannot be deleted")

	// ErrWarehouseNotEmpty blocks deletion of a warehouse holding inventory
	ErrWarehouseNotEmpty = errors.New("warehouse holds inventory records")
)

// Product represents a sellable product owned by a store
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	StoreID     uint            `json:"store_id" gorm:"not null;index"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Category    string          `json:"category" gorm:"index"`
	IsActive    bool            `json:"is_active" gorm:"default:true"`
	Variants    []Variant       `json:"variants,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// Variant is the purchasable unit: one product configuration with its own
// SKU and its own inventory. Price falls back to the product price when no
// override is set.
type Variant struct {
	ID            uint             `json:"id" gorm:"primaryKey"`
	ProductID     uint             `json:"product_id" gorm:"not null;index"`
	SKU           string           `json:"sku" gorm:"not null;uniqueIndex"`
	Options       string           `json:"options"`
	PriceOverride *decimal.Decimal `json:"price_override" gorm:"type:numeric(12,2)"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Variant) TableName() string {
	return "variants"
}

// UnitPrice resolves the selling price for a variant of the given product
func (v *Variant) UnitPrice(p *Product) decimal.Decimal {
	if v.PriceOverride != nil {
		return *v.PriceOverride
	}
	return p.Price
}

// Warehouse is a stock location belonging to a store. Exactly one warehouse
// per store is the default.
type Warehouse struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	StoreID   uint           `json:"store_id" gorm:"not null;index"`
	Name      string         `json:"name" gorm:"not null"`
	Code      string         `json:"code" gorm:"not null"`
	IsDefault bool           `json:"is_default" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Warehouse) TableName() string {
	return "warehouses"
}

// ResolvedVariant pairs a variant with its owning product so callers can
// resolve price and store ownership in one lookup.
type ResolvedVariant struct {
	Variant *Variant
	Product *Product
}

// ProductRepository defines the contract for product and variant data access
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uint) (*Product, error)
	FindByStore(ctx context.Context, storeID uint, limit, offset int) ([]Product, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uint) error

	CreateVariant(ctx context.Context, variant *Variant) error
	ResolveVariant(ctx context.Context, variantID uint) (*ResolvedVariant, error)
	FindVariantBySKU(ctx context.Context, sku string) (*Variant, error)
}

// WarehouseRepository defines the contract for warehouse data access
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *Warehouse) error
	FindByID(ctx context.Context, id uint) (*Warehouse, error)
	FindByStore(ctx context.Context, storeID uint) ([]Warehouse, error)
	FindDefault(ctx context.Context, storeID uint) (*Warehouse, error)
	Update(ctx context.Context, warehouse *Warehouse) error
	Delete(ctx context.Context, id uint) error
}
