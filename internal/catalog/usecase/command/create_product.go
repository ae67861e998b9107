package command

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mercatus/storefront/internal/catalog/domain"
)

// VariantInput is one variant requested at product creation
type VariantInput struct {
	SKU           string
	Options       string
	PriceOverride *decimal.Decimal
}

// CreateProductCommand represents the command to create a product with its
// variants.
type CreateProductCommand struct {
	StoreID     uint
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Variants    []VariantInput
}

// CreateProductHandler handles create product command
type CreateProductHandler struct {
	products domain.ProductRepository
}

// NewCreateProductHandler creates a new create product handler
func NewCreateProductHandler(products domain.ProductRepository) *CreateProductHandler {
	return &CreateProductHandler{products: products}
}

// Handle executes the create product command. Every product gets at least
// one variant; a bare product becomes a single default variant.
func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	if cmd.StoreID == 0 {
		return nil, fmt.Errorf("store_id is required")
	}
	if cmd.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if cmd.Price.IsNegative() {
		return nil, fmt.Errorf("price cannot be negative")
	}
	if len(cmd.Variants) == 0 {
		return nil, fmt.Errorf("at least one variant is required")
	}

	product := &domain.Product{
		StoreID:     cmd.StoreID,
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		Category:    cmd.Category,
		IsActive:    true,
	}
	for _, v := range cmd.Variants {
		if v.SKU == "" {
			return nil, fmt.Errorf("variant sku is required")
		}
		if v.PriceOverride != nil && v.PriceOverride.IsNegative() {
			return nil, fmt.Errorf("price override cannot be negative")
		}
		product.Variants = append(product.Variants, domain.Variant{
			SKU:           v.SKU,
			Options:       v.Options,
			PriceOverride: v.PriceOverride,
		})
	}

	if err := h.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}
