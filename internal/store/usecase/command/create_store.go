package command

import (
	"context"
	"fmt"
	"regexp"

	"github.com/mercatus/storefront/internal/store/domain"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CreateStoreCommand represents the command to create a store
type CreateStoreCommand struct {
	Name     string
	Slug     string
	Currency string
}

// CreateStoreHandler handles create store command
type CreateStoreHandler struct {
	stores domain.StoreRepository
}

// NewCreateStoreHandler creates a new create store handler
func NewCreateStoreHandler(stores domain.StoreRepository) *CreateStoreHandler {
	return &CreateStoreHandler{stores: stores}
}

// Handle executes the create store command
func (h *CreateStoreHandler) Handle(ctx context.Context, cmd CreateStoreCommand) (*domain.Store, error) {
	if cmd.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if !slugPattern.MatchString(cmd.Slug) {
		return nil, fmt.Errorf("slug must be lowercase alphanumeric with hyphens")
	}
	if cmd.Currency == "" {
		cmd.Currency = "USD"
	}

	store := &domain.Store{
		Name:     cmd.Name,
		Slug:     cmd.Slug,
		Currency: cmd.Currency,
		IsActive: true,
	}

	if err := h.stores.Create(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	return store, nil
}
