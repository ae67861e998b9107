//go:build wireinject
// +build wireinject

package inventory

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/mercatus/storefront/internal/inventory/delivery/http"
	"github.com/mercatus/storefront/internal/inventory/domain"
	"github.com/mercatus/storefront/internal/inventory/repository"
	"github.com/mercatus/storefront/internal/inventory/usecase/command"
	"github.com/mercatus/storefront/internal/inventory/usecase/query"
	"github.com/mercatus/storefront/pkg/database"
)

// ProvideLedger provides the inventory ledger
func ProvideLedger(db *gorm.DB) domain.Ledger {
	return repository.NewLedgerWithTracing(db)
}

func ProvideTxManager(db *gorm.DB) database.TxManager {
	return database.NewGormTxManager(db)
}

// Command handler providers
func ProvideAdjustInventoryHandler(tx database.TxManager, ledger domain.Ledger) *command.AdjustInventoryHandler {
	return command.NewAdjustInventoryHandler(tx, ledger)
}

func ProvideCreateLevelHandler(tx database.TxManager, ledger domain.Ledger) *command.CreateLevelHandler {
	return command.NewCreateLevelHandler(tx, ledger)
}

// Query handler providers
func ProvideListLevelsHandler(ledger domain.Ledger) *query.ListLevelsHandler {
	return query.NewListLevelsHandler(ledger)
}

func ProvideListAdjustmentsHandler(ledger domain.Ledger) *query.ListAdjustmentsHandler {
	return query.NewListAdjustmentsHandler(ledger)
}

// Wire sets
var LedgerSet = wire.NewSet(
	ProvideLedger,
	ProvideTxManager,
)

var HandlerSet = wire.NewSet(
	ProvideAdjustInventoryHandler,
	ProvideCreateLevelHandler,
	ProvideListLevelsHandler,
	ProvideListAdjustmentsHandler,
)

// InitializeHTTPHandler initializes the inventory HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB) (*http.InventoryHandler, error) {
	wire.Build(
		LedgerSet,
		HandlerSet,
		http.NewInventoryHandler,
	)
	return nil, nil
}
