//go:build wireinject
// +build wireinject

package order

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	catalogdomain "github.com/mercatus/storefront/internal/catalog/domain"
	catalogrepository "github.com/mercatus/storefront/internal/catalog/repository"
	inventorydomain "github.com/mercatus/storefront/internal/inventory/domain"
	inventoryrepository "github.com/mercatus/storefront/internal/inventory/repository"
	"github.com/mercatus/storefront/internal/order/delivery/http"
	"github.com/mercatus/storefront/internal/order/domain"
	"github.com/mercatus/storefront/internal/order/repository"
	"github.com/mercatus/storefront/internal/order/usecase/command"
	"github.com/mercatus/storefront/internal/order/usecase/query"
	"github.com/mercatus/storefront/internal/pricing"
	pricingdomain "github.com/mercatus/storefront/internal/pricing/domain"
	pricingrepository "github.com/mercatus/storefront/internal/pricing/repository"
	storedomain "github.com/mercatus/storefront/internal/store/domain"
	storerepository "github.com/mercatus/storefront/internal/store/repository"
	"github.com/mercatus/storefront/pkg/database"
)

// Repository providers
func ProvideOrderRepository(db *gorm.DB) domain.OrderRepository {
	return repository.NewGormOrderRepository(db)
}

func ProvideRefundRepository(db *gorm.DB) domain.RefundRepository {
	return repository.NewGormRefundRepository(db)
}

func ProvideStoreRepository(db *gorm.DB) storedomain.StoreRepository {
	return storerepository.NewGormStoreRepository(db)
}

func ProvideProductRepository(db *gorm.DB) catalogdomain.ProductRepository {
	return catalogrepository.NewGormProductRepository(db)
}

func ProvideWarehouseRepository(db *gorm.DB) catalogdomain.WarehouseRepository {
	return catalogrepository.NewGormWarehouseRepository(db)
}

func ProvideDiscountRepository(db *gorm.DB) pricingdomain.DiscountRepository {
	return pricingrepository.NewGormDiscountRepository(db)
}

func ProvideGiftCardRepository(db *gorm.DB) pricingdomain.GiftCardRepository {
	return pricingrepository.NewGormGiftCardRepository(db)
}

func ProvideLedger(db *gorm.DB) inventorydomain.Ledger {
	return inventoryrepository.NewLedgerWithTracing(db)
}

func ProvideTxManager(db *gorm.DB) database.TxManager {
	return database.NewGormTxManager(db)
}

func ProvideCalculator(
	discounts pricingdomain.DiscountRepository,
	giftCards pricingdomain.GiftCardRepository,
	taxRates pricing.TaxRateLookup,
	fxRates pricing.FXRateLookup,
) *pricing.Calculator {
	return pricing.NewCalculator(discounts, giftCards, taxRates, fxRates)
}

// Command handler providers
func ProvideCheckoutHandler(
	tx database.TxManager,
	stores storedomain.StoreRepository,
	products catalogdomain.ProductRepository,
	warehouses catalogdomain.WarehouseRepository,
	calculator *pricing.Calculator,
	discounts pricingdomain.DiscountRepository,
	giftCards pricingdomain.GiftCardRepository,
	ledger inventorydomain.Ledger,
	orders domain.OrderRepository,
	publisher command.EventPublisher,
) *command.CheckoutHandler {
	return command.NewCheckoutHandler(tx, stores, products, warehouses, calculator, discounts, giftCards, ledger, orders, publisher)
}

func ProvideTransitionHandler(
	tx database.TxManager,
	orders domain.OrderRepository,
	ledger inventorydomain.Ledger,
	publisher command.EventPublisher,
) *command.TransitionHandler {
	return command.NewTransitionHandler(tx, orders, ledger, publisher)
}

func ProvideUpdateNotesHandler(tx database.TxManager, orders domain.OrderRepository) *command.UpdateNotesHandler {
	return command.NewUpdateNotesHandler(tx, orders)
}

func ProvideCreateRefundHandler(
	tx database.TxManager,
	orders domain.OrderRepository,
	refunds domain.RefundRepository,
) *command.CreateRefundHandler {
	return command.NewCreateRefundHandler(tx, orders, refunds)
}

func ProvideDecideRefundHandler(
	tx database.TxManager,
	orders domain.OrderRepository,
	refunds domain.RefundRepository,
) *command.DecideRefundHandler {
	return command.NewDecideRefundHandler(tx, orders, refunds)
}

// Query handler providers
func ProvideGetOrderHandler(orders domain.OrderRepository, refunds domain.RefundRepository) *query.GetOrderHandler {
	return query.NewGetOrderHandler(orders, refunds)
}

func ProvideListOrdersHandler(orders domain.OrderRepository) *query.ListOrdersHandler {
	return query.NewListOrdersHandler(orders)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideOrderRepository,
	ProvideRefundRepository,
	ProvideStoreRepository,
	ProvideProductRepository,
	ProvideWarehouseRepository,
	ProvideDiscountRepository,
	ProvideGiftCardRepository,
	ProvideLedger,
	ProvideTxManager,
	ProvideCalculator,
)

var CommandHandlerSet = wire.NewSet(
	ProvideCheckoutHandler,
	ProvideTransitionHandler,
	ProvideUpdateNotesHandler,
	ProvideCreateRefundHandler,
	ProvideDecideRefundHandler,
)

var QueryHandlerSet = wire.NewSet(
	ProvideGetOrderHandler,
	ProvideListOrdersHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	CommandHandlerSet,
	QueryHandlerSet,
)

// InitializeHTTPHandler initializes the order HTTP handler with all dependencies
func InitializeHTTPHandler(
	db *gorm.DB,
	publisher command.EventPublisher,
	taxRates pricing.TaxRateLookup,
	fxRates pricing.FXRateLookup,
) (*http.OrderHandler, error) {
	wire.Build(
		AllHandlersSet,
		http.NewOrderHandler,
	)
	return nil, nil
}
