package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogdomain "github.com/mercatus/storefront/internal/catalog/domain"
	inventorydomain "github.com/mercatus/storefront/internal/inventory/domain"
	"github.com/mercatus/storefront/internal/order/domain"
	"github.com/mercatus/storefront/internal/pricing"
	pricingdomain "github.com/mercatus/storefront/internal/pricing/domain"
	storedomain "github.com/mercatus/storefront/internal/store/domain"
	"github.com/mercatus/storefront/kafka"
	"github.com/mercatus/storefront/pkg/database"
	"github.com/mercatus/storefront/pkg/logger"
)

// conflictRetries bounds internal retries on lock contention before the
// conflict is surfaced to the caller.
const conflictRetries = 3

// CheckoutLine is one requested cart line. WarehouseID overrides the
// store's default warehouse for that line.
type CheckoutLine struct {
	VariantID   uint
	Quantity    int
	WarehouseID *uint
}

// CheckoutCommand represents a public cart submission
type CheckoutCommand struct {
	StoreSlug       string
	CustomerEmail   string
	Lines           []CheckoutLine
	ShippingAddress domain.Address
	DiscountCode    *string
	GiftCardCode    *string
	Currency        *string
}

// CheckoutResult is the client-facing outcome of a successful checkout
type CheckoutResult struct {
	OrderID   uint            `json:"order_id"`
	Reference string          `json:"reference"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
}

// CheckoutHandler turns a cart submission into a durable pending order, or
// a clean failure with no partial effects. Pricing, stock decrements,
// discount and gift card charges and the order insert all commit together.
type CheckoutHandler struct {
	tx         database.TxManager
	stores     storedomain.StoreRepository
	products   catalogdomain.ProductRepository
	warehouses catalogdomain.WarehouseRepository
	calculator *pricing.Calculator
	discounts  pricingdomain.DiscountRepository
	giftCards  pricingdomain.GiftCardRepository
	ledger     inventorydomain.Ledger
	orders     domain.OrderRepository
	publisher  EventPublisher
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(
	tx database.TxManager,
	stores storedomain.StoreRepository,
	products catalogdomain.ProductRepository,
	warehouses catalogdomain.WarehouseRepository,
	calculator *pricing.Calculator,
	discounts pricingdomain.DiscountRepository,
	giftCards pricingdomain.GiftCardRepository,
	ledger inventorydomain.Ledger,
	orders domain.OrderRepository,
	publisher EventPublisher,
) *CheckoutHandler {
	return &CheckoutHandler{
		tx:         tx,
		stores:     stores,
		products:   products,
		warehouses: warehouses,
		calculator: calculator,
		discounts:  discounts,
		giftCards:  giftCards,
		ledger:     ledger,
		orders:     orders,
		publisher:  publisher,
	}
}

// Handle executes the checkout command. Lock-contention conflicts are
// retried a bounded number of times; business failures are not.
func (h *CheckoutHandler) Handle(ctx context.Context, cmd CheckoutCommand) (*CheckoutResult, error) {
	if err := h.validate(cmd); err != nil {
		return nil, err
	}

	var order *domain.Order
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		order, err = h.attempt(ctx, cmd)
		if !errors.Is(err, database.ErrTxConflict) {
			break
		}
		logger.Warn(ctx).
			Int("attempt", attempt+1).
			Str("store_slug", cmd.StoreSlug).
			Msg("Checkout transaction conflict, retrying")
	}
	if err != nil {
		return nil, err
	}

	h.emitCreated(ctx, order)

	return &CheckoutResult{
		OrderID:   order.ID,
		Reference: order.Reference,
		Total:     order.Total,
		Currency:  order.Currency,
	}, nil
}

func (h *CheckoutHandler) validate(cmd CheckoutCommand) error {
	if cmd.StoreSlug == "" {
		return fmt.Errorf("store_slug is required")
	}
	if cmd.CustomerEmail == "" || !strings.Contains(cmd.CustomerEmail, "@") {
		return fmt.Errorf("customer_email is invalid")
	}
	if len(cmd.Lines) == 0 {
		return fmt.Errorf("at least one line item is required")
	}
	for _, line := range cmd.Lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("line quantity must be positive")
		}
	}
	if cmd.ShippingAddress.Line1 == "" || cmd.ShippingAddress.Country == "" {
		return fmt.Errorf("shipping address is incomplete")
	}
	return nil
}

// attempt runs one checkout transaction end to end
func (h *CheckoutHandler) attempt(ctx context.Context, cmd CheckoutCommand) (*domain.Order, error) {
	var created *domain.Order

	err := h.tx.WithTx(ctx, func(ctx context.Context) error {
		store, err := h.stores.FindBySlug(ctx, cmd.StoreSlug)
		if err != nil {
			return err
		}
		if !store.IsActive {
			return storedomain.ErrStoreNotFound
		}

		lines, pricingLines, err := h.resolveLines(ctx, store, cmd.Lines)
		if err != nil {
			return err
		}

		breakdown, err := h.calculator.Quote(ctx, pricing.QuoteInput{
			Store:          store,
			Lines:          pricingLines,
			DiscountCode:   cmd.DiscountCode,
			GiftCardCode:   cmd.GiftCardCode,
			TargetCurrency: cmd.Currency,
			Country:        cmd.ShippingAddress.Country,
			State:          cmd.ShippingAddress.State,
		})
		if err != nil {
			return err
		}

		// Decrement in a deterministic order so concurrent multi-line
		// checkouts acquire row locks consistently.
		for _, idx := range decrementOrder(lines) {
			line := lines[idx]
			if _, err := h.ledger.Decrement(ctx, line.VariantID, line.WarehouseID, line.Quantity, inventorydomain.ReasonCheckout); err != nil {
				return err
			}
		}

		order := &domain.Order{
			StoreID:         store.ID,
			Reference:       newReference(),
			Status:          domain.StatusPending,
			CustomerEmail:   cmd.CustomerEmail,
			ShippingAddress: cmd.ShippingAddress,
			Subtotal:        breakdown.Subtotal,
			DiscountAmount:  breakdown.DiscountAmount,
			TaxAmount:       breakdown.TaxAmount,
			ShippingAmount:  breakdown.ShippingAmount,
			GiftCardApplied: breakdown.GiftCardApplied,
			Total:           breakdown.Total,
			Currency:        breakdown.Currency,
			LineItems:       lines,
		}

		if breakdown.Discount != nil {
			if err := h.discounts.IncrementUses(ctx, breakdown.Discount.ID); err != nil {
				return err
			}
			order.DiscountID = &breakdown.Discount.ID
		}
		if breakdown.GiftCard != nil && breakdown.GiftCardApplied.IsPositive() {
			if err := h.giftCards.Debit(ctx, breakdown.GiftCard.ID, breakdown.GiftCardApplied); err != nil {
				return err
			}
			order.GiftCardID = &breakdown.GiftCard.ID
		}

		if err := h.orders.Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// emitCreated publishes the order.created event after commit. Failures are
// logged, never returned: a lost notification must not fail the checkout.
func (h *CheckoutHandler) emitCreated(ctx context.Context, order *domain.Order) {
	if h.publisher == nil {
		return
	}

	event := kafka.OrderEvent{
		EventType:     kafka.EventTypeOrderCreated,
		OrderID:       order.ID,
		OrderRef:      order.Reference,
		StoreID:       order.StoreID,
		CustomerEmail: order.CustomerEmail,
		Status:        string(order.Status),
		Total:         order.Total,
		Currency:      order.Currency,
	}

	if err := h.publisher.PublishOrderEvent(ctx, event); err != nil {
		logger.Error(ctx).
			Err(err).
			Uint("order_id", order.ID).
			Str("event_type", kafka.EventTypeOrderCreated).
			Msg("Failed to publish order lifecycle event")
	}
}

// resolveLines turns requested lines into order line items with copied unit
// prices and resolved warehouses, plus the matching pricing input.
func (h *CheckoutHandler) resolveLines(ctx context.Context, store *storedomain.Store, requested []CheckoutLine) ([]domain.OrderLineItem, []pricing.LineItem, error) {
	var defaultWarehouse *catalogdomain.Warehouse

	lines := make([]domain.OrderLineItem, 0, len(requested))
	pricingLines := make([]pricing.LineItem, 0, len(requested))

	for i, req := range requested {
		resolved, err := h.products.ResolveVariant(ctx, req.VariantID)
		if err != nil {
			return nil, nil, err
		}
		if resolved.Product.StoreID != store.ID || !resolved.Product.IsActive {
			return nil, nil, catalogdomain.ErrVariantNotFound
		}

		warehouseID := uint(0)
		if req.WarehouseID != nil {
			warehouse, err := h.warehouses.FindByID(ctx, *req.WarehouseID)
			if err != nil {
				return nil, nil, err
			}
			if warehouse.StoreID != store.ID {
				return nil, nil, catalogdomain.ErrWarehouseNotFound
			}
			warehouseID = warehouse.ID
		} else {
			if defaultWarehouse == nil {
				defaultWarehouse, err = h.warehouses.FindDefault(ctx, store.ID)
				if err != nil {
					return nil, nil, err
				}
			}
			warehouseID = defaultWarehouse.ID
		}

		unitPrice := resolved.Variant.UnitPrice(resolved.Product)

		lines = append(lines, domain.OrderLineItem{
			VariantID:   resolved.Variant.ID,
			WarehouseID: warehouseID,
			SKU:         resolved.Variant.SKU,
			Quantity:    req.Quantity,
			UnitPrice:   unitPrice,
			Position:    i,
		})
		pricingLines = append(pricingLines, pricing.LineItem{
			VariantID: resolved.Variant.ID,
			SKU:       resolved.Variant.SKU,
			UnitPrice: unitPrice,
			Quantity:  req.Quantity,
		})
	}

	return lines, pricingLines, nil
}

// decrementOrder returns line indexes sorted by (variant, warehouse) so all
// checkouts lock rows in the same order.
func decrementOrder(lines []domain.OrderLineItem) []int {
	idx := make([]int, len(lines))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		la, lb := lines[idx[a]], lines[idx[b]]
		if la.VariantID != lb.VariantID {
			return la.VariantID < lb.VariantID
		}
		return la.WarehouseID < lb.WarehouseID
	})
	return idx
}

// newReference generates a client-facing order reference
func newReference() string {
	return fmt.Sprintf("ORD-%s", strings.ToUpper(uuid.New().String()[:8]))
}
