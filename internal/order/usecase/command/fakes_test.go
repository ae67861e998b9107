package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/mercatus/storefront/internal/catalog/domain"
	inventorydomain "github.com/mercatus/storefront/internal/inventory/domain"
	"github.com/mercatus/storefront/internal/order/domain"
	pricingdomain "github.com/mercatus/storefront/internal/pricing/domain"
	storedomain "github.com/mercatus/storefront/internal/store/domain"
	"github.com/mercatus/storefront/kafka"
)

// memStore is shared in-memory state for the fake repositories. The fake
// transaction manager serializes transactions on mu and restores a snapshot
// when the transaction function fails, mirroring commit/rollback semantics.
type memStore struct {
	mu sync.Mutex

	stores     map[uint]*storedomain.Store
	variants   map[uint]*catalogdomain.ResolvedVariant
	warehouses map[uint]*catalogdomain.Warehouse
	levels     map[[2]uint]*inventorydomain.InventoryLevel
	levelAudit []inventorydomain.InventoryAdjustment
	discounts  map[uint]*pricingdomain.Discount
	giftCards  map[uint]*pricingdomain.GiftCard
	orders     map[uint]*domain.Order
	refunds    map[uint]*domain.Refund

	nextLevelID  uint
	nextOrderID  uint
	nextRefundID uint
}

func newMemStore() *memStore {
	return &memStore{
		stores:     make(map[uint]*storedomain.Store),
		variants:   make(map[uint]*catalogdomain.ResolvedVariant),
		warehouses: make(map[uint]*catalogdomain.Warehouse),
		levels:     make(map[[2]uint]*inventorydomain.InventoryLevel),
		discounts:  make(map[uint]*pricingdomain.Discount),
		giftCards:  make(map[uint]*pricingdomain.GiftCard),
		orders:     make(map[uint]*domain.Order),
		refunds:    make(map[uint]*domain.Refund),
	}
}

type memSnapshot struct {
	levels       map[[2]uint]*inventorydomain.InventoryLevel
	levelAudit   []inventorydomain.InventoryAdjustment
	discounts    map[uint]*pricingdomain.Discount
	giftCards    map[uint]*pricingdomain.GiftCard
	orders       map[uint]*domain.Order
	refunds      map[uint]*domain.Refund
	nextLevelID  uint
	nextOrderID  uint
	nextRefundID uint
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		levels:       make(map[[2]uint]*inventorydomain.InventoryLevel, len(m.levels)),
		levelAudit:   append([]inventorydomain.InventoryAdjustment{}, m.levelAudit...),
		discounts:    make(map[uint]*pricingdomain.Discount, len(m.discounts)),
		giftCards:    make(map[uint]*pricingdomain.GiftCard, len(m.giftCards)),
		orders:       make(map[uint]*domain.Order, len(m.orders)),
		refunds:      make(map[uint]*domain.Refund, len(m.refunds)),
		nextLevelID:  m.nextLevelID,
		nextOrderID:  m.nextOrderID,
		nextRefundID: m.nextRefundID,
	}
	for k, v := range m.levels {
		cp := *v
		s.levels[k] = &cp
	}
	for k, v := range m.discounts {
		cp := *v
		s.discounts[k] = &cp
	}
	for k, v := range m.giftCards {
		cp := *v
		s.giftCards[k] = &cp
	}
	for k, v := range m.orders {
		cp := *v
		cp.LineItems = append([]domain.OrderLineItem{}, v.LineItems...)
		s.orders[k] = &cp
	}
	for k, v := range m.refunds {
		cp := *v
		s.refunds[k] = &cp
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.levels = s.levels
	m.levelAudit = s.levelAudit
	m.discounts = s.discounts
	m.giftCards = s.giftCards
	m.orders = s.orders
	m.refunds = s.refunds
	m.nextLevelID = s.nextLevelID
	m.nextOrderID = s.nextOrderID
	m.nextRefundID = s.nextRefundID
}

// fakeTxManager serializes transactions and rolls back mutations on error
type fakeTxManager struct {
	store *memStore
}

func (f *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	snap := f.store.snapshot()
	if err := fn(ctx); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

// fakeStores implements storedomain.StoreRepository
type fakeStores struct{ store *memStore }

func (f *fakeStores) Create(_ context.Context, s *storedomain.Store) error {
	f.store.stores[s.ID] = s
	return nil
}

func (f *fakeStores) FindByID(_ context.Context, id uint) (*storedomain.Store, error) {
	s, ok := f.store.stores[id]
	if !ok {
		return nil, storedomain.ErrStoreNotFound
	}
	return s, nil
}

func (f *fakeStores) FindBySlug(_ context.Context, slug string) (*storedomain.Store, error) {
	for _, s := range f.store.stores {
		if s.Slug == slug {
			cp := *s
			return &cp, nil
		}
	}
	return nil, storedomain.ErrStoreNotFound
}

func (f *fakeStores) FindAll(context.Context, int, int) ([]storedomain.Store, error) {
	return nil, nil
}

func (f *fakeStores) Update(_ context.Context, s *storedomain.Store) error {
	f.store.stores[s.ID] = s
	return nil
}

func (f *fakeStores) Delete(_ context.Context, id uint) error {
	delete(f.store.stores, id)
	return nil
}

// fakeProducts implements catalogdomain.ProductRepository
type fakeProducts struct{ store *memStore }

func (f *fakeProducts) Create(context.Context, *catalogdomain.Product) error { return nil }
func (f *fakeProducts) FindByID(context.Context, uint) (*catalogdomain.Product, error) {
	return nil, catalogdomain.ErrVariantNotFound
}
func (f *fakeProducts) FindByStore(context.Context, uint, int, int) ([]catalogdomain.Product, error) {
	return nil, nil
}
func (f *fakeProducts) Update(context.Context, *catalogdomain.Product) error { return nil }
func (f *fakeProducts) Delete(context.Context, uint) error                   { return nil }
func (f *fakeProducts) CreateVariant(context.Context, *catalogdomain.Variant) error {
	return nil
}

func (f *fakeProducts) ResolveVariant(_ context.Context, variantID uint) (*catalogdomain.ResolvedVariant, error) {
	rv, ok := f.store.variants[variantID]
	if !ok {
		return nil, catalogdomain.ErrVariantNotFound
	}
	return rv, nil
}

func (f *fakeProducts) FindVariantBySKU(context.Context, string) (*catalogdomain.Variant, error) {
	return nil, catalogdomain.ErrVariantNotFound
}

// fakeWarehouses implements catalogdomain.WarehouseRepository
type fakeWarehouses struct{ store *memStore }

func (f *fakeWarehouses) Create(_ context.Context, w *catalogdomain.Warehouse) error {
	f.store.warehouses[w.ID] = w
	return nil
}

func (f *fakeWarehouses) FindByID(_ context.Context, id uint) (*catalogdomain.Warehouse, error) {
	w, ok := f.store.warehouses[id]
	if !ok {
		return nil, catalogdomain.ErrWarehouseNotFound
	}
	return w, nil
}

func (f *fakeWarehouses) FindByStore(_ context.Context, storeID uint) ([]catalogdomain.Warehouse, error) {
	var out []catalogdomain.Warehouse
	for _, w := range f.store.warehouses {
		if w.StoreID == storeID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWarehouses) FindDefault(_ context.Context, storeID uint) (*catalogdomain.Warehouse, error) {
	for _, w := range f.store.warehouses {
		if w.StoreID == storeID && w.IsDefault {
			return w, nil
		}
	}
	return nil, catalogdomain.ErrWarehouseNotFound
}

func (f *fakeWarehouses) Update(_ context.Context, w *catalogdomain.Warehouse) error {
	f.store.warehouses[w.ID] = w
	return nil
}

func (f *fakeWarehouses) Delete(_ context.Context, id uint) error {
	delete(f.store.warehouses, id)
	return nil
}

// fakeLedger implements inventorydomain.Ledger
type fakeLedger struct{ store *memStore }

func (f *fakeLedger) Decrement(_ context.Context, variantID, warehouseID uint, quantity int, reason string) (*inventorydomain.InventoryLevel, error) {
	level, ok := f.store.levels[[2]uint{variantID, warehouseID}]
	if !ok {
		return nil, &inventorydomain.InsufficientStockError{
			VariantID:   variantID,
			WarehouseID: warehouseID,
			Requested:   quantity,
		}
	}
	if level.Quantity < quantity {
		return nil, &inventorydomain.InsufficientStockError{
			VariantID:   variantID,
			WarehouseID: warehouseID,
			Requested:   quantity,
			Available:   level.Quantity,
		}
	}
	level.Quantity -= quantity
	f.store.levelAudit = append(f.store.levelAudit, inventorydomain.InventoryAdjustment{
		LevelID:           level.ID,
		Delta:             -quantity,
		Reason:            reason,
		ResultingQuantity: level.Quantity,
	})
	cp := *level
	return &cp, nil
}

func (f *fakeLedger) Adjust(_ context.Context, levelID uint, delta int, reason, notes string) (*inventorydomain.InventoryLevel, error) {
	for _, level := range f.store.levels {
		if level.ID == levelID {
			return f.apply(level, delta, reason, notes)
		}
	}
	return nil, inventorydomain.ErrLevelNotFound
}

func (f *fakeLedger) AdjustByVariant(_ context.Context, variantID, warehouseID uint, delta int, reason, notes string) (*inventorydomain.InventoryLevel, error) {
	level, ok := f.store.levels[[2]uint{variantID, warehouseID}]
	if !ok {
		return nil, inventorydomain.ErrLevelNotFound
	}
	return f.apply(level, delta, reason, notes)
}

func (f *fakeLedger) apply(level *inventorydomain.InventoryLevel, delta int, reason, notes string) (*inventorydomain.InventoryLevel, error) {
	if level.Quantity+delta < 0 {
		return nil, &inventorydomain.InsufficientStockError{
			VariantID:   level.VariantID,
			WarehouseID: level.WarehouseID,
			Requested:   -delta,
			Available:   level.Quantity,
		}
	}
	level.Quantity += delta
	f.store.levelAudit = append(f.store.levelAudit, inventorydomain.InventoryAdjustment{
		LevelID:           level.ID,
		Delta:             delta,
		Reason:            reason,
		Notes:             notes,
		ResultingQuantity: level.Quantity,
	})
	cp := *level
	return &cp, nil
}

func (f *fakeLedger) CreateLevel(_ context.Context, level *inventorydomain.InventoryLevel) error {
	f.store.nextLevelID++
	level.ID = f.store.nextLevelID
	f.store.levels[[2]uint{level.VariantID, level.WarehouseID}] = level
	return nil
}

func (f *fakeLedger) FindLevel(_ context.Context, variantID, warehouseID uint) (*inventorydomain.InventoryLevel, error) {
	level, ok := f.store.levels[[2]uint{variantID, warehouseID}]
	if !ok {
		return nil, inventorydomain.ErrLevelNotFound
	}
	cp := *level
	return &cp, nil
}

func (f *fakeLedger) FindLevelByID(_ context.Context, id uint) (*inventorydomain.InventoryLevel, error) {
	for _, level := range f.store.levels {
		if level.ID == id {
			cp := *level
			return &cp, nil
		}
	}
	return nil, inventorydomain.ErrLevelNotFound
}

func (f *fakeLedger) ListByStore(context.Context, uint) ([]inventorydomain.InventoryLevel, error) {
	return nil, nil
}

func (f *fakeLedger) ListAdjustments(_ context.Context, levelID uint, _, _ int) ([]inventorydomain.InventoryAdjustment, error) {
	var out []inventorydomain.InventoryAdjustment
	for _, a := range f.store.levelAudit {
		if a.LevelID == levelID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeLedger) CountByWarehouse(_ context.Context, warehouseID uint) (int64, error) {
	var n int64
	for _, level := range f.store.levels {
		if level.WarehouseID == warehouseID {
			n++
		}
	}
	return n, nil
}

// fakeDiscounts implements pricingdomain.DiscountRepository
type fakeDiscounts struct{ store *memStore }

func (f *fakeDiscounts) Create(_ context.Context, d *pricingdomain.Discount) error {
	f.store.discounts[d.ID] = d
	return nil
}

func (f *fakeDiscounts) FindByCode(_ context.Context, storeID uint, code string) (*pricingdomain.Discount, error) {
	for _, d := range f.store.discounts {
		if d.StoreID == storeID && d.Code == code {
			cp := *d
			return &cp, nil
		}
	}
	return nil, pricingdomain.ErrDiscountInvalid
}

func (f *fakeDiscounts) FindByStore(context.Context, uint, int, int) ([]pricingdomain.Discount, error) {
	return nil, nil
}

func (f *fakeDiscounts) IncrementUses(_ context.Context, id uint) error {
	d, ok := f.store.discounts[id]
	if !ok {
		return pricingdomain.ErrDiscountInvalid
	}
	if d.MaxUses != nil && d.CurrentUses >= *d.MaxUses {
		return pricingdomain.ErrDiscountInvalid
	}
	d.CurrentUses++
	return nil
}

// fakeGiftCards implements pricingdomain.GiftCardRepository
type fakeGiftCards struct{ store *memStore }

func (f *fakeGiftCards) Create(_ context.Context, g *pricingdomain.GiftCard) error {
	f.store.giftCards[g.ID] = g
	return nil
}

func (f *fakeGiftCards) FindByCode(_ context.Context, storeID uint, code string) (*pricingdomain.GiftCard, error) {
	for _, g := range f.store.giftCards {
		if g.StoreID == storeID && g.Code == code {
			cp := *g
			return &cp, nil
		}
	}
	return nil, pricingdomain.ErrGiftCardInvalid
}

func (f *fakeGiftCards) Debit(_ context.Context, id uint, amount decimal.Decimal) error {
	g, ok := f.store.giftCards[id]
	if !ok {
		return pricingdomain.ErrGiftCardInvalid
	}
	if g.CurrentBalance.LessThan(amount) {
		return pricingdomain.ErrGiftCardInvalid
	}
	g.CurrentBalance = g.CurrentBalance.Sub(amount)
	if g.CurrentBalance.IsZero() {
		g.Status = pricingdomain.GiftCardDepleted
	}
	return nil
}

func (f *fakeGiftCards) Credit(_ context.Context, id uint, amount decimal.Decimal) error {
	g, ok := f.store.giftCards[id]
	if !ok {
		return pricingdomain.ErrGiftCardInvalid
	}
	g.CurrentBalance = g.CurrentBalance.Add(amount)
	if g.CurrentBalance.GreaterThan(g.InitialBalance) {
		g.CurrentBalance = g.InitialBalance
	}
	return nil
}

// fakeOrders implements domain.OrderRepository
type fakeOrders struct{ store *memStore }

func (f *fakeOrders) Create(_ context.Context, order *domain.Order) error {
	f.store.nextOrderID++
	order.ID = f.store.nextOrderID
	cp := *order
	cp.LineItems = append([]domain.OrderLineItem{}, order.LineItems...)
	f.store.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id uint) (*domain.Order, error) {
	order, ok := f.store.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *order
	cp.LineItems = append([]domain.OrderLineItem{}, order.LineItems...)
	return &cp, nil
}

func (f *fakeOrders) FindByIDForUpdate(ctx context.Context, id uint) (*domain.Order, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeOrders) FindByReference(_ context.Context, reference string) (*domain.Order, error) {
	for _, order := range f.store.orders {
		if order.Reference == reference {
			cp := *order
			return &cp, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (f *fakeOrders) FindByStore(_ context.Context, storeID uint, _, _ int) ([]domain.Order, error) {
	var out []domain.Order
	for _, order := range f.store.orders {
		if order.StoreID == storeID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrders) Update(_ context.Context, order *domain.Order) error {
	if _, ok := f.store.orders[order.ID]; !ok {
		return domain.ErrOrderNotFound
	}
	cp := *order
	cp.LineItems = append([]domain.OrderLineItem{}, order.LineItems...)
	f.store.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrders) CountOpenByStore(_ context.Context, storeID uint) (int64, error) {
	var n int64
	for _, order := range f.store.orders {
		if order.StoreID == storeID && order.Open() {
			n++
		}
	}
	return n, nil
}

// fakeRefunds implements domain.RefundRepository
type fakeRefunds struct{ store *memStore }

func (f *fakeRefunds) Create(_ context.Context, refund *domain.Refund) error {
	f.store.nextRefundID++
	refund.ID = f.store.nextRefundID
	cp := *refund
	f.store.refunds[refund.ID] = &cp
	return nil
}

func (f *fakeRefunds) FindByID(_ context.Context, id uint) (*domain.Refund, error) {
	refund, ok := f.store.refunds[id]
	if !ok {
		return nil, domain.ErrRefundNotFound
	}
	cp := *refund
	return &cp, nil
}

func (f *fakeRefunds) FindByOrder(_ context.Context, orderID uint) ([]domain.Refund, error) {
	var out []domain.Refund
	for _, refund := range f.store.refunds {
		if refund.OrderID == orderID {
			out = append(out, *refund)
		}
	}
	return out, nil
}

func (f *fakeRefunds) Update(_ context.Context, refund *domain.Refund) error {
	if _, ok := f.store.refunds[refund.ID]; !ok {
		return domain.ErrRefundNotFound
	}
	cp := *refund
	f.store.refunds[refund.ID] = &cp
	return nil
}

func (f *fakeRefunds) SumApproved(_ context.Context, orderID uint) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, refund := range f.store.refunds {
		if refund.OrderID == orderID && refund.Status == domain.RefundApproved {
			sum = sum.Add(refund.Amount)
		}
	}
	return sum, nil
}

// fakePublisher records published events
type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.OrderEvent
	fail   bool
}

func (f *fakePublisher) PublishOrderEvent(_ context.Context, event kafka.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("broker unavailable")
	}
	f.events = append(f.events, event)
	return nil
}

// noTax reports no configured tax rate for any destination
type noTax struct{}

func (noTax) Rate(context.Context, uint, string, string) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, nil
}

// flatTax applies one rate everywhere
type flatTax struct{ rate decimal.Decimal }

func (t flatTax) Rate(context.Context, uint, string, string) (decimal.Decimal, bool, error) {
	return t.rate, true, nil
}

// identityFX only supports same-currency conversion
type identityFX struct{}

func (identityFX) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if from != to {
		return decimal.Zero, fmt.Errorf("no rate for %s/%s", from, to)
	}
	return decimal.NewFromInt(1), nil
}
