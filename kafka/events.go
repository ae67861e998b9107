package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderEvent is emitted on every order lifecycle transition. The excluded
// notification and webhook services consume it; the core never waits for
// them.
type OrderEvent struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OrderID       uint            `json:"order_id"`
	OrderRef      string          `json:"order_reference"`
	StoreID       uint            `json:"store_id"`
	CustomerEmail string          `json:"customer_email"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Event types
const (
	EventTypeOrderCreated   = "order.created"
	EventTypeOrderPaid      = "order.paid"
	EventTypeOrderShipped   = "order.shipped"
	EventTypeOrderDelivered = "order.delivered"
	EventTypeOrderCancelled = "order.cancelled"
)

// Kafka topics
const (
	TopicOrderLifecycle = "order-lifecycle"
)
