package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeOrderCreated          = "order.created"
	TypeOrderCancelled        = "order.cancelled"
	TypeSubOrderStatusChanged = "suborder.status_changed"
	TypeOrderItemAdjusted     = "orderitem.adjusted"
	TypeAntiGaspiSwept        = "antigaspi.swept"
)

// Event is the envelope published for every committed change. Key is the
// order number so all events of one order land on the same partition.
type Event struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	Key       string    `json:"-"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

type OrderCreated struct {
	OrderID     int64             `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	CustomerID  int64             `json:"customer_id"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	SubOrders   []SubOrderCreated `json:"sub_orders"`
}

type SubOrderCreated struct {
	SubOrderID     int64           `json:"sub_order_id"`
	SubOrderNumber string          `json:"sub_order_number"`
	ProducerID     int64           `json:"producer_id"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type OrderCancelled struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	CustomerID  int64  `json:"customer_id"`
}

type SubOrderStatusChanged struct {
	OrderID        int64  `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	SubOrderID     int64  `json:"sub_order_id"`
	SubOrderNumber string `json:"sub_order_number"`
	ProducerID     int64  `json:"producer_id"`
	From           string `json:"from"`
	To             string `json:"to"`
	OrderStatus    string `json:"order_status"`
}

type OrderItemAdjusted struct {
	OrderID         int64           `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	SubOrderID      int64           `json:"sub_order_id"`
	ItemID          int64           `json:"item_id"`
	QuantityOrdered decimal.Decimal `json:"quantity_ordered"`
	QuantityActual  decimal.Decimal `json:"quantity_actual"`
	Adjustment      decimal.Decimal `json:"adjustment"`
	OrderTotal      decimal.Decimal `json:"order_total"`
}

type AntiGaspiSwept struct {
	ProductsUpdated int64     `json:"products_updated"`
	HarvestCutoff   time.Time `json:"harvest_cutoff"`
}
