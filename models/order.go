package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryMethod string

const (
	DeliveryPickupProducer DeliveryMethod = "pickup_producer"
	DeliveryPickupPoint    DeliveryMethod = "pickup_point"
)

func (d DeliveryMethod) Valid() bool {
	return d == DeliveryPickupProducer || d == DeliveryPickupPoint
}

type Order struct {
	ID              int64           `json:"id"`
	CustomerID      int64           `json:"customer_id"`
	OrderNumber     string          `json:"order_number"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DeliveryMethod  DeliveryMethod  `json:"delivery_method"`
	DeliveryAddress *string         `json:"delivery_address,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	SubOrders       []SubOrder      `json:"sub_orders,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type SubOrder struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"order_id"`
	ProducerID     int64           `json:"producer_id"`
	SubOrderNumber string          `json:"sub_order_number"`
	Status         OrderStatus     `json:"status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ProducerNotes  *string         `json:"producer_notes,omitempty"`
	Items          []OrderItem     `json:"items,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID              int64               `json:"id"`
	SubOrderID      int64               `json:"sub_order_id"`
	ProductID       int64               `json:"product_id"`
	ProductName     string              `json:"product_name"`
	QuantityOrdered decimal.Decimal     `json:"quantity_ordered"`
	QuantityActual  decimal.NullDecimal `json:"quantity_actual"`
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	SaleType        SaleType            `json:"sale_type"`
	CreatedAt       time.Time           `json:"created_at"`
}

// SubOrderStatusUpdate is the producer-driven mutation of a sub-order.
type SubOrderStatusUpdate struct {
	Status        OrderStatus
	ProducerNotes *string
}

// BilledQuantity is the actual quantity when the producer set one.
func (i OrderItem) BilledQuantity() decimal.Decimal {
	if i.QuantityActual.Valid {
		return i.QuantityActual.Decimal
	}
	return i.QuantityOrdered
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(i.BilledQuantity()).Round(2)
}

// PriceAdjustment is the difference between billed and ordered amounts.
func (i OrderItem) PriceAdjustment() decimal.Decimal {
	if !i.QuantityActual.Valid {
		return decimal.Zero
	}
	return i.Subtotal().Sub(i.UnitPrice.Mul(i.QuantityOrdered).Round(2))
}

// AdjustmentBounds returns the inclusive range allowed for QuantityActual.
func (i OrderItem) AdjustmentBounds(tolerance decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	one := decimal.NewFromInt(1)
	return i.QuantityOrdered.Mul(one.Sub(tolerance)), i.QuantityOrdered.Mul(one.Add(tolerance))
}

// CheckAdjustment validates a new actual quantity against sale type and tolerance.
func (i OrderItem) CheckAdjustment(actual, tolerance decimal.Decimal) error {
	if i.SaleType != SaleTypeWeight {
		return fmt.Errorf("%w: %s is sold by unit", ErrNotAdjustable, i.ProductName)
	}
	if !actual.IsPositive() {
		return fmt.Errorf("%w: actual quantity must be positive", ErrInvalidQuantity)
	}
	lo, hi := i.AdjustmentBounds(tolerance)
	if actual.LessThan(lo) || actual.GreaterThan(hi) {
		return &AdjustmentRangeError{Ordered: i.QuantityOrdered, Min: lo, Max: hi, Actual: actual}
	}
	return nil
}

func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func SumSubOrders(subs []SubOrder) decimal.Decimal {
	total := decimal.Zero
	for _, s := range subs {
		total = total.Add(s.Subtotal)
	}
	return total
}

// FormatOrderNumber renders PREFIX-YYYYMMDD-NNNN.
func FormatOrderNumber(prefix string, day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), seq)
}

// FormatSubOrderNumber renders <order number>-P<k>.
func FormatSubOrderNumber(orderNumber string, k int) string {
	return fmt.Sprintf("%s-P%d", orderNumber, k)
}
