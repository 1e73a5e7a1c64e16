package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID         int64      `json:"id"`
	CustomerID int64      `json:"customer_id"`
	Items      []CartItem `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID            int64           `json:"id"`
	CartID        int64           `json:"cart_id"`
	ProductID     int64           `json:"product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	PriceSnapshot decimal.Decimal `json:"price_snapshot"`
	AddedAt       time.Time       `json:"added_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CartItemUpdate is the only mutation allowed on an existing cart line.
type CartItemUpdate struct {
	Quantity decimal.Decimal
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Quantity.Mul(i.PriceSnapshot).Round(2)
}

// Total sums line subtotals with fixed-point arithmetic.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ProducerGroup is the slice of a cart owned by one producer.
type ProducerGroup struct {
	ProducerID int64
	Items      []CartItem
}

// GroupByProducer partitions items by producer, preserving first-seen order
// of producers and the cart order of items. producerOf must resolve every item.
func GroupByProducer(items []CartItem, producerOf func(CartItem) int64) []ProducerGroup {
	index := map[int64]int{}
	groups := []ProducerGroup{}
	for _, it := range items {
		pid := producerOf(it)
		i, ok := index[pid]
		if !ok {
			i = len(groups)
			index[pid] = i
			groups = append(groups, ProducerGroup{ProducerID: pid})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

// ValidQuantity checks a requested quantity for a sale type: strictly positive,
// at most two decimals, and whole for unit-sold products.
func ValidQuantity(q decimal.Decimal, st SaleType) bool {
	if !q.IsPositive() {
		return false
	}
	if !q.Equal(q.Round(2)) {
		return false
	}
	if st == SaleTypeUnit && !q.Equal(q.Truncate(0)) {
		return false
	}
	return true
}
