package models

import "github.com/shopspring/decimal"

type AddToCartRequest struct {
	ProductID int64           `json:"product_id" form:"product_id" binding:"required,gt=0"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

type CheckoutRequest struct {
	DeliveryMethod  DeliveryMethod `json:"delivery_method" form:"delivery_method"`
	DeliveryAddress string         `json:"delivery_address" form:"delivery_address" binding:"max=500"`
	Notes           string         `json:"notes" form:"notes" binding:"max=1000"`
}

type UpdateSubOrderStatusRequest struct {
	Status        string  `json:"status" form:"status" binding:"required"`
	ProducerNotes *string `json:"producer_notes" form:"producer_notes" binding:"omitempty,max=1000"`
}

type AdjustItemRequest struct {
	QuantityActual decimal.Decimal `json:"quantity_actual"`
}

type CartView struct {
	Cart       *Cart           `json:"cart"`
	Items      []CartItemView  `json:"items"`
	Total      decimal.Decimal `json:"total"`
	ItemsCount int             `json:"items_count"`
}

type CartItemView struct {
	CartItem
	ProductName string          `json:"product_name"`
	ProducerID  int64           `json:"producer_id"`
	SaleType    SaleType        `json:"sale_type"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type AdjustmentResult struct {
	Item       OrderItem       `json:"item"`
	Adjustment decimal.Decimal `json:"adjustment"`
	SubOrder   SubOrder        `json:"sub_order"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

type StatusChangeResult struct {
	SubOrder    SubOrder    `json:"sub_order"`
	OrderStatus OrderStatus `json:"order_status"`
}

type SweepResult struct {
	ProductsUpdated int64 `json:"products_updated"`
}
