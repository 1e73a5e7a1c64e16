package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleType string

const (
	SaleTypeUnit   SaleType = "unit"
	SaleTypeWeight SaleType = "weight"
)

// Product is the catalog row as seen by the core. Only Stock is written
// by checkout and cancellation; Price, OriginalPrice and IsAntiGaspi by the sweep.
type Product struct {
	ID            int64               `json:"id"`
	ProducerID    int64               `json:"producer_id"`
	Name          string              `json:"name"`
	SaleType      SaleType            `json:"sale_type"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"original_price"`
	Stock         decimal.Decimal     `json:"stock"`
	ProductType   string              `json:"product_type"`
	HarvestDate   *time.Time          `json:"harvest_date,omitempty"`
	IsAntiGaspi   bool                `json:"is_anti_gaspi"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type ProducerContact struct {
	ID       int64  `json:"id"`
	ShopName string `json:"shop_name"`
	Email    string `json:"email"`
}

// AntiGaspiRule selects perishable products old enough to be discounted.
type AntiGaspiRule struct {
	Categories []string
	// HarvestedOnOrBefore is the latest harvest date that qualifies.
	HarvestedOnOrBefore time.Time
	MinStock            decimal.Decimal
}

// Eligible reports whether p matches the rule and is not already flagged.
func (r AntiGaspiRule) Eligible(p Product) bool {
	if p.IsAntiGaspi || p.HarvestDate == nil {
		return false
	}
	if !p.Stock.GreaterThan(r.MinStock) {
		return false
	}
	if truncateDay(*p.HarvestDate).After(truncateDay(r.HarvestedOnOrBefore)) {
		return false
	}
	for _, c := range r.Categories {
		if c == p.ProductType {
			return true
		}
	}
	return false
}

var half = decimal.NewFromFloat(0.5)

// DiscountedPrice is the anti-gaspi price: half, rounded to cents.
func DiscountedPrice(price decimal.Decimal) decimal.Decimal {
	return price.Mul(half).Round(2)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
