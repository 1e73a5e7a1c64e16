package services

import (
	"context"
	"errors"
	"fmt"

	"dz-fellah/models"
	"dz-fellah/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartService struct {
	store  repositories.Store
	logger *zap.Logger
}

func NewCartService(store repositories.Store, logger *zap.Logger) *CartService {
	return &CartService{store: store, logger: logger}
}

func (s *CartService) GetOrCreateCart(ctx context.Context, customerID int64) (*models.Cart, error) {
	return s.store.Repos().Carts.GetOrCreate(ctx, customerID)
}

// View returns the cart with product details, line subtotals and total.
func (s *CartService) View(ctx context.Context, customerID int64) (*models.CartView, error) {
	r := s.store.Repos()
	cart, err := r.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	items, err := r.Carts.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	view := &models.CartView{
		Cart:       cart,
		Items:      make([]models.CartItemView, 0, len(items)),
		Total:      cart.Total(),
		ItemsCount: len(items),
	}
	for _, it := range items {
		line := models.CartItemView{CartItem: it, Subtotal: it.Subtotal()}
		p, err := r.Products.GetProduct(ctx, it.ProductID)
		switch {
		case err == nil:
			line.ProductName = p.Name
			line.ProducerID = p.ProducerID
			line.SaleType = p.SaleType
		case !errors.Is(err, models.ErrProductNotFound):
			return nil, err
		}
		view.Items = append(view.Items, line)
	}
	return view, nil
}

// AddItem validates against live stock and merges into an existing line for
// the same product. The price is snapshotted only when the line is created.
func (s *CartService) AddItem(ctx context.Context, customerID, productID int64, quantity decimal.Decimal) (*models.CartItem, error) {
	var out *models.CartItem
	err := s.store.WithTx(ctx, func(r repositories.Repos) error {
		p, err := r.Products.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if !models.ValidQuantity(quantity, p.SaleType) {
			return invalidQuantity(quantity, p.SaleType)
		}

		cart, err := r.Carts.GetOrCreate(ctx, customerID)
		if err != nil {
			return err
		}
		item := &models.CartItem{
			CartID:        cart.ID,
			ProductID:     productID,
			Quantity:      quantity,
			PriceSnapshot: p.Price,
		}
		if err := r.Carts.MergeItem(ctx, item); err != nil {
			return err
		}
		if err := checkStock(p, item.Quantity); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart item added",
		zap.Int64("customer_id", customerID),
		zap.Int64("product_id", productID),
		zap.String("quantity", out.Quantity.String()))
	return out, nil
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, customerID, itemID int64, quantity decimal.Decimal) (*models.CartItem, error) {
	var out *models.CartItem
	err := s.store.WithTx(ctx, func(r repositories.Repos) error {
		cart, err := r.Carts.GetByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		item, err := r.Carts.GetItem(ctx, cart.ID, itemID)
		if err != nil {
			return err
		}
		if !quantity.IsPositive() {
			return fmt.Errorf("%w: quantity must be greater than zero", models.ErrInvalidQuantity)
		}
		p, err := r.Products.GetProduct(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if !models.ValidQuantity(quantity, p.SaleType) {
			return invalidQuantity(quantity, p.SaleType)
		}
		if err := checkStock(p, quantity); err != nil {
			return err
		}
		out, err = r.Carts.UpdateItem(ctx, item.ID, models.CartItemUpdate{Quantity: quantity})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CartService) RemoveItem(ctx context.Context, customerID, itemID int64) error {
	r := s.store.Repos()
	cart, err := r.Carts.GetByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	return r.Carts.DeleteItem(ctx, cart.ID, itemID)
}

func (s *CartService) Clear(ctx context.Context, customerID int64) error {
	r := s.store.Repos()
	cart, err := r.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return err
	}
	return r.Carts.Clear(ctx, cart.ID)
}

func (s *CartService) ComputeTotal(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	r := s.store.Repos()
	cart, err := r.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	items, err := r.Carts.ListItems(ctx, cart.ID)
	if err != nil {
		return decimal.Zero, err
	}
	cart.Items = items
	return cart.Total(), nil
}

// GroupByProducer partitions the cart lines by owning producer.
func (s *CartService) GroupByProducer(ctx context.Context, customerID int64) ([]models.ProducerGroup, error) {
	r := s.store.Repos()
	cart, err := r.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	items, err := r.Carts.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := r.Products.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	return groupItems(items, products)
}

func groupItems(items []models.CartItem, products map[int64]*models.Product) ([]models.ProducerGroup, error) {
	for _, it := range items {
		if _, ok := products[it.ProductID]; !ok {
			return nil, &models.ProductUnavailableError{ProductID: it.ProductID}
		}
	}
	return models.GroupByProducer(items, func(it models.CartItem) int64 {
		return products[it.ProductID].ProducerID
	}), nil
}

func checkStock(p *models.Product, want decimal.Decimal) error {
	if want.GreaterThan(p.Stock) {
		return &models.InsufficientStockError{ProductID: p.ID, Name: p.Name, Requested: want, Available: p.Stock}
	}
	return nil
}

func invalidQuantity(q decimal.Decimal, st models.SaleType) error {
	if st == models.SaleTypeUnit && q.IsPositive() {
		return fmt.Errorf("%w: %s must be a whole number of units", models.ErrInvalidQuantity, q)
	}
	return fmt.Errorf("%w: %s must be positive with at most two decimals", models.ErrInvalidQuantity, q)
}
