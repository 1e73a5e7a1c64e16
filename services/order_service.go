package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"dz-fellah/models"
	"dz-fellah/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderService struct {
	store    repositories.Store
	sequence SequenceSource
	notifier *Notifier
	logger   *zap.Logger
	prefix   string
	now      func() time.Time
}

type OrderOption func(*OrderService)

func WithSequence(seq SequenceSource) OrderOption {
	return func(s *OrderService) { s.sequence = seq }
}

func WithOrderPrefix(prefix string) OrderOption {
	return func(s *OrderService) { s.prefix = prefix }
}

func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(store repositories.Store, notifier *Notifier, logger *zap.Logger, opts ...OrderOption) *OrderService {
	s := &OrderService{
		store:    store,
		sequence: DBSequence{},
		notifier: notifier,
		logger:   logger,
		prefix:   "DZF",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeCheckout(req models.CheckoutRequest) (models.CheckoutRequest, error) {
	if req.DeliveryMethod == "" {
		req.DeliveryMethod = models.DeliveryPickupProducer
	}
	if !req.DeliveryMethod.Valid() {
		return req, fmt.Errorf("%w: %q", models.ErrInvalidDeliveryMethod, req.DeliveryMethod)
	}
	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	req.Notes = strings.TrimSpace(req.Notes)
	if req.DeliveryMethod == models.DeliveryPickupPoint && req.DeliveryAddress == "" {
		return req, fmt.Errorf("%w: pickup_point requires a delivery address", models.ErrInvalidDeliveryMethod)
	}
	return req, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateOrderFromCart turns the customer's cart into one order with a
// sub-order per producer, decrements stock and empties the cart, all in one
// transaction.
func (s *OrderService) CreateOrderFromCart(ctx context.Context, customerID int64, req models.CheckoutRequest) (*models.Order, error) {
	req, err := normalizeCheckout(req)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.store.WithTx(ctx, func(r repositories.Repos) error {
		cart, err := r.Carts.LockByCustomer(ctx, customerID)
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		items, err := r.Carts.ListItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return models.ErrEmptyCart
		}

		products, err := r.Products.LockProducts(ctx, productIDs(items))
		if err != nil {
			return err
		}
		groups, err := groupItems(items, products)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := checkStock(products[it.ProductID], it.Quantity); err != nil {
				return err
			}
		}

		now := s.now()
		seq, err := s.sequence.Next(ctx, r, now)
		if err != nil {
			return err
		}
		number := models.FormatOrderNumber(s.prefix, now, seq)

		subs := make([]models.SubOrder, 0, len(groups))
		for k, g := range groups {
			sub := models.SubOrder{
				ProducerID:     g.ProducerID,
				SubOrderNumber: models.FormatSubOrderNumber(number, k+1),
				Status:         models.StatusPending,
			}
			for _, it := range g.Items {
				p := products[it.ProductID]
				sub.Items = append(sub.Items, models.OrderItem{
					ProductID:       it.ProductID,
					ProductName:     p.Name,
					QuantityOrdered: it.Quantity,
					UnitPrice:       it.PriceSnapshot,
					SaleType:        p.SaleType,
				})
			}
			sub.Subtotal = models.SumItems(sub.Items)
			subs = append(subs, sub)
		}

		order = &models.Order{
			CustomerID:      customerID,
			OrderNumber:     number,
			Status:          models.StatusPending,
			TotalAmount:     models.SumSubOrders(subs),
			DeliveryMethod:  req.DeliveryMethod,
			DeliveryAddress: optional(req.DeliveryAddress),
			Notes:           optional(req.Notes),
		}
		if err := r.Orders.InsertOrder(ctx, order); err != nil {
			return err
		}

		for i := range subs {
			sub := &subs[i]
			sub.OrderID = order.ID
			if err := r.Orders.InsertSubOrder(ctx, sub); err != nil {
				return err
			}
			for j := range sub.Items {
				sub.Items[j].SubOrderID = sub.ID
				if err := r.Orders.InsertItem(ctx, &sub.Items[j]); err != nil {
					return err
				}
			}
		}

		for _, it := range sortedByProduct(items) {
			if err := r.Products.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}

		if err := r.Carts.Clear(ctx, cart.ID); err != nil {
			return err
		}
		order.SubOrders = subs
		return nil
	})
	if err != nil {
		s.logFailure("checkout failed", err, zap.Int64("customer_id", customerID))
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("customer_id", customerID),
		zap.Int("sub_orders", len(order.SubOrders)),
		zap.String("total", order.TotalAmount.StringFixed(2)))
	if s.notifier != nil {
		s.notifier.OrderCreated(ctx, order)
	}
	return order, nil
}

// GetOrder returns the full order tree. Orders of other customers are
// reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, customerID, orderID int64) (*models.Order, error) {
	r := s.store.Repos()
	o, err := r.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, fmt.Errorf("order: %w", models.ErrNotFound)
	}
	if err := loadTree(ctx, r.Orders, o, true); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, customerID int64) ([]models.Order, error) {
	r := s.store.Repos()
	orders, err := r.Orders.ListOrdersByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if err := loadTree(ctx, r.Orders, &orders[i], false); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// CancelOrder cancels every open sub-order and puts the ordered quantities
// back in stock. Allowed only while nothing has moved past confirmed.
func (s *OrderService) CancelOrder(ctx context.Context, customerID, orderID int64) (*models.Order, error) {
	var order *models.Order
	err := s.store.WithTx(ctx, func(r repositories.Repos) error {
		o, err := r.Orders.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.CustomerID != customerID {
			return fmt.Errorf("order: %w", models.ErrNotFound)
		}
		if !o.Status.Cancellable() {
			return &models.InvalidTransitionError{From: o.Status, To: models.StatusCancelled}
		}

		subs, err := r.Orders.ListSubOrders(ctx, o.ID)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if sub.Status == models.StatusCancelled {
				continue
			}
			if !sub.Status.Cancellable() {
				return &models.InvalidTransitionError{From: sub.Status, To: models.StatusCancelled}
			}
		}

		var restock []models.OrderItem
		for i := range subs {
			sub := &subs[i]
			if sub.Status == models.StatusCancelled {
				continue
			}
			items, err := r.Orders.ListItems(ctx, sub.ID)
			if err != nil {
				return err
			}
			restock = append(restock, items...)
			if err := r.Orders.UpdateSubOrderStatus(ctx, sub.ID, models.SubOrderStatusUpdate{Status: models.StatusCancelled}); err != nil {
				return err
			}
			sub.Status = models.StatusCancelled
		}
		if err := restockItems(ctx, r.Products, s.logger, restock); err != nil {
			return err
		}
		if err := r.Orders.UpdateOrderStatus(ctx, o.ID, models.StatusCancelled); err != nil {
			return err
		}
		o.Status = models.StatusCancelled
		o.SubOrders = subs
		order = o
		return nil
	})
	if err != nil {
		s.logFailure("order cancellation failed", err, zap.Int64("order_id", orderID))
		return nil, err
	}

	s.logger.Info("order cancelled",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("customer_id", customerID))
	if s.notifier != nil {
		s.notifier.OrderCancelled(ctx, order)
	}
	return order, nil
}

func (s *OrderService) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("kind", string(models.KindOf(err))), zap.Error(err))
	if errors.Is(err, models.ErrTransactionAborted) {
		s.logger.Error(msg, fields...)
		return
	}
	s.logger.Info(msg, fields...)
}

func loadTree(ctx context.Context, orders repositories.OrderRepository, o *models.Order, withItems bool) error {
	subs, err := orders.ListSubOrders(ctx, o.ID)
	if err != nil {
		return err
	}
	if withItems {
		for i := range subs {
			items, err := orders.ListItems(ctx, subs[i].ID)
			if err != nil {
				return err
			}
			subs[i].Items = items
		}
	}
	o.SubOrders = subs
	return nil
}

// restockItems adds quantities back in ascending product order, the same
// order checkout locks them in. Products that no longer exist are skipped.
func restockItems(ctx context.Context, products repositories.ProductRepository, logger *zap.Logger, items []models.OrderItem) error {
	totals := map[int64]decimal.Decimal{}
	ids := []int64{}
	for _, it := range items {
		if _, ok := totals[it.ProductID]; !ok {
			ids = append(ids, it.ProductID)
			totals[it.ProductID] = decimal.Zero
		}
		totals[it.ProductID] = totals[it.ProductID].Add(it.QuantityOrdered)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		err := products.IncrementStock(ctx, id, totals[id])
		switch {
		case errors.Is(err, models.ErrProductUnavailable):
			logger.Warn("restock skipped, product no longer exists",
				zap.Int64("product_id", id),
				zap.String("quantity", totals[id].String()))
		case err != nil:
			return err
		}
	}
	return nil
}

func productIDs(items []models.CartItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range sortedByProduct(items) {
		ids = append(ids, it.ProductID)
	}
	return ids
}

func sortedByProduct(items []models.CartItem) []models.CartItem {
	out := append([]models.CartItem(nil), items...)
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
