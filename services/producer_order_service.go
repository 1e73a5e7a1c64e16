package services

import (
	"context"
	"fmt"

	"dz-fellah/models"
	"dz-fellah/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultAdjustmentTolerance is the ±30% band for weighed quantities.
var DefaultAdjustmentTolerance = decimal.NewFromFloat(0.30)

type ProducerOrderService struct {
	store     repositories.Store
	notifier  *Notifier
	logger    *zap.Logger
	tolerance decimal.Decimal
}

func NewProducerOrderService(store repositories.Store, notifier *Notifier, logger *zap.Logger, tolerance decimal.Decimal) *ProducerOrderService {
	if tolerance.IsZero() || tolerance.IsNegative() {
		tolerance = DefaultAdjustmentTolerance
	}
	return &ProducerOrderService{store: store, notifier: notifier, logger: logger, tolerance: tolerance}
}

func (s *ProducerOrderService) ListSubOrders(ctx context.Context, producerID int64) ([]models.SubOrder, error) {
	r := s.store.Repos()
	subs, err := r.Orders.ListSubOrdersByProducer(ctx, producerID)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		items, err := r.Orders.ListItems(ctx, subs[i].ID)
		if err != nil {
			return nil, err
		}
		subs[i].Items = items
	}
	return subs, nil
}

func (s *ProducerOrderService) GetSubOrder(ctx context.Context, producerID, subOrderID int64) (*models.SubOrder, error) {
	r := s.store.Repos()
	sub, err := ownedSubOrder(ctx, r.Orders, producerID, subOrderID)
	if err != nil {
		return nil, err
	}
	items, err := r.Orders.ListItems(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	sub.Items = items
	return sub, nil
}

func ownedSubOrder(ctx context.Context, orders repositories.OrderRepository, producerID, subOrderID int64) (*models.SubOrder, error) {
	sub, err := orders.GetSubOrder(ctx, subOrderID)
	if err != nil {
		return nil, err
	}
	if sub.ProducerID != producerID {
		return nil, fmt.Errorf("%w: sub-order %s belongs to another producer", models.ErrForbidden, sub.SubOrderNumber)
	}
	return sub, nil
}

// lockTree locks the parent order, then the sub-order. Every writer of
// sub-order state takes the locks in this order.
func lockTree(ctx context.Context, orders repositories.OrderRepository, producerID, subOrderID int64) (*models.Order, *models.SubOrder, error) {
	sub, err := ownedSubOrder(ctx, orders, producerID, subOrderID)
	if err != nil {
		return nil, nil, err
	}
	o, err := orders.LockOrder(ctx, sub.OrderID)
	if err != nil {
		return nil, nil, err
	}
	sub, err = orders.LockSubOrder(ctx, subOrderID)
	if err != nil {
		return nil, nil, err
	}
	return o, sub, nil
}

// UpdateSubOrderStatus applies a producer transition and recomputes the
// parent status in the same transaction. Cancelling puts the sub-order's
// quantities back in stock.
func (s *ProducerOrderService) UpdateSubOrderStatus(ctx context.Context, producerID, subOrderID int64, upd models.SubOrderStatusUpdate) (*models.StatusChangeResult, error) {
	var (
		order *models.Order
		sub   *models.SubOrder
		from  models.OrderStatus
	)
	err := s.store.WithTx(ctx, func(r repositories.Repos) error {
		o, current, err := lockTree(ctx, r.Orders, producerID, subOrderID)
		if err != nil {
			return err
		}
		from = current.Status
		if err := models.CheckTransition(from, upd.Status); err != nil {
			return err
		}
		if err := r.Orders.UpdateSubOrderStatus(ctx, current.ID, upd); err != nil {
			return err
		}

		if upd.Status == models.StatusCancelled {
			items, err := r.Orders.ListItems(ctx, current.ID)
			if err != nil {
				return err
			}
			if err := restockItems(ctx, r.Products, s.logger, items); err != nil {
				return err
			}
		}

		siblings, err := r.Orders.ListSubOrders(ctx, o.ID)
		if err != nil {
			return err
		}
		statuses := make([]models.OrderStatus, 0, len(siblings))
		for _, sib := range siblings {
			sib := sib // per-iteration copy; go directive is 1.21 (pre-1.22 loopvar semantics)
			statuses = append(statuses, sib.Status)
			if sib.ID == current.ID {
				sub = &sib
			}
		}
		if derived, ok := models.DeriveOrderStatus(statuses); ok && derived != o.Status {
			if err := r.Orders.UpdateOrderStatus(ctx, o.ID, derived); err != nil {
				return err
			}
			o.Status = derived
		}
		order = o
		return nil
	})
	if err != nil {
		s.logger.Info("sub-order status update rejected",
			zap.Int64("sub_order_id", subOrderID),
			zap.String("to", string(upd.Status)),
			zap.String("kind", string(models.KindOf(err))),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("sub-order status changed",
		zap.String("sub_order_number", sub.SubOrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(sub.Status)),
		zap.String("order_status", string(order.Status)))
	if s.notifier != nil {
		s.notifier.SubOrderStatusChanged(ctx, order, sub, from)
	}
	return &models.StatusChangeResult{SubOrder: *sub, OrderStatus: order.Status}, nil
}

// AdjustItemQuantity records the weighed quantity of a weight-sold item and
// recomputes the sub-order subtotal and order total before returning.
func (s *ProducerOrderService) AdjustItemQuantity(ctx context.Context, producerID, subOrderID, itemID int64, actual decimal.Decimal) (*models.AdjustmentResult, error) {
	var (
		order *models.Order
		res   *models.AdjustmentResult
	)
	err := s.store.WithTx(ctx, func(r repositories.Repos) error {
		o, sub, err := lockTree(ctx, r.Orders, producerID, subOrderID)
		if err != nil {
			return err
		}
		if sub.Status != models.StatusPreparing && sub.Status != models.StatusReady {
			return fmt.Errorf("%w: sub-order is %s, weights are set during preparation", models.ErrNotAdjustable, sub.Status)
		}

		item, err := r.Orders.GetItem(ctx, sub.ID, itemID)
		if err != nil {
			return err
		}
		if actual.IsPositive() && !actual.Equal(actual.Round(2)) {
			return fmt.Errorf("%w: at most two decimals", models.ErrInvalidQuantity)
		}
		if err := item.CheckAdjustment(actual, s.tolerance); err != nil {
			return err
		}
		if err := r.Orders.SetItemActualQuantity(ctx, item.ID, actual); err != nil {
			return err
		}
		item.QuantityActual = decimal.NewNullDecimal(actual)

		items, err := r.Orders.ListItems(ctx, sub.ID)
		if err != nil {
			return err
		}
		sub.Subtotal = models.SumItems(items)
		if err := r.Orders.UpdateSubOrderSubtotal(ctx, sub.ID, sub.Subtotal); err != nil {
			return err
		}
		sub.Items = items

		siblings, err := r.Orders.ListSubOrders(ctx, o.ID)
		if err != nil {
			return err
		}
		o.TotalAmount = models.SumSubOrders(siblings)
		if err := r.Orders.UpdateOrderTotal(ctx, o.ID, o.TotalAmount); err != nil {
			return err
		}

		order = o
		res = &models.AdjustmentResult{
			Item:       *item,
			Adjustment: item.PriceAdjustment(),
			SubOrder:   *sub,
			OrderTotal: o.TotalAmount,
		}
		return nil
	})
	if err != nil {
		s.logger.Info("item adjustment rejected",
			zap.Int64("sub_order_id", subOrderID),
			zap.Int64("item_id", itemID),
			zap.String("kind", string(models.KindOf(err))),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("item quantity adjusted",
		zap.String("sub_order_number", res.SubOrder.SubOrderNumber),
		zap.Int64("item_id", itemID),
		zap.String("actual", actual.String()),
		zap.String("adjustment", res.Adjustment.StringFixed(2)))
	if s.notifier != nil {
		s.notifier.ItemAdjusted(ctx, order, res)
	}
	return res, nil
}
