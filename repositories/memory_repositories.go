package repositories

import (
	"context"
	"fmt"
	"time"

	"dz-fellah/models"

	"github.com/shopspring/decimal"
)

func memNotFound(what string) error {
	return fmt.Errorf("%s: %w", what, models.ErrNotFound)
}

type productsMem struct{ v *memView }

func (r *productsMem) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	var out *models.Product
	err := r.v.do(func(st *memState, _ time.Time) error {
		p, ok := st.products[id]
		if !ok {
			return models.ErrProductNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *productsMem) LockProducts(ctx context.Context, ids []int64) (map[int64]*models.Product, error) {
	return r.GetProducts(ctx, ids)
}

func (r *productsMem) GetProducts(_ context.Context, ids []int64) (map[int64]*models.Product, error) {
	out := make(map[int64]*models.Product, len(ids))
	err := r.v.do(func(st *memState, _ time.Time) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				out[id] = &p
			}
		}
		return nil
	})
	return out, err
}

func (r *productsMem) DecrementStock(_ context.Context, id int64, amount decimal.Decimal) error {
	return r.v.do(func(st *memState, now time.Time) error {
		p, ok := st.products[id]
		if !ok {
			return &models.ProductUnavailableError{ProductID: id}
		}
		if p.Stock.LessThan(amount) {
			return &models.InsufficientStockError{ProductID: id, Name: p.Name, Requested: amount, Available: p.Stock}
		}
		p.Stock = p.Stock.Sub(amount)
		p.UpdatedAt = now
		st.products[id] = p
		return nil
	})
}

func (r *productsMem) IncrementStock(_ context.Context, id int64, amount decimal.Decimal) error {
	return r.v.do(func(st *memState, now time.Time) error {
		p, ok := st.products[id]
		if !ok {
			return &models.ProductUnavailableError{ProductID: id}
		}
		p.Stock = p.Stock.Add(amount)
		p.UpdatedAt = now
		st.products[id] = p
		return nil
	})
}

func (r *productsMem) GetProducerContact(_ context.Context, producerID int64) (*models.ProducerContact, error) {
	var out *models.ProducerContact
	err := r.v.do(func(st *memState, _ time.Time) error {
		c, ok := st.producers[producerID]
		if !ok {
			return memNotFound("producer")
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *productsMem) MarkAntiGaspi(_ context.Context, rule models.AntiGaspiRule) (int64, error) {
	var n int64
	err := r.v.do(func(st *memState, now time.Time) error {
		for id, p := range st.products {
			if !rule.Eligible(p) {
				continue
			}
			p.OriginalPrice = decimal.NewNullDecimal(p.Price)
			p.Price = models.DiscountedPrice(p.Price)
			p.IsAntiGaspi = true
			p.UpdatedAt = now
			st.products[id] = p
			n++
		}
		return nil
	})
	return n, err
}

type cartsMem struct{ v *memView }

func findCart(st *memState, customerID int64) (models.Cart, bool) {
	for _, c := range st.carts {
		if c.CustomerID == customerID {
			return c, true
		}
	}
	return models.Cart{}, false
}

func (r *cartsMem) GetByCustomer(_ context.Context, customerID int64) (*models.Cart, error) {
	var out *models.Cart
	err := r.v.do(func(st *memState, _ time.Time) error {
		c, ok := findCart(st, customerID)
		if !ok {
			return memNotFound("cart")
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *cartsMem) GetOrCreate(_ context.Context, customerID int64) (*models.Cart, error) {
	var out *models.Cart
	err := r.v.do(func(st *memState, now time.Time) error {
		c, ok := findCart(st, customerID)
		if !ok {
			c = models.Cart{ID: st.id(), CustomerID: customerID, CreatedAt: now, UpdatedAt: now}
			st.carts[c.ID] = c
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *cartsMem) LockByCustomer(ctx context.Context, customerID int64) (*models.Cart, error) {
	return r.GetByCustomer(ctx, customerID)
}

func (r *cartsMem) ListItems(_ context.Context, cartID int64) ([]models.CartItem, error) {
	var out []models.CartItem
	err := r.v.do(func(st *memState, _ time.Time) error {
		out = sortedValues(st.cartItems, func(it models.CartItem) bool { return it.CartID == cartID })
		return nil
	})
	return out, err
}

func (r *cartsMem) GetItem(_ context.Context, cartID, itemID int64) (*models.CartItem, error) {
	var out *models.CartItem
	err := r.v.do(func(st *memState, _ time.Time) error {
		it, ok := st.cartItems[itemID]
		if !ok || it.CartID != cartID {
			return memNotFound("cart item")
		}
		out = &it
		return nil
	})
	return out, err
}

func (r *cartsMem) MergeItem(_ context.Context, item *models.CartItem) error {
	return r.v.do(func(st *memState, now time.Time) error {
		for id, it := range st.cartItems {
			if it.CartID == item.CartID && it.ProductID == item.ProductID {
				it.Quantity = it.Quantity.Add(item.Quantity)
				it.UpdatedAt = now
				st.cartItems[id] = it
				*item = it
				return nil
			}
		}
		item.ID = st.id()
		item.AddedAt = now
		item.UpdatedAt = now
		st.cartItems[item.ID] = *item
		return nil
	})
}

func (r *cartsMem) UpdateItem(_ context.Context, itemID int64, upd models.CartItemUpdate) (*models.CartItem, error) {
	var out *models.CartItem
	err := r.v.do(func(st *memState, now time.Time) error {
		it, ok := st.cartItems[itemID]
		if !ok {
			return memNotFound("cart item")
		}
		it.Quantity = upd.Quantity
		it.UpdatedAt = now
		st.cartItems[itemID] = it
		out = &it
		return nil
	})
	return out, err
}

func (r *cartsMem) DeleteItem(_ context.Context, cartID, itemID int64) error {
	return r.v.do(func(st *memState, _ time.Time) error {
		it, ok := st.cartItems[itemID]
		if !ok || it.CartID != cartID {
			return memNotFound("cart item")
		}
		delete(st.cartItems, itemID)
		return nil
	})
}

func (r *cartsMem) Clear(_ context.Context, cartID int64) error {
	return r.v.do(func(st *memState, _ time.Time) error {
		for id, it := range st.cartItems {
			if it.CartID == cartID {
				delete(st.cartItems, id)
			}
		}
		return nil
	})
}

type ordersMem struct{ v *memView }

func (r *ordersMem) NextDailySequence(_ context.Context, day string) (int64, error) {
	var seq int64
	err := r.v.do(func(st *memState, _ time.Time) error {
		st.counters[day]++
		seq = st.counters[day]
		return nil
	})
	return seq, err
}

func (r *ordersMem) InsertOrder(_ context.Context, o *models.Order) error {
	return r.v.do(func(st *memState, now time.Time) error {
		for _, existing := range st.orders {
			if existing.OrderNumber == o.OrderNumber {
				return fmt.Errorf("duplicate order number %s", o.OrderNumber)
			}
		}
		o.ID = st.id()
		o.CreatedAt = now
		o.UpdatedAt = now
		row := *o
		row.SubOrders = nil
		st.orders[o.ID] = row
		return nil
	})
}

func (r *ordersMem) InsertSubOrder(_ context.Context, s *models.SubOrder) error {
	return r.v.do(func(st *memState, now time.Time) error {
		if _, ok := st.orders[s.OrderID]; !ok {
			return memNotFound("order")
		}
		for _, existing := range st.subOrders {
			if existing.OrderID == s.OrderID && existing.ProducerID == s.ProducerID {
				return fmt.Errorf("producer %d already has a sub-order in order %d", s.ProducerID, s.OrderID)
			}
		}
		s.ID = st.id()
		s.CreatedAt = now
		s.UpdatedAt = now
		row := *s
		row.Items = nil
		st.subOrders[s.ID] = row
		return nil
	})
}

func (r *ordersMem) InsertItem(_ context.Context, it *models.OrderItem) error {
	return r.v.do(func(st *memState, now time.Time) error {
		if _, ok := st.subOrders[it.SubOrderID]; !ok {
			return memNotFound("sub-order")
		}
		it.ID = st.id()
		it.CreatedAt = now
		st.items[it.ID] = *it
		return nil
	})
}

func (r *ordersMem) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	var out *models.Order
	err := r.v.do(func(st *memState, _ time.Time) error {
		o, ok := st.orders[id]
		if !ok {
			return memNotFound("order")
		}
		out = &o
		return nil
	})
	return out, err
}

func (r *ordersMem) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	return r.GetOrder(ctx, id)
}

func (r *ordersMem) ListOrdersByCustomer(_ context.Context, customerID int64) ([]models.Order, error) {
	var out []models.Order
	err := r.v.do(func(st *memState, _ time.Time) error {
		out = reversed(sortedValues(st.orders, func(o models.Order) bool { return o.CustomerID == customerID }))
		return nil
	})
	return out, err
}

func (r *ordersMem) ListSubOrders(_ context.Context, orderID int64) ([]models.SubOrder, error) {
	var out []models.SubOrder
	err := r.v.do(func(st *memState, _ time.Time) error {
		out = sortedValues(st.subOrders, func(s models.SubOrder) bool { return s.OrderID == orderID })
		return nil
	})
	return out, err
}

func (r *ordersMem) GetSubOrder(_ context.Context, id int64) (*models.SubOrder, error) {
	var out *models.SubOrder
	err := r.v.do(func(st *memState, _ time.Time) error {
		s, ok := st.subOrders[id]
		if !ok {
			return memNotFound("sub-order")
		}
		out = &s
		return nil
	})
	return out, err
}

func (r *ordersMem) LockSubOrder(ctx context.Context, id int64) (*models.SubOrder, error) {
	return r.GetSubOrder(ctx, id)
}

func (r *ordersMem) ListSubOrdersByProducer(_ context.Context, producerID int64) ([]models.SubOrder, error) {
	var out []models.SubOrder
	err := r.v.do(func(st *memState, _ time.Time) error {
		out = reversed(sortedValues(st.subOrders, func(s models.SubOrder) bool { return s.ProducerID == producerID }))
		return nil
	})
	return out, err
}

func (r *ordersMem) ListItems(_ context.Context, subOrderID int64) ([]models.OrderItem, error) {
	var out []models.OrderItem
	err := r.v.do(func(st *memState, _ time.Time) error {
		out = sortedValues(st.items, func(it models.OrderItem) bool { return it.SubOrderID == subOrderID })
		return nil
	})
	return out, err
}

func (r *ordersMem) GetItem(_ context.Context, subOrderID, itemID int64) (*models.OrderItem, error) {
	var out *models.OrderItem
	err := r.v.do(func(st *memState, _ time.Time) error {
		it, ok := st.items[itemID]
		if !ok || it.SubOrderID != subOrderID {
			return memNotFound("order item")
		}
		out = &it
		return nil
	})
	return out, err
}

func (r *ordersMem) UpdateOrderStatus(_ context.Context, id int64, status models.OrderStatus) error {
	return r.v.do(func(st *memState, now time.Time) error {
		o, ok := st.orders[id]
		if !ok {
			return memNotFound("order")
		}
		o.Status = status
		o.UpdatedAt = now
		st.orders[id] = o
		return nil
	})
}

func (r *ordersMem) UpdateOrderTotal(_ context.Context, id int64, total decimal.Decimal) error {
	return r.v.do(func(st *memState, now time.Time) error {
		o, ok := st.orders[id]
		if !ok {
			return memNotFound("order")
		}
		o.TotalAmount = total
		o.UpdatedAt = now
		st.orders[id] = o
		return nil
	})
}

func (r *ordersMem) UpdateSubOrderStatus(_ context.Context, id int64, upd models.SubOrderStatusUpdate) error {
	return r.v.do(func(st *memState, now time.Time) error {
		s, ok := st.subOrders[id]
		if !ok {
			return memNotFound("sub-order")
		}
		s.Status = upd.Status
		if upd.ProducerNotes != nil {
			notes := *upd.ProducerNotes
			s.ProducerNotes = &notes
		}
		s.UpdatedAt = now
		st.subOrders[id] = s
		return nil
	})
}

func (r *ordersMem) UpdateSubOrderSubtotal(_ context.Context, id int64, subtotal decimal.Decimal) error {
	return r.v.do(func(st *memState, now time.Time) error {
		s, ok := st.subOrders[id]
		if !ok {
			return memNotFound("sub-order")
		}
		s.Subtotal = subtotal
		s.UpdatedAt = now
		st.subOrders[id] = s
		return nil
	})
}

func (r *ordersMem) SetItemActualQuantity(_ context.Context, itemID int64, actual decimal.Decimal) error {
	return r.v.do(func(st *memState, _ time.Time) error {
		it, ok := st.items[itemID]
		if !ok {
			return memNotFound("order item")
		}
		it.QuantityActual = decimal.NewNullDecimal(actual)
		st.items[itemID] = it
		return nil
	})
}
