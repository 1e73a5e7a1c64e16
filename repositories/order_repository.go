package repositories

import (
	"context"

	"dz-fellah/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type OrderRepositoryPG struct {
	db DBTX
}

const (
	orderColumns = `id, customer_id, order_number, status, total_amount, delivery_method,
		delivery_address, notes, created_at, updated_at`
	subOrderColumns = `id, order_id, producer_id, sub_order_number, status, subtotal,
		producer_notes, created_at, updated_at`
	orderItemColumns = `id, sub_order_id, product_id, product_name, quantity_ordered,
		quantity_actual, unit_price, sale_type, created_at`
)

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.OrderNumber, &o.Status, &o.TotalAmount, &o.DeliveryMethod,
		&o.DeliveryAddress, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanSubOrder(row pgx.Row) (*models.SubOrder, error) {
	var s models.SubOrder
	err := row.Scan(&s.ID, &s.OrderID, &s.ProducerID, &s.SubOrderNumber, &s.Status, &s.Subtotal,
		&s.ProducerNotes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanOrderItem(row pgx.Row) (*models.OrderItem, error) {
	var it models.OrderItem
	err := row.Scan(&it.ID, &it.SubOrderID, &it.ProductID, &it.ProductName, &it.QuantityOrdered,
		&it.QuantityActual, &it.UnitPrice, &it.SaleType, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// NextDailySequence increments the per-day counter atomically. The row stays
// locked until the surrounding transaction ends.
func (r *OrderRepositoryPG) NextDailySequence(ctx context.Context, day string) (int64, error) {
	query := `
		INSERT INTO order_counters (day, last_seq) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET last_seq = order_counters.last_seq + 1
		RETURNING last_seq
	`
	var seq int64
	err := r.db.QueryRow(ctx, query, day).Scan(&seq)
	return seq, err
}

func (r *OrderRepositoryPG) InsertOrder(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (customer_id, order_number, status, total_amount, delivery_method,
			delivery_address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, o.CustomerID, o.OrderNumber, o.Status, o.TotalAmount,
		o.DeliveryMethod, o.DeliveryAddress, o.Notes).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (r *OrderRepositoryPG) InsertSubOrder(ctx context.Context, s *models.SubOrder) error {
	query := `
		INSERT INTO sub_orders (order_id, producer_id, sub_order_number, status, subtotal,
			producer_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, s.OrderID, s.ProducerID, s.SubOrderNumber, s.Status, s.Subtotal,
		s.ProducerNotes).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *OrderRepositoryPG) InsertItem(ctx context.Context, it *models.OrderItem) error {
	query := `
		INSERT INTO order_items (sub_order_id, product_id, product_name, quantity_ordered,
			quantity_actual, unit_price, sale_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query, it.SubOrderID, it.ProductID, it.ProductName, it.QuantityOrdered,
		it.QuantityActual, it.UnitPrice, it.SaleType).Scan(&it.ID, &it.CreatedAt)
}

func (r *OrderRepositoryPG) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

func (r *OrderRepositoryPG) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

func (r *OrderRepositoryPG) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *OrderRepositoryPG) listSubOrders(ctx context.Context, query string, arg int64) ([]models.SubOrder, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []models.SubOrder{}
	for rows.Next() {
		s, err := scanSubOrder(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

func (r *OrderRepositoryPG) ListSubOrders(ctx context.Context, orderID int64) ([]models.SubOrder, error) {
	return r.listSubOrders(ctx, `SELECT `+subOrderColumns+` FROM sub_orders WHERE order_id = $1 ORDER BY id`, orderID)
}

func (r *OrderRepositoryPG) ListSubOrdersByProducer(ctx context.Context, producerID int64) ([]models.SubOrder, error) {
	return r.listSubOrders(ctx,
		`SELECT `+subOrderColumns+` FROM sub_orders WHERE producer_id = $1 ORDER BY created_at DESC, id DESC`,
		producerID)
}

func (r *OrderRepositoryPG) GetSubOrder(ctx context.Context, id int64) (*models.SubOrder, error) {
	s, err := scanSubOrder(r.db.QueryRow(ctx, `SELECT `+subOrderColumns+` FROM sub_orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "sub-order")
	}
	return s, nil
}

func (r *OrderRepositoryPG) LockSubOrder(ctx context.Context, id int64) (*models.SubOrder, error) {
	s, err := scanSubOrder(r.db.QueryRow(ctx, `SELECT `+subOrderColumns+` FROM sub_orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "sub-order")
	}
	return s, nil
}

func (r *OrderRepositoryPG) ListItems(ctx context.Context, subOrderID int64) ([]models.OrderItem, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orderItemColumns+` FROM order_items WHERE sub_order_id = $1 ORDER BY id`, subOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (r *OrderRepositoryPG) GetItem(ctx context.Context, subOrderID, itemID int64) (*models.OrderItem, error) {
	query := `SELECT ` + orderItemColumns + ` FROM order_items WHERE id = $1 AND sub_order_id = $2`
	it, err := scanOrderItem(r.db.QueryRow(ctx, query, itemID, subOrderID))
	if err != nil {
		return nil, notFound(err, "order item")
	}
	return it, nil
}

func (r *OrderRepositoryPG) exec(ctx context.Context, what, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, what)
	}
	return nil
}

func (r *OrderRepositoryPG) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	return r.exec(ctx, "order", `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
}

func (r *OrderRepositoryPG) UpdateOrderTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	return r.exec(ctx, "order", `UPDATE orders SET total_amount = $1, updated_at = NOW() WHERE id = $2`, total, id)
}

func (r *OrderRepositoryPG) UpdateSubOrderStatus(ctx context.Context, id int64, upd models.SubOrderStatusUpdate) error {
	return r.exec(ctx, "sub-order", `
		UPDATE sub_orders
		SET status = $1, producer_notes = COALESCE($2, producer_notes), updated_at = NOW()
		WHERE id = $3`, upd.Status, upd.ProducerNotes, id)
}

func (r *OrderRepositoryPG) UpdateSubOrderSubtotal(ctx context.Context, id int64, subtotal decimal.Decimal) error {
	return r.exec(ctx, "sub-order", `UPDATE sub_orders SET subtotal = $1, updated_at = NOW() WHERE id = $2`, subtotal, id)
}

func (r *OrderRepositoryPG) SetItemActualQuantity(ctx context.Context, itemID int64, actual decimal.Decimal) error {
	return r.exec(ctx, "order item", `UPDATE order_items SET quantity_actual = $1 WHERE id = $2`, actual, itemID)
}
