package repositories

import (
	"context"

	"dz-fellah/models"

	"github.com/jackc/pgx/v5"
)

type CartRepositoryPG struct {
	db DBTX
}

const cartItemColumns = `id, cart_id, product_id, quantity, price_snapshot, added_at, updated_at`

func scanCartItem(row pgx.Row) (*models.CartItem, error) {
	var it models.CartItem
	if err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.PriceSnapshot, &it.AddedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *CartRepositoryPG) GetByCustomer(ctx context.Context, customerID int64) (*models.Cart, error) {
	query := `SELECT id, customer_id, created_at, updated_at FROM carts WHERE customer_id = $1`

	var c models.Cart
	err := r.db.QueryRow(ctx, query, customerID).Scan(&c.ID, &c.CustomerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "cart")
	}
	return &c, nil
}

func (r *CartRepositoryPG) GetOrCreate(ctx context.Context, customerID int64) (*models.Cart, error) {
	query := `
		INSERT INTO carts (customer_id, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING id, customer_id, created_at, updated_at
	`
	var c models.Cart
	err := r.db.QueryRow(ctx, query, customerID).Scan(&c.ID, &c.CustomerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CartRepositoryPG) LockByCustomer(ctx context.Context, customerID int64) (*models.Cart, error) {
	query := `SELECT id, customer_id, created_at, updated_at FROM carts WHERE customer_id = $1 FOR UPDATE`

	var c models.Cart
	err := r.db.QueryRow(ctx, query, customerID).Scan(&c.ID, &c.CustomerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "cart")
	}
	return &c, nil
}

func (r *CartRepositoryPG) ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	query := `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (r *CartRepositoryPG) GetItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error) {
	query := `SELECT ` + cartItemColumns + ` FROM cart_items WHERE id = $1 AND cart_id = $2`
	it, err := scanCartItem(r.db.QueryRow(ctx, query, itemID, cartID))
	if err != nil {
		return nil, notFound(err, "cart item")
	}
	return it, nil
}

func (r *CartRepositoryPG) MergeItem(ctx context.Context, item *models.CartItem) error {
	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity, price_snapshot, added_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (cart_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING ` + cartItemColumns
	merged, err := scanCartItem(r.db.QueryRow(ctx, query, item.CartID, item.ProductID, item.Quantity, item.PriceSnapshot))
	if err != nil {
		return err
	}
	*item = *merged
	return nil
}

func (r *CartRepositoryPG) UpdateItem(ctx context.Context, itemID int64, upd models.CartItemUpdate) (*models.CartItem, error) {
	query := `UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + cartItemColumns
	it, err := scanCartItem(r.db.QueryRow(ctx, query, upd.Quantity, itemID))
	if err != nil {
		return nil, notFound(err, "cart item")
	}
	return it, nil
}

func (r *CartRepositoryPG) DeleteItem(ctx context.Context, cartID, itemID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "cart item")
	}
	return nil
}

func (r *CartRepositoryPG) Clear(ctx context.Context, cartID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}
