package repositories

import (
	"context"
	"errors"

	"dz-fellah/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type ProductRepositoryPG struct {
	db DBTX
}

const productColumns = `id, producer_id, name, sale_type, price, original_price, stock,
	product_type, harvest_date, is_anti_gaspi, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.ProducerID, &p.Name, &p.SaleType, &p.Price, &p.OriginalPrice, &p.Stock,
		&p.ProductType, &p.HarvestDate, &p.IsAntiGaspi, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepositoryPG) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrProductNotFound
	}
	return p, err
}

func (r *ProductRepositoryPG) GetProducts(ctx context.Context, ids []int64) (map[int64]*models.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
}

func (r *ProductRepositoryPG) LockProducts(ctx context.Context, ids []int64) (map[int64]*models.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
}

func (r *ProductRepositoryPG) queryProducts(ctx context.Context, query string, ids []int64) (map[int64]*models.Product, error) {
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[int64]*models.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

func (r *ProductRepositoryPG) DecrementStock(ctx context.Context, id int64, amount decimal.Decimal) error {
	query := `UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1`
	tag, err := r.db.Exec(ctx, query, amount, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	p, err := r.GetProduct(ctx, id)
	if errors.Is(err, models.ErrProductNotFound) {
		return &models.ProductUnavailableError{ProductID: id}
	}
	if err != nil {
		return err
	}
	return &models.InsufficientStockError{ProductID: id, Name: p.Name, Requested: amount, Available: p.Stock}
}

func (r *ProductRepositoryPG) IncrementStock(ctx context.Context, id int64, amount decimal.Decimal) error {
	query := `UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, amount, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &models.ProductUnavailableError{ProductID: id}
	}
	return nil
}

func (r *ProductRepositoryPG) GetProducerContact(ctx context.Context, producerID int64) (*models.ProducerContact, error) {
	query := `SELECT id, shop_name, email FROM producers WHERE id = $1`

	var c models.ProducerContact
	err := r.db.QueryRow(ctx, query, producerID).Scan(&c.ID, &c.ShopName, &c.Email)
	if err != nil {
		return nil, notFound(err, "producer")
	}
	return &c, nil
}

// MarkAntiGaspi touches price and flag columns only, never stock.
func (r *ProductRepositoryPG) MarkAntiGaspi(ctx context.Context, rule models.AntiGaspiRule) (int64, error) {
	query := `
		UPDATE products
		SET is_anti_gaspi = TRUE,
			original_price = price,
			price = ROUND(price * 0.5, 2),
			updated_at = NOW()
		WHERE product_type = ANY($1)
			AND harvest_date IS NOT NULL
			AND harvest_date <= $2::date
			AND stock > $3
			AND is_anti_gaspi = FALSE
	`
	tag, err := r.db.Exec(ctx, query, rule.Categories, rule.HarvestedOnOrBefore, rule.MinStock)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
