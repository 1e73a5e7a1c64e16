package repositories

import (
	"context"

	"dz-fellah/models"

	"github.com/shopspring/decimal"
)

// ProductRepository is the catalog lookup plus the inventory ledger.
type ProductRepository interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	// GetProducts is a plain batch read keyed by id. Missing ids are absent.
	GetProducts(ctx context.Context, ids []int64) (map[int64]*models.Product, error)
	// LockProducts returns the products row-locked for the life of the
	// transaction, keyed by id. Missing ids are simply absent.
	LockProducts(ctx context.Context, ids []int64) (map[int64]*models.Product, error)
	// DecrementStock fails with ErrInsufficientStock when stock < amount.
	DecrementStock(ctx context.Context, id int64, amount decimal.Decimal) error
	IncrementStock(ctx context.Context, id int64, amount decimal.Decimal) error
	GetProducerContact(ctx context.Context, producerID int64) (*models.ProducerContact, error)
	MarkAntiGaspi(ctx context.Context, rule models.AntiGaspiRule) (int64, error)
}

type CartRepository interface {
	GetByCustomer(ctx context.Context, customerID int64) (*models.Cart, error)
	// GetOrCreate is idempotent under concurrent callers.
	GetOrCreate(ctx context.Context, customerID int64) (*models.Cart, error)
	LockByCustomer(ctx context.Context, customerID int64) (*models.Cart, error)
	ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	GetItem(ctx context.Context, cartID, itemID int64) (*models.CartItem, error)
	// MergeItem inserts the line or adds its quantity to the existing line
	// for the same product, keeping that line's price snapshot. item is
	// overwritten with the stored row.
	MergeItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, itemID int64, upd models.CartItemUpdate) (*models.CartItem, error)
	DeleteItem(ctx context.Context, cartID, itemID int64) error
	Clear(ctx context.Context, cartID int64) error
}

type OrderRepository interface {
	NextDailySequence(ctx context.Context, day string) (int64, error)
	InsertOrder(ctx context.Context, o *models.Order) error
	InsertSubOrder(ctx context.Context, s *models.SubOrder) error
	InsertItem(ctx context.Context, it *models.OrderItem) error

	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	LockOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error)
	ListSubOrders(ctx context.Context, orderID int64) ([]models.SubOrder, error)
	GetSubOrder(ctx context.Context, id int64) (*models.SubOrder, error)
	LockSubOrder(ctx context.Context, id int64) (*models.SubOrder, error)
	ListSubOrdersByProducer(ctx context.Context, producerID int64) ([]models.SubOrder, error)
	ListItems(ctx context.Context, subOrderID int64) ([]models.OrderItem, error)
	GetItem(ctx context.Context, subOrderID, itemID int64) (*models.OrderItem, error)

	UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error
	UpdateOrderTotal(ctx context.Context, id int64, total decimal.Decimal) error
	UpdateSubOrderStatus(ctx context.Context, id int64, upd models.SubOrderStatusUpdate) error
	UpdateSubOrderSubtotal(ctx context.Context, id int64, subtotal decimal.Decimal) error
	SetItemActualQuantity(ctx context.Context, itemID int64, actual decimal.Decimal) error
}

type Repos struct {
	Products ProductRepository
	Carts    CartRepository
	Orders   OrderRepository
}

// Store hands out repositories, either autocommit or bound to one transaction.
type Store interface {
	Repos() Repos
	// WithTx runs fn in a single transaction. Any error from fn rolls
	// everything back; infrastructure errors come back wrapped as
	// models.ErrTransactionAborted.
	WithTx(ctx context.Context, fn func(r Repos) error) error
	Close()
}
