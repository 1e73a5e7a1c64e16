package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"dz-fellah/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seededStore(t *testing.T) (*MemoryStore, models.Product) {
	t.Helper()
	s := NewMemoryStore()
	s.SetClock(func() time.Time { return time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC) })
	producer := s.SeedProducer(models.ProducerContact{ShopName: "Ferme Bio", Email: "ferme@example.com"})
	p := s.SeedProduct(models.Product{
		ProducerID: producer.ID,
		Name:       "Tomatoes",
		SaleType:   models.SaleTypeWeight,
		Price:      dec("100"),
		Stock:      dec("10"),
	})
	return s, p
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s, p := seededStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(r Repos) error {
		require.NoError(t, r.Products.DecrementStock(ctx, p.ID, dec("4")))
		_, err := r.Carts.GetOrCreate(ctx, 42)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, models.ErrTransactionAborted)

	got, err := s.Repos().Products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(dec("10")))

	_, err = s.Repos().Carts.GetByCustomer(ctx, 42)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestWithTxKeepsBusinessErrors(t *testing.T) {
	s, p := seededStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(r Repos) error {
		return r.Products.DecrementStock(ctx, p.ID, dec("11"))
	})
	var stockErr *models.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.True(t, stockErr.Available.Equal(dec("10")))
	assert.NotErrorIs(t, err, models.ErrTransactionAborted)
}

func TestWithTxCommits(t *testing.T) {
	s, p := seededStore(t)
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(r Repos) error {
		return r.Products.DecrementStock(ctx, p.ID, dec("2.5"))
	}))
	got, err := s.Repos().Products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Stock.Equal(dec("7.5")))
}

func TestWithTxCancelledContext(t *testing.T) {
	s, _ := seededStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithTx(ctx, func(Repos) error { called = true; return nil })
	assert.ErrorIs(t, err, models.ErrTransactionAborted)
	assert.False(t, called)
}

func TestDecrementStockUnknownProduct(t *testing.T) {
	s, _ := seededStore(t)
	err := s.Repos().Products.DecrementStock(context.Background(), 999, dec("1"))
	assert.ErrorIs(t, err, models.ErrProductUnavailable)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	s, _ := seededStore(t)
	ctx := context.Background()

	first, err := s.Repos().Carts.GetOrCreate(ctx, 7)
	require.NoError(t, err)
	second, err := s.Repos().Carts.GetOrCreate(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestMergeItemAddsToExistingLine(t *testing.T) {
	s, p := seededStore(t)
	ctx := context.Background()
	carts := s.Repos().Carts

	cart, err := carts.GetOrCreate(ctx, 7)
	require.NoError(t, err)
	first := &models.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: dec("1.5"), PriceSnapshot: p.Price}
	require.NoError(t, carts.MergeItem(ctx, first))
	second := &models.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: dec("2"), PriceSnapshot: dec("999")}
	require.NoError(t, carts.MergeItem(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Quantity.Equal(dec("3.5")))
	assert.True(t, second.PriceSnapshot.Equal(dec("100")))

	items, err := carts.ListItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Quantity.Equal(dec("3.5")))

	require.NoError(t, carts.Clear(ctx, cart.ID))
	items, err = carts.ListItems(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetProductsSkipsMissingIDs(t *testing.T) {
	s, p := seededStore(t)

	got, err := s.Repos().Products.GetProducts(context.Background(), []int64{p.ID, 999})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Tomatoes", got[p.ID].Name)
}

func TestNextDailySequencePerDay(t *testing.T) {
	s, _ := seededStore(t)
	ctx := context.Background()
	orders := s.Repos().Orders

	for want := int64(1); want <= 3; want++ {
		got, err := orders.NextDailySequence(ctx, "20250115")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	got, err := orders.NextDailySequence(ctx, "20250116")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestSubOrderUniquePerProducer(t *testing.T) {
	s, _ := seededStore(t)
	ctx := context.Background()
	orders := s.Repos().Orders

	o := &models.Order{CustomerID: 1, OrderNumber: "DZF-20250115-0001", Status: models.StatusPending}
	require.NoError(t, orders.InsertOrder(ctx, o))
	assert.Error(t, orders.InsertOrder(ctx, &models.Order{CustomerID: 1, OrderNumber: o.OrderNumber}))

	require.NoError(t, orders.InsertSubOrder(ctx, &models.SubOrder{OrderID: o.ID, ProducerID: 3, SubOrderNumber: "DZF-20250115-0001-P1"}))
	assert.Error(t, orders.InsertSubOrder(ctx, &models.SubOrder{OrderID: o.ID, ProducerID: 3, SubOrderNumber: "DZF-20250115-0001-P2"}))
}

func TestMarkAntiGaspiIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	harvest := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	old := s.SeedProduct(models.Product{Name: "Carrots", ProductType: "Vegetables", Price: dec("280"), Stock: dec("20"), HarvestDate: &harvest})
	s.SeedProduct(models.Product{Name: "Salad", ProductType: "Vegetables", Price: dec("90"), Stock: dec("20"), HarvestDate: &fresh})

	rule := models.AntiGaspiRule{
		Categories:          []string{"Vegetables"},
		HarvestedOnOrBefore: time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		MinStock:            dec("3"),
	}
	ctx := context.Background()

	n, err := s.Repos().Products.MarkAntiGaspi(ctx, rule)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Repos().Products.MarkAntiGaspi(ctx, rule)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := s.Repos().Products.GetProduct(ctx, old.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAntiGaspi)
	assert.True(t, got.Price.Equal(dec("140")))
	require.True(t, got.OriginalPrice.Valid)
	assert.True(t, got.OriginalPrice.Decimal.Equal(dec("280")))
}
