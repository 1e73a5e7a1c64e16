package services

import (
	"context"
	"testing"
	"time"

	"dz-fellah/events"
	"dz-fellah/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCreateOrderFromCartSplitsByProducer(t *testing.T) {
	f := newFixture(t)
	o := f.checkout2600(t)

	assert.Equal(t, "DZF-20250115-0001", o.OrderNumber)
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, models.DeliveryPickupProducer, o.DeliveryMethod)
	assert.Equal(t, "2600.00", o.TotalAmount.StringFixed(2))
	require.Len(t, o.SubOrders, 2)

	a, b := o.SubOrders[0], o.SubOrders[1]
	assert.Equal(t, f.farmA.ID, a.ProducerID)
	assert.Equal(t, "DZF-20250115-0001-P1", a.SubOrderNumber)
	assert.Equal(t, "200.00", a.Subtotal.StringFixed(2))
	require.Len(t, a.Items, 1)
	assert.Equal(t, "Tomatoes", a.Items[0].ProductName)
	assert.Equal(t, models.SaleTypeWeight, a.Items[0].SaleType)
	assert.False(t, a.Items[0].QuantityActual.Valid)

	assert.Equal(t, f.farmB.ID, b.ProducerID)
	assert.Equal(t, "DZF-20250115-0001-P2", b.SubOrderNumber)
	assert.Equal(t, "2400.00", b.Subtotal.StringFixed(2))

	assert.True(t, f.stock(t, f.tomatoes).Equal(dec("8")))
	assert.True(t, f.stock(t, f.honey).Equal(dec("2")))

	view, err := f.carts.View(context.Background(), customerID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	assert.Equal(t, []string{events.TypeOrderCreated}, f.events.types())
	payload, ok := f.events.last().Payload.(events.OrderCreated)
	require.True(t, ok)
	assert.Len(t, payload.SubOrders, 2)

	require.Len(t, f.mail.sent, 2)
	assert.Equal(t, "a@example.com", f.mail.sent[0].to)
	assert.Equal(t, "DZF-20250115-0001-P1", f.mail.sent[0].notice.SubOrderNumber)
	assert.Equal(t, "b@example.com", f.mail.sent[1].to)
}

func TestCreateOrderFromCartPersistsTree(t *testing.T) {
	f := newFixture(t)
	created := f.checkout2600(t)

	got, err := f.orders.GetOrder(context.Background(), customerID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.OrderNumber, got.OrderNumber)
	require.Len(t, got.SubOrders, 2)
	for _, sub := range got.SubOrders {
		require.NotEmpty(t, sub.Items)
		assert.True(t, sub.Subtotal.Equal(models.SumItems(sub.Items)))
	}
	assert.True(t, got.TotalAmount.Equal(models.SumSubOrders(got.SubOrders)))
}

func TestCreateOrderFromCartNumbersIncreasePerDay(t *testing.T) {
	f := newFixture(t)
	first := f.checkout2600(t)

	f.add(t, 202, f.carrots, "1.5")
	second, err := f.orders.CreateOrderFromCart(context.Background(), 202, models.CheckoutRequest{})
	require.NoError(t, err)

	assert.Equal(t, "DZF-20250115-0001", first.OrderNumber)
	assert.Equal(t, "DZF-20250115-0002", second.OrderNumber)
	require.Len(t, second.SubOrders, 1)
	assert.Equal(t, "DZF-20250115-0002-P1", second.SubOrders[0].SubOrderNumber)
}

func TestCreateOrderFromCartGroupsSameProducerLines(t *testing.T) {
	f := newFixture(t)
	f.add(t, customerID, f.tomatoes, "1")
	f.add(t, customerID, f.honey, "1")
	f.add(t, customerID, f.carrots, "0.5")

	o, err := f.orders.CreateOrderFromCart(context.Background(), customerID, models.CheckoutRequest{})
	require.NoError(t, err)
	require.Len(t, o.SubOrders, 2)
	assert.Equal(t, f.farmA.ID, o.SubOrders[0].ProducerID)
	assert.Len(t, o.SubOrders[0].Items, 2)
	assert.Equal(t, "190.00", o.SubOrders[0].Subtotal.StringFixed(2))
	assert.Len(t, o.SubOrders[1].Items, 1)
}

func TestCreateOrderFromCartEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orders.CreateOrderFromCart(ctx, customerID, models.CheckoutRequest{})
	assert.ErrorIs(t, err, models.ErrEmptyCart)

	_, err = f.carts.GetOrCreateCart(ctx, customerID)
	require.NoError(t, err)
	_, err = f.orders.CreateOrderFromCart(ctx, customerID, models.CheckoutRequest{})
	assert.ErrorIs(t, err, models.ErrEmptyCart)
	assert.Empty(t, f.events.types())
}

func TestCreateOrderFromCartInsufficientStockChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, customerID, f.tomatoes, "2")
	f.add(t, customerID, f.honey, "3")

	// another buyer takes most of the honey after it was carted
	require.NoError(t, f.mem.Repos().Products.DecrementStock(ctx, f.honey.ID, dec("4")))

	_, err := f.orders.CreateOrderFromCart(ctx, customerID, models.CheckoutRequest{})
	var stockErr *models.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, f.honey.ID, stockErr.ProductID)
	assert.True(t, stockErr.Available.Equal(dec("1")))

	assert.True(t, f.stock(t, f.tomatoes).Equal(dec("10")))
	assert.True(t, f.stock(t, f.honey).Equal(dec("1")))
	view, err := f.carts.View(ctx, customerID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	orders, err := f.orders.ListOrders(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderFromCartIsAtomic(t *testing.T) {
	tests := []struct {
		op  string
		nth int
	}{
		{"NextDailySequence", 1},
		{"InsertOrder", 1},
		{"InsertSubOrder", 2},
		{"InsertItem", 2},
		{"DecrementStock", 1},
		{"DecrementStock", 2},
		{"Clear", 1},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.add(t, customerID, f.tomatoes, "2")
			f.add(t, customerID, f.honey, "3")

			f.faults.failOn(tt.op, tt.nth)
			_, err := f.orders.CreateOrderFromCart(ctx, customerID, models.CheckoutRequest{})
			require.ErrorIs(t, err, models.ErrTransactionAborted)
			assert.ErrorIs(t, err, errInjected)
			assert.Equal(t, models.KindTransactionAborted, models.KindOf(err))

			assert.True(t, f.stock(t, f.tomatoes).Equal(dec("10")))
			assert.True(t, f.stock(t, f.honey).Equal(dec("5")))
			view, err := f.carts.View(ctx, customerID)
			require.NoError(t, err)
			assert.Len(t, view.Items, 2)
			orders, err := f.orders.ListOrders(ctx, customerID)
			require.NoError(t, err)
			assert.Empty(t, orders)
			assert.Empty(t, f.events.types())
			assert.Empty(t, f.mail.sent)

			f.faults.failOn("", 0)
			o, err := f.orders.CreateOrderFromCart(ctx, customerID, models.CheckoutRequest{})
			require.NoError(t, err)
			assert.Equal(t, "DZF-20250115-0001", o.OrderNumber)
		})
	}
}

func TestCreateOrderFromCartDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, customerID, f.honey, "1")

	_, err := f.orders.CreateOrderFromCart(ctx, customerID, models.CheckoutRequest{DeliveryMethod: "drone"})
	assert.ErrorIs(t, err, models.ErrInvalidDeliveryMethod)

	_, err = f.orders.CreateOrderFromCart(ctx, customerID, models.CheckoutRequest{
		DeliveryMethod:  models.DeliveryPickupPoint,
		DeliveryAddress: "   ",
	})
	assert.ErrorIs(t, err, models.ErrInvalidDeliveryMethod)

	o, err := f.orders.CreateOrderFromCart(ctx, customerID, models.CheckoutRequest{
		DeliveryMethod:  models.DeliveryPickupPoint,
		DeliveryAddress: " Place des Martyrs, Alger ",
		Notes:           "after 17h",
	})
	require.NoError(t, err)
	require.NotNil(t, o.DeliveryAddress)
	assert.Equal(t, "Place des Martyrs, Alger", *o.DeliveryAddress)
	require.NotNil(t, o.Notes)
	assert.Equal(t, "after 17h", *o.Notes)
}

func TestCancelOrderRestocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.checkout2600(t)

	cancelled, err := f.orders.CancelOrder(ctx, customerID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	for _, sub := range cancelled.SubOrders {
		assert.Equal(t, models.StatusCancelled, sub.Status)
	}
	assert.True(t, f.stock(t, f.tomatoes).Equal(dec("10")))
	assert.True(t, f.stock(t, f.honey).Equal(dec("5")))
	assert.Equal(t, events.TypeOrderCancelled, f.events.last().Type)

	_, err = f.orders.CancelOrder(ctx, customerID, o.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.True(t, f.stock(t, f.honey).Equal(dec("5")))
}

func TestCancelOrderRejectedOnceAnySubOrderAdvanced(t *testing.T) {
	tests := []struct {
		name   string
		moves  []models.OrderStatus
		parent models.OrderStatus
	}{
		{"preparing", []models.OrderStatus{models.StatusConfirmed, models.StatusPreparing}, models.StatusPreparing},
		// ready beside a pending sibling derives to confirmed, still blocked
		{"ready", []models.OrderStatus{models.StatusConfirmed, models.StatusPreparing, models.StatusReady}, models.StatusConfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			o := f.checkout2600(t)
			a := f.subOrderOf(t, o, f.farmA.ID)

			res := f.move(t, f.farmA.ID, a.ID, tt.moves...)
			assert.Equal(t, tt.parent, res.OrderStatus)

			_, err := f.orders.CancelOrder(ctx, customerID, o.ID)
			var transErr *models.InvalidTransitionError
			require.ErrorAs(t, err, &transErr)
			assert.Equal(t, tt.moves[len(tt.moves)-1], transErr.From)
			assert.Equal(t, models.StatusCancelled, transErr.To)
			assert.True(t, f.stock(t, f.tomatoes).Equal(dec("8")))
			assert.True(t, f.stock(t, f.honey).Equal(dec("2")))

			got, err := f.orders.GetOrder(ctx, customerID, o.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.parent, got.Status)
			assert.Equal(t, models.StatusPending, f.subOrderOf(t, got, f.farmB.ID).Status)
		})
	}
}

func TestCancelOrderSkipsCancelledSubOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.checkout2600(t)
	b := f.subOrderOf(t, o, f.farmB.ID)

	res := f.move(t, f.farmB.ID, b.ID, models.StatusCancelled)
	assert.Equal(t, models.StatusConfirmed, res.OrderStatus)
	assert.True(t, f.stock(t, f.honey).Equal(dec("5")))

	_, err := f.orders.CancelOrder(ctx, customerID, o.ID)
	require.NoError(t, err)
	assert.True(t, f.stock(t, f.tomatoes).Equal(dec("10")))
	assert.True(t, f.stock(t, f.honey).Equal(dec("5")))
}

func TestCancelOrderIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.checkout2600(t)

	f.faults.failOn("IncrementStock", 2)
	_, err := f.orders.CancelOrder(ctx, customerID, o.ID)
	require.ErrorIs(t, err, models.ErrTransactionAborted)
	assert.True(t, f.stock(t, f.tomatoes).Equal(dec("8")))
	assert.True(t, f.stock(t, f.honey).Equal(dec("2")))

	got, err := f.orders.GetOrder(ctx, customerID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	for _, sub := range got.SubOrders {
		assert.Equal(t, models.StatusPending, sub.Status)
	}
}

func TestCancelOrderSkipsRestockOfDeletedProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.checkout2600(t)

	core, logs := observer.New(zapcore.WarnLevel)
	orders := NewOrderService(f.faults, nil, zap.New(core), WithClock(func() time.Time { return fixedNow }))
	f.faults.forget(f.honey.ID)

	got, err := orders.CancelOrder(ctx, customerID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	for _, sub := range got.SubOrders {
		assert.Equal(t, models.StatusCancelled, sub.Status)
	}
	assert.True(t, f.stock(t, f.tomatoes).Equal(dec("10")))
	assert.True(t, f.stock(t, f.honey).Equal(dec("2")))

	entries := logs.FilterMessage("restock skipped, product no longer exists").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, f.honey.ID, fields["product_id"])
	assert.Equal(t, "3", fields["quantity"])
}

func TestStockIsConservedAcrossCheckoutAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.add(t, 1, f.tomatoes, "2.25")
	f.add(t, 1, f.honey, "1")
	first, err := f.orders.CreateOrderFromCart(ctx, 1, models.CheckoutRequest{})
	require.NoError(t, err)

	f.add(t, 2, f.tomatoes, "3")
	f.add(t, 2, f.carrots, "4")
	_, err = f.orders.CreateOrderFromCart(ctx, 2, models.CheckoutRequest{})
	require.NoError(t, err)

	_, err = f.orders.CancelOrder(ctx, 1, first.ID)
	require.NoError(t, err)

	assert.True(t, f.stock(t, f.tomatoes).Equal(dec("7")))
	assert.True(t, f.stock(t, f.carrots).Equal(dec("2")))
	assert.True(t, f.stock(t, f.honey).Equal(dec("5")))
}

func TestGetOrderOfAnotherCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.checkout2600(t)

	_, err := f.orders.GetOrder(ctx, 999, o.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.orders.CancelOrder(ctx, 999, o.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.orders.GetOrder(ctx, customerID, 12345)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListOrdersNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.add(t, customerID, f.honey, "1")
	first, err := f.orders.CreateOrderFromCart(ctx, customerID, models.CheckoutRequest{})
	require.NoError(t, err)
	f.add(t, customerID, f.tomatoes, "1")
	second, err := f.orders.CreateOrderFromCart(ctx, customerID, models.CheckoutRequest{})
	require.NoError(t, err)

	orders, err := f.orders.ListOrders(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	require.Len(t, orders[0].SubOrders, 1)
	assert.Empty(t, orders[0].SubOrders[0].Items)
}
