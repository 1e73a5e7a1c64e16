package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dz-fellah/events"
	"dz-fellah/libs"
	"dz-fellah/models"
	"dz-fellah/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func (p *recordingPublisher) last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type sentMail struct {
	to     string
	notice libs.SubOrderNotice
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) SendSubOrderCreated(to string, n libs.SubOrderNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, notice: n})
	return nil
}

var errInjected = errors.New("injected failure")

// faultStore fails the nth call of one repository operation inside a
// transaction, after the earlier writes of that transaction already ran.
type faultStore struct {
	*repositories.MemoryStore
	mu    sync.Mutex
	op    string
	nth   int
	calls int
	gone  map[int64]bool
}

// forget makes stock writes for a product behave as if its row was deleted.
func (s *faultStore) forget(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gone == nil {
		s.gone = map[int64]bool{}
	}
	s.gone[productID] = true
}

func (s *faultStore) isGone(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gone[productID]
}

func (s *faultStore) failOn(op string, nth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op, s.nth, s.calls = op, nth, 0
}

func (s *faultStore) hit(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if op != s.op {
		return nil
	}
	s.calls++
	if s.calls == s.nth {
		return errInjected
	}
	return nil
}

func (s *faultStore) WithTx(ctx context.Context, fn func(r repositories.Repos) error) error {
	return s.MemoryStore.WithTx(ctx, func(r repositories.Repos) error {
		return fn(repositories.Repos{
			Products: faultyProducts{ProductRepository: r.Products, s: s},
			Carts:    faultyCarts{CartRepository: r.Carts, s: s},
			Orders:   faultyOrders{OrderRepository: r.Orders, s: s},
		})
	})
}

type faultyProducts struct {
	repositories.ProductRepository
	s *faultStore
}

func (f faultyProducts) DecrementStock(ctx context.Context, id int64, amount decimal.Decimal) error {
	if err := f.s.hit("DecrementStock"); err != nil {
		return err
	}
	return f.ProductRepository.DecrementStock(ctx, id, amount)
}

func (f faultyProducts) IncrementStock(ctx context.Context, id int64, amount decimal.Decimal) error {
	if err := f.s.hit("IncrementStock"); err != nil {
		return err
	}
	if f.s.isGone(id) {
		return &models.ProductUnavailableError{ProductID: id}
	}
	return f.ProductRepository.IncrementStock(ctx, id, amount)
}

type faultyCarts struct {
	repositories.CartRepository
	s *faultStore
}

func (f faultyCarts) Clear(ctx context.Context, cartID int64) error {
	if err := f.s.hit("Clear"); err != nil {
		return err
	}
	return f.CartRepository.Clear(ctx, cartID)
}

type faultyOrders struct {
	repositories.OrderRepository
	s *faultStore
}

func (f faultyOrders) NextDailySequence(ctx context.Context, day string) (int64, error) {
	if err := f.s.hit("NextDailySequence"); err != nil {
		return 0, err
	}
	return f.OrderRepository.NextDailySequence(ctx, day)
}

func (f faultyOrders) InsertOrder(ctx context.Context, o *models.Order) error {
	if err := f.s.hit("InsertOrder"); err != nil {
		return err
	}
	return f.OrderRepository.InsertOrder(ctx, o)
}

func (f faultyOrders) InsertSubOrder(ctx context.Context, sub *models.SubOrder) error {
	if err := f.s.hit("InsertSubOrder"); err != nil {
		return err
	}
	return f.OrderRepository.InsertSubOrder(ctx, sub)
}

func (f faultyOrders) InsertItem(ctx context.Context, it *models.OrderItem) error {
	if err := f.s.hit("InsertItem"); err != nil {
		return err
	}
	return f.OrderRepository.InsertItem(ctx, it)
}

func (f faultyOrders) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	if err := f.s.hit("UpdateOrderStatus"); err != nil {
		return err
	}
	return f.OrderRepository.UpdateOrderStatus(ctx, id, status)
}

type fixture struct {
	mem       *repositories.MemoryStore
	faults    *faultStore
	carts     *CartService
	orders    *OrderService
	producers *ProducerOrderService
	antigaspi *AntiGaspiService
	events    *recordingPublisher
	mail      *recordingMailer

	farmA, farmB             models.ProducerContact
	tomatoes, carrots, honey models.Product
}

const customerID int64 = 101

// newFixture seeds two producers: farm A sells tomatoes (weight, 100/kg,
// stock 10) and carrots, farm B sells honey (unit, 800, stock 5).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := repositories.NewMemoryStore()
	mem.SetClock(func() time.Time { return fixedNow })
	f := &fixture{
		mem:    mem,
		faults: &faultStore{MemoryStore: mem},
		events: &recordingPublisher{},
		mail:   &recordingMailer{},
	}

	f.farmA = mem.SeedProducer(models.ProducerContact{ShopName: "Ferme A", Email: "a@example.com"})
	f.farmB = mem.SeedProducer(models.ProducerContact{ShopName: "Rucher B", Email: "b@example.com"})
	harvest := fixedNow.AddDate(0, 0, -3)
	f.tomatoes = mem.SeedProduct(models.Product{
		ProducerID: f.farmA.ID, Name: "Tomatoes", SaleType: models.SaleTypeWeight,
		Price: dec("100"), Stock: dec("10"), ProductType: "Vegetables", HarvestDate: &harvest,
	})
	f.carrots = mem.SeedProduct(models.Product{
		ProducerID: f.farmA.ID, Name: "Carrots", SaleType: models.SaleTypeWeight,
		Price: dec("180"), Stock: dec("6"), ProductType: "Vegetables",
	})
	f.honey = mem.SeedProduct(models.Product{
		ProducerID: f.farmB.ID, Name: "Honey", SaleType: models.SaleTypeUnit,
		Price: dec("800"), Stock: dec("5"), ProductType: "Honey",
	})

	logger := zap.NewNop()
	notifier := NewNotifier(f.events, f.mail, mem.Repos().Products, logger)
	f.carts = NewCartService(f.faults, logger)
	f.orders = NewOrderService(f.faults, notifier, logger, WithClock(func() time.Time { return fixedNow }))
	f.producers = NewProducerOrderService(f.faults, notifier, logger, decimal.Zero)
	f.antigaspi = NewAntiGaspiService(f.faults, nil, notifier, logger, AntiGaspiConfig{MinAgeDays: 2, MinStock: dec("3")})
	f.antigaspi.SetClock(func() time.Time { return fixedNow })
	return f
}

func (f *fixture) add(t *testing.T, customer int64, p models.Product, qty string) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), customer, p.ID, dec(qty))
	require.NoError(t, err)
}

// checkout2600 orders 2kg tomatoes from farm A and 3 honey from farm B.
func (f *fixture) checkout2600(t *testing.T) *models.Order {
	t.Helper()
	f.add(t, customerID, f.tomatoes, "2")
	f.add(t, customerID, f.honey, "3")
	o, err := f.orders.CreateOrderFromCart(context.Background(), customerID, models.CheckoutRequest{})
	require.NoError(t, err)
	return o
}

func (f *fixture) stock(t *testing.T, p models.Product) decimal.Decimal {
	t.Helper()
	got, err := f.mem.Repos().Products.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	return got.Stock
}

func (f *fixture) subOrderOf(t *testing.T, o *models.Order, producerID int64) models.SubOrder {
	t.Helper()
	for _, s := range o.SubOrders {
		if s.ProducerID == producerID {
			return s
		}
	}
	t.Fatalf("no sub-order for producer %d", producerID)
	return models.SubOrder{}
}

func (f *fixture) move(t *testing.T, producerID, subOrderID int64, to ...models.OrderStatus) *models.StatusChangeResult {
	t.Helper()
	var res *models.StatusChangeResult
	for _, st := range to {
		var err error
		res, err = f.producers.UpdateSubOrderStatus(context.Background(), producerID, subOrderID, models.SubOrderStatusUpdate{Status: st})
		require.NoError(t, err)
	}
	return res
}
