package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"dz-fellah/models"
)

type memState struct {
	nextID    int64
	products  map[int64]models.Product
	producers map[int64]models.ProducerContact
	carts     map[int64]models.Cart
	cartItems map[int64]models.CartItem
	orders    map[int64]models.Order
	subOrders map[int64]models.SubOrder
	items     map[int64]models.OrderItem
	counters  map[string]int64
}

func newMemState() *memState {
	return &memState{
		products:  map[int64]models.Product{},
		producers: map[int64]models.ProducerContact{},
		carts:     map[int64]models.Cart{},
		cartItems: map[int64]models.CartItem{},
		orders:    map[int64]models.Order{},
		subOrders: map[int64]models.SubOrder{},
		items:     map[int64]models.OrderItem{},
		counters:  map[string]int64{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// clone copies every table. Values are stored by value and pointer fields
// inside them are replaced, never mutated, so a shallow copy per row is enough.
func (s *memState) clone() *memState {
	return &memState{
		nextID:    s.nextID,
		products:  cloneMap(s.products),
		producers: cloneMap(s.producers),
		carts:     cloneMap(s.carts),
		cartItems: cloneMap(s.cartItems),
		orders:    cloneMap(s.orders),
		subOrders: cloneMap(s.subOrders),
		items:     cloneMap(s.items),
		counters:  cloneMap(s.counters),
	}
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

// MemoryStore keeps everything in process. Transactions run serialized on a
// private copy of the state that replaces the live one only on success.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState(), now: time.Now}
}

// SetClock replaces the timestamp source, for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Repos() Repos {
	return memRepos(&memView{store: s})
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(r Repos) error) error {
	if err := ctx.Err(); err != nil {
		return models.Aborted(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(memRepos(&memView{state: work, now: s.now})); err != nil {
		return classify(err)
	}
	if err := ctx.Err(); err != nil {
		return models.Aborted(err)
	}
	s.state = work
	return nil
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) SeedProducer(c models.ProducerContact) models.ProducerContact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.state.id()
	} else if c.ID > s.state.nextID {
		s.state.nextID = c.ID
	}
	s.state.producers[c.ID] = c
	return c
}

func (s *MemoryStore) SeedProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.state.id()
	} else if p.ID > s.state.nextID {
		s.state.nextID = p.ID
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.now()
	}
	s.state.products[p.ID] = p
	return p
}

// memView is either bound to the live store (autocommit, one lock per call)
// or to a transaction's private state (already serialized).
type memView struct {
	store *MemoryStore
	state *memState
	now   func() time.Time
}

func (v *memView) do(fn func(st *memState, now time.Time) error) error {
	if v.store != nil {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
		return fn(v.store.state, v.store.now())
	}
	return fn(v.state, v.now())
}

func memRepos(v *memView) Repos {
	return Repos{
		Products: &productsMem{v: v},
		Carts:    &cartsMem{v: v},
		Orders:   &ordersMem{v: v},
	}
}

func sortedValues[V any](m map[int64]V, keep func(V) bool) []V {
	keys := make([]int64, 0, len(m))
	for k, v := range m {
		if keep(v) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func reversed[V any](vs []V) []V {
	for i, j := 0, len(vs)-1; i < j; i, j = i+1, j-1 {
		vs[i], vs[j] = vs[j], vs[i]
	}
	return vs
}
