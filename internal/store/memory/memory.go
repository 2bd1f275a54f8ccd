// Package memory is an in-process implementation of repository.Repository.
// It backs the service tests and STORE_DRIVER=memory development runs; it is
// not shared between processes.
package memory

import (
	"context"
	"sync"
	"time"

	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
)

type followKey struct {
	userID int64
	shopID int64
}

type state struct {
	users     map[int64]*models.User
	shops     map[int64]*models.Shop
	products  map[int64]*models.Product
	carts     map[int64]int64 // user id -> cart id
	cartItems map[int64]*models.CartItem
	orders    map[int64]*models.Order
	reviews   map[int64]*models.Review
	follows   map[followKey]time.Time
	processed map[string]string
	seq       map[string]int64
}

func newState() *state {
	return &state{
		users:     make(map[int64]*models.User),
		shops:     make(map[int64]*models.Shop),
		products:  make(map[int64]*models.Product),
		carts:     make(map[int64]int64),
		cartItems: make(map[int64]*models.CartItem),
		orders:    make(map[int64]*models.Order),
		reviews:   make(map[int64]*models.Review),
		follows:   make(map[followKey]time.Time),
		processed: make(map[string]string),
		seq:       make(map[string]int64),
	}
}

func (st *state) nextID(kind string) int64 {
	st.seq[kind]++
	return st.seq[kind]
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.users {
		c.users[k] = cloneUser(v)
	}
	for k, v := range st.shops {
		c.shops[k] = cloneShop(v)
	}
	for k, v := range st.products {
		c.products[k] = cloneProduct(v)
	}
	for k, v := range st.carts {
		c.carts[k] = v
	}
	for k, v := range st.cartItems {
		item := *v
		c.cartItems[k] = &item
	}
	for k, v := range st.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range st.reviews {
		review := *v
		c.reviews[k] = &review
	}
	for k, v := range st.follows {
		c.follows[k] = v
	}
	for k, v := range st.processed {
		c.processed[k] = v
	}
	for k, v := range st.seq {
		c.seq[k] = v
	}
	return c
}

// Store keeps all data in maps guarded by one mutex. A transaction holds the
// mutex for its whole duration, so transactions are serialized.
type Store struct {
	mu   *sync.Mutex
	data *state
	inTx bool
}

var _ repository.Repository = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		mu:   &sync.Mutex{},
		data: newState(),
	}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// RunInTx runs fn with exclusive access and restores the previous state when
// fn fails or panics.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repo repository.Repository) error) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			*s.data = *snapshot
			panic(p)
		}
		if err != nil {
			*s.data = *snapshot
		}
	}()

	return fn(ctx, &Store{mu: s.mu, data: s.data, inTx: true})
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func now() time.Time {
	return time.Now().UTC()
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func cloneShop(shop *models.Shop) *models.Shop {
	if shop == nil {
		return nil
	}
	c := *shop
	c.Tags = append(models.StringList{}, shop.Tags...)
	return &c
}

func cloneProduct(p *models.Product) *models.Product {
	if p == nil {
		return nil
	}
	c := *p
	c.Tags = append(models.StringList{}, p.Tags...)
	c.Images = append(models.StringList{}, p.Images...)
	c.Options = make(models.OptionMap, len(p.Options))
	for k, v := range p.Options {
		c.Options[k] = append([]string{}, v...)
	}
	return &c
}

func cloneOrder(o *models.Order) *models.Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]models.OrderItem{}, o.Items...)
	return &c
}
