// Package memory is an in-process implementation of the repositories with
// all-or-nothing transactions. The use-case tests run against it.
package memory

import (
	"context"
	"sync"

	"github.com/fekuna/omnipos-storefront-service/internal/model"
)

type txKey struct{}

type state struct {
	tenants   map[string]model.Tenant
	wallets   map[string]model.Wallet // by tenant id
	ledger    []model.WalletTransaction
	items     map[string]model.Item
	movements []model.StockMovement
	orders    map[string]model.Order
	posts     map[string]model.Post
	likes     map[likeKey]model.PostLike
}

type likeKey struct {
	postID   string
	clientID string
}

func newState() *state {
	return &state{
		tenants: map[string]model.Tenant{},
		wallets: map[string]model.Wallet{},
		items:   map[string]model.Item{},
		orders:  map[string]model.Order{},
		posts:   map[string]model.Post{},
		likes:   map[likeKey]model.PostLike{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.tenants {
		c.tenants[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	c.ledger = append([]model.WalletTransaction(nil), s.ledger...)
	for k, v := range s.items {
		c.items[k] = cloneItem(v)
	}
	c.movements = append([]model.StockMovement(nil), s.movements...)
	for k, v := range s.orders {
		v.Items = append([]model.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range s.posts {
		c.posts[k] = v
	}
	for k, v := range s.likes {
		c.likes[k] = v
	}
	return c
}

func cloneItem(it model.Item) model.Item {
	it.Variants = append([]model.ItemVariant(nil), it.Variants...)
	it.Extras = append([]model.ItemExtra(nil), it.Extras...)
	return it
}

// Store holds every table in memory. Transactions are serialized, which gives
// the same outcome as the row locks taken by the postgres repositories.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state

	failMu sync.Mutex
	fail   map[string]error
}

func NewStore() *Store {
	return &Store{data: newState(), fail: map[string]error{}}
}

// WithinTx snapshots the data and restores the snapshot when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// FailNext makes the next call of op return err. Ops are named
// "<table>.<method>", e.g. "orders.create" or "wallets.lock".
func (s *Store) FailNext(op string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.fail[op] = err
}

func (s *Store) injected(op string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	err, ok := s.fail[op]
	if !ok {
		return nil
	}
	delete(s.fail, op)
	return err
}

// write runs fn with exclusive access. Outside a transaction it also takes
// the transaction lock so a concurrent rollback cannot discard the write.
func (s *Store) write(ctx context.Context, op string, fn func(d *state) error) error {
	if err := s.injected(op); err != nil {
		return err
	}
	if ctx.Value(txKey{}) == nil {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) read(op string, fn func(d *state) error) error {
	if err := s.injected(op); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

func (s *Store) Tenants() *TenantRepository { return &TenantRepository{s: s} }

func (s *Store) Wallets() *WalletRepository { return &WalletRepository{s: s} }

func (s *Store) Catalog() *CatalogRepository { return &CatalogRepository{s: s} }

func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }

func (s *Store) Posts() *PostRepository { return &PostRepository{s: s} }
