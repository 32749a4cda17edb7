// Package inmem keeps firms and offices in process memory. It backs tests and
// dry runs of the reconciler and honours savepoint rollback like the database.
package inmem

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/firm"
	"github.com/jacksonlee411/provider-portal/modules/provider/domain/aggregates/office"
)

type SafeMap[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{
		m: make(map[K]V),
	}
}

func (s *SafeMap[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *SafeMap[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, found := s.m[key]
	return val, found
}

func (s *SafeMap[K, V]) Values() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Collect(maps.Values(s.m))
}

func (s *SafeMap[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *SafeMap[K, V]) snapshot() map[K]V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.m)
}

func (s *SafeMap[K, V]) restore(m map[K]V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = m
}

// Store holds both collections so a transaction can roll them back together.
type Store struct {
	txMu    sync.Mutex
	firms   *SafeMap[string, firm.Firm]
	offices *SafeMap[string, office.Office]
}

func NewStore() *Store {
	return &Store{
		firms:   NewSafeMap[string, firm.Firm](),
		offices: NewSafeMap[string, office.Office](),
	}
}

// Transactor gives Store all-or-nothing scopes. Savepoints nest; a failing
// scope restores the state captured when it began.
type Transactor struct {
	store *Store
}

func NewTransactor(store *Store) *Transactor {
	return &Transactor{store: store}
}

type txMarker struct{}

func (t *Transactor) InTx(ctx context.Context, fn func(context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return t.InSavepoint(ctx, fn)
	}
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()
	return t.scoped(context.WithValue(ctx, txMarker{}, true), fn)
}

func (t *Transactor) InSavepoint(ctx context.Context, fn func(context.Context) error) error {
	return t.scoped(ctx, fn)
}

func (t *Transactor) scoped(ctx context.Context, fn func(context.Context) error) error {
	firms := t.store.firms.snapshot()
	offices := t.store.offices.snapshot()
	if err := fn(ctx); err != nil {
		t.store.firms.restore(firms)
		t.store.offices.restore(offices)
		return err
	}
	return nil
}
