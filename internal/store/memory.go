package store

import (
	"context"
	"sort"
	"sync"

	"bourse/internal/engine"

	"github.com/tidwall/btree"
)

type record struct {
	security string
	order    engine.Order
	seq      uint64 // First save order, breaks creation time ties
}

// Memory is an in-process Repository. Saving an order again replaces the
// previous version but keeps its place among orders created at the same time.
type Memory struct {
	mu     sync.RWMutex
	orders btree.Map[string, record]
	seq    uint64
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(ctx context.Context, security string, orders ...engine.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range orders {
		r := record{security: security, order: o}
		if prev, ok := m.orders.Get(o.ID()); ok {
			r.seq = prev.seq
		} else {
			m.seq++
			r.seq = m.seq
		}
		m.orders.Set(o.ID(), r)
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (engine.Order, error) {
	if err := ctx.Err(); err != nil {
		return engine.Order{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.orders.Get(id)
	if !ok {
		return engine.Order{}, ErrOrderNotFound
	}
	return r.order, nil
}

func (m *Memory) ListByShareholder(ctx context.Context, shareholderID string) ([]engine.Order, error) {
	return m.list(ctx, func(r record) bool {
		return r.order.ShareholderID() == shareholderID
	})
}

func (m *Memory) ListResting(ctx context.Context, security string) ([]*engine.Order, error) {
	orders, err := m.list(ctx, func(r record) bool {
		return r.security == security && !r.order.Status().IsTerminal()
	})
	if err != nil {
		return nil, err
	}
	out := make([]*engine.Order, len(orders))
	for i := range orders {
		out[i] = &orders[i]
	}
	return out, nil
}

func (m *Memory) list(ctx context.Context, keep func(record) bool) ([]engine.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	var matched []record
	m.orders.Scan(func(_ string, r record) bool {
		if keep(r) {
			matched = append(matched, r)
		}
		return true
	})
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].order.CreatedAt(), matched[j].order.CreatedAt()
		if !a.Equal(b) {
			return a.Before(b)
		}
		return matched[i].seq < matched[j].seq
	})
	out := make([]engine.Order, len(matched))
	for i, r := range matched {
		out[i] = r.order
	}
	return out, nil
}
