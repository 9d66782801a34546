package coupon

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.Mutex
	coupons map[string]Coupon
	orders  map[string]Order

	failInsertOrder error
}

// NewMemoryStore returns an in-memory Store for tests and local runs.
func NewMemoryStore() Store {
	return &memoryStore{
		coupons: make(map[string]Coupon),
		orders:  make(map[string]Order),
	}
}

// FailNextInsertOrder makes the store return err on its next InsertOrder
// call. Used in tests to exercise the release compensation.
func FailNextInsertOrder(store Store, err error) {
	if mem, ok := store.(*memoryStore); ok {
		mem.mu.Lock()
		mem.failInsertOrder = err
		mem.mu.Unlock()
	}
}

func (s *memoryStore) Create(_ context.Context, c Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons[c.ID] = c
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[id]
	if !ok {
		return Coupon{}, ErrNotFound
	}
	return c, nil
}

func (s *memoryStore) ListAvailable(_ context.Context, limit int) ([]Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var out []Coupon
	for _, c := range s.coupons {
		if c.Status != StatusAvailable {
			continue
		}
		if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) MarkSold(_ context.Context, id, buyerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[id]
	if !ok {
		return ErrNotFound
	}
	if c.Status != StatusAvailable {
		return ErrNotAvailable
	}
	now := time.Now().UTC()
	c.Status = StatusSold
	c.PurchasedBy = buyerID
	c.SoldAt = &now
	s.coupons[id] = c
	return nil
}

func (s *memoryStore) ReleaseSold(_ context.Context, id, buyerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[id]
	if !ok || c.Status != StatusSold || c.PurchasedBy != buyerID {
		return ErrNotFound
	}
	c.Status = StatusAvailable
	c.PurchasedBy = ""
	c.SoldAt = nil
	s.coupons[id] = c
	return nil
}

func (s *memoryStore) InsertOrder(_ context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsertOrder != nil {
		err := s.failInsertOrder
		s.failInsertOrder = nil
		return err
	}
	s.orders[o.ID] = o
	return nil
}

func (s *memoryStore) OrdersForBuyer(_ context.Context, buyerID string, limit int) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
