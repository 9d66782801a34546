package merchant

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu        sync.RWMutex
	merchants map[string]Merchant
}

// NewMemoryRepository returns an in-memory Repository for tests and local runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{merchants: make(map[string]Merchant)}
}

func (r *memoryRepository) Create(_ context.Context, m Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.merchants {
		if existing.OwnerID == m.OwnerID {
			return ErrAlreadyExists
		}
	}
	r.merchants[m.ID] = m
	return nil
}

func (r *memoryRepository) GetByOwner(_ context.Context, ownerID string) (Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.OwnerID == ownerID {
			return m, nil
		}
	}
	return Merchant{}, ErrNotFound
}

func (r *memoryRepository) Get(_ context.Context, id string) (Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return Merchant{}, ErrNotFound
	}
	return m, nil
}

func (r *memoryRepository) Update(_ context.Context, m Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.merchants[m.ID]; !ok {
		return ErrNotFound
	}
	m.UpdatedAt = time.Now().UTC()
	r.merchants[m.ID] = m
	return nil
}

func (r *memoryRepository) ListByStatus(_ context.Context, status string, limit int) ([]Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Merchant
	for _, m := range r.merchants {
		if m.Status == status {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
