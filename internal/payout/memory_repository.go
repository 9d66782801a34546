package payout

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.Mutex
	requests map[string]Request

	failCreate     error
	failTransition error
}

// NewMemoryRepository returns an in-memory Repository for tests and local runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{requests: make(map[string]Request)}
}

// FailNextCreate makes the repository return err on its next Create call.
// Used in tests to exercise the compensation path.
func FailNextCreate(repo Repository, err error) {
	if mem, ok := repo.(*memoryRepository); ok {
		mem.mu.Lock()
		mem.failCreate = err
		mem.mu.Unlock()
	}
}

// FailNextTransition makes the repository return err on its next Transition call.
func FailNextTransition(repo Repository, err error) {
	if mem, ok := repo.(*memoryRepository); ok {
		mem.mu.Lock()
		mem.failTransition = err
		mem.mu.Unlock()
	}
}

func (m *memoryRepository) Create(_ context.Context, req Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		err := m.failCreate
		m.failCreate = nil
		return err
	}
	for _, existing := range m.requests {
		if existing.MerchantID == req.MerchantID && existing.Status == StatusPending {
			return ErrPendingExists
		}
	}
	m.requests[req.ID] = req
	return nil
}

func (m *memoryRepository) HasPending(_ context.Context, merchantID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, req := range m.requests {
		if req.MerchantID == merchantID && req.Status == StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepository) Get(_ context.Context, id string) (Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (m *memoryRepository) ListByMerchant(_ context.Context, merchantID string, limit int) ([]Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Request
	for _, req := range m.requests {
		if req.MerchantID == merchantID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepository) ListByStatus(_ context.Context, status string, limit int) ([]Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Request
	for _, req := range m.requests {
		if req.Status == status {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepository) Transition(_ context.Context, id string, from []string, to, note, reviewer string) (Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTransition != nil {
		err := m.failTransition
		m.failTransition = nil
		return Request{}, err
	}
	req, ok := m.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	allowed := false
	for _, status := range from {
		if req.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return Request{}, ErrConflict
	}
	now := time.Now().UTC()
	req.Status = to
	req.AdminNote = note
	req.ReviewedBy = reviewer
	req.ReviewedAt = &now
	m.requests[id] = req
	return req, nil
}
