package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu      sync.Mutex
	wallets map[string]Wallet // keyed by owner id
	entries []Entry
}

// NewMemoryStore constructs a concurrency-safe in-memory store for tests.
func NewMemoryStore() Store {
	return &memoryStore{wallets: make(map[string]Wallet)}
}

func (s *memoryStore) GetOrCreate(_ context.Context, ownerID string) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.wallets[ownerID]; ok {
		return w, nil
	}
	now := time.Now().UTC()
	w := Wallet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Balance:   0,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.wallets[ownerID] = w
	return w, nil
}

func (s *memoryStore) GetByOwner(_ context.Context, ownerID string) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[ownerID]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

func (s *memoryStore) Apply(_ context.Context, walletID string, balanceBefore, balanceAfter int64, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.Kind == KindRefund && entry.Reference != nil {
		for _, e := range s.entries {
			if e.Kind == KindRefund && e.Reference != nil &&
				e.Reference.ID == entry.Reference.ID && e.Reference.Kind == entry.Reference.Kind {
				return ErrDuplicateReference
			}
		}
	}
	for owner, w := range s.wallets {
		if w.ID != walletID {
			continue
		}
		if w.Balance != balanceBefore {
			return ErrStale
		}
		w.Balance = balanceAfter
		w.UpdatedAt = time.Now().UTC()
		s.wallets[owner] = w
		s.entries = append(s.entries, entry)
		return nil
	}
	return ErrNotFound
}

func (s *memoryStore) Entries(_ context.Context, ownerID string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].OwnerID == ownerID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

// FreezeWallet is a test helper that flips a wallet to the frozen status.
func FreezeWallet(st Store, ownerID string) {
	if mem, ok := st.(*memoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if w, exists := mem.wallets[ownerID]; exists {
			w.Status = StatusFrozen
			mem.wallets[ownerID] = w
		}
	}
}
