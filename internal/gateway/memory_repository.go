package gateway

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu   sync.Mutex
	txns map[string]Txn
}

// NewMemoryRepository returns an in-memory Repository for tests and local runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{txns: make(map[string]Txn)}
}

func (r *memoryRepository) Create(_ context.Context, txn Txn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txns[txn.ClientTxnID] = txn
	return nil
}

func (r *memoryRepository) GetByClientTxn(_ context.Context, clientTxnID string) (Txn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.txns[clientTxnID]
	if !ok {
		return Txn{}, ErrNotFound
	}
	return txn, nil
}

func (r *memoryRepository) ApplyCallback(_ context.Context, clientTxnID string, update CallbackUpdate) (Txn, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.txns[clientTxnID]
	if !ok {
		return Txn{}, false, ErrNotFound
	}
	// SUCCESS is sticky: a replay or late delivery leaves the row untouched.
	if txn.Status == StatusSuccess {
		return txn, false, nil
	}
	txn.Status = update.Status
	txn.Amount = update.Amount
	txn.GatewayTxnID = update.GatewayTxnID
	txn.BankTxnID = update.BankTxnID
	txn.PaymentMode = update.PaymentMode
	txn.Message = update.Message
	txn.UpdatedAt = time.Now().UTC()
	r.txns[clientTxnID] = txn
	return txn, true, nil
}

func (r *memoryRepository) MarkWalletCredited(_ context.Context, clientTxnID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.txns[clientTxnID]
	if !ok {
		return ErrNotFound
	}
	txn.WalletCredited = true
	r.txns[clientTxnID] = txn
	return nil
}

func (r *memoryRepository) ListForOwner(_ context.Context, ownerID string, limit int) ([]Txn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Txn
	for _, txn := range r.txns {
		if txn.OwnerID == ownerID {
			out = append(out, txn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
