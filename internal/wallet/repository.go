package wallet

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates no wallet exists for the owner.
	ErrNotFound = errors.New("wallet not found")

	// ErrStale indicates the balance changed between read and write; the
	// caller should re-read and retry the mutation.
	ErrStale = errors.New("wallet balance changed concurrently")

	// ErrDuplicateReference indicates a refund for this reference was already
	// written. Refunds are compensating credits, so one per reference is the
	// hard ceiling no matter how many callers race to issue it.
	ErrDuplicateReference = errors.New("refund already recorded for this reference")
)

// Store persists wallets and their append-only transaction log. Apply must
// write the new balance and the ledger entry as one unit, guarded by a
// compare-and-swap on the balance the caller read, and must reject a second
// refund entry carrying the same reference.
type Store interface {
	GetOrCreate(ctx context.Context, ownerID string) (Wallet, error)
	GetByOwner(ctx context.Context, ownerID string) (Wallet, error)
	Apply(ctx context.Context, walletID string, balanceBefore, balanceAfter int64, entry Entry) error
	Entries(ctx context.Context, ownerID string, limit int) ([]Entry, error)
}
