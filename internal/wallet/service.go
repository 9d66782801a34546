package wallet

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount means a non-positive amount was passed.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientBalance occurs when a debit exceeds the available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrWalletFrozen blocks mutations on a frozen wallet.
	ErrWalletFrozen = errors.New("wallet is frozen")
)

// Balance mutations retry this many times when another writer wins the
// compare-and-swap.
const casAttempts = 3

// Service is the single authority for mutating wallet balances. Every
// mutation produces exactly one ledger entry, written atomically with the
// balance change.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService builds a wallet service instance.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// GetOrCreateWallet returns the owner's wallet, provisioning it lazily.
func (s *Service) GetOrCreateWallet(ctx context.Context, ownerID string) (Wallet, error) {
	return s.store.GetOrCreate(ctx, ownerID)
}

// Credit adds the major-unit amount to the owner's wallet and records a
// ledger entry of the given kind.
func (s *Service) Credit(ctx context.Context, ownerID string, amount decimal.Decimal, kind, description string, ref *Reference) (Entry, error) {
	paise, err := toPaise(amount)
	if err != nil {
		return Entry{}, err
	}
	return s.mutate(ctx, ownerID, kind, description, ref, func(balance int64) (int64, error) {
		return balance + paise, nil
	}, paise)
}

// Debit removes the major-unit amount from the owner's wallet. The balance is
// never driven negative; an over-debit fails with ErrInsufficientBalance and
// leaves the wallet untouched.
func (s *Service) Debit(ctx context.Context, ownerID string, amount decimal.Decimal, description string, ref *Reference) (Entry, error) {
	paise, err := toPaise(amount)
	if err != nil {
		return Entry{}, err
	}
	return s.mutate(ctx, ownerID, KindDebit, description, ref, func(balance int64) (int64, error) {
		if paise > balance {
			return 0, ErrInsufficientBalance
		}
		return balance - paise, nil
	}, paise)
}

// Balance returns the owner's current balance in major units. A missing
// wallet reads as zero without being created.
func (s *Service) Balance(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	w, err := s.store.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return toMajor(w.Balance), nil
}

// EntryView is a ledger entry with amounts converted to major units for display.
type EntryView struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Description   string          `json:"description"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	ReferenceKind string          `json:"reference_kind,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// History returns the owner's most recent ledger entries, newest first.
func (s *Service) History(ctx context.Context, ownerID string, limit int) ([]EntryView, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	entries, err := s.store.Entries(ctx, ownerID, limit)
	if err != nil {
		return nil, err
	}
	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		v := EntryView{
			ID:            e.ID,
			Kind:          e.Kind,
			Amount:        toMajor(e.Amount),
			BalanceBefore: toMajor(e.BalanceBefore),
			BalanceAfter:  toMajor(e.BalanceAfter),
			Description:   e.Description,
			CreatedAt:     e.CreatedAt,
		}
		if e.Reference != nil {
			v.ReferenceID = e.Reference.ID
			v.ReferenceKind = e.Reference.Kind
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Service) mutate(ctx context.Context, ownerID, kind, description string, ref *Reference, next func(int64) (int64, error), paise int64) (Entry, error) {
	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		w, err := s.store.GetOrCreate(ctx, ownerID)
		if err != nil {
			return Entry{}, err
		}
		if w.Status != StatusActive {
			return Entry{}, ErrWalletFrozen
		}

		after, err := next(w.Balance)
		if err != nil {
			return Entry{}, err
		}

		entry := Entry{
			ID:            uuid.NewString(),
			WalletID:      w.ID,
			OwnerID:       ownerID,
			Kind:          kind,
			Amount:        paise,
			BalanceBefore: w.Balance,
			BalanceAfter:  after,
			Description:   description,
			Reference:     ref,
			CreatedAt:     time.Now().UTC(),
		}

		err = s.store.Apply(ctx, w.ID, w.Balance, after, entry)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, ErrStale) {
			return Entry{}, err
		}
		lastErr = err
		s.logger.Debug("wallet balance CAS lost, retrying",
			slog.String("owner_id", ownerID), slog.Int("attempt", attempt+1))
	}
	return Entry{}, lastErr
}

func toPaise(amount decimal.Decimal) (int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, ErrInvalidAmount
	}
	return amount.Shift(2).Round(0).IntPart(), nil
}

func toMajor(paise int64) decimal.Decimal {
	return decimal.NewFromInt(paise).Shift(-2)
}
