package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/giftkart/giftkart/internal/logging"
)

func newTestService() (*Service, Store) {
	store := NewMemoryStore()
	return NewService(store, logging.Discard()), store
}

func TestCreditCreatesWalletLazily(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	owner := uuid.NewString()

	entry, err := svc.Credit(ctx, owner, decimal.NewFromInt(250), KindTopup, "wallet top-up", nil)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if entry.BalanceBefore != 0 || entry.BalanceAfter != 25_000 {
		t.Fatalf("unexpected entry balances: %+v", entry)
	}

	balance, err := svc.Balance(ctx, owner)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("expected balance 250, got %s", balance)
	}
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Credit(ctx, uuid.NewString(), decimal.Zero, KindTopup, "", nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Debit(ctx, uuid.NewString(), decimal.NewFromInt(-5), "", nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestDebitInsufficientBalanceLeavesWalletUntouched(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	owner := uuid.NewString()

	if _, err := svc.Credit(ctx, owner, decimal.NewFromInt(100), KindTopup, "", nil); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if _, err := svc.Debit(ctx, owner, decimal.NewFromInt(101), "too much", nil); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	balance, _ := svc.Balance(ctx, owner)
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance changed on failed debit: %s", balance)
	}

	history, err := svc.History(ctx, owner, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(history))
	}
}

func TestBalanceEqualsSignedLedgerSum(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	owner := uuid.NewString()

	ops := []struct {
		credit bool
		amount int64
	}{
		{true, 500}, {true, 120}, {false, 30}, {true, 9}, {false, 599},
	}
	for _, op := range ops {
		var err error
		if op.credit {
			_, err = svc.Credit(ctx, owner, decimal.NewFromInt(op.amount), KindCredit, "", nil)
		} else {
			_, err = svc.Debit(ctx, owner, decimal.NewFromInt(op.amount), "", nil)
		}
		if err != nil {
			t.Fatalf("op %+v: %v", op, err)
		}
	}

	entries, err := store.Entries(ctx, owner, 100)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	var sum int64
	for _, e := range entries {
		if e.Amount <= 0 {
			t.Fatalf("entry amount must be positive: %+v", e)
		}
		if e.BalanceAfter < 0 {
			t.Fatalf("ledger recorded a negative balance: %+v", e)
		}
		sum += e.BalanceAfter - e.BalanceBefore
	}
	w, err := store.GetByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.Balance != sum {
		t.Fatalf("balance %d does not match ledger sum %d", w.Balance, sum)
	}
	if w.Balance < 0 {
		t.Fatalf("balance went negative: %d", w.Balance)
	}
}

func TestSecondRefundForSameReferenceRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	owner := uuid.NewString()
	ref := &Reference{ID: uuid.NewString(), Kind: "payout"}

	if _, err := svc.Credit(ctx, owner, decimal.NewFromInt(300), KindRefund, "payout rejected", ref); err != nil {
		t.Fatalf("first refund: %v", err)
	}
	if _, err := svc.Credit(ctx, owner, decimal.NewFromInt(300), KindRefund, "payout rejected", ref); !errors.Is(err, ErrDuplicateReference) {
		t.Fatalf("expected ErrDuplicateReference, got %v", err)
	}

	balance, err := svc.Balance(ctx, owner)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected one refund on the balance, got %s", balance)
	}
	history, err := svc.History(ctx, owner, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(history))
	}
}

func TestHistoryNewestFirstInMajorUnits(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	owner := uuid.NewString()

	for _, amount := range []int64{100, 200, 300} {
		if _, err := svc.Credit(ctx, owner, decimal.NewFromInt(amount), KindTopup, "", nil); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}

	history, err := svc.History(ctx, owner, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if !history[0].Amount.Equal(decimal.NewFromInt(300)) || !history[1].Amount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected newest first, got %s then %s", history[0].Amount, history[1].Amount)
	}
	if !history[0].BalanceAfter.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("expected balance_after 600, got %s", history[0].BalanceAfter)
	}
}

func TestMutationsRejectedOnFrozenWallet(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	owner := uuid.NewString()

	if _, err := svc.Credit(ctx, owner, decimal.NewFromInt(50), KindTopup, "", nil); err != nil {
		t.Fatalf("credit: %v", err)
	}
	FreezeWallet(store, owner)

	if _, err := svc.Credit(ctx, owner, decimal.NewFromInt(10), KindTopup, "", nil); !errors.Is(err, ErrWalletFrozen) {
		t.Fatalf("expected ErrWalletFrozen, got %v", err)
	}
	if _, err := svc.Debit(ctx, owner, decimal.NewFromInt(10), "", nil); !errors.Is(err, ErrWalletFrozen) {
		t.Fatalf("expected ErrWalletFrozen, got %v", err)
	}
}

func TestFractionalAmountsRoundToPaise(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	owner := uuid.NewString()

	entry, err := svc.Credit(ctx, owner, decimal.RequireFromString("99.999"), KindTopup, "", nil)
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if entry.Amount != 10_000 {
		t.Fatalf("expected 10000 paise after rounding, got %d", entry.Amount)
	}
}
