package wallet

import "time"

const (
	// StatusActive allows balance mutations.
	StatusActive = "active"
	// StatusFrozen blocks all credits and debits.
	StatusFrozen = "frozen"
)

// Ledger entry kinds. Credit, topup, cashback and refund move money into the
// wallet; debit moves money out.
const (
	KindCredit   = "credit"
	KindDebit    = "debit"
	KindTopup    = "topup"
	KindCashback = "cashback"
	KindRefund   = "refund"
)

// Wallet is a stored-value account, one per owner. Balance is held in paise
// so money math never touches floating point.
type Wallet struct {
	ID        string
	OwnerID   string
	Balance   int64
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reference links a ledger entry to the record that caused it, e.g. a payout
// request or a gateway transaction.
type Reference struct {
	ID   string
	Kind string
}

// Entry is an immutable ledger record of a single balance change. BalanceBefore
// and BalanceAfter capture the wallet balance around the mutation so the log
// can be reconciled against the wallet row.
type Entry struct {
	ID            string
	WalletID      string
	OwnerID       string
	Kind          string
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	Description   string
	Reference     *Reference
	CreatedAt     time.Time
}
