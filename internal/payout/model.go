package payout

import (
	"time"

	"github.com/giftkart/giftkart/internal/merchant"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusReleased = "released"
)

// Request is a merchant withdrawal from wallet balance to their bank
// account. The bank details are snapshotted at submission time so a later
// profile edit cannot redirect an in-flight payout.
type Request struct {
	ID         string               `json:"id"`
	MerchantID string               `json:"merchant_id"`
	OwnerID    string               `json:"owner_id"`
	Amount     int64                `json:"amount_paise"`
	Status     string               `json:"status"`
	Bank       merchant.BankAccount `json:"bank"`
	AdminNote  string               `json:"admin_note,omitempty"`
	ReviewedBy string               `json:"reviewed_by,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	ReviewedAt *time.Time           `json:"reviewed_at,omitempty"`
}

// terminal reports whether no further transitions are allowed.
func (r Request) terminal() bool {
	return r.Status == StatusRejected || r.Status == StatusReleased
}
