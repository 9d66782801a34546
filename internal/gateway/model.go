package gateway

import "time"

// Purposes a payment can fund. The purpose decides which side effect runs
// when the gateway reports success.
const (
	PurposeWalletTopup = "WALLET_TOPUP"
	PurposeGiftCard    = "GIFT_CARD"
)

// Txn is one payment attempt through the external gateway, keyed by the
// client transaction id we hand the gateway at initiation. WalletCredited is
// the reconciliation marker: a SUCCESS transaction with the flag still false
// means the gateway was acknowledged but the wallet credit did not land.
type Txn struct {
	ID             string    `json:"id"`
	ClientTxnID    string    `json:"client_txn_id"`
	OwnerID        string    `json:"owner_id"`
	Purpose        string    `json:"purpose"`
	TargetID       string    `json:"target_id,omitempty"`
	Status         string    `json:"status"`
	Amount         int64     `json:"amount_paise"`
	GatewayTxnID   string    `json:"gateway_txn_id,omitempty"`
	BankTxnID      string    `json:"bank_txn_id,omitempty"`
	PaymentMode    string    `json:"payment_mode,omitempty"`
	Message        string    `json:"message,omitempty"`
	WalletCredited bool      `json:"wallet_credited"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CallbackUpdate carries the fields a gateway callback overwrites on the
// transaction record.
type CallbackUpdate struct {
	Status       string
	Amount       int64
	GatewayTxnID string
	BankTxnID    string
	PaymentMode  string
	Message      string
}
