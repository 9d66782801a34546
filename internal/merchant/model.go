package merchant

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// BankAccount holds the settlement account a merchant withdraws to.
type BankAccount struct {
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
	HolderName    string `json:"holder_name"`
	BankName      string `json:"bank_name"`
}

// Merchant is a seller profile attached to a platform user. Verification
// flags are set individually as each document clears the provider.
type Merchant struct {
	ID            string      `json:"id"`
	OwnerID       string      `json:"owner_id"`
	BusinessName  string      `json:"business_name"`
	Status        string      `json:"status"`
	PAN           string      `json:"-"`
	GSTIN         string      `json:"-"`
	Bank          BankAccount `json:"bank"`
	PANVerified   bool        `json:"pan_verified"`
	GSTINVerified bool        `json:"gstin_verified"`
	BankVerified  bool        `json:"bank_verified"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
