package coupon

import "time"

const (
	StatusAvailable = "available"
	StatusSold      = "sold"
	StatusExpired   = "expired"
)

// Coupon is a single-use gift card listed for sale. Code is the redeemable
// secret and is only revealed to the buyer after a successful purchase.
type Coupon struct {
	ID           string     `json:"id"`
	MerchantID   string     `json:"merchant_id"`
	Brand        string     `json:"brand"`
	Code         string     `json:"-"`
	Denomination int64      `json:"denomination_paise"`
	Price        int64      `json:"price_paise"`
	Status       string     `json:"status"`
	PurchasedBy  string     `json:"-"`
	SoldAt       *time.Time `json:"sold_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Order records a completed coupon purchase tied to the payment transaction
// that funded it.
type Order struct {
	ID        string    `json:"id"`
	CouponID  string    `json:"coupon_id"`
	BuyerID   string    `json:"buyer_id"`
	Amount    int64     `json:"amount_paise"`
	TxnID     string    `json:"txn_id"`
	CreatedAt time.Time `json:"created_at"`
}
