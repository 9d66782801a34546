package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/giftkart/giftkart/internal/coupon"
	"github.com/giftkart/giftkart/internal/merchant"
	"github.com/giftkart/giftkart/internal/notification"
	"github.com/giftkart/giftkart/internal/wallet"
)

// MerchantDirectory resolves the seller behind a coupon so sale proceeds can
// be credited.
type MerchantDirectory interface {
	Get(ctx context.Context, id string) (merchant.Merchant, error)
}

// Redirect targets for the browser the gateway bounces back to us.
const (
	successPath    = "/payment/success"
	failurePath    = "/payment/failure"
	processingPath = "/payment/processing"
)

const refKindPayment = "payment"

// ErrInvalidPurpose rejects initiation with an unknown purpose tag.
var ErrInvalidPurpose = errors.New("unsupported payment purpose")

// Service owns the payment transaction lifecycle: initiation seals the
// request for the gateway, the callback opens the gateway's verdict and runs
// at-most-once side effects.
type Service struct {
	repo          Repository
	cipher        *Cipher
	wallets       *wallet.Service
	coupons       coupon.Store
	merchants     MerchantDirectory
	notifier      notification.Notifier
	clientCode    string
	commissionPct decimal.Decimal
	logger        *slog.Logger
}

func NewService(repo Repository, cipher *Cipher, wallets *wallet.Service, coupons coupon.Store,
	merchants MerchantDirectory, notifier notification.Notifier, clientCode string,
	commissionPct decimal.Decimal, logger *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		cipher:        cipher,
		wallets:       wallets,
		coupons:       coupons,
		merchants:     merchants,
		notifier:      notifier,
		clientCode:    clientCode,
		commissionPct: commissionPct,
		logger:        logger,
	}
}

// InitiateResult carries the pending transaction and the sealed payload the
// frontend posts to the gateway.
type InitiateResult struct {
	Txn        Txn    `json:"transaction"`
	EncRequest string `json:"enc_request"`
}

// Initiate records a pending transaction and builds the encrypted request
// payload for the gateway.
func (s *Service) Initiate(ctx context.Context, ownerID, purpose, targetID string, amount decimal.Decimal) (InitiateResult, error) {
	if purpose != PurposeWalletTopup && purpose != PurposeGiftCard {
		return InitiateResult{}, ErrInvalidPurpose
	}
	if purpose == PurposeGiftCard {
		c, err := s.coupons.Get(ctx, targetID)
		if err != nil {
			return InitiateResult{}, err
		}
		if c.Status != coupon.StatusAvailable {
			return InitiateResult{}, coupon.ErrNotAvailable
		}
		amount = decimal.New(c.Price, -2)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return InitiateResult{}, wallet.ErrInvalidAmount
	}

	now := time.Now().UTC()
	txn := Txn{
		ID:          uuid.NewString(),
		ClientTxnID: fmt.Sprintf("GK%d%s", now.Unix(), uuid.NewString()[:8]),
		OwnerID:     ownerID,
		Purpose:     purpose,
		TargetID:    targetID,
		Status:      StatusPending,
		Amount:      amount.Shift(2).Round(0).IntPart(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return InitiateResult{}, err
	}

	payload := url.Values{}
	payload.Set("clientCode", s.clientCode)
	payload.Set("clientTxnId", txn.ClientTxnID)
	payload.Set("amount", amount.StringFixed(2))
	payload.Set("udf1", purpose)
	payload.Set("udf2", targetID)
	sealed, err := s.cipher.Encrypt(payload.Encode())
	if err != nil {
		return InitiateResult{}, fmt.Errorf("seal gateway request: %w", err)
	}

	s.logger.Info("payment initiated",
		slog.String("client_txn_id", txn.ClientTxnID),
		slog.String("purpose", purpose),
		slog.Int64("amount_paise", txn.Amount))

	return InitiateResult{Txn: txn, EncRequest: sealed}, nil
}

// Transactions returns the owner's payment history.
func (s *Service) Transactions(ctx context.Context, ownerID string, limit int) ([]Txn, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListForOwner(ctx, ownerID, limit)
}

// ProcessCallback handles one gateway delivery end to end and always yields
// a browser redirect. The side-effect guard is the conditional status write:
// only the delivery that actually flips the row to SUCCESS runs fulfilment,
// so replays and concurrent duplicates cannot repeat it.
func (s *Service) ProcessCallback(ctx context.Context, encResponse string) string {
	plaintext, err := s.cipher.Decrypt(encResponse)
	if err != nil {
		s.logger.Warn("callback payload could not be decrypted", slog.Any("error", err))
		return redirectURL(failurePath, "", "payment could not be verified")
	}

	fields, err := url.ParseQuery(plaintext)
	if err != nil {
		s.logger.Warn("callback payload is not a query string", slog.Any("error", err))
		return redirectURL(failurePath, "", "payment could not be verified")
	}

	clientTxnID := fields.Get("clientTxnId")
	mapped := MapStatus(fields.Get("status"), fields.Get("statusCode"))

	s.logger.Info("gateway callback received",
		slog.String("client_txn_id", clientTxnID),
		slog.String("mapped_status", mapped),
		slog.Any("fields", Redact(fields)))

	if clientTxnID == "" {
		return redirectURL(failurePath, "", "payment could not be verified")
	}

	txn, err := s.repo.GetByClientTxn(ctx, clientTxnID)
	if err != nil {
		s.logger.Warn("callback for unknown transaction",
			slog.String("client_txn_id", clientTxnID), slog.Any("error", err))
		return redirectURL(failurePath, clientTxnID, "unknown transaction")
	}

	update := CallbackUpdate{
		Status:       mapped,
		Amount:       paidAmount(fields, txn.Amount),
		GatewayTxnID: firstOf(fields, "sabpaisaTxnId", "transId"),
		BankTxnID:    fields.Get("bankTxnId"),
		PaymentMode:  fields.Get("paymentMode"),
		Message:      fields.Get("transMsg"),
	}
	updated, applied, err := s.repo.ApplyCallback(ctx, clientTxnID, update)
	if err != nil {
		s.logger.Error("callback status write failed",
			slog.String("client_txn_id", clientTxnID), slog.Any("error", err))
		return redirectURL(failurePath, clientTxnID, "payment could not be recorded")
	}

	if mapped == StatusSuccess && applied {
		s.fulfil(ctx, updated)
	}

	switch mapped {
	case StatusSuccess:
		return redirectURL(successPath, clientTxnID, "")
	case StatusFailed:
		return redirectURL(failurePath, clientTxnID, update.Message)
	default:
		return redirectURL(processingPath, clientTxnID, "")
	}
}

// FailureRedirect is the fallback target when callback handling panics.
func FailureRedirect() string {
	return redirectURL(failurePath, "", "payment processing error")
}

func (s *Service) fulfil(ctx context.Context, txn Txn) {
	switch txn.Purpose {
	case PurposeWalletTopup:
		s.creditTopup(ctx, txn)
	case PurposeGiftCard:
		s.fulfilGiftCard(ctx, txn)
	default:
		s.logger.Error("successful transaction with unknown purpose",
			slog.String("client_txn_id", txn.ClientTxnID),
			slog.String("purpose", txn.Purpose))
	}
}

// creditTopup credits the paid amount to the payer's wallet. A failure here
// is logged and left for reconciliation: the gateway still gets its
// acknowledgement, and the unset wallet_credited flag marks the gap.
func (s *Service) creditTopup(ctx context.Context, txn Txn) {
	amount := decimal.New(txn.Amount, -2)
	_, err := s.wallets.Credit(ctx, txn.OwnerID, amount, wallet.KindTopup,
		"wallet top-up", &wallet.Reference{ID: txn.ID, Kind: refKindPayment})
	if err != nil {
		s.logger.Error("wallet credit failed for successful payment, needs reconciliation",
			slog.String("client_txn_id", txn.ClientTxnID),
			slog.String("owner_id", txn.OwnerID),
			slog.Int64("amount_paise", txn.Amount),
			slog.Any("error", err))
		return
	}
	if err := s.repo.MarkWalletCredited(ctx, txn.ClientTxnID); err != nil {
		s.logger.Error("could not mark wallet credit on transaction",
			slog.String("client_txn_id", txn.ClientTxnID), slog.Any("error", err))
	}
	if err := s.notifier.Send(ctx, notification.Message{
		Recipient: txn.OwnerID,
		Title:     "Wallet top-up successful",
		Body:      fmt.Sprintf("%s has been added to your wallet.", amount.StringFixed(2)),
		Kind:      notification.KindWalletTopup,
		Reference: txn.ClientTxnID,
	}); err != nil {
		s.logger.Warn("top-up notification failed", slog.Any("error", err))
	}
}

// fulfilGiftCard claims the coupon for the payer and records the order. The
// conditional claim is the at-most-once guard: on a replay or a lost race
// the coupon is no longer available and the whole step is skipped silently.
func (s *Service) fulfilGiftCard(ctx context.Context, txn Txn) {
	err := s.coupons.MarkSold(ctx, txn.TargetID, txn.OwnerID)
	if err != nil {
		if errors.Is(err, coupon.ErrNotAvailable) {
			s.logger.Debug("coupon already claimed, skipping fulfilment",
				slog.String("client_txn_id", txn.ClientTxnID),
				slog.String("coupon_id", txn.TargetID))
			return
		}
		s.logger.Error("coupon claim failed for successful payment, needs reconciliation",
			slog.String("client_txn_id", txn.ClientTxnID),
			slog.String("coupon_id", txn.TargetID),
			slog.Any("error", err))
		return
	}

	order := coupon.Order{
		ID:        uuid.NewString(),
		CouponID:  txn.TargetID,
		BuyerID:   txn.OwnerID,
		Amount:    txn.Amount,
		TxnID:     txn.ClientTxnID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.coupons.InsertOrder(ctx, order); err != nil {
		s.logger.Error("order write failed, releasing coupon",
			slog.String("client_txn_id", txn.ClientTxnID),
			slog.String("coupon_id", txn.TargetID),
			slog.Any("error", err))
		if releaseErr := s.coupons.ReleaseSold(ctx, txn.TargetID, txn.OwnerID); releaseErr != nil {
			s.logger.Error("coupon release failed, needs reconciliation",
				slog.String("coupon_id", txn.TargetID),
				slog.Any("error", releaseErr))
		}
		return
	}

	s.creditSaleProceeds(ctx, txn)
}

// creditSaleProceeds pays the selling merchant the sale price minus the
// platform commission. A failure is logged for reconciliation; the buyer's
// purchase already stands.
func (s *Service) creditSaleProceeds(ctx context.Context, txn Txn) {
	c, err := s.coupons.Get(ctx, txn.TargetID)
	if err != nil {
		s.logger.Error("could not load coupon for proceeds",
			slog.String("coupon_id", txn.TargetID), slog.Any("error", err))
		return
	}
	m, err := s.merchants.Get(ctx, c.MerchantID)
	if err != nil {
		s.logger.Error("could not resolve merchant for proceeds",
			slog.String("merchant_id", c.MerchantID), slog.Any("error", err))
		return
	}

	gross := decimal.New(txn.Amount, -2)
	commission := gross.Mul(s.commissionPct).Div(decimal.NewFromInt(100)).Round(2)
	net := gross.Sub(commission)
	if net.LessThanOrEqual(decimal.Zero) {
		return
	}

	_, err = s.wallets.Credit(ctx, m.OwnerID, net, wallet.KindCredit,
		fmt.Sprintf("gift card sale: %s", c.Brand),
		&wallet.Reference{ID: txn.ID, Kind: refKindPayment})
	if err != nil {
		s.logger.Error("sale proceeds credit failed, needs reconciliation",
			slog.String("merchant_id", m.ID),
			slog.String("client_txn_id", txn.ClientTxnID),
			slog.Any("error", err))
	}
}

func redirectURL(path, txnID, msg string) string {
	query := url.Values{}
	if txnID != "" {
		query.Set("txnId", txnID)
	}
	if msg != "" {
		query.Set("msg", msg)
	}
	if encoded := query.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}

func paidAmount(fields url.Values, fallback int64) int64 {
	raw := firstOf(fields, "amount", "paidAmount")
	if raw == "" {
		return fallback
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return fallback
	}
	return amount.Shift(2).Round(0).IntPart()
}

func firstOf(fields url.Values, keys ...string) string {
	for _, key := range keys {
		if v := fields.Get(key); v != "" {
			return v
		}
	}
	return ""
}
