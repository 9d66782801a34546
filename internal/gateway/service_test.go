package gateway

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/giftkart/giftkart/internal/coupon"
	"github.com/giftkart/giftkart/internal/logging"
	"github.com/giftkart/giftkart/internal/merchant"
	"github.com/giftkart/giftkart/internal/notification"
	"github.com/giftkart/giftkart/internal/wallet"
)

type paymentFixture struct {
	service   *Service
	repo      Repository
	wallets   *wallet.Service
	store     wallet.Store
	coupons   coupon.Store
	merchants merchant.Repository
	cipher    *Cipher
	ownerID   string
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	logger := logging.Discard()

	cipher, err := NewCipher("0123456789abcdef", "fedcba9876543210")
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	store := wallet.NewMemoryStore()
	wallets := wallet.NewService(store, logger)
	coupons := coupon.NewMemoryStore()
	merchants := merchant.NewMemoryRepository()
	repo := NewMemoryRepository()

	service := NewService(repo, cipher, wallets, coupons, merchants,
		notification.NewLoggerNotifier(logger), "GIFTKART01", decimal.NewFromInt(3), logger)

	return &paymentFixture{
		service:   service,
		repo:      repo,
		wallets:   wallets,
		store:     store,
		coupons:   coupons,
		merchants: merchants,
		cipher:    cipher,
		ownerID:   uuid.NewString(),
	}
}

func (f *paymentFixture) callback(t *testing.T, fields url.Values) string {
	t.Helper()
	sealed, err := f.cipher.Encrypt(fields.Encode())
	if err != nil {
		t.Fatalf("seal callback: %v", err)
	}
	return f.service.ProcessCallback(context.Background(), sealed)
}

func (f *paymentFixture) initiateTopup(t *testing.T, amount int64) Txn {
	t.Helper()
	result, err := f.service.Initiate(context.Background(), f.ownerID,
		PurposeWalletTopup, "", decimal.NewFromInt(amount))
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	return result.Txn
}

func successFields(clientTxnID, amount string) url.Values {
	fields := url.Values{}
	fields.Set("clientTxnId", clientTxnID)
	fields.Set("status", "SUCCESS")
	fields.Set("statusCode", "0000")
	fields.Set("sabpaisaTxnId", "SP998877")
	fields.Set("bankTxnId", "BANK1234")
	fields.Set("paymentMode", "UPI")
	fields.Set("amount", amount)
	fields.Set("transMsg", "transaction successful")
	return fields
}

func TestTopupCallbackCreditsWalletOnce(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	txn := f.initiateTopup(t, 500)

	target := f.callback(t, successFields(txn.ClientTxnID, "500.00"))
	if !strings.HasPrefix(target, "/payment/success?") || !strings.Contains(target, "txnId="+txn.ClientTxnID) {
		t.Fatalf("expected success redirect, got %q", target)
	}

	balance, err := f.wallets.Balance(ctx, f.ownerID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected balance 500, got %s", balance)
	}

	history, err := f.wallets.History(ctx, f.ownerID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Kind != wallet.KindTopup {
		t.Fatalf("expected one topup entry, got %+v", history)
	}
	if !history[0].BalanceBefore.Equal(decimal.Zero) || !history[0].BalanceAfter.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected balance 0 -> 500, got %+v", history[0])
	}

	stored, err := f.repo.GetByClientTxn(ctx, txn.ClientTxnID)
	if err != nil {
		t.Fatalf("get txn: %v", err)
	}
	if stored.Status != StatusSuccess || !stored.WalletCredited {
		t.Fatalf("expected SUCCESS with wallet_credited, got %+v", stored)
	}
	if stored.GatewayTxnID != "SP998877" || stored.PaymentMode != "UPI" {
		t.Fatalf("expected gateway metadata recorded, got %+v", stored)
	}
}

func TestTopupCallbackReplayDoesNotDoubleCredit(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	txn := f.initiateTopup(t, 500)

	fields := successFields(txn.ClientTxnID, "500.00")
	first := f.callback(t, fields)
	second := f.callback(t, fields)

	if !strings.HasPrefix(second, "/payment/success?") {
		t.Fatalf("replay must still acknowledge success, got %q", second)
	}
	if first != second {
		t.Fatalf("replay redirect differs: %q vs %q", first, second)
	}

	balance, err := f.wallets.Balance(ctx, f.ownerID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected single credit of 500, got %s", balance)
	}
}

// rendezvousRepo holds every GetByClientTxn caller at a barrier so that all
// deliveries read the stored transaction before any of them writes it back.
type rendezvousRepo struct {
	Repository
	barrier *sync.WaitGroup
}

func (r *rendezvousRepo) GetByClientTxn(ctx context.Context, clientTxnID string) (Txn, error) {
	txn, err := r.Repository.GetByClientTxn(ctx, clientTxnID)
	r.barrier.Done()
	r.barrier.Wait()
	return txn, err
}

func TestConcurrentSuccessDeliveriesCreditOnce(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	txn := f.initiateTopup(t, 500)

	var barrier sync.WaitGroup
	barrier.Add(2)
	logger := logging.Discard()
	svc := NewService(&rendezvousRepo{Repository: f.repo, barrier: &barrier},
		f.cipher, f.wallets, f.coupons, f.merchants,
		notification.NewLoggerNotifier(logger), "GIFTKART01", decimal.NewFromInt(3), logger)

	sealed, err := f.cipher.Encrypt(successFields(txn.ClientTxnID, "500.00").Encode())
	if err != nil {
		t.Fatalf("seal callback: %v", err)
	}

	// Both deliveries observe PENDING before either writes.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.ProcessCallback(ctx, sealed)
		}()
	}
	wg.Wait()

	balance, err := f.wallets.Balance(ctx, f.ownerID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("concurrent deliveries must credit once, got balance %s", balance)
	}
	history, err := f.wallets.History(ctx, f.ownerID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected a single topup entry, got %d", len(history))
	}
}

func TestCallbackDecryptFailureMutatesNothing(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	txn := f.initiateTopup(t, 500)

	target := f.service.ProcessCallback(ctx, "not-a-valid-payload")
	if !strings.HasPrefix(target, "/payment/failure") {
		t.Fatalf("expected failure redirect, got %q", target)
	}

	stored, err := f.repo.GetByClientTxn(ctx, txn.ClientTxnID)
	if err != nil {
		t.Fatalf("get txn: %v", err)
	}
	if stored.Status != StatusPending {
		t.Fatalf("undecryptable callback must not touch the transaction, got %+v", stored)
	}
	balance, err := f.wallets.Balance(ctx, f.ownerID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("expected untouched balance, got %s", balance)
	}
}

func TestFailedCallbackRedirectsWithMessage(t *testing.T) {
	f := newPaymentFixture(t)
	txn := f.initiateTopup(t, 500)

	fields := url.Values{}
	fields.Set("clientTxnId", txn.ClientTxnID)
	fields.Set("status", "ABORTED")
	fields.Set("transMsg", "user cancelled")

	target := f.callback(t, fields)
	if !strings.HasPrefix(target, "/payment/failure?") {
		t.Fatalf("expected failure redirect, got %q", target)
	}
	parsed, err := url.Parse(target)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if parsed.Query().Get("msg") != "user cancelled" {
		t.Fatalf("expected failure message in redirect, got %q", target)
	}

	balance, err := f.wallets.Balance(context.Background(), f.ownerID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("failed payment must not credit, got %s", balance)
	}
}

func TestUnknownStatusRedirectsToProcessing(t *testing.T) {
	f := newPaymentFixture(t)
	txn := f.initiateTopup(t, 500)

	fields := url.Values{}
	fields.Set("clientTxnId", txn.ClientTxnID)
	fields.Set("status", "SOMETHING_NEW")

	target := f.callback(t, fields)
	if !strings.HasPrefix(target, "/payment/processing?") {
		t.Fatalf("unknown status must land on processing, got %q", target)
	}
}

func TestCreditFailureStillAcknowledgesGateway(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	txn := f.initiateTopup(t, 500)

	if _, err := f.wallets.GetOrCreateWallet(ctx, f.ownerID); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	wallet.FreezeWallet(f.store, f.ownerID)

	target := f.callback(t, successFields(txn.ClientTxnID, "500.00"))
	if !strings.HasPrefix(target, "/payment/success?") {
		t.Fatalf("gateway must still be acknowledged, got %q", target)
	}

	stored, err := f.repo.GetByClientTxn(ctx, txn.ClientTxnID)
	if err != nil {
		t.Fatalf("get txn: %v", err)
	}
	if stored.Status != StatusSuccess || stored.WalletCredited {
		t.Fatalf("expected SUCCESS with wallet_credited unset for reconciliation, got %+v", stored)
	}
}

func (f *paymentFixture) seedAvailableCoupon(t *testing.T, price int64) (coupon.Coupon, merchant.Merchant) {
	t.Helper()
	ctx := context.Background()

	seller := merchant.Merchant{
		ID:           uuid.NewString(),
		OwnerID:      uuid.NewString(),
		BusinessName: "Asha Traders",
		Status:       merchant.StatusApproved,
		BankVerified: true,
	}
	if err := f.merchants.Create(ctx, seller); err != nil {
		t.Fatalf("create merchant: %v", err)
	}

	c := coupon.Coupon{
		ID:           uuid.NewString(),
		MerchantID:   seller.ID,
		Brand:        "Amazon",
		Code:         "GC-XYZ-1234",
		Denomination: price + 2_500,
		Price:        price,
		Status:       coupon.StatusAvailable,
		CreatedAt:    time.Now().UTC(),
	}
	if err := f.coupons.Create(ctx, c); err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	return c, seller
}

func TestGiftCardCallbackClaimsCouponAndWritesOrder(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	c, seller := f.seedAvailableCoupon(t, 47_500)

	result, err := f.service.Initiate(ctx, f.ownerID, PurposeGiftCard, c.ID, decimal.Zero)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if result.Txn.Amount != 47_500 {
		t.Fatalf("expected amount from coupon price, got %d", result.Txn.Amount)
	}

	target := f.callback(t, successFields(result.Txn.ClientTxnID, "475.00"))
	if !strings.HasPrefix(target, "/payment/success?") {
		t.Fatalf("expected success redirect, got %q", target)
	}

	claimed, err := f.coupons.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get coupon: %v", err)
	}
	if claimed.Status != coupon.StatusSold || claimed.PurchasedBy != f.ownerID {
		t.Fatalf("expected coupon sold to buyer, got %+v", claimed)
	}

	orders, err := f.coupons.OrdersForBuyer(ctx, f.ownerID, 10)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if len(orders) != 1 || orders[0].TxnID != result.Txn.ClientTxnID {
		t.Fatalf("expected one order tied to the transaction, got %+v", orders)
	}

	// Seller receives the price minus the 3% platform commission.
	proceeds, err := f.wallets.Balance(ctx, seller.OwnerID)
	if err != nil {
		t.Fatalf("seller balance: %v", err)
	}
	if want := decimal.RequireFromString("460.75"); !proceeds.Equal(want) {
		t.Fatalf("expected proceeds %s, got %s", want, proceeds)
	}

	// Replay must not create a second order or pay the seller twice.
	f.callback(t, successFields(result.Txn.ClientTxnID, "475.00"))
	orders, err = f.coupons.OrdersForBuyer(ctx, f.ownerID, 10)
	if err != nil {
		t.Fatalf("orders after replay: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("replay must not duplicate orders, got %d", len(orders))
	}
	proceeds, err = f.wallets.Balance(ctx, seller.OwnerID)
	if err != nil {
		t.Fatalf("seller balance after replay: %v", err)
	}
	if want := decimal.RequireFromString("460.75"); !proceeds.Equal(want) {
		t.Fatalf("replay must not double proceeds, got %s", proceeds)
	}
}

func TestGiftCardCallbackSkipsWhenCouponLost(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	c, _ := f.seedAvailableCoupon(t, 47_500)

	result, err := f.service.Initiate(ctx, f.ownerID, PurposeGiftCard, c.ID, decimal.Zero)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	// Another buyer wins the coupon before the callback lands.
	rival := uuid.NewString()
	if err := f.coupons.MarkSold(ctx, c.ID, rival); err != nil {
		t.Fatalf("rival claim: %v", err)
	}

	target := f.callback(t, successFields(result.Txn.ClientTxnID, "475.00"))
	if !strings.HasPrefix(target, "/payment/success?") {
		t.Fatalf("expected success redirect, got %q", target)
	}

	claimed, err := f.coupons.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get coupon: %v", err)
	}
	if claimed.PurchasedBy != rival {
		t.Fatalf("rival's claim must stand, got %+v", claimed)
	}
	orders, err := f.coupons.OrdersForBuyer(ctx, f.ownerID, 10)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("lost race must not create an order, got %+v", orders)
	}
}

func TestGiftCardOrderFailureReleasesCoupon(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	c, _ := f.seedAvailableCoupon(t, 47_500)

	result, err := f.service.Initiate(ctx, f.ownerID, PurposeGiftCard, c.ID, decimal.Zero)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	coupon.FailNextInsertOrder(f.coupons, errors.New("order storage down"))

	f.callback(t, successFields(result.Txn.ClientTxnID, "475.00"))

	reopened, err := f.coupons.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get coupon: %v", err)
	}
	if reopened.Status != coupon.StatusAvailable {
		t.Fatalf("expected coupon released after order failure, got %+v", reopened)
	}
}

func TestInitiateRejectsUnknownPurposeAndSoldCoupon(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	if _, err := f.service.Initiate(ctx, f.ownerID, "GAMBLING", "", decimal.NewFromInt(10)); !errors.Is(err, ErrInvalidPurpose) {
		t.Fatalf("expected ErrInvalidPurpose, got %v", err)
	}

	c, _ := f.seedAvailableCoupon(t, 10_000)
	if err := f.coupons.MarkSold(ctx, c.ID, uuid.NewString()); err != nil {
		t.Fatalf("mark sold: %v", err)
	}
	if _, err := f.service.Initiate(ctx, f.ownerID, PurposeGiftCard, c.ID, decimal.Zero); !errors.Is(err, coupon.ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
}
