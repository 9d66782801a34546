package payout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/giftkart/giftkart/internal/identity"
	"github.com/giftkart/giftkart/internal/merchant"
	"github.com/giftkart/giftkart/internal/notification"
	"github.com/giftkart/giftkart/internal/wallet"
)

const refKindPayout = "payout"

var (
	// ErrBelowMinimum indicates the amount is under the configured floor.
	ErrBelowMinimum = errors.New("amount is below the minimum withdrawal")
	// ErrMerchantNotApproved blocks payouts for merchants still in onboarding.
	ErrMerchantNotApproved = errors.New("merchant is not approved")
	// ErrBankNotVerified blocks payouts until the settlement account clears.
	ErrBankNotVerified = errors.New("bank account is not verified")
)

// MerchantDirectory resolves the merchant profile behind a platform user.
type MerchantDirectory interface {
	GetByOwner(ctx context.Context, ownerID string) (merchant.Merchant, error)
}

// AdminDirectory lists platform users by role for review notifications.
type AdminDirectory interface {
	ListByRole(ctx context.Context, role string) ([]identity.User, error)
}

// Service runs the payout request workflow: the wallet debit is taken up
// front as a hold, and every path that abandons the request puts the money
// back with a compensating credit.
type Service struct {
	repo          Repository
	wallets       *wallet.Service
	merchants     MerchantDirectory
	admins        AdminDirectory
	notifier      notification.Notifier
	minWithdrawal decimal.Decimal
	logger        *slog.Logger
}

func NewService(repo Repository, wallets *wallet.Service, merchants MerchantDirectory,
	admins AdminDirectory, notifier notification.Notifier, minWithdrawal decimal.Decimal,
	logger *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		wallets:       wallets,
		merchants:     merchants,
		admins:        admins,
		notifier:      notifier,
		minWithdrawal: minWithdrawal,
		logger:        logger,
	}
}

// Submit debits the merchant's wallet and opens a pending payout request
// carrying a snapshot of their verified bank account. If the request cannot
// be stored after the debit, the hold is reversed before returning.
func (s *Service) Submit(ctx context.Context, ownerID string, amount decimal.Decimal) (Request, error) {
	m, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return Request{}, err
	}
	if m.Status != merchant.StatusApproved {
		return Request{}, ErrMerchantNotApproved
	}
	if !m.BankVerified {
		return Request{}, ErrBankNotVerified
	}
	if amount.LessThan(s.minWithdrawal) {
		return Request{}, fmt.Errorf("%w of %s", ErrBelowMinimum, s.minWithdrawal.StringFixed(2))
	}

	// A duplicate submission should bounce before the debit so it leaves no
	// hold/refund pair on the ledger. The conditional insert below remains
	// the race guard; this check just keeps the common case clean.
	if pending, err := s.repo.HasPending(ctx, m.ID); err != nil {
		return Request{}, err
	} else if pending {
		return Request{}, ErrPendingExists
	}

	requestID := uuid.NewString()
	ref := &wallet.Reference{ID: requestID, Kind: refKindPayout}

	entry, err := s.wallets.Debit(ctx, ownerID, amount, "payout hold", ref)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		ID:         requestID,
		MerchantID: m.ID,
		OwnerID:    ownerID,
		Amount:     entry.Amount,
		Status:     StatusPending,
		Bank:       m.Bank,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, req); err != nil {
		s.refund(ctx, ownerID, amount, requestID, "payout reversal")
		return Request{}, err
	}

	s.logger.Info("payout requested",
		slog.String("request_id", requestID),
		slog.String("merchant_id", m.ID),
		slog.Int64("amount_paise", req.Amount))

	s.notifyAdmins(ctx, req, m)
	return req, nil
}

// Approve moves a pending request to approved.
func (s *Service) Approve(ctx context.Context, reviewerID, requestID, note string) (Request, error) {
	req, err := s.repo.Transition(ctx, requestID, []string{StatusPending}, StatusApproved, note, reviewerID)
	if err != nil {
		return Request{}, err
	}
	s.notifyMerchant(ctx, req, notification.KindPayoutApproved, "Payout approved",
		"Your payout request has been approved and is queued for release.")
	return req, nil
}

// Release marks an approved request as paid out to the bank.
func (s *Service) Release(ctx context.Context, reviewerID, requestID, note string) (Request, error) {
	req, err := s.repo.Transition(ctx, requestID, []string{StatusApproved}, StatusReleased, note, reviewerID)
	if err != nil {
		return Request{}, err
	}
	s.notifyMerchant(ctx, req, notification.KindPayoutReleased, "Payout released",
		fmt.Sprintf("%s has been transferred to account ending %s and should reach your bank within 2 business days.",
			paiseToMajor(req.Amount).StringFixed(2), tail(req.Bank.AccountNumber)))
	return req, nil
}

// Reject refuses a pending or approved request and returns the held amount
// to the wallet. The refund is issued before the status flip so a crash
// between the two leaves the money with the merchant, never with us. The
// ledger dedupes refunds per reference, so two reviewers racing through this
// path still produce exactly one credit.
func (s *Service) Reject(ctx context.Context, reviewerID, requestID, note string) (Request, error) {
	req, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.terminal() {
		return Request{}, ErrConflict
	}

	amount := paiseToMajor(req.Amount)
	_, err = s.wallets.Credit(ctx, req.OwnerID, amount, wallet.KindRefund,
		"payout rejected", &wallet.Reference{ID: req.ID, Kind: refKindPayout})
	if err != nil && !errors.Is(err, wallet.ErrDuplicateReference) {
		return Request{}, fmt.Errorf("refund payout hold: %w", err)
	}

	updated, err := s.repo.Transition(ctx, requestID,
		[]string{StatusPending, StatusApproved}, StatusRejected, note, reviewerID)
	if err != nil {
		s.logger.Error("payout refund issued but status flip failed, needs reconciliation",
			slog.String("request_id", requestID),
			slog.Int64("amount_paise", req.Amount),
			slog.Any("error", err))
		return Request{}, err
	}

	body := "Your payout request was rejected and the amount has been returned to your wallet."
	if updated.AdminNote != "" {
		body = fmt.Sprintf("Your payout request was rejected: %s. The amount has been returned to your wallet.",
			updated.AdminNote)
	}
	s.notifyMerchant(ctx, updated, notification.KindPayoutRejected, "Payout rejected", body)
	return updated, nil
}

// ListForOwner returns the payout history for the merchant behind a user.
func (s *Service) ListForOwner(ctx context.Context, ownerID string, limit int) ([]Request, error) {
	m, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByMerchant(ctx, m.ID, limit)
}

// ListPending returns open requests oldest-first for the review queue.
func (s *Service) ListPending(ctx context.Context, limit int) ([]Request, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByStatus(ctx, StatusPending, limit)
}

func (s *Service) refund(ctx context.Context, ownerID string, amount decimal.Decimal, requestID, reason string) {
	_, err := s.wallets.Credit(ctx, ownerID, amount, wallet.KindRefund, reason,
		&wallet.Reference{ID: requestID, Kind: refKindPayout})
	if err != nil {
		s.logger.Error("payout hold could not be reversed, needs reconciliation",
			slog.String("request_id", requestID),
			slog.String("owner_id", ownerID),
			slog.String("amount", amount.StringFixed(2)),
			slog.Any("error", err))
	}
}

func (s *Service) notifyAdmins(ctx context.Context, req Request, m merchant.Merchant) {
	admins, err := s.admins.ListByRole(ctx, identity.RoleAdmin)
	if err != nil {
		s.logger.Warn("could not list admins for payout notification", slog.Any("error", err))
		return
	}
	for _, admin := range admins {
		if err := s.notifier.Send(ctx, notification.Message{
			Recipient: admin.ID,
			Title:     "Payout request awaiting review",
			Body:      fmt.Sprintf("%s requested %s.", m.BusinessName, paiseToMajor(req.Amount).StringFixed(2)),
			Kind:      notification.KindPayoutRequested,
			Reference: req.ID,
		}); err != nil {
			s.logger.Warn("payout admin notification failed", slog.Any("error", err))
		}
	}
}

func (s *Service) notifyMerchant(ctx context.Context, req Request, kind, title, body string) {
	if err := s.notifier.Send(ctx, notification.Message{
		Recipient: req.OwnerID,
		Title:     title,
		Body:      body,
		Kind:      kind,
		Reference: req.ID,
	}); err != nil {
		s.logger.Warn("payout merchant notification failed", slog.Any("error", err))
	}
}

func paiseToMajor(paise int64) decimal.Decimal {
	return decimal.New(paise, -2)
}

func tail(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return accountNumber
	}
	return accountNumber[len(accountNumber)-4:]
}
