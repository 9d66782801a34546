package merchant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/giftkart/giftkart/internal/notification"
	"github.com/giftkart/giftkart/internal/verify"
)

var (
	// ErrDocumentRejected indicates the provider marked a submitted document invalid.
	ErrDocumentRejected = errors.New("document verification failed")
	// ErrNotApproved indicates the merchant has not cleared onboarding.
	ErrNotApproved = errors.New("merchant is not approved")
)

// Verifier abstracts the external verification provider so the service can
// be tested without HTTP.
type Verifier interface {
	VerifyPAN(ctx context.Context, pan string) (verify.Result, error)
	VerifyBank(ctx context.Context, accountNumber, ifsc string) (verify.Result, error)
	VerifyGSTIN(ctx context.Context, gstin string) (verify.Result, error)
}

// ApplyInput carries a merchant onboarding application.
type ApplyInput struct {
	BusinessName  string
	PAN           string
	GSTIN         string
	AccountNumber string
	IFSC          string
	BankName      string
}

// Service runs merchant onboarding and verification.
type Service struct {
	repo     Repository
	verifier Verifier
	notifier notification.Notifier
	logger   *slog.Logger
}

func NewService(repo Repository, verifier Verifier, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, verifier: verifier, notifier: notifier, logger: logger}
}

// Apply creates a merchant profile and runs document verification. When every
// submitted document clears, the profile is approved immediately. A document
// the provider marks invalid rejects the application outright; if the provider
// is unreachable the profile is stored pending for manual review instead.
func (s *Service) Apply(ctx context.Context, ownerID string, input ApplyInput) (Merchant, error) {
	name := strings.TrimSpace(input.BusinessName)
	if name == "" {
		return Merchant{}, errors.New("business name is required")
	}
	if strings.TrimSpace(input.PAN) == "" {
		return Merchant{}, errors.New("pan is required")
	}
	if strings.TrimSpace(input.AccountNumber) == "" || strings.TrimSpace(input.IFSC) == "" {
		return Merchant{}, errors.New("bank account details are required")
	}

	now := time.Now().UTC()
	m := Merchant{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		BusinessName: name,
		Status:       StatusPending,
		PAN:          strings.ToUpper(strings.TrimSpace(input.PAN)),
		GSTIN:        strings.ToUpper(strings.TrimSpace(input.GSTIN)),
		Bank: BankAccount{
			AccountNumber: strings.TrimSpace(input.AccountNumber),
			IFSC:          strings.ToUpper(strings.TrimSpace(input.IFSC)),
			BankName:      strings.TrimSpace(input.BankName),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	providerDown := false

	panResult, err := s.verifier.VerifyPAN(ctx, m.PAN)
	switch {
	case errors.Is(err, verify.ErrUnavailable):
		providerDown = true
	case err != nil:
		return Merchant{}, fmt.Errorf("verify pan: %w", err)
	case !panResult.Valid:
		return Merchant{}, fmt.Errorf("%w: pan", ErrDocumentRejected)
	default:
		m.PANVerified = true
	}

	bankResult, err := s.verifier.VerifyBank(ctx, m.Bank.AccountNumber, m.Bank.IFSC)
	switch {
	case errors.Is(err, verify.ErrUnavailable):
		providerDown = true
	case err != nil:
		return Merchant{}, fmt.Errorf("verify bank: %w", err)
	case !bankResult.Valid:
		return Merchant{}, fmt.Errorf("%w: bank account", ErrDocumentRejected)
	default:
		m.BankVerified = true
		if bankResult.Name != "" {
			m.Bank.HolderName = bankResult.Name
		}
	}

	if m.GSTIN != "" {
		gstResult, err := s.verifier.VerifyGSTIN(ctx, m.GSTIN)
		switch {
		case errors.Is(err, verify.ErrUnavailable):
			providerDown = true
		case err != nil:
			return Merchant{}, fmt.Errorf("verify gstin: %w", err)
		case !gstResult.Valid:
			return Merchant{}, fmt.Errorf("%w: gstin", ErrDocumentRejected)
		default:
			m.GSTINVerified = true
		}
	}

	if !providerDown {
		// All submitted documents cleared, no manual review needed.
		m.Status = StatusApproved
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Merchant{}, err
	}

	s.logger.Info("merchant onboarded",
		slog.String("merchant_id", m.ID),
		slog.String("status", m.Status))

	if m.Status == StatusApproved {
		if err := s.notifier.Send(ctx, notification.Message{
			Recipient: ownerID,
			Title:     "Merchant profile approved",
			Body:      fmt.Sprintf("%s is approved to sell on the platform.", m.BusinessName),
			Kind:      notification.KindKYCApproved,
			Reference: m.ID,
		}); err != nil {
			s.logger.Warn("merchant notification failed", slog.Any("error", err))
		}
	}

	return m, nil
}

// GetByOwner loads the merchant profile for a platform user.
func (s *Service) GetByOwner(ctx context.Context, ownerID string) (Merchant, error) {
	return s.repo.GetByOwner(ctx, ownerID)
}

// ListPending returns merchant applications awaiting manual review.
func (s *Service) ListPending(ctx context.Context, limit int) ([]Merchant, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByStatus(ctx, StatusPending, limit)
}

// SetStatus lets an admin approve or reject a pending merchant profile.
func (s *Service) SetStatus(ctx context.Context, merchantID, status string) (Merchant, error) {
	if status != StatusApproved && status != StatusRejected {
		return Merchant{}, fmt.Errorf("unsupported merchant status %q", status)
	}
	m, err := s.repo.Get(ctx, merchantID)
	if err != nil {
		return Merchant{}, err
	}
	m.Status = status
	m.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, m); err != nil {
		return Merchant{}, err
	}
	s.logger.Info("merchant status updated",
		slog.String("merchant_id", m.ID),
		slog.String("status", status))
	return m, nil
}

// MarkBankVerified records that an admin manually confirmed the settlement
// account, typically after the provider was unreachable during onboarding.
func (s *Service) MarkBankVerified(ctx context.Context, merchantID string) (Merchant, error) {
	m, err := s.repo.Get(ctx, merchantID)
	if err != nil {
		return Merchant{}, err
	}
	m.BankVerified = true
	m.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, m); err != nil {
		return Merchant{}, err
	}
	return m, nil
}
