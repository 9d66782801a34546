package merchant

import (
	"context"
	"errors"
	"testing"

	"github.com/giftkart/giftkart/internal/logging"
	"github.com/giftkart/giftkart/internal/notification"
	"github.com/giftkart/giftkart/internal/verify"
)

type stubVerifier struct {
	panValid   bool
	bankValid  bool
	gstinValid bool
	bankName   string
	err        error
}

func (s stubVerifier) VerifyPAN(context.Context, string) (verify.Result, error) {
	return verify.Result{Valid: s.panValid}, s.err
}

func (s stubVerifier) VerifyBank(context.Context, string, string) (verify.Result, error) {
	return verify.Result{Valid: s.bankValid, Name: s.bankName}, s.err
}

func (s stubVerifier) VerifyGSTIN(context.Context, string) (verify.Result, error) {
	return verify.Result{Valid: s.gstinValid}, s.err
}

func newTestService(v Verifier) *Service {
	logger := logging.Discard()
	return NewService(NewMemoryRepository(), v, notification.NewLoggerNotifier(logger), logger)
}

func validInput() ApplyInput {
	return ApplyInput{
		BusinessName:  "Asha Traders",
		PAN:           "abcde1234f",
		GSTIN:         "22ABCDE1234F1Z5",
		AccountNumber: "000111222333",
		IFSC:          "hdfc0000123",
		BankName:      "HDFC Bank",
	}
}

func TestApplyApprovesWhenAllDocumentsClear(t *testing.T) {
	svc := newTestService(stubVerifier{panValid: true, bankValid: true, gstinValid: true, bankName: "ASHA TRADERS"})

	m, err := svc.Apply(context.Background(), "owner-1", validInput())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if m.Status != StatusApproved {
		t.Fatalf("expected approved status, got %s", m.Status)
	}
	if !m.PANVerified || !m.BankVerified || !m.GSTINVerified {
		t.Fatalf("expected all verification flags set: %+v", m)
	}
	if m.PAN != "ABCDE1234F" || m.Bank.IFSC != "HDFC0000123" {
		t.Fatalf("expected documents normalised to upper case: %+v", m)
	}
	if m.Bank.HolderName != "ASHA TRADERS" {
		t.Fatalf("expected holder name from provider, got %q", m.Bank.HolderName)
	}
}

func TestApplyRejectsInvalidPAN(t *testing.T) {
	svc := newTestService(stubVerifier{panValid: false, bankValid: true})

	_, err := svc.Apply(context.Background(), "owner-1", validInput())
	if !errors.Is(err, ErrDocumentRejected) {
		t.Fatalf("expected ErrDocumentRejected, got %v", err)
	}
	if _, err := svc.GetByOwner(context.Background(), "owner-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rejected application must not create a profile, got %v", err)
	}
}

func TestApplyPendsWhenProviderUnavailable(t *testing.T) {
	svc := newTestService(stubVerifier{err: verify.ErrUnavailable})

	m, err := svc.Apply(context.Background(), "owner-1", validInput())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if m.Status != StatusPending {
		t.Fatalf("expected pending status during provider outage, got %s", m.Status)
	}
	if m.PANVerified || m.BankVerified || m.GSTINVerified {
		t.Fatalf("no document should be marked verified: %+v", m)
	}

	pending, err := svc.ListPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected the application in the review queue, got %d", len(pending))
	}

	// Admin clears the application manually once the documents check out.
	if _, err := svc.MarkBankVerified(context.Background(), m.ID); err != nil {
		t.Fatalf("mark bank verified: %v", err)
	}
	approved, err := svc.SetStatus(context.Background(), m.ID, StatusApproved)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if approved.Status != StatusApproved || !approved.BankVerified {
		t.Fatalf("expected manually approved merchant, got %+v", approved)
	}
}

func TestApplyRejectsDuplicateProfile(t *testing.T) {
	svc := newTestService(stubVerifier{panValid: true, bankValid: true, gstinValid: true})

	if _, err := svc.Apply(context.Background(), "owner-1", validInput()); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if _, err := svc.Apply(context.Background(), "owner-1", validInput()); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestSetStatusRejectsPendingMerchant(t *testing.T) {
	svc := newTestService(stubVerifier{panValid: true, bankValid: true, gstinValid: true})

	m, err := svc.Apply(context.Background(), "owner-1", validInput())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	updated, err := svc.SetStatus(context.Background(), m.ID, StatusRejected)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", updated.Status)
	}

	if _, err := svc.SetStatus(context.Background(), m.ID, "frozen"); err == nil {
		t.Fatalf("expected error for unsupported status")
	}
}
