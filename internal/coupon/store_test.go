package coupon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func seedCoupon(t *testing.T, store Store) Coupon {
	t.Helper()
	c := Coupon{
		ID:           uuid.NewString(),
		MerchantID:   uuid.NewString(),
		Brand:        "Amazon",
		Code:         "GC-XYZ-1234",
		Denomination: 50_000,
		Price:        47_500,
		Status:       StatusAvailable,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.Create(context.Background(), c); err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	return c
}

func TestMarkSoldAdmitsSingleBuyer(t *testing.T) {
	store := NewMemoryStore()
	c := seedCoupon(t, store)
	ctx := context.Background()

	first := uuid.NewString()
	if err := store.MarkSold(ctx, c.ID, first); err != nil {
		t.Fatalf("first buyer: %v", err)
	}
	if err := store.MarkSold(ctx, c.ID, uuid.NewString()); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable for second buyer, got %v", err)
	}

	sold, err := store.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sold.Status != StatusSold || sold.PurchasedBy != first {
		t.Fatalf("unexpected coupon state: %+v", sold)
	}
}

func TestReleaseSoldReopensOnlyForClaimingBuyer(t *testing.T) {
	store := NewMemoryStore()
	c := seedCoupon(t, store)
	ctx := context.Background()

	buyer := uuid.NewString()
	if err := store.MarkSold(ctx, c.ID, buyer); err != nil {
		t.Fatalf("mark sold: %v", err)
	}

	if err := store.ReleaseSold(ctx, c.ID, uuid.NewString()); err == nil {
		t.Fatalf("expected release by another buyer to fail")
	}
	if err := store.ReleaseSold(ctx, c.ID, buyer); err != nil {
		t.Fatalf("release: %v", err)
	}

	reopened, err := store.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reopened.Status != StatusAvailable || reopened.PurchasedBy != "" {
		t.Fatalf("expected coupon reopened, got %+v", reopened)
	}
}

func TestListAvailableSkipsSoldAndExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	open := seedCoupon(t, store)
	sold := seedCoupon(t, store)
	if err := store.MarkSold(ctx, sold.ID, uuid.NewString()); err != nil {
		t.Fatalf("mark sold: %v", err)
	}

	past := time.Now().UTC().Add(-time.Hour)
	expired := Coupon{
		ID:           uuid.NewString(),
		MerchantID:   uuid.NewString(),
		Brand:        "Flipkart",
		Code:         "GC-OLD-0001",
		Denomination: 10_000,
		Price:        9_000,
		Status:       StatusAvailable,
		ExpiresAt:    &past,
		CreatedAt:    past,
	}
	if err := store.Create(ctx, expired); err != nil {
		t.Fatalf("create expired: %v", err)
	}

	coupons, err := store.ListAvailable(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(coupons) != 1 || coupons[0].ID != open.ID {
		t.Fatalf("expected only the open coupon, got %+v", coupons)
	}
}
