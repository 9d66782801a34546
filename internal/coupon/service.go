package coupon

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/giftkart/giftkart/internal/merchant"
)

// ErrMerchantNotApproved blocks listings from merchants still in onboarding.
var ErrMerchantNotApproved = errors.New("merchant is not approved")

// MerchantDirectory resolves the merchant profile behind a platform user.
type MerchantDirectory interface {
	GetByOwner(ctx context.Context, ownerID string) (merchant.Merchant, error)
}

// ListInput carries a new coupon listing.
type ListInput struct {
	Brand        string
	Code         string
	Denomination decimal.Decimal
	Price        decimal.Decimal
	ExpiresAt    *time.Time
}

// Service manages the coupon catalogue. Purchase-side mutations are driven
// by the payment flow, not by this service.
type Service struct {
	store     Store
	merchants MerchantDirectory
	logger    *slog.Logger
}

func NewService(store Store, merchants MerchantDirectory, logger *slog.Logger) *Service {
	return &Service{store: store, merchants: merchants, logger: logger}
}

// List creates a coupon listing for an approved merchant.
func (s *Service) List(ctx context.Context, ownerID string, input ListInput) (Coupon, error) {
	m, err := s.merchants.GetByOwner(ctx, ownerID)
	if err != nil {
		return Coupon{}, err
	}
	if m.Status != merchant.StatusApproved {
		return Coupon{}, ErrMerchantNotApproved
	}
	if strings.TrimSpace(input.Brand) == "" || strings.TrimSpace(input.Code) == "" {
		return Coupon{}, errors.New("brand and code are required")
	}
	if input.Price.LessThanOrEqual(decimal.Zero) || input.Denomination.LessThanOrEqual(decimal.Zero) {
		return Coupon{}, errors.New("price and denomination must be positive")
	}
	if input.Price.GreaterThan(input.Denomination) {
		return Coupon{}, errors.New("price cannot exceed denomination")
	}

	c := Coupon{
		ID:           uuid.NewString(),
		MerchantID:   m.ID,
		Brand:        strings.TrimSpace(input.Brand),
		Code:         strings.TrimSpace(input.Code),
		Denomination: input.Denomination.Shift(2).Round(0).IntPart(),
		Price:        input.Price.Shift(2).Round(0).IntPart(),
		Status:       StatusAvailable,
		ExpiresAt:    input.ExpiresAt,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return Coupon{}, err
	}
	s.logger.Info("coupon listed",
		slog.String("coupon_id", c.ID),
		slog.String("merchant_id", m.ID),
		slog.String("brand", c.Brand))
	return c, nil
}

// Available returns coupons open for purchase.
func (s *Service) Available(ctx context.Context, limit int) ([]Coupon, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListAvailable(ctx, limit)
}

// Orders returns the buyer's purchase history.
func (s *Service) Orders(ctx context.Context, buyerID string, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.OrdersForBuyer(ctx, buyerID, limit)
}
