package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates no coupon matches the lookup.
	ErrNotFound = errors.New("coupon not found")
	// ErrNotAvailable indicates the coupon was already sold or expired.
	ErrNotAvailable = errors.New("coupon is no longer available")
)

// Store persists coupons and orders. MarkSold is a conditional write: only
// one buyer can ever flip a coupon from available to sold.
type Store interface {
	Create(ctx context.Context, c Coupon) error
	Get(ctx context.Context, id string) (Coupon, error)
	ListAvailable(ctx context.Context, limit int) ([]Coupon, error)
	MarkSold(ctx context.Context, id, buyerID string) error
	ReleaseSold(ctx context.Context, id, buyerID string) error
	InsertOrder(ctx context.Context, o Order) error
	OrdersForBuyer(ctx context.Context, buyerID string, limit int) ([]Order, error)
}

const couponColumns = `id, merchant_id, brand, code, denomination_paise, price_paise,
	status, purchased_by, sold_at, expires_at, created_at`

// PostgresStore stores coupons in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, c Coupon) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO coupons (id, merchant_id, brand, code, denomination_paise, price_paise,
			status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.MustParse(c.ID), uuid.MustParse(c.MerchantID), c.Brand, c.Code,
		c.Denomination, c.Price, c.Status, c.ExpiresAt, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Coupon, error) {
	couponUUID, err := uuid.Parse(id)
	if err != nil {
		return Coupon{}, fmt.Errorf("invalid coupon id: %w", err)
	}
	row := s.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, couponUUID)
	return scanCoupon(row)
}

func (s *PostgresStore) ListAvailable(ctx context.Context, limit int) ([]Coupon, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+couponColumns+` FROM coupons
		WHERE status = 'available' AND (expires_at IS NULL OR expires_at > now())
		ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

// MarkSold claims the coupon for the buyer. The status guard is in the
// statement so two concurrent buyers cannot both win.
func (s *PostgresStore) MarkSold(ctx context.Context, id, buyerID string) error {
	couponUUID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid coupon id: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE coupons SET status = 'sold', purchased_by = $2, sold_at = $3
		WHERE id = $1 AND status = 'available'
	`, couponUUID, uuid.MustParse(buyerID), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark coupon sold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrNotAvailable
	}
	return nil
}

// ReleaseSold undoes a claim made by the same buyer, used to compensate a
// failed order write.
func (s *PostgresStore) ReleaseSold(ctx context.Context, id, buyerID string) error {
	couponUUID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid coupon id: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE coupons SET status = 'available', purchased_by = NULL, sold_at = NULL
		WHERE id = $1 AND status = 'sold' AND purchased_by = $2
	`, couponUUID, uuid.MustParse(buyerID))
	if err != nil {
		return fmt.Errorf("release coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) InsertOrder(ctx context.Context, o Order) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO coupon_orders (id, coupon_id, buyer_id, amount_paise, txn_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.MustParse(o.ID), uuid.MustParse(o.CouponID), uuid.MustParse(o.BuyerID),
		o.Amount, o.TxnID, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *PostgresStore) OrdersForBuyer(ctx context.Context, buyerID string, limit int) ([]Order, error) {
	buyerUUID, err := uuid.Parse(buyerID)
	if err != nil {
		return nil, fmt.Errorf("invalid buyer id: %w", err)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, coupon_id, buyer_id, amount_paise, txn_id, created_at
		FROM coupon_orders WHERE buyer_id = $1 ORDER BY created_at DESC LIMIT $2
	`, buyerUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var (
			o          Order
			orderUUID  uuid.UUID
			couponUUID uuid.UUID
			buyer      uuid.UUID
		)
		if err := rows.Scan(&orderUUID, &couponUUID, &buyer, &o.Amount, &o.TxnID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.ID = orderUUID.String()
		o.CouponID = couponUUID.String()
		o.BuyerID = buyer.String()
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanCoupon(row pgx.Row) (Coupon, error) {
	var (
		c            Coupon
		couponUUID   uuid.UUID
		merchantUUID uuid.UUID
		purchasedBy  *uuid.UUID
	)
	err := row.Scan(&couponUUID, &merchantUUID, &c.Brand, &c.Code, &c.Denomination, &c.Price,
		&c.Status, &purchasedBy, &c.SoldAt, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, fmt.Errorf("scan coupon: %w", err)
	}
	c.ID = couponUUID.String()
	c.MerchantID = merchantUUID.String()
	if purchasedBy != nil {
		c.PurchasedBy = purchasedBy.String()
	}
	return c, nil
}
