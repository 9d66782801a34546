package payout

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
	// ErrNotFound indicates no payout request matches the lookup.
	ErrNotFound = errors.New("payout request not found")
	// ErrPendingExists indicates the merchant already has an open request.
	ErrPendingExists = errors.New("a pending payout request already exists")
	// ErrConflict indicates the request is not in a state the transition allows.
	ErrConflict = errors.New("payout request state conflict")
)

// Repository persists payout requests. Create and Transition are conditional
// writes so concurrent submissions and reviews cannot duplicate or overwrite
// each other.
type Repository interface {
	Create(ctx context.Context, r Request) error
	Get(ctx context.Context, id string) (Request, error)
	HasPending(ctx context.Context, merchantID string) (bool, error)
	ListByMerchant(ctx context.Context, merchantID string, limit int) ([]Request, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]Request, error)
	Transition(ctx context.Context, id string, from []string, to, note, reviewer string) (Request, error)
}

const requestColumns = `id, merchant_id, owner_id, amount_paise, status,
	bank_account_number, bank_ifsc, bank_holder_name, bank_name,
	admin_note, reviewed_by, created_at, reviewed_at`

// PostgresRepository stores payout requests in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts the request only if the merchant has no pending request.
// The guard lives in the statement itself so two concurrent submissions
// cannot both pass a prior read.
func (r *PostgresRepository) Create(ctx context.Context, req Request) error {
	merchantUUID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		return fmt.Errorf("invalid merchant id: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO payout_requests (id, merchant_id, owner_id, amount_paise, status,
			bank_account_number, bank_ifsc, bank_holder_name, bank_name, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		WHERE NOT EXISTS (
			SELECT 1 FROM payout_requests WHERE merchant_id = $2 AND status = 'pending'
		)
	`, uuid.MustParse(req.ID), merchantUUID, uuid.MustParse(req.OwnerID), req.Amount, req.Status,
		req.Bank.AccountNumber, req.Bank.IFSC, req.Bank.HolderName, req.Bank.BankName, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payout request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPendingExists
	}
	return nil
}

// HasPending reports whether the merchant already has an open request.
func (r *PostgresRepository) HasPending(ctx context.Context, merchantID string) (bool, error) {
	merchantUUID, err := uuid.Parse(merchantID)
	if err != nil {
		return false, fmt.Errorf("invalid merchant id: %w", err)
	}
	var exists bool
	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payout_requests WHERE merchant_id = $1 AND status = 'pending')`,
		merchantUUID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending payout request: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Request, error) {
	requestUUID, err := uuid.Parse(id)
	if err != nil {
		return Request{}, fmt.Errorf("invalid payout request id: %w", err)
	}
	row := r.pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM payout_requests WHERE id = $1`, requestUUID)
	return scanRequest(row)
}

func (r *PostgresRepository) ListByMerchant(ctx context.Context, merchantID string, limit int) ([]Request, error) {
	merchantUUID, err := uuid.Parse(merchantID)
	if err != nil {
		return nil, fmt.Errorf("invalid merchant id: %w", err)
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM payout_requests WHERE merchant_id = $1 ORDER BY created_at DESC LIMIT $2`,
		merchantUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("list payout requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status string, limit int) ([]Request, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM payout_requests WHERE status = $1 ORDER BY created_at ASC LIMIT $2`,
		status, limit)
	if err != nil {
		return nil, fmt.Errorf("list payout requests: %w", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

// Transition flips the request to a new status only while its current status
// is in the from set. A zero-row update means another reviewer got there
// first, reported as ErrConflict.
func (r *PostgresRepository) Transition(ctx context.Context, id string, from []string, to, note, reviewer string) (Request, error) {
	requestUUID, err := uuid.Parse(id)
	if err != nil {
		return Request{}, fmt.Errorf("invalid payout request id: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE payout_requests
		SET status = $2, admin_note = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1 AND status = ANY($6)
	`, requestUUID, to, note, reviewer, time.Now().UTC(), from)
	if err != nil {
		return Request{}, fmt.Errorf("transition payout request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); errors.Is(err, ErrNotFound) {
			return Request{}, ErrNotFound
		}
		return Request{}, ErrConflict
	}
	return r.Get(ctx, id)
}

func scanRequest(row pgx.Row) (Request, error) {
	var (
		req          Request
		requestUUID  uuid.UUID
		merchantUUID uuid.UUID
		ownerUUID    uuid.UUID
		note         *string
		reviewer     *string
	)
	err := row.Scan(&requestUUID, &merchantUUID, &ownerUUID, &req.Amount, &req.Status,
		&req.Bank.AccountNumber, &req.Bank.IFSC, &req.Bank.HolderName, &req.Bank.BankName,
		&note, &reviewer, &req.CreatedAt, &req.ReviewedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("scan payout request: %w", err)
	}
	req.ID = requestUUID.String()
	req.MerchantID = merchantUUID.String()
	req.OwnerID = ownerUUID.String()
	if note != nil {
		req.AdminNote = *note
	}
	if reviewer != nil {
		req.ReviewedBy = *reviewer
	}
	return req, nil
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	var requests []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}
