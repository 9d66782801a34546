package gateway

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
	// ErrNotFound indicates no transaction matches the lookup.
	ErrNotFound = errors.New("payment transaction not found")
)

// Repository persists payment transactions. ApplyCallback reports whether
// this call wrote the status: SUCCESS is sticky, so of two concurrent
// deliveries exactly one gets applied=true and owns the side effects.
type Repository interface {
	Create(ctx context.Context, txn Txn) error
	GetByClientTxn(ctx context.Context, clientTxnID string) (Txn, error)
	ApplyCallback(ctx context.Context, clientTxnID string, update CallbackUpdate) (Txn, bool, error)
	MarkWalletCredited(ctx context.Context, clientTxnID string) error
	ListForOwner(ctx context.Context, ownerID string, limit int) ([]Txn, error)
}

const txnColumns = `id, client_txn_id, owner_id, purpose, target_id, status, amount_paise,
	gateway_txn_id, bank_txn_id, payment_mode, message, wallet_credited, created_at, updated_at`

// PostgresRepository stores payment transactions in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, txn Txn) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payment_transactions (id, client_txn_id, owner_id, purpose, target_id,
			status, amount_paise, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, uuid.MustParse(txn.ID), txn.ClientTxnID, uuid.MustParse(txn.OwnerID), txn.Purpose,
		nullable(txn.TargetID), txn.Status, txn.Amount, txn.CreatedAt, txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByClientTxn(ctx context.Context, clientTxnID string) (Txn, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM payment_transactions WHERE client_txn_id = $1`, clientTxnID)
	return scanTxn(row)
}

// ApplyCallback writes the callback-owned fields unless the row already
// reached SUCCESS. The status guard sits in the statement itself, so two
// concurrent deliveries cannot both claim the transition: the zero-row case
// means another delivery already won and the row is returned untouched.
func (r *PostgresRepository) ApplyCallback(ctx context.Context, clientTxnID string, update CallbackUpdate) (Txn, bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payment_transactions
		SET status = $2, amount_paise = $3, gateway_txn_id = $4, bank_txn_id = $5,
			payment_mode = $6, message = $7, updated_at = $8
		WHERE client_txn_id = $1 AND status <> $9
	`, clientTxnID, update.Status, update.Amount, nullable(update.GatewayTxnID),
		nullable(update.BankTxnID), nullable(update.PaymentMode), update.Message,
		time.Now().UTC(), StatusSuccess)
	if err != nil {
		return Txn{}, false, fmt.Errorf("update payment transaction: %w", err)
	}
	applied := tag.RowsAffected() == 1

	txn, err := r.GetByClientTxn(ctx, clientTxnID)
	if err != nil {
		return Txn{}, false, err
	}
	return txn, applied, nil
}

func (r *PostgresRepository) MarkWalletCredited(ctx context.Context, clientTxnID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payment_transactions SET wallet_credited = TRUE, updated_at = $2
		WHERE client_txn_id = $1
	`, clientTxnID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark wallet credited: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListForOwner(ctx context.Context, ownerID string, limit int) ([]Txn, error) {
	ownerUUID, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+txnColumns+` FROM payment_transactions WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2`,
		ownerUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("list payment transactions: %w", err)
	}
	defer rows.Close()

	var txns []Txn
	for rows.Next() {
		txn, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func scanTxn(row pgx.Row) (Txn, error) {
	var (
		txn          Txn
		txnUUID      uuid.UUID
		ownerUUID    uuid.UUID
		targetID     *string
		gatewayTxnID *string
		bankTxnID    *string
		paymentMode  *string
	)
	err := row.Scan(&txnUUID, &txn.ClientTxnID, &ownerUUID, &txn.Purpose, &targetID,
		&txn.Status, &txn.Amount, &gatewayTxnID, &bankTxnID, &paymentMode,
		&txn.Message, &txn.WalletCredited, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Txn{}, ErrNotFound
		}
		return Txn{}, fmt.Errorf("scan payment transaction: %w", err)
	}
	txn.ID = txnUUID.String()
	txn.OwnerID = ownerUUID.String()
	txn.TargetID = deref(targetID)
	txn.GatewayTxnID = deref(gatewayTxnID)
	txn.BankTxnID = deref(bankTxnID)
	txn.PaymentMode = deref(paymentMode)
	return txn, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
