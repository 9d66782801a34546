package merchant

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
	// ErrNotFound indicates no merchant profile exists for the lookup.
	ErrNotFound = errors.New("merchant not found")
	// ErrAlreadyExists indicates the owner already has a merchant profile.
	ErrAlreadyExists = errors.New("merchant profile already exists")
)

// Repository persists merchant profiles.
type Repository interface {
	Create(ctx context.Context, m Merchant) error
	GetByOwner(ctx context.Context, ownerID string) (Merchant, error)
	Get(ctx context.Context, id string) (Merchant, error)
	Update(ctx context.Context, m Merchant) error
	ListByStatus(ctx context.Context, status string, limit int) ([]Merchant, error)
}

const merchantColumns = `id, owner_id, business_name, status, pan, gstin,
	bank_account_number, bank_ifsc, bank_holder_name, bank_name,
	pan_verified, gstin_verified, bank_verified, created_at, updated_at`

// PostgresRepository stores merchants in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, m Merchant) error {
	ownerUUID, err := uuid.Parse(m.OwnerID)
	if err != nil {
		return fmt.Errorf("invalid owner id: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO merchants (id, owner_id, business_name, status, pan, gstin,
			bank_account_number, bank_ifsc, bank_holder_name, bank_name,
			pan_verified, gstin_verified, bank_verified, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		WHERE NOT EXISTS (SELECT 1 FROM merchants WHERE owner_id = $2)
	`, uuid.MustParse(m.ID), ownerUUID, m.BusinessName, m.Status, m.PAN, m.GSTIN,
		m.Bank.AccountNumber, m.Bank.IFSC, m.Bank.HolderName, m.Bank.BankName,
		m.PANVerified, m.GSTINVerified, m.BankVerified, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *PostgresRepository) GetByOwner(ctx context.Context, ownerID string) (Merchant, error) {
	ownerUUID, err := uuid.Parse(ownerID)
	if err != nil {
		return Merchant{}, fmt.Errorf("invalid owner id: %w", err)
	}
	row := r.pool.QueryRow(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE owner_id = $1`, ownerUUID)
	return scanMerchant(row)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Merchant, error) {
	merchantUUID, err := uuid.Parse(id)
	if err != nil {
		return Merchant{}, fmt.Errorf("invalid merchant id: %w", err)
	}
	row := r.pool.QueryRow(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE id = $1`, merchantUUID)
	return scanMerchant(row)
}

func (r *PostgresRepository) Update(ctx context.Context, m Merchant) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE merchants
		SET business_name = $2, status = $3, pan = $4, gstin = $5,
			bank_account_number = $6, bank_ifsc = $7, bank_holder_name = $8, bank_name = $9,
			pan_verified = $10, gstin_verified = $11, bank_verified = $12, updated_at = $13
		WHERE id = $1
	`, uuid.MustParse(m.ID), m.BusinessName, m.Status, m.PAN, m.GSTIN,
		m.Bank.AccountNumber, m.Bank.IFSC, m.Bank.HolderName, m.Bank.BankName,
		m.PANVerified, m.GSTINVerified, m.BankVerified, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update merchant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status string, limit int) ([]Merchant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE status = $1 ORDER BY created_at DESC LIMIT $2`,
		status, limit)
	if err != nil {
		return nil, fmt.Errorf("list merchants: %w", err)
	}
	defer rows.Close()

	var merchants []Merchant
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			return nil, err
		}
		merchants = append(merchants, m)
	}
	return merchants, rows.Err()
}

func scanMerchant(row pgx.Row) (Merchant, error) {
	var (
		m            Merchant
		merchantUUID uuid.UUID
		ownerUUID    uuid.UUID
	)
	err := row.Scan(&merchantUUID, &ownerUUID, &m.BusinessName, &m.Status, &m.PAN, &m.GSTIN,
		&m.Bank.AccountNumber, &m.Bank.IFSC, &m.Bank.HolderName, &m.Bank.BankName,
		&m.PANVerified, &m.GSTINVerified, &m.BankVerified, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Merchant{}, ErrNotFound
		}
		return Merchant{}, fmt.Errorf("scan merchant: %w", err)
	}
	m.ID = merchantUUID.String()
	m.OwnerID = ownerUUID.String()
	return m, nil
}
