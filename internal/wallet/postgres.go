package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists wallets and ledger entries in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetOrCreate returns the owner's wallet, creating it with a zero balance on
// first use. The insert is an upsert so concurrent first-use cannot produce
// two wallets for one owner.
func (s *PostgresStore) GetOrCreate(ctx context.Context, ownerID string) (Wallet, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return Wallet{}, err
	}
	now := time.Now().UTC()
	_, err = s.db.Exec(ctx, `INSERT INTO wallets (id, owner_id, balance_paise, status, created_at, updated_at)
        VALUES ($1, $2, 0, $3, $4, $4)
        ON CONFLICT (owner_id) DO NOTHING`, uuid.New(), owner, StatusActive, now)
	if err != nil {
		return Wallet{}, err
	}
	return s.GetByOwner(ctx, ownerID)
}

// GetByOwner fetches a wallet by its owner identifier.
func (s *PostgresStore) GetByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return Wallet{}, err
	}
	row := s.db.QueryRow(ctx, `SELECT id, owner_id, balance_paise, status, created_at, updated_at
        FROM wallets WHERE owner_id = $1`, owner)
	return scanWallet(row)
}

// Apply writes the new balance and the ledger entry in one transaction. The
// balance update only succeeds while the row still holds balanceBefore, so a
// lost race surfaces as ErrStale instead of a lost update.
func (s *PostgresStore) Apply(ctx context.Context, walletID string, balanceBefore, balanceAfter int64, entry Entry) error {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	cmd, err := tx.Exec(ctx, `UPDATE wallets SET balance_paise = $1, updated_at = $2
        WHERE id = $3 AND balance_paise = $4`, balanceAfter, time.Now().UTC(), id, balanceBefore)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStale
	}

	var refID, refKind *string
	if entry.Reference != nil {
		refID, refKind = &entry.Reference.ID, &entry.Reference.Kind
	}
	if _, err := tx.Exec(ctx, `INSERT INTO wallet_transactions
        (id, wallet_id, owner_id, kind, amount_paise, balance_before, balance_after, description, reference_id, reference_kind, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.MustParse(entry.ID), id, uuid.MustParse(entry.OwnerID), entry.Kind, entry.Amount,
		entry.BalanceBefore, entry.BalanceAfter, entry.Description, refID, refKind, entry.CreatedAt.UTC()); err != nil {
		// A partial unique index on (reference_id, reference_kind) for refund
		// rows makes the second refund for one reference a constraint hit.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateReference
		}
		return err
	}

	return tx.Commit(ctx)
}

// Entries returns the owner's most recent ledger entries, newest first.
func (s *PostgresStore) Entries(ctx context.Context, ownerID string, limit int) ([]Entry, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `SELECT id, wallet_id, owner_id, kind, amount_paise, balance_before, balance_after, description, reference_id, reference_kind, created_at
        FROM wallet_transactions WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2`, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e              Entry
			id, wid, oid   uuid.UUID
			refID, refKind *string
			createdAt      time.Time
		)
		if err := rows.Scan(&id, &wid, &oid, &e.Kind, &e.Amount, &e.BalanceBefore, &e.BalanceAfter, &e.Description, &refID, &refKind, &createdAt); err != nil {
			return nil, err
		}
		e.ID, e.WalletID, e.OwnerID = id.String(), wid.String(), oid.String()
		e.CreatedAt = createdAt.UTC()
		if refID != nil && refKind != nil {
			e.Reference = &Reference{ID: *refID, Kind: *refKind}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w                    Wallet
		id, owner            uuid.UUID
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &owner, &w.Balance, &w.Status, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.OwnerID = owner.String()
	w.CreatedAt = createdAt.UTC()
	w.UpdatedAt = updatedAt.UTC()
	return w, nil
}
