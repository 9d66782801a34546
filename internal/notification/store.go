package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the notification does not exist for the recipient.
var ErrNotFound = errors.New("notification not found")

// PostgresStore persists notifications in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed notification store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts a notification record.
func (s *PostgresStore) Append(ctx context.Context, n Notice) error {
	id, err := uuid.Parse(n.ID)
	if err != nil {
		return err
	}
	recipient, err := uuid.Parse(n.Recipient)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO notifications (id, recipient_id, title, body, kind, reference_id, read, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, false, $7)`,
		id, recipient, n.Title, n.Body, n.Kind, n.Reference, n.CreatedAt.UTC())
	return err
}

// ListForRecipient returns the recipient's notifications, newest first.
func (s *PostgresStore) ListForRecipient(ctx context.Context, recipient string, limit int) ([]Notice, error) {
	rid, err := uuid.Parse(recipient)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `SELECT id, recipient_id, title, body, kind, reference_id, read, created_at
        FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT $2`, rid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notices []Notice
	for rows.Next() {
		var (
			n         Notice
			id, rec   uuid.UUID
			createdAt time.Time
		)
		if err := rows.Scan(&id, &rec, &n.Title, &n.Body, &n.Kind, &n.Reference, &n.Read, &createdAt); err != nil {
			return nil, err
		}
		n.ID, n.Recipient, n.CreatedAt = id.String(), rec.String(), createdAt.UTC()
		notices = append(notices, n)
	}
	return notices, rows.Err()
}

// MarkRead flags a notification as read for its recipient.
func (s *PostgresStore) MarkRead(ctx context.Context, recipient, id string) error {
	rid, err := uuid.Parse(recipient)
	if err != nil {
		return err
	}
	nid, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	cmd, err := s.db.Exec(ctx, `UPDATE notifications SET read = true WHERE id = $1 AND recipient_id = $2`, nid, rid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type memoryStore struct {
	mu      sync.RWMutex
	notices []Notice
}

// NewMemoryStore builds an in-memory notification store for tests.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Append(_ context.Context, n Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
	return nil
}

func (s *memoryStore) ListForRecipient(_ context.Context, recipient string, limit int) ([]Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Notice
	for i := len(s.notices) - 1; i >= 0 && len(out) < limit; i-- {
		if s.notices[i].Recipient == recipient {
			out = append(out, s.notices[i])
		}
	}
	return out, nil
}

func (s *memoryStore) MarkRead(_ context.Context, recipient, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notices {
		if s.notices[i].ID == id && s.notices[i].Recipient == recipient {
			s.notices[i].Read = true
			return nil
		}
	}
	return ErrNotFound
}

// StoreNotifier persists each notification through the configured store.
type StoreNotifier struct {
	store Store
}

// NewStoreNotifier wraps a Store as a Notifier.
func NewStoreNotifier(store Store) *StoreNotifier {
	return &StoreNotifier{store: store}
}

// Send appends the message as an unread notification.
func (n *StoreNotifier) Send(ctx context.Context, message Message) error {
	return n.store.Append(ctx, Notice{
		ID:        uuid.NewString(),
		Recipient: message.Recipient,
		Title:     message.Title,
		Body:      message.Body,
		Kind:      message.Kind,
		Reference: message.Reference,
		CreatedAt: time.Now().UTC(),
	})
}
