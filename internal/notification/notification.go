package notification

import (
	"context"
	"log/slog"
	"time"
)

// Notification kinds.
const (
	KindPayoutRequested = "payout_requested"
	KindPayoutApproved  = "payout_approved"
	KindPayoutRejected  = "payout_rejected"
	KindPayoutReleased  = "payout_released"
	KindWalletTopup     = "wallet_topup"
	KindKYCApproved     = "kyc_approved"
)

// Message describes a notification payload for one recipient.
type Message struct {
	Recipient string
	Title     string
	Body      string
	Kind      string
	Reference string
}

// Notice is a stored notification consumed by the unread/read UI.
type Notice struct {
	ID        string    `json:"id"`
	Recipient string    `json:"-"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Kind      string    `json:"kind"`
	Reference string    `json:"reference,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// Store persists notifications for later consumption.
type Store interface {
	Append(ctx context.Context, notice Notice) error
	ListForRecipient(ctx context.Context, recipient string, limit int) ([]Notice, error)
	MarkRead(ctx context.Context, recipient, id string) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind, "recipient", message.Recipient,
		"title", message.Title, "body", message.Body)
	return nil
}

// Fanout delivers each message to every wrapped notifier; the first error is
// returned after all notifiers ran.
type Fanout []Notifier

// Send delivers the message to all notifiers.
func (f Fanout) Send(ctx context.Context, message Message) error {
	var firstErr error
	for _, n := range f {
		if err := n.Send(ctx, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
