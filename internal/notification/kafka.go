package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes notification events to a Kafka topic so external
// consumers (email, SMS, push) can fan them out.
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier wraps a kafka writer as a Notifier.
func NewKafkaNotifier(writer *kafka.Writer) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

type notificationEvent struct {
	Recipient string    `json:"recipient"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Kind      string    `json:"kind"`
	Reference string    `json:"reference,omitempty"`
	EmittedAt time.Time `json:"emitted_at"`
}

// Send publishes the message as a JSON event keyed by recipient.
func (n *KafkaNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.writer == nil {
		return nil
	}
	payload, err := json.Marshal(notificationEvent{
		Recipient: message.Recipient,
		Title:     message.Title,
		Body:      message.Body,
		Kind:      message.Kind,
		Reference: message.Reference,
		EmittedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(message.Recipient),
		Value: payload,
	})
}
