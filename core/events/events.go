package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ecomm-sync/core/reconcile"

	"github.com/segmentio/kafka-go"
)

// Config holds configuration for outcome events.
type Config struct {
	// Enabled publishes every committed outcome.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Brokers is a comma separated broker list.
	Brokers string `mapstructure:"brokers" default:"localhost:9092"`
	// Topic receives the outcome events.
	Topic string `mapstructure:"topic" default:"ecomm-sync.outcomes"`
}

// OutcomeEvent is the message published for a committed outcome.
type OutcomeEvent struct {
	Adapter     string             `json:"adapter"`
	Key         string             `json:"key"`
	Status      reconcile.Status   `json:"status"`
	StatusCode  string             `json:"status_code"`
	PostType    reconcile.PostType `json:"post_type,omitempty"`
	RemoteID    string             `json:"remote_id,omitempty"`
	PublishedAt time.Time          `json:"published_at"`
}

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends outcome events to kafka. It implements reconcile.Listener.
type Publisher struct {
	writer writer
	now    func() time.Time
}

// NewPublisher creates a publisher writing to the configured topic.
func NewPublisher(cfg Config) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.Brokers, ",")...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return newPublisher(w)
}

func newPublisher(w writer) *Publisher {
	return &Publisher{writer: w, now: time.Now}
}

// OutcomeCommitted implements reconcile.Listener. Messages are keyed by the
// record key so one record's events stay ordered on a partition.
func (p *Publisher) OutcomeCommitted(ctx context.Context, adapter string, outcome reconcile.Outcome) error {
	event := OutcomeEvent{
		Adapter:     adapter,
		Key:         outcome.Key,
		Status:      outcome.Status,
		StatusCode:  outcome.Status.Code(),
		PostType:    outcome.PostType,
		RemoteID:    outcome.RemoteID,
		PublishedAt: p.now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode outcome event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(outcome.Key),
		Value: value,
	}); err != nil {
		return fmt.Errorf("failed to publish outcome for %s: %w", outcome.Key, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
