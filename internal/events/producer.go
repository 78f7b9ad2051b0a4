// Package events publishes storefront activity to Kafka for downstream
// analytics. Publishing is best effort: a broker problem is logged and the
// request that caused the event is never failed for it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/trendora/storefront/internal/logging"
)

const (
	TypeCartAdded       = "cart_item_added"
	TypeCartRemoved     = "cart_item_removed"
	TypeCartCleared     = "cart_cleared"
	TypeCartMerged      = "cart_merged"
	TypeWishlistSaved   = "wishlist_saved"
	TypeWishlistRemoved = "wishlist_removed"
)

type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	ProductID string    `json:"product_id,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	At        time.Time `json:"at"`
}

type Producer struct {
	writer *kafka.Writer
}

// NewProducer returns nil when no brokers are configured; a nil Producer
// publishes nothing.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		return nil
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 20 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, ev Event) {
	if p == nil || p.writer == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		logging.FromContext(ctx).Error("event marshal failed", "type", ev.Type, "error", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(ev.SessionID),
		Value: data,
	}); err != nil {
		logging.FromContext(ctx).Error("event publish failed", "type", ev.Type, "error", err)
	}
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
