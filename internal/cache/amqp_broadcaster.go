package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ExchangeCacheClean is the fanout exchange carrying invalidation signals.
const ExchangeCacheClean = "cache.clean"

// MessagePublisher is the part of the RabbitMQ client the broadcaster needs.
type MessagePublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// AMQPBroadcaster publishes invalidation signals to every service instance
// through a fanout exchange.
type AMQPBroadcaster struct {
	client   MessagePublisher
	exchange string
	now      func() time.Time
}

// NewAMQPBroadcaster creates a broadcaster publishing on exchange.
func NewAMQPBroadcaster(client MessagePublisher, exchange string) *AMQPBroadcaster {
	return &AMQPBroadcaster{client: client, exchange: exchange, now: time.Now}
}

func (b *AMQPBroadcaster) Publish(_ context.Context, collection string) error {
	body, err := json.Marshal(Event{Collection: collection, Timestamp: b.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation event: %w", err)
	}
	if err := b.client.Publish(b.exchange, Namespace(collection)+"clean", body); err != nil {
		return fmt.Errorf("failed to publish invalidation for %s: %w", collection, err)
	}
	return nil
}
