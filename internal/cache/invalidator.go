package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/streadway/amqp"
)

// Invalidator is the subscriber side of the broadcast: it clears the
// namespace of the signalled collection.
type Invalidator struct {
	store Store
}

// NewInvalidator creates an Invalidator clearing keys in store.
func NewInvalidator(store Store) *Invalidator {
	return &Invalidator{store: store}
}

// Handle clears every key under the collection namespace.
func (i *Invalidator) Handle(ctx context.Context, collection string) error {
	if collection == "" {
		return fmt.Errorf("invalidation signal without collection")
	}
	if err := i.store.ClearPrefix(ctx, Namespace(collection)); err != nil {
		return fmt.Errorf("failed to clear %s cache: %w", collection, err)
	}
	return nil
}

// Event is the wire form of an invalidation signal.
type Event struct {
	Collection string    `json:"collection"`
	Timestamp  time.Time `json:"timestamp"`
}

// HandleDelivery adapts Handle to the AMQP consumer loop.
func (i *Invalidator) HandleDelivery(msg amqp.Delivery) error {
	var ev Event
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		// Redelivering a malformed message would loop forever.
		log.Printf("Dropping malformed cache invalidation message %d: %v", msg.DeliveryTag, err)
		return nil
	}
	return i.Handle(context.Background(), ev.Collection)
}
