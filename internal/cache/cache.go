// Package cache holds the read cache and the invalidation signal that keeps
// it consistent with mutations.
//
// Keys are namespaced by entity collection ("users.", "address."). After a
// successful mutation the account service publishes the collection name; a
// subscriber clears every key under that namespace. Clearing is idempotent,
// so duplicate or redundant signals are harmless.
package cache

import (
	"context"
	"strings"
	"time"
)

// Collection names used as invalidation scopes.
const (
	CollectionUsers     = "users"
	CollectionAddresses = "address"
)

// Store is a key/value cache that can drop a whole key namespace.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	ClearPrefix(ctx context.Context, prefix string) error
}

// Publisher emits an invalidation signal for a collection. Delivery is
// fire-and-forget and at-least-once.
type Publisher interface {
	Publish(ctx context.Context, collection string) error
}

// Namespace returns the key prefix owned by collection.
func Namespace(collection string) string {
	return collection + "."
}

// Key builds a cache key inside the collection namespace.
func Key(collection string, parts ...string) string {
	return Namespace(collection) + strings.Join(parts, ":")
}

// Nop is a Publisher that drops every signal.
type Nop struct{}

func (Nop) Publish(context.Context, string) error { return nil }
