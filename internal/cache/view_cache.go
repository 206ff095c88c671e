package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// ViewCache is a JSON-backed read-through cache for response views.
// A nil *ViewCache is valid and never hits.
type ViewCache[T any] struct {
	store Store
	ttl   time.Duration
}

// NewViewCache creates a ViewCache over store; pass 0 for entries that
// should not expire.
func NewViewCache[T any](store Store, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{store: store, ttl: ttl}
}

// Get returns (nil, false) on any miss or decoding error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	data, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// Set stores value; failures are logged since a cache write miss is non-fatal.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("ViewCache: marshal error for key %s: %v", key, err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		log.Printf("ViewCache: write error for key %s: %v", key, err)
	}
}
