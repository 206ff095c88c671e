package cache

import (
	"context"
	"log"
	"sync"
)

// Handler receives an invalidation signal.
type Handler func(ctx context.Context, collection string) error

// LocalBus is an in-process Publisher. Each signal is delivered to every
// subscriber on its own goroutine; Publish never waits for them.
type LocalBus struct {
	mu       sync.RWMutex
	handlers []Handler
	inflight sync.WaitGroup
}

// NewLocalBus creates a bus without subscribers.
func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

// Subscribe registers h for every future signal.
func (b *LocalBus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *LocalBus) Publish(ctx context.Context, collection string) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	// Delivery must outlive the request that triggered it.
	ctx = context.WithoutCancel(ctx)
	for _, h := range handlers {
		b.inflight.Add(1)
		go func(h Handler) {
			defer b.inflight.Done()
			if err := h(ctx, collection); err != nil {
				log.Printf("Cache invalidation handler failed for %s: %v", collection, err)
			}
		}(h)
	}
	return nil
}

// Wait blocks until every delivery started so far has finished.
func (b *LocalBus) Wait() {
	b.inflight.Wait()
}
