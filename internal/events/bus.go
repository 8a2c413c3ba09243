// Package events implements the telemetry bus of spec §4.11(b): a single
// logical sink for TaskEvents, fed by the domain processor and the
// sequence runner, broadcasting to live SSE subscribers while persisting
// through an injected interfaces.EventStore.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/interfaces"
	"github.com/ternarybob/hubscout/internal/models"
)

// Handler receives a published TaskEvent. A non-nil error is logged, never
// propagated to the publisher.
type Handler func(ctx context.Context, event models.TaskEvent) error

// Bus is the pub/sub implementation backing the telemetry surface.
// Per-taskId ordering is preserved because Publish/PublishSync are always
// invoked sequentially by the single goroutine driving a given task.
type Bus struct {
	mu          sync.RWMutex
	subscribers []Handler
	store       interfaces.EventStore
	logger      arbor.ILogger
}

// NewBus creates a telemetry bus that persists every event through store
// before broadcasting it to subscribers.
func NewBus(store interfaces.EventStore, logger arbor.ILogger) *Bus {
	return &Bus{store: store, logger: logger}
}

// Subscribe registers a handler invoked for every published event.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, h)
	idx := len(b.subscribers) - 1
	b.logger.Debug().Int("subscriber_count", len(b.subscribers)).Msg("telemetry handler subscribed")
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.subscribers) {
			b.subscribers[idx] = nil
		}
	}
}

// Publish persists event then delivers it to each subscriber in turn on the
// caller's goroutine, so events published in sequence reach every
// subscriber in that order.
func (b *Bus) Publish(ctx context.Context, event models.TaskEvent) error {
	if b.store != nil {
		if err := b.store.Append(ctx, &event); err != nil {
			b.logger.Warn().Err(err).Str("task_id", event.TaskID).Msg("telemetry store append failed")
		}
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if h == nil {
			continue
		}
		if err := h(ctx, event); err != nil {
			b.logger.Error().Err(err).Str("event_type", event.EventType).Msg("telemetry handler failed")
		}
	}
	return nil
}

// PublishSync persists event then blocks until every subscriber has run.
// Used where ordering of side effects relative to the caller matters (e.g.
// the sequence runner emitting a step-start event before invoking the
// operation).
func (b *Bus) PublishSync(ctx context.Context, event models.TaskEvent) error {
	if b.store != nil {
		if err := b.store.Append(ctx, &event); err != nil {
			b.logger.Warn().Err(err).Str("task_id", event.TaskID).Msg("telemetry store append failed")
		}
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers...)
	b.mu.RUnlock()

	var wg sync.WaitGroup
	errCh := make(chan error, len(handlers))
	for _, h := range handlers {
		if h == nil {
			continue
		}
		wg.Add(1)
		go func(handler Handler) {
			defer wg.Done()
			if err := handler(ctx, event); err != nil {
				errCh <- err
			}
		}(h)
	}
	wg.Wait()
	close(errCh)

	var n int
	for range errCh {
		n++
	}
	if n > 0 {
		return fmt.Errorf("telemetry handlers failed: %d errors", n)
	}
	return nil
}

// Close drops all subscribers.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = nil
}
