// Package bus provides the unbounded multi-producer, single-consumer queue
// that carries every event into the dispatcher.
package bus

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Publish after Close, and by Next once the bus is
// closed and drained.
var ErrClosed = errors.New("event bus closed")

// Bus is an unbounded FIFO queue. Publish never blocks, so a slow consumer
// can never stall a network reader or transfer worker. Events from one
// producer are delivered in the order that producer published them.
type Bus[T any] struct {
	mu     sync.Mutex
	queue  []T
	ready  chan struct{}
	closed bool
}

// New returns an empty bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{ready: make(chan struct{}, 1)}
}

// Publish appends ev to the queue.
func (b *Bus[T]) Publish(ev T) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.queue = append(b.queue, ev)
	b.mu.Unlock()

	select {
	case b.ready <- struct{}{}:
	default:
	}
	return nil
}

// Next removes and returns the oldest event, waiting until one is available.
// It must only be called from the single consumer.
func (b *Bus[T]) Next(ctx context.Context) (T, error) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			ev := b.queue[0]
			var zero T
			b.queue[0] = zero
			b.queue = b.queue[1:]
			if len(b.queue) == 0 {
				b.queue = nil
			}
			b.mu.Unlock()
			return ev, nil
		}
		closed := b.closed
		b.mu.Unlock()

		if closed {
			var zero T
			return zero, ErrClosed
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-b.ready:
		}
	}
}

// Len reports the number of queued events.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Close stops accepting events. Events already queued are still delivered.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	select {
	case b.ready <- struct{}{}:
	default:
	}
}
