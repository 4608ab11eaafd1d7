// Package queue provides a bounded in-process work queue drained by exactly
// one consumer goroutine.
package queue

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrFull is returned by Enqueue when the buffer is at capacity.
	ErrFull = errors.New("queue full")
	// ErrConsumerRunning is returned when Run is called while another consumer is active.
	ErrConsumerRunning = errors.New("queue already has a consumer")
)

// Queue is a bounded FIFO. Producers never block; a full queue rejects the item.
type Queue[T any] struct {
	items   chan T
	running atomic.Bool
	depth   prometheus.Gauge
}

type config struct {
	depth prometheus.Gauge
}

// Option configures a Queue.
type Option func(*config)

// WithDepthGauge mirrors the queue depth into g after every enqueue and dequeue.
func WithDepthGauge(g prometheus.Gauge) Option {
	return func(c *config) {
		c.depth = g
	}
}

// New builds a queue holding at most capacity items. Capacity below one is raised to one.
func New[T any](capacity int, opts ...Option) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Queue[T]{items: make(chan T, capacity), depth: cfg.depth}
}

// Enqueue adds item without blocking.
func (q *Queue[T]) Enqueue(item T) error {
	select {
	case q.items <- item:
		q.observe()
		return nil
	default:
		return ErrFull
	}
}

// Depth returns the number of buffered items.
func (q *Queue[T]) Depth() int {
	return len(q.items)
}

// Capacity returns the maximum number of buffered items.
func (q *Queue[T]) Capacity() int {
	return cap(q.items)
}

// Run hands every item to handle until ctx is done, then drains what is
// already buffered with a context detached from ctx's cancellation.
func (q *Queue[T]) Run(ctx context.Context, handle func(context.Context, T)) error {
	if !q.running.CompareAndSwap(false, true) {
		return ErrConsumerRunning
	}
	defer q.running.Store(false)

	for {
		if err := ctx.Err(); err != nil {
			q.drain(context.WithoutCancel(ctx), handle)
			return err
		}
		select {
		case <-ctx.Done():
			continue
		case item := <-q.items:
			q.observe()
			handle(ctx, item)
		}
	}
}

func (q *Queue[T]) drain(ctx context.Context, handle func(context.Context, T)) {
	for {
		select {
		case item := <-q.items:
			q.observe()
			handle(ctx, item)
		default:
			return
		}
	}
}

func (q *Queue[T]) observe() {
	if q.depth != nil {
		q.depth.Set(float64(len(q.items)))
	}
}
