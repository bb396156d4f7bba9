package live

import (
	"context"
	"sync"
)

// Query produces the current value of a live query.
type Query[T any] func(ctx context.Context) (T, error)

// Subscription delivers the latest result of a query on C until Close.
type Subscription[T any] struct {
	// C holds at most one value, always the newest one produced.
	C <-chan T

	out   chan T
	hub   *Hub
	topic string
	id    uint64
	query Query[T]

	mu  sync.Mutex
	err error

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// Watch runs query right away, so C already holds a value (or Err is set)
// when Watch returns, and re-runs it after every Notify on topic. The
// subscription ends on Close or when ctx is done.
func Watch[T any](ctx context.Context, hub *Hub, topic string, query Query[T]) *Subscription[T] {
	out := make(chan T, 1)
	s := &Subscription[T]{
		C:       out,
		out:     out,
		hub:     hub,
		topic:   topic,
		query:   query,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	var kick <-chan struct{}
	s.id, kick = hub.register(topic)
	s.refresh(ctx)

	go s.loop(ctx, kick)
	return s
}

func (s *Subscription[T]) loop(ctx context.Context, kick <-chan struct{}) {
	defer close(s.stopped)
	defer close(s.out)
	for {
		select {
		case <-ctx.Done():
			s.release()
			return
		case <-s.done:
			return
		case <-kick:
			s.refresh(ctx)
		}
	}
}

func (s *Subscription[T]) refresh(ctx context.Context) {
	v, err := s.query(ctx)

	s.mu.Lock()
	s.err = err
	s.mu.Unlock()

	if err != nil {
		return
	}

	// Only refresh sends on out, so after dropping a stale value the send
	// cannot block.
	select {
	case s.out <- v:
	default:
		select {
		case <-s.out:
		default:
		}
		s.out <- v
	}
}

// Err returns the error of the most recent query run, if it failed.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close releases the registration and closes C once the delivery loop has
// exited. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.release()
	<-s.stopped
}

func (s *Subscription[T]) release() {
	s.closeOnce.Do(func() {
		s.hub.unregister(s.topic, s.id)
		close(s.done)
	})
}
