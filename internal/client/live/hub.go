// Package live implements subscribable queries over the local store.
//
// A Hub fans out "topic changed" signals sent after a commit. Watch ties a
// query to a topic: the query runs once on subscribe and again after every
// signal, and only the newest result is kept for the consumer, so committers
// never wait on slow readers.
package live

import (
	"sync"
)

// Hub routes change notifications by topic (a collection name).
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]chan struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]chan struct{})}
}

// Notify signals every subscriber of topic. It never blocks.
func (h *Hub) Notify(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, kick := range h.subs[topic] {
		select {
		case kick <- struct{}{}:
		default:
		}
	}
}

// Count returns the number of registrations on topic.
func (h *Hub) Count(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}

func (h *Hub) register(topic string) (uint64, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	kick := make(chan struct{}, 1)
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[uint64]chan struct{})
	}
	h.subs[topic][id] = kick
	return id, kick
}

func (h *Hub) unregister(topic string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs[topic], id)
	if len(h.subs[topic]) == 0 {
		delete(h.subs, topic)
	}
}
