// Package chat routes real-time direct and event messages between live
// WebSocket connections.
package chat

import "sync"

// Channel is a live outbound connection. Send must not block.
type Channel interface {
	Send(payload []byte) error
	Close()
}

// Registry maps a key to at most one live channel. The last registration for
// a key wins; the replaced channel is neither notified nor closed.
type Registry[K comparable] struct {
	mu    sync.RWMutex
	conns map[K]Channel
}

func NewRegistry[K comparable]() *Registry[K] {
	return &Registry[K]{conns: make(map[K]Channel)}
}

// Register associates ch with key and returns the channel it replaced, if any.
func (r *Registry[K]) Register(key K, ch Channel) Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.conns[key]
	r.conns[key] = ch
	return prev
}

// Unregister removes whatever is registered under key. Missing keys are ignored.
func (r *Registry[K]) Unregister(key K) {
	r.mu.Lock()
	delete(r.conns, key)
	r.mu.Unlock()
}

// Release removes key only while ch is still the registered channel, so a
// session that has been replaced cannot evict its successor.
func (r *Registry[K]) Release(key K, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[key]; ok && cur == ch {
		delete(r.conns, key)
		return true
	}
	return false
}

func (r *Registry[K]) Lookup(key K) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.conns[key]
	return ch, ok
}

// Broadcast sends msg to every channel whose key satisfies pred and returns
// how many accepted it. Delivery happens outside the lock; failed sends are
// skipped.
func (r *Registry[K]) Broadcast(pred func(K) bool, msg []byte) int {
	targets := r.snapshot(pred)
	delivered := 0
	for _, ch := range targets {
		if err := ch.Send(msg); err == nil {
			delivered++
		}
	}
	return delivered
}

func (r *Registry[K]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry[K]) snapshot(pred func(K) bool) []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Channel, 0, len(r.conns))
	for k, ch := range r.conns {
		if pred == nil || pred(k) {
			out = append(out, ch)
		}
	}
	return out
}
