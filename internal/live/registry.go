// Package live keeps the set of connected /live observers and fans new events
// out to them.
package live

import (
	"sync"

	"sensor_events/internal/logger"
)

// Subscriber is one open live connection. Send must be safe to call from
// multiple goroutines.
type Subscriber interface {
	Send(msg []byte) error
}

// Observer receives membership and delivery counts. Optional.
// SubscribersChanged is called with the registry lock held.
type Observer interface {
	SubscribersChanged(n int)
	DeliveryFailed(n int)
}

// Registry is a mutex-guarded subscriber set. The lock guards membership
// only and is never held while sending.
type Registry struct {
	mu   sync.Mutex
	subs map[Subscriber]struct{}

	log *logger.Logger
	obs Observer
}

// NewRegistry builds an empty registry. log and obs may be nil.
func NewRegistry(log *logger.Logger, obs Observer) *Registry {
	return &Registry{
		subs: make(map[Subscriber]struct{}),
		log:  log,
		obs:  obs,
	}
}

// Register adds s. Registering twice is a no-op.
func (r *Registry) Register(s Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[s] = struct{}{}
	r.notifyCount()
}

// Unregister removes s. Removing an absent subscriber is a no-op.
func (r *Registry) Unregister(s Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, s)
	r.notifyCount()
}

// Len returns the current number of subscribers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Broadcast delivers msg to a snapshot of the current subscribers and drops
// every subscriber whose send failed. It returns the number of successful
// deliveries and never fails.
func (r *Registry) Broadcast(msg []byte) int {
	snapshot := r.snapshot()
	if len(snapshot) == 0 {
		return 0
	}

	var dead []Subscriber
	for _, s := range snapshot {
		if err := s.Send(msg); err != nil {
			if r.log != nil {
				r.log.Infow("live_send_failed", "err", err)
			}
			dead = append(dead, s)
		}
	}

	if len(dead) > 0 {
		r.mu.Lock()
		for _, s := range dead {
			delete(r.subs, s)
		}
		r.notifyCount()
		r.mu.Unlock()

		if r.obs != nil {
			r.obs.DeliveryFailed(len(dead))
		}
	}
	return len(snapshot) - len(dead)
}

func (r *Registry) snapshot() []Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Subscriber, 0, len(r.subs))
	for s := range r.subs {
		out = append(out, s)
	}
	return out
}

// notifyCount publishes the current size. Caller holds mu so counts are
// published in the order membership changed; observers must not block.
func (r *Registry) notifyCount() {
	if r.obs != nil {
		r.obs.SubscribersChanged(len(r.subs))
	}
}
