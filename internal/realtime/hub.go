// Package realtime fans newly created notification records out to live
// client sessions. Delivery is at-most-once and best-effort: the store is
// the source of truth and a disconnected client catches up on its next list
// fetch.
package realtime

import (
	"sync"

	"github.com/gatherly/notification-engine/internal/domain"
	"github.com/gatherly/notification-engine/internal/metrics"
	"github.com/gatherly/notification-engine/internal/shared/logger"
)

// subscriptionBuffer is the per-subscriber channel depth. A subscriber that
// falls further behind than this loses pushes rather than stalling Publish.
const subscriptionBuffer = 16

// Subscription is a live handle on one user's notification stream. C yields
// records until Close is called; Close is idempotent.
type Subscription struct {
	C chan *domain.Notification

	hub    *Hub
	userID string
	once   sync.Once
}

// Close detaches the subscription from the hub and closes C
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
		close(s.C)
	})
}

// Hub is the in-process fan-out registry
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
	log  *logger.Logger
}

// NewHub creates a new fan-out hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subs: make(map[string]map[*Subscription]struct{}),
		log:  log,
	}
}

// Subscribe registers a live session for the user's stream. The caller owns
// the returned handle and must Close it when the session ends.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		C:      make(chan *domain.Notification, subscriptionBuffer),
		hub:    h,
		userID: userID,
	}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	metrics.RealtimeSubscribers.Inc()
	return sub
}

// unsubscribe removes the handle from the registry
func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if set, ok := h.subs[sub.userID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.userID)
		}
	}
	h.mu.Unlock()

	metrics.RealtimeSubscribers.Dec()
}

// Publish pushes a record to every live session of its recipient without
// blocking: a full buffer drops the push and the record is picked up on the
// next list fetch.
func (h *Hub) Publish(n *domain.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[n.UserID] {
		select {
		case sub.C <- n:
		default:
			metrics.RealtimeDropped.Inc()
			h.log.Debug("dropped realtime push on full buffer", "user_id", n.UserID)
		}
	}
}

// Subscribers returns the number of live sessions for a user
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
