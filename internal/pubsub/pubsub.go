// Package pubsub fans engine events out to interested readers: the SSE
// endpoint locally, and optionally a NATS JetStream upstream so several
// instances stay in sync.
package pubsub

import (
	"sync"

	"github.com/jwoo-kim/team-draft/internal/logger"
)

// Event is a single state-change notification published after every
// engine mutation.
type Event struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Upstream is an external broker the local PubSub can bridge to.
type Upstream interface {
	Publish(Event)
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// PubSub is an in-process publish-subscribe fan-out. With an upstream
// configured, publishes go to the upstream and come back to local
// subscribers through the bridge subscription.
type PubSub struct {
	mu          sync.RWMutex
	subscribers []chan Event
	upstream    Upstream
}

// New creates a local-only PubSub.
func New() *PubSub {
	return &PubSub{subscribers: []chan Event{}}
}

// NewWithUpstream creates a PubSub bridged to an upstream broker. Events
// received from the upstream are forwarded to local subscribers.
func NewWithUpstream(upstream Upstream) *PubSub {
	ps := &PubSub{
		subscribers: []chan Event{},
		upstream:    upstream,
	}

	go func() {
		for event := range upstream.Subscribe() {
			ps.publishLocal(event)
		}
		logger.Debug("PubSub: upstream channel closed")
	}()

	return ps
}

// Subscribe registers a new subscriber and returns its event channel.
func (ps *PubSub) Subscribe() chan Event {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch := make(chan Event, 10)
	ps.subscribers = append(ps.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (ps *PubSub) Unsubscribe(ch chan Event) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for i, sub := range ps.subscribers {
		if sub == ch {
			close(ch)
			ps.subscribers = append(ps.subscribers[:i], ps.subscribers[i+1:]...)
			break
		}
	}
}

// Publish delivers an event to every subscriber. Delivery never blocks;
// a subscriber with a full channel misses the event.
func (ps *PubSub) Publish(event Event) {
	if ps.upstream != nil {
		// The upstream broadcasts back to us via the bridge subscription.
		ps.upstream.Publish(event)
		return
	}
	ps.publishLocal(event)
}

func (ps *PubSub) publishLocal(event Event) {
	ps.mu.RLock()
	subs := make([]chan Event, len(ps.subscribers))
	copy(subs, ps.subscribers)
	ps.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			// Subscriber is slow or full, skip.
		}
	}
}
