// Package feed is an in-process change feed: the store publishes a change
// event after every committed mutation, and consumers re-fetch and re-derive
// rather than patching state incrementally.
package feed

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// subscriberBuffer bounds each subscription's channel. Publish never blocks;
// a saturated subscriber misses the event and picks the change up on its next
// refresh.
const subscriberBuffer = 16

// TaskTopic is the change topic for one task's row.
func TaskTopic(taskID uint) string {
	return fmt.Sprintf("task.%d", taskID)
}

// SessionsTopic is the change topic for one task's work sessions.
func SessionsTopic(taskID uint) string {
	return fmt.Sprintf("sessions.%d", taskID)
}

// Event describes a committed change. Kind names the mutation; consumers
// treat every kind the same way (invalidate and refresh).
type Event struct {
	Topic string
	Kind  string
	At    time.Time
}

// Bus fans events out to topic subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[string]*Subscription
}

// Subscription is one subscriber's handle on a topic.
type Subscription struct {
	id    string
	topic string
	bus   *Bus
	ch    chan Event
	once  sync.Once
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[string]*Subscription)}
}

// Subscribe registers a new subscriber for a topic.
func (b *Bus) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		id:    uuid.NewString(),
		topic: topic,
		bus:   b,
		ch:    make(chan Event, subscriberBuffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[string]*Subscription)
	}
	b.subs[topic][sub.id] = sub
	return sub
}

// Publish delivers the event to every current subscriber of its topic.
// Delivery is best-effort and never blocks the publisher.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs[ev.Topic] {
		select {
		case sub.ch <- ev:
		default:
			// Subscriber saturated; the change coalesces into its
			// next refresh.
		}
	}
}

// Events returns the subscription's delivery channel. The channel is closed
// by Cancel.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Cancel detaches the subscription and closes its channel. Safe to call more
// than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		if subs, ok := s.bus.subs[s.topic]; ok {
			delete(subs, s.id)
			if len(subs) == 0 {
				delete(s.bus.subs, s.topic)
			}
		}
		s.bus.mu.Unlock()
		close(s.ch)
	})
}
