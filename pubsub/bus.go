package pubsub

import (
	"sync"

	"github.com/GoCodeAlone/matchqueue/queue"
	"github.com/google/uuid"
)

// defaultSubscriberBuffer bounds how many undelivered events a slow
// subscriber may accumulate before new events are dropped for it. Matching
// is best-effort fan-out, not a durable queue: a subscriber that never
// drains is not allowed to apply backpressure to the matching hot path.
const defaultSubscriberBuffer = 16

type subscriber struct {
	id     string
	topic  string
	events chan MatchEvent
}

// Bus is an in-memory, mutex-protected publish/subscribe fan-out keyed by
// topic (queue.Topic(userId)). It implements queue.Publisher: the
// Coordinator calls Publish once per completed match and never blocks on a
// slow or absent subscriber.
type Bus struct {
	mu     sync.RWMutex
	topics map[string]map[string]*subscriber
	closed bool
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{topics: make(map[string]map[string]*subscriber)}
}

// Subscription is a live subscriber's handle: read Events, then call Close
// to release it.
type Subscription struct {
	bus    *Bus
	sub    *subscriber
	closed sync.Once
}

// Events returns the channel new MatchEvents for this subscriber arrive on.
func (s *Subscription) Events() <-chan MatchEvent { return s.sub.events }

// Close unsubscribes and releases the underlying channel. Safe to call more
// than once.
func (s *Subscription) Close() {
	s.closed.Do(func() {
		s.bus.unsubscribe(s.sub.topic, s.sub.id)
	})
}

// Subscribe registers a new subscriber on topic. Returns ErrBusClosed if the
// Bus has been closed.
func (b *Bus) Subscribe(topic string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	sub := &subscriber{
		id:     uuid.NewString(),
		topic:  topic,
		events: make(chan MatchEvent, defaultSubscriberBuffer),
	}
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[string]*subscriber)
		b.topics[topic] = subs
	}
	subs[sub.id] = sub

	return &Subscription{bus: b, sub: sub}, nil
}

func (b *Bus) unsubscribe(topic, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[topic]
	if !ok {
		return
	}
	if sub, ok := subs[id]; ok {
		close(sub.events)
		delete(subs, id)
	}
	if len(subs) == 0 {
		delete(b.topics, topic)
	}
}

// SubscriberCount reports how many live subscriptions exist on topic, for
// introspection and tests.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Publish implements queue.Publisher: it fans MatchEvent out to exactly the
// two matched users' topics. A subscriber whose buffer is full has the
// event dropped for it rather than blocking the caller.
func (b *Bus) Publish(payload queue.MatchPayload) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	events := eventFor(payload)
	for i, user := range payload.Users {
		topic := queue.Topic(user.UserID)
		for _, sub := range b.topics[topic] {
			select {
			case sub.events <- events[i]:
			default:
			}
		}
	}
	return nil
}

// Close shuts the Bus down: every live subscriber's channel is closed and
// further Subscribe/Publish calls fail with ErrBusClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.topics {
		for _, sub := range subs {
			close(sub.events)
		}
	}
	b.topics = make(map[string]map[string]*subscriber)
}
