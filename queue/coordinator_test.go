package queue

import (
	"context"
	"sync"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock lets tests advance time deterministically instead of racing a
// real timer; Coordinator.Enqueue never sleeps, so this only matters for the
// maxWaitMs / tickMs paths exercised via direct onTimerTick-style calls.
type manualClock struct {
	mu  sync.Mutex
	now int64
}

func (c *manualClock) Fn() TimeFunc {
	return func() int64 {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.now++
		return c.now
	}
}

func (c *manualClock) Set(v int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = v
}

// recordingPublisher collects every MatchPayload handed to it.
type recordingPublisher struct {
	mu       sync.Mutex
	payloads []MatchPayload
}

func (p *recordingPublisher) Publish(payload MatchPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

// recordingObserver collects every CloudEvent type handed to EmitEvent.
type recordingObserver struct {
	mu    sync.Mutex
	types []string
}

func (o *recordingObserver) EmitEvent(_ context.Context, event cloudevents.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.types = append(o.types, event.Type())
	return nil
}

func (o *recordingObserver) seen() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.types))
	copy(out, o.types)
	return out
}

func newTestCoordinator(t *testing.T, minQueue int) (*Coordinator, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	clock := &manualClock{}
	cfg := Config{
		Storage: NewMemStorage(nil),
		Policy:  NewDeferredCapped(),
		PolicyOpts: map[string]any{
			"minQueue":     minQueue,
			"maxWaitMs":    "infinity",
			"tickMs":       "infinity",
			"initialDelta": "unbounded",
			"relaxedDelta": "unbounded",
		},
		TimeFn:          clock.Fn(),
		MaxMatchHistory: 10,
		Publisher:       pub,
	}
	c := NewCoordinator(cfg)
	t.Cleanup(func() { c.Stop("test done") })
	return c, pub
}

func TestCoordinator_EnqueueDefersBelowMinQueue(t *testing.T) {
	c, _ := newTestCoordinator(t, 10)

	out := c.Enqueue(map[string]any{"userId": "alice", "rank": 5})
	assert.Equal(t, OutcomeQueued, out.Kind)
}

func TestCoordinator_EnqueueMatchesAtMinQueue(t *testing.T) {
	c, pub := newTestCoordinator(t, 2)

	out := c.Enqueue(map[string]any{"userId": "alice", "rank": 5})
	require.Equal(t, OutcomeQueued, out.Kind)

	out = c.Enqueue(map[string]any{"userId": "bob", "rank": 5})
	require.Equal(t, OutcomeMatched, out.Kind)
	require.NotNil(t, out.Match)
	assert.Equal(t, "bob", out.Match.Entry.UserID)
	assert.Equal(t, "alice", out.Match.Candidate.UserID)
	assert.Equal(t, 1, pub.count())
}

func TestCoordinator_DuplicateUserRejected(t *testing.T) {
	c, _ := newTestCoordinator(t, 10)

	out := c.Enqueue(map[string]any{"userId": "alice", "rank": 5})
	require.Equal(t, OutcomeQueued, out.Kind)

	out = c.Enqueue(map[string]any{"userId": "alice", "rank": 7})
	require.Equal(t, OutcomeError, out.Kind)
	assert.ErrorIs(t, out.Err, ErrAlreadyQueued)
}

func TestCoordinator_InvalidParamsRejected(t *testing.T) {
	c, _ := newTestCoordinator(t, 10)

	out := c.Enqueue(map[string]any{"userId": "alice"})
	require.Equal(t, OutcomeError, out.Kind)
	assert.ErrorIs(t, out.Err, ErrInvalidParams)
}

func TestCoordinator_RecentMatchesOldestOfWindowFirst(t *testing.T) {
	c, _ := newTestCoordinator(t, 2)

	require.Equal(t, OutcomeQueued, c.Enqueue(map[string]any{"userId": "a1", "rank": 1}).Kind)
	require.Equal(t, OutcomeMatched, c.Enqueue(map[string]any{"userId": "a2", "rank": 1}).Kind)

	require.Equal(t, OutcomeQueued, c.Enqueue(map[string]any{"userId": "b1", "rank": 1}).Kind)
	require.Equal(t, OutcomeMatched, c.Enqueue(map[string]any{"userId": "b2", "rank": 1}).Kind)

	recent := c.RecentMatches(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "a2", recent[0].Entry.UserID, "oldest of the requested window comes first")
	assert.Equal(t, "b2", recent[1].Entry.UserID)
}

func TestCoordinator_StoppedCoordinatorRejectsEnqueue(t *testing.T) {
	c, _ := newTestCoordinator(t, 10)
	c.Stop("shutdown")

	out := c.Enqueue(map[string]any{"userId": "alice", "rank": 1})
	assert.Equal(t, OutcomeError, out.Kind)
}

func TestCoordinator_TimerDrivenRelaxedRetry(t *testing.T) {
	pub := &recordingPublisher{}
	clock := &manualClock{}
	clock.Set(0)

	cfg := Config{
		Storage: NewMemStorage(nil),
		Policy:  NewDeferredCapped(),
		PolicyOpts: map[string]any{
			"minQueue":     10,
			"maxWaitMs":    5,
			"tickMs":       "infinity",
			"initialDelta": 0,
			"relaxedDelta": "unbounded",
		},
		TimeFn:          clock.Fn(),
		MaxMatchHistory: 10,
		Publisher:       pub,
	}
	c := NewCoordinator(cfg)
	defer c.Stop("test done")

	out := c.Enqueue(map[string]any{"userId": "far-low", "rank": 1})
	require.Equal(t, OutcomeQueued, out.Kind)
	out = c.Enqueue(map[string]any{"userId": "far-high", "rank": 100})
	require.Equal(t, OutcomeQueued, out.Kind)

	clock.Set(100)
	c.onTimerTick()

	recent := c.RecentMatches(1)
	require.Len(t, recent, 1, "the relaxed retry must use relaxedDelta=unbounded and find the cross-rank match")
	assert.Equal(t, 1, pub.count())
}

func TestCoordinator_EmitsTelemetryEventsWhenObserverWired(t *testing.T) {
	obs := &recordingObserver{}
	clock := &manualClock{}
	cfg := Config{
		Storage: NewMemStorage(nil),
		Policy:  NewDeferredCapped(),
		PolicyOpts: map[string]any{
			"minQueue":     2,
			"maxWaitMs":    "infinity",
			"tickMs":       "infinity",
			"initialDelta": "unbounded",
			"relaxedDelta": "unbounded",
		},
		TimeFn:          clock.Fn(),
		MaxMatchHistory: 10,
		Publisher:       &recordingPublisher{},
		Observer:        obs,
	}
	c := NewCoordinator(cfg)
	defer c.Stop("test done")

	require.Equal(t, OutcomeQueued, c.Enqueue(map[string]any{"userId": "alice", "rank": 5}).Kind)
	require.Equal(t, OutcomeMatched, c.Enqueue(map[string]any{"userId": "bob", "rank": 5}).Kind)

	assert.Equal(t, []string{EventTypeQueued, EventTypeMatched}, obs.seen())
}

func TestCoordinator_NoObserverWiredNeverPanics(t *testing.T) {
	c, _ := newTestCoordinator(t, 10)
	assert.NotPanics(t, func() {
		c.Enqueue(map[string]any{"userId": "alice", "rank": 1})
	})
}
