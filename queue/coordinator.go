package queue

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// OutcomeKind tags what Coordinator.Enqueue returned.
type OutcomeKind int

const (
	OutcomeQueued OutcomeKind = iota
	OutcomeMatched
	OutcomeError
)

// EnqueueOutcome is Coordinator.Enqueue's result.
type EnqueueOutcome struct {
	Kind  OutcomeKind
	Match *Match // only set when Kind == OutcomeMatched
	Err   error  // only set when Kind == OutcomeError
}

// Coordinator is the single writer: it owns Storage state,
// Policy state, the match history, the one outstanding timer, the clock,
// and the Publisher reference. Every exported method acquires mu for its
// whole duration, realizing a mutex-protected Coordinator
// value" option — no two steps ever overlap, and there is no suspension
// point inside a step.
type Coordinator struct {
	mu sync.Mutex

	storage Storage
	policy  Policy
	timeFn  TimeFunc

	policyState any
	history     *matchHistory

	publisher Publisher
	observer  Observer
	logger    Logger

	timer   *time.Timer
	stopped bool
}

// NewCoordinator constructs a Coordinator from cfg and starts its timer.
// cfg.Storage, cfg.Policy, cfg.TimeFn, and cfg.Publisher must be non-nil.
func NewCoordinator(cfg Config) *Coordinator {
	state, initialTimeout := cfg.Policy.Init(cfg.PolicyOpts)

	c := &Coordinator{
		storage:   cfg.Storage,
		policy:    cfg.Policy,
		timeFn:    cfg.TimeFn,
		history:   newMatchHistory(cfg.MaxMatchHistory),
		publisher: cfg.Publisher,
		observer:  cfg.Observer,
		logger:    cfg.Logger,

		policyState: state,
	}
	c.scheduleTimer(initialTimeout)
	return c
}

// Enqueue validates, normalizes, and routes a single enqueue event through
// Policy and Storage, in that order.
func (c *Coordinator) Enqueue(raw map[string]any) EnqueueOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return EnqueueOutcome{Kind: OutcomeError, Err: NewQueueError("coordinator stopped")}
	}

	userID, rank, err := normalize(raw)
	if err != nil {
		return EnqueueOutcome{Kind: OutcomeError, Err: err}
	}

	now := c.timeFn()
	entry := Entry{UserID: userID, Rank: rank, InsertedAt: now}

	mctx := c.managerContext()

	var rejectReason string
	var rejected bool
	c.policyState, rejectReason, rejected = c.policy.BeforeEnqueue(entry, mctx, c.policyState)
	if rejected {
		c.emitEvent(EventTypeRejected, map[string]any{"userId": userID, "reason": rejectReason, "stage": "before_enqueue"})
		return EnqueueOutcome{Kind: OutcomeError, Err: mapBeforeEnqueueReject(rejectReason)}
	}

	handle, err := c.storage.Insert(entry)
	if err != nil {
		if err == ErrDuplicateUser {
			return EnqueueOutcome{Kind: OutcomeError, Err: ErrAlreadyQueued}
		}
		return EnqueueOutcome{Kind: OutcomeError, Err: NewQueueError(err.Error())}
	}
	entry.Handle = handle

	// Re-read manager context: Size changed after the insert.
	mctx = c.managerContext()

	var decision ModeDecision
	decision, c.policyState = c.policy.MatchmakingMode(entry, mctx, c.policyState)

	switch decision.Kind {
	case ModeCancel:
		_, _ = c.storage.Remove(handle)
		c.emitEvent(EventTypeRejected, map[string]any{"userId": userID, "reason": "cancelled", "stage": "matchmaking_mode"})
		return EnqueueOutcome{Kind: OutcomeError, Err: NewPolicyRejected("cancelled")}

	case ModeDefer:
		c.emitEvent(EventTypeQueued, map[string]any{"userId": userID, "rank": rank, "handle": handle.String()})
		return EnqueueOutcome{Kind: OutcomeQueued}

	default: // ModeAttempt
		match, attempted := c.attempt(entry, mctx, decision.AttemptCtx)
		if !attempted {
			c.emitEvent(EventTypeQueued, map[string]any{"userId": userID, "rank": rank, "handle": handle.String()})
			return EnqueueOutcome{Kind: OutcomeQueued}
		}
		c.emitEvent(EventTypeMatched, map[string]any{
			"userId": match.Entry.UserID, "candidateId": match.Candidate.UserID, "delta": match.Delta,
		})
		c.publish(*match)
		return EnqueueOutcome{Kind: OutcomeMatched, Match: match}
	}
}

// attempt runs the Matcher for entry using the Policy-supplied attemptCtx,
// performs the two removals and the AfterMatch hook, and records the
// resulting Match. Returns (nil, false) if no candidate was found; entry
// remains live in Storage in that case.
func (c *Coordinator) attempt(entry Entry, mctx ManagerContext, attemptCtx AttemptContext) (*Match, bool) {
	var deltaCap DeltaCap
	deltaCap, c.policyState = c.policy.MaxDelta(entry, mctx, attemptCtx, c.policyState)

	snap := c.storage.Snapshot()
	result := runMatch(snap, entry, deltaCap)
	if !result.found {
		return nil, false
	}

	// Remove candidate first, then the entry itself.
	if _, err := c.storage.Remove(result.candidate.Handle); err != nil {
		return nil, false
	}
	if _, err := c.storage.Remove(entry.Handle); err != nil {
		return nil, false
	}

	match := Match{
		Entry:     entry,
		Candidate: result.candidate,
		Delta:     result.delta,
		MatchedAt: mctx.Now,
		Context:   attemptCtx,
	}

	c.policyState = c.policy.AfterMatch(match, mctx, c.policyState)
	c.history.add(match)

	return &match, true
}

// RecentMatches returns the first limit entries of the match history
// reversed.
func (c *Coordinator) RecentMatches(limit int) []Match {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.recent(limit)
}

// Stop terminates the Policy and cancels the outstanding timer. The
// Coordinator rejects further Enqueue calls after Stop.
func (c *Coordinator) Stop(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.policy.Terminate(reason, c.policyState)
}

// errNotReconfigurable is returned by Reconfigure when the active Policy
// does not implement Reconfigurable.
var errNotReconfigurable = errors.New("queue: policy does not support live reconfiguration")

// Reconfigure applies opts to the running Policy's opaque state, if it
// implements Reconfigurable. It is safe to call concurrently with Enqueue
// and timer ticks.
func (c *Coordinator) Reconfigure(opts map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	reconf, ok := c.policy.(Reconfigurable)
	if !ok {
		return errNotReconfigurable
	}

	newState, err := reconf.Reconfigure(c.policyState, opts)
	if err != nil {
		return fmt.Errorf("queue: reconfigure: %w", err)
	}
	c.policyState = newState
	return nil
}

// managerContext builds the {queueSize, now} context every Policy hook
// receives.
func (c *Coordinator) managerContext() ManagerContext {
	return ManagerContext{QueueSize: c.storage.Size(), Now: c.timeFn()}
}

// scheduleTimer arms the single outstanding timer. Rescheduling cancels
// any previously scheduled tick, so at most one timer is ever outstanding.
func (c *Coordinator) scheduleTimer(next Timeout) {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if next.Infinite || c.stopped {
		return
	}
	delay := time.Duration(next.Millis) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	c.timer = time.AfterFunc(delay, c.onTimerTick)
}

// onTimerTick handles the Coordinator's internal timer-tick event: it
// invokes Policy.HandleTimeout, reschedules the next tick, and posts a
// policyRetry event per returned instruction. Each of these sub-steps
// holds mu for the whole tick, so a tick never interleaves with an
// Enqueue or another tick.
func (c *Coordinator) onTimerTick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	mctx := c.managerContext()
	c.emitEvent(EventTypeTimerTick, map[string]any{"queueSize": mctx.QueueSize})

	var result TimeoutResult
	result, c.policyState = c.policy.HandleTimeout(mctx, c.policyState)

	c.scheduleTimer(result.NextTimeout)

	for _, instr := range result.Instructions {
		c.policyRetry(instr.Handle, instr.Retry)
	}
}

// policyRetry re-runs the Matcher against one specific handle using
// retryCtx as the attempt context, equivalent to an inline attempt. A
// handle that is no longer live (already matched, or pruned between
// scheduling and execution) is silently ignored. Must be called with mu
// already held.
func (c *Coordinator) policyRetry(handle Handle, retryCtx AttemptContext) {
	entry, err := c.storage.Lookup(handle)
	if err != nil {
		return // stale: already matched or pruned
	}

	c.emitEvent(EventTypePolicyRetry, map[string]any{"userId": entry.UserID, "handle": handle.String()})

	mctx := c.managerContext()
	match, attempted := c.attempt(entry, mctx, retryCtx)
	if !attempted {
		return
	}
	c.emitEvent(EventTypeMatched, map[string]any{
		"userId": match.Entry.UserID, "candidateId": match.Candidate.UserID, "delta": match.Delta,
	})
	c.publish(*match)
}

// publish hands a completed Match to the Publisher, swallowing any error
// or panic.
func (c *Coordinator) publish(m Match) {
	publishMatch(c.publisher, m, c.logger)
}

// mapBeforeEnqueueReject translates a BeforeEnqueue rejection reason into
// the external error taxonomy: "duplicate" maps to
// ErrAlreadyQueued, anything else is a PolicyRejected.
func mapBeforeEnqueueReject(reason string) error {
	if reason == "duplicate" {
		return ErrAlreadyQueued
	}
	return NewPolicyRejected(reason)
}
