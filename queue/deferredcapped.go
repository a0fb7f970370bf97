package queue

import (
	"errors"

	"github.com/golobby/cast"
)

var errNotDeferredCappedState = errors.New("queue: state is not a DeferredCapped state")

// DeferredCappedOptions configures the DeferredCapped reference policy.
// parseDeferredCappedOptions turns a delta option of "unbounded" (or any
// value that is not an integer) into DeltaCap's explicit Unbounded flag and
// an integer into a bounded Limit.
type DeferredCappedOptions struct {
	MinQueue      int
	MaxWaitMillis int64 // <0 means infinity
	TickMillis    int64 // <=0 disables the timer; the parser maps "infinity" to 0 and a non-positive tickMs to 1000
	InitialDelta  DeltaCap
	RelaxedDelta  DeltaCap
}

// DefaultDeferredCappedOptions returns this policy's documented defaults.
func DefaultDeferredCappedOptions() DeferredCappedOptions {
	return DeferredCappedOptions{
		MinQueue:      20,
		MaxWaitMillis: 60000,
		TickMillis:    1000,
		InitialDelta:  DeltaCap{Unbounded: true},
		RelaxedDelta:  DeltaCap{Unbounded: true},
	}
}

type waitingInfo struct {
	userID     string
	handle     Handle
	insertedAt int64
}

type deferredCappedState struct {
	opts    DeferredCappedOptions
	waiting map[Handle]waitingInfo
}

// DeferredCapped is the reference Policy implementation.
type DeferredCapped struct{}

// NewDeferredCapped returns a DeferredCapped policy; its state is entirely
// carried in the opaque `state any` threaded through Policy's hooks.
func NewDeferredCapped() *DeferredCapped { return &DeferredCapped{} }

func (DeferredCapped) Init(opts map[string]any) (any, Timeout) {
	o := parseDeferredCappedOptions(opts)
	st := &deferredCappedState{
		opts:    o,
		waiting: make(map[Handle]waitingInfo),
	}
	if o.TickMillis <= 0 {
		return st, InfiniteTimeout()
	}
	return st, AfterMillis(o.TickMillis)
}

func (DeferredCapped) BeforeEnqueue(_ Entry, _ ManagerContext, state any) (any, string, bool) {
	return state, "", false
}

func (DeferredCapped) MatchmakingMode(entry Entry, ctx ManagerContext, state any) (ModeDecision, any) {
	st := state.(*deferredCappedState)

	if ctx.QueueSize >= st.opts.MinQueue {
		return ModeDecision{Kind: ModeAttempt, AttemptCtx: AttemptContext{"relaxed": false}}, st
	}

	if st.opts.MaxWaitMillis >= 0 && ctx.Now-entry.InsertedAt >= st.opts.MaxWaitMillis {
		return ModeDecision{Kind: ModeAttempt, AttemptCtx: AttemptContext{"relaxed": true}}, st
	}

	st.waiting[entry.Handle] = waitingInfo{
		userID:     entry.UserID,
		handle:     entry.Handle,
		insertedAt: entry.InsertedAt,
	}
	return ModeDecision{Kind: ModeDefer}, st
}

func (DeferredCapped) MaxDelta(_ Entry, _ ManagerContext, attemptCtx AttemptContext, state any) (DeltaCap, any) {
	st := state.(*deferredCappedState)

	if st.opts.InitialDelta.Unbounded {
		return DeltaCap{Unbounded: true}, st
	}

	relaxed, _ := attemptCtx["relaxed"].(bool)
	if relaxed {
		if st.opts.RelaxedDelta.Unbounded {
			return DeltaCap{Unbounded: true}, st
		}
		return st.opts.RelaxedDelta, st
	}
	return st.opts.InitialDelta, st
}

func (DeferredCapped) AfterMatch(match Match, _ ManagerContext, state any) any {
	st := state.(*deferredCappedState)
	delete(st.waiting, match.Entry.Handle)
	delete(st.waiting, match.Candidate.Handle)
	return st
}

func (DeferredCapped) HandleTimeout(ctx ManagerContext, state any) (TimeoutResult, any) {
	st := state.(*deferredCappedState)

	var instructions []RetryInstruction
	if st.opts.MaxWaitMillis >= 0 {
		for handle, w := range st.waiting {
			if ctx.Now-w.insertedAt >= st.opts.MaxWaitMillis {
				// Every due handle is retried as a relaxed attempt: it has
				// already waited past maxWaitMs, which is exactly the
				// condition matchmakingMode uses to authorize a relaxed
				// attempt on its own. MaxDelta then picks relaxedDelta (or
				// unbounded, if relaxedDelta is itself unbounded).
				instructions = append(instructions, RetryInstruction{
					Handle: handle,
					Retry: AttemptContext{
						"relaxed": true,
						"waitMs":  ctx.Now - w.insertedAt,
					},
				})
			}
		}
	}

	next := InfiniteTimeout()
	if st.opts.TickMillis > 0 {
		next = AfterMillis(st.opts.TickMillis)
	}

	return TimeoutResult{Instructions: instructions, NextTimeout: next}, st
}

func (DeferredCapped) Terminate(_ string, _ any) {}

// Reconfigure implements queue.Reconfigurable: it replaces the tunable
// knobs in place without disturbing the waiting map, so in-flight deferred
// entries are not lost on a config reload.
func (DeferredCapped) Reconfigure(state any, opts map[string]any) (any, error) {
	st, ok := state.(*deferredCappedState)
	if !ok {
		return state, errNotDeferredCappedState
	}
	st.opts = parseDeferredCappedOptions(opts)
	return st, nil
}

func parseDeferredCappedOptions(opts map[string]any) DeferredCappedOptions {
	o := DefaultDeferredCappedOptions()
	if opts == nil {
		return o
	}

	if v, ok := opts["minQueue"]; ok {
		if n, err := cast.ToIntE(v); err == nil {
			o.MinQueue = n
		}
	}
	if v, ok := opts["maxWaitMs"]; ok {
		o.MaxWaitMillis = parseMillisOrInfinite(v)
	}
	if v, ok := opts["tickMs"]; ok {
		if n, err := cast.ToInt64E(v); err == nil {
			if n <= 0 {
				n = 1000
			}
			o.TickMillis = n
		} else {
			o.TickMillis = 0 // infinity/absent
		}
	}
	if v, ok := opts["initialDelta"]; ok {
		o.InitialDelta = parseDeltaCap(v)
	}
	if v, ok := opts["relaxedDelta"]; ok {
		o.RelaxedDelta = parseDeltaCap(v)
	}
	return o
}

func parseMillisOrInfinite(v any) int64 {
	if s, ok := v.(string); ok && s == "infinity" {
		return -1
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return -1
	}
	return n
}

func parseDeltaCap(v any) DeltaCap {
	if s, ok := v.(string); ok && s == "unbounded" {
		return DeltaCap{Unbounded: true}
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return DeltaCap{Unbounded: true}
	}
	return DeltaCap{Limit: n}
}
