package queue

// ManagerContext is the read-only context the Coordinator computes and
// hands to every Policy hook call.
type ManagerContext struct {
	QueueSize int
	Now       int64 // monotonic milliseconds
}

// AttemptContext is an opaque map a Policy produces when it authorizes a
// matching attempt (matchmakingMode) or a timer-driven retry
// (handleTimeout); it is handed back unchanged to MaxDelta and recorded on
// the resulting Match.
type AttemptContext map[string]any

// ModeKind is the tag of a MatchmakingMode decision.
type ModeKind int

const (
	ModeAttempt ModeKind = iota
	ModeDefer
	ModeCancel
)

// ModeDecision is Policy.MatchmakingMode's result.
type ModeDecision struct {
	Kind       ModeKind
	AttemptCtx AttemptContext // only meaningful when Kind == ModeAttempt
}

// DeltaCap is Policy.MaxDelta's result: either unbounded (the Matcher
// expands until it exhausts every rank present in the snapshot) or bounded
// to an explicit non-negative limit.
type DeltaCap struct {
	Unbounded bool
	Limit     int
}

// RetryInstruction asks the Coordinator to re-attempt matching for handle
// using retryCtx as the attempt context, equivalent to an inline attempt.
type RetryInstruction struct {
	Handle Handle
	Retry  AttemptContext
}

// TimeoutResult is Policy.HandleTimeout's result.
type TimeoutResult struct {
	Instructions []RetryInstruction
	NextTimeout  Timeout
}

// Timeout models an `infinity | ms` timer delay.
type Timeout struct {
	Infinite bool
	Millis   int64
}

// InfiniteTimeout disables the Coordinator's timer.
func InfiniteTimeout() Timeout { return Timeout{Infinite: true} }

// AfterMillis schedules the next tick ms from now.
func AfterMillis(ms int64) Timeout { return Timeout{Millis: ms} }

// Policy is the pluggable decision module. Implementations
// own opaque state; the Coordinator never reaches into it. All hooks must
// be pure with respect to everything but that opaque state — no I/O, no
// blocking, no reentry into the Coordinator.
type Policy interface {
	// Init returns the opening state and the first timer delay.
	Init(opts map[string]any) (state any, initialTimeout Timeout)

	// BeforeEnqueue may veto a just-validated Entry before it is inserted.
	// rejected == true means reject; a rejectReason of "duplicate" is mapped to
	// ErrAlreadyQueued externally, anything else to PolicyRejected.
	BeforeEnqueue(entry Entry, ctx ManagerContext, state any) (newState any, rejectReason string, rejected bool)

	// MatchmakingMode decides whether to attempt a match for entry now,
	// defer it, or cancel it outright.
	MatchmakingMode(entry Entry, ctx ManagerContext, state any) (ModeDecision, any)

	// MaxDelta caps the rank delta the Matcher may consider for this
	// attempt.
	MaxDelta(entry Entry, ctx ManagerContext, attemptCtx AttemptContext, state any) (DeltaCap, any)

	// AfterMatch runs after Storage has removed both Entries but before
	// the Publisher fires.
	AfterMatch(match Match, ctx ManagerContext, state any) any

	// HandleTimeout runs on every Coordinator timer tick.
	HandleTimeout(ctx ManagerContext, state any) (TimeoutResult, any)

	// Terminate runs once, at Coordinator shutdown.
	Terminate(reason string, state any)
}

// Reconfigurable is an additive, optional interface: a Policy that supports
// live reconfiguration (e.g. from internal/config.Watcher) implements it.
// Reconfigure receives the Policy's current opaque state and returns the
// updated state; it must leave that state consistent for every subsequent
// hook call. This does not change the five required hooks above.
type Reconfigurable interface {
	Reconfigure(state any, opts map[string]any) (any, error)
}
