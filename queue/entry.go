package queue

import "github.com/google/uuid"

// Handle is an opaque identity token assigned by Storage at insertion time.
// Handles are unique for the lifetime of the process and are never reused.
type Handle uuid.UUID

// NilHandle is the zero Handle; no live Entry ever has this value.
var NilHandle = Handle(uuid.Nil)

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

func newHandle() Handle {
	return Handle(uuid.New())
}

// Entry is a queued matchmaking request. Entries are immutable after
// insertion; Storage owns their lifecycle.
type Entry struct {
	Handle     Handle
	UserID     string
	Rank       int
	InsertedAt int64 // monotonic milliseconds, captured by the Coordinator
	Meta       map[string]any
}

// lessArrival reports whether e arrived strictly before other under the
// total arrival order: InsertedAt first, UserID breaks ties.
func lessArrival(e, other Entry) bool {
	if e.InsertedAt != other.InsertedAt {
		return e.InsertedAt < other.InsertedAt
	}
	return e.UserID < other.UserID
}
