package queue

import (
	"errors"
	"fmt"
)

// Input errors: the caller can retry with corrected input.
var (
	ErrInvalidUserID = errors.New("invalid_user_id")
	ErrInvalidRank   = errors.New("invalid_rank")
	ErrInvalidParams = errors.New("invalid_params")
)

// ErrDuplicateUser is returned by Storage.Insert when a live Entry already
// exists for the given userId. The Coordinator maps it to ErrAlreadyQueued.
var ErrDuplicateUser = errors.New("duplicate")

// ErrAlreadyQueued is the external-facing error for a duplicate enqueue.
var ErrAlreadyQueued = errors.New("already_enqueued")

// ErrNotFound is returned by Storage.Remove/Lookup for an unknown handle.
// It never reaches a caller of Coordinator.Enqueue; it is only observed
// internally on stale policy retries, where it is silently ignored.
var ErrNotFound = errors.New("not_found")

// ErrEmpty is returned by Storage.Head/PopHead when the queue is empty.
var ErrEmpty = errors.New("empty")

// PolicyRejected wraps a policy-supplied rejection reason (including
// "cancelled", used when a Policy cancels a just-inserted Entry).
type PolicyRejected struct {
	Reason string
}

func (e *PolicyRejected) Error() string {
	return fmt.Sprintf("policy rejected: %s", e.Reason)
}

// NewPolicyRejected builds a PolicyRejected error for the given reason.
func NewPolicyRejected(reason string) error {
	return &PolicyRejected{Reason: reason}
}

// QueueError wraps an unexpected Storage failure.
type QueueError struct {
	Reason string
}

func (e *QueueError) Error() string {
	return fmt.Sprintf("queue error: %s", e.Reason)
}

// NewQueueError builds a QueueError for the given reason.
func NewQueueError(reason string) error {
	return &QueueError{Reason: reason}
}

// ErrorString formats an error the way the GraphQL-facing transport (§6)
// expects: atomic errors render as their sentinel name, PolicyRejected and
// QueueError render with their wrapped reason.
func ErrorString(err error) string {
	if err == nil {
		return ""
	}
	var pr *PolicyRejected
	if errors.As(err, &pr) {
		return pr.Error()
	}
	var qe *QueueError
	if errors.As(err, &qe) {
		return qe.Error()
	}
	return err.Error()
}
