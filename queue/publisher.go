package queue

import "fmt"

// MatchedUser is the transport-facing shape of one side of a Match.
type MatchedUser struct {
	UserID   string
	UserRank int
}

// MatchPayload is what the Coordinator hands to the Publisher for a
// completed Match: the two users in entry-first, candidate-second order.
type MatchPayload struct {
	Users [2]MatchedUser
}

// Topic returns the per-user subscription topic:
// "match_found:" + userId.
func Topic(userID string) string {
	return "match_found:" + userID
}

// Publisher fans a completed match out to exactly the two matched users'
// subscription topics. Publish must never block the Coordinator; an error
// it returns or a panic it raises is logged and discarded by the
// Coordinator, so delivery is best-effort and lossy.
type Publisher interface {
	Publish(payload MatchPayload) error
}

// publishMatch builds the MatchPayload for m and hands it to pub,
// discarding any error or panic after logging it (when logger is non-nil).
func publishMatch(pub Publisher, m Match, logger Logger) {
	if pub == nil {
		return
	}
	payload := MatchPayload{
		Users: [2]MatchedUser{
			{UserID: m.Entry.UserID, UserRank: m.Entry.Rank},
			{UserID: m.Candidate.UserID, UserRank: m.Candidate.Rank},
		},
	}

	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Warn("publisher panicked", "panic", fmt.Sprintf("%v", r))
		}
	}()

	if err := pub.Publish(payload); err != nil && logger != nil {
		logger.Warn("publisher returned an error, discarding", "error", err)
	}
}
