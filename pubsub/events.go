package pubsub

import "github.com/GoCodeAlone/matchqueue/queue"

// MatchEvent is what a subscriber receives on a topic: the matched pair and
// which side of the pair the subscribing user occupies.
type MatchEvent struct {
	You      queue.MatchedUser
	Opponent queue.MatchedUser
}

// eventFor builds the two MatchEvents a completed match publishes, one per
// matched user's perspective.
func eventFor(payload queue.MatchPayload) [2]MatchEvent {
	a, b := payload.Users[0], payload.Users[1]
	return [2]MatchEvent{
		{You: a, Opponent: b},
		{You: b, Opponent: a},
	}
}
