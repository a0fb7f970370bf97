// Package queue implements the matching core of a real-time matchmaking
// queue service: a single-writer Coordinator that routes enqueue and timer
// events through a pluggable Storage and Policy, a deterministic Matcher,
// and a best-effort Publisher fan-out.
//
// Storage and Policy are narrow interfaces; NewCoordinator accepts any
// implementation, but MemStorage and DeferredCapped are the references used
// by cmd/matchqueued. Nothing in this package depends on a transport.
package queue
