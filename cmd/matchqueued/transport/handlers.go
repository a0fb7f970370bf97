// Package transport wires the matchmaking Coordinator to an HTTP API: a
// POST endpoint to enqueue, and a Server-Sent-Events stream per user for
// match notifications.
package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/GoCodeAlone/matchqueue/pubsub"
	"github.com/GoCodeAlone/matchqueue/queue"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Coordinator is the subset of *queue.Coordinator the HTTP layer calls.
type Coordinator interface {
	Enqueue(raw map[string]any) queue.EnqueueOutcome
	RecentMatches(limit int) []queue.Match
}

// Handlers holds the dependencies the route handlers close over.
type Handlers struct {
	Coordinator Coordinator
	Bus         *pubsub.Bus
	Logger      queue.Logger
}

// NewRouter builds the chi router exposing the matchmaking API.
func NewRouter(h *Handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Post("/queue", h.enqueue)
	r.Get("/queue/matches", h.recentMatches)
	r.Get("/queue/stream/{userId}", h.stream)

	return r
}

type enqueueRequest struct {
	UserID string `json:"userId"`
	Rank   int    `json:"rank"`
}

type enqueueResponse struct {
	Status string       `json:"status"`
	Match  *matchedPair `json:"match,omitempty"`
	Error  string       `json:"error,omitempty"`
}

type matchedPair struct {
	You      queue.MatchedUser `json:"you"`
	Opponent queue.MatchedUser `json:"opponent"`
	Delta    int               `json:"delta"`
}

func (h *Handlers) enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, enqueueResponse{Status: "error", Error: "invalid_params"})
		return
	}

	outcome := h.Coordinator.Enqueue(map[string]any{
		"userId": req.UserID,
		"rank":   req.Rank,
	})

	switch outcome.Kind {
	case queue.OutcomeQueued:
		writeJSON(w, http.StatusAccepted, enqueueResponse{Status: "queued"})
	case queue.OutcomeMatched:
		m := outcome.Match
		writeJSON(w, http.StatusOK, enqueueResponse{
			Status: "matched",
			Match: &matchedPair{
				You:      queue.MatchedUser{UserID: m.Entry.UserID, UserRank: m.Entry.Rank},
				Opponent: queue.MatchedUser{UserID: m.Candidate.UserID, UserRank: m.Candidate.Rank},
				Delta:    m.Delta,
			},
		})
	default:
		reason := queue.ErrorString(outcome.Err)
		if h.Logger != nil {
			h.Logger.Debug("enqueue rejected", "userId", req.UserID, "reason", reason)
		}
		writeJSON(w, http.StatusConflict, enqueueResponse{Status: "error", Error: reason})
	}
}

func (h *Handlers) recentMatches(w http.ResponseWriter, r *http.Request) {
	limit := 20
	matches := h.Coordinator.RecentMatches(limit)
	out := make([]matchedPair, 0, len(matches))
	for _, m := range matches {
		out = append(out, matchedPair{
			You:      queue.MatchedUser{UserID: m.Entry.UserID, UserRank: m.Entry.Rank},
			Opponent: queue.MatchedUser{UserID: m.Candidate.UserID, UserRank: m.Candidate.Rank},
			Delta:    m.Delta,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// stream subscribes the caller to their match-found topic and relays every
// event as an SSE message until the client disconnects.
func (h *Handlers) stream(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := h.Bus.Subscribe(queue.Topic(userID))
	if err != nil {
		http.Error(w, "subscription unavailable", http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: match_found\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
