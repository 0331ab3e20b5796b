package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"

	v1 "opsboard/shared/contracts/changefeed/v1"
)

// Hub is the single broadcast domain of the change feed. Every connected
// session sees every event except its own publications.
type Hub struct {
	log        *slog.Logger
	feedEvents *prometheus.CounterVec

	mu      sync.RWMutex
	members map[string]*Client
}

// NewHub constructs a Hub. feedEvents may be nil when metrics are not collected.
func NewHub(log *slog.Logger, feedEvents *prometheus.CounterVec) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:        log,
		feedEvents: feedEvents,
		members:    make(map[string]*Client),
	}
}

// Join adds a client to the feed.
func (h *Hub) Join(client *Client) {
	if h == nil || client == nil || client.SessionID == "" {
		return
	}

	h.mu.Lock()
	h.members[client.SessionID] = client
	h.mu.Unlock()

	h.log.Info("feed.member.join", "session_id", client.SessionID)
}

// Leave removes a client and signals its shutdown.
func (h *Hub) Leave(sessionID string) {
	if h == nil || sessionID == "" {
		return
	}

	var cl *Client

	h.mu.Lock()
	cl = h.members[sessionID]
	delete(h.members, sessionID)
	h.mu.Unlock()

	// Signal client shutdown after removing from membership.
	// This ordering avoids race windows where a broadcaster still holds a pointer
	// while the client goroutines are being torn down.
	if cl != nil {
		cl.Close()
	}

	h.log.Info("feed.member.leave", "session_id", sessionID)
}

// Members reports the number of connected sessions.
func (h *Hub) Members() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// Broadcast fanouts an envelope to all members.
// Non-blocking: if a member queue is full or the client is shutting down, it is dropped.
func (h *Hub) Broadcast(env v1.Envelope) {
	h.BroadcastExcept("", env)
}

// BroadcastExcept fanouts an envelope to every member except the named
// session. Used to echo client publications to all other peers.
func (h *Hub) BroadcastExcept(exceptSessionID string, env v1.Envelope) {
	if h == nil {
		return
	}

	h.countEvent(env.Type)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, m := range h.members {
		if m == nil || id == exceptSessionID {
			continue
		}

		select {
		case <-m.Done():
			// Skip clients that are shutting down.
			continue
		default:
		}

		select {
		case m.Send <- env:
		default:
			// Drop rather than block the whole feed.
		}
	}
}

// Publish builds a server-originated envelope for a mutation and broadcasts
// it to every connected session. Marshal failures are logged and dropped;
// a change feed must never fail the REST mutation that fed it.
func (h *Hub) Publish(eventType string, payload any) {
	if h == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("feed.publish.marshal", "type", eventType, "error", err)
		return
	}

	h.Broadcast(NewEnvelope(eventType, raw, time.Now().UTC()))
}

func (h *Hub) countEvent(eventType string) {
	if h.feedEvents != nil {
		h.feedEvents.WithLabelValues(eventType).Inc()
	}
}

// NewEnvelope wraps a payload in a versioned envelope with a fresh ULID id.
func NewEnvelope(typ string, payload json.RawMessage, ts time.Time) v1.Envelope {
	return v1.Envelope{
		V:       v1.Version,
		Type:    typ,
		ID:      ulid.Make().String(),
		TS:      ts,
		Payload: payload,
	}
}

// Feed is the publishing side of the hub, as seen by REST handlers.
type Feed interface {
	Publish(eventType string, payload any)
}

// NopFeed discards all publications. Used in tests and handlers wired
// without a websocket gateway.
type NopFeed struct{}

func (NopFeed) Publish(string, any) {}
