package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"threedays/internal/metrics"
)

// outbound is one fanned-out message. userID 0 addresses every session.
type outbound struct {
	userID int
	data   []byte
}

// Hub maintains the active websocket sessions grouped per user and fans
// task mutation events out to them. Delivery is best-effort, at most once
// per connected session; a session whose buffer is full is skipped, and
// offline clients reconcile with a full refetch on reconnect.
//
// The hub is constructed in main, run under the process context, and
// injected into the services that emit events.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*session]bool
	users    map[int]map[*session]bool

	broadcast  chan outbound
	register   chan *session
	unregister chan *session

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		sessions:   make(map[*session]bool),
		users:      make(map[int]map[*session]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *session),
		unregister: make(chan *session),
		logger:     logger,
	}
}

// Run drives the hub until ctx is cancelled, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s] = true
			if h.users[s.userID] == nil {
				h.users[s.userID] = make(map[*session]bool)
			}
			h.users[s.userID][s] = true
			count := len(h.sessions)
			h.mu.Unlock()
			metrics.RealtimeSessions.Set(float64(count))
			h.logger.Info("Realtime session registered",
				zap.String("session_id", s.id),
				zap.Int("user_id", s.userID),
				zap.Int("sessions", count),
			)

		case s := <-h.unregister:
			h.mu.Lock()
			h.drop(s)
			count := len(h.sessions)
			h.mu.Unlock()
			metrics.RealtimeSessions.Set(float64(count))
			h.logger.Info("Realtime session unregistered",
				zap.String("session_id", s.id),
				zap.Int("user_id", s.userID),
			)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-ctx.Done():
			h.mu.Lock()
			for s := range h.sessions {
				h.drop(s)
			}
			h.mu.Unlock()
			metrics.RealtimeSessions.Set(0)
			h.logger.Info("Realtime hub stopped")
			return
		}
	}
}

// drop removes a session and closes its send channel. Callers hold h.mu.
func (h *Hub) drop(s *session) {
	if _, ok := h.sessions[s]; !ok {
		return
	}
	delete(h.sessions, s)
	if group, ok := h.users[s.userID]; ok {
		delete(group, s)
		if len(group) == 0 {
			delete(h.users, s.userID)
		}
	}
	close(s.send)
}

func (h *Hub) deliver(msg outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := h.sessions
	if msg.userID != 0 {
		targets = h.users[msg.userID]
	}
	for s := range targets {
		select {
		case s.send <- msg.data:
		default:
			// Session buffer full; skip rather than block the hub.
			h.logger.Warn("Session send buffer full, dropping event",
				zap.String("session_id", s.id),
				zap.Int("user_id", s.userID),
			)
		}
	}
}

// NotifyUser pushes an event to every active session of one user.
func (h *Hub) NotifyUser(userID int, ev Event) {
	h.push(userID, ev)
}

// Broadcast pushes an event to every connected session.
func (h *Hub) Broadcast(ev Event) {
	h.push(0, ev)
}

func (h *Hub) push(userID int, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.Error(err), zap.String("type", ev.Type))
		return
	}
	select {
	case h.broadcast <- outbound{userID: userID, data: data}:
	default:
		h.logger.Warn("Hub broadcast queue full, dropping event", zap.String("type", ev.Type))
	}
}

// SessionCount reports connected sessions, for the metrics gauge.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
