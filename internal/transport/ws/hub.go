package ws

import (
	"sync"

	"hashhive-server-go/internal/platform/logging"
)

// Hub tracks the active telemetry sessions for a transport instance.
type Hub struct {
	logger   *logging.Logger
	sessions sync.Map // map[string]*Session
}

// NewHub builds a fresh session hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger: logger,
	}
}

// Register adds a new session to the hub.
func (h *Hub) Register(session *Session) {
	if session == nil {
		return
	}
	h.sessions.Store(session.ID(), session)
}

// Unregister removes the session from the hub.
func (h *Hub) Unregister(id string) {
	if id == "" {
		return
	}
	h.sessions.Delete(id)
}

// Broadcast sends a JSON payload to every connected session. Sessions whose
// write fails are closed and dropped.
func (h *Hub) Broadcast(payload any) {
	h.sessions.Range(func(key, value any) bool {
		session, ok := value.(*Session)
		if !ok {
			return true
		}
		if err := session.SendJSON(payload); err != nil {
			h.logger.WarnTag("WebSocket", "broadcast to %s failed: %v", session.ID(), err)
			session.Close(err)
			h.sessions.Delete(key)
		}
		return true
	})
}

// CloseAll terminates all active sessions.
func (h *Hub) CloseAll(reason error) {
	if reason == nil {
		reason = ErrSessionShutdown
	}

	h.sessions.Range(func(key, value any) bool {
		if session, ok := value.(*Session); ok {
			session.Close(reason)
		}
		h.sessions.Delete(key)
		return true
	})
}

// Count exposes the number of active telemetry connections.
func (h *Hub) Count() int {
	count := 0
	h.sessions.Range(func(any, any) bool {
		count++
		return true
	})
	return count
}
