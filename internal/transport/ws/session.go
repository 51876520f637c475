package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"hashhive-server-go/internal/platform/logging"
)

const (
	writeTimeout  = 10 * time.Second
	pongTimeout   = 90 * time.Second
	maxFrameBytes = 4 << 10
)

// Session encapsulates one telemetry websocket connection. Reads happen on
// the session's own loop; writes are serialized through a mutex because the
// snapshot broadcaster and control frames share the connection.
type Session struct {
	id     string
	conn   *websocket.Conn
	logger *logging.Logger

	writeMu sync.Mutex
	closed  atomic.Bool
}

func NewSession(id string, conn *websocket.Conn, logger *logging.Logger) *Session {
	conn.SetReadLimit(maxFrameBytes)
	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	return &Session{
		id:     id,
		conn:   conn,
		logger: logger,
	}
}

// ID exposes the session identifier.
func (s *Session) ID() string {
	return s.id
}

// ReadJSON blocks for the next frame and decodes it into v.
func (s *Session) ReadJSON(v any) error {
	return s.conn.ReadJSON(v)
}

// SendJSON writes a JSON frame under the write deadline.
func (s *Session) SendJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

// Close terminates the connection once; repeated calls are no-ops.
func (s *Session) Close(reason error) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	s.writeMu.Lock()
	s.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	if err := s.conn.Close(); err != nil && s.logger != nil {
		s.logger.Debug("session %s connection close: %v", s.id, err)
	}
}
