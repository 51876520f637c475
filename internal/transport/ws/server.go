// Package ws is the telemetry transport: devices push hash-rate samples over
// a websocket and dashboards receive periodic fleet snapshots on the same
// connection.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hashhive-server-go/internal/domain/fleet/aggregate"
	"hashhive-server-go/internal/domain/fleet/service"
	"hashhive-server-go/internal/platform/logging"
)

const defaultCloseTimeout = 5 * time.Second

// ServerConfig stores the settings required to expose the telemetry transport.
type ServerConfig struct {
	Addr             string
	Path             string
	SnapshotInterval time.Duration
}

// telemetryFrame is the wire format devices push.
type telemetryFrame struct {
	DeviceID    string   `json:"deviceId"`
	HashRate    float64  `json:"hashRate"`
	Temperature *float64 `json:"temperature,omitempty"`
	PowerWatts  *float64 `json:"powerWatts,omitempty"`
}

// snapshotFrame is the periodic broadcast to connected clients.
type snapshotFrame struct {
	Type    string              `json:"type"`
	Devices []*aggregate.Device `json:"devices"`
	SentAt  time.Time           `json:"sentAt"`
}

// Server coordinates the websocket upgrader, hub and lifecycle management.
type Server struct {
	cfg      ServerConfig
	hub      *Hub
	fleet    *service.FleetService
	logger   *logging.Logger
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewServer builds a telemetry transport server.
func NewServer(cfg ServerConfig, fleet *service.FleetService, logger *logging.Logger) *Server {
	if cfg.Path == "" {
		cfg.Path = "/ws/telemetry"
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = 10 * time.Second
	}

	return &Server{
		cfg:    cfg,
		hub:    NewHub(logger),
		fleet:  fleet,
		logger: logger,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			// The browser dashboard connects cross-origin in development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start boots the HTTP server, listens for websocket upgrades and runs the
// snapshot broadcaster until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.httpSrv != nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleUpgrade)

	s.httpSrv = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: mux,
	}

	broadcastCtx, stopBroadcast := context.WithCancel(ctx)
	go s.runSnapshots(broadcastCtx)

	go func() {
		<-ctx.Done()
		stopBroadcast()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultCloseTimeout)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		s.hub.CloseAll(ErrSessionShutdown)
	}()

	s.logger.InfoTag("WebSocket", "telemetry listening on %s%s", s.cfg.Addr, s.cfg.Path)

	err := s.httpSrv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Count exposes the number of active telemetry connections.
func (s *Server) Count() int {
	return s.hub.Count()
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WarnTag("WebSocket", "upgrade failed: %v", err)
		return
	}

	session := NewSession(uuid.NewString(), conn, s.logger)
	s.hub.Register(session)
	s.logger.DebugTag("WebSocket", "session %s connected from %s", session.ID(), r.RemoteAddr)

	go s.readLoop(r.Context(), session)
}

// readLoop ingests telemetry frames until the connection drops. Malformed
// frames are logged and skipped; ingestion failures never close the session.
func (s *Server) readLoop(ctx context.Context, session *Session) {
	defer func() {
		s.hub.Unregister(session.ID())
		session.Close(nil)
	}()

	for {
		var frame telemetryFrame
		if err := session.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.DebugTag("WebSocket", "session %s read: %v", session.ID(), err)
			}
			return
		}
		if frame.DeviceID == "" {
			s.logger.Debug("telemetry frame without device id dropped")
			continue
		}

		s.fleet.RecordTelemetry(ctx, frame.DeviceID, aggregate.TelemetrySample{
			HashRate:    frame.HashRate,
			Temperature: frame.Temperature,
			PowerWatts:  frame.PowerWatts,
		})
	}
}

func (s *Server) runSnapshots(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.hub.Count() == 0 {
				continue
			}
			devices, err := s.fleet.List(ctx, "")
			if err != nil {
				s.logger.WarnTag("WebSocket", "snapshot listing failed: %v", err)
				continue
			}
			s.hub.Broadcast(snapshotFrame{
				Type:    "fleet.snapshot",
				Devices: devices,
				SentAt:  time.Now().UTC(),
			})
		}
	}
}
