// Package ws is the connection layer of the sync server. It owns every
// live session, decodes inbound envelopes, dispatches them to the room
// registry and carries registry broadcasts back onto the wire. Protocol
// errors are dropped and logged; the connection stays open. A transport
// close is handled exactly like an explicit leave.
package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/metrics"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/protocol"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/registry"
)

// Manager accepts websocket connections and runs their sessions.
type Manager struct {
	logger   zerolog.Logger
	registry *registry.Registry
	upgrader websocket.Upgrader
}

// NewManager creates a Manager bound to a registry. allowedOrigins lists
// the Origin headers accepted by the upgrader; empty or "*" allows all,
// which is the development default.
func NewManager(logger zerolog.Logger, reg *registry.Registry, allowedOrigins []string) *Manager {
	m := &Manager{
		logger:   logger,
		registry: reg,
	}
	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return m
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

// HandleWS upgrades the request and runs the session until the transport
// closes. Intended to be mounted on the router at /ws.
func (m *Manager) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	metrics.ConnectionsActive.Inc()
	s := newSession(m.logger.With().Str("remote_addr", r.RemoteAddr).Logger(), conn)
	go s.writePump()
	m.readLoop(s)
}

// readLoop consumes inbound frames until the connection dies, then runs
// the same cleanup an explicit leave would.
func (m *Manager) readLoop(s *session) {
	defer func() {
		if s.roomID != "" {
			m.registry.Leave(s.roomID, s.participantID)
		}
		s.close()
		metrics.ConnectionsActive.Dec()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Err(err).Msg("connection closed")
			}
			return
		}
		m.dispatch(s, data)
	}
}

// dispatch decodes one envelope and routes it to the registry. Malformed
// and unknown envelopes are dropped without touching any state; edits and
// cursor moves arriving before a join have no room to target and are
// ignored the same way.
func (m *Manager) dispatch(s *session, data []byte) {
	msg, err := protocol.DecodeInbound(data)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, protocol.ErrUnknownKind) {
			reason = "unknown_kind"
		}
		metrics.ProtocolErrors.WithLabelValues(reason).Inc()
		s.logger.Warn().Err(err).Msg("dropped inbound envelope")
		return
	}
	metrics.EnvelopesReceived.WithLabelValues(string(msg.InboundKind())).Inc()

	switch msg := msg.(type) {
	case protocol.Join:
		roomID, ok := normalizeRoomID(msg.RoomID)
		if !ok {
			metrics.ProtocolErrors.WithLabelValues("invalid_field").Inc()
			s.logger.Warn().Str("room", msg.RoomID).Msg("rejected join with invalid room id")
			return
		}
		if s.roomID == roomID {
			// Already there. A leave-and-rejoin would destroy a sole
			// participant's room and its document with it.
			return
		}
		if s.roomID != "" {
			// One room per session. Joining again moves the participant,
			// which starts with leaving the old room.
			m.registry.Leave(s.roomID, s.participantID)
			s.roomID, s.participantID = "", ""
		}
		id := m.registry.Join(roomID, sanitizeName(msg.UserName), sanitizeColor(msg.UserColor), s)
		s.roomID, s.participantID = roomID, id

	case protocol.CodeChange:
		if s.roomID == "" {
			return
		}
		m.registry.ApplyEdit(s.roomID, s.participantID, msg.Code)

	case protocol.CursorMove:
		if s.roomID == "" {
			return
		}
		m.registry.UpdateCursor(s.roomID, s.participantID, msg.Cursor)

	case protocol.Leave:
		if s.roomID == "" {
			return
		}
		m.registry.Leave(s.roomID, s.participantID)
		s.roomID, s.participantID = "", ""
	}
}
