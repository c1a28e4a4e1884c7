package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// writeWait is how long a single outbound write may take.
	writeWait = 10 * time.Second

	// pongWait is how long we wait for a pong before declaring the
	// connection dead; pings go out a little more often than that.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames. Documents ride inside a single
	// frame, so this is effectively the document size limit.
	maxMessageSize = 1 << 20

	// sendQueueSize is the per-connection outbound buffer. A participant
	// that falls further behind than this starts losing broadcasts.
	sendQueueSize = 64
)

// session is one connected participant: the websocket plus the join state
// the dispatcher tracks for it. participantID and roomID are owned by the
// session's read loop; the registry reaches the session only through
// TrySend.
type session struct {
	logger zerolog.Logger
	conn   *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	participantID string
	roomID        string
}

func newSession(logger zerolog.Logger, conn *websocket.Conn) *session {
	return &session{
		logger: logger,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// TrySend queues one frame for delivery without blocking. It reports false
// when the session is closed or its queue is full; the caller skips this
// recipient and moves on.
func (s *session) TrySend(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- data:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

// close tears the connection down once; safe to call from either pump.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with pings. One per session; the sole writer on the connection.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug().Err(err).Msg("write failed, closing session")
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
