package registry

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/metrics"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/models"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/protocol"
)

// member is one joined participant plus the outbox its notifications go to.
type member struct {
	info   models.Participant
	cursor *models.Cursor
	outbox Outbox
}

// room holds the shared document and the roster for one room id.
//
// All fields behind mu. Lock order: a goroutine holding room.mu may take
// Registry.mu (room teardown does), never the reverse.
type room struct {
	id     string
	logger zerolog.Logger

	mu           sync.Mutex
	closed       bool
	document     string
	order        []string // join order, preserved for stable roster output
	participants map[string]*member
}

func newRoom(id, document string, logger zerolog.Logger) *room {
	return &room{
		id:           id,
		logger:       logger.With().Str("room", id).Logger(),
		document:     document,
		participants: make(map[string]*member),
	}
}

// rosterLocked returns the participant list in join order.
func (rm *room) rosterLocked() []models.Participant {
	roster := make([]models.Participant, 0, len(rm.order))
	for _, id := range rm.order {
		roster = append(roster, rm.participants[id].info)
	}
	return roster
}

// deliverLocked sends one envelope to a single participant.
func (rm *room) deliverLocked(to string, msg protocol.Outbound) {
	data, err := protocol.EncodeOutbound(msg)
	if err != nil {
		return
	}
	m, ok := rm.participants[to]
	if !ok {
		return
	}
	if !m.outbox.TrySend(data) {
		metrics.DeliveryDrops.Inc()
		rm.logger.Warn().Str("participant", to).Msg("dropped delivery, outbox not accepting")
	}
}

// broadcastLocked fans one envelope out to every participant except the
// originator. A recipient that cannot accept is skipped; it never blocks
// delivery to the rest and never rolls back the mutation that triggered
// the broadcast.
func (rm *room) broadcastLocked(exclude string, msg protocol.Outbound) {
	data, err := protocol.EncodeOutbound(msg)
	if err != nil {
		return
	}
	for _, id := range rm.order {
		if id == exclude {
			continue
		}
		if !rm.participants[id].outbox.TrySend(data) {
			metrics.DeliveryDrops.Inc()
			rm.logger.Warn().Str("participant", id).Msg("dropped delivery, outbox not accepting")
		}
	}
	metrics.BroadcastsSent.WithLabelValues(string(msg.OutboundKind())).Inc()
}

// WelcomeDocument is the initial content of a freshly created room.
func WelcomeDocument(roomID string) string {
	return fmt.Sprintf("// Welcome to room %s.\n// Code you write here is shared live with everyone in the room.\n", roomID)
}
