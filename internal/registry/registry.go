// Package registry owns all room and participant state for the sync
// server. Every mutation of a room (join, edit, cursor move, leave) runs
// as an atomic unit under that room's lock, so operations on one room are
// serialized while different rooms proceed in parallel. Broadcasts are
// enqueued to participant outboxes while the lock is held, which keeps
// notification order identical to mutation order per room.
package registry

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/ids"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/metrics"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/models"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/protocol"
)

// Outbox is where the registry hands off envelopes destined for one
// participant's connection. TrySend must not block: it reports false when
// the recipient cannot accept, and the registry skips that recipient.
type Outbox interface {
	TrySend(data []byte) bool
}

// SeedFunc supplies the initial document for a room being created. It
// returns false when no seed is available, in which case the room starts
// with the welcome document. Called outside any registry lock.
type SeedFunc func(roomID string) (string, bool)

// ObserveFunc is notified of every committed document value, including the
// final value when a room is torn down. It is called with the owning room
// lock held and must not block; observers that do I/O enqueue and return.
type ObserveFunc func(roomID, code string)

// Registry is the sole owner of all rooms. It is created once and injected
// into the connection layer, never accessed as package-global state.
type Registry struct {
	logger  zerolog.Logger
	seed    SeedFunc
	observe ObserveFunc

	mu    sync.Mutex
	rooms map[string]*room
}

// Option configures a Registry.
type Option func(*Registry)

// WithSeed sets the initial-document source for newly created rooms.
func WithSeed(fn SeedFunc) Option {
	return func(r *Registry) { r.seed = fn }
}

// WithObserver sets the committed-document observer.
func WithObserver(fn ObserveFunc) Option {
	return func(r *Registry) { r.observe = fn }
}

// New creates an empty registry.
func New(logger zerolog.Logger, opts ...Option) *Registry {
	r := &Registry{
		logger: logger,
		rooms:  make(map[string]*room),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// getOrCreate returns the live room for id, creating it with its initial
// document on first use. A returned room may still lose a race with the
// last leave; callers must check closed under the room lock and retry.
func (r *Registry) getOrCreate(roomID string) *room {
	r.mu.Lock()
	if rm, ok := r.rooms[roomID]; ok {
		r.mu.Unlock()
		return rm
	}
	r.mu.Unlock()

	// Seed lookup may hit a store; keep it outside the lock. Two racing
	// creators both read the seed, only one inserts.
	document := WelcomeDocument(roomID)
	if r.seed != nil {
		if code, ok := r.seed(roomID); ok {
			document = code
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rm, ok := r.rooms[roomID]; ok {
		return rm
	}
	rm := newRoom(roomID, document, r.logger)
	r.rooms[roomID] = rm
	metrics.RoomsActive.Inc()
	r.logger.Debug().Str("room", roomID).Msg("room created")
	return rm
}

// lookup returns the room for id, or nil.
func (r *Registry) lookup(roomID string) *room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[roomID]
}

// Join adds a participant to a room, creating the room if needed. The new
// participant receives an init envelope with the current document, its
// assigned id and the full roster; everyone else in the room receives
// user-joined. Returns the allocated participant id. Join always succeeds.
func (r *Registry) Join(roomID, name, color string, outbox Outbox) string {
	id := ids.NewParticipantID()
	for {
		rm := r.getOrCreate(roomID)
		rm.mu.Lock()
		if rm.closed {
			// Lost the race with the last leave; the map entry is gone,
			// the next lookup creates a fresh room.
			rm.mu.Unlock()
			continue
		}
		rm.participants[id] = &member{
			info:   models.Participant{ID: id, Name: name, Color: color},
			outbox: outbox,
		}
		rm.order = append(rm.order, id)

		roster := rm.rosterLocked()
		rm.deliverLocked(id, protocol.Init{Code: rm.document, UserID: id, Users: roster})
		rm.broadcastLocked(id, protocol.UserJoined{Users: roster})
		rm.mu.Unlock()
		break
	}

	metrics.ParticipantsActive.Inc()
	r.logger.Info().Str("room", roomID).Str("participant", id).Str("name", name).Msg("participant joined")
	return id
}

// ApplyEdit overwrites the room document unconditionally: last write wins,
// no version check, no merge. Concurrent edits from two participants can
// silently discard one of them; that is the accepted document model, not a
// defect. Other participants receive code-update. A stale room or
// participant reference is a no-op.
func (r *Registry) ApplyEdit(roomID, participantID, code string) {
	rm := r.lookup(roomID)
	if rm == nil {
		return
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return
	}
	if _, ok := rm.participants[participantID]; !ok {
		return
	}

	rm.document = code
	rm.broadcastLocked(participantID, protocol.CodeUpdate{Code: code})
	if r.observe != nil {
		r.observe(roomID, code)
	}
}

// UpdateCursor records a participant's cursor and tells the others.
// Cursor updates never touch the document or the roster. A stale room or
// participant reference is a no-op.
func (r *Registry) UpdateCursor(roomID, participantID string, cursor models.Cursor) {
	rm := r.lookup(roomID)
	if rm == nil {
		return
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return
	}
	m, ok := rm.participants[participantID]
	if !ok {
		return
	}

	m.cursor = &cursor
	rm.broadcastLocked(participantID, protocol.CursorUpdate{UserID: participantID, Cursor: cursor})
}

// Leave removes a participant. The last participant out destroys the room;
// otherwise the remaining participants receive user-left with the updated
// roster. A stale reference is a no-op.
func (r *Registry) Leave(roomID, participantID string) {
	rm := r.lookup(roomID)
	if rm == nil {
		return
	}

	rm.mu.Lock()
	if rm.closed {
		rm.mu.Unlock()
		return
	}
	if _, ok := rm.participants[participantID]; !ok {
		rm.mu.Unlock()
		return
	}

	delete(rm.participants, participantID)
	for i, id := range rm.order {
		if id == participantID {
			rm.order = append(rm.order[:i], rm.order[i+1:]...)
			break
		}
	}
	metrics.ParticipantsActive.Dec()

	if len(rm.participants) == 0 {
		rm.closed = true
		document := rm.document
		r.mu.Lock()
		delete(r.rooms, roomID)
		r.mu.Unlock()
		rm.mu.Unlock()

		metrics.RoomsActive.Dec()
		if r.observe != nil {
			r.observe(roomID, document)
		}
		r.logger.Info().Str("room", roomID).Str("participant", participantID).Msg("last participant left, room destroyed")
		return
	}

	rm.broadcastLocked(participantID, protocol.UserLeft{UserID: participantID, Users: rm.rosterLocked()})
	rm.mu.Unlock()
	r.logger.Info().Str("room", roomID).Str("participant", participantID).Msg("participant left")
}

// Has reports whether a room currently exists.
func (r *Registry) Has(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[roomID]
	return ok
}

// RoomInfo is a point-in-time view of one room, used by the HTTP surface.
type RoomInfo struct {
	ID            string `json:"id"`
	Participants  int    `json:"participants"`
	DocumentBytes int    `json:"document_bytes"`
}

// Rooms returns a snapshot of all live rooms.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.Lock()
	live := make([]*room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		live = append(live, rm)
	}
	r.mu.Unlock()

	infos := make([]RoomInfo, 0, len(live))
	for _, rm := range live {
		rm.mu.Lock()
		if !rm.closed {
			infos = append(infos, RoomInfo{
				ID:            rm.id,
				Participants:  len(rm.participants),
				DocumentBytes: len(rm.document),
			})
		}
		rm.mu.Unlock()
	}
	return infos
}

// Counts returns the current number of rooms and joined participants.
func (r *Registry) Counts() (rooms, participants int) {
	for _, info := range r.Rooms() {
		rooms++
		participants += info.Participants
	}
	return rooms, participants
}
