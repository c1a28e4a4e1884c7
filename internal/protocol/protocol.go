// Package protocol defines the wire envelopes exchanged between the editor
// client and the sync server. Every transport frame carries exactly one
// JSON envelope tagged by a "type" field. This package does structural
// validation only (required fields present, correct primitive types);
// business rules live with the registry.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/models"
)

// Kind is the envelope discriminator carried in the "type" field.
type Kind string

// Inbound envelope kinds (client -> server).
const (
	KindJoin       Kind = "join"
	KindCodeChange Kind = "code-change"
	KindCursorMove Kind = "cursor-move"
	KindLeave      Kind = "leave"
)

// Outbound envelope kinds (server -> client).
const (
	KindInit         Kind = "init"
	KindCodeUpdate   Kind = "code-update"
	KindUserJoined   Kind = "user-joined"
	KindUserLeft     Kind = "user-left"
	KindCursorUpdate Kind = "cursor-update"
)

var (
	// ErrMalformed reports an envelope that could not be decoded or is
	// missing a required field.
	ErrMalformed = errors.New("malformed envelope")

	// ErrUnknownKind reports an envelope whose "type" is not part of the
	// protocol vocabulary.
	ErrUnknownKind = errors.New("unknown envelope kind")
)

// Inbound is the closed set of client-to-server envelopes.
type Inbound interface {
	InboundKind() Kind
}

// Join registers the sender as a participant in a room.
type Join struct {
	RoomID    string
	UserName  string
	UserColor string
}

// CodeChange replaces the room's shared document, last write wins.
type CodeChange struct {
	Code string
}

// CursorMove reports the sender's new cursor position.
type CursorMove struct {
	Cursor models.Cursor
}

// Leave removes the sender from its current room.
type Leave struct{}

func (Join) InboundKind() Kind       { return KindJoin }
func (CodeChange) InboundKind() Kind { return KindCodeChange }
func (CursorMove) InboundKind() Kind { return KindCursorMove }
func (Leave) InboundKind() Kind      { return KindLeave }

// Outbound is the closed set of server-to-client envelopes.
type Outbound interface {
	OutboundKind() Kind
}

// Init is sent once to a newly joined participant: the current document,
// the participant's assigned id, and the full roster.
type Init struct {
	Code   string
	UserID string
	Users  []models.Participant
}

// CodeUpdate notifies that another participant changed the document.
type CodeUpdate struct {
	Code string
}

// UserJoined notifies that the roster changed by addition.
type UserJoined struct {
	Users []models.Participant
}

// UserLeft notifies that the roster changed by removal.
type UserLeft struct {
	UserID string
	Users  []models.Participant
}

// CursorUpdate notifies that another participant moved their cursor.
type CursorUpdate struct {
	UserID string
	Cursor models.Cursor
}

func (Init) OutboundKind() Kind         { return KindInit }
func (CodeUpdate) OutboundKind() Kind   { return KindCodeUpdate }
func (UserJoined) OutboundKind() Kind   { return KindUserJoined }
func (UserLeft) OutboundKind() Kind     { return KindUserLeft }
func (CursorUpdate) OutboundKind() Kind { return KindCursorUpdate }

// cursorWire validates the cursor object field-by-field; both coordinates
// are required.
type cursorWire struct {
	LineNumber *int `json:"lineNumber"`
	Column     *int `json:"column"`
}

func (c *cursorWire) toCursor() (models.Cursor, error) {
	if c == nil {
		return models.Cursor{}, fmt.Errorf("%w: missing cursor", ErrMalformed)
	}
	if c.LineNumber == nil || c.Column == nil {
		return models.Cursor{}, fmt.Errorf("%w: cursor requires lineNumber and column", ErrMalformed)
	}
	return models.Cursor{LineNumber: *c.LineNumber, Column: *c.Column}, nil
}

// DecodeInbound parses one client envelope. Unknown kinds return
// ErrUnknownKind; undecodable frames and missing required fields return
// ErrMalformed. The caller treats both as protocol errors and keeps the
// connection open.
func DecodeInbound(data []byte) (Inbound, error) {
	var env struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case KindJoin:
		var aux struct {
			RoomID    *string `json:"roomId"`
			UserName  *string `json:"userName"`
			UserColor *string `json:"userColor"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if aux.RoomID == nil || aux.UserName == nil || aux.UserColor == nil {
			return nil, fmt.Errorf("%w: join requires roomId, userName and userColor", ErrMalformed)
		}
		return Join{RoomID: *aux.RoomID, UserName: *aux.UserName, UserColor: *aux.UserColor}, nil

	case KindCodeChange:
		var aux struct {
			Code *string `json:"code"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if aux.Code == nil {
			return nil, fmt.Errorf("%w: code-change requires code", ErrMalformed)
		}
		return CodeChange{Code: *aux.Code}, nil

	case KindCursorMove:
		var aux struct {
			Cursor *cursorWire `json:"cursor"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		cursor, err := aux.Cursor.toCursor()
		if err != nil {
			return nil, err
		}
		return CursorMove{Cursor: cursor}, nil

	case KindLeave:
		return Leave{}, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}
}

// EncodeInbound serializes a client envelope with its type tag. Used by the
// Go client; the server only decodes this direction.
func EncodeInbound(msg Inbound) ([]byte, error) {
	switch m := msg.(type) {
	case Join:
		return json.Marshal(struct {
			Type      Kind   `json:"type"`
			RoomID    string `json:"roomId"`
			UserName  string `json:"userName"`
			UserColor string `json:"userColor"`
		}{KindJoin, m.RoomID, m.UserName, m.UserColor})
	case CodeChange:
		return json.Marshal(struct {
			Type Kind   `json:"type"`
			Code string `json:"code"`
		}{KindCodeChange, m.Code})
	case CursorMove:
		return json.Marshal(struct {
			Type   Kind          `json:"type"`
			Cursor models.Cursor `json:"cursor"`
		}{KindCursorMove, m.Cursor})
	case Leave:
		return json.Marshal(struct {
			Type Kind `json:"type"`
		}{KindLeave})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, msg)
	}
}

// EncodeOutbound serializes a server envelope with its type tag.
func EncodeOutbound(msg Outbound) ([]byte, error) {
	switch m := msg.(type) {
	case Init:
		return json.Marshal(struct {
			Type   Kind                 `json:"type"`
			Code   string               `json:"code"`
			UserID string               `json:"userId"`
			Users  []models.Participant `json:"users"`
		}{KindInit, m.Code, m.UserID, m.Users})
	case CodeUpdate:
		return json.Marshal(struct {
			Type Kind   `json:"type"`
			Code string `json:"code"`
		}{KindCodeUpdate, m.Code})
	case UserJoined:
		return json.Marshal(struct {
			Type  Kind                 `json:"type"`
			Users []models.Participant `json:"users"`
		}{KindUserJoined, m.Users})
	case UserLeft:
		return json.Marshal(struct {
			Type   Kind                 `json:"type"`
			UserID string               `json:"userId"`
			Users  []models.Participant `json:"users"`
		}{KindUserLeft, m.UserID, m.Users})
	case CursorUpdate:
		return json.Marshal(struct {
			Type   Kind          `json:"type"`
			UserID string        `json:"userId"`
			Cursor models.Cursor `json:"cursor"`
		}{KindCursorUpdate, m.UserID, m.Cursor})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, msg)
	}
}

// DecodeOutbound parses one server envelope. Used by the Go client and by
// tests asserting on delivered frames.
func DecodeOutbound(data []byte) (Outbound, error) {
	var env struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case KindInit:
		var aux struct {
			Code   *string              `json:"code"`
			UserID *string              `json:"userId"`
			Users  []models.Participant `json:"users"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if aux.Code == nil || aux.UserID == nil {
			return nil, fmt.Errorf("%w: init requires code and userId", ErrMalformed)
		}
		return Init{Code: *aux.Code, UserID: *aux.UserID, Users: aux.Users}, nil

	case KindCodeUpdate:
		var aux struct {
			Code *string `json:"code"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if aux.Code == nil {
			return nil, fmt.Errorf("%w: code-update requires code", ErrMalformed)
		}
		return CodeUpdate{Code: *aux.Code}, nil

	case KindUserJoined:
		var aux struct {
			Users []models.Participant `json:"users"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return UserJoined{Users: aux.Users}, nil

	case KindUserLeft:
		var aux struct {
			UserID *string              `json:"userId"`
			Users  []models.Participant `json:"users"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if aux.UserID == nil {
			return nil, fmt.Errorf("%w: user-left requires userId", ErrMalformed)
		}
		return UserLeft{UserID: *aux.UserID, Users: aux.Users}, nil

	case KindCursorUpdate:
		var aux struct {
			UserID *string     `json:"userId"`
			Cursor *cursorWire `json:"cursor"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if aux.UserID == nil {
			return nil, fmt.Errorf("%w: cursor-update requires userId", ErrMalformed)
		}
		cursor, err := aux.Cursor.toCursor()
		if err != nil {
			return nil, err
		}
		return CursorUpdate{UserID: *aux.UserID, Cursor: cursor}, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}
}
