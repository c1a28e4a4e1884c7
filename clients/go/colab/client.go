// Package colab provides a Go client for the collaborative editor sync
// protocol. It speaks the same envelopes as the browser client: join a
// room, push whole-document edits, report cursor moves, and receive the
// room's notifications on a channel.
package colab

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/models"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/protocol"
)

// ErrClosed is returned by send methods after Close.
var ErrClosed = errors.New("client closed")

const eventBuffer = 64

// Client is one websocket connection to the sync server.
type Client struct {
	conn   *websocket.Conn
	events chan protocol.Outbound
	done   chan struct{}

	closeOnce sync.Once
	writeMu   sync.Mutex
}

// Dial connects to the server's /ws endpoint, e.g.
// "ws://localhost:8080/ws". The caller must drain Events.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:   conn,
		events: make(chan protocol.Outbound, eventBuffer),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Events delivers decoded server envelopes: Init after a join, then
// CodeUpdate, UserJoined, UserLeft and CursorUpdate as the room changes.
// The channel closes when the connection dies.
func (c *Client) Events() <-chan protocol.Outbound {
	return c.events
}

// Join registers this connection as a participant. The server replies
// with an Init envelope on Events.
func (c *Client) Join(roomID, userName, userColor string) error {
	return c.send(protocol.Join{RoomID: roomID, UserName: userName, UserColor: userColor})
}

// SendCode replaces the room's shared document.
func (c *Client) SendCode(code string) error {
	return c.send(protocol.CodeChange{Code: code})
}

// SendCursor reports this participant's cursor position.
func (c *Client) SendCursor(lineNumber, column int) error {
	return c.send(protocol.CursorMove{Cursor: models.Cursor{LineNumber: lineNumber, Column: column}})
}

// Leave exits the current room; the connection stays usable for another
// Join.
func (c *Client) Leave() error {
	return c.send(protocol.Leave{})
}

// Close tears the connection down.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) send(msg protocol.Inbound) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	data, err := protocol.EncodeInbound(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.Close()
			return
		}
		msg, err := protocol.DecodeOutbound(data)
		if err != nil {
			// Server sent something this client doesn't understand;
			// skip it rather than kill the session.
			continue
		}
		select {
		case c.events <- msg:
		case <-c.done:
			return
		}
	}
}
