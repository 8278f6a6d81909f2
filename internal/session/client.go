package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/inamate/sketchboard/internal/engine"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 4 << 20 // image messages may carry data URLs
)

type Client struct {
	hub         *Hub
	room        *Room
	conn        *websocket.Conn
	send        chan []byte
	UserID      string
	DisplayName string
	DrawingID   string
	ClientID    string

	// Owned by the room goroutine.
	state    *engine.State
	recorder *engine.Recorder
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, drawingID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		UserID:      userID,
		DisplayName: displayName,
		DrawingID:   drawingID,
		ClientID:    clientID,
		state:       engine.NewState(),
	}
}

// closedCleanly reports whether a read error is the peer hanging up.
func closedCleanly(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

// ReadPump feeds the room until the connection drops, then leaves it.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Leave(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			if !closedCleanly(err) {
				slog.Debug("read error", "error", err, "user", c.UserID, "drawing", c.DrawingID)
			}
			return
		}
		if typ != websocket.MessageText {
			slog.Warn("ignoring binary message", "user", c.UserID)
			continue
		}

		msg := &Message{}
		if err := json.Unmarshal(data, msg); err != nil {
			slog.Warn("invalid message", "error", err, "user", c.UserID)
			c.sendPayload(TypeError, ErrorPayload{Message: "invalid message"})
			continue
		}
		msg.UserID, msg.ClientID, msg.DrawingID = c.UserID, c.ClientID, c.DrawingID

		if !c.room.submit(c, msg) {
			return
		}
	}
}

// WritePump drains the send queue and keeps the connection alive with
// pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	write := func(fn func(context.Context) error) bool {
		wctx, cancel := context.WithTimeout(ctx, writeWait)
		defer cancel()
		if err := fn(wctx); err != nil {
			slog.Debug("write error", "error", err, "user", c.UserID)
			return false
		}
		return true
	}

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			if !write(func(ctx context.Context) error {
				return c.conn.Write(ctx, websocket.MessageText, message)
			}) {
				return
			}

		case <-ticker.C:
			if !write(c.conn.Ping) {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues msg without blocking. A full queue drops the message.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "user", c.UserID)
	}
}

// sendPayload wraps v as the payload of a typ message.
func (c *Client) sendPayload(typ string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal payload", "type", typ, "error", err)
		return
	}
	c.Send(&Message{Type: typ, DrawingID: c.DrawingID, Payload: payload})
}
