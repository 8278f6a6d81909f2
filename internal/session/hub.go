// Package session runs live editing rooms over websockets. Each drawing
// being edited gets one room goroutine that owns its editor; every
// connected client keeps its own tool, style and selection.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/shape"
)

// Loader fetches the stored document for a drawing. A nil document with a
// nil error opens the room on the built-in sample.
type Loader func(ctx context.Context, drawingID string) ([]byte, error)

// Saver persists a room's document.
type Saver func(ctx context.Context, drawingID string, data []byte) error

type Options struct {
	Load     Loader
	Save     Saver
	Decoder  document.ImageDecoder
	Measurer shape.TextMeasurer
}

type Hub struct {
	mu    sync.Mutex
	rooms map[string]*Room // drawingID -> room
	// retiring holds rooms that lost their last client but are still
	// saving, so a replacement waits before loading.
	retiring map[string]*Room
	opts     Options
	stopped  bool
}

func NewHub(opts Options) *Hub {
	return &Hub{
		rooms:    make(map[string]*Room),
		retiring: make(map[string]*Room),
		opts:     opts,
	}
}

// Join attaches a client to its drawing's room, starting the room if it
// is not running. It reports false once the hub is stopped.
func (h *Hub) Join(client *Client) bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return false
	}
	room, ok := h.rooms[client.DrawingID]
	if !ok {
		var prev <-chan struct{}
		if old, ok := h.retiring[client.DrawingID]; ok {
			prev = old.done
		}
		room = newRoom(client.DrawingID, h.opts, prev)
		h.rooms[client.DrawingID] = room
		go room.run()
		slog.Info("room opened", "drawing", client.DrawingID)
	}
	room.members++
	client.room = room
	h.mu.Unlock()

	select {
	case room.join <- client:
		return true
	case <-room.done:
		return false
	}
}

// Leave detaches a client. The last client out stops the room, which saves
// the drawing before exiting.
func (h *Hub) Leave(client *Client) {
	room := client.room
	if room == nil {
		return
	}
	select {
	case room.leave <- client:
	case <-room.done:
		return
	}

	h.mu.Lock()
	room.members--
	last := room.members == 0 && h.rooms[room.drawingID] == room
	if last {
		delete(h.rooms, room.drawingID)
		h.retiring[room.drawingID] = room
	}
	h.mu.Unlock()

	if last {
		room.Stop()
		go h.reap(room)
	}
}

func (h *Hub) reap(room *Room) {
	<-room.done
	h.mu.Lock()
	if h.retiring[room.drawingID] == room {
		delete(h.retiring, room.drawingID)
	}
	h.mu.Unlock()
	slog.Info("room closed", "drawing", room.drawingID)
}

// Rooms is the number of running rooms.
func (h *Hub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Stop saves and closes every room and refuses new clients.
func (h *Hub) Stop() {
	h.mu.Lock()
	h.stopped = true
	rooms := make([]*Room, 0, len(h.rooms)+len(h.retiring))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	for _, r := range h.retiring {
		rooms = append(rooms, r)
	}
	h.rooms = make(map[string]*Room)
	h.mu.Unlock()

	for _, r := range rooms {
		r.Stop()
	}
	for _, r := range rooms {
		<-r.done
	}
	slog.Info("all rooms closed", "count", len(rooms))
}

// Serve runs an accepted connection as a client of drawingID until either
// side closes it.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, userID, displayName, drawingID string) {
	client := NewClient(h, conn, userID, displayName, drawingID, uuid.New().String())
	if !h.Join(client) {
		conn.Close(websocket.StatusTryAgainLater, "server shutting down")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
