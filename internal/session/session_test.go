package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/sketchboard/internal/engine"
)

type docs struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   int
	loadErr error
}

func newDocs() *docs {
	return &docs{data: map[string][]byte{
		"drw_a": []byte(`[{"name":"Layer 1","shapes":[]}]`),
	}}
}

func (d *docs) load(ctx context.Context, id string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loadErr != nil {
		return nil, d.loadErr
	}
	return d.data[id], nil
}

func (d *docs) save(ctx context.Context, id string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data[id] = data
	d.saves++
	return nil
}

func (d *docs) snapshot(id string) (string, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.data[id]), d.saves
}

func newServer(t *testing.T, store *docs) (*Hub, string) {
	t.Helper()
	hub := NewHub(Options{Load: store.load, Save: store.save})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		q := r.URL.Query()
		hub.Serve(r.Context(), conn, q.Get("user"), q.Get("user"), q.Get("drawing"))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Stop)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

type peer struct {
	t    *testing.T
	ctx  context.Context
	conn *websocket.Conn
}

func dial(t *testing.T, url, drawingID, user string) *peer {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	conn, _, err := websocket.Dial(ctx, url+"?drawing="+drawingID+"&user="+user, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	p := &peer{t: t, ctx: ctx, conn: conn}
	p.next(TypeWelcome)
	return p
}

func (p *peer) send(typ string, payload any) {
	p.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(p.t, err)
	data, err := json.Marshal(Message{Type: typ, Payload: raw})
	require.NoError(p.t, err)
	require.NoError(p.t, p.conn.Write(p.ctx, websocket.MessageText, data))
}

func (p *peer) event(typ engine.EventType, x, y float64) {
	p.send(TypeEvent, engine.Event{Type: typ, X: x, Y: y})
}

// next reads until a message of type typ arrives.
func (p *peer) next(typ string) Message {
	p.t.Helper()
	for {
		_, data, err := p.conn.Read(p.ctx)
		require.NoError(p.t, err, "waiting for %s", typ)
		var msg Message
		require.NoError(p.t, json.Unmarshal(data, &msg))
		if msg.Type == typ {
			return msg
		}
	}
}

// renderUntil reads frames until ok accepts one.
func (p *peer) renderUntil(ok func(RenderPayload) bool) RenderPayload {
	p.t.Helper()
	for {
		var frame RenderPayload
		require.NoError(p.t, json.Unmarshal(p.next(TypeRender).Payload, &frame))
		if ok(frame) {
			return frame
		}
	}
}

func shapes(n int) func(RenderPayload) bool {
	return func(f RenderPayload) bool {
		total := 0
		for _, l := range f.Layers {
			total += l.Shapes
		}
		return total == n
	}
}

func (p *peer) drawRect() {
	p.send(TypeTool, ToolPayload{Tool: "rectangle"})
	p.event(engine.PointerDown, 10, 10)
	p.event(engine.PointerMove, 50, 50)
	p.event(engine.PointerUp, 50, 50)
}

func TestDrawAndSave(t *testing.T) {
	store := newDocs()
	_, url := newServer(t, store)

	a := dial(t, url, "drw_a", "alice")
	a.drawRect()
	frame := a.renderUntil(shapes(1))
	assert.Equal(t, "rectangle", frame.Tool)
	assert.NotEmpty(t, frame.Commands)

	a.send(TypeSave, nil)
	var saved SavedPayload
	require.NoError(t, json.Unmarshal(a.next(TypeSaved).Payload, &saved))
	assert.Equal(t, 1, saved.Shapes)

	doc, n := store.snapshot("drw_a")
	assert.Equal(t, 1, n)
	assert.Contains(t, doc, `"type":"rectangle"`)
}

func TestClientsShareScene(t *testing.T) {
	_, url := newServer(t, newDocs())

	a := dial(t, url, "drw_a", "alice")
	b := dial(t, url, "drw_a", "bob")

	var state PresenceStatePayload
	require.NoError(t, json.Unmarshal(a.next(TypePresenceState).Payload, &state))
	if len(state.Participants) < 2 {
		require.NoError(t, json.Unmarshal(a.next(TypePresenceState).Payload, &state))
	}
	assert.Len(t, state.Participants, 2)

	a.drawRect()
	frame := b.renderUntil(shapes(1))
	assert.Equal(t, "select", frame.Tool, "tool is per client")

	// b selects and deletes what a drew.
	b.event(engine.PointerDown, 30, 30)
	b.event(engine.PointerUp, 30, 30)
	b.renderUntil(func(f RenderPayload) bool { return f.Selected != "" })
	b.send(TypeDelete, nil)
	a.renderUntil(shapes(0))
}

func TestLastClientOutSaves(t *testing.T) {
	store := newDocs()
	hub, url := newServer(t, store)

	a := dial(t, url, "drw_a", "alice")
	a.drawRect()
	a.renderUntil(shapes(1))
	require.NoError(t, a.conn.Close(websocket.StatusNormalClosure, ""))

	assert.Eventually(t, func() bool {
		_, n := store.snapshot("drw_a")
		return n == 1 && hub.Rooms() == 0
	}, 3*time.Second, 10*time.Millisecond)

	// A new room picks up the saved drawing.
	b := dial(t, url, "drw_a", "bob")
	b.renderUntil(shapes(1))
}

func TestUntouchedRoomDoesNotSave(t *testing.T) {
	store := newDocs()
	hub, url := newServer(t, store)

	a := dial(t, url, "drw_a", "alice")
	a.next(TypeRender)
	require.NoError(t, a.conn.Close(websocket.StatusNormalClosure, ""))

	require.Eventually(t, func() bool { return hub.Rooms() == 0 }, 3*time.Second, 10*time.Millisecond)
	hub.Stop()
	_, n := store.snapshot("drw_a")
	assert.Equal(t, 0, n)
}

func TestMissingDocumentOpensSample(t *testing.T) {
	_, url := newServer(t, newDocs())
	a := dial(t, url, "drw_playground", "anon")
	a.renderUntil(func(f RenderPayload) bool { return !shapes(0)(f) })
}

func TestRejectedMessages(t *testing.T) {
	_, url := newServer(t, newDocs())
	a := dial(t, url, "drw_a", "alice")

	tests := []struct {
		typ     string
		payload any
		want    string
	}{
		{"dance", nil, "unknown message type"},
		{TypeTool, ToolPayload{Tool: "chisel"}, "chisel"},
		{TypeApplyStyle, nil, engine.ErrNoSelection.Error()},
		{TypeText, TextPayload{Text: "hi"}, engine.ErrNoPendingText.Error()},
		{TypeLayerRename, LayerPayload{ID: "layer_x", Name: " "}, "name is required"},
		{TypeLayerDelete, LayerPayload{ID: "layer_x"}, "layer not found"},
		{TypeLoad, LoadPayload{Document: json.RawMessage(`{"a":1}`)}, "malformed"},
		{TypeImage, ImagePayload{Src: "x.png"}, engine.ErrNoDecoder.Error()},
	}
	for _, tt := range tests {
		a.send(tt.typ, tt.payload)
		var p ErrorPayload
		require.NoError(t, json.Unmarshal(a.next(TypeError).Payload, &p))
		assert.Contains(t, p.Message, tt.want, tt.typ)
	}
}

func TestLayerMessages(t *testing.T) {
	_, url := newServer(t, newDocs())
	a := dial(t, url, "drw_a", "alice")

	a.send(TypeLayerAdd, LayerPayload{})
	frame := a.renderUntil(func(f RenderPayload) bool { return len(f.Layers) == 2 })
	top := frame.Layers[1]
	assert.Equal(t, "Layer 2", top.Name)
	assert.Equal(t, top.ID, frame.ActiveLayer)

	hidden, half, bottom := false, 0.5, 0
	a.send(TypeLayerVisible, LayerPayload{ID: top.ID, Visible: &hidden})
	a.send(TypeLayerOpacity, LayerPayload{ID: top.ID, Opacity: &half})
	a.send(TypeLayerRename, LayerPayload{ID: top.ID, Name: "Ink"})
	a.send(TypeLayerMove, LayerPayload{ID: top.ID, Index: &bottom})
	frame = a.renderUntil(func(f RenderPayload) bool { return f.Layers[0].ID == top.ID })
	assert.Equal(t, LayerInfo{ID: top.ID, Name: "Ink", Visible: false, Opacity: 0.5}, frame.Layers[0])

	a.send(TypeLayerActive, LayerPayload{ID: frame.Layers[1].ID})
	a.renderUntil(func(f RenderPayload) bool { return f.ActiveLayer == f.Layers[1].ID })

	a.send(TypeLayerDelete, LayerPayload{ID: top.ID})
	a.renderUntil(func(f RenderPayload) bool { return len(f.Layers) == 1 })
}

func TestTextAndLoad(t *testing.T) {
	_, url := newServer(t, newDocs())
	a := dial(t, url, "drw_a", "alice")

	a.send(TypeTool, ToolPayload{Tool: "text"})
	a.event(engine.PointerDown, 20, 40)
	frame := a.renderUntil(func(f RenderPayload) bool { return f.PendingText != nil })
	assert.Equal(t, 20.0, frame.PendingText.X)
	a.send(TypeText, TextPayload{Text: "hello"})
	a.renderUntil(shapes(1))

	a.send(TypeLoad, LoadPayload{Document: json.RawMessage(`[
		{"name":"One","shapes":[{"type":"circle","x":5,"y":5,"radius":3},{"type":"nope"}]},
		{"name":"Two","shapes":[]}
	]`)})
	var notice NoticePayload
	require.NoError(t, json.Unmarshal(a.next(TypeNotice).Payload, &notice))
	assert.Equal(t, "loaded 2 layers and 1 shapes, skipped 1", notice.Message)
	a.renderUntil(func(f RenderPayload) bool { return len(f.Layers) == 2 })

	a.send(TypeClear, nil)
	a.renderUntil(shapes(0))
}

func TestBrokenDocumentIsNeverOverwritten(t *testing.T) {
	store := newDocs()
	store.loadErr = errors.New("disk on fire")
	_, url := newServer(t, store)

	a := dial(t, url, "drw_a", "alice")
	a.next(TypeNotice)
	a.drawRect()
	a.renderUntil(shapes(1))

	a.send(TypeSave, nil)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(a.next(TypeError).Payload, &p))
	assert.Contains(t, p.Message, "will not be saved")
	_, n := store.snapshot("drw_a")
	assert.Equal(t, 0, n)
}

func TestStopSavesOpenRooms(t *testing.T) {
	store := newDocs()
	hub, url := newServer(t, store)

	a := dial(t, url, "drw_a", "alice")
	a.drawRect()
	a.renderUntil(shapes(1))

	hub.Stop()
	doc, n := store.snapshot("drw_a")
	assert.Equal(t, 1, n)
	assert.Contains(t, doc, "rectangle")
	assert.Equal(t, 0, hub.Rooms())
}
