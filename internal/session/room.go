package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/shape"
)

const (
	inboxSize   = 64
	saveTimeout = 10 * time.Second
)

var ErrBadPayload = errors.New("bad payload")

type envelope struct {
	client *Client
	msg    *Message
}

// Room is one drawing's editing session. Its goroutine is the only one
// that touches the editor or any client's editing state.
type Room struct {
	drawingID string
	opts      Options
	editor    *engine.Editor
	clients   *roster

	// members is guarded by Hub.mu.
	members int

	join     chan *Client
	leave    chan *Client
	inbox    chan envelope
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	after    <-chan struct{}

	dirty bool
	// broken is set when the stored document could not be read; the room
	// then never writes over it.
	broken bool
}

func newRoom(drawingID string, opts Options, after <-chan struct{}) *Room {
	return &Room{
		drawingID: drawingID,
		opts:      opts,
		editor:    engine.New(engine.Options{Decoder: opts.Decoder, Measurer: opts.Measurer}),
		clients:   newRoster(),
		join:      make(chan *Client),
		leave:     make(chan *Client),
		inbox:     make(chan envelope, inboxSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		after:     after,
	}
}

// Stop asks the room to save and exit. It does not wait.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// submit queues a client message. It reports false once the room is gone.
func (r *Room) submit(c *Client, msg *Message) bool {
	select {
	case r.inbox <- envelope{client: c, msg: msg}:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) run() {
	defer close(r.done)
	defer r.editor.Close()

	if r.after != nil {
		<-r.after
	}
	r.open()

	for {
		select {
		case c := <-r.join:
			r.add(c)
		case c := <-r.leave:
			r.remove(c)
		case in := <-r.inbox:
			r.handle(in.client, in.msg)
		case done := <-r.editor.Inbox():
			if r.editor.Complete(done) {
				r.dirty = true
				r.renderAll()
			}
		case <-r.stop:
			if err := r.persist(); err != nil {
				slog.Error("save drawing", "drawing", r.drawingID, "error", err)
			}
			r.clients.each(func(c *Client) {
				if c.conn != nil {
					go c.conn.Close(websocket.StatusGoingAway, "room closed")
				}
			})
			return
		}
	}
}

func (r *Room) open() {
	if r.opts.Load == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	data, err := r.opts.Load(ctx, r.drawingID)
	if err != nil {
		slog.Error("load drawing", "drawing", r.drawingID, "error", err)
		r.broken = true
		return
	}
	if data == nil {
		r.editor.LoadSample()
		return
	}
	res, err := r.editor.Load(data)
	if err != nil {
		slog.Error("decode drawing", "drawing", r.drawingID, "error", err)
		r.broken = true
		return
	}
	for _, w := range res.Warnings {
		slog.Warn("skipped shape", "drawing", r.drawingID, "warning", w.String())
	}
	slog.Debug("drawing loaded", "drawing", r.drawingID, "summary", res.Summary())
}

// persist writes the document if anything changed since the last save.
func (r *Room) persist() error {
	if !r.dirty || r.broken || r.opts.Save == nil {
		return nil
	}
	data, err := r.editor.Save()
	if err != nil {
		return fmt.Errorf("encode drawing: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := r.opts.Save(ctx, r.drawingID, data); err != nil {
		return err
	}
	r.dirty = false
	slog.Info("drawing saved", "drawing", r.drawingID, "bytes", len(data))
	return nil
}

// --- Membership ---

func (r *Room) add(c *Client) {
	c.recorder = engine.NewRecorder(r.editor.Measurer())
	r.clients.add(c)

	c.sendPayload(TypeWelcome, WelcomePayload{ClientID: c.ClientID, UserID: c.UserID})
	r.clients.broadcast(TypePresenceState, PresenceStatePayload{Participants: r.clients.participants()}, "")
	if r.broken {
		c.sendPayload(TypeNotice, NoticePayload{Message: "drawing could not be loaded; changes will not be saved"})
	}
	r.render(c)
}

func (r *Room) remove(c *Client) {
	if !r.clients.remove(c) {
		return
	}
	r.editor.Release(c.state)
	r.clients.broadcast(TypePresenceLeave, PresenceLeavePayload{ClientID: c.ClientID, UserID: c.UserID}, "")
}

// --- Messages ---

func (r *Room) handle(c *Client, msg *Message) {
	if err := r.dispatch(c, msg); err != nil {
		slog.Debug("message rejected", "type", msg.Type, "user", c.UserID, "error", err)
		c.sendPayload(TypeError, ErrorPayload{Message: err.Error()})
	}
}

func decode(msg *Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%s: %w", msg.Type, ErrBadPayload)
	}
	return nil
}

func (r *Room) dispatch(c *Client, msg *Message) error {
	switch msg.Type {
	case TypeEvent:
		var ev engine.Event
		if err := decode(msg, &ev); err != nil {
			return err
		}
		if r.editor.Handle(c.state, ev) {
			r.changed()
		}
		return nil

	case TypeTool:
		var p ToolPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		t, err := engine.ParseTool(p.Tool)
		if err != nil {
			return err
		}
		r.editor.SetTool(c.state, t)
		r.clients.broadcast(TypePresenceState, PresenceStatePayload{Participants: r.clients.participants()}, "")
		r.render(c)
		return nil

	case TypeStyle:
		var p StylePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		c.state.Style.Stroke = shape.Color(p.Color)
		c.state.Style.Fill = shape.Color(p.Fill)
		c.state.Style.StrokeWidth = p.LineWidth
		return nil

	case TypeApplyStyle:
		if err := r.editor.ApplyStyle(c.state); err != nil {
			return err
		}
		r.changed()
		return nil

	case TypeDelete:
		if err := r.editor.DeleteSelected(c.state); err != nil {
			return err
		}
		r.changed()
		return nil

	case TypeText:
		var p TextPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if p.Cancel {
			r.editor.CancelText(c.state)
			r.render(c)
			return nil
		}
		created, err := r.editor.ConfirmText(c.state, p.Text)
		if err != nil {
			return err
		}
		if created {
			r.changed()
		} else {
			r.render(c)
		}
		return nil

	case TypeClear:
		r.editor.Clear()
		r.changed()
		return nil

	case TypeImage:
		var p ImagePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if strings.TrimSpace(p.Src) == "" {
			return fmt.Errorf("image: %w", ErrBadPayload)
		}
		if err := r.editor.InsertImage(p.Src, geom.Pt(p.X, p.Y)); err != nil {
			return err
		}
		r.render(c)
		return nil

	case TypeSave:
		if r.broken {
			return errors.New("drawing could not be loaded and will not be saved")
		}
		if err := r.persist(); err != nil {
			slog.Error("save drawing", "drawing", r.drawingID, "error", err)
			return errors.New("save failed")
		}
		c.sendPayload(TypeSaved, SavedPayload{Shapes: r.editor.Scene().ShapeCount()})
		return nil

	case TypeLoad:
		var p LoadPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return r.load(c, p)

	case TypeLayerAdd, TypeLayerDelete, TypeLayerRename, TypeLayerVisible,
		TypeLayerOpacity, TypeLayerMove, TypeLayerActive, TypeLayerClear:
		var p LayerPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		if err := r.layer(msg.Type, p); err != nil {
			return err
		}
		r.changed()
		return nil
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

func (r *Room) load(c *Client, p LoadPayload) error {
	if p.Sample {
		r.editor.LoadSample()
	} else {
		res, err := r.editor.Load(p.Document)
		if err != nil {
			return err
		}
		c.sendPayload(TypeNotice, NoticePayload{Message: res.Summary()})
	}
	r.clients.each(func(other *Client) { r.editor.Release(other.state) })
	r.broken = false
	r.changed()
	return nil
}

func (r *Room) layer(typ string, p LayerPayload) error {
	s := r.editor.Scene()
	switch typ {
	case TypeLayerAdd:
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = fmt.Sprintf("Layer %d", s.Len()+1)
		}
		r.editor.AddLayer(name)
		return nil
	case TypeLayerDelete:
		return r.editor.DeleteLayer(p.ID)
	case TypeLayerClear:
		return r.editor.ClearLayer(p.ID)
	case TypeLayerRename:
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("%s: name is required: %w", typ, ErrBadPayload)
		}
		return s.RenameLayer(p.ID, name)
	case TypeLayerVisible:
		if p.Visible == nil {
			return fmt.Errorf("%s: visible is required: %w", typ, ErrBadPayload)
		}
		return s.SetVisible(p.ID, *p.Visible)
	case TypeLayerOpacity:
		if p.Opacity == nil {
			return fmt.Errorf("%s: opacity is required: %w", typ, ErrBadPayload)
		}
		return s.SetOpacity(p.ID, *p.Opacity)
	case TypeLayerMove:
		if p.Index == nil {
			return fmt.Errorf("%s: index is required: %w", typ, ErrBadPayload)
		}
		return s.MoveLayer(p.ID, *p.Index)
	case TypeLayerActive:
		return s.SetActive(p.ID)
	}
	return nil
}

// --- Rendering ---

// changed marks the drawing dirty and redraws every client.
func (r *Room) changed() {
	r.dirty = true
	r.renderAll()
}

func (r *Room) renderAll() {
	r.clients.each(r.render)
}

func (r *Room) render(c *Client) {
	c.recorder.Reset()
	r.editor.Render(c.state, c.recorder)

	s := r.editor.Scene()
	layers := s.Layers()
	info := make([]LayerInfo, len(layers))
	for i, l := range layers {
		info[i] = LayerInfo{ID: l.ID, Name: l.Name, Visible: l.Visible, Opacity: l.Opacity, Shapes: len(l.Shapes)}
	}

	p := RenderPayload{
		Commands:    c.recorder.Commands(),
		Layers:      info,
		ActiveLayer: s.Active().ID,
		Tool:        string(c.state.Tool),
		Pending:     r.editor.Pending(),
	}
	if b, ok := r.editor.SelectionBounds(c.state); ok {
		p.Selected = c.state.Selected
		p.Selection = &b
	}
	if at, ok := c.state.PendingText(); ok {
		p.PendingText = &at
	}
	c.sendPayload(TypeRender, p)
}
