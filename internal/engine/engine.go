// Package engine is the interactive editor: it turns pointer and keyboard
// events into scene edits and renders the scene plus in-progress previews.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/scene"
	"github.com/inamate/sketchboard/internal/shape"
	"github.com/inamate/sketchboard/internal/transform"
	"github.com/inamate/sketchboard/internal/typeface"
)

var (
	ErrNoSelection   = errors.New("no shape selected")
	ErrNoPendingText = errors.New("no text placement pending")
	ErrNoDecoder     = errors.New("image decoding not available")
)

// MinSize is the extent a drag must exceed to create a shape.
const MinSize = 3.0

// maxImageSize caps the longer side of an inserted image.
const maxImageSize = 400.0

const inboxSize = 16

type Options struct {
	Registry *document.Registry
	Decoder  document.ImageDecoder
	Measurer shape.TextMeasurer
}

// Editor owns one scene. All methods except the image decode goroutines
// must be called from a single goroutine; completed decodes are delivered
// through Inbox and applied with Complete.
type Editor struct {
	scene    *scene.Scene
	registry *document.Registry
	decoder  document.ImageDecoder
	measurer shape.TextMeasurer

	// active is the only state allowed to run a gesture.
	active *State

	inbox    chan Completion
	mu       sync.Mutex
	tasks    map[string]map[uint64]context.CancelFunc
	nextTask uint64
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates an editor with a one-layer empty scene.
func New(opts Options) *Editor {
	if opts.Registry == nil {
		opts.Registry = document.DefaultRegistry()
	}
	if opts.Measurer == nil {
		opts.Measurer = typeface.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Editor{
		scene:    scene.New(),
		registry: opts.Registry,
		decoder:  opts.Decoder,
		measurer: opts.Measurer,
		inbox:    make(chan Completion, inboxSize),
		tasks:    make(map[string]map[uint64]context.CancelFunc),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (e *Editor) Scene() *scene.Scene { return e.scene }

func (e *Editor) Measurer() shape.TextMeasurer { return e.measurer }

// Close cancels outstanding decodes and waits for them to exit.
func (e *Editor) Close() {
	e.cancel()
	e.wg.Wait()
}

// --- Input ---

// Handle applies one input event for st. It reports whether anything
// visible changed.
func (e *Editor) Handle(st *State, ev Event) bool {
	switch ev.Type {
	case PointerDown:
		return e.pointerDown(st, ev.Point())
	case PointerMove:
		return e.pointerMove(st, ev.Point())
	case PointerUp:
		return e.pointerUp(st, ev.Point())
	case PointerLeave:
		return e.pointerLeave(st)
	case KeyDown:
		return e.keyDown(st, ev.Key)
	case KeyUp:
		return e.keyUp(st, ev.Key)
	}
	return false
}

func (e *Editor) begin(st *State, g *gesture) {
	st.gesture = g
	e.active = st
}

func (e *Editor) end(st *State) {
	st.gesture = nil
	if e.active == st {
		e.active = nil
	}
}

// Release ends any gesture st holds. Call it when a client goes away.
func (e *Editor) Release(st *State) {
	e.end(st)
}

func (e *Editor) pointerDown(st *State, p geom.Point) bool {
	if e.active != nil && e.active != st {
		return false
	}
	st.Pointer = p

	switch st.Tool {
	case ToolEraser:
		hit := e.scene.Erase(p)
		if hit == nil {
			return false
		}
		if st.Selected == hit.ID() {
			st.Selected = ""
		}
		return true

	case ToolText:
		st.textAnchor = &p
		return true

	case ToolTriangle:
		st.clicks = append(st.clicks, p)
		if len(st.clicks) == 3 {
			e.insert(shape.NewTriangle(st.clicks[0], st.clicks[1], st.clicks[2], st.Style))
			st.clicks = nil
		}
		return true

	case ToolPolygon:
		st.clicks = append(st.clicks, p)
		return true

	case ToolSelect:
		hit, _ := e.scene.HitTest(p)
		if hit == nil {
			changed := st.Selected != ""
			st.Selected = ""
			return changed
		}
		st.Selected = hit.ID()
		e.begin(st, &gesture{kind: gestureTransform, start: p, prev: p, target: hit})
		return true

	case ToolFreehand:
		stroke := shape.NewFreehand([]geom.Point{p}, st.Style)
		e.begin(st, &gesture{kind: gestureFreehand, start: p, prev: p, stroke: stroke})
		return true
	}

	if st.Tool.draggable() {
		e.begin(st, &gesture{kind: gestureDraw, start: p, prev: p})
		return true
	}
	return false
}

func (e *Editor) pointerMove(st *State, p geom.Point) bool {
	st.Pointer = p
	g := st.gesture
	if g == nil {
		return len(st.clicks) > 0
	}

	switch g.kind {
	case gestureTransform:
		if found, _ := e.scene.Find(g.target.ID()); found == nil {
			e.end(st)
			return true
		}
		transform.Apply(g.target, transform.ModeFor(st.Shift, st.Control), g.prev, p)
	case gestureFreehand:
		g.stroke.Extend(p)
	}
	g.prev = p
	return true
}

func (e *Editor) pointerUp(st *State, p geom.Point) bool {
	st.Pointer = p
	g := st.gesture
	if g == nil {
		return false
	}
	e.end(st)

	switch g.kind {
	case gestureFreehand:
		b := g.stroke.Bounds()
		if b.Width > MinSize || b.Height > MinSize {
			e.insert(g.stroke)
		}
	case gestureDraw:
		if sh := dragShape(st.Tool, g.start, p, st.Style); sh != nil {
			e.insert(sh)
		}
	}
	return true
}

// pointerLeave drops an unfinished drawing. A transform in progress keeps
// what it has already applied.
func (e *Editor) pointerLeave(st *State) bool {
	changed := st.gesture != nil || len(st.clicks) > 0
	e.end(st)
	st.clicks = nil
	return changed
}

func (e *Editor) keyDown(st *State, key string) bool {
	switch key {
	case KeyShift:
		st.Shift = true
	case KeyControl:
		st.Control = true
	case KeyEnter:
		if st.Tool == ToolPolygon && len(st.clicks) >= 3 {
			e.insert(shape.NewPolygon(st.clicks, st.Style))
			st.clicks = nil
			return true
		}
	case KeyEscape:
		changed := len(st.clicks) > 0 || st.textAnchor != nil
		st.clicks = nil
		st.textAnchor = nil
		if g := st.gesture; g != nil && g.kind != gestureTransform {
			e.end(st)
			changed = true
		}
		return changed
	}
	return false
}

func (e *Editor) keyUp(st *State, key string) bool {
	switch key {
	case KeyShift:
		st.Shift = false
	case KeyControl:
		st.Control = false
	}
	return false
}

// dragShape builds the shape a drag from a to b describes, or nil when the
// drag is too small.
func dragShape(t Tool, a, b geom.Point, style shape.Style) shape.Shape {
	d := geom.Distance(a, b)
	dx, dy := math.Abs(b.X-a.X), math.Abs(b.Y-a.Y)
	switch t {
	case ToolCircle:
		if d > MinSize {
			return shape.NewCircle(a, b, style)
		}
	case ToolArc:
		if d > MinSize {
			return shape.NewArc(a, b, style)
		}
	case ToolLine:
		if d > MinSize {
			return shape.NewLine(a, b, style)
		}
	case ToolRectangle:
		if dx > MinSize && dy > MinSize {
			return shape.NewRectangle(a, b, style)
		}
	case ToolEllipse:
		if dx > MinSize && dy > MinSize {
			return shape.NewEllipse(a, b, style)
		}
	}
	return nil
}

func (e *Editor) insert(sh shape.Shape) bool {
	if err := shape.Prepare(sh, e.measurer); err != nil {
		slog.Warn("discarding shape", "kind", sh.Kind(), "error", err)
		return false
	}
	e.scene.Insert(sh)
	return true
}

// --- Tools and styles ---

// SetTool switches tools and abandons anything half-drawn.
func (e *Editor) SetTool(st *State, t Tool) {
	st.Tool = t
	st.clicks = nil
	st.textAnchor = nil
	if st.gesture != nil {
		e.end(st)
	}
}

// ConfirmText places text at the pending anchor. Blank text creates
// nothing.
func (e *Editor) ConfirmText(st *State, text string) (bool, error) {
	at, ok := st.PendingText()
	if !ok {
		return false, ErrNoPendingText
	}
	st.textAnchor = nil
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}
	return e.insert(shape.NewText(at, text, e.measurer, st.Style)), nil
}

func (e *Editor) CancelText(st *State) {
	st.textAnchor = nil
}

// ApplyStyle copies st's stroke, width and fill onto the selected shape.
// Shapes that never fill keep an empty fill.
func (e *Editor) ApplyStyle(st *State) error {
	sh := e.selected(st)
	if sh == nil {
		return ErrNoSelection
	}
	attrs := sh.Attributes()
	attrs.Stroke = st.Style.Stroke
	if attrs.Stroke == "" {
		attrs.Stroke = shape.DefaultStroke
	}
	attrs.StrokeWidth = st.Style.StrokeWidth
	if !(attrs.StrokeWidth > 0) {
		attrs.StrokeWidth = 1
	}
	if shape.AcceptsFill(sh) {
		attrs.Fill = st.Style.Fill
	}
	return nil
}

// DeleteSelected removes the selected shape.
func (e *Editor) DeleteSelected(st *State) error {
	sh := e.selected(st)
	if sh == nil {
		return ErrNoSelection
	}
	st.Selected = ""
	return e.scene.Remove(sh.ID())
}

// selected resolves st's selection, clearing it when the shape is gone.
func (e *Editor) selected(st *State) shape.Shape {
	if st.Selected == "" {
		return nil
	}
	sh, _ := e.scene.Find(st.Selected)
	if sh == nil {
		st.Selected = ""
	}
	return sh
}

// --- Layers ---

func (e *Editor) AddLayer(name string) *scene.Layer {
	return e.scene.AddLayer(name)
}

// DeleteLayer removes a layer and abandons image decodes bound to it.
func (e *Editor) DeleteLayer(id string) error {
	if _, err := e.scene.DeleteLayer(id); err != nil {
		return err
	}
	e.cancelTasks(id)
	return nil
}

func (e *Editor) ClearLayer(id string) error {
	if err := e.scene.ClearLayer(id); err != nil {
		return err
	}
	e.cancelTasks(id)
	return nil
}

// Clear empties every layer.
func (e *Editor) Clear() {
	e.scene.Clear()
	e.cancelAll()
}

// --- Documents ---

// Save encodes the scene.
func (e *Editor) Save() ([]byte, error) {
	return document.Save(e.scene)
}

// Load replaces the scene with a saved document. On error the current
// scene is left untouched.
func (e *Editor) Load(data []byte) (*document.Result, error) {
	res, err := document.Load(data, document.Options{Registry: e.registry, Measurer: e.measurer})
	if err != nil {
		return nil, err
	}
	e.cancelAll()
	if err := res.Apply(e.scene); err != nil {
		return nil, err
	}
	if e.active != nil {
		e.end(e.active)
	}
	for _, req := range res.Images {
		e.spawn(Completion{LayerID: req.LayerID, Src: req.Shape.Src, target: req.Shape})
	}
	return res, nil
}

// LoadSample replaces the scene with the built-in sample drawing.
func (e *Editor) LoadSample() {
	e.cancelAll()
	e.scene = document.NewSampleScene(e.measurer)
	e.active = nil
}

// --- Queries ---

// HitTest returns the id of the topmost shape under p, or "".
func (e *Editor) HitTest(p geom.Point) string {
	if hit, _ := e.scene.HitTest(p); hit != nil {
		return hit.ID()
	}
	return ""
}

// SelectionBounds returns the world bounds of st's selected shape.
func (e *Editor) SelectionBounds(st *State) (geom.Rect, bool) {
	sh := e.selected(st)
	if sh == nil {
		return geom.Rect{}, false
	}
	return shape.WorldBounds(sh), true
}

// --- Images ---

// Completion is a finished image decode waiting to be applied.
type Completion struct {
	LayerID string
	Src     string
	Image   image.Image
	Err     error

	task   uint64
	target *shape.Image
	at     geom.Point
}

// Inbox delivers finished decodes to the editor's owner.
func (e *Editor) Inbox() <-chan Completion { return e.inbox }

// InsertImage decodes src in the background and places it on the active
// layer at p once the pixels arrive.
func (e *Editor) InsertImage(src string, p geom.Point) error {
	if e.decoder == nil {
		return ErrNoDecoder
	}
	e.spawn(Completion{LayerID: e.scene.Active().ID, Src: src, at: p})
	return nil
}

func (e *Editor) spawn(c Completion) {
	if e.decoder == nil {
		return
	}
	ctx, cancel := context.WithCancel(e.ctx)
	e.mu.Lock()
	e.nextTask++
	c.task = e.nextTask
	if e.tasks[c.LayerID] == nil {
		e.tasks[c.LayerID] = make(map[uint64]context.CancelFunc)
	}
	e.tasks[c.LayerID][c.task] = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		c.Image, c.Err = e.decoder.Decode(ctx, c.Src)
		if ctx.Err() != nil {
			e.claim(c.LayerID, c.task)
			return
		}
		select {
		case e.inbox <- c:
		case <-ctx.Done():
			e.claim(c.LayerID, c.task)
		}
	}()
}

// claim removes a task and reports whether it was still live.
func (e *Editor) claim(layerID string, task uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cancel, ok := e.tasks[layerID][task]
	if !ok {
		return false
	}
	cancel()
	delete(e.tasks[layerID], task)
	if len(e.tasks[layerID]) == 0 {
		delete(e.tasks, layerID)
	}
	return true
}

func (e *Editor) cancelTasks(layerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, cancel := range e.tasks[layerID] {
		cancel()
	}
	delete(e.tasks, layerID)
}

func (e *Editor) cancelAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, set := range e.tasks {
		for _, cancel := range set {
			cancel()
		}
		delete(e.tasks, id)
	}
}

// Pending is the number of decodes not yet applied or abandoned.
func (e *Editor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, set := range e.tasks {
		n += len(set)
	}
	return n
}

// Complete applies a finished decode. It is dropped when the task was
// abandoned, its layer is gone, or the image shape it was loading has been
// removed.
func (e *Editor) Complete(c Completion) bool {
	if !e.claim(c.LayerID, c.task) {
		return false
	}
	l, ok := e.scene.Layer(c.LayerID)
	if !ok {
		return false
	}
	if c.Err != nil {
		slog.Warn("image decode failed", "src", truncate(c.Src), "error", c.Err)
		return false
	}

	if c.target != nil {
		if l.Index(c.target.ID()) < 0 {
			return false
		}
		c.target.Attach(c.Image)
		return true
	}

	b := c.Image.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if w <= 0 || h <= 0 {
		return false
	}
	f := math.Min(1, maxImageSize/math.Max(w, h))
	box := geom.Rect{X: c.at.X, Y: c.at.Y, Width: w * f, Height: h * f}
	img := shape.NewImage(box, &shape.Bitmap{Src: c.Src, Image: c.Image}, shape.Style{})
	if err := shape.Prepare(img, e.measurer); err != nil {
		slog.Warn("discarding image", "error", err)
		return false
	}
	l.Add(img)
	return true
}

// Drain applies every completion already waiting without blocking.
func (e *Editor) Drain() int {
	n := 0
	for {
		select {
		case c := <-e.inbox:
			if e.Complete(c) {
				n++
			}
		default:
			return n
		}
	}
}

// truncate shortens s to at most 48 runes for logging.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= 48 {
		return s
	}
	r := []rune(s)
	return fmt.Sprintf("%s...", string(r[:48]))
}
