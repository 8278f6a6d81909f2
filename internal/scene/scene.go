// Package scene holds the ordered layer stack that shapes live in and
// composes it onto a surface.
package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/shape"
)

var (
	ErrLastLayer     = errors.New("cannot delete the last layer")
	ErrLayerNotFound = errors.New("layer not found")
	ErrShapeNotFound = errors.New("shape not found")
	ErrNoLayers      = errors.New("scene needs at least one layer")
)

// Scene is an ordered stack of layers, index 0 at the bottom. It always
// holds at least one layer and exactly one of them is active.
type Scene struct {
	layers []*Layer
	active string
}

// New returns a scene with a single empty layer.
func New() *Scene {
	l := NewLayer("Layer 1")
	return &Scene{layers: []*Layer{l}, active: l.ID}
}

// Layers returns the layers bottom to top. The slice is a copy.
func (s *Scene) Layers() []*Layer {
	return slices.Clone(s.layers)
}

func (s *Scene) Len() int { return len(s.layers) }

// Layer looks up a layer by id.
func (s *Scene) Layer(id string) (*Layer, bool) {
	i := s.index(id)
	if i < 0 {
		return nil, false
	}
	return s.layers[i], true
}

func (s *Scene) index(id string) int {
	return slices.IndexFunc(s.layers, func(l *Layer) bool { return l.ID == id })
}

// Active returns the insertion target for new shapes.
func (s *Scene) Active() *Layer {
	if l, ok := s.Layer(s.active); ok {
		return l
	}
	s.active = s.layers[0].ID
	return s.layers[0]
}

func (s *Scene) SetActive(id string) error {
	if s.index(id) < 0 {
		return fmt.Errorf("activate %s: %w", id, ErrLayerNotFound)
	}
	s.active = id
	return nil
}

// AddLayer pushes a new layer on top and makes it active. An empty name
// gets a numbered default.
func (s *Scene) AddLayer(name string) *Layer {
	if name == "" {
		name = fmt.Sprintf("Layer %d", len(s.layers)+1)
	}
	l := NewLayer(name)
	s.layers = append(s.layers, l)
	s.active = l.ID
	return l
}

// DeleteLayer removes a layer and every shape it owns. The last layer
// cannot be deleted. Deleting the active layer activates the bottom one.
func (s *Scene) DeleteLayer(id string) (*Layer, error) {
	i := s.index(id)
	if i < 0 {
		return nil, fmt.Errorf("delete %s: %w", id, ErrLayerNotFound)
	}
	if len(s.layers) == 1 {
		return nil, ErrLastLayer
	}
	l := s.layers[i]
	s.layers = slices.Delete(s.layers, i, i+1)
	if s.active == id {
		s.active = s.layers[0].ID
	}
	return l, nil
}

func (s *Scene) RenameLayer(id, name string) error {
	l, ok := s.Layer(id)
	if !ok {
		return fmt.Errorf("rename %s: %w", id, ErrLayerNotFound)
	}
	l.Name = name
	return nil
}

func (s *Scene) SetVisible(id string, visible bool) error {
	l, ok := s.Layer(id)
	if !ok {
		return fmt.Errorf("show %s: %w", id, ErrLayerNotFound)
	}
	l.Visible = visible
	return nil
}

func (s *Scene) SetOpacity(id string, opacity float64) error {
	l, ok := s.Layer(id)
	if !ok {
		return fmt.Errorf("set opacity %s: %w", id, ErrLayerNotFound)
	}
	l.SetOpacity(opacity)
	return nil
}

// MoveLayer moves a layer to position to, clamped to the stack.
func (s *Scene) MoveLayer(id string, to int) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("move %s: %w", id, ErrLayerNotFound)
	}
	to = max(0, min(to, len(s.layers)-1))
	l := s.layers[i]
	s.layers = slices.Delete(s.layers, i, i+1)
	s.layers = slices.Insert(s.layers, to, l)
	return nil
}

// Insert adds sh on top of the active layer.
func (s *Scene) Insert(sh shape.Shape) *Layer {
	l := s.Active()
	l.Add(sh)
	return l
}

// HitTest searches visible layers top to bottom and, within a layer, the
// most recently added shape first.
func (s *Scene) HitTest(p geom.Point) (shape.Shape, *Layer) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if hit := s.layers[i].HitTest(p); hit != nil {
			return hit, s.layers[i]
		}
	}
	return nil, nil
}

// Erase removes the first shape hit from the top. It returns nil when
// nothing is under p.
func (s *Scene) Erase(p geom.Point) shape.Shape {
	hit, l := s.HitTest(p)
	if hit == nil {
		return nil
	}
	l.Remove(hit.ID())
	return hit
}

// Find locates a shape and its owning layer by id.
func (s *Scene) Find(id string) (shape.Shape, *Layer) {
	for _, l := range s.layers {
		if i := l.Index(id); i >= 0 {
			return l.Shapes[i], l
		}
	}
	return nil, nil
}

// Remove deletes a shape from whichever layer owns it.
func (s *Scene) Remove(id string) error {
	for _, l := range s.layers {
		if _, ok := l.Remove(id); ok {
			return nil
		}
	}
	return fmt.Errorf("remove %s: %w", id, ErrShapeNotFound)
}

// ClearLayer drops every shape in one layer.
func (s *Scene) ClearLayer(id string) error {
	l, ok := s.Layer(id)
	if !ok {
		return fmt.Errorf("clear %s: %w", id, ErrLayerNotFound)
	}
	l.Shapes = nil
	return nil
}

// Clear drops every shape and keeps the layers.
func (s *Scene) Clear() {
	for _, l := range s.layers {
		l.Shapes = nil
	}
}

// Replace swaps in a new layer stack atomically. The first layer becomes
// active.
func (s *Scene) Replace(layers []*Layer) error {
	if len(layers) == 0 {
		return ErrNoLayers
	}
	s.layers = slices.Clone(layers)
	s.active = s.layers[0].ID
	return nil
}

// ShapeCount is the number of shapes across all layers.
func (s *Scene) ShapeCount() int {
	n := 0
	for _, l := range s.layers {
		n += len(l.Shapes)
	}
	return n
}

// Bounds is the union of every visible layer's bounds.
func (s *Scene) Bounds() geom.Rect {
	var r geom.Rect
	for _, l := range s.layers {
		if l.Visible {
			r = r.Union(l.Bounds())
		}
	}
	return r
}

// Render paints layers bottom to top. selectedID highlights one shape.
func (s *Scene) Render(surf shape.Surface, selectedID string) {
	for _, l := range s.layers {
		l.Render(surf, selectedID)
	}
}
