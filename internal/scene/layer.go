package scene

import (
	"math"
	"slices"

	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/shape"
	"github.com/inamate/sketchboard/internal/typeid"
)

// Layer owns an ordered list of shapes. Insertion order is paint order.
type Layer struct {
	ID      string
	Name    string
	Visible bool
	Opacity float64
	Shapes  []shape.Shape
}

// NewLayer creates a visible, fully opaque, empty layer.
func NewLayer(name string) *Layer {
	return &Layer{
		ID:      typeid.NewLayerID(),
		Name:    name,
		Visible: true,
		Opacity: 1,
	}
}

// ClampOpacity limits v to [0, 1]. NaN becomes 1.
func ClampOpacity(v float64) float64 {
	if math.IsNaN(v) {
		return 1
	}
	return math.Max(0, math.Min(1, v))
}

func (l *Layer) SetOpacity(v float64) {
	l.Opacity = ClampOpacity(v)
}

// Add appends s on top of the layer.
func (l *Layer) Add(s shape.Shape) {
	l.Shapes = append(l.Shapes, s)
}

// Index returns the position of the shape with id, or -1.
func (l *Layer) Index(id string) int {
	return slices.IndexFunc(l.Shapes, func(s shape.Shape) bool { return s.ID() == id })
}

// Remove detaches the shape with id from the layer.
func (l *Layer) Remove(id string) (shape.Shape, bool) {
	i := l.Index(id)
	if i < 0 {
		return nil, false
	}
	s := l.Shapes[i]
	l.Shapes = slices.Delete(l.Shapes, i, i+1)
	return s, true
}

// HitTest returns the topmost shape under p. Invisible layers never hit.
func (l *Layer) HitTest(p geom.Point) shape.Shape {
	if !l.Visible {
		return nil
	}
	for i := len(l.Shapes) - 1; i >= 0; i-- {
		if l.Shapes[i].HitTest(p) {
			return l.Shapes[i]
		}
	}
	return nil
}

// Render paints the layer's shapes with its opacity as global alpha, then
// restores full opacity.
func (l *Layer) Render(surf shape.Surface, selectedID string) {
	if !l.Visible {
		return
	}
	surf.SetGlobalAlpha(l.Opacity)
	for _, s := range l.Shapes {
		shape.Render(surf, s, selectedID != "" && s.ID() == selectedID)
	}
	surf.SetGlobalAlpha(1)
}

// Bounds is the union of the drawn bounds of every shape.
func (l *Layer) Bounds() geom.Rect {
	var r geom.Rect
	for _, s := range l.Shapes {
		r = r.Union(shape.WorldBounds(s))
	}
	return r
}
