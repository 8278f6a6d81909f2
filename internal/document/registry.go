package document

import (
	"encoding/json"
	"maps"
	"slices"
	"sync"

	"github.com/inamate/sketchboard/internal/shape"
)

// Factory rebuilds a shape from its record.
type Factory func(raw json.RawMessage, m shape.TextMeasurer) (shape.Shape, error)

// Registry maps discriminators to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[shape.Kind]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[shape.Kind]Factory)}
}

// DefaultRegistry knows every built-in variant.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(shape.KindCircle, Decode[shape.Circle])
	r.Register(shape.KindRectangle, Decode[shape.Rectangle])
	r.Register(shape.KindLine, Decode[shape.Line])
	r.Register(shape.KindTriangle, Decode[shape.Triangle])
	r.Register(shape.KindArc, Decode[shape.Arc])
	r.Register(shape.KindEllipse, Decode[shape.Ellipse])
	r.Register(shape.KindPolygon, Decode[shape.Polygon])
	r.Register(shape.KindFreehand, Decode[shape.Freehand])
	r.Register(shape.KindText, Decode[shape.Text])
	r.Register(shape.KindImage, Decode[shape.Image])
	return r
}

// Register installs or replaces the factory for kind.
func (r *Registry) Register(kind shape.Kind, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

func (r *Registry) Lookup(kind shape.Kind) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[kind]
	return f, ok
}

// Kinds lists the registered discriminators, sorted.
func (r *Registry) Kinds() []shape.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// Decode is the factory for any variant whose record is its plain JSON
// encoding.
func Decode[T any, P interface {
	*T
	shape.Shape
}](raw json.RawMessage, m shape.TextMeasurer) (shape.Shape, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	s := P(&v)
	if err := shape.Prepare(s, m); err != nil {
		return nil, err
	}
	return s, nil
}
