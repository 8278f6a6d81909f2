package engine

import "github.com/inamate/sketchboard/internal/geom"

// EventType names an input event.
type EventType string

const (
	PointerDown  EventType = "pointerdown"
	PointerMove  EventType = "pointermove"
	PointerUp    EventType = "pointerup"
	PointerLeave EventType = "pointerleave"
	KeyDown      EventType = "keydown"
	KeyUp        EventType = "keyup"
)

// Key names understood by the editor.
const (
	KeyShift   = "Shift"
	KeyControl = "Control"
	KeyEnter   = "Enter"
	KeyEscape  = "Escape"
)

// Event is one input event in surface-local coordinates.
type Event struct {
	Type EventType `json:"type"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	Key  string    `json:"key,omitempty"`
}

func (e Event) Point() geom.Point { return geom.Pt(e.X, e.Y) }
