package engine

import (
	"fmt"

	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/shape"
)

// Tool is what a pointer press does.
type Tool string

const (
	ToolSelect    Tool = "select"
	ToolCircle    Tool = "circle"
	ToolRectangle Tool = "rectangle"
	ToolLine      Tool = "line"
	ToolArc       Tool = "arc"
	ToolEllipse   Tool = "ellipse"
	ToolTriangle  Tool = "triangle"
	ToolPolygon   Tool = "polygon"
	ToolFreehand  Tool = "freehand"
	ToolText      Tool = "text"
	ToolEraser    Tool = "eraser"
)

var tools = map[Tool]bool{
	ToolSelect: true, ToolCircle: true, ToolRectangle: true, ToolLine: true,
	ToolArc: true, ToolEllipse: true, ToolTriangle: true, ToolPolygon: true,
	ToolFreehand: true, ToolText: true, ToolEraser: true,
}

// ParseTool validates a tool name. "none" is accepted as select.
func ParseTool(s string) (Tool, error) {
	if s == "none" {
		return ToolSelect, nil
	}
	t := Tool(s)
	if !tools[t] {
		return "", fmt.Errorf("unknown tool %q", s)
	}
	return t, nil
}

// draggable tools create their shape from one press-drag-release.
func (t Tool) draggable() bool {
	switch t {
	case ToolCircle, ToolRectangle, ToolLine, ToolArc, ToolEllipse:
		return true
	}
	return false
}

type gestureKind int

const (
	gestureTransform gestureKind = iota
	gestureDraw
	gestureFreehand
)

// gesture is one pointer-down to pointer-up interaction.
type gesture struct {
	kind   gestureKind
	start  geom.Point
	prev   geom.Point
	target shape.Shape
	stroke *shape.Freehand
}

// State is everything one client's input has accumulated: the selected
// tool and style, held modifiers, the selection and any half-finished
// drawing. The editor never keeps these as ambient fields.
type State struct {
	Tool     Tool
	Style    shape.Style
	Shift    bool
	Control  bool
	Selected string
	Pointer  geom.Point

	clicks     []geom.Point
	textAnchor *geom.Point
	gesture    *gesture
}

// NewState starts with the select tool and a 2px black stroke.
func NewState() *State {
	return &State{
		Tool:  ToolSelect,
		Style: shape.Style{Stroke: shape.DefaultStroke, StrokeWidth: 2},
	}
}

// Busy reports whether a gesture is in progress.
func (s *State) Busy() bool { return s.gesture != nil }

// PendingText returns the anchor waiting for ConfirmText.
func (s *State) PendingText() (geom.Point, bool) {
	if s.textAnchor == nil {
		return geom.Point{}, false
	}
	return *s.textAnchor, true
}

// Clicks returns the vertices collected so far for a triangle or polygon.
func (s *State) Clicks() []geom.Point {
	return append([]geom.Point(nil), s.clicks...)
}

func (s *State) reset() {
	s.clicks = nil
	s.textAnchor = nil
	s.gesture = nil
}
