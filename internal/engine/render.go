package engine

import (
	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/shape"
)

const (
	dragGuideColor  = shape.GuideColor
	clickGuideColor = "rgba(0,0,0,0.5)"
)

var previewDash = []float64{5, 5}

// Render paints the scene with st's selection highlighted, then whatever
// st has in progress.
func (e *Editor) Render(st *State, surf shape.Surface) {
	var selected string
	if st != nil {
		if sh := e.selected(st); sh != nil {
			selected = sh.ID()
		}
	}
	e.scene.Render(surf, selected)
	if st != nil {
		e.renderPreview(st, surf)
	}
}

func (e *Editor) renderPreview(st *State, surf shape.Surface) {
	if g := st.gesture; g != nil {
		switch g.kind {
		case gestureFreehand:
			shape.Render(surf, g.stroke, false)
		case gestureDraw:
			if sh := previewShape(st.Tool, g.start, g.prev, st.Style); sh != nil {
				shape.Render(surf, sh, false)
			}
			if st.Tool != ToolLine {
				guide(surf, dragGuideColor, g.start, g.prev)
			}
		}
	}

	switch n := len(st.clicks); {
	case st.Tool == ToolTriangle && n > 0:
		guide(surf, clickGuideColor, st.clicks[0], second(st))
		if n == 2 {
			guide(surf, clickGuideColor, st.clicks[1], st.Pointer)
			guide(surf, clickGuideColor, st.Pointer, st.clicks[0])
		}
	case st.Tool == ToolPolygon && n > 0:
		for i := 1; i < n; i++ {
			guide(surf, clickGuideColor, st.clicks[i-1], st.clicks[i])
		}
		guide(surf, clickGuideColor, st.clicks[n-1], st.Pointer)
	}

	if at, ok := st.PendingText(); ok {
		size := shape.FontSizePerStroke * st.Style.StrokeWidth
		guide(surf, clickGuideColor, at, at.Add(0, -size))
	}
}

// second is the triangle's second vertex, or the pointer while only one
// has been placed.
func second(st *State) geom.Point {
	if len(st.clicks) > 1 {
		return st.clicks[1]
	}
	return st.Pointer
}

func previewShape(t Tool, a, b geom.Point, style shape.Style) shape.Shape {
	switch t {
	case ToolCircle:
		return shape.NewCircle(a, b, style)
	case ToolArc:
		return shape.NewArc(a, b, style)
	case ToolLine:
		return shape.NewLine(a, b, style)
	case ToolRectangle:
		return shape.NewRectangle(a, b, style)
	case ToolEllipse:
		return shape.NewEllipse(a, b, style)
	}
	return nil
}

func guide(surf shape.Surface, color string, from, to geom.Point) {
	surf.Save()
	surf.BeginPath()
	surf.SetStrokeStyle(color)
	surf.SetLineWidth(1)
	surf.SetLineDash(previewDash)
	surf.MoveTo(from.X, from.Y)
	surf.LineTo(to.X, to.Y)
	surf.Stroke()
	surf.Restore()
}
