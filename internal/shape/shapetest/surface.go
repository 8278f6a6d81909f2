// Package shapetest provides a recording Surface for tests.
package shapetest

import (
	"fmt"
	"strings"

	"github.com/inamate/sketchboard/internal/shape"
)

// Call is one recorded surface operation.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Op
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprint(a)
	}
	return c.Op + "(" + strings.Join(parts, ",") + ")"
}

// Surface records every call made on it. Text is measured at 0.5 of the
// font size per rune.
type Surface struct {
	Calls []Call
}

var _ shape.Surface = (*Surface)(nil)

func (s *Surface) rec(op string, args ...any) {
	s.Calls = append(s.Calls, Call{Op: op, Args: args})
}

// Ops returns the operation names in call order.
func (s *Surface) Ops() []string {
	out := make([]string, len(s.Calls))
	for i, c := range s.Calls {
		out[i] = c.Op
	}
	return out
}

// Find returns every call with the given operation name.
func (s *Surface) Find(op string) []Call {
	var out []Call
	for _, c := range s.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Has reports whether op was called with exactly args.
func (s *Surface) Has(op string, args ...any) bool {
	want := Call{Op: op, Args: args}.String()
	for _, c := range s.Calls {
		if c.String() == want {
			return true
		}
	}
	return false
}

func (s *Surface) Reset() { s.Calls = nil }

func (s *Surface) MeasureText(text string, size float64) float64 {
	return 0.5 * size * float64(len([]rune(text)))
}

func (s *Surface) Save()                  { s.rec("Save") }
func (s *Surface) Restore()               { s.rec("Restore") }
func (s *Surface) Translate(x, y float64) { s.rec("Translate", x, y) }
func (s *Surface) Rotate(angle float64)   { s.rec("Rotate", angle) }
func (s *Surface) SetGlobalAlpha(a float64) {
	s.rec("SetGlobalAlpha", a)
}

func (s *Surface) BeginPath()          { s.rec("BeginPath") }
func (s *Surface) ClosePath()          { s.rec("ClosePath") }
func (s *Surface) MoveTo(x, y float64) { s.rec("MoveTo", x, y) }
func (s *Surface) LineTo(x, y float64) { s.rec("LineTo", x, y) }
func (s *Surface) Arc(x, y, r, start, end float64) {
	s.rec("Arc", x, y, r, start, end)
}
func (s *Surface) Ellipse(x, y, rx, ry, rot, start, end float64) {
	s.rec("Ellipse", x, y, rx, ry, rot, start, end)
}
func (s *Surface) Rect(x, y, w, h float64) { s.rec("Rect", x, y, w, h) }

func (s *Surface) SetFillStyle(c string)     { s.rec("SetFillStyle", c) }
func (s *Surface) SetStrokeStyle(c string)   { s.rec("SetStrokeStyle", c) }
func (s *Surface) SetLineWidth(w float64)    { s.rec("SetLineWidth", w) }
func (s *Surface) SetLineDash(seg []float64) { s.rec("SetLineDash", seg) }
func (s *Surface) SetLineCap(c string)       { s.rec("SetLineCap", c) }
func (s *Surface) Fill()                     { s.rec("Fill") }
func (s *Surface) Stroke()                   { s.rec("Stroke") }

func (s *Surface) FillText(text string, x, y, size float64) {
	s.rec("FillText", text, x, y, size)
}

func (s *Surface) StrokeText(text string, x, y, size float64) {
	s.rec("StrokeText", text, x, y, size)
}

func (s *Surface) DrawImage(b *shape.Bitmap, x, y, w, h float64) {
	s.rec("DrawImage", b.Src, x, y, w, h)
}
