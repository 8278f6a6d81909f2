package shape

import (
	"math"

	"github.com/inamate/sketchboard/internal/geom"
)

// Ellipse is axis-aligned in its local frame.
type Ellipse struct {
	base
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	RadiusX float64 `json:"radiusX"`
	RadiusY float64 `json:"radiusY"`
}

// NewEllipse builds the ellipse inscribed in the box spanned by a and b.
func NewEllipse(a, b geom.Point, style Style) *Ellipse {
	r := geom.RectFromCorners(a, b)
	c := r.Center()
	return &Ellipse{base: newBase(style), X: c.X, Y: c.Y, RadiusX: r.Width / 2, RadiusY: r.Height / 2}
}

func (e *Ellipse) Kind() Kind { return KindEllipse }

func (e *Ellipse) Centroid() geom.Point { return geom.Pt(e.X, e.Y) }

func (e *Ellipse) Bounds() geom.Rect {
	return geom.Rect{X: e.X - e.RadiusX, Y: e.Y - e.RadiusY, Width: 2 * e.RadiusX, Height: 2 * e.RadiusY}
}

func (e *Ellipse) HitTest(p geom.Point) bool {
	return e.Bounds().Expand(e.StrokeWidth + BoxTolerance).Contains(local(e, p))
}

func (e *Ellipse) Draw(s Surface, selected bool) {
	stroke, fill := e.paints(selected)
	s.BeginPath()
	s.Ellipse(e.X, e.Y, e.RadiusX, e.RadiusY, 0, 0, 2*math.Pi)
	fillPath(s, fill)
	strokePath(s, stroke, e.StrokeWidth)
}

func (e *Ellipse) Translate(dx, dy float64) {
	e.X += dx
	e.Y += dy
}

func (e *Ellipse) Scale(f float64, pivot geom.Point) {
	c := geom.ScaleAbout(e.Centroid(), pivot, f)
	e.X, e.Y = c.X, c.Y
	e.RadiusX *= f
	e.RadiusY *= f
}

func (e *Ellipse) Rotate(delta float64, pivot geom.Point) {
	e.Rotation += delta
}

func (e *Ellipse) prepare(TextMeasurer) error {
	if !validNumber(e.X, e.Y, e.RadiusX, e.RadiusY) || e.RadiusX < 0 || e.RadiusY < 0 {
		return ErrInvalidGeometry
	}
	return nil
}

func (e *Ellipse) MarshalJSON() ([]byte, error) {
	type plain Ellipse
	return marshalTagged(KindEllipse, (*plain)(e))
}
