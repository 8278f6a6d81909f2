package shape

import (
	"math"

	"github.com/inamate/sketchboard/internal/geom"
)

// Circle is a full circle with a handle point on its rim.
type Circle struct {
	base
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}

// NewCircle builds a circle centered at c whose radius reaches handle.
func NewCircle(c, handle geom.Point, style Style) *Circle {
	return &Circle{
		base:   newBase(style),
		X:      c.X,
		Y:      c.Y,
		Radius: geom.Distance(c, handle),
		EndX:   handle.X,
		EndY:   handle.Y,
	}
}

func (c *Circle) Kind() Kind { return KindCircle }

func (c *Circle) Centroid() geom.Point { return geom.Pt(c.X, c.Y) }

func (c *Circle) Bounds() geom.Rect {
	return geom.Rect{X: c.X - c.Radius, Y: c.Y - c.Radius, Width: 2 * c.Radius, Height: 2 * c.Radius}
}

func (c *Circle) HitTest(p geom.Point) bool {
	p = local(c, p)
	d := geom.Distance(p, c.Centroid())
	return math.Abs(d-c.Radius) <= c.StrokeWidth+RingTolerance
}

func (c *Circle) Draw(s Surface, selected bool) {
	stroke, fill := c.paints(selected)
	s.BeginPath()
	s.Arc(c.X, c.Y, c.Radius, 0, 2*math.Pi)
	fillPath(s, fill)
	strokePath(s, stroke, c.StrokeWidth)
	drawGuide(s, c.Centroid(), geom.Pt(c.EndX, c.EndY))
}

func (c *Circle) Translate(dx, dy float64) {
	c.X += dx
	c.Y += dy
	c.EndX += dx
	c.EndY += dy
}

func (c *Circle) Scale(f float64, pivot geom.Point) {
	center := geom.ScaleAbout(c.Centroid(), pivot, f)
	end := geom.ScaleAbout(geom.Pt(c.EndX, c.EndY), pivot, f)
	c.X, c.Y = center.X, center.Y
	c.EndX, c.EndY = end.X, end.Y
	c.Radius *= f
}

func (c *Circle) Rotate(delta float64, pivot geom.Point) {
	c.Rotation += delta
}

func (c *Circle) prepare(TextMeasurer) error {
	if !validNumber(c.X, c.Y, c.Radius, c.EndX, c.EndY) || c.Radius <= 0 {
		return ErrInvalidGeometry
	}
	return nil
}

func (c *Circle) MarshalJSON() ([]byte, error) {
	type plain Circle
	return marshalTagged(KindCircle, (*plain)(c))
}
