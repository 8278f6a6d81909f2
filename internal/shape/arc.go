package shape

import (
	"math"

	"github.com/inamate/sketchboard/internal/geom"
)

// Arc is a circular arc between two angles, plus the radius handle it was
// dragged out with.
type Arc struct {
	base
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Radius       float64 `json:"radius"`
	StartAngle   float64 `json:"startAngle"`
	EndAngle     float64 `json:"endAngle"`
	RadiusPointX float64 `json:"radiusPointX"`
	RadiusPointY float64 `json:"radiusPointY"`
}

// NewArc builds the half circle facing handle, centered at c.
func NewArc(c, handle geom.Point, style Style) *Arc {
	angle := math.Atan2(handle.Y-c.Y, handle.X-c.X)
	return &Arc{
		base:         newBase(style),
		X:            c.X,
		Y:            c.Y,
		Radius:       geom.Distance(c, handle),
		StartAngle:   angle - math.Pi/2,
		EndAngle:     angle + math.Pi/2,
		RadiusPointX: handle.X,
		RadiusPointY: handle.Y,
	}
}

func (a *Arc) Kind() Kind { return KindArc }

func (a *Arc) Centroid() geom.Point { return geom.Pt(a.X, a.Y) }

func (a *Arc) Bounds() geom.Rect {
	return geom.Rect{X: a.X - a.Radius, Y: a.Y - a.Radius, Width: 2 * a.Radius, Height: 2 * a.Radius}
}

func (a *Arc) HitTest(p geom.Point) bool {
	p = local(a, p)
	d := geom.Distance(p, a.Centroid())
	return math.Abs(d-a.Radius) <= a.StrokeWidth+RingTolerance
}

func (a *Arc) Draw(s Surface, selected bool) {
	stroke, fill := a.paints(selected)
	if fill != "" {
		s.BeginPath()
		s.MoveTo(a.X, a.Y)
		s.Arc(a.X, a.Y, a.Radius, a.StartAngle, a.EndAngle)
		s.ClosePath()
		fillPath(s, fill)
	}
	s.BeginPath()
	s.Arc(a.X, a.Y, a.Radius, a.StartAngle, a.EndAngle)
	strokePath(s, stroke, a.StrokeWidth)
	drawGuide(s, a.Centroid(), geom.Pt(a.RadiusPointX, a.RadiusPointY))
}

func (a *Arc) Translate(dx, dy float64) {
	a.X += dx
	a.Y += dy
	a.RadiusPointX += dx
	a.RadiusPointY += dy
}

func (a *Arc) Scale(f float64, pivot geom.Point) {
	center := geom.ScaleAbout(a.Centroid(), pivot, f)
	handle := geom.ScaleAbout(geom.Pt(a.RadiusPointX, a.RadiusPointY), pivot, f)
	a.X, a.Y = center.X, center.Y
	a.RadiusPointX, a.RadiusPointY = handle.X, handle.Y
	a.Radius *= f
}

func (a *Arc) Rotate(delta float64, pivot geom.Point) {
	a.Rotation += delta
}

func (a *Arc) prepare(TextMeasurer) error {
	if !validNumber(a.X, a.Y, a.Radius, a.StartAngle, a.EndAngle, a.RadiusPointX, a.RadiusPointY) || a.Radius <= 0 {
		return ErrInvalidGeometry
	}
	if a.RadiusPointX == 0 && a.RadiusPointY == 0 {
		mid := (a.StartAngle + a.EndAngle) / 2
		a.RadiusPointX = a.X + a.Radius*math.Cos(mid)
		a.RadiusPointY = a.Y + a.Radius*math.Sin(mid)
	}
	return nil
}

func (a *Arc) MarshalJSON() ([]byte, error) {
	type plain Arc
	return marshalTagged(KindArc, (*plain)(a))
}
