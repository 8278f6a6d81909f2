package shape

import "github.com/inamate/sketchboard/internal/geom"

// Triangle stores its three vertices in drawing order.
type Triangle struct {
	base
	P1X float64 `json:"p1x"`
	P1Y float64 `json:"p1y"`
	P2X float64 `json:"p2x"`
	P2Y float64 `json:"p2y"`
	P3X float64 `json:"p3x"`
	P3Y float64 `json:"p3y"`
}

func NewTriangle(p1, p2, p3 geom.Point, style Style) *Triangle {
	t := &Triangle{base: newBase(style)}
	t.setVertices([3]geom.Point{p1, p2, p3})
	return t
}

func (t *Triangle) Kind() Kind { return KindTriangle }

func (t *Triangle) vertices() [3]geom.Point {
	return [3]geom.Point{geom.Pt(t.P1X, t.P1Y), geom.Pt(t.P2X, t.P2Y), geom.Pt(t.P3X, t.P3Y)}
}

func (t *Triangle) setVertices(v [3]geom.Point) {
	t.P1X, t.P1Y = v[0].X, v[0].Y
	t.P2X, t.P2Y = v[1].X, v[1].Y
	t.P3X, t.P3Y = v[2].X, v[2].Y
}

func (t *Triangle) Centroid() geom.Point {
	v := t.vertices()
	return geom.Mean(v[:]...)
}

func (t *Triangle) Bounds() geom.Rect {
	v := t.vertices()
	return geom.BoundsOf(v[:]...)
}

func (t *Triangle) HitTest(p geom.Point) bool {
	return t.Bounds().Contains(local(t, p))
}

func (t *Triangle) Draw(s Surface, selected bool) {
	stroke, fill := t.paints(selected)
	v := t.vertices()
	s.BeginPath()
	s.MoveTo(v[0].X, v[0].Y)
	s.LineTo(v[1].X, v[1].Y)
	s.LineTo(v[2].X, v[2].Y)
	s.ClosePath()
	fillPath(s, fill)
	strokePath(s, stroke, t.StrokeWidth)
}

func (t *Triangle) Translate(dx, dy float64) {
	v := t.vertices()
	for i := range v {
		v[i] = v[i].Add(dx, dy)
	}
	t.setVertices(v)
}

func (t *Triangle) Scale(f float64, pivot geom.Point) {
	v := t.vertices()
	for i := range v {
		v[i] = geom.ScaleAbout(v[i], pivot, f)
	}
	t.setVertices(v)
}

func (t *Triangle) Rotate(delta float64, pivot geom.Point) {
	t.Rotation += delta
}

func (t *Triangle) prepare(TextMeasurer) error {
	if !validNumber(t.P1X, t.P1Y, t.P2X, t.P2Y, t.P3X, t.P3Y) {
		return ErrInvalidGeometry
	}
	return nil
}

func (t *Triangle) MarshalJSON() ([]byte, error) {
	type plain Triangle
	return marshalTagged(KindTriangle, (*plain)(t))
}
