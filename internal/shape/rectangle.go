package shape

import "github.com/inamate/sketchboard/internal/geom"

// Rectangle is spanned by two opposite corners in either order.
type Rectangle struct {
	base
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func NewRectangle(a, b geom.Point, style Style) *Rectangle {
	return &Rectangle{base: newBase(style), X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}
}

func (r *Rectangle) Kind() Kind { return KindRectangle }

func (r *Rectangle) Centroid() geom.Point {
	return geom.Pt((r.X1+r.X2)/2, (r.Y1+r.Y2)/2)
}

func (r *Rectangle) Bounds() geom.Rect {
	return geom.RectFromCorners(geom.Pt(r.X1, r.Y1), geom.Pt(r.X2, r.Y2))
}

func (r *Rectangle) HitTest(p geom.Point) bool {
	return r.Bounds().Contains(local(r, p))
}

func (r *Rectangle) Draw(s Surface, selected bool) {
	stroke, fill := r.paints(selected)
	b := r.Bounds()
	s.BeginPath()
	s.Rect(b.X, b.Y, b.Width, b.Height)
	fillPath(s, fill)
	strokePath(s, stroke, r.StrokeWidth)
	drawGuide(s, geom.Pt(r.X1, r.Y1), geom.Pt(r.X2, r.Y2))
}

func (r *Rectangle) Translate(dx, dy float64) {
	r.X1 += dx
	r.Y1 += dy
	r.X2 += dx
	r.Y2 += dy
}

func (r *Rectangle) Scale(f float64, pivot geom.Point) {
	a := geom.ScaleAbout(geom.Pt(r.X1, r.Y1), pivot, f)
	b := geom.ScaleAbout(geom.Pt(r.X2, r.Y2), pivot, f)
	r.X1, r.Y1, r.X2, r.Y2 = a.X, a.Y, b.X, b.Y
}

func (r *Rectangle) Rotate(delta float64, pivot geom.Point) {
	r.Rotation += delta
}

func (r *Rectangle) prepare(TextMeasurer) error {
	if !validNumber(r.X1, r.Y1, r.X2, r.Y2) {
		return ErrInvalidGeometry
	}
	return nil
}

func (r *Rectangle) MarshalJSON() ([]byte, error) {
	type plain Rectangle
	return marshalTagged(KindRectangle, (*plain)(r))
}
