package shape

import "github.com/inamate/sketchboard/internal/geom"

// Line is a single stroked segment.
type Line struct {
	base
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func NewLine(a, b geom.Point, style Style) *Line {
	style.Fill = ""
	return &Line{base: newBase(style), X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}
}

func (l *Line) Kind() Kind { return KindLine }

func (l *Line) Centroid() geom.Point {
	return geom.Pt((l.X1+l.X2)/2, (l.Y1+l.Y2)/2)
}

func (l *Line) Bounds() geom.Rect {
	return geom.RectFromCorners(geom.Pt(l.X1, l.Y1), geom.Pt(l.X2, l.Y2))
}

func (l *Line) HitTest(p geom.Point) bool {
	d := geom.DistToSegment(local(l, p), geom.Pt(l.X1, l.Y1), geom.Pt(l.X2, l.Y2))
	return d <= l.StrokeWidth+LineTolerance
}

func (l *Line) Draw(s Surface, selected bool) {
	stroke, _ := l.paints(selected)
	s.BeginPath()
	s.MoveTo(l.X1, l.Y1)
	s.LineTo(l.X2, l.Y2)
	strokePath(s, stroke, l.StrokeWidth)
}

func (l *Line) Translate(dx, dy float64) {
	l.X1 += dx
	l.Y1 += dy
	l.X2 += dx
	l.Y2 += dy
}

func (l *Line) Scale(f float64, pivot geom.Point) {
	a := geom.ScaleAbout(geom.Pt(l.X1, l.Y1), pivot, f)
	b := geom.ScaleAbout(geom.Pt(l.X2, l.Y2), pivot, f)
	l.X1, l.Y1, l.X2, l.Y2 = a.X, a.Y, b.X, b.Y
}

func (l *Line) Rotate(delta float64, pivot geom.Point) {
	l.Rotation += delta
}

func (l *Line) prepare(TextMeasurer) error {
	if !validNumber(l.X1, l.Y1, l.X2, l.Y2) {
		return ErrInvalidGeometry
	}
	return nil
}

func (l *Line) MarshalJSON() ([]byte, error) {
	type plain Line
	return marshalTagged(KindLine, (*plain)(l))
}
