package shape

import (
	"slices"

	"github.com/inamate/sketchboard/internal/geom"
)

// Polygon is a closed path through three or more vertices. Rotation is
// applied to the vertices directly.
type Polygon struct {
	base
	Points []geom.Point `json:"points"`
}

func NewPolygon(points []geom.Point, style Style) *Polygon {
	return &Polygon{base: newBase(style), Points: slices.Clone(points)}
}

func (p *Polygon) Kind() Kind { return KindPolygon }

func (p *Polygon) bakedRotation() {}

func (p *Polygon) Centroid() geom.Point { return geom.Mean(p.Points...) }

func (p *Polygon) Bounds() geom.Rect { return geom.BoundsOf(p.Points...) }

func (p *Polygon) HitTest(q geom.Point) bool {
	return p.Bounds().Expand(p.StrokeWidth + BoxTolerance).Contains(q)
}

func (p *Polygon) Draw(s Surface, selected bool) {
	if len(p.Points) == 0 {
		return
	}
	stroke, fill := p.paints(selected)
	s.BeginPath()
	s.MoveTo(p.Points[0].X, p.Points[0].Y)
	for _, pt := range p.Points[1:] {
		s.LineTo(pt.X, pt.Y)
	}
	s.ClosePath()
	fillPath(s, fill)
	strokePath(s, stroke, p.StrokeWidth)
}

func (p *Polygon) Translate(dx, dy float64) {
	for i := range p.Points {
		p.Points[i] = p.Points[i].Add(dx, dy)
	}
}

func (p *Polygon) Scale(f float64, pivot geom.Point) {
	for i := range p.Points {
		p.Points[i] = geom.ScaleAbout(p.Points[i], pivot, f)
	}
}

func (p *Polygon) Rotate(delta float64, pivot geom.Point) {
	for i := range p.Points {
		p.Points[i] = geom.RotateAbout(p.Points[i], pivot, delta)
	}
	p.Rotation += delta
}

func (p *Polygon) prepare(TextMeasurer) error {
	if len(p.Points) < 3 {
		return ErrInvalidGeometry
	}
	for _, pt := range p.Points {
		if !validNumber(pt.X, pt.Y) {
			return ErrInvalidGeometry
		}
	}
	return nil
}

func (p *Polygon) MarshalJSON() ([]byte, error) {
	type plain Polygon
	return marshalTagged(KindPolygon, (*plain)(p))
}
