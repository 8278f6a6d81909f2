package shape

import (
	"slices"

	"github.com/inamate/sketchboard/internal/geom"
)

// Freehand is an open stroked path. The recorded points are kept as a
// base and every transform is folded into one accumulated matrix, so
// repeated scale and rotate steps do not compound rounding error.
type Freehand struct {
	base
	Points []geom.Point `json:"points"`

	origin []geom.Point
	xf     geom.Matrix2D
}

func NewFreehand(points []geom.Point, style Style) *Freehand {
	style.Fill = ""
	f := &Freehand{base: newBase(style), Points: slices.Clone(points)}
	f.freeze()
	return f
}

func (f *Freehand) Kind() Kind { return KindFreehand }

func (f *Freehand) bakedRotation() {}

// freeze makes the current points the new base.
func (f *Freehand) freeze() {
	f.origin = slices.Clone(f.Points)
	f.xf = geom.Identity()
}

func (f *Freehand) apply(m geom.Matrix2D) {
	if f.origin == nil {
		f.freeze()
	}
	f.xf = m.Multiply(f.xf)
	for i, p := range f.origin {
		f.Points[i] = f.xf.Apply(p)
	}
}

// Extend appends a recorded point while the stroke is being drawn.
func (f *Freehand) Extend(p geom.Point) {
	if f.origin == nil {
		f.freeze()
	}
	f.Points = append(f.Points, p)
	f.origin = append(f.origin, f.xf.Invert().Apply(p))
}

func (f *Freehand) Centroid() geom.Point { return f.Bounds().Center() }

func (f *Freehand) Bounds() geom.Rect { return geom.BoundsOf(f.Points...) }

func (f *Freehand) HitTest(p geom.Point) bool {
	tol := f.StrokeWidth + BoxTolerance
	if !f.Bounds().Expand(tol).Contains(p) {
		return false
	}
	if len(f.Points) == 1 {
		return geom.Distance(p, f.Points[0]) <= tol
	}
	for i := 1; i < len(f.Points); i++ {
		if geom.DistToSegment(p, f.Points[i-1], f.Points[i]) <= tol {
			return true
		}
	}
	return false
}

func (f *Freehand) Draw(s Surface, selected bool) {
	if len(f.Points) == 0 {
		return
	}
	stroke, _ := f.paints(selected)
	s.BeginPath()
	s.MoveTo(f.Points[0].X, f.Points[0].Y)
	if len(f.Points) == 1 {
		s.LineTo(f.Points[0].X, f.Points[0].Y)
	}
	for _, pt := range f.Points[1:] {
		s.LineTo(pt.X, pt.Y)
	}
	s.SetLineCap("round")
	strokePath(s, stroke, f.StrokeWidth)
	s.SetLineCap("butt")
}

func (f *Freehand) Translate(dx, dy float64) {
	f.apply(geom.Translate(dx, dy))
}

func (f *Freehand) Scale(factor float64, pivot geom.Point) {
	f.apply(geom.ScaleAt(factor, pivot))
}

func (f *Freehand) Rotate(delta float64, pivot geom.Point) {
	f.apply(geom.RotateAt(delta, pivot))
	f.Rotation += delta
}

func (f *Freehand) prepare(TextMeasurer) error {
	if len(f.Points) == 0 {
		return ErrInvalidGeometry
	}
	for _, pt := range f.Points {
		if !validNumber(pt.X, pt.Y) {
			return ErrInvalidGeometry
		}
	}
	f.freeze()
	return nil
}

func (f *Freehand) MarshalJSON() ([]byte, error) {
	type plain Freehand
	return marshalTagged(KindFreehand, (*plain)(f))
}
