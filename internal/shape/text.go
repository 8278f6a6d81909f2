package shape

import (
	"strings"

	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/typeface"
)

// Text is a single line anchored at its baseline origin. Its font size is
// derived from the stroke width.
type Text struct {
	base
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Content string  `json:"text"`

	measurer TextMeasurer
}

func NewText(at geom.Point, content string, m TextMeasurer, style Style) *Text {
	style.Fill = ""
	return &Text{base: newBase(style), X: at.X, Y: at.Y, Content: content, measurer: m}
}

func (t *Text) Kind() Kind { return KindText }

// FontSize is the pixel size the text is drawn at.
func (t *Text) FontSize() float64 {
	return t.StrokeWidth * FontSizePerStroke
}

// SetMeasurer replaces the metrics source used for bounds.
func (t *Text) SetMeasurer(m TextMeasurer) { t.measurer = m }

func (t *Text) width() float64 {
	m := t.measurer
	if m == nil {
		m = typeface.Default()
	}
	return m.MeasureText(t.Content, t.FontSize())
}

func (t *Text) Centroid() geom.Point { return t.Bounds().Center() }

func (t *Text) Bounds() geom.Rect {
	size := t.FontSize()
	return geom.Rect{X: t.X, Y: t.Y - size, Width: t.width(), Height: TextLineHeight * size}
}

func (t *Text) HitTest(p geom.Point) bool {
	return t.Bounds().Expand(TextSlack).Contains(local(t, p))
}

func (t *Text) Draw(s Surface, selected bool) {
	color, _ := t.paints(selected)
	size := t.FontSize()
	s.SetFillStyle(color)
	s.FillText(t.Content, t.X, t.Y, size)
	if t.StrokeWidth > 1 {
		s.SetStrokeStyle(string(t.Stroke))
		s.SetLineWidth(t.StrokeWidth / 2)
		s.SetLineDash(nil)
		s.StrokeText(t.Content, t.X, t.Y, size)
	}
}

func (t *Text) Translate(dx, dy float64) {
	t.X += dx
	t.Y += dy
}

// Scale grows the font about the fixed anchor; the pivot is ignored.
func (t *Text) Scale(f float64, pivot geom.Point) {
	t.StrokeWidth *= f
}

func (t *Text) Rotate(delta float64, pivot geom.Point) {
	t.Rotation += delta
}

func (t *Text) prepare(m TextMeasurer) error {
	if !validNumber(t.X, t.Y) || strings.TrimSpace(t.Content) == "" {
		return ErrInvalidGeometry
	}
	t.measurer = m
	return nil
}

func (t *Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return marshalTagged(KindText, (*plain)(t))
}
