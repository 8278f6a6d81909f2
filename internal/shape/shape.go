// Package shape defines the ten drawable variants, the capability set each
// one implements, and the rendering surface they paint onto.
package shape

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/typeid"
)

// Kind is the discriminator stored in every serialized shape record.
type Kind string

const (
	KindCircle    Kind = "circle"
	KindRectangle Kind = "rectangle"
	KindLine      Kind = "line"
	KindTriangle  Kind = "triangle"
	KindArc       Kind = "arc"
	KindEllipse   Kind = "ellipse"
	KindPolygon   Kind = "polygon"
	KindFreehand  Kind = "freehand"
	KindText      Kind = "text"
	KindImage     Kind = "image"
)

// Kinds lists every built-in variant in declaration order.
var Kinds = []Kind{
	KindCircle, KindRectangle, KindLine, KindTriangle, KindArc,
	KindEllipse, KindPolygon, KindFreehand, KindText, KindImage,
}

// Selection and guide colors. Substituted at paint time only.
const (
	HighlightStroke = "#ffc107"
	HighlightFill   = "rgba(255, 193, 7, 0.3)"
	GuideColor      = "#dc3545"
	DefaultStroke   = "#000000"
)

// Hit-test tolerances added to the stroke width.
const (
	RingTolerance     = 6
	LineTolerance     = 10
	BoxTolerance      = 8
	TextSlack         = 5
	TextLineHeight    = 1.2
	FontSizePerStroke = 5
)

var ErrInvalidGeometry = errors.New("invalid geometry")

// Color is a CSS color string. The empty value means "no paint" and is
// written as JSON null; "none" and "transparent" read back as empty.
type Color string

func (c Color) MarshalJSON() ([]byte, error) {
	if c == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

func (c *Color) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "transparent":
		s = ""
	}
	*c = Color(s)
	return nil
}

// Style holds the visual attributes every variant shares.
type Style struct {
	Stroke      Color   `json:"color"`
	Fill        Color   `json:"fill"`
	StrokeWidth float64 `json:"lineWidth"`
	Rotation    float64 `json:"rotationAngle"`
}

// paints returns the stroke and fill to use, substituting the highlight
// colors for a selected shape.
func (s *Style) paints(selected bool) (stroke, fill string) {
	if selected {
		return HighlightStroke, HighlightFill
	}
	return string(s.Stroke), string(s.Fill)
}

func (s *Style) normalize() {
	if s.Stroke == "" {
		s.Stroke = DefaultStroke
	}
	if s.StrokeWidth <= 0 || math.IsNaN(s.StrokeWidth) {
		s.StrokeWidth = 1
	}
}

// TextMeasurer reports the advance width of text at a font size.
type TextMeasurer interface {
	MeasureText(text string, size float64) float64
}

// Bitmap is a decoded image together with the source reference it came from.
type Bitmap struct {
	Src   string
	Image image.Image
}

// Surface is the capability set the core needs from a rendering target.
// It mirrors a Canvas2D context.
type Surface interface {
	TextMeasurer

	Save()
	Restore()
	Translate(x, y float64)
	Rotate(angle float64)
	SetGlobalAlpha(alpha float64)

	BeginPath()
	ClosePath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	Arc(x, y, radius, startAngle, endAngle float64)
	Ellipse(x, y, radiusX, radiusY, rotation, startAngle, endAngle float64)
	Rect(x, y, width, height float64)

	SetFillStyle(color string)
	SetStrokeStyle(color string)
	SetLineWidth(width float64)
	SetLineDash(segments []float64)
	SetLineCap(lineCap string)
	Fill()
	Stroke()

	FillText(text string, x, y, size float64)
	StrokeText(text string, x, y, size float64)
	DrawImage(b *Bitmap, x, y, width, height float64)
}

// Shape is implemented once per variant.
type Shape interface {
	ID() string
	Kind() Kind
	Attributes() *Style

	// Centroid is the pivot for rotation and scaling.
	Centroid() geom.Point
	// Bounds is the axis-aligned box of the unrotated geometry.
	Bounds() geom.Rect
	HitTest(p geom.Point) bool
	// Draw paints in unrotated local coordinates; use Render for rotation.
	Draw(s Surface, selected bool)

	Translate(dx, dy float64)
	Scale(f float64, pivot geom.Point)
	Rotate(delta float64, pivot geom.Point)
}

// baked is implemented by variants that rotate their stored points, so
// their accumulated angle must not be applied again at paint time.
type baked interface {
	bakedRotation()
}

// preparer validates and completes a freshly decoded variant.
type preparer interface {
	prepare(m TextMeasurer) error
}

// base carries the fields common to all variants.
type base struct {
	ShapeID string `json:"id"`
	Style
}

func (b *base) ID() string         { return b.ShapeID }
func (b *base) Attributes() *Style { return &b.Style }

func newBase(style Style) base {
	style.normalize()
	return base{ShapeID: typeid.NewShapeID(), Style: style}
}

// VisualAngle is the rotation applied at paint time.
func VisualAngle(s Shape) float64 {
	if _, ok := s.(baked); ok {
		return 0
	}
	return s.Attributes().Rotation
}

// Render paints s rotated about its centroid by its accumulated angle.
func Render(surf Surface, s Shape, selected bool) {
	surf.Save()
	if angle := VisualAngle(s); angle != 0 {
		pivot := s.Centroid()
		surf.Translate(pivot.X, pivot.Y)
		surf.Rotate(angle)
		surf.Translate(-pivot.X, -pivot.Y)
	}
	s.Draw(surf, selected)
	surf.Restore()
}

// WorldBounds is the axis-aligned box of the shape as drawn.
func WorldBounds(s Shape) geom.Rect {
	angle := VisualAngle(s)
	if angle == 0 {
		return s.Bounds()
	}
	return geom.RotateAt(angle, s.Centroid()).TransformRect(s.Bounds())
}

// AcceptsFill reports whether the fill attribute means anything for s.
func AcceptsFill(s Shape) bool {
	switch s.Kind() {
	case KindLine, KindFreehand, KindText:
		return false
	}
	return true
}

// Prepare normalizes a decoded shape: it assigns a missing id, applies
// style defaults and validates the variant geometry.
func Prepare(s Shape, m TextMeasurer) error {
	b := s.Attributes()
	b.normalize()
	if !AcceptsFill(s) {
		b.Fill = ""
	}
	if s.ID() == "" {
		Rekey(s)
	}
	if p, ok := s.(preparer); ok {
		if err := p.prepare(m); err != nil {
			return fmt.Errorf("%s: %w", s.Kind(), err)
		}
	}
	return nil
}

func (b *base) setID(id string) { b.ShapeID = id }

// Rekey gives s a fresh id.
func Rekey(s Shape) {
	if ider, ok := s.(interface{ setID(string) }); ok {
		ider.setID(typeid.NewShapeID())
	}
}

// local maps p into the unrotated frame of an attribute-rotated shape.
func local(s Shape, p geom.Point) geom.Point {
	angle := VisualAngle(s)
	if angle == 0 {
		return p
	}
	return geom.RotateAbout(p, s.Centroid(), -angle)
}

// marshalTagged encodes v (a method-free alias of a variant) with the
// discriminator as the first member.
func marshalTagged(kind Kind, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	tag, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+len(tag)+9)
	out = append(out, `{"type":`...)
	out = append(out, tag...)
	if len(body) > 2 {
		out = append(out, ',')
	}
	out = append(out, body[1:]...)
	return out, nil
}

func strokePath(surf Surface, stroke string, width float64) {
	surf.SetStrokeStyle(stroke)
	surf.SetLineWidth(width)
	surf.SetLineDash(nil)
	surf.Stroke()
}

func fillPath(surf Surface, fill string) {
	if fill == "" {
		return
	}
	surf.SetFillStyle(fill)
	surf.Fill()
}

// drawGuide paints the dashed handle line used by radius and corner shapes.
func drawGuide(surf Surface, from, to geom.Point) {
	surf.BeginPath()
	surf.SetLineDash([]float64{2, 4})
	surf.SetStrokeStyle(GuideColor)
	surf.SetLineWidth(1)
	surf.MoveTo(from.X, from.Y)
	surf.LineTo(to.X, to.Y)
	surf.Stroke()
	surf.SetLineDash(nil)
}

func validNumber(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
