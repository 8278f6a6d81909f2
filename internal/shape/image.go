package shape

import (
	"image"

	"github.com/inamate/sketchboard/internal/geom"
)

// Image places a bitmap in a box. The pixels are attached after decoding
// and are never serialized; only the source reference is.
type Image struct {
	base
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Src    string  `json:"imageSrc"`

	bitmap *Bitmap
}

func NewImage(box geom.Rect, b *Bitmap, style Style) *Image {
	img := &Image{base: newBase(style), X: box.X, Y: box.Y, Width: box.Width, Height: box.Height, bitmap: b}
	if b != nil {
		img.Src = b.Src
	}
	return img
}

func (i *Image) Kind() Kind { return KindImage }

// Attach binds decoded pixels to the shape.
func (i *Image) Attach(img image.Image) {
	i.bitmap = &Bitmap{Src: i.Src, Image: img}
}

// Ready reports whether pixels are attached.
func (i *Image) Ready() bool { return i.bitmap != nil && i.bitmap.Image != nil }

func (i *Image) Bitmap() *Bitmap { return i.bitmap }

func (i *Image) Centroid() geom.Point { return i.Bounds().Center() }

func (i *Image) Bounds() geom.Rect {
	return geom.Rect{X: i.X, Y: i.Y, Width: i.Width, Height: i.Height}
}

func (i *Image) HitTest(p geom.Point) bool {
	return i.Bounds().Contains(local(i, p))
}

func (i *Image) Draw(s Surface, selected bool) {
	if i.Ready() {
		s.DrawImage(i.bitmap, i.X, i.Y, i.Width, i.Height)
	} else {
		s.BeginPath()
		s.Rect(i.X, i.Y, i.Width, i.Height)
		s.SetStrokeStyle("#adb5bd")
		s.SetLineWidth(1)
		s.SetLineDash([]float64{4, 4})
		s.Stroke()
		s.SetLineDash(nil)
	}
	if selected {
		s.BeginPath()
		s.Rect(i.X, i.Y, i.Width, i.Height)
		s.SetStrokeStyle(HighlightStroke)
		s.SetLineWidth(3)
		s.SetLineDash([]float64{5, 5})
		s.Stroke()
		s.SetLineDash(nil)
	}
}

func (i *Image) Translate(dx, dy float64) {
	i.X += dx
	i.Y += dy
}

func (i *Image) Scale(f float64, pivot geom.Point) {
	o := geom.ScaleAbout(geom.Pt(i.X, i.Y), pivot, f)
	i.X, i.Y = o.X, o.Y
	i.Width *= f
	i.Height *= f
}

func (i *Image) Rotate(delta float64, pivot geom.Point) {
	i.Rotation += delta
}

func (i *Image) prepare(TextMeasurer) error {
	if !validNumber(i.X, i.Y, i.Width, i.Height) || i.Width < 0 || i.Height < 0 || i.Src == "" {
		return ErrInvalidGeometry
	}
	return nil
}

func (i *Image) MarshalJSON() ([]byte, error) {
	type plain Image
	return marshalTagged(KindImage, (*plain)(i))
}
