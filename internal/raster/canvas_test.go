package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/scene"
	"github.com/inamate/sketchboard/internal/shape"
)

var white = color.RGBA{255, 255, 255, 255}

func at(c *Canvas, x, y int) color.RGBA {
	return c.Image().RGBAAt(x, y)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#ffc107", color.NRGBA{255, 193, 7, 255}, true},
		{"#FFF", color.NRGBA{255, 255, 255, 255}, true},
		{"#0000ff80", color.NRGBA{0, 0, 255, 128}, true},
		{"#f008", color.NRGBA{255, 0, 0, 136}, true},
		{"rgba(255, 193, 7, 0.5)", color.NRGBA{255, 193, 7, 128}, true},
		{"rgb(10 20 30)", color.NRGBA{10, 20, 30, 255}, true},
		{"rgb(100%, 0%, 50%)", color.NRGBA{255, 0, 128, 255}, true},
		{"Red", color.NRGBA{255, 0, 0, 255}, true},
		{"cornflowerblue", color.NRGBA{100, 149, 237, 255}, true},
		{"transparent", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, false},
		{"hsl(0, 0%, 0%)", color.NRGBA{}, false},
		{"rgb(1,2)", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseColor(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFillRect(t *testing.T) {
	c := New(40, 40, white, nil)
	c.SetFillStyle("#ff0000")
	c.BeginPath()
	c.Rect(10, 10, 20, 20)
	c.Fill()

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, at(c, 15, 15))
	assert.Equal(t, white, at(c, 5, 5))
	assert.Equal(t, white, at(c, 35, 35))
}

func TestGlobalAlphaBlends(t *testing.T) {
	c := New(20, 20, white, nil)
	c.SetGlobalAlpha(0.5)
	c.SetFillStyle("#ff0000")
	c.BeginPath()
	c.Rect(0, 0, 20, 20)
	c.Fill()

	px := at(c, 10, 10)
	assert.Equal(t, uint8(255), px.R)
	assert.InDelta(t, 127, px.G, 2)
}

func TestSaveRestoreCoversAlphaAndTransform(t *testing.T) {
	c := New(50, 50, white, nil)
	c.Save()
	c.SetGlobalAlpha(0)
	c.Translate(100, 100)
	c.Restore()

	c.SetFillStyle("#000000")
	c.BeginPath()
	c.Rect(0, 0, 10, 10)
	c.Fill()
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, at(c, 5, 5))
}

func TestStrokeLine(t *testing.T) {
	c := New(100, 100, white, nil)
	c.SetStrokeStyle("#0000ff")
	c.SetLineWidth(4)
	c.BeginPath()
	c.MoveTo(0, 50)
	c.LineTo(100, 50)
	c.Stroke()

	assert.Equal(t, color.RGBA{0, 0, 255, 255}, at(c, 50, 50))
	assert.Equal(t, white, at(c, 50, 60))
}

func TestDashedStroke(t *testing.T) {
	c := New(100, 40, white, nil)
	c.SetStrokeStyle("#000000")
	c.SetLineWidth(4)
	c.SetLineDash([]float64{10, 10})
	c.BeginPath()
	c.MoveTo(0, 20)
	c.LineTo(100, 20)
	c.Stroke()

	assert.Equal(t, color.RGBA{0, 0, 0, 255}, at(c, 5, 20))
	assert.Equal(t, white, at(c, 15, 20))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, at(c, 25, 20))
}

func TestRotatedFill(t *testing.T) {
	c := New(100, 100, white, nil)
	c.Translate(50, 50)
	c.Rotate(math.Pi / 2)
	c.Translate(-50, -50)
	c.SetFillStyle("#000000")
	c.BeginPath()
	c.Rect(10, 45, 80, 10)
	c.Fill()

	assert.Equal(t, color.RGBA{0, 0, 0, 255}, at(c, 50, 20), "vertical after rotation")
	assert.Equal(t, white, at(c, 20, 50))
}

func TestDrawImageScales(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			src.SetRGBA(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	c := New(40, 40, white, nil)
	c.DrawImage(&shape.Bitmap{Src: "x", Image: src}, 10, 10, 20, 20)

	assert.Equal(t, color.RGBA{0, 0, 255, 255}, at(c, 20, 20))
	assert.Equal(t, white, at(c, 5, 5))
}

func TestFillTextMarksPixels(t *testing.T) {
	c := New(120, 60, white, nil)
	c.SetFillStyle("#000000")
	c.FillText("Hi", 10, 45, 32)

	dark := 0
	for y := range 60 {
		for x := range 120 {
			if at(c, x, y).R < 128 {
				dark++
			}
		}
	}
	assert.Positive(t, dark)
	assert.Greater(t, c.MeasureText("Hi", 32), 0.0)
}

func TestLayerOpacityChangesPixels(t *testing.T) {
	s := scene.New()
	half := s.Active()
	half.SetOpacity(0.5)
	st := shape.Style{Stroke: "#000000", Fill: "#000000", StrokeWidth: 1}
	half.Add(shape.NewRectangle(geom.Pt(5, 5), geom.Pt(25, 25), st))

	full := s.AddLayer("full")
	full.Add(shape.NewRectangle(geom.Pt(35, 5), geom.Pt(55, 25), st))

	c := New(60, 30, white, nil)
	s.Render(c, "")

	a, b := at(c, 20, 10), at(c, 50, 10)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, b)
	assert.InDelta(t, 127, a.R, 2)
}

func TestEncodePNG(t *testing.T) {
	c := New(8, 8, white, nil)
	var buf bytes.Buffer
	require.NoError(t, c.EncodePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
}

func TestLineCaps(t *testing.T) {
	stroke := func(lineCap string) *Canvas {
		c := New(60, 20, white, nil)
		c.SetStrokeStyle("#000000")
		c.SetLineWidth(8)
		c.SetLineCap(lineCap)
		c.BeginPath()
		c.MoveTo(10, 10)
		c.LineTo(40, 10)
		c.Stroke()
		return c
	}

	assert.Equal(t, white, at(stroke("butt"), 42, 10))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, at(stroke("round"), 42, 10))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, at(stroke("square"), 42, 13))
}

func TestClosedStrokeJoinsBack(t *testing.T) {
	c := New(60, 60, white, nil)
	c.SetStrokeStyle("#000000")
	c.SetLineWidth(4)
	c.BeginPath()
	c.Rect(10, 10, 40, 40)
	c.Stroke()

	assert.Equal(t, color.RGBA{0, 0, 0, 255}, at(c, 10, 30), "closing edge")
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, at(c, 30, 10))
	assert.Equal(t, white, at(c, 30, 30))
}

func TestNonFinitePathIsSkipped(t *testing.T) {
	c := New(20, 20, white, nil)
	c.SetFillStyle("#000000")
	c.BeginPath()
	c.MoveTo(0, 0)
	c.LineTo(math.NaN(), 10)
	c.LineTo(10, 10)
	c.Fill()
	assert.Equal(t, white, at(c, 5, 5))
}
