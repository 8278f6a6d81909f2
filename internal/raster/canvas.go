// Package raster paints shapes into an in-memory RGBA image.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"slices"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/srwiley/rasterx"

	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/shape"
	"github.com/inamate/sketchboard/internal/typeface"
)

// subpath is a polyline in device coordinates.
type subpath struct {
	pts    []geom.Point
	closed bool
}

// adder is the part of rasterx's path sink that a flattened path needs.
type adder interface {
	Start(a fixed.Point26_6)
	Line(b fixed.Point26_6)
	Stop(closeLoop bool)
}

type state struct {
	xf        geom.Matrix2D
	fill      color.NRGBA
	stroke    color.NRGBA
	lineWidth float64
	dash      []float64
	lineCap   string
	alpha     float64
}

// Canvas implements shape.Surface with Canvas2D semantics over a rasterx
// dasher. Path points are transformed when they are added, and
// save/restore covers the transform, paint styles and global alpha.
type Canvas struct {
	img    *image.RGBA
	book   *typeface.Book
	dasher *rasterx.Dasher
	st     state
	stack  []state
	path   []subpath
}

var _ shape.Surface = (*Canvas)(nil)

// New creates a width x height canvas cleared to background. A nil book
// uses the default face.
func New(width, height int, background color.Color, book *typeface.Book) *Canvas {
	if book == nil {
		book = typeface.Default()
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if background != nil {
		xdraw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, xdraw.Src)
	}
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	return &Canvas{
		img:    img,
		book:   book,
		dasher: rasterx.NewDasher(width, height, scanner),
		st: state{
			xf:        geom.Identity(),
			fill:      color.NRGBA{A: 255},
			stroke:    color.NRGBA{A: 255},
			lineWidth: 1,
			lineCap:   "butt",
			alpha:     1,
		},
	}
}

func (c *Canvas) Image() *image.RGBA { return c.img }

// EncodePNG writes the canvas as a PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, c.img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func (c *Canvas) MeasureText(text string, size float64) float64 {
	return c.book.MeasureText(text, size)
}

func (c *Canvas) Save() {
	s := c.st
	s.dash = slices.Clone(c.st.dash)
	c.stack = append(c.stack, s)
}

func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.st = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *Canvas) Translate(x, y float64) {
	c.st.xf = c.st.xf.Multiply(geom.Translate(x, y))
}

func (c *Canvas) Rotate(angle float64) {
	c.st.xf = c.st.xf.Multiply(geom.Rotate(angle))
}

func (c *Canvas) SetGlobalAlpha(alpha float64) {
	c.st.alpha = math.Max(0, math.Min(1, alpha))
}

func (c *Canvas) BeginPath() { c.path = nil }

func (c *Canvas) current() *subpath {
	if len(c.path) == 0 {
		return nil
	}
	return &c.path[len(c.path)-1]
}

func (c *Canvas) ClosePath() {
	sp := c.current()
	if sp == nil || len(sp.pts) == 0 || sp.closed {
		return
	}
	sp.closed = true
	c.path = append(c.path, subpath{pts: []geom.Point{sp.pts[0]}})
}

func (c *Canvas) MoveTo(x, y float64) {
	c.path = append(c.path, subpath{pts: []geom.Point{c.st.xf.Apply(geom.Pt(x, y))}})
}

func (c *Canvas) LineTo(x, y float64) {
	c.lineToDevice(c.st.xf.Apply(geom.Pt(x, y)))
}

func (c *Canvas) lineToDevice(p geom.Point) {
	sp := c.current()
	if sp == nil || sp.closed {
		c.path = append(c.path, subpath{pts: []geom.Point{p}})
		return
	}
	sp.pts = append(sp.pts, p)
}

func (c *Canvas) Arc(x, y, radius, startAngle, endAngle float64) {
	c.Ellipse(x, y, radius, radius, 0, startAngle, endAngle)
}

// Ellipse flattens a clockwise elliptical arc and joins it to the current
// subpath.
func (c *Canvas) Ellipse(x, y, rx, ry, rotation, startAngle, endAngle float64) {
	sweep := endAngle - startAngle
	if sweep >= 2*math.Pi {
		sweep = 2 * math.Pi
	} else {
		sweep = math.Mod(sweep, 2*math.Pi)
		if sweep < 0 {
			sweep += 2 * math.Pi
		}
	}
	scale := c.st.xf.ScaleFactor()
	n := int(math.Ceil(sweep * math.Max(rx, ry) * scale / 2))
	n = max(8, min(n, 720))

	cos, sin := math.Cos(rotation), math.Sin(rotation)
	for i := 0; i <= n; i++ {
		a := startAngle + sweep*float64(i)/float64(n)
		ex, ey := rx*math.Cos(a), ry*math.Sin(a)
		p := geom.Pt(x+ex*cos-ey*sin, y+ex*sin+ey*cos)
		c.lineToDevice(c.st.xf.Apply(p))
	}
}

func (c *Canvas) Rect(x, y, width, height float64) {
	c.MoveTo(x, y)
	c.LineTo(x+width, y)
	c.LineTo(x+width, y+height)
	c.LineTo(x, y+height)
	c.ClosePath()
}

func (c *Canvas) SetFillStyle(s string) {
	if col, ok := ParseColor(s); ok {
		c.st.fill = col
	}
}

func (c *Canvas) SetStrokeStyle(s string) {
	if col, ok := ParseColor(s); ok {
		c.st.stroke = col
	}
}

func (c *Canvas) SetLineWidth(w float64) {
	if w > 0 && !math.IsInf(w, 0) {
		c.st.lineWidth = w
	}
}

func (c *Canvas) SetLineDash(segments []float64) {
	for _, s := range segments {
		if s < 0 || math.IsNaN(s) {
			return
		}
	}
	c.st.dash = slices.Clone(segments)
}

func (c *Canvas) SetLineCap(lineCap string) {
	switch lineCap {
	case "butt", "round", "square":
		c.st.lineCap = lineCap
	}
}

func (c *Canvas) paint(col color.NRGBA) color.NRGBA {
	col.A = uint8(math.Round(float64(col.A) * c.st.alpha))
	return col
}

func fixedPt(p geom.Point) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(math.Round(p.X * 64)), Y: fixed.Int26_6(math.Round(p.Y * 64))}
}

// trace replays the current path into a rasterx adder.
func (c *Canvas) trace(a adder, closeAll bool) bool {
	traced := false
	for _, sp := range c.path {
		if len(sp.pts) < 2 || !finite(sp.pts) {
			continue
		}
		a.Start(fixedPt(sp.pts[0]))
		for _, p := range sp.pts[1:] {
			a.Line(fixedPt(p))
		}
		a.Stop(closeAll || sp.closed)
		traced = true
	}
	return traced
}

func finite(pts []geom.Point) bool {
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}

// Fill paints the current path with the nonzero rule. Open subpaths are
// closed implicitly.
func (c *Canvas) Fill() {
	col := c.paint(c.st.fill)
	if col.A == 0 {
		return
	}
	f := &c.dasher.Filler
	f.SetWinding(true)
	if c.trace(f, true) {
		f.SetColor(col)
		f.Draw()
	}
	f.Clear()
}

var caps = map[string]rasterx.CapFunc{
	"butt":   rasterx.ButtCap,
	"round":  rasterx.RoundCap,
	"square": rasterx.SquareCap,
}

// Stroke outlines the current path with round joins. Width and dash
// lengths scale with the current transform.
func (c *Canvas) Stroke() {
	col := c.paint(c.st.stroke)
	if col.A == 0 {
		return
	}
	scale := c.st.xf.ScaleFactor()
	var pattern []float64
	if len(c.st.dash) > 0 {
		pattern = make([]float64, len(c.st.dash))
		for i, d := range c.st.dash {
			pattern[i] = d * scale
		}
	}
	capFn := caps[c.st.lineCap]
	c.dasher.SetStroke(
		fixed.Int26_6(math.Round(c.st.lineWidth*scale*64)),
		4*64,
		capFn, capFn, rasterx.RoundGap, rasterx.Round,
		pattern, 0)
	if c.trace(c.dasher, false) {
		c.dasher.SetColor(col)
		c.dasher.Draw()
	}
	c.dasher.Clear()
}

// aff converts a canvas transform to the x/image/draw layout.
func aff(m geom.Matrix2D) f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

func (c *Canvas) drawTransformed(src image.Image, m geom.Matrix2D) {
	var opts *xdraw.Options
	if c.st.alpha < 1 {
		opts = &xdraw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(math.Round(255 * c.st.alpha))})}
	}
	xdraw.BiLinear.Transform(c.img, aff(m), src, src.Bounds(), xdraw.Over, opts)
}

// glyphs renders text into a transparent tile. The tile origin sits pad
// pixels left of and size pixels above the baseline anchor.
func (c *Canvas) glyphs(text string, size float64, col color.NRGBA, spread float64) (*image.NRGBA, float64, error) {
	scale := c.st.xf.ScaleFactor()
	if scale == 0 {
		scale = 1
	}
	px := size * scale
	face, err := c.book.Face(px)
	if err != nil {
		return nil, 0, err
	}
	pad := math.Ceil(spread*scale) + 2
	w := c.book.MeasureText(text, px) + 2*pad
	h := px*1.4 + 2*pad
	tile := image.NewNRGBA(image.Rect(0, 0, int(math.Ceil(w)), int(math.Ceil(h))))

	offsets := []geom.Point{{}}
	if spread > 0 {
		r := spread * scale
		offsets = offsets[:0]
		for i := range 8 {
			a := float64(i) * math.Pi / 4
			offsets = append(offsets, geom.Pt(r*math.Cos(a), r*math.Sin(a)))
		}
	}
	for _, o := range offsets {
		d := &font.Drawer{
			Dst:  tile,
			Src:  image.NewUniform(col),
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.Int26_6((pad + o.X) * 64), Y: fixed.Int26_6((pad + px + o.Y) * 64)},
		}
		d.DrawString(text)
	}
	return tile, pad / scale, nil
}

func (c *Canvas) drawText(text string, x, y, size float64, col color.NRGBA, spread float64) {
	if text == "" || size <= 0 {
		return
	}
	tile, pad, err := c.glyphs(text, size, col, spread)
	if err != nil {
		return
	}
	scale := c.st.xf.ScaleFactor()
	if scale == 0 {
		return
	}
	m := c.st.xf.
		Multiply(geom.Translate(x-pad, y-size-pad)).
		Multiply(geom.Scale(1/scale, 1/scale))
	c.drawTransformed(tile, m)
}

func (c *Canvas) FillText(text string, x, y, size float64) {
	c.drawText(text, x, y, size, c.st.fill, 0)
}

// StrokeText outlines glyphs by stamping them around a ring of radius half
// the line width, then repaints the interior with the fill style.
func (c *Canvas) StrokeText(text string, x, y, size float64) {
	c.drawText(text, x, y, size, c.st.stroke, c.st.lineWidth/2)
	c.drawText(text, x, y, size, c.st.fill, 0)
}

func (c *Canvas) DrawImage(b *shape.Bitmap, x, y, width, height float64) {
	if b == nil || b.Image == nil {
		return
	}
	sb := b.Image.Bounds()
	if sb.Empty() || width == 0 || height == 0 {
		return
	}
	m := c.st.xf.
		Multiply(geom.Translate(x, y)).
		Multiply(geom.Scale(width/float64(sb.Dx()), height/float64(sb.Dy()))).
		Multiply(geom.Translate(-float64(sb.Min.X), -float64(sb.Min.Y)))
	c.drawTransformed(b.Image, m)
}
