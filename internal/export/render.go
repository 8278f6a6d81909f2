// Package export rasterizes saved drawings to PNG.
package export

import (
	"context"
	"fmt"
	"image/color"
	"math"

	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/raster"
	"github.com/inamate/sketchboard/internal/scene"
	"github.com/inamate/sketchboard/internal/typeface"
)

const (
	MaxSize = 4096
	// fitMargin pads the content bounds when cropping to fit.
	fitMargin = 20
)

type Options struct {
	Width  int
	Height int
	// Fit crops the output to the drawing's content instead of using
	// Width and Height.
	Fit bool
	// Decoder resolves image shapes. Without one images render empty.
	Decoder document.ImageDecoder
	Book    *typeface.Book
}

// Render decodes a saved document and draws it onto a white canvas.
func Render(ctx context.Context, data []byte, opts Options) (*raster.Canvas, *document.Result, error) {
	book := opts.Book
	if book == nil {
		book = typeface.Default()
	}
	res, err := document.Load(data, document.Options{Measurer: book})
	if err != nil {
		return nil, nil, err
	}
	if opts.Decoder != nil {
		document.ResolveImages(ctx, res, opts.Decoder)
	}
	s := scene.New()
	if err := res.Apply(s); err != nil {
		return nil, nil, fmt.Errorf("apply document: %w", err)
	}

	w, h := clamp(opts.Width), clamp(opts.Height)
	var dx, dy float64
	if opts.Fit {
		if b := s.Bounds(); b.Width > 0 && b.Height > 0 {
			w = clamp(int(math.Ceil(b.Width)) + 2*fitMargin)
			h = clamp(int(math.Ceil(b.Height)) + 2*fitMargin)
			dx, dy = fitMargin-b.X, fitMargin-b.Y
		}
	}

	c := raster.New(w, h, color.White, book)
	c.Translate(dx, dy)
	s.Render(c, "")
	return c, res, nil
}

func clamp(v int) int {
	return max(1, min(v, MaxSize))
}
