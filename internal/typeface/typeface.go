// Package typeface measures and rasterizes text with an embedded font.
package typeface

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Book caches faces of one font by size.
type Book struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// New parses an OpenType or TrueType font.
func New(data []byte) (*Book, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Book{font: f, faces: make(map[float64]font.Face)}, nil
}

var (
	defaultOnce sync.Once
	defaultBook *Book
)

// Default returns the shared Go Regular book.
func Default() *Book {
	defaultOnce.Do(func() {
		b, err := New(goregular.TTF)
		if err != nil {
			panic(err)
		}
		defaultBook = b
	})
	return defaultBook
}

// quantize keeps the cache small under continuous scaling.
func quantize(size float64) float64 {
	return math.Max(1, math.Round(size*4)/4)
}

// Face returns a face for size pixels at 72 DPI.
func (b *Book) Face(size float64) (font.Face, error) {
	size = quantize(size)

	b.mu.Lock()
	defer b.mu.Unlock()
	if f, ok := b.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(b.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("face %.2f: %w", size, err)
	}
	b.faces[size] = f
	return f, nil
}

// MeasureText returns the advance width of text at size pixels.
func (b *Book) MeasureText(text string, size float64) float64 {
	if text == "" || size <= 0 {
		return 0
	}
	face, err := b.Face(size)
	if err != nil {
		return 0
	}
	w := font.MeasureString(face, text)
	// Faces are quantized; rescale to the exact size requested.
	return float64(w) / 64 * size / quantize(size)
}
