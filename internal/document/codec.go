// Package document saves a scene to its JSON layer-array form and
// rebuilds one from it.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/inamate/sketchboard/internal/scene"
	"github.com/inamate/sketchboard/internal/shape"
	"github.com/inamate/sketchboard/internal/typeid"
)

var ErrMalformed = errors.New("malformed document")

// ImageDecoder turns a stored source reference into pixels.
type ImageDecoder interface {
	Decode(ctx context.Context, src string) (image.Image, error)
}

// ImageRequest is an image shape waiting for its pixels.
type ImageRequest struct {
	LayerID string
	Shape   *shape.Image
}

// Result is a fully reconstructed layer stack that has not yet been
// applied to any scene.
type Result struct {
	Layers   []*scene.Layer
	Shapes   int
	Warnings []Warning
	Images   []ImageRequest
}

// Apply replaces the layers of s with the loaded ones.
func (r *Result) Apply(s *scene.Scene) error {
	return s.Replace(r.Layers)
}

// Summary reports recovered counts for display.
func (r *Result) Summary() string {
	msg := fmt.Sprintf("loaded %d layers and %d shapes", len(r.Layers), r.Shapes)
	if n := len(r.Warnings); n > 0 {
		msg += fmt.Sprintf(", skipped %d", n)
	}
	return msg
}

type Options struct {
	Registry *Registry
	Measurer shape.TextMeasurer
}

// Save encodes the scene's layers in paint order.
func Save(s *scene.Scene) ([]byte, error) {
	return Encode(s.Layers())
}

// Encode writes the layer-array form of layers.
func Encode(layers []*scene.Layer) ([]byte, error) {
	out := make([]layerOut, len(layers))
	for i, l := range layers {
		shapes := l.Shapes
		if shapes == nil {
			shapes = []shape.Shape{}
		}
		out[i] = layerOut{ID: l.ID, Name: l.Name, Visible: l.Visible, Opacity: l.Opacity, Shapes: shapes}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Load parses data into a new layer stack. Records of unknown or invalid
// shapes are skipped with a warning; a document that is not a non-empty
// layer array fails with ErrMalformed.
func Load(data []byte, opts Options) (*Result, error) {
	reg := opts.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}

	var records []LayerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrMalformed)
	}

	res := &Result{}
	layerIDs := make(map[string]bool)
	shapeIDs := make(map[string]bool)

	for li, rec := range records {
		l := &scene.Layer{
			ID:      rec.ID,
			Name:    rec.Name,
			Visible: true,
			Opacity: 1,
		}
		if l.ID == "" || layerIDs[l.ID] {
			l.ID = typeid.NewLayerID()
		}
		layerIDs[l.ID] = true
		if l.Name == "" {
			l.Name = fmt.Sprintf("Layer %d", li+1)
		}
		if rec.Visible != nil {
			l.Visible = *rec.Visible
		}
		if rec.Opacity != nil {
			l.SetOpacity(*rec.Opacity)
		}

		for si, raw := range rec.Shapes {
			s, w := decodeShape(reg, raw, opts.Measurer)
			if s == nil {
				w.Layer, w.Index = l.Name, si
				slog.Warn("skipping shape record", "layer", w.Layer, "index", si, "type", w.Type, "reason", w.Reason)
				res.Warnings = append(res.Warnings, w)
				continue
			}
			if shapeIDs[s.ID()] {
				shape.Rekey(s)
			}
			shapeIDs[s.ID()] = true

			l.Add(s)
			res.Shapes++
			if img, ok := s.(*shape.Image); ok {
				res.Images = append(res.Images, ImageRequest{LayerID: l.ID, Shape: img})
			}
		}
		res.Layers = append(res.Layers, l)
	}
	return res, nil
}

func decodeShape(reg *Registry, raw json.RawMessage, m shape.TextMeasurer) (shape.Shape, Warning) {
	var h shapeHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, Warning{Reason: "not a shape record"}
	}
	if h.Type == "" {
		return nil, Warning{Reason: "missing type"}
	}
	f, ok := reg.Lookup(h.Type)
	if !ok {
		return nil, Warning{Type: string(h.Type), Reason: "unknown type"}
	}
	s, err := f(raw, m)
	if err != nil {
		return nil, Warning{Type: string(h.Type), Reason: err.Error()}
	}
	return s, Warning{}
}

// ResolveImages decodes every pending image synchronously. Failures are
// logged and leave the shape without pixels.
func ResolveImages(ctx context.Context, res *Result, dec ImageDecoder) int {
	n := 0
	for _, req := range res.Images {
		if err := ctx.Err(); err != nil {
			return n
		}
		img, err := dec.Decode(ctx, req.Shape.Src)
		if err != nil {
			slog.Warn("image decode failed", "layer", req.LayerID, "src", req.Shape.Src, "error", err)
			continue
		}
		req.Shape.Attach(img)
		n++
	}
	return n
}
