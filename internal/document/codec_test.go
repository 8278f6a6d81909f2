package document

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/scene"
	"github.com/inamate/sketchboard/internal/shape"
)

func TestRoundTrip(t *testing.T) {
	s := NewSampleScene(nil)
	hidden := s.AddLayer("hidden")
	hidden.Visible = false
	hidden.SetOpacity(0.25)
	poly := shape.NewPolygon([]geom.Point{{X: 1, Y: 1}, {X: 9, Y: 1}, {X: 5, Y: 7}}, shape.Style{Stroke: "#111", StrokeWidth: 1.5})
	poly.Rotate(0.3, poly.Centroid())
	hidden.Add(poly)

	data, err := Save(s)
	require.NoError(t, err)

	res, err := Load(data, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, s.ShapeCount(), res.Shapes)

	want := s.Layers()
	require.Len(t, res.Layers, len(want))
	for i, l := range res.Layers {
		assert.Equal(t, want[i].ID, l.ID)
		assert.Equal(t, want[i].Name, l.Name)
		assert.Equal(t, want[i].Visible, l.Visible)
		assert.Equal(t, want[i].Opacity, l.Opacity)
		assert.Len(t, l.Shapes, len(want[i].Shapes))
	}

	again, err := Encode(res.Layers)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestLoadResetsActiveLayer(t *testing.T) {
	s := scene.New()
	s.AddLayer("second")
	data, err := Save(s)
	require.NoError(t, err)

	target := scene.New()
	target.AddLayer("x")
	target.AddLayer("y")

	res, err := Load(data, Options{})
	require.NoError(t, err)
	require.NoError(t, res.Apply(target))
	assert.Equal(t, res.Layers[0], target.Active())
	assert.Equal(t, 2, target.Len())
}

func TestUnknownTypeSkipped(t *testing.T) {
	doc := `[{"id":"layer_a","name":"A","visible":true,"opacity":1,"shapes":[
		{"type":"circle","x":0,"y":0,"radius":10,"endX":10,"endY":0,"color":"#000","lineWidth":1},
		{"type":"hexagon","x":0,"y":0},
		{"type":"line","x1":0,"y1":0,"x2":10,"y2":10,"color":"#000","lineWidth":1}
	]}]`

	res, err := Load([]byte(doc), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Shapes)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "hexagon", res.Warnings[0].Type)
	assert.Equal(t, 1, res.Warnings[0].Index)
	assert.Contains(t, res.Summary(), "skipped 1")
}

func TestInvalidRecordsSkipped(t *testing.T) {
	doc := `[{"name":"A","shapes":[
		42,
		{"x":1},
		{"type":"polygon","points":[{"x":0,"y":0}]},
		{"type":"rectangle","x1":"oops"},
		{"type":"rectangle","x1":0,"y1":0,"x2":5,"y2":5}
	]}]`

	res, err := Load([]byte(doc), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Shapes)
	assert.Len(t, res.Warnings, 4)
}

func TestMalformedLeavesSceneUnchanged(t *testing.T) {
	s := NewSampleScene(nil)
	before, err := Save(s)
	require.NoError(t, err)

	for _, doc := range []string{`{"layers":[]}`, `[]`, `not json`, `[{"shapes":[{"type":"circle"`, `null`} {
		_, err := Load([]byte(doc), Options{})
		assert.ErrorIs(t, err, ErrMalformed, doc)
	}

	after, err := Save(s)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestLayerDefaults(t *testing.T) {
	res, err := Load([]byte(`[{"shapes":[]},{"id":"dup","opacity":7},{"id":"dup","visible":false}]`), Options{})
	require.NoError(t, err)
	require.Len(t, res.Layers, 3)

	assert.Equal(t, "Layer 1", res.Layers[0].Name)
	assert.NotEmpty(t, res.Layers[0].ID)
	assert.True(t, res.Layers[0].Visible)
	assert.Equal(t, 1.0, res.Layers[0].Opacity)

	assert.Equal(t, 1.0, res.Layers[1].Opacity, "clamped")
	assert.False(t, res.Layers[2].Visible)
	assert.NotEqual(t, res.Layers[1].ID, res.Layers[2].ID)
}

func TestFillSentinelsNormalize(t *testing.T) {
	doc := `[{"shapes":[
		{"type":"rectangle","x1":0,"y1":0,"x2":5,"y2":5,"fill":"none"},
		{"type":"rectangle","x1":0,"y1":0,"x2":5,"y2":5,"fill":"transparent"},
		{"type":"rectangle","x1":0,"y1":0,"x2":5,"y2":5,"fill":null},
		{"type":"rectangle","x1":0,"y1":0,"x2":5,"y2":5,"fill":"#abcdef"}
	]}]`
	res, err := Load([]byte(doc), Options{})
	require.NoError(t, err)
	fills := make([]shape.Color, 0, 4)
	for _, s := range res.Layers[0].Shapes {
		fills = append(fills, s.Attributes().Fill)
	}
	assert.Equal(t, []shape.Color{"", "", "", "#abcdef"}, fills)
}

type stubDecoder map[string]image.Image

func (d stubDecoder) Decode(_ context.Context, src string) (image.Image, error) {
	if img, ok := d[src]; ok {
		return img, nil
	}
	return nil, errors.New("not found")
}

func TestImagesAreRequested(t *testing.T) {
	doc := `[{"id":"layer_a","shapes":[
		{"type":"image","x":0,"y":0,"width":10,"height":10,"imageSrc":"a.png"},
		{"type":"image","x":0,"y":0,"width":10,"height":10,"imageSrc":"missing.png"}
	]}]`
	res, err := Load([]byte(doc), Options{})
	require.NoError(t, err)
	require.Len(t, res.Images, 2)
	assert.Equal(t, "layer_a", res.Images[0].LayerID)
	assert.False(t, res.Images[0].Shape.Ready())

	dec := stubDecoder{"a.png": image.NewRGBA(image.Rect(0, 0, 1, 1))}
	assert.Equal(t, 1, ResolveImages(context.Background(), res, dec))
	assert.True(t, res.Images[0].Shape.Ready())
	assert.False(t, res.Images[1].Shape.Ready())

	data, err := Encode(res.Layers)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"imageSrc":"a.png"`)
	assert.NotContains(t, string(data), "bitmap")
}

func TestDuplicateShapeIDsRekeyed(t *testing.T) {
	doc := `[{"shapes":[
		{"type":"line","id":"s1","x1":0,"y1":0,"x2":5,"y2":5},
		{"type":"line","id":"s1","x1":0,"y1":0,"x2":9,"y2":9}
	]}]`
	res, err := Load([]byte(doc), Options{})
	require.NoError(t, err)
	shapes := res.Layers[0].Shapes
	require.Len(t, shapes, 2)
	assert.Equal(t, "s1", shapes[0].ID())
	assert.NotEqual(t, "s1", shapes[1].ID())
}

func TestRegistryExtension(t *testing.T) {
	reg := DefaultRegistry()
	reg.Register("square", func(raw json.RawMessage, m shape.TextMeasurer) (shape.Shape, error) {
		var rec struct {
			X, Y, Size float64
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		return shape.NewRectangle(geom.Pt(rec.X, rec.Y), geom.Pt(rec.X+rec.Size, rec.Y+rec.Size), shape.Style{}), nil
	})
	assert.Contains(t, reg.Kinds(), shape.Kind("square"))

	res, err := Load([]byte(`[{"shapes":[{"type":"square","X":1,"Y":1,"Size":4}]}]`), Options{Registry: reg})
	require.NoError(t, err)
	require.Equal(t, 1, res.Shapes)
	assert.Equal(t, geom.Rect{X: 1, Y: 1, Width: 4, Height: 4}, res.Layers[0].Shapes[0].Bounds())
}
