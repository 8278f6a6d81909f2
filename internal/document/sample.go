package document

import (
	"math"

	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/scene"
	"github.com/inamate/sketchboard/internal/shape"
)

// NewSampleScene builds a small two-layer demo drawing.
func NewSampleScene(m shape.TextMeasurer) *scene.Scene {
	s := scene.New()
	bg := s.Active()
	bg.Name = "Background"

	bg.Add(shape.NewRectangle(geom.Pt(40, 40), geom.Pt(360, 260), shape.Style{
		Stroke: "#4a4e69", Fill: "#f2e9e4", StrokeWidth: 2,
	}))
	bg.Add(shape.NewEllipse(geom.Pt(420, 60), geom.Pt(620, 180), shape.Style{
		Stroke: "#22223b", Fill: "#c9ada7", StrokeWidth: 3,
	}))

	fg := s.AddLayer("Sketch")
	fg.SetOpacity(0.85)

	fg.Add(shape.NewCircle(geom.Pt(200, 150), geom.Pt(260, 150), shape.Style{
		Stroke: "#e63946", StrokeWidth: 4,
	}))
	fg.Add(shape.NewTriangle(geom.Pt(450, 320), geom.Pt(560, 320), geom.Pt(505, 230), shape.Style{
		Stroke: "#1d3557", Fill: "#a8dadc", StrokeWidth: 2,
	}))
	fg.Add(shape.NewArc(geom.Pt(160, 380), geom.Pt(160, 440), shape.Style{
		Stroke: "#457b9d", StrokeWidth: 3,
	}))

	wave := make([]geom.Point, 0, 40)
	for i := range 40 {
		x := 260 + float64(i)*6
		wave = append(wave, geom.Pt(x, 400+20*math.Sin(float64(i)/3)))
	}
	fg.Add(shape.NewFreehand(wave, shape.Style{Stroke: "#2a9d8f", StrokeWidth: 3}))
	fg.Add(shape.NewText(geom.Pt(60, 320), "sketchboard", m, shape.Style{Stroke: "#264653", StrokeWidth: 6}))

	_ = s.SetActive(bg.ID)
	return s
}
