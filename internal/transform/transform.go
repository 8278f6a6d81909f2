// Package transform maps pointer gestures onto shape mutations.
package transform

import (
	"math"

	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/shape"
)

// Mode is the exclusive mode of one drag step.
type Mode int

const (
	ModeTranslate Mode = iota
	ModeScale
	ModeRotate
)

func (m Mode) String() string {
	switch m {
	case ModeScale:
		return "scale"
	case ModeRotate:
		return "rotate"
	default:
		return "translate"
	}
}

// Scale factors outside this open band are rejected.
const (
	MinScaleStep = 0.1
	MaxScaleStep = 10
)

// ModeFor picks the mode from held modifiers. Control wins over Shift.
func ModeFor(shift, control bool) Mode {
	switch {
	case control:
		return ModeRotate
	case shift:
		return ModeScale
	default:
		return ModeTranslate
	}
}

// ScaleFactor is the ratio of the pointer's distance from pivot now to its
// distance one sample ago. ok is false when the step must be skipped.
func ScaleFactor(prev, cur, pivot geom.Point) (f float64, ok bool) {
	d0 := geom.Distance(prev, pivot)
	if d0 == 0 {
		return 0, false
	}
	f = geom.Distance(cur, pivot) / d0
	if f <= MinScaleStep || f >= MaxScaleStep || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// RotationDelta is the angle swept about pivot between two samples.
func RotationDelta(prev, cur, pivot geom.Point) float64 {
	a0 := math.Atan2(prev.Y-pivot.Y, prev.X-pivot.X)
	a1 := math.Atan2(cur.Y-pivot.Y, cur.X-pivot.X)
	return a1 - a0
}

// Apply mutates s for one pointer step from prev to cur. The pivot is the
// shape's centroid at the start of the step. It reports whether s changed.
func Apply(s shape.Shape, mode Mode, prev, cur geom.Point) bool {
	switch mode {
	case ModeScale:
		pivot := s.Centroid()
		f, ok := ScaleFactor(prev, cur, pivot)
		if !ok {
			return false
		}
		s.Scale(f, pivot)
		return true
	case ModeRotate:
		pivot := s.Centroid()
		d := RotationDelta(prev, cur, pivot)
		if d == 0 {
			return false
		}
		s.Rotate(d, pivot)
		return true
	default:
		dx, dy := cur.X-prev.X, cur.Y-prev.Y
		if dx == 0 && dy == 0 {
			return false
		}
		s.Translate(dx, dy)
		return true
	}
}
