package document

import (
	"encoding/json"

	"github.com/inamate/sketchboard/internal/shape"
)

// LayerRecord is one element of the persisted top-level array.
type LayerRecord struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Visible *bool             `json:"visible,omitempty"`
	Opacity *float64          `json:"opacity,omitempty"`
	Shapes  []json.RawMessage `json:"shapes"`
}

// layerOut is the encoding side of LayerRecord.
type layerOut struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Visible bool          `json:"visible"`
	Opacity float64       `json:"opacity"`
	Shapes  []shape.Shape `json:"shapes"`
}

type shapeHeader struct {
	Type shape.Kind `json:"type"`
}

// Warning describes a record that was skipped during load.
type Warning struct {
	Layer  string `json:"layer"`
	Index  int    `json:"index"`
	Type   string `json:"type,omitempty"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	if w.Type == "" {
		return "layer " + w.Layer + ": " + w.Reason
	}
	return "layer " + w.Layer + ": " + w.Type + ": " + w.Reason
}
