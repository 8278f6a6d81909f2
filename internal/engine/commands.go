package engine

import (
	"encoding/json"

	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/shape"
	"github.com/inamate/sketchboard/internal/typeface"
)

// DrawCommand is a single Canvas2D call for a remote client to replay.
type DrawCommand struct {
	Op    string    `json:"op"`              // Canvas2D method or property name
	Args  []float64 `json:"args,omitempty"`  // Numeric arguments in call order
	Style string    `json:"style,omitempty"` // Color for fillStyle/strokeStyle, cap for lineCap
	Text  string    `json:"text,omitempty"`  // fillText/strokeText content
	Src   string    `json:"src,omitempty"`   // drawImage source reference
}

var _ shape.Surface = (*Recorder)(nil)

// Recorder is a Surface that buffers draw commands instead of painting.
type Recorder struct {
	measurer shape.TextMeasurer
	commands []DrawCommand
}

// NewRecorder measures text with m, or the embedded face when m is nil.
func NewRecorder(m shape.TextMeasurer) *Recorder {
	if m == nil {
		m = typeface.Default()
	}
	return &Recorder{measurer: m}
}

func (r *Recorder) Commands() []DrawCommand { return r.commands }

func (r *Recorder) Reset() { r.commands = r.commands[:0] }

func (r *Recorder) emit(op string, args ...float64) {
	r.commands = append(r.commands, DrawCommand{Op: op, Args: args})
}

func (r *Recorder) MeasureText(text string, size float64) float64 {
	return r.measurer.MeasureText(text, size)
}

func (r *Recorder) Save()                        { r.emit("save") }
func (r *Recorder) Restore()                     { r.emit("restore") }
func (r *Recorder) Translate(x, y float64)       { r.emit("translate", x, y) }
func (r *Recorder) Rotate(angle float64)         { r.emit("rotate", angle) }
func (r *Recorder) SetGlobalAlpha(alpha float64) { r.emit("globalAlpha", alpha) }
func (r *Recorder) BeginPath()                   { r.emit("beginPath") }
func (r *Recorder) ClosePath()                   { r.emit("closePath") }
func (r *Recorder) MoveTo(x, y float64)          { r.emit("moveTo", x, y) }
func (r *Recorder) LineTo(x, y float64)          { r.emit("lineTo", x, y) }
func (r *Recorder) Fill()                        { r.emit("fill") }
func (r *Recorder) Stroke()                      { r.emit("stroke") }
func (r *Recorder) SetLineWidth(w float64)       { r.emit("lineWidth", w) }

func (r *Recorder) Arc(x, y, radius, startAngle, endAngle float64) {
	r.emit("arc", x, y, radius, startAngle, endAngle)
}

func (r *Recorder) Ellipse(x, y, rx, ry, rotation, startAngle, endAngle float64) {
	r.emit("ellipse", x, y, rx, ry, rotation, startAngle, endAngle)
}

func (r *Recorder) Rect(x, y, width, height float64) {
	r.emit("rect", x, y, width, height)
}

func (r *Recorder) SetFillStyle(color string) {
	r.commands = append(r.commands, DrawCommand{Op: "fillStyle", Style: color})
}

func (r *Recorder) SetStrokeStyle(color string) {
	r.commands = append(r.commands, DrawCommand{Op: "strokeStyle", Style: color})
}

func (r *Recorder) SetLineCap(lineCap string) {
	r.commands = append(r.commands, DrawCommand{Op: "lineCap", Style: lineCap})
}

// SetLineDash records a copy of segments. A command without args resets
// the dash.
func (r *Recorder) SetLineDash(segments []float64) {
	args := append([]float64{}, segments...)
	r.commands = append(r.commands, DrawCommand{Op: "setLineDash", Args: args})
}

func (r *Recorder) FillText(text string, x, y, size float64) {
	r.commands = append(r.commands, DrawCommand{Op: "fillText", Args: []float64{x, y, size}, Text: text})
}

func (r *Recorder) StrokeText(text string, x, y, size float64) {
	r.commands = append(r.commands, DrawCommand{Op: "strokeText", Args: []float64{x, y, size}, Text: text})
}

func (r *Recorder) DrawImage(b *shape.Bitmap, x, y, width, height float64) {
	r.commands = append(r.commands, DrawCommand{Op: "drawImage", Args: []float64{x, y, width, height}, Src: b.Src})
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r geom.Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
