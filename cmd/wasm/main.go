//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/sketchboard/internal/asset"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/geom"
	"github.com/inamate/sketchboard/internal/shape"
	"github.com/inamate/sketchboard/internal/typeface"
)

var (
	ed       *engine.Editor
	st       *engine.State
	recorder *engine.Recorder
)

func main() {
	ed = engine.New(engine.Options{Decoder: asset.DataURLDecoder{}, Measurer: typeface.Default()})
	st = engine.NewState()
	recorder = engine.NewRecorder(ed.Measurer())

	// Create the editor API object
	api := js.Global().Get("Object").New()

	// --- Commands (frontend → editor) ---
	api.Set("handleEvent", js.FuncOf(handleEvent))
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("setStyle", js.FuncOf(setStyle))
	api.Set("applyStyle", js.FuncOf(applyStyle))
	api.Set("deleteSelected", js.FuncOf(deleteSelected))
	api.Set("confirmText", js.FuncOf(confirmText))
	api.Set("cancelText", js.FuncOf(cancelText))
	api.Set("addLayer", js.FuncOf(addLayer))
	api.Set("deleteLayer", js.FuncOf(deleteLayer))
	api.Set("clearLayer", js.FuncOf(clearLayer))
	api.Set("setActiveLayer", js.FuncOf(setActiveLayer))
	api.Set("renameLayer", js.FuncOf(renameLayer))
	api.Set("setLayerVisible", js.FuncOf(setLayerVisible))
	api.Set("setLayerOpacity", js.FuncOf(setLayerOpacity))
	api.Set("moveLayer", js.FuncOf(moveLayer))
	api.Set("clear", js.FuncOf(clear))
	api.Set("insertImage", js.FuncOf(insertImage))
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← editor) ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("getLayers", js.FuncOf(getLayers))

	// Register on global scope
	js.Global().Set("sketchboard", api)

	// Signal that WASM is ready
	js.Global().Set("sketchboardWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func result(err error) interface{} {
	if err != nil {
		return fail(err)
	}
	return ok()
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

// --- Command Handlers ---

// handleEvent takes an event JSON object and returns whether a redraw is
// needed.
func handleEvent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	var ev engine.Event
	if err := json.Unmarshal([]byte(args[0].String()), &ev); err != nil {
		return js.ValueOf(false)
	}
	return js.ValueOf(ed.Handle(st, ev))
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("tool name")
	}
	t, err := engine.ParseTool(args[0].String())
	if err != nil {
		return fail(err)
	}
	ed.SetTool(st, t)
	return ok()
}

// setStyle(color, fill, lineWidth)
func setStyle(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("style arguments")
	}
	st.Style.Stroke = shape.Color(args[0].String())
	st.Style.Fill = shape.Color(args[1].String())
	st.Style.StrokeWidth = args[2].Float()
	return ok()
}

func applyStyle(this js.Value, args []js.Value) interface{} {
	return result(ed.ApplyStyle(st))
}

func deleteSelected(this js.Value, args []js.Value) interface{} {
	return result(ed.DeleteSelected(st))
}

func confirmText(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("text")
	}
	created, err := ed.ConfirmText(st, args[0].String())
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "created": created})
}

func cancelText(this js.Value, args []js.Value) interface{} {
	ed.CancelText(st)
	return nil
}

func addLayer(this js.Value, args []js.Value) interface{} {
	name := "New Layer"
	if len(args) > 0 && args[0].Type() == js.TypeString && args[0].String() != "" {
		name = args[0].String()
	}
	l := ed.AddLayer(name)
	return js.ValueOf(map[string]interface{}{"ok": true, "id": l.ID})
}

func deleteLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("layer id")
	}
	return result(ed.DeleteLayer(args[0].String()))
}

func clearLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("layer id")
	}
	return result(ed.ClearLayer(args[0].String()))
}

func setActiveLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("layer id")
	}
	return result(ed.Scene().SetActive(args[0].String()))
}

func renameLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("layer id and name")
	}
	return result(ed.Scene().RenameLayer(args[0].String(), args[1].String()))
}

func setLayerVisible(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("layer id and visibility")
	}
	return result(ed.Scene().SetVisible(args[0].String(), args[1].Bool()))
}

func setLayerOpacity(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("layer id and opacity")
	}
	return result(ed.Scene().SetOpacity(args[0].String(), args[1].Float()))
}

func moveLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("layer id and index")
	}
	return result(ed.Scene().MoveLayer(args[0].String(), args[1].Int()))
}

func clear(this js.Value, args []js.Value) interface{} {
	ed.Clear()
	return nil
}

// insertImage(src, x, y) starts decoding; the image appears on a later tick.
func insertImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("image source and position")
	}
	return result(ed.InsertImage(args[0].String(), geom.Pt(args[1].Float(), args[2].Float())))
}

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("document JSON")
	}
	res, err := ed.Load([]byte(args[0].String()))
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "message": res.Summary()})
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	ed.LoadSample()
	return ok()
}

// tick applies finished image decodes and reports how many landed.
func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ed.Drain())
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	recorder.Reset()
	ed.Render(st, recorder)
	out, err := engine.DrawCommandsToJSON(recorder.Commands())
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(out)
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(ed.HitTest(geom.Pt(args[0].Float(), args[1].Float())))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	b, ok := ed.SelectionBounds(st)
	if !ok {
		return js.ValueOf("null")
	}
	return js.ValueOf(engine.RectToJSON(b))
}

func getDocument(this js.Value, args []js.Value) interface{} {
	data, err := ed.Save()
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(string(data))
}

func getLayers(this js.Value, args []js.Value) interface{} {
	type layer struct {
		ID      string  `json:"id"`
		Name    string  `json:"name"`
		Visible bool    `json:"visible"`
		Opacity float64 `json:"opacity"`
		Shapes  int     `json:"shapes"`
		Active  bool    `json:"active"`
	}
	active := ed.Scene().Active().ID
	var out []layer
	for _, l := range ed.Scene().Layers() {
		out = append(out, layer{ID: l.ID, Name: l.Name, Visible: l.Visible, Opacity: l.Opacity, Shapes: len(l.Shapes), Active: l.ID == active})
	}
	data, _ := json.Marshal(out)
	return js.ValueOf(string(data))
}
