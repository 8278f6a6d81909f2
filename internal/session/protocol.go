package session

import (
	"encoding/json"

	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/geom"
)

type Message struct {
	Type      string          `json:"type"`
	DrawingID string          `json:"drawingId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client to server
	TypeEvent      = "event"
	TypeTool       = "tool"
	TypeStyle      = "style"
	TypeApplyStyle = "applyStyle"
	TypeDelete     = "delete"
	TypeText       = "text"
	TypeClear      = "clear"
	TypeImage      = "image"
	TypeSave       = "save"
	TypeLoad       = "load"

	TypeLayerAdd     = "layer.add"
	TypeLayerDelete  = "layer.delete"
	TypeLayerRename  = "layer.rename"
	TypeLayerVisible = "layer.visible"
	TypeLayerOpacity = "layer.opacity"
	TypeLayerMove    = "layer.move"
	TypeLayerActive  = "layer.active"
	TypeLayerClear   = "layer.clear"

	// Server to client
	TypeWelcome       = "welcome"
	TypeRender        = "render"
	TypeNotice        = "notice"
	TypeSaved         = "saved"
	TypeError         = "error"
	TypePresenceState = "presence.state"
	TypePresenceJoin  = "presence.join"
	TypePresenceLeave = "presence.leave"
)

// --- Client payloads ---

type ToolPayload struct {
	Tool string `json:"tool"`
}

// StylePayload replaces the client's current drawing style.
type StylePayload struct {
	Color     string  `json:"color"`
	Fill      string  `json:"fill"`
	LineWidth float64 `json:"lineWidth"`
}

// TextPayload confirms the pending text placement, or drops it when
// Cancel is set.
type TextPayload struct {
	Text   string `json:"text"`
	Cancel bool   `json:"cancel,omitempty"`
}

// LayerPayload carries the arguments of every layer.* message; each
// message reads only the fields it needs.
type LayerPayload struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name,omitempty"`
	Visible *bool    `json:"visible,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`
	Index   *int     `json:"index,omitempty"`
}

type ImagePayload struct {
	Src string  `json:"src"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
}

// LoadPayload replaces the drawing with Document, or with the built-in
// sample when Sample is set.
type LoadPayload struct {
	Document json.RawMessage `json:"document,omitempty"`
	Sample   bool            `json:"sample,omitempty"`
}

// --- Server payloads ---

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

type LayerInfo struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Visible bool    `json:"visible"`
	Opacity float64 `json:"opacity"`
	Shapes  int     `json:"shapes"`
}

// RenderPayload is one full frame for one client: the scene with that
// client's selection and previews, plus the state its toolbar shows.
type RenderPayload struct {
	Commands    []engine.DrawCommand `json:"commands"`
	Layers      []LayerInfo          `json:"layers"`
	ActiveLayer string               `json:"activeLayer"`
	Tool        string               `json:"tool"`
	Selected    string               `json:"selected,omitempty"`
	Selection   *geom.Rect           `json:"selection,omitempty"`
	PendingText *geom.Point          `json:"pendingText,omitempty"`
	Pending     int                  `json:"pending,omitempty"`
}

type NoticePayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type SavedPayload struct {
	Shapes int `json:"shapes"`
}

type Participant struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Tool        string `json:"tool"`
}

type PresenceStatePayload struct {
	Participants []Participant `json:"participants"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}
