package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inamate/sketchboard/internal/auth"
	"github.com/inamate/sketchboard/internal/document"
	"github.com/inamate/sketchboard/internal/drawing"
	"github.com/inamate/sketchboard/internal/typeface"
)

// Drawings looks up a drawing on behalf of a user.
type Drawings interface {
	Get(ctx context.Context, id, userID string) (*drawing.Drawing, error)
}

type Handler struct {
	drawings Drawings
	decoder  document.ImageDecoder
	book     *typeface.Book
	width    int
	height   int
}

func NewHandler(drawings Drawings, decoder document.ImageDecoder, width, height int) *Handler {
	return &Handler{
		drawings: drawings,
		decoder:  decoder,
		book:     typeface.Default(),
		width:    width,
		height:   height,
	}
}

// ExportPNG handles GET /api/drawings/{drawingId}/export.png. The query may
// override width and height, or ask for fit=true to crop to the content.
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := mux.Vars(r)["drawingId"]

	d, err := h.drawings.Get(r.Context(), id, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	opts := Options{
		Width:   h.width,
		Height:  h.height,
		Decoder: h.decoder,
		Book:    h.book,
	}
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("width")); err == nil {
		opts.Width = v
	}
	if v, err := strconv.Atoi(q.Get("height")); err == nil {
		opts.Height = v
	}
	opts.Fit, _ = strconv.ParseBool(q.Get("fit"))

	canvas, res, err := Render(r.Context(), d.Data, opts)
	if err != nil {
		if errors.Is(err, document.ErrMalformed) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "stored document is malformed"})
			return
		}
		slog.Error("render drawing", "drawing", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	var buf bytes.Buffer
	if err := canvas.EncodePNG(&buf); err != nil {
		slog.Error("encode export", "drawing", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	slog.Info("drawing exported", "drawing", id, "bytes", buf.Len(), "shapes", res.Shapes, "skipped", len(res.Warnings))
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename(d.Name)+".png"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// filename keeps letters, digits, dash and underscore.
func filename(name string) string {
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
	if strings.Trim(name, "-") == "" {
		return "drawing"
	}
	return name
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, drawing.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "drawing not found"})
	case errors.Is(err, drawing.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "access denied"})
	default:
		slog.Error("export error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
