package asset

import (
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

const maxUploadSize = 10 << 20 // 10MB

var uploadTypes = []string{"image/png", "image/jpeg", "image/webp", "image/bmp", "image/gif"}

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// Handler serves asset upload and retrieval endpoints.
type Handler struct {
	lib *Library
}

func NewHandler(lib *Library) *Handler {
	return &Handler{lib: lib}
}

// Upload handles POST /assets/upload (multipart form with "file" field).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	supported := false
	for _, t := range uploadTypes {
		if strings.HasPrefix(contentType, t) {
			supported = true
			break
		}
	}
	if !supported {
		http.Error(w, "only PNG, JPEG, WebP, GIF and BMP images are supported", http.StatusBadRequest)
		return
	}

	img, format, err := image.Decode(file)
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.lib.Put(img)
	if err != nil {
		slog.Error("store asset", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}
	slog.Info("asset uploaded", "asset", id, "format", format, "name", header.Filename)

	bounds := img.Bounds()
	resp := UploadResponse{
		ID:     id,
		URL:    URL(id),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Type:   "png",
		Name:   header.Filename,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Serve returns an http.Handler that serves stored asset files with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.lib.Dir()))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete handles DELETE /api/assets/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.lib.Remove(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "asset not found", http.StatusNotFound)
			return
		}
		slog.Error("delete asset", "asset", id, "error", err)
		http.Error(w, "failed to delete asset", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
