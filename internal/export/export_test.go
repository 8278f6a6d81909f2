package export_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/sketchboard/internal/auth"
	"github.com/inamate/sketchboard/internal/drawing"
	"github.com/inamate/sketchboard/internal/export"
	"github.com/inamate/sketchboard/internal/storage/memory"
)

const redSquare = `[{"name":"Layer 1","shapes":[
	{"type":"rectangle","x1":10,"y1":10,"x2":50,"y2":50,"color":"#ff0000","fill":"#ff0000","lineWidth":2}
]}]`

func rgba(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func TestRender(t *testing.T) {
	c, res, err := export.Render(context.Background(), []byte(redSquare), export.Options{Width: 100, Height: 80})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Shapes)

	img := c.Image()
	assert.Equal(t, image.Rect(0, 0, 100, 80), img.Bounds())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(img.At(40, 20)))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgba(img.At(80, 70)))
}

func TestRenderFit(t *testing.T) {
	c, _, err := export.Render(context.Background(), []byte(redSquare), export.Options{Width: 10, Height: 10, Fit: true})
	require.NoError(t, err)

	b := c.Image().Bounds()
	assert.InDelta(t, 82, b.Dx(), 2)
	assert.InDelta(t, 82, b.Dy(), 2)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(c.Image().At(b.Dx()/2+10, b.Dy()/2-10)))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgba(c.Image().At(2, 2)))
}

func TestRenderRejectsMalformed(t *testing.T) {
	_, _, err := export.Render(context.Background(), []byte(`{}`), export.Options{Width: 10, Height: 10})
	assert.Error(t, err)
}

func TestExportHandler(t *testing.T) {
	ctx := context.Background()
	svc := drawing.NewService(memory.NewStore())
	d, err := svc.Create(ctx, "Red square!", "alice")
	require.NoError(t, err)
	_, err = svc.Save(ctx, d.ID, "alice", []byte(redSquare))
	require.NoError(t, err)

	h := export.NewHandler(svc, nil, 64, 64)
	router := func(user string) http.Handler {
		r := mux.NewRouter()
		r.HandleFunc("/api/drawings/{drawingId}/export.png", func(w http.ResponseWriter, r *http.Request) {
			h.ExportPNG(w, r.WithContext(auth.WithUserID(r.Context(), user)))
		})
		return r
	}

	rec := httptest.NewRecorder()
	router("alice").ServeHTTP(rec, httptest.NewRequest("GET", "/api/drawings/"+d.ID+"/export.png?width=120", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `Red-square-.png`)

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 64), img.Bounds())

	rec = httptest.NewRecorder()
	router("bob").ServeHTTP(rec, httptest.NewRequest("GET", "/api/drawings/"+d.ID+"/export.png", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router("alice").ServeHTTP(rec, httptest.NewRequest("GET", "/api/drawings/drw_nothing/export.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
