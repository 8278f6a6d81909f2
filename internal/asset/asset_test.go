package asset

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(1, 1, color.RGBA{255, 0, 0, 255})
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

func TestLibraryPutOpenRemove(t *testing.T) {
	lib, err := NewLibrary(t.TempDir())
	require.NoError(t, err)

	id, err := lib.Put(testImage())
	require.NoError(t, err)

	img, err := lib.Open(id)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	require.NoError(t, lib.Remove(id))
	_, err = lib.Open(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, lib.Remove(id), ErrNotFound)
	assert.ErrorIs(t, lib.Remove("../etc/passwd"), ErrNotFound)
}

func TestDecodeSources(t *testing.T) {
	lib, err := NewLibrary(t.TempDir())
	require.NoError(t, err)
	id, err := lib.Put(testImage())
	require.NoError(t, err)
	ctx := context.Background()

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))
	for _, src := range []string{dataURL, URL(id), id} {
		img, err := lib.Decode(ctx, src)
		require.NoError(t, err, src[:min(len(src), 40)])
		assert.Equal(t, 3, img.Bounds().Dx())
	}

	_, err = lib.Decode(ctx, "https://example.com/cat.png")
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = lib.Decode(ctx, "data:text/plain,hello")
	assert.ErrorIs(t, err, ErrUnsupported)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = lib.Decode(cancelled, id)
	assert.ErrorIs(t, err, context.Canceled)
}

func newUpload(t *testing.T, contentType string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="pic.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/assets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadAndDelete(t *testing.T) {
	lib, err := NewLibrary(t.TempDir())
	require.NoError(t, err)
	h := NewHandler(lib)

	r := mux.NewRouter()
	r.HandleFunc("/api/assets", h.Upload).Methods(http.MethodPost)
	r.HandleFunc("/api/assets/{id}", h.Delete).Methods(http.MethodDelete)
	r.PathPrefix("/assets/").Handler(h.Serve())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, newUpload(t, "image/png", pngBytes(t)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 3, resp.Width)
	assert.Equal(t, 2, resp.Height)
	assert.Equal(t, URL(resp.ID), resp.URL)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/assets/"+resp.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/assets/"+resp.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRejectsOtherTypes(t *testing.T) {
	lib, err := NewLibrary(t.TempDir())
	require.NoError(t, err)
	h := NewHandler(lib)

	rec := httptest.NewRecorder()
	h.Upload(rec, newUpload(t, "text/plain", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Upload(rec, newUpload(t, "image/png", []byte("not a png")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDataURLDecoder(t *testing.T) {
	ctx := context.Background()
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t))

	img, err := DataURLDecoder{}.Decode(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	_, err = DataURLDecoder{}.Decode(ctx, "/assets/asset_x.png")
	assert.ErrorIs(t, err, ErrUnsupported)
}
