package drawing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/sketchboard/internal/auth"
	"github.com/inamate/sketchboard/internal/drawing"
	"github.com/inamate/sketchboard/internal/storage/memory"
)

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := drawing.NewService(memory.NewStore())

	d, err := svc.Create(ctx, "  Plans ", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Plans", d.Name)
	assert.True(t, strings.HasPrefix(d.ID, "drw_"))

	var layers []map[string]any
	require.NoError(t, json.Unmarshal(d.Data, &layers))
	require.Len(t, layers, 1)
	assert.Equal(t, "Layer 1", layers[0]["name"])

	_, err = svc.Get(ctx, d.ID, "mallory")
	assert.ErrorIs(t, err, drawing.ErrForbidden)

	doc := `[{"name":"Ink","shapes":[
		{"type":"circle","x":10,"y":10,"radius":5},
		{"type":"blob"}
	]}]`
	saved, err := svc.Save(ctx, d.ID, "alice", []byte(doc))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(saved.Data, &layers))
	assert.Len(t, layers[0]["shapes"], 1)
	assert.NotEmpty(t, layers[0]["id"])

	_, err = svc.Save(ctx, d.ID, "alice", []byte(`{"nope":true}`))
	assert.ErrorIs(t, err, drawing.ErrInvalid)

	renamed, err := svc.Rename(ctx, d.ID, "alice", "Final")
	require.NoError(t, err)
	assert.Equal(t, "Final", renamed.Name)

	_, err = svc.Create(ctx, "Other", "alice")
	require.NoError(t, err)
	list, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, item := range list {
		assert.Nil(t, item.Data)
	}
	assert.False(t, list[0].UpdatedAt.Before(list[1].UpdatedAt))

	data, err := svc.ReadDocument(ctx, d.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(saved.Data), string(data))

	assert.ErrorIs(t, svc.Delete(ctx, d.ID, "mallory"), drawing.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, d.ID, "alice"))
	_, err = svc.Get(ctx, d.ID, "alice")
	assert.ErrorIs(t, err, drawing.ErrNotFound)
	assert.ErrorIs(t, svc.WriteDocument(ctx, d.ID, []byte(`[]`)), drawing.ErrNotFound)
}

func newRouter(svc *drawing.Service, user string) http.Handler {
	h := drawing.NewHandler(svc)
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), user)))
		})
	})
	r.HandleFunc("/api/drawings", h.List).Methods("GET")
	r.HandleFunc("/api/drawings", h.Create).Methods("POST")
	r.HandleFunc("/api/drawings/{drawingId}", h.Get).Methods("GET")
	r.HandleFunc("/api/drawings/{drawingId}", h.Rename).Methods("PATCH")
	r.HandleFunc("/api/drawings/{drawingId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/api/drawings/{drawingId}/document", h.GetDocument).Methods("GET")
	r.HandleFunc("/api/drawings/{drawingId}/document", h.PutDocument).Methods("PUT")
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandler(t *testing.T) {
	svc := drawing.NewService(memory.NewStore())
	alice := newRouter(svc, "alice")
	bob := newRouter(svc, "bob")

	rec := do(t, alice, "POST", "/api/drawings", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, alice, "POST", "/api/drawings", `{"name":"Map"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var d drawing.Drawing
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&d))
	base := "/api/drawings/" + d.ID

	assert.Equal(t, http.StatusOK, do(t, alice, "GET", base, "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, bob, "GET", base, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, alice, "GET", "/api/drawings/drw_missing", "").Code)

	rec = do(t, alice, "PUT", base+"/document", `[{"name":"A","shapes":[]}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusBadRequest, do(t, alice, "PUT", base+"/document", `"x"`).Code)

	rec = do(t, alice, "GET", base+"/document", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"A"`)

	rec = do(t, alice, "PATCH", base, `{"name":"Atlas"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Atlas")

	rec = do(t, alice, "GET", "/api/drawings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []drawing.Drawing
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, do(t, alice, "DELETE", base, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, alice, "DELETE", base, "").Code)
}
