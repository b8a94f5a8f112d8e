package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPIRouter(t *testing.T) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	newAPIServer("my-registry", "/crates").mount(r)
	return r
}

func TestAPIServer_Publish(t *testing.T) {
	t.Parallel()

	router := newAPIRouter(t)
	req := httptest.NewRequest(http.MethodPut, "/new", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "warnings")
}

func TestAPIServer_Download_Redirects(t *testing.T) {
	t.Parallel()

	router := newAPIRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/serde/1.0.0/download", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/my-registry/crates/")
	assert.Contains(t, w.Header().Get("Location"), "serde-1.0.0.crate")
}

func TestAPIServer_Owners(t *testing.T) {
	t.Parallel()

	router := newAPIRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/serde/owners", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"users":[]}`, w.Body.String())
}

func TestAPIServer_YankUnyankOwnersOK(t *testing.T) {
	t.Parallel()

	router := newAPIRouter(t)
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodDelete, "/serde/1.0.0/yank", nil),
		httptest.NewRequest(http.MethodPut, "/serde/1.0.0/unyank", nil),
		httptest.NewRequest(http.MethodPut, "/serde/owners", nil),
		httptest.NewRequest(http.MethodDelete, "/serde/owners", nil),
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, req.Method+" "+req.URL.Path)
		assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	}
}

func TestAPIServer_Search(t *testing.T) {
	t.Parallel()

	router := newAPIRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"crates":[],"meta":{"total":0}}`, w.Body.String())
}
