package httpserver

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargomirror/registry/pkg/registry"
)

func newCratesRouter(t *testing.T, cratesPath string) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	newCrateServer(cratesPath).mount(r)
	return r
}

func TestCrateServer_Download(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rel := registry.CratePath("serde", "1.0.0")
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("archive bytes"), 0o644))

	router := newCratesRouter(t, dir)
	req := httptest.NewRequest(http.MethodGet, "/serde/1.0.0/download", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "archive bytes", w.Body.String())
	assert.Equal(t, "public, max-age=31536000", w.Header().Get("Cache-Control"))
}

func TestCrateServer_Download_NotFound(t *testing.T) {
	t.Parallel()

	router := newCratesRouter(t, t.TempDir())
	req := httptest.NewRequest(http.MethodGet, "/missing/1.0.0/download", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCrateServer_ListRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "se"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ab"), 0o755))

	router := newCratesRouter(t, dir)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "se")
	assert.Contains(t, w.Body.String(), "ab")
}

func TestValidCrateComponent(t *testing.T) {
	t.Parallel()

	assert.True(t, validCrateComponent("serde"))
	assert.False(t, validCrateComponent(""))
	assert.False(t, validCrateComponent("."))
	assert.False(t, validCrateComponent(".."))
	assert.False(t, validCrateComponent("a/b"))
}
