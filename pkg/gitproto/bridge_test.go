package gitproto

import (
	"net/http"
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGitBinary(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available on PATH")
	}
}

func newTestIndex(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "index")
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return dir
}

func TestBridge_InfoRefs_DumbModeWhenServiceMissing(t *testing.T) {
	requireGitBinary(t)
	t.Parallel()

	b := NewBridge(newTestIndex(t), Access{GitUploadPack: true, GitReceivePack: true})

	req := httptest.NewRequest(http.MethodGet, "/index/info/refs", nil)
	w := httptest.NewRecorder()
	b.InfoRefs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache, max-age=0, must-revalidate", w.Header().Get("Cache-Control"))
}

func TestBridge_InfoRefs_DumbModeWhenAccessDenied(t *testing.T) {
	requireGitBinary(t)
	t.Parallel()

	b := NewBridge(newTestIndex(t), Access{GitUploadPack: false, GitReceivePack: false})

	req := httptest.NewRequest(http.MethodGet, "/index/info/refs?service=git-upload-pack", nil)
	w := httptest.NewRecorder()
	b.InfoRefs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestBridge_InfoRefs_SmartMode(t *testing.T) {
	requireGitBinary(t)
	t.Parallel()

	b := NewBridge(newTestIndex(t), Access{GitUploadPack: true, GitReceivePack: true})

	req := httptest.NewRequest(http.MethodGet, "/index/info/refs?service=git-upload-pack", nil)
	w := httptest.NewRecorder()
	b.InfoRefs(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-git-upload-pack-advertisement", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "# service=git-upload-pack")
}

func TestBridge_UploadPack_RejectsWrongContentType(t *testing.T) {
	t.Parallel()

	b := NewBridge(newTestIndex(t), Access{GitUploadPack: true})

	req := httptest.NewRequest(http.MethodPost, "/index/git-upload-pack", nil)
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	b.UploadPack(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBridge_UploadPack_RejectsWhenAccessDisabled(t *testing.T) {
	t.Parallel()

	b := NewBridge(newTestIndex(t), Access{GitUploadPack: false})

	req := httptest.NewRequest(http.MethodPost, "/index/git-upload-pack", nil)
	req.Header.Set("Content-Type", "application/x-git-upload-pack-request")
	w := httptest.NewRecorder()
	b.UploadPack(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBridge_ReceivePack_RejectsWrongContentType(t *testing.T) {
	t.Parallel()

	b := NewBridge(newTestIndex(t), Access{GitReceivePack: true})

	req := httptest.NewRequest(http.MethodPost, "/index/git-receive-pack", nil)
	req.Header.Set("Content-Type", "application/x-git-upload-pack-request")
	w := httptest.NewRecorder()
	b.ReceivePack(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
