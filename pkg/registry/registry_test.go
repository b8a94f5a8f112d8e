package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	regerrors "github.com/cargomirror/registry/pkg/errors"
)

func TestCreate(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "my-registry")
	reg, err := Create(root, "")
	require.NoError(t, err)

	assert.Equal(t, "my-registry", reg.Config.Meta.Name)
	assert.DirExists(t, reg.Paths.Index)
	assert.DirExists(t, reg.Paths.Crates)
	assert.FileExists(t, reg.Paths.Config)

	_, err = git.PlainOpen(reg.Paths.Index)
	require.NoError(t, err)
}

func TestCreate_AlreadyExists(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "dup")
	_, err := Create(root, "")
	require.NoError(t, err)

	_, err = Create(root, "")
	require.Error(t, err)
	assert.True(t, regerrors.IsAlreadyExists(err))
}

func TestOpen(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "openme")
	_, err := Create(root, "explicit-name")
	require.NoError(t, err)

	reg, err := Open(root)
	require.NoError(t, err)
	assert.Equal(t, "explicit-name", reg.Config.Meta.Name)
}

// TestMirror exercises Mirror against a local upstream index repository
// built directly with go-git, standing in for a remote crates index.
func TestMirror(t *testing.T) {
	t.Parallel()

	upstreamDir := filepath.Join(t.TempDir(), "upstream-index")
	upstreamRepo, err := git.PlainInit(upstreamDir, false)
	require.NoError(t, err)

	configJSON := `{"dl":"https://upstream.example.com/api/v1/crates","api":"https://upstream.example.com"}`
	require.NoError(t, os.WriteFile(filepath.Join(upstreamDir, "config.json"), []byte(configJSON), 0o644))

	wt, err := upstreamRepo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("config.json")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com"},
	})
	require.NoError(t, err)

	root := filepath.Join(t.TempDir(), "mirror-registry")
	reg, err := Mirror(root, "", upstreamDir)
	require.NoError(t, err)

	assert.True(t, reg.Config.IsMirror())
	assert.Equal(t, upstreamDir, reg.Config.Mirror.Source)
	assert.Equal(t, "https://upstream.example.com/api/v1/crates", reg.Config.Mirror.OriginURLs.DL)
	assert.FileExists(t, reg.Paths.ConfigJSON())
}

func TestRegistry_FetchIndex_RequiresMirror(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "plain")
	reg, err := Create(root, "")
	require.NoError(t, err)

	err = reg.FetchIndex(context.Background())
	require.Error(t, err)
	assert.True(t, regerrors.IsNotMirror(err))
}

func TestRegistry_BaseURL(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "based")
	reg, err := Create(root, "based")
	require.NoError(t, err)

	assert.Equal(t, reg.Config.BaseURL(), reg.BaseURL())
}
