// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	regerrors "github.com/cargomirror/registry/pkg/errors"
	"github.com/cargomirror/registry/pkg/logger"
)

// indexBranch is the branch the index repository is cloned/tracked on. The
// registry protocol this mirrors has standardized on "master" for the index
// repo regardless of the host's own default-branch configuration.
const indexBranch = "master"

// Registry is an opened registry: its paths and its parsed configuration.
// A Registry is not mutated once it is handed to the HTTP server or the
// mirror pipeline, so it can be shared read-only across HTTP handler
// goroutines and mirror-pipeline workers without locking.
type Registry struct {
	Paths  Paths
	Config *Config
}

// Create makes a fresh, empty registry at root: root/index and root/crates
// are created, registry.toml is written with defaults and no mirror
// section, and root/index is initialized as an empty Git repository.
func Create(root, name string) (*Registry, error) {
	paths, err := NewPaths(root)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name, err = DeriveName(root)
		if err != nil {
			return nil, err
		}
	}

	if err := mkRegistryDirs(paths); err != nil {
		return nil, err
	}

	cfg := DefaultConfig(name)
	if err := SaveConfig(paths.Config, cfg); err != nil {
		return nil, err
	}

	if _, err := git.PlainInit(paths.Index, false); err != nil {
		return nil, regerrors.NewGitError("failed to initialize index repository", err)
	}

	logger.Infof("created registry %q at %s", name, paths.Root)
	return &Registry{Paths: paths, Config: cfg}, nil
}

// Mirror makes a registry at root whose index is a clone of source. The
// upstream's config.json is preserved verbatim on disk; its values are also
// copied into the TOML's mirror.origin-urls so later steps (the mirror
// pipeline run by `update`) know where to download archives from.
func Mirror(root, name, source string) (*Registry, error) {
	paths, err := NewPaths(root)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name, err = DeriveName(root)
		if err != nil {
			return nil, err
		}
	}

	if err := mkRegistryDirs(paths); err != nil {
		return nil, err
	}

	logger.Infof("cloning index from %s", source)
	if _, err := git.PlainClone(paths.Index, false, &git.CloneOptions{
		URL:          source,
		SingleBranch: true,
	}); err != nil {
		return nil, regerrors.NewGitError("failed to clone upstream index", err)
	}

	origin, err := readUpstreamConfigJSON(paths)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig(name)
	cfg.Mirror = &MirrorConfig{
		Source: source,
		Sync:   true,
		OriginURLs: OriginURLs{
			DL:  origin.DL,
			API: origin.API,
		},
	}
	if err := SaveConfig(paths.Config, cfg); err != nil {
		return nil, err
	}

	return &Registry{Paths: paths, Config: cfg}, nil
}

// Open loads registry.toml from root and resolves the derived paths.
func Open(root string) (*Registry, error) {
	paths, err := NewPaths(root)
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(paths.Config)
	if err != nil {
		return nil, err
	}
	return &Registry{Paths: paths, Config: cfg}, nil
}

// BaseURL returns scheme://domain[:port]/name for this registry.
func (r *Registry) BaseURL() string {
	return r.Config.BaseURL()
}

// FetchIndex fast-forwards the index working tree to origin/master. It is
// the Git half of `update`; the mirror-pipeline half lives in pkg/mirror so
// that package can depend on this one without a cycle.
func (r *Registry) FetchIndex(ctx context.Context) error {
	if !r.Config.IsMirror() {
		return regerrors.NewNotMirrorError("registry at "+r.Paths.Root+" is not a mirror", nil)
	}

	repo, err := git.PlainOpen(r.Paths.Index)
	if err != nil {
		return regerrors.NewGitError("failed to open index repository", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return regerrors.NewGitError("failed to open index worktree", err)
	}

	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(indexBranch),
		SingleBranch:  true,
		Force:         true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return regerrors.NewGitError("failed to fetch/fast-forward index", err)
	}

	logger.Infof("index up to date at %s", r.Paths.Index)
	return nil
}

func mkRegistryDirs(paths Paths) error {
	if _, err := os.Stat(paths.Root); err == nil {
		return regerrors.NewAlreadyExistsError("registry root "+paths.Root+" already exists", nil)
	}
	for _, dir := range []string{paths.Root, paths.Index, paths.Crates} {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // registry trees are not secret
			return regerrors.NewIOError("failed to create registry directory "+dir, err)
		}
	}
	return nil
}

func readUpstreamConfigJSON(paths Paths) (IndexConfig, error) {
	data, err := os.ReadFile(paths.ConfigJSON()) //nolint:gosec // path is derived from the registry root
	if err != nil {
		return IndexConfig{}, regerrors.NewIOError("failed to read upstream config.json", err)
	}
	var cfg IndexConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return IndexConfig{}, regerrors.NewJSONError("failed to parse upstream config.json", err)
	}
	return cfg, nil
}
