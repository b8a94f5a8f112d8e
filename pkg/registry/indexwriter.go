// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	regerrors "github.com/cargomirror/registry/pkg/errors"
	"github.com/cargomirror/registry/pkg/logger"
)

const commitMessage = "base_url"

const (
	commitAuthorName  = "registry"
	commitAuthorEmail = "registry@localhost"
)

// WriteConfigJSONResult reports what WriteConfigJSON did.
type WriteConfigJSONResult struct {
	// Changed is false when the existing config.json already matched the
	// derived values (a no-op run).
	Changed bool
	// Commit is the new HEAD commit hash. It equals the previous HEAD when
	// Changed is false.
	Commit string
}

// WriteConfigJSON writes the registry's derived {dl, api} into the index's
// config.json and commits it, per the documented algorithm:
//
//  1. Force-checkout config.json from HEAD to discard pending changes.
//  2. If the current contents already equal the desired value, stop.
//  3. Otherwise rewrite the file, stage it, and commit with message
//     "base_url" (root commit if the index has no history yet).
func WriteConfigJSON(r *Registry) (WriteConfigJSONResult, error) {
	repo, err := git.PlainOpen(r.Paths.Index)
	if err != nil {
		return WriteConfigJSONResult{}, regerrors.NewGitError("failed to open index repository", err)
	}

	headHash, hasHead, err := headCommit(repo)
	if err != nil {
		return WriteConfigJSONResult{}, err
	}

	if hasHead {
		if err := checkoutFromHead(repo, headHash, r.Paths.Index); err != nil {
			return WriteConfigJSONResult{}, err
		}
	}

	desired := IndexConfig{
		DL:  r.BaseURL() + "/api/v1/crates",
		API: r.BaseURL(),
	}

	if current, ok := readConfigJSON(r.Paths); ok && current == desired {
		commit := ""
		if hasHead {
			commit = headHash.String()
		}
		return WriteConfigJSONResult{Changed: false, Commit: commit}, nil
	}

	data, err := json.Marshal(desired)
	if err != nil {
		return WriteConfigJSONResult{}, regerrors.NewJSONError("failed to serialize config.json", err)
	}
	if err := os.WriteFile(r.Paths.ConfigJSON(), data, 0o644); err != nil { //nolint:gosec // config.json is not secret
		return WriteConfigJSONResult{}, regerrors.NewIOError("failed to write config.json", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return WriteConfigJSONResult{}, regerrors.NewGitError("failed to open index worktree", err)
	}
	if _, err := wt.Add("config.json"); err != nil {
		return WriteConfigJSONResult{}, regerrors.NewGitError("failed to stage config.json", err)
	}

	hash, err := wt.Commit(commitMessage, &git.CommitOptions{
		Author: &object.Signature{Name: commitAuthorName, Email: commitAuthorEmail, When: time.Now()},
	})
	if err != nil {
		return WriteConfigJSONResult{}, regerrors.NewGitError("failed to commit config.json", err)
	}

	logger.Infof("committed config.json (%s) at %s", hash.String(), r.Paths.Index)
	return WriteConfigJSONResult{Changed: true, Commit: hash.String()}, nil
}

// readConfigJSON reads and parses the on-disk config.json, reporting ok=false
// if it is missing or fails to deserialize.
func readConfigJSON(paths Paths) (IndexConfig, bool) {
	data, err := os.ReadFile(paths.ConfigJSON()) //nolint:gosec // path is derived from the registry root
	if err != nil {
		return IndexConfig{}, false
	}
	var cfg IndexConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return IndexConfig{}, false
	}
	return cfg, true
}

// headCommit returns the current HEAD commit hash, or hasHead=false when the
// repository has no commits yet (a freshly `create`d registry).
func headCommit(repo *git.Repository) (plumbing.Hash, bool, error) {
	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, false, nil
		}
		return plumbing.ZeroHash, false, regerrors.NewGitError("failed to resolve index HEAD", err)
	}
	return ref.Hash(), true, nil
}

// checkoutFromHead restores config.json to its committed contents,
// discarding any pending worktree change, without disturbing the rest of
// the working tree.
func checkoutFromHead(repo *git.Repository, head plumbing.Hash, indexPath string) error {
	commit, err := repo.CommitObject(head)
	if err != nil {
		return regerrors.NewGitError("failed to load HEAD commit", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return regerrors.NewGitError("failed to load HEAD tree", err)
	}
	file, err := tree.File("config.json")
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			// Nothing committed yet under this name; nothing to restore.
			return nil
		}
		return regerrors.NewGitError("failed to load committed config.json", err)
	}
	contents, err := file.Contents()
	if err != nil {
		return regerrors.NewGitError("failed to read committed config.json", err)
	}
	if err := os.WriteFile(filepath.Join(indexPath, file.Name), []byte(contents), 0o644); err != nil { //nolint:gosec
		return regerrors.NewIOError("failed to restore config.json from HEAD", err)
	}
	return nil
}
