// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package registry implements the registry model and on-disk layout: the
// invariants, configuration schema, and lifecycle operations (create,
// mirror, open, update) of a registry directory tree.
package registry

import (
	"path/filepath"
	"strings"

	regerrors "github.com/cargomirror/registry/pkg/errors"
)

// Paths resolves the canonical directory tree rooted at an absolute
// directory:
//
//	<root>/registry.toml
//	<root>/index/            (a Git working tree)
//	<root>/crates/            (content-addressed archive tree)
type Paths struct {
	Root   string
	Config string
	Index  string
	Crates string
}

// NewPaths derives the canonical layout from an absolute root directory.
func NewPaths(root string) (Paths, error) {
	if root == "" {
		return Paths{}, regerrors.NewPathInvalidError("registry root must not be empty", nil)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Paths{}, regerrors.NewPathInvalidError("could not resolve registry root", err)
	}
	return Paths{
		Root:   abs,
		Config: filepath.Join(abs, "registry.toml"),
		Index:  filepath.Join(abs, "index"),
		Crates: filepath.Join(abs, "crates"),
	}, nil
}

// ConfigJSON is the path to the index's config.json.
func (p Paths) ConfigJSON() string {
	return filepath.Join(p.Index, "config.json")
}

// DeriveName returns the basename of root, used when a caller omits an
// explicit --name to create/mirror.
func DeriveName(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", regerrors.NewPathInvalidError("could not resolve registry root", err)
	}
	base := filepath.Base(abs)
	if base == "" || base == string(filepath.Separator) || base == "." {
		return "", regerrors.NewPathInvalidError("could not derive registry name from path "+root, nil)
	}
	return base, nil
}

// CratePath maps (name, version) to the sharded filesystem path under the
// crates tree, using the same rule the index itself uses to shard crate
// name files:
//
//	len(name) == 1 -> 1/<name>/<name>-<vers>.crate
//	len(name) == 2 -> 2/<name>/<name>-<vers>.crate
//	len(name) == 3 -> 3/<name[0]>/<name>/<name>-<vers>.crate
//	len(name) >= 4 -> <name[0:2]>/<name[2:4]>/<name>/<name>-<vers>.crate
func CratePath(name, vers string) string {
	lower := strings.ToLower(name)
	file := lower + "-" + vers + ".crate"

	switch len(lower) {
	case 1:
		return filepath.Join("1", lower, file)
	case 2:
		return filepath.Join("2", lower, file)
	case 3:
		return filepath.Join("3", lower[0:1], lower, file)
	default:
		return filepath.Join(lower[0:2], lower[2:4], lower, file)
	}
}
