// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cargomirror/registry/pkg/cachepolicy"
	"github.com/cargomirror/registry/pkg/registry"
)

// crateServer serves the content-addressed crate archives under a
// registry's crates/ tree: direct file delivery via the sharded path
// layout, plus a directory listing at the tree root for operators
// browsing a mirror by hand.
type crateServer struct {
	cratesPath string
}

func newCrateServer(cratesPath string) *crateServer {
	return &crateServer{cratesPath: cratesPath}
}

// mount registers the archive routes (by name/version and by sharded path)
// and the root listing.
func (s *crateServer) mount(r chi.Router) {
	r.Get("/{name}/{vers}/download", s.download)
	r.Get("/", s.listRoot)
	r.Get("/*", s.serveArchive)
}

// serveArchive delivers a file from the crates tree by its sharded path,
// which is where the api family's download endpoint redirects.
func (s *crateServer) serveArchive(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	path := filepath.Join(s.cratesPath, filepath.FromSlash(rel))
	if info, err := os.Stat(path); strings.Contains(rel, "..") || err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	cachepolicy.CacheForever(w)
	w.Header().Set("Content-Type", "application/gzip")
	http.ServeFile(w, r, path)
}

// download serves the .crate archive for name@vers, using the same
// sharding rule the mirror pipeline wrote the file under.
func (s *crateServer) download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	vers := chi.URLParam(r, "vers")

	if !validCrateComponent(name) || !validCrateComponent(vers) {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.cratesPath, registry.CratePath(name, vers))
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}

	cachepolicy.CacheForever(w)
	w.Header().Set("Content-Type", "application/gzip")
	http.ServeFile(w, r, path)
}

// listRoot renders a minimal index of the top-level shard directories, for
// operators poking at a registry's crates tree over HTTP.
func (s *crateServer) listRoot(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.cratesPath)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	cachepolicy.NoCache(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(strings.Join(names, "\n") + "\n"))
}

// validCrateComponent rejects path-traversal and empty segments in the
// name/vers URL parameters before they reach filepath.Join.
func validCrateComponent(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, "/\\")
}
