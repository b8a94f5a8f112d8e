// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cargomirror/registry/pkg/cachepolicy"
)

// looseObjectRE matches the two-hex-digit fan-out directory of a loose
// object's path (the "ab" of "ab/cdef0123...").
var looseObjectRE = regexp.MustCompile(`^[0-9a-f]{2}$`)

// objectServer serves the static files under an index repository's .git
// directory that the dumb and smart Git-HTTP protocols both rely on:
// loose objects, pack files, and the small set of always-dynamic refs
// files, each with the caching policy the Git HTTP backend convention
// specifies for that file class.
type objectServer struct {
	indexPath string
}

func newObjectServer(indexPath string) *objectServer {
	return &objectServer{indexPath: indexPath}
}

// mount registers the object/ref static routes under r. info/refs is
// deliberately absent: gitproto.Bridge.InfoRefs owns that path, serving
// both the smart-protocol advertisement and the dumb-protocol fallback.
// The wildcard route is registered last: it serves the index working tree
// itself (the sharded crate-name files, excluding .git) as the last resort
// for a dumb client that never speaks the Git protocol at all.
func (s *objectServer) mount(r chi.Router) {
	r.Get("/HEAD", s.serveNoCache("HEAD"))
	r.Get("/objects/info/packs", s.serveCacheForever("objects/info/packs"))
	r.Get("/objects/info/alternates", s.serveNoCache("objects/info/alternates"))
	r.Get("/objects/info/http-alternates", s.serveNoCache("objects/info/http-alternates"))
	r.Get("/objects/{fanout}/{rest}", s.serveLooseObject)
	r.Get("/objects/pack/{packfile}", s.servePack)
	r.Get("/*", s.serveIndexFile)
}

func (s *objectServer) serveNoCache(rel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cachepolicy.NoCache(w)
		w.Header().Set("Content-Type", "text/plain")
		http.ServeFile(w, r, filepath.Join(s.indexPath, ".git", filepath.FromSlash(rel)))
	}
}

// serveCacheForever serves a .git file that, unlike HEAD or the alternates
// files, never changes after being regenerated: info/packs is rewritten
// wholesale by `git update-server-info`, never appended to in place.
func (s *objectServer) serveCacheForever(rel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cachepolicy.CacheForever(w)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		http.ServeFile(w, r, filepath.Join(s.indexPath, ".git", filepath.FromSlash(rel)))
	}
}

func (s *objectServer) serveLooseObject(w http.ResponseWriter, r *http.Request) {
	fanout := chi.URLParam(r, "fanout")
	rest := chi.URLParam(r, "rest")
	if !looseObjectRE.MatchString(fanout) || !isHex(rest) {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.indexPath, ".git", "objects", fanout, rest)
	cachepolicy.CacheForever(w)
	w.Header().Set("Content-Type", "application/x-git-loose-object")
	http.ServeFile(w, r, path)
}

func (s *objectServer) servePack(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "packfile")
	contentType, ok := packContentType(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.indexPath, ".git", "objects", "pack", name)
	cachepolicy.CacheForever(w)
	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, path)
}

// serveIndexFile delivers a file from the index working tree directly,
// bypassing Git entirely, for clients that only speak plain HTTP GET
// against the crate-name-file layout (e.g. curl, or a registry client with
// no Git support at all). .git is off-limits here; the bridge and
// objectServer's other routes own everything under it.
func (s *objectServer) serveIndexFile(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if rel == "" || strings.HasPrefix(rel, ".git") || strings.Contains(rel, "..") {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.indexPath, filepath.FromSlash(rel))
	cachepolicy.NoCache(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	http.ServeFile(w, r, path)
}

func packContentType(name string) (string, bool) {
	switch filepath.Ext(name) {
	case ".pack":
		return "application/x-git-packed-objects", true
	case ".idx":
		return "application/x-git-packed-objects-toc", true
	default:
		return "", false
	}
}

func isHex(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
