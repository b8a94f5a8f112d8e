// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cargomirror/registry/pkg/registry"
)

// apiServer implements the api/v1/crates URL family. Everything but the
// download redirect is an intentional stub: a stock client's command set
// must not hard-fail against this server, but publish/search/ownership
// management are out of scope.
type apiServer struct {
	registryName string
	cratesPath   string
}

func newAPIServer(registryName, cratesPath string) *apiServer {
	return &apiServer{registryName: registryName, cratesPath: cratesPath}
}

func (s *apiServer) mount(r chi.Router) {
	r.Put("/new", s.publish)
	r.Get("/{name}/{version}/download", s.download)
	r.Get("/{name}/owners", s.listOwners)
	r.Put("/{name}/owners", s.ok)
	r.Delete("/{name}/owners", s.ok)
	r.Delete("/{name}/{version}/yank", s.ok)
	r.Put("/{name}/{version}/unyank", s.ok)
	r.Get("/", s.search)
}

func (s *apiServer) publish(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"warnings": map[string]any{
			"invalid_categories": []string{},
			"invalid_badges":     []string{},
			"other":              []string{},
		},
	})
}

// download redirects to the static crate archive under this registry's
// crates/ family, rather than serving the file itself from the api
// family, per the router's documented split of responsibilities.
func (s *apiServer) download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	version := chi.URLParam(r, "version")
	if !validCrateComponent(name) || !validCrateComponent(version) {
		http.NotFound(w, r)
		return
	}
	location := "/" + s.registryName + "/crates/" + registry.CratePath(name, version)
	http.Redirect(w, r, location, http.StatusFound)
}

func (s *apiServer) listOwners(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"users": []string{}})
}

func (s *apiServer) ok(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *apiServer) search(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"crates": []string{},
		"meta":   map[string]any{"total": 0},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
