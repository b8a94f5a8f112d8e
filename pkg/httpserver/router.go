// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package httpserver assembles the registry's HTTP surface: the
// Git-smart-HTTP index endpoints, static crate-archive delivery, and the
// stub publish/search/ownership API, all mounted per registry name so one
// process can serve several registries side by side.
package httpserver

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cargomirror/registry/pkg/gitproto"
	"github.com/cargomirror/registry/pkg/registry"
)

// serverName/serverVersion populate the server: response header attached to
// every response, matching the teacher's convention of stamping a fixed
// identity header from its HTTP server package.
const (
	serverName    = "cratery"
	serverVersion = "0.1.0"
)

// NewRouter builds the top-level router for a single registry, mounted at
// "/" + reg.Config.Meta.Name by the caller (or directly at "/" for
// single-registry deployments via Mount("/", ...)).
func NewRouter(reg *registry.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(serverHeaderMiddleware)

	r.Route("/api/v1/crates", func(api chi.Router) {
		newAPIServer(reg.Config.Meta.Name, reg.Paths.Crates).mount(api)
	})

	r.Route("/index", func(idx chi.Router) {
		bridge := gitproto.NewBridge(reg.Paths.Index, gitproto.Access{
			GitUploadPack:  reg.Config.Access.GitUploadPack,
			GitReceivePack: reg.Config.Access.GitReceivePack,
		})
		idx.Get("/info/refs", bridge.InfoRefs)
		idx.Post("/git-upload-pack", bridge.UploadPack)
		idx.Post("/git-receive-pack", bridge.ReceivePack)
		newObjectServer(reg.Paths.Index).mount(idx)
	})

	r.Route("/crates", func(c chi.Router) {
		newCrateServer(reg.Paths.Crates).mount(c)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		http.Error(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}

// Mux hosts one or more registries under their own name prefix, so a single
// process can serve a fleet of registries side by side.
type Mux struct {
	router chi.Router
}

// NewMux builds an empty multi-registry host.
func NewMux() *Mux {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	return &Mux{router: r}
}

// Add mounts reg under "/" + reg's configured name.
func (m *Mux) Add(reg *registry.Registry) {
	m.router.Mount("/"+reg.Config.Meta.Name, NewRouter(reg))
}

// ServeHTTP implements http.Handler.
func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.router.ServeHTTP(w, r)
}

func serverHeaderMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("server", fmt.Sprintf("%s %s", serverName, serverVersion))
		next.ServeHTTP(w, r)
	})
}
