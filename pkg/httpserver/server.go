// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	regerrors "github.com/cargomirror/registry/pkg/errors"
	"github.com/cargomirror/registry/pkg/logger"
	"github.com/cargomirror/registry/pkg/registry"
)

// maxUploadPackBody bounds the git-upload-pack request body the server will
// read into the stateless-RPC bridge, per the concurrency model's documented
// 1 GiB ceiling.
const maxUploadPackBody = 1 << 30 // 1 GiB

const (
	readHeaderTimeout = 30 * time.Second
	// Git-protocol RPCs and large pack transfers can legitimately run far
	// longer than a typical API call, so there is no fixed write timeout;
	// only the headers get one, to bound slow-loris-style connections.
)

// Serve checks the TLS certificate/key when ssl is set, binds the configured
// address, runs the index writer once to stamp config.json with this
// registry's externally visible base URL, mounts its router under
// "/"+reg.Config.Meta.Name (matching the base URL the index writer just
// stamped), and then blocks serving HTTP(S) until ctx is canceled.
func Serve(ctx context.Context, reg *registry.Registry) error {
	if reg.Config.HTTP.SSL {
		if _, err := tls.LoadX509KeyPair(reg.Config.HTTP.Cert, reg.Config.HTTP.Key); err != nil {
			return regerrors.NewTLSError("failed to load TLS certificate/key", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", reg.Config.HTTP.IP, reg.Config.HTTP.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return regerrors.NewIOError("failed to bind "+addr, err)
	}

	if _, err := registry.WriteConfigJSON(reg); err != nil {
		_ = ln.Close()
		return err
	}

	mux := NewMux()
	mux.Add(reg)
	handler := http.MaxBytesHandler(mux, maxUploadPackBody)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("serving registry %q on %s (ssl=%v)", reg.Config.Meta.Name, addr, reg.Config.HTTP.SSL)
		var err error
		if reg.Config.HTTP.SSL {
			err = srv.ServeTLS(ln, reg.Config.HTTP.Cert, reg.Config.HTTP.Key)
		} else {
			err = srv.Serve(ln)
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- regerrors.NewIOError("http server exited", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return regerrors.NewIOError("graceful shutdown failed", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
