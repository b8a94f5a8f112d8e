// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package gitproto

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cargomirror/registry/pkg/cachepolicy"
	"github.com/cargomirror/registry/pkg/logger"
)

// Access gates the two RPC endpoints. It mirrors registry.AccessConfig but
// is declared locally so this package does not depend on pkg/registry.
type Access struct {
	GitUploadPack  bool
	GitReceivePack bool
}

// Bridge serves the Git smart-HTTP endpoints for a single index repository
// by shelling out to the `git` binary, per the spec's explicit design
// choice not to implement the Git wire protocol natively.
type Bridge struct {
	IndexPath string
	Access    Access
}

// NewBridge constructs a Bridge for the index repository at indexPath.
func NewBridge(indexPath string, access Access) *Bridge {
	return &Bridge{IndexPath: indexPath, Access: access}
}

// InfoRefs handles GET info/refs?service=git-(upload|receive)-pack.
func (b *Bridge) InfoRefs(w http.ResponseWriter, r *http.Request) {
	service := GetServiceFromQueryString(r.URL.RawQuery)

	if service == "" || !IsValidService(service) {
		b.dumbInfoRefs(w, r)
		return
	}
	if !b.allowed(service) {
		b.dumbInfoRefs(w, r)
		return
	}

	out, err := b.runGit(r.Context(), service, "--stateless-rpc", "--advertise-refs")
	if err != nil {
		logger.Errorf("advertise-refs for %s failed: %v", service, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	cachepolicy.NoCache(w)
	w.Header().Set("Content-Type", "application/x-git-"+service+"-advertisement")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ServiceAdvertisementPreface(service))
	_, _ = w.Write(out)
}

// dumbInfoRefs falls back to the dumb-HTTP protocol: regenerate
// .git/info/refs and return it verbatim.
func (b *Bridge) dumbInfoRefs(w http.ResponseWriter, r *http.Request) {
	cmd := exec.CommandContext(r.Context(), "git", "update-server-info")
	cmd.Dir = b.IndexPath
	if err := cmd.Run(); err != nil {
		logger.Errorf("update-server-info failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data, err := os.ReadFile(filepath.Join(b.IndexPath, ".git", "info", "refs")) //nolint:gosec // fixed relative path
	if err != nil {
		http.NotFound(w, r)
		return
	}

	cachepolicy.NoCache(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(data)
}

// UploadPack handles POST git-upload-pack.
func (b *Bridge) UploadPack(w http.ResponseWriter, r *http.Request) {
	b.rpc(w, r, "upload-pack", b.Access.GitUploadPack)
}

// ReceivePack handles POST git-receive-pack.
func (b *Bridge) ReceivePack(w http.ResponseWriter, r *http.Request) {
	b.rpc(w, r, "receive-pack", b.Access.GitReceivePack)
}

// rpc is the shared stateless-RPC contract for upload-pack and
// receive-pack: require the matching Content-Type, require the access bit,
// then stream the request body into a `git <service> --stateless-rpc`
// subprocess, wait for it to exit, and send its stdout back as the response.
func (b *Bridge) rpc(w http.ResponseWriter, r *http.Request, service string, allowed bool) {
	wantType := "application/x-git-" + service + "-request"
	if r.Header.Get("Content-Type") != wantType {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if !allowed {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	// The subprocess is not bound to r.Context(): a client disconnect does
	// not kill it, it runs to completion and its output is discarded.
	cmd := exec.Command("git", service, b.IndexPath, "--stateless-rpc")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		logger.Errorf("%s: failed to open subprocess stdin: %v", service, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		logger.Errorf("%s: failed to open subprocess stdout: %v", service, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := cmd.Start(); err != nil {
		logger.Errorf("%s: failed to start git subprocess: %v", service, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if _, err := io.Copy(stdin, r.Body); err != nil {
		logger.Warnf("%s: failed writing request body to subprocess: %v", service, err)
	}
	_ = stdin.Close()

	// The response body is written only after the subprocess has exited.
	out, err := io.ReadAll(stdout)
	if err != nil {
		logger.Warnf("%s: failed reading subprocess stdout: %v", service, err)
	}
	if err := cmd.Wait(); err != nil {
		logger.Warnf("%s: subprocess exited with error: %v", service, err)
	}

	w.Header().Set("Content-Type", "application/x-git-"+service+"-result")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (b *Bridge) allowed(service string) bool {
	switch service {
	case "upload-pack":
		return b.Access.GitUploadPack
	case "receive-pack":
		return b.Access.GitReceivePack
	default:
		return false
	}
}

// runGit invokes `git <service> <indexPath> <args...>` and returns stdout.
func (b *Bridge) runGit(ctx context.Context, service string, args ...string) ([]byte, error) {
	full := append([]string{service, b.IndexPath}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)
	return cmd.Output()
}
