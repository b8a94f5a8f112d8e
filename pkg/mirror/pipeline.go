// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package mirror implements the mirroring pipeline: the parallel walk of
// the index, parsing of per-crate JSON metadata, content-addressed
// download of missing archives with cryptographic verification, and
// aggregate reporting.
package mirror

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	regerrors "github.com/cargomirror/registry/pkg/errors"
	"github.com/cargomirror/registry/pkg/logger"
	"github.com/cargomirror/registry/pkg/registry"
)

// initialBodyCapacity is the starting buffer size for a downloaded archive;
// most crates are well under this, so a single allocation usually suffices.
const initialBodyCapacity = 200 * 1024

// Counters tallies the outcome of a mirror run.
type Counters struct {
	Checked    int
	Downloaded int
	Failed     int
}

func (c *Counters) add(other Counters) {
	c.Checked += other.Checked
	c.Downloaded += other.Downloaded
	c.Failed += other.Failed
}

// HTTPDoer is the subset of *http.Client the pipeline needs; tests supply a
// stub.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Download walks reg's index, partitions its files across a worker pool
// sized to the host's parallelism, and for every crate-version record whose
// archive is not already present on disk, downloads it from the mirror's
// origin dl URL, verifies its SHA-256 against the index's cksum, and writes
// it into the crates tree.
//
// The only fatal conditions are "registry is not a mirror" and a failure to
// walk the index tree itself; every per-crate
// failure (download error, checksum mismatch) is logged as a warning and
// counted, and does not stop the walk.
func Download(ctx context.Context, reg *registry.Registry, client HTTPDoer) (Counters, error) {
	if !reg.Config.IsMirror() {
		return Counters{}, regerrors.NewNotMirrorError("registry at "+reg.Paths.Root+" is not a mirror", nil)
	}
	if client == nil {
		client = http.DefaultClient
	}

	files, err := listIndexFiles(reg.Paths.Index)
	if err != nil {
		return Counters{}, err
	}

	var (
		mu    sync.Mutex
		total Counters
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, f := range files {
		f := f
		g.Go(func() error {
			c, werr := processIndexFile(gctx, reg, client, f)
			mu.Lock()
			total.add(c)
			mu.Unlock()
			if werr != nil {
				// A worker-level error here means we could not even read the
				// index file (a walk/IO failure), not a per-crate download
				// failure; those are already folded into c.Failed below.
				logger.Warnf("skipping index file %s: %v", f, werr)
			}
			return nil
		})
	}
	// Workers never return a non-nil error (see above), so Wait returns nil;
	// a canceled ctx shows up as per-crate download failures instead.
	if err := g.Wait(); err != nil {
		return total, regerrors.NewHTTPClientError("mirror pipeline interrupted", err)
	}

	logger.Infof("mirror complete: checked=%d downloaded=%d failed=%d",
		total.Checked, total.Downloaded, total.Failed)
	return total, nil
}

// listIndexFiles enumerates regular files under index, deterministically
// ordered by name, excluding .git and config.json.
func listIndexFiles(indexPath string) ([]string, error) {
	gitDir := filepath.Join(indexPath, ".git")

	var files []string
	err := filepath.Walk(indexPath, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p == gitDir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Base(p) == "config.json" {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, regerrors.NewWalkError("failed to walk index", err)
	}
	return files, nil
}

// processIndexFile reads one index file and downloads every record's
// missing archive, sequentially within the file (parallelism is by file,
// not by line, per the pipeline's design).
func processIndexFile(ctx context.Context, reg *registry.Registry, client HTTPDoer, path string) (Counters, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from our own index walk
	if err != nil {
		return Counters{}, regerrors.NewIOError("failed to open index file "+path, err)
	}
	defer f.Close()

	records, err := registry.ParseIndexFile(f)
	if err != nil {
		return Counters{}, err
	}

	var c Counters
	for _, rec := range records {
		switch outcome := fetchOne(ctx, reg, client, rec); outcome {
		case outcomeChecked:
			c.Checked++
		case outcomeDownloaded:
			c.Downloaded++
		case outcomeFailed:
			c.Failed++
		}
	}
	return c, nil
}

type fetchOutcome int

const (
	outcomeChecked fetchOutcome = iota
	outcomeDownloaded
	outcomeFailed
)

// fetchOne downloads and verifies a single crate version if it is not
// already present on disk. It never returns an error: every failure mode is
// logged and reflected in the returned outcome, matching the pipeline's
// "no retry, per-crate warning" policy.
func fetchOne(ctx context.Context, reg *registry.Registry, client HTTPDoer, rec registry.CrateMetadata) fetchOutcome {
	dest := filepath.Join(reg.Paths.Crates, registry.CratePath(rec.Name, rec.Vers))

	if _, err := os.Stat(dest); err == nil {
		return outcomeChecked
	}

	url := fmt.Sprintf("%s/%s/%s/download", reg.Config.Mirror.OriginURLs.DL, rec.Name, rec.Vers)
	body, err := downloadBody(ctx, client, url)
	if err != nil {
		logger.Warnf("download %s@%s: %v", rec.Name, rec.Vers, err)
		return outcomeFailed
	}

	sum := sha256.Sum256(body)
	if hex.EncodeToString(sum[:]) != rec.Cksum {
		logger.Warnf("checksum mismatch for %s@%s", rec.Name, rec.Vers)
		return outcomeFailed
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil { //nolint:gosec // crates tree is not secret
		logger.Warnf("creating directory for %s@%s: %v", rec.Name, rec.Vers, err)
		return outcomeFailed
	}
	if err := writeNewFile(dest, body); err != nil {
		if os.IsExist(err) {
			// Another worker (or a concurrent `update` run) already wrote this
			// archive between our Stat and here; that's a successful outcome,
			// not a failure.
			return outcomeChecked
		}
		logger.Warnf("writing %s@%s: %v", rec.Name, rec.Vers, err)
		return outcomeFailed
	}

	return outcomeDownloaded
}

// writeNewFile writes body to dest using create-if-missing semantics, so a
// second worker racing on the same path fails instead of silently
// truncating a file another worker just wrote.
func writeNewFile(dest string, body []byte) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644) //nolint:gosec // crates tree is not secret
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(body)
	return err
}

// downloadBody issues the GET and buffers the full body into memory so the
// checksum can be verified before anything touches disk.
func downloadBody(ctx context.Context, client HTTPDoer, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	buf := bytes.NewBuffer(make([]byte, 0, initialBodyCapacity))
	if _, err := io.Copy(buf, resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
