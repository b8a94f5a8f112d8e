// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package cachepolicy applies the two caching policies the registry's HTTP
// surface needs: no-cache for mutable text (refs, HEAD) and cache-forever
// for immutable content (loose/packed Git objects, crate archives).
package cachepolicy

import (
	"net/http"
	"time"
)

// oneYear is the cache-forever lifetime the registry API convention uses
// for content-addressed archives and Git objects.
const oneYear = 365 * 24 * time.Hour

// httpDate is the wire format net/http itself uses for Expires/Last-Modified.
const httpDate = "Mon, 02 Jan 2006 15:04:05 GMT"

// NoCache marks a response as never cacheable: Git's dumb-HTTP refs,
// smart-HTTP advertisements, and HEAD must always be revalidated.
func NoCache(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Expires", "Fri, 01 Jan 1980 00:00:00 GMT")
	h.Set("Pragma", "no-cache")
	h.Set("Cache-Control", "no-cache, max-age=0, must-revalidate")
}

// CacheForever marks a response as immutable for a year: loose/packed Git
// objects and crate archives never change once written.
func CacheForever(w http.ResponseWriter) {
	now := time.Now().UTC()
	h := w.Header()
	h.Set("Date", now.Format(httpDate))
	h.Set("Expires", now.Add(oneYear).Format(httpDate))
	h.Set("Cache-Control", "public, max-age=31536000")
}
