// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	regerrors "github.com/cargomirror/registry/pkg/errors"
)

// CrateMetadata is one JSON-lines record from an index file: one published
// version of one crate.
type CrateMetadata struct {
	Name   string `json:"name"`
	Vers   string `json:"vers"`
	Cksum  string `json:"cksum"`
	Yanked bool   `json:"yanked"`
}

// IndexConfig is the contents of index/config.json.
type IndexConfig struct {
	DL  string `json:"dl"`
	API string `json:"api"`
}

// ParseIndexFile decodes the newline-delimited JSON records of a single
// index file, skipping blank lines. Malformed lines are reported with the
// offending line number.
func ParseIndexFile(r io.Reader) ([]CrateMetadata, error) {
	scanner := bufio.NewScanner(r)
	// Index lines describing large dependency graphs can exceed the default
	// 64KiB token size; give ourselves headroom.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	var records []CrateMetadata
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec CrateMetadata
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, regerrors.NewJSONError(fmt.Sprintf("malformed index line %d", lineNo), err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, regerrors.NewIOError("failed to read index file", err)
	}
	return records, nil
}
