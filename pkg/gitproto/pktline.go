// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package gitproto bridges the Git smart-HTTP transfer protocol to a
// backend `git` subprocess: it advertises refs and relays
// upload-pack/receive-pack request and response bodies, without
// implementing the Git wire protocol natively.
package gitproto

import (
	"fmt"
	"strings"
)

// FlushPkt is Git's pkt-line flush packet.
const FlushPkt = "0000"

// PktLine frames line as a Git pkt-line: four lowercase hex digits giving
// the total frame length (length bytes included), followed by the payload.
func PktLine(line string) string {
	length := 4 + len(line)
	return fmt.Sprintf("%04x%s", length, line)
}

// ServiceAdvertisementPreface builds the smart-protocol preface that
// precedes a service's ref advertisement: a pkt-line announcing the
// service, followed by a flush packet.
func ServiceAdvertisementPreface(service string) []byte {
	line := PktLine(fmt.Sprintf("# service=git-%s\n", service)) + FlushPkt
	return []byte(line)
}

// GetServiceFromQueryString extracts the upload-pack/receive-pack suffix
// from a raw "service=git-upload-pack" (optionally "&"-delimited) query
// string. It returns "" if the parameter is absent or does not carry the
// "git-" prefix.
func GetServiceFromQueryString(rawQuery string) string {
	const key = "service="
	const prefix = "git-"

	for _, part := range strings.Split(rawQuery, "&") {
		if !strings.HasPrefix(part, key) {
			continue
		}
		value := strings.TrimPrefix(part, key)
		if !strings.HasPrefix(value, prefix) {
			return ""
		}
		return strings.TrimPrefix(value, prefix)
	}
	return ""
}

// IsValidService reports whether service is one of the two RPCs the bridge
// supports.
func IsValidService(service string) bool {
	return service == "upload-pack" || service == "receive-pack"
}
