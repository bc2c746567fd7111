// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package store reads the opencode record store: an append-only,
// file-per-record layout of JSON documents owned by the agent runtime.
//
// The dashboard never writes. Every operation here is a point-in-time
// read of whatever files exist when the call happens; a record written
// mid-scan may or may not be observed, and that is accepted.
//
// Collections map to directories under the store root:
//
//	session/info                all session records
//	session/message/<session>   messages of one session
//	session/part/<message>      parts of one message
//
// A missing directory is an empty collection, not an error. An
// unreadable file reads as nil. The only fatal condition is a part
// directory resolving outside the configured allowed roots, which
// surfaces as ErrPathEscapesRoot.
package store
