// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package activity derives the dashboard's two read views from the
// record store: fixed-window tool-call time series split by canonical
// agent and by main-vs-background provenance (BuildSeries), and a
// bounded, deterministically ordered feed of recent tool invocations
// (BuildFeed).
//
// Nothing here caches. The dashboard polls every few seconds and each
// call performs a fresh bounded scan: at most MessageScanLimit messages
// per session, ChildSessionLimit child sessions, ToolCallLimit feed
// entries. Cost is proportional to those caps, never to the total
// history in the store.
//
// Malformed or partial records degrade silently record-by-record; the
// dashboard shows a best-effort picture rather than failing because one
// historical file is corrupt. The single fatal condition is a
// path-guard violation while resolving a part directory.
package activity
