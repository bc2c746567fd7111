// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

package activity

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hainingpan/oh-my-opencode-dashboard/lib/store"
)

// fixture builds a throwaway record store shaped like the opencode
// data directory.
type fixture struct {
	t    *testing.T
	root string
	st   *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	return &fixture{t: t, root: root, st: store.Open(root, store.Options{})}
}

func (f *fixture) write(dir, id, body string) string {
	f.t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		f.t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, id+".json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		f.t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func (f *fixture) session(id, parentID string, updatedMs int64) {
	f.t.Helper()
	body := fmt.Sprintf(`{"id":%q,"time":{"updated":%d}}`, id, updatedMs)
	if parentID != "" {
		body = fmt.Sprintf(`{"id":%q,"parentID":%q,"time":{"updated":%d}}`, id, parentID, updatedMs)
	}
	f.write(filepath.Join(f.root, "session", "info"), id, body)
}

// message writes a message record with a numeric time.created. Use
// rawMessage for malformed or untimestamped records.
func (f *fixture) message(sessionID, id, agent string, createdMs int64) {
	f.t.Helper()
	body := fmt.Sprintf(`{"id":%q,"sessionID":%q,"agent":%q,"time":{"created":%d}}`, id, sessionID, agent, createdMs)
	f.rawMessage(sessionID, id, body)
}

func (f *fixture) rawMessage(sessionID, id, body string) {
	f.t.Helper()
	f.write(filepath.Join(f.root, "session", "message", sessionID), id, body)
}

// touchMessage sets the file modification time of a message record,
// driving the recency-bounded selection in tests.
func (f *fixture) touchMessage(sessionID, id string, mtime time.Time) {
	f.t.Helper()
	path := filepath.Join(f.root, "session", "message", sessionID, id+".json")
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		f.t.Fatalf("chtimes %s: %v", path, err)
	}
}

// toolParts writes n completed tool-call parts under one message.
func (f *fixture) toolParts(messageID string, n int) {
	f.t.Helper()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("prt_%s_%d", messageID, i)
		body := fmt.Sprintf(`{"id":%q,"messageID":%q,"type":"tool","callID":"call_%s_%d","tool":"bash","state":{"status":"completed"}}`,
			id, messageID, messageID, i)
		f.rawPart(messageID, id, body)
	}
}

func (f *fixture) rawPart(messageID, id, body string) {
	f.t.Helper()
	f.write(filepath.Join(f.root, "session", "part", messageID), id, body)
}
