// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hainingpan/oh-my-opencode-dashboard/lib/store"
)

func TestBuildFeedEmptySession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	feed, err := BuildFeed(f.st, "missing", FeedOptions{})
	if err != nil {
		t.Fatalf("BuildFeed: %v", err)
	}
	if feed.Truncated {
		t.Error("Truncated: got true, want false")
	}
	if feed.ToolCalls == nil || len(feed.ToolCalls) != 0 {
		t.Errorf("ToolCalls: got %v, want empty non-nil slice", feed.ToolCalls)
	}
}

func TestBuildFeedCollectsToolCalls(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.message("s1", "m1", "sisyphus", 2000)
	f.rawPart("m1", "p1", `{"id":"p1","type":"tool","callID":"c1","tool":"bash","state":{"status":"completed","output":"ok"}}`)
	f.rawPart("m1", "p2", `{"id":"p2","type":"text"}`)
	f.message("s1", "m2", "sisyphus", 1000)
	f.rawPart("m2", "p3", `{"id":"p3","type":"tool","callID":"c2","tool":"edit","state":{"status":"running"}}`)

	feed, err := BuildFeed(f.st, "s1", FeedOptions{})
	if err != nil {
		t.Fatalf("BuildFeed: %v", err)
	}
	if len(feed.ToolCalls) != 2 {
		t.Fatalf("got %d tool calls, want 2", len(feed.ToolCalls))
	}

	// Newest message first.
	first, second := feed.ToolCalls[0], feed.ToolCalls[1]
	if first.MessageID != "m1" || first.CallID != "c1" || first.Tool != "bash" || first.Status != "completed" {
		t.Errorf("first: got %+v", first)
	}
	if first.SessionID != "s1" {
		t.Errorf("first.SessionID: got %q, want s1", first.SessionID)
	}
	if first.CreatedAtMs == nil || *first.CreatedAtMs != 2000 {
		t.Errorf("first.CreatedAtMs: got %v, want 2000", first.CreatedAtMs)
	}
	if second.MessageID != "m2" || second.Status != "running" {
		t.Errorf("second: got %+v", second)
	}
}

func TestBuildFeedDeterministicOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// Two messages share a timestamp; one has none at all. The order
	// must be fully determined: timestamp desc, nulls last, then
	// message id, then call id.
	f.message("s1", "mb", "", 5000)
	f.rawPart("mb", "p1", `{"type":"tool","callID":"c2","tool":"bash"}`)
	f.rawPart("mb", "p2", `{"type":"tool","callID":"c1","tool":"bash"}`)
	f.message("s1", "ma", "", 5000)
	f.rawPart("ma", "p3", `{"type":"tool","callID":"c9","tool":"bash"}`)
	f.rawMessage("s1", "mz", `{"id":"mz"}`)
	f.rawPart("mz", "p4", `{"type":"tool","callID":"c0","tool":"bash"}`)
	f.message("s1", "mc", "", 9000)
	f.rawPart("mc", "p5", `{"type":"tool","callID":"c5","tool":"bash"}`)

	feed, err := BuildFeed(f.st, "s1", FeedOptions{})
	if err != nil {
		t.Fatalf("BuildFeed: %v", err)
	}

	var order []string
	for _, call := range feed.ToolCalls {
		order = append(order, call.MessageID+"/"+call.CallID)
	}
	want := []string{"mc/c5", "ma/c9", "mb/c1", "mb/c2", "mz/c0"}
	if strings.Join(order, " ") != strings.Join(want, " ") {
		t.Errorf("order: got %v, want %v", order, want)
	}
}

func TestBuildFeedCaps(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// 205 messages with two tool calls each: the scan keeps the 200
	// most recently modified, the feed caps at 300 of the remaining
	// 400 calls, and both truncation causes are reported as one flag.
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 205; i++ {
		id := fmt.Sprintf("m%03d", i)
		f.message("s1", id, "", int64(i)*1000)
		f.touchMessage("s1", id, base.Add(time.Duration(i)*time.Second))
		f.toolParts(id, 2)
	}

	feed, err := BuildFeed(f.st, "s1", FeedOptions{})
	if err != nil {
		t.Fatalf("BuildFeed: %v", err)
	}
	if len(feed.ToolCalls) != DefaultToolCallLimit {
		t.Errorf("got %d tool calls, want %d", len(feed.ToolCalls), DefaultToolCallLimit)
	}
	if !feed.Truncated {
		t.Error("Truncated: got false, want true")
	}

	// The five oldest-by-mtime messages never entered the scan.
	for _, call := range feed.ToolCalls {
		for i := 0; i < 5; i++ {
			if call.MessageID == fmt.Sprintf("m%03d", i) {
				t.Errorf("message %s should be outside the scan window", call.MessageID)
			}
		}
	}
}

func TestBuildFeedMessageTruncationAlone(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("m%d", i)
		f.message("s1", id, "", int64(i)*1000)
		f.touchMessage("s1", id, base.Add(time.Duration(i)*time.Second))
		f.toolParts(id, 1)
	}

	feed, err := BuildFeed(f.st, "s1", FeedOptions{MessageLimit: 3})
	if err != nil {
		t.Fatalf("BuildFeed: %v", err)
	}
	if len(feed.ToolCalls) != 3 {
		t.Errorf("got %d tool calls, want 3", len(feed.ToolCalls))
	}
	if !feed.Truncated {
		t.Error("Truncated: got false, want true (message scan was capped)")
	}
	for _, call := range feed.ToolCalls {
		if call.MessageID == "m0" {
			t.Error("oldest-by-recency message m0 must be excluded from the scan")
		}
	}
}

func TestBuildFeedStatusWhitelist(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	statuses := []struct {
		raw  string
		want string
	}{
		{`"pending"`, "pending"},
		{`"running"`, "running"},
		{`"completed"`, "completed"},
		{`"error"`, "error"},
		{`"exploded"`, "unknown"},
		{`42`, "unknown"},
	}
	f.message("s1", "m1", "", 1000)
	for i, status := range statuses {
		id := fmt.Sprintf("p%d", i)
		f.rawPart("m1", id, fmt.Sprintf(`{"type":"tool","callID":"c%d","tool":"bash","state":{"status":%s}}`, i, status.raw))
	}
	// No state at all.
	f.rawPart("m1", "p9", `{"type":"tool","callID":"c9","tool":"bash"}`)

	feed, err := BuildFeed(f.st, "s1", FeedOptions{})
	if err != nil {
		t.Fatalf("BuildFeed: %v", err)
	}

	byCall := map[string]string{}
	for _, call := range feed.ToolCalls {
		byCall[call.CallID] = call.Status
	}
	for i, status := range statuses {
		call := fmt.Sprintf("c%d", i)
		if byCall[call] != status.want {
			t.Errorf("status %s: got %q, want %q", status.raw, byCall[call], status.want)
		}
	}
	if byCall["c9"] != "unknown" {
		t.Errorf("absent state: got %q, want unknown", byCall["c9"])
	}
}

func TestBuildFeedRedaction(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.message("s1", "m1", "", 1000)
	f.rawPart("m1", "p1", `{
		"type": "tool",
		"callID": "c1",
		"tool": "bash",
		"state": {
			"status": "completed",
			"input": {"command": "cat /etc/shadow", "prompt": "secret"},
			"output": "total 0",
			"error": null,
			"prompt": "do not leak"
		}
	}`)

	feed, err := BuildFeed(f.st, "s1", FeedOptions{})
	if err != nil {
		t.Fatalf("BuildFeed: %v", err)
	}

	serialized, err := json.Marshal(feed)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, banned := range []string{`"input"`, `"prompt"`, `"state"`, "shadow", "do not leak"} {
		if strings.Contains(string(serialized), banned) {
			t.Errorf("feed JSON leaks %s: %s", banned, serialized)
		}
	}
	if string(feed.ToolCalls[0].Output) != `"total 0"` {
		t.Errorf("Output: got %s, want %q", feed.ToolCalls[0].Output, `"total 0"`)
	}
	if string(feed.ToolCalls[0].Error) != "null" {
		t.Errorf("Error: got %s, want null passthrough", feed.ToolCalls[0].Error)
	}
}

func TestBuildFeedGuardViolationIsFatal(t *testing.T) {
	t.Parallel()

	// A store whose allowed roots do not contain it: every part
	// directory resolution violates the guard, and the whole call
	// must fail with no partial feed.
	root := t.TempDir()
	elsewhere := t.TempDir()
	guarded := store.Open(root, store.Options{AllowedRoots: []string{elsewhere}})

	f := &fixture{t: t, root: root, st: guarded}
	f.message("s1", "m1", "", 1000)
	f.toolParts("m1", 1)

	_, err := BuildFeed(guarded, "s1", FeedOptions{})
	if !errors.Is(err, store.ErrPathEscapesRoot) {
		t.Errorf("got %v, want ErrPathEscapesRoot", err)
	}
}
