// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

package activity

import (
	"sort"

	"github.com/hainingpan/oh-my-opencode-dashboard/lib/record"
	"github.com/hainingpan/oh-my-opencode-dashboard/lib/store"
)

// Defaults for the bounded scans. All of them are overridable per call
// through SeriesOptions / FeedOptions.
const (
	// DefaultWindowMs is the time-series window: five minutes.
	DefaultWindowMs = 300000

	// DefaultBucketMs is the time-series bucket width: two seconds.
	DefaultBucketMs = 2000

	// DefaultMessageScanLimit caps how many messages one session
	// scan reads, selected by file modification recency.
	DefaultMessageScanLimit = 200

	// DefaultToolCallLimit caps the feed length.
	DefaultToolCallLimit = 300

	// DefaultChildSessionLimit caps how many background sessions the
	// aggregator follows.
	DefaultChildSessionLimit = 25
)

// messageScan is the result of one recency-bounded scan: the parsed
// valid messages plus the pre-cap entry count, so callers can detect
// truncation.
type messageScan struct {
	messages []record.Message
	total    int
}

// scanRecentMessages reads up to limit messages from a collection,
// selected by file modification time, newest first. Selection happens
// before parsing: the cap bounds I/O and parse work per call no matter
// how much history the collection holds, at the cost of possibly
// missing an old message that was never recently touched. Entries that
// fail to read or parse are dropped without affecting the rest.
func scanRecentMessages(col store.Collection, limit int) messageScan {
	entries := col.Entries()
	total := len(entries)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ModTimeMs > entries[j].ModTimeMs
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	messages := make([]record.Message, 0, len(entries))
	for _, entry := range entries {
		data := col.Read(entry.ID)
		if data == nil {
			continue
		}
		message, ok := record.ParseMessage(data)
		if !ok {
			continue
		}
		messages = append(messages, message)
	}
	return messageScan{messages: messages, total: total}
}
