// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

package activity

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/hainingpan/oh-my-opencode-dashboard/lib/record"
	"github.com/hainingpan/oh-my-opencode-dashboard/lib/store"
)

// ToolCall is one tool invocation in the feed. Only fields safe for a
// dashboard appear here: tool inputs and prompts may carry secrets or
// huge payloads and are never forwarded, while outputs and errors pass
// through verbatim.
type ToolCall struct {
	SessionID string `json:"sessionId"`
	MessageID string `json:"messageId"`
	CallID    string `json:"callId"`
	Tool      string `json:"tool"`

	// Status is one of pending, running, completed, error, or
	// unknown for anything else the store carries.
	Status string `json:"status"`

	// CreatedAtMs is the logical creation time of the carrying
	// message, null when the message has none.
	CreatedAtMs *int64 `json:"createdAtMs"`

	Output json.RawMessage `json:"output,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// Feed is the feed builder output. Truncated reports that either the
// message scan or the tool-call cap cut material off.
type Feed struct {
	ToolCalls []ToolCall `json:"toolCalls"`
	Truncated bool       `json:"truncated"`
}

// FeedOptions overrides the feed caps. Zero values take the package
// defaults.
type FeedOptions struct {
	MessageLimit  int
	ToolCallLimit int
}

func (o *FeedOptions) applyDefaults() {
	if o.MessageLimit <= 0 {
		o.MessageLimit = DefaultMessageScanLimit
	}
	if o.ToolCallLimit <= 0 {
		o.ToolCallLimit = DefaultToolCallLimit
	}
}

// BuildFeed collects the recent tool invocations of one session into a
// flat, deterministically ordered, capped list. The order is total:
// creation time descending with untimestamped calls last, then message
// id, then call id. Records sharing a timestamp always come back in
// the same order. The only error is a path-guard violation while
// resolving a part directory, which fails the whole call with no
// partial result.
func BuildFeed(st *store.Store, sessionID string, opts FeedOptions) (Feed, error) {
	opts.applyDefaults()

	scan := scanRecentMessages(st.Messages(sessionID), opts.MessageLimit)
	messagesTruncated := scan.total > opts.MessageLimit

	calls := []ToolCall{}
	for _, message := range scan.messages {
		col, err := st.Parts(message.ID)
		if err != nil {
			return Feed{}, err
		}
		for _, entry := range col.Entries() {
			data := col.Read(entry.ID)
			if data == nil {
				continue
			}
			part, ok := record.ParsePart(data)
			if !ok || !part.IsToolCall() {
				continue
			}

			call := ToolCall{
				SessionID: sessionID,
				MessageID: message.ID,
				CallID:    part.CallID,
				Tool:      part.Tool,
				Status:    canonicalStatus(part.Status),
				Output:    part.Output,
				Error:     part.Error,
			}
			if message.HasCreated {
				created := message.CreatedMs
				call.CreatedAtMs = &created
			}
			calls = append(calls, call)
		}
	}

	sort.Slice(calls, func(i, j int) bool {
		keyI, keyJ := callSortKey(calls[i]), callSortKey(calls[j])
		if keyI != keyJ {
			return keyI > keyJ
		}
		if calls[i].MessageID != calls[j].MessageID {
			return calls[i].MessageID < calls[j].MessageID
		}
		return calls[i].CallID < calls[j].CallID
	})

	preCap := len(calls)
	if preCap > opts.ToolCallLimit {
		calls = calls[:opts.ToolCallLimit]
	}

	return Feed{
		ToolCalls: calls,
		Truncated: messagesTruncated || preCap > opts.ToolCallLimit,
	}, nil
}

// callSortKey orders the feed newest-first. Calls without a timestamp
// compare below every timestamped one; the key is internal and never
// serialized.
func callSortKey(call ToolCall) int64 {
	if call.CreatedAtMs == nil {
		return math.MinInt64
	}
	return *call.CreatedAtMs
}

// canonicalStatus maps state.status through the display whitelist.
func canonicalStatus(status string) string {
	switch status {
	case "pending", "running", "completed", "error":
		return status
	}
	return "unknown"
}
