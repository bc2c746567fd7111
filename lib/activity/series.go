// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

package activity

import (
	"math"
	"sort"

	"github.com/hainingpan/oh-my-opencode-dashboard/lib/record"
	"github.com/hainingpan/oh-my-opencode-dashboard/lib/store"
)

// Series is one named time series of tool-call counts. Identity,
// label, and tone are fixed per series position and consumed directly
// by the dashboard's chart legend.
type Series struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Tone    string  `json:"tone"`
	Buckets []int64 `json:"buckets"`
}

// SeriesSet is the aggregator output: five aligned series over the
// same window, plus the window geometry the buckets were computed
// against. AnchorMs is the right window edge, snapped down to a bucket
// boundary so repeated polls see stable edges instead of drift.
type SeriesSet struct {
	WindowMs    int64    `json:"windowMs"`
	BucketMs    int64    `json:"bucketMs"`
	Buckets     int      `json:"buckets"`
	AnchorMs    int64    `json:"anchorMs"`
	ServerNowMs int64    `json:"serverNowMs"`
	Series      []Series `json:"series"`
}

// SeriesOptions overrides the aggregation parameters. Zero values take
// the package defaults.
type SeriesOptions struct {
	WindowMs     int64
	BucketMs     int64
	MessageLimit int
	ChildLimit   int
}

func (o *SeriesOptions) applyDefaults() {
	if o.WindowMs <= 0 {
		o.WindowMs = DefaultWindowMs
	}
	if o.BucketMs <= 0 {
		o.BucketMs = DefaultBucketMs
	}
	if o.MessageLimit <= 0 {
		o.MessageLimit = DefaultMessageScanLimit
	}
	if o.ChildLimit <= 0 {
		o.ChildLimit = DefaultChildSessionLimit
	}
}

// The five series in their fixed output order.
var seriesMeta = [5]struct {
	id    string
	label string
	tone  string
}{
	{"overall-main", "Overall", "muted"},
	{"agent:sisyphus", "Sisyphus", "teal"},
	{"agent:prometheus", "Prometheus", "red"},
	{"agent:atlas", "Atlas", "green"},
	{"background-total", "Background tasks (total)", "muted"},
}

// BuildSeries aggregates recent tool-call activity of one main session
// and its background sessions into fixed-bucket time series. With an
// empty mainSessionID every series is zero-filled but the metadata and
// geometry are still complete, so the dashboard can render an empty
// chart. BuildSeries never fails: unreadable records and even a
// path-guard refusal on a part directory degrade to zero counts.
func BuildSeries(st *store.Store, mainSessionID string, nowMs int64, opts SeriesOptions) SeriesSet {
	opts.applyDefaults()

	buckets := int(opts.WindowMs / opts.BucketMs)
	anchor := floorDiv(nowMs, opts.BucketMs) * opts.BucketMs
	start := anchor - opts.WindowMs

	overall := make([]int64, buckets)
	byAgent := map[Agent][]int64{
		AgentSisyphus:   make([]int64, buckets),
		AgentPrometheus: make([]int64, buckets),
		AgentAtlas:      make([]int64, buckets),
	}
	background := make([]int64, buckets)

	if mainSessionID != "" {
		bucketSession(st, mainSessionID, start, anchor, opts, overall, byAgent, nil)
		for _, child := range childSessions(st, mainSessionID, opts.ChildLimit) {
			// Child messages count into background-total and,
			// by their own agent label, into overall and the
			// per-agent series. A child session never smears
			// its whole activity onto one assumed agent.
			bucketSession(st, child.ID, start, anchor, opts, overall, byAgent, background)
		}
	}

	buffers := [5][]int64{overall, byAgent[AgentSisyphus], byAgent[AgentPrometheus], byAgent[AgentAtlas], background}
	series := make([]Series, len(seriesMeta))
	for i, meta := range seriesMeta {
		series[i] = Series{ID: meta.id, Label: meta.label, Tone: meta.tone, Buckets: buffers[i]}
	}

	return SeriesSet{
		WindowMs:    opts.WindowMs,
		BucketMs:    opts.BucketMs,
		Buckets:     buckets,
		AnchorMs:    anchor,
		ServerNowMs: nowMs,
		Series:      series,
	}
}

// bucketSession adds one session's tool-call counts to the series
// buffers. Messages land in the bucket of their logical time.created;
// the message's canonical agent decides which per-agent buffer gains
// the count. background is nil for the main session.
func bucketSession(st *store.Store, sessionID string, start, anchor int64, opts SeriesOptions, overall []int64, byAgent map[Agent][]int64, background []int64) {
	scan := scanRecentMessages(st.Messages(sessionID), opts.MessageLimit)

	messages := scan.messages
	sort.Slice(messages, func(i, j int) bool {
		keyI, keyJ := messageSortKey(messages[i]), messageSortKey(messages[j])
		if keyI != keyJ {
			return keyI > keyJ
		}
		return messages[i].ID < messages[j].ID
	})

	for _, message := range messages {
		t := messageSortKey(message)
		if t < start {
			// Sorted newest-first, so everything after this is
			// older still. A short-circuit, not a filter; it is
			// only correct because of the sort above.
			break
		}
		if t >= anchor {
			continue
		}

		count := countToolParts(st, message.ID)
		if count <= 0 {
			continue
		}
		index := int((t - start) / opts.BucketMs)
		if index < 0 || index >= len(overall) {
			// Should be unreachable given the start/anchor
			// filtering; guards against clock skew.
			continue
		}

		overall[index] += count
		if series, tracked := byAgent[CanonicalAgent(message.Agent)]; tracked {
			series[index] += count
		}
		if background != nil {
			background[index] += count
		}
	}
}

// messageSortKey is the descending-order sort key for bucketing: the
// logical creation time, with untimestamped messages keyed below every
// real timestamp so the window cutoff excludes them.
func messageSortKey(message record.Message) int64 {
	if !message.HasCreated {
		return math.MinInt64
	}
	return message.CreatedMs
}

// countToolParts counts the parts of type "tool" under one message.
// Unreadable and malformed part files are ignored; a part directory
// the guard refuses counts as empty here (the feed builder, which
// exposes part contents, is where a refusal is fatal).
func countToolParts(st *store.Store, messageID string) int64 {
	col, err := st.Parts(messageID)
	if err != nil {
		return 0
	}
	var count int64
	for _, entry := range col.Entries() {
		data := col.Read(entry.ID)
		if data == nil {
			continue
		}
		part, ok := record.ParsePart(data)
		if !ok {
			continue
		}
		if part.Type == "tool" {
			count++
		}
	}
	return count
}

// floorDiv is integer division rounding toward negative infinity, so
// anchor snapping stays correct even for timestamps before the epoch.
func floorDiv(a, b int64) int64 {
	quotient := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		quotient--
	}
	return quotient
}
