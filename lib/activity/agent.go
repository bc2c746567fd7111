// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

package activity

import "strings"

// Agent is a canonical agent category. Free-form labels from message
// records collapse into this fixed set; everything unrecognized is
// AgentOther.
type Agent string

const (
	AgentSisyphus   Agent = "sisyphus"
	AgentPrometheus Agent = "prometheus"
	AgentAtlas      Agent = "atlas"
	AgentOther      Agent = "other"
)

// CanonicalAgent maps a free-form agent label to its canonical
// category. Matching is by prefix on the trimmed, lowercased label, so
// versioned labels like "Sisyphus v2" land in the right bucket. Never
// fails; anything unmatched (including the empty label) is AgentOther.
func CanonicalAgent(label string) Agent {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return AgentOther
	}
	lowered := strings.ToLower(trimmed)
	switch {
	// "sisyphus-junior" also matches the plain "sisyphus" prefix;
	// the specific check runs first so subagent labels stay
	// attributed to sisyphus even if the two cases ever diverge.
	case strings.HasPrefix(lowered, "sisyphus-junior"):
		return AgentSisyphus
	case strings.HasPrefix(lowered, "sisyphus"):
		return AgentSisyphus
	case strings.HasPrefix(lowered, "prometheus"):
		return AgentPrometheus
	case strings.HasPrefix(lowered, "atlas"):
		return AgentAtlas
	}
	return AgentOther
}
