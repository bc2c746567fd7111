// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

package activity

import (
	"sort"

	"github.com/hainingpan/oh-my-opencode-dashboard/lib/record"
	"github.com/hainingpan/oh-my-opencode-dashboard/lib/store"
)

// childSessions returns the background sessions of one main session:
// every session whose parentID references it, most recently updated
// first (missing time.updated counts as 0), ties broken by id so the
// ranking is stable across polls. At most limit sessions are returned.
func childSessions(st *store.Store, mainSessionID string, limit int) []record.Session {
	children := collectSessions(st, func(session record.Session) bool {
		return session.ParentID == mainSessionID
	})
	if len(children) > limit {
		children = children[:limit]
	}
	return children
}

// MainSession returns the id of the most recently updated top-level
// session, or "" when the store has none. The dashboard watches this
// session when the browser does not name one.
func MainSession(st *store.Store) string {
	topLevel := collectSessions(st, func(session record.Session) bool {
		return session.ParentID == ""
	})
	if len(topLevel) == 0 {
		return ""
	}
	return topLevel[0].ID
}

// collectSessions walks the session collection, keeps records matching
// keep, and sorts them by time.updated descending with id-ascending
// tie-break. Unreadable or malformed session records are skipped.
func collectSessions(st *store.Store, keep func(record.Session) bool) []record.Session {
	col := st.Sessions()
	var sessions []record.Session
	for _, entry := range col.Entries() {
		data := col.Read(entry.ID)
		if data == nil {
			continue
		}
		session, ok := record.ParseSession(data)
		if !ok || !keep(session) {
			continue
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].UpdatedMs != sessions[j].UpdatedMs {
			return sessions[i].UpdatedMs > sessions[j].UpdatedMs
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions
}
