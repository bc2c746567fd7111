// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package record parses the three opencode record shapes: sessions,
// messages, and parts.
//
// The store is populated by an external writer and carries whatever it
// carries: missing fields, wrong types, truncated files. Every field is
// therefore extracted with an explicit type check, and a record missing
// its required fields parses to (zero, false) rather than an error;
// the scan layer drops it and moves on.
package record

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Session is a parsed session record. A session whose ParentID names
// another session is a background (child) session of it.
type Session struct {
	ID string

	// ParentID is empty for top-level sessions.
	ParentID string

	// CreatedMs and UpdatedMs are Unix milliseconds, 0 when the field
	// is absent or not a number.
	CreatedMs int64
	UpdatedMs int64
}

// Message is a parsed message record.
type Message struct {
	ID        string
	SessionID string

	// Agent is the free-form agent label as written, possibly empty.
	Agent string

	// CreatedMs is the logical creation time in Unix milliseconds.
	// Valid only when HasCreated is true; messages without a numeric
	// time.created sort before all timestamped ones.
	CreatedMs  int64
	HasCreated bool
}

// Part is a parsed part record. Only tool-call parts (see IsToolCall)
// matter to the dashboard; everything else is counted as noise.
type Part struct {
	ID   string
	Type string

	// CallID and Tool are valid only when HasCallID / HasTool report
	// that the underlying field was a string.
	CallID    string
	HasCallID bool
	Tool      string
	HasTool   bool

	// Status is state.status as written, empty when absent or not a
	// string. The feed builder maps it through its whitelist.
	Status string

	// Output and Error are state.output / state.error forwarded
	// verbatim, nil when absent. No other state field is ever
	// extracted; tool inputs stay in the store.
	Output json.RawMessage
	Error  json.RawMessage
}

// IsToolCall reports whether the part records one tool invocation:
// type "tool" with a string call id and a string tool name.
func (p Part) IsToolCall() bool {
	return p.Type == "tool" && p.HasCallID && p.HasTool
}

// ParseSession parses a session record. Returns ok=false when the data
// is not valid JSON or has no string id.
func ParseSession(data []byte) (Session, bool) {
	if !gjson.ValidBytes(data) {
		return Session{}, false
	}
	id := gjson.GetBytes(data, "id")
	if id.Type != gjson.String {
		return Session{}, false
	}

	session := Session{ID: id.Str}
	if parent := gjson.GetBytes(data, "parentID"); parent.Type == gjson.String {
		session.ParentID = parent.Str
	}
	if created := gjson.GetBytes(data, "time.created"); created.Type == gjson.Number {
		session.CreatedMs = int64(created.Num)
	}
	if updated := gjson.GetBytes(data, "time.updated"); updated.Type == gjson.Number {
		session.UpdatedMs = int64(updated.Num)
	}
	return session, true
}

// ParseMessage parses a message record. Returns ok=false when the data
// is not valid JSON or has no string id.
func ParseMessage(data []byte) (Message, bool) {
	if !gjson.ValidBytes(data) {
		return Message{}, false
	}
	id := gjson.GetBytes(data, "id")
	if id.Type != gjson.String {
		return Message{}, false
	}

	message := Message{ID: id.Str}
	if sessionID := gjson.GetBytes(data, "sessionID"); sessionID.Type == gjson.String {
		message.SessionID = sessionID.Str
	}
	if agent := gjson.GetBytes(data, "agent"); agent.Type == gjson.String {
		message.Agent = agent.Str
	}
	if created := gjson.GetBytes(data, "time.created"); created.Type == gjson.Number {
		message.CreatedMs = int64(created.Num)
		message.HasCreated = true
	}
	return message, true
}

// ParsePart parses a part record. Returns ok=false only when the data
// is not valid JSON; a part with missing fields parses fine and simply
// fails IsToolCall.
func ParsePart(data []byte) (Part, bool) {
	if !gjson.ValidBytes(data) {
		return Part{}, false
	}

	part := Part{}
	if id := gjson.GetBytes(data, "id"); id.Type == gjson.String {
		part.ID = id.Str
	}
	if partType := gjson.GetBytes(data, "type"); partType.Type == gjson.String {
		part.Type = partType.Str
	}
	if callID := gjson.GetBytes(data, "callID"); callID.Type == gjson.String {
		part.CallID = callID.Str
		part.HasCallID = true
	}
	if tool := gjson.GetBytes(data, "tool"); tool.Type == gjson.String {
		part.Tool = tool.Str
		part.HasTool = true
	}
	if status := gjson.GetBytes(data, "state.status"); status.Type == gjson.String {
		part.Status = status.Str
	}
	if output := gjson.GetBytes(data, "state.output"); output.Exists() {
		part.Output = json.RawMessage(output.Raw)
	}
	if partError := gjson.GetBytes(data, "state.error"); partError.Exists() {
		part.Error = json.RawMessage(partError.Raw)
	}
	return part, true
}
