// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Store provides read-only access to an opencode record store rooted
// at a single data directory.
type Store struct {
	root         string
	allowedRoots []string
	logger       *slog.Logger
}

// Options configures a Store.
type Options struct {
	// AllowedRoots, when non-empty, constrains every resolved part
	// directory: a directory falling outside all listed roots fails
	// the read with ErrPathEscapesRoot. Empty disables the guard.
	AllowedRoots []string

	// Logger receives per-record diagnostics at Debug level. Nil
	// discards them.
	Logger *slog.Logger
}

// Open returns a Store for the record store rooted at dir. The
// directory does not need to exist; an absent store behaves as a store
// with no collections.
func Open(dir string, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		root:         dir,
		allowedRoots: opts.AllowedRoots,
		logger:       logger,
	}
}

// Root returns the data directory this store reads from.
func (s *Store) Root() string { return s.root }

// Sessions returns the collection holding every session record.
func (s *Store) Sessions() Collection {
	return Collection{dir: filepath.Join(s.root, "session", "info"), logger: s.logger}
}

// Messages returns the message collection of one session.
func (s *Store) Messages(sessionID string) Collection {
	return Collection{dir: filepath.Join(s.root, "session", "message", sessionID), logger: s.logger}
}

// Parts returns the part collection of one message. When allowed roots
// are configured, the resolved directory is validated against them
// before any read; a violation returns ErrPathEscapesRoot and the
// caller must abandon the whole operation.
func (s *Store) Parts(messageID string) (Collection, error) {
	dir := filepath.Join(s.root, "session", "part", messageID)
	if len(s.allowedRoots) > 0 {
		if err := WithinRoots(dir, s.allowedRoots); err != nil {
			return Collection{}, err
		}
	}
	return Collection{dir: dir, logger: s.logger}, nil
}

// Collection is one directory of JSON records, keyed by filename.
type Collection struct {
	dir    string
	logger *slog.Logger
}

// Entry identifies one record in a collection together with its file
// modification time, used only for recency ranking.
type Entry struct {
	// ID is the record id: the filename without its .json extension.
	ID string

	// ModTimeMs is the file modification time in Unix milliseconds,
	// or 0 when the time could not be determined.
	ModTimeMs int64
}

// Entries lists the records in the collection in directory order. An
// absent directory yields an empty slice. Subdirectories and files
// without a .json extension are ignored.
func (c Collection) Entries() []Entry {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if dirEntry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		entry := Entry{ID: strings.TrimSuffix(name, ".json")}
		if info, err := dirEntry.Info(); err == nil {
			entry.ModTimeMs = info.ModTime().UnixMilli()
		}
		entries = append(entries, entry)
	}
	return entries
}

// Read returns the raw bytes of one record, or nil when the record
// cannot be read for any reason. Absence and I/O failure are
// indistinguishable to callers; both mean "no usable record".
func (c Collection) Read(id string) []byte {
	data, err := os.ReadFile(filepath.Join(c.dir, id+".json"))
	if err != nil {
		c.logger.Debug("record read failed", "dir", c.dir, "id", id, "error", err)
		return nil
	}
	return data
}
