// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathEscapesRoot reports a resolved record path falling outside
// every allowed root. It is the one fatal error class in this package:
// callers must fail the whole operation rather than degrade, because a
// crafted record id reaching outside the store is an attack, not a
// malformed file.
var ErrPathEscapesRoot = errors.New("path escapes allowed roots")

// WithinRoots checks that path, after cleaning, falls under at least
// one of roots. Returns nil when contained, an error wrapping
// ErrPathEscapesRoot otherwise.
func WithinRoots(path string, roots []string) error {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrPathEscapesRoot, path, err)
	}

	for _, root := range roots {
		absoluteRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		relative, err := filepath.Rel(absoluteRoot, absolute)
		if err != nil {
			continue
		}
		if relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrPathEscapesRoot, path)
}
