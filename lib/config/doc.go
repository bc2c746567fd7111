// Copyright 2026 The Opencode Dashboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the dashboard.
//
// Configuration comes from a single YAML file named by:
//   - the OMO_DASHBOARD_CONFIG environment variable, or
//   - the --config flag passed to the binary.
//
// When neither is set the built-in defaults apply, pointed at the
// standard opencode data directory. A dashboard must come up with zero
// setup on a machine that runs opencode; everything else about the
// loading model follows the single-file, no-hidden-overrides rule:
// environment variables never override file values, and the only
// expansion performed is ${HOME} in paths.
package config
