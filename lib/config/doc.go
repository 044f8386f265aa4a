// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the rtcrelay
// binaries.
//
// Configuration is loaded from a single file specified by either the
// RTCRELAY_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. Files ending in .json or .jsonc are
// parsed as JSON with comments; anything else is YAML.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter:
// loopback ICE candidates are not gathered.
//
// Variable expansion is performed on addresses, names, and TURN
// credentials after loading: ${HOME} and ${VAR:-default} patterns are
// expanded, so credentials can stay out of the file.
//
// Key exports:
//
//   - [Config] -- master struct with Signal, Peer, RTC
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Resolve] -- picks --config, then RTCRELAY_CONFIG, then
//     [Default], for binaries that run without a file
//
// This package depends on no other rtcrelay packages.
package config
