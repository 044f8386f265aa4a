// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the binary entrypoint error handler shared by
// rtcrelay-signal and rtcrelay-peer. It is the one place, besides
// lib/version, that writes to stderr without the structured logger,
// because run() may fail before the logger exists.
package process
