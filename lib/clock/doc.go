// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source for host tick
// loops.
//
// A host that polls its WebRTC objects once per frame takes a Clock and
// builds its ticker from it. In production, Real() provides the
// standard library behavior. In tests, Fake() provides a deterministic
// clock that advances only when Advance is called, so a test can step
// the loop one tick at a time:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go host.Run(ctx, c)
//	c.WaitForTimers(1)              // the loop has created its ticker
//	c.Advance(16 * time.Millisecond) // exactly one tick
//
// WaitForTimers blocks until the expected number of tickers and After
// channels are registered, which removes the race between the loop
// starting and the test advancing time.
package clock
