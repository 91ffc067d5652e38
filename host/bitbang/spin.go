// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bitbang provides the busy-wait primitive every host/ pin backend
// uses to implement onewire.Pin.DelayMicros. 1-wire timing windows run from
// 3µs to 480µs, well under the scheduler's usual tick, so time.Sleep is too
// coarse and too jittery; Spin instead either nanosleeps in a retry loop
// (Linux) or busy-loops on time.Now (everywhere else).
package bitbang

import "time"

// Spin blocks for at least d. Callers should keep d under a few hundred
// microseconds; Spin is not meant for general-purpose waiting.
func Spin(d time.Duration) {
	spin(d)
}

func spinTime(d time.Duration) {
	for start := time.Now(); time.Since(start) < d; {
	}
}
