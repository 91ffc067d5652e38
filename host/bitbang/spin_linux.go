// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitbang

import (
	"syscall"
	"time"
)

// spin uses clock_nanosleep-style retry-on-EINTR via syscall.Nanosleep,
// which on Linux has a much finer grain than the runtime's timer wheel.
func spin(d time.Duration) {
	if d <= 0 {
		return
	}
	req := syscall.NsecToTimespec(d.Nanoseconds())
	var rem syscall.Timespec
	for syscall.Nanosleep(&req, &rem) != nil {
		req = rem
	}
}
