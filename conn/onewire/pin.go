// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire

// Pin is the only hardware contract the bus engine depends on: a single
// open-drain GPIO. Concrete backends live under host/ (gpioadapter,
// sysfsgpio, gpiochip, ftdipin); onewiretest provides a simulated Pin for
// tests.
//
// Out-of-band speed: implementations should make DriveLow/ReleaseHigh/Read
// as cheap as possible since bus timing is entirely paced by DelayMicros.
type Pin interface {
	// SetOutput configures the pin as a driven output. Implementations
	// should leave the electrical level unchanged until the next
	// DriveLow/ReleaseHigh.
	SetOutput() error
	// SetInput releases the pin to tri-state (high impedance) so the bus's
	// external pull-up (or the strong pull-up transistor) brings it back
	// high. This is also how "drive high" is achieved during the idle
	// recovery windows of the protocol.
	SetInput() error
	// DriveLow actively pulls the line to 0V. The pin must already be an
	// output (see SetOutput).
	DriveLow() error
	// ReleaseHigh actively drives the line to Vcc. This is used only for
	// the strong pull-up: every other "high" in the protocol is obtained
	// via SetInput plus the passive pull-up.
	ReleaseHigh() error
	// Read samples the current line level. true means high.
	Read() (bool, error)
	// DelayMicros busy-waits for at least the given number of
	// microseconds. Jitter of a few microseconds is tolerable at standard
	// 1-wire speed.
	DelayMicros(us uint32)
}

// Clock provides the monotonic millisecond clock the Temperature Scheduler
// uses to compute and check conversion deadlines.
type Clock interface {
	NowMillis() uint64
}
