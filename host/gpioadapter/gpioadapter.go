// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpioadapter bridges a generic gpio.PinIO to the onewire.Pin
// contract the bus engine needs. Every concrete backend (sysfsgpio,
// gpiochip, ftdipin) produces a gpio.PinIO; this is the single place that
// turns "In(Up)/Out(Low)/Read()" into the bit-bang primitives 1-wire wants.
package gpioadapter

import (
	"time"

	pkggpio "github.com/tinywire/onewire/conn/gpio"
	"github.com/tinywire/onewire/conn/onewire"
	"github.com/tinywire/onewire/host/bitbang"
)

// Adapter implements onewire.Pin on top of a gpio.PinIO used open-drain:
// SetOutput+DriveLow pulls the line low, SetInput releases it to the bus's
// pull-up (or lets a prior ReleaseHigh's strong pull-up hold it), and
// ReleaseHigh drives it high directly for the strong pull-up case.
type Adapter struct {
	Pin pkggpio.PinIO
}

// New wraps pin as an onewire.Pin.
func New(pin pkggpio.PinIO) *Adapter {
	return &Adapter{Pin: pin}
}

// SetOutput leaves the pin tri-stated; the next DriveLow or ReleaseHigh
// actually changes the line's direction and level together, since gpio.PinIO
// only exposes a combined Out(level) call.
func (a *Adapter) SetOutput() error {
	return nil
}

// SetInput releases the pin to high impedance.
func (a *Adapter) SetInput() error {
	return a.Pin.In(pkggpio.Up)
}

// DriveLow actively pulls the line low.
func (a *Adapter) DriveLow() error {
	return a.Pin.Out(pkggpio.Low)
}

// ReleaseHigh actively drives the line high, used only for the strong
// pull-up.
func (a *Adapter) ReleaseHigh() error {
	return a.Pin.Out(pkggpio.High)
}

// Read samples the line.
func (a *Adapter) Read() (bool, error) {
	return bool(a.Pin.Read()), nil
}

// DelayMicros busy-waits via bitbang.Spin.
func (a *Adapter) DelayMicros(us uint32) {
	bitbang.Spin(time.Duration(us) * time.Microsecond)
}

var _ onewire.Pin = (*Adapter)(nil)
