// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ftdipin drives a single 1-wire line off one data bit of an FTDI
// FT232R/FT232H-class USB-serial chip, running it in asynchronous bit-bang
// mode via periph.io/x/d2xx. This lets the bus engine run against a cheap
// USB dongle instead of a native GPIO header.
package ftdipin

import (
	"fmt"

	"periph.io/x/d2xx"

	"github.com/tinywire/onewire/conn/gpio"
	"github.com/tinywire/onewire/conn/pin"
)

const (
	bitModeReset byte = 0x00
	bitModeAsync byte = 0x01
)

// Pin drives bit `mask` of an FTDI chip's D-bus in async bit-bang mode. All
// other D-bus bits are left as configured at Open time (typically inputs),
// since only one line is needed for 1-wire.
//
// Direction on an FTDI D-bus is per-bit but async bit-bang mode recomputes
// the whole bus's direction mask on every SetBitMode call, so In/Out here
// re-issue SetBitMode with the 1-wire bit cleared or set in the direction
// mask rather than touching the other bits' state.
type Pin struct {
	h    d2xx.Handle
	mask byte // bit position of the 1-wire line on the D-bus

	dirMask byte
	level   bool
	state   pin.Func
}

// Open opens the first attached FTDI device and arms async bit-bang mode
// with line bit driving the 1-wire bus; every other D-bus bit is an input.
func Open(bit uint) (*Pin, error) {
	n, e := d2xx.CreateDeviceInfoList()
	if e != 0 {
		return nil, fmt.Errorf("ftdipin: list devices: %d", e)
	}
	if n == 0 {
		return nil, fmt.Errorf("ftdipin: no FTDI device found")
	}
	h, e := d2xx.Open(0)
	if e != 0 {
		return nil, fmt.Errorf("ftdipin: open: %d", e)
	}
	p := &Pin{h: h, mask: 1 << bit}
	if e := h.SetBitMode(0, bitModeReset); e != 0 {
		return nil, fmt.Errorf("ftdipin: reset bitmode: %d", e)
	}
	if err := p.setDirection(false); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pin) setDirection(output bool) error {
	if output {
		p.dirMask |= p.mask
	} else {
		p.dirMask &^= p.mask
	}
	if e := p.h.SetBitMode(p.dirMask, bitModeAsync); e != 0 {
		return fmt.Errorf("ftdipin: set bit mode: %d", e)
	}
	return nil
}

// Close releases the FTDI handle.
func (p *Pin) Close() error {
	if e := p.h.Close(); e != 0 {
		return fmt.Errorf("ftdipin: close: %d", e)
	}
	return nil
}

func (p *Pin) String() string   { return "ftdipin.Pin" }
func (p *Pin) Name() string     { return p.String() }
func (p *Pin) Number() int      { return -1 }
func (p *Pin) Function() string { return string(p.state) }

// In releases the line to input (high impedance). pull is accepted but
// ignored: the FTDI D-bus has no configurable pull resistor, and 1-wire
// relies on the bus's own pull-up anyway.
func (p *Pin) In(pull gpio.Pull) error {
	if err := p.setDirection(false); err != nil {
		return err
	}
	p.state = gpio.IN
	return nil
}

// Read samples the line level by reading back the D-bus byte.
func (p *Pin) Read() gpio.Level {
	var buf [1]byte
	if _, e := p.h.Read(buf[:]); e != 0 {
		return gpio.Low
	}
	return buf[0]&p.mask != 0
}

// Out drives the line to l, switching to output direction first if needed.
func (p *Pin) Out(l gpio.Level) error {
	if p.dirMask&p.mask == 0 {
		if err := p.setDirection(true); err != nil {
			return err
		}
	}
	p.level = bool(l)
	var b byte
	if p.level {
		b = p.mask
	}
	if _, e := p.h.Write([]byte{b}); e != 0 {
		return fmt.Errorf("ftdipin: write: %d", e)
	}
	if p.level {
		p.state = gpio.OUT_HI
	} else {
		p.state = gpio.OUT_OC
	}
	return nil
}

var _ gpio.PinIO = (*Pin)(nil)
