// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpio defines digital pins.
//
// The GPIO pins are described in their logical functionality, not in their
// physical position.
package gpio

import (
	"fmt"

	"github.com/tinywire/onewire/conn/pin"
)

// Level is the level of the pin: Low or High.
type Level bool

const (
	// Low represents 0v.
	Low Level = false
	// High represents Vin, generally 3.3v or 5v.
	High Level = true
)

func (l Level) String() string {
	if l == Low {
		return "Low"
	}
	return "High"
}

// Pull specifies the internal pull-up or pull-down for a pin set as input.
type Pull uint8

// Acceptable pull values.
const (
	Float        Pull = 0 // Let the input float
	Down         Pull = 1 // Apply pull-down
	Up           Pull = 2 // Apply pull-up
	PullNoChange Pull = 3 // Do not change the previous pull resistor setting
)

func (p Pull) String() string {
	switch p {
	case Float:
		return "Float"
	case Down:
		return "Down"
	case Up:
		return "Up"
	default:
		return "PullNoChange"
	}
}

// PinIn is an input GPIO pin.
type PinIn interface {
	pin.Pin
	// In sets up a pin as an input with the given pull resistor.
	In(pull Pull) error
	// Read returns the current pin level.
	//
	// Behavior is undefined if In() wasn't called first.
	Read() Level
}

// PinOut is an output GPIO pin.
type PinOut interface {
	pin.Pin
	// Out sets a pin as output if it wasn't already and drives the given
	// level.
	Out(l Level) error
}

// PinIO is a GPIO pin that supports both input and output.
//
// A 1-wire bus pin is always used open-drain: Out(Low) drives the line,
// In(Up) releases it and lets the external (or device-internal) pull-up
// bring it back high.
type PinIO interface {
	pin.Pin
	In(pull Pull) error
	Read() Level
	Out(l Level) error
}

// INVALID implements PinIO and fails on all access.
var INVALID PinIO = invalidPin{}

// BasicPin is a non-functional pin. It is useful as an embeddable
// placeholder for drivers that don't back every declared pin with real
// hardware. Its name is the Name field, so it has no Name method and does
// not by itself satisfy pin.Pin.
type BasicPin struct {
	Name string
}

func (b *BasicPin) String() string   { return b.Name }
func (b *BasicPin) Number() int      { return -1 }
func (b *BasicPin) Function() string { return "" }

func (b *BasicPin) In(Pull) error {
	return fmt.Errorf("%s cannot be used as input", b.Name)
}

func (b *BasicPin) Read() Level { return Low }

func (b *BasicPin) Out(Level) error {
	return fmt.Errorf("%s cannot be used as output", b.Name)
}

//

type invalidPin struct{}

func (invalidPin) String() string   { return "INVALID" }
func (invalidPin) Name() string     { return "INVALID" }
func (invalidPin) Number() int      { return -1 }
func (invalidPin) Function() string { return "" }
func (invalidPin) In(Pull) error    { return errInvalidPin }
func (invalidPin) Read() Level      { return Low }
func (invalidPin) Out(Level) error  { return errInvalidPin }

var errInvalidPin = fmt.Errorf("gpio: invalid pin")

var _ PinIn = INVALID
var _ PinOut = INVALID
var _ PinIO = INVALID
