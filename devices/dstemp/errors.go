// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dstemp

// NoSlotsError is implemented by the error returned when every in-flight
// conversion slot is occupied.
type NoSlotsError interface {
	NoSlots() bool
}

type noSlotsError string

func (e noSlotsError) Error() string { return string(e) }
func (e noSlotsError) NoSlots() bool { return true }

// ErrNoSlots is returned by RequestRead when MaxInflight conversions are
// already pending. Every other error kind (INVALID_REQUEST, BAD_CRC, ...)
// is reused directly from the onewire package, since this scheduler sits
// on top of the same error taxonomy as the bus it drives.
const ErrNoSlots = noSlotsError("dstemp: no free conversion slots")

var _ NoSlotsError = ErrNoSlots
