// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire

// Every operation in this package reports failure with one of these
// sentinel errors, or passes through an error returned by the Pin, rather
// than panicking. Each sentinel also implements a small marker interface
// so that callers who only care about a category of failure can use
// errors.As instead of comparing against the sentinel directly.

// ResetFailedError is implemented by errors signaling that a bus reset
// pulse got no presence response from any slave.
type ResetFailedError interface {
	ResetFailed() bool
}

// DataReadErrorer is implemented by errors signaling a 1-wire search
// protocol violation (both complement bits read back as 1).
type DataReadErrorer interface {
	DataReadError() bool
}

// BadCRCError is implemented by errors signaling a CRC8 mismatch, either on
// a ROM read during search or on a scratchpad read.
type BadCRCError interface {
	BadCRC() bool
}

// ParasitePowerError is implemented by the informational error returned
// when an addressed device (or bus) requires parasite power.
type ParasitePowerError interface {
	ParasitePower() bool
}

// InvalidBusError is implemented by errors signaling an operation against a
// bus slot that was never created (or was already destroyed).
type InvalidBusError interface {
	InvalidBus() bool
}

// BusPoweredError is implemented by errors signaling that the bus currently
// has its strong pull-up engaged and refuses ordinary traffic.
type BusPoweredError interface {
	BusPowered() bool
}

// InvalidRequestError is implemented by errors signaling a nonsensical
// request, such as toggling strong pull-up to a state it is already in.
type InvalidRequestError interface {
	InvalidRequest() bool
}

// BusFullError is implemented by the error returned when BusMax buses are
// already allocated.
type BusFullError interface {
	BusFull() bool
}

type kindError string

func (e kindError) Error() string { return string(e) }

func (e kindError) ResetFailed() bool    { return e == ErrResetFailed }
func (e kindError) DataReadError() bool  { return e == ErrDataReadError }
func (e kindError) BadCRC() bool         { return e == ErrBadCRC }
func (e kindError) ParasitePower() bool  { return e == ErrParasitePower }
func (e kindError) InvalidBus() bool     { return e == ErrInvalidBus }
func (e kindError) BusPowered() bool     { return e == ErrBusPowered }
func (e kindError) InvalidRequest() bool { return e == ErrInvalidRequest }
func (e kindError) BusFull() bool        { return e == ErrBusFull }

// Sentinel errors for every kind in the error taxonomy (spec.md section 7).
const (
	// ErrResetFailed: a reset pulse found no presence pulse from any slave.
	ErrResetFailed = kindError("onewire: reset failed, no presence pulse")
	// ErrDataReadError: during SEARCH_ROM, both complement bits read as 1.
	ErrDataReadError = kindError("onewire: search data read error")
	// ErrBadCRC: a CRC8 check over a ROM or scratchpad failed.
	ErrBadCRC = kindError("onewire: bad crc")
	// ErrParasitePower: the addressed device (or bus) requires parasite
	// power; this is informational, not necessarily fatal.
	ErrParasitePower = kindError("onewire: parasite power required")
	// ErrInvalidBus: the bus id refers to no allocated bus.
	ErrInvalidBus = kindError("onewire: invalid bus")
	// ErrBusPowered: the bus currently has strong pull-up engaged.
	ErrBusPowered = kindError("onewire: bus is strong-pulled, refusing traffic")
	// ErrInvalidRequest: the request makes no sense given current state.
	ErrInvalidRequest = kindError("onewire: invalid request")
	// ErrBusFull: BusMax buses are already allocated.
	ErrBusFull = kindError("onewire: no free bus slots")
)

var (
	_ ResetFailedError    = ErrResetFailed
	_ DataReadErrorer     = ErrDataReadError
	_ BadCRCError         = ErrBadCRC
	_ ParasitePowerError  = ErrParasitePower
	_ InvalidBusError     = ErrInvalidBus
	_ BusPoweredError     = ErrBusPowered
	_ InvalidRequestError = ErrInvalidRequest
	_ BusFullError        = ErrBusFull
)
