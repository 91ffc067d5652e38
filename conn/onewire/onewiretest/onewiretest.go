// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package onewiretest simulates a 1-wire bus at the pin level so that
// onewire.BusEngine can be exercised without real hardware.
//
// Unlike a transaction-level record/playback fake, FakeWire implements
// onewire.Pin directly and reconstructs the bus protocol (reset,
// ROM addressing, SEARCH_ROM, scratchpad I/O) from the exact sequence of
// SetOutput/DriveLow/SetInput/Read/DelayMicros calls the bus engine
// issues, the same way a real open-drain wire would see them.
package onewiretest

import (
	"github.com/tinywire/onewire/conn/onewire"
)

// Device is a simulated DS18x20-family slave: a ROM address plus a 9 byte
// scratchpad (bytes 0-1 temperature, 2 TH/alarm-high, 3 TL/alarm-low, 4
// config/resolution, 5-7 family reserved, 8 CRC8 of bytes 0-7).
type Device struct {
	Addr       onewire.Address
	Scratchpad [9]byte
	Parasite   bool

	// ConvertRequested counts how many times this device has seen a
	// Convert-T command, for tests asserting a conversion was issued.
	ConvertRequested int
}

// RefreshCRC recomputes Scratchpad[8] from Scratchpad[:8]. Call after
// mutating the scratchpad directly in a test.
func (d *Device) RefreshCRC() {
	d.Scratchpad[8] = onewire.CalcCRC(d.Scratchpad[:8])
}

func (d *Device) addrBit(pos int) bool {
	b := d.Addr.Bytes()
	return b[pos/8]&(1<<uint(pos%8)) != 0
}

type stage int

const (
	stageROMCmd stage = iota
	stageAddr
	stageCmd
	stageRead
	stageReadSingleBit
	stageWritePayload
	stageSearch
	stageDone
)

// FakeWire is a onewire.Pin that simulates zero or more Devices sharing a
// single open-drain line.
type FakeWire struct {
	Devices []*Device

	driving bool
	pulseUs uint32

	presenceWindow bool
	pendingShort   bool

	stage stage

	romCmd     byte
	romBitIdx  int
	addrBytes  [8]byte
	addrBitIdx int
	matched    []*Device

	cmdByte   byte
	cmdBitIdx int

	outBytes   []byte
	outByteIdx int
	outBitIdx  int
	outBit     bool

	inBytes  []byte
	inByte   byte
	inBitIdx int

	searchCands []*Device
	searchBit   int
	haveA       bool
}

// SetOutput implements onewire.Pin.
func (w *FakeWire) SetOutput() error { return nil }

// DriveLow implements onewire.Pin.
func (w *FakeWire) DriveLow() error {
	w.resolvePendingShort()
	w.driving = true
	w.pulseUs = 0
	return nil
}

// ReleaseHigh implements onewire.Pin. Strong pull-up is accepted but not
// otherwise modeled electrically.
func (w *FakeWire) ReleaseHigh() error { return nil }

// SetInput implements onewire.Pin.
func (w *FakeWire) SetInput() error {
	if !w.driving {
		return nil
	}
	w.driving = false
	switch {
	case w.pulseUs >= 400:
		w.onReset()
		w.presenceWindow = true
	case w.pulseUs == 60:
		w.onWrittenBit(false)
	case w.pulseUs == 3:
		// Ambiguous until we see whether a Read() follows (read slot) or
		// the next DriveLow/SetOutput arrives first (it was a write-1).
		w.pendingShort = true
	}
	return nil
}

// DelayMicros implements onewire.Pin.
func (w *FakeWire) DelayMicros(us uint32) {
	if w.driving {
		w.pulseUs += us
	}
}

// Read implements onewire.Pin.
func (w *FakeWire) Read() (bool, error) {
	if w.presenceWindow {
		w.presenceWindow = false
		return len(w.Devices) == 0, nil
	}
	if w.pendingShort {
		w.pendingShort = false
		return w.onReadBit(), nil
	}
	return true, nil
}

func (w *FakeWire) resolvePendingShort() {
	if w.pendingShort {
		w.pendingShort = false
		w.onWrittenBit(true)
	}
}

func (w *FakeWire) onReset() {
	w.stage = stageROMCmd
	w.romCmd = 0
	w.romBitIdx = 0
	w.addrBitIdx = 0
	w.matched = nil
	w.cmdByte = 0
	w.cmdBitIdx = 0
	w.outBytes = nil
	w.inBytes = nil
	w.searchCands = nil
	w.searchBit = 0
	w.haveA = false
}

// onWrittenBit handles a bit the master wrote onto the wire.
func (w *FakeWire) onWrittenBit(bit bool) {
	switch w.stage {
	case stageROMCmd:
		if bit {
			w.romCmd |= 1 << uint(w.romBitIdx)
		}
		w.romBitIdx++
		if w.romBitIdx == 8 {
			w.dispatchROMCmd()
		}
	case stageAddr:
		byteIdx, bitIdx := w.addrBitIdx/8, w.addrBitIdx%8
		if bit {
			w.addrBytes[byteIdx] |= 1 << uint(bitIdx)
		}
		w.addrBitIdx++
		if w.addrBitIdx == 64 {
			w.resolveMatch()
			w.stage = stageCmd
		}
	case stageCmd:
		if bit {
			w.cmdByte |= 1 << uint(w.cmdBitIdx)
		}
		w.cmdBitIdx++
		if w.cmdBitIdx == 8 {
			w.dispatchCmd()
		}
	case stageWritePayload:
		if bit {
			w.inByte |= 1 << uint(w.inBitIdx)
		}
		w.inBitIdx++
		if w.inBitIdx == 8 {
			w.inBytes = append(w.inBytes, w.inByte)
			w.inByte = 0
			w.inBitIdx = 0
			if len(w.inBytes) == 3 {
				w.applyWritePayload()
				w.stage = stageDone
			}
		}
	case stageSearch:
		var next []*Device
		for _, d := range w.searchCands {
			if d.addrBit(w.searchBit) == bit {
				next = append(next, d)
			}
		}
		w.searchCands = next
		w.searchBit++
		if w.searchBit == 64 || len(w.searchCands) == 0 {
			w.stage = stageDone
		}
	}
}

// onReadBit handles a bit the master is reading off the wire.
func (w *FakeWire) onReadBit() bool {
	switch w.stage {
	case stageRead:
		if w.outByteIdx >= len(w.outBytes) {
			return true
		}
		bit := w.outBytes[w.outByteIdx]&(1<<uint(w.outBitIdx)) != 0
		w.outBitIdx++
		if w.outBitIdx == 8 {
			w.outBitIdx = 0
			w.outByteIdx++
			if w.outByteIdx == len(w.outBytes) {
				w.stage = stageDone
			}
		}
		return bit
	case stageReadSingleBit:
		w.stage = stageDone
		return w.outBit
	case stageSearch:
		hasZero, hasOne := false, false
		for _, d := range w.searchCands {
			if d.addrBit(w.searchBit) {
				hasOne = true
			} else {
				hasZero = true
			}
		}
		if !w.haveA {
			w.haveA = true
			return !hasZero
		}
		w.haveA = false
		return !hasOne
	}
	return true
}

func (w *FakeWire) dispatchROMCmd() {
	switch w.romCmd {
	case onewire.SkipROM:
		w.matched = append([]*Device{}, w.Devices...)
		w.stage = stageCmd
	case onewire.MatchROM:
		w.addrBytes = [8]byte{}
		w.addrBitIdx = 0
		w.stage = stageAddr
	case onewire.SearchROM:
		w.searchCands = append([]*Device{}, w.Devices...)
		w.searchBit = 0
		w.haveA = false
		w.stage = stageSearch
	default:
		w.stage = stageDone
	}
}

func (w *FakeWire) resolveMatch() {
	addr := onewire.AddressFromBytes(w.addrBytes)
	w.matched = nil
	for _, d := range w.Devices {
		if d.Addr == addr {
			w.matched = append(w.matched, d)
		}
	}
}

func (w *FakeWire) dispatchCmd() {
	switch w.cmdByte {
	case onewire.ConvertT:
		for _, d := range w.matched {
			d.ConvertRequested++
		}
		w.stage = stageDone
	case onewire.ReadScratchpad:
		if len(w.matched) == 1 {
			w.outBytes = append([]byte{}, w.matched[0].Scratchpad[:]...)
		} else {
			w.outBytes = make([]byte, 9)
		}
		w.outByteIdx, w.outBitIdx = 0, 0
		w.stage = stageRead
	case onewire.WriteScratchpad:
		w.inBytes = nil
		w.inByte = 0
		w.inBitIdx = 0
		w.stage = stageWritePayload
	case onewire.ReadPowerSupply:
		parasite := false
		for _, d := range w.matched {
			if d.Parasite {
				parasite = true
			}
		}
		w.outBit = !parasite
		w.stage = stageReadSingleBit
	default:
		w.stage = stageDone
	}
}

func (w *FakeWire) applyWritePayload() {
	for _, d := range w.matched {
		copy(d.Scratchpad[2:5], w.inBytes)
		d.RefreshCRC()
	}
}

var _ onewire.Pin = (*FakeWire)(nil)
