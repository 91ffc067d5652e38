// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dstemp

import (
	"time"

	"github.com/tinywire/onewire/conn/onewire"
)

// Family bytes, the low byte of a DS18x20-family onewire.Address.
const (
	FamilyDS18S20  = 0x10
	FamilyDS18B20  = 0x28
	FamilyDS1822   = 0x22
	FamilyMAX31826 = 0x3b
)

// Sensor is a handle to a single DS18x20-family device (or, when created
// with a nil address, the sole device on a bus addressed via SKIP_ROM).
type Sensor struct {
	bus  *onewire.BusEngine
	busID int
	addr *onewire.Address

	family     byte
	resolution int // 9..12
	busy       bool
}

// New reads the scratchpad to validate the device responds and to learn
// its current resolution, then, if resolutionBits is nonzero and differs
// from what's configured, writes the new resolution.
//
// addr may be nil to address the sole device on busID via SKIP_ROM; in
// that case the family cannot be inferred from the address and the
// generic DS18B20-style decode is used (see Sensor.FamilyName).
func New(bus *onewire.BusEngine, busID int, addr *onewire.Address, resolutionBits int) (*Sensor, error) {
	if resolutionBits != 0 && (resolutionBits < 9 || resolutionBits > 12) {
		return nil, onewire.ErrInvalidRequest
	}
	s := &Sensor{bus: bus, busID: busID, addr: addr}
	if addr != nil {
		s.family = addr.Family()
	}

	spad, err := s.readScratchpad()
	if err != nil {
		return nil, err
	}
	s.resolution = 9 + int(spad[4]>>5&0x03)

	if resolutionBits != 0 && resolutionBits != s.resolution {
		packed := byte(resolutionBits-9) << 5
		if err := bus.Write(busID, addr, onewire.WriteScratchpad, []byte{0xff, 0xff, packed}); err != nil {
			return nil, err
		}
		s.resolution = resolutionBits
	}
	return s, nil
}

func (s *Sensor) readScratchpad() ([]byte, error) {
	spad, err := s.bus.Read(s.busID, s.addr, onewire.ReadScratchpad, 9)
	if err != nil {
		return nil, err
	}
	if !onewire.CheckCRC(spad) {
		return nil, onewire.ErrBadCRC
	}
	return spad, nil
}

// Resolution returns the sensor's configured resolution in bits (9..12).
func (s *Sensor) Resolution() int { return s.resolution }

// FamilyName returns a human-readable family name, or "unknown" when the
// sensor was created without an address (SKIP_ROM addressing) and the
// family could not be inferred.
func (s *Sensor) FamilyName() string {
	switch s.family {
	case FamilyDS18S20:
		return "DS18S20"
	case FamilyDS18B20:
		return "DS18B20"
	case FamilyDS1822:
		return "DS1822"
	case FamilyMAX31826:
		return "MAX31826"
	default:
		return "unknown"
	}
}

// conversionDelayMs is the DS18S20/DS18B20/DS1822 9..12-bit conversion
// delay table, indexed by resolution-9. Not a power-of-two progression
// (94, 188, 375, 750), so it's a literal lookup rather than a shift.
var conversionDelayMs = [4]int{94, 188, 375, 750}

// conversionDelay returns how long a Convert-T takes to complete for this
// sensor's family and resolution, per the datasheet table.
func (s *Sensor) conversionDelay() time.Duration {
	if s.family == FamilyMAX31826 {
		return 150 * time.Millisecond
	}
	return time.Duration(conversionDelayMs[s.resolution-9]) * time.Millisecond
}
