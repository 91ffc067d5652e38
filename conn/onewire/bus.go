// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire

import (
	"io"
	"log/slog"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Wire-level command bytes, bit-exact with the Dallas/Maxim 1-wire spec.
// Exported since the dstemp package needs ConvertT/ReadScratchpad/
// WriteScratchpad to talk to DS18x20-family devices over this bus.
const (
	SearchROM       = 0xf0
	SkipROM         = 0xcc
	MatchROM        = 0x55
	ReadPowerSupply = 0xb4
	ConvertT        = 0x44
	ReadScratchpad  = 0xbe
	WriteScratchpad = 0x4e
)

// BusMax is the number of bus slots a BusEngine can hold.
const BusMax = 8

// MaxRoster bounds the number of devices a single Scan enrolls. It exists
// so the roster can live in a fixed-size backing array on constrained
// targets; re-running Scan always replaces the roster atomically.
const MaxRoster = 32

// Config configures a BusEngine. The zero value is valid and uses
// StrictCRC=false (bad ROM CRC during search silently drops that device,
// per spec.md's default policy).
type Config struct {
	// StrictCRC, when true, makes a single bad ROM CRC during Scan abort
	// the whole pass and return zero devices with ErrBadCRC, instead of
	// dropping just that device and continuing.
	StrictCRC bool
	// Logger receives structured diagnostics. A nil Logger disables
	// logging (slog.Default() is not used implicitly, to keep bus
	// engines silent by default on constrained targets).
	Logger *slog.Logger
}

type busSlot struct {
	pin    Pin // nil means this slot is unused
	roster []Device

	busParasiteProbed   bool
	busParasiteRequired bool
	// addrParasite caches per-address ReadPowerSupply results independent
	// of roster membership, since an address never Scan'd still must be
	// probed at most once.
	addrParasite map[Address]bool

	strongPullupActive bool
}

// BusEngine owns up to BusMax independent 1-wire buses, each bit-banged
// over a single Pin.
type BusEngine struct {
	cfg   Config
	buses [BusMax]busSlot
}

// NewBusEngine creates an engine ready to have buses attached via Create.
func NewBusEngine(cfg Config) *BusEngine {
	return &BusEngine{cfg: cfg}
}

func (e *BusEngine) log() *slog.Logger {
	if e.cfg.Logger == nil {
		return discardLogger
	}
	return e.cfg.Logger
}

// Create attaches pin as a new bus and returns its bus id, or ErrBusFull if
// every slot is already in use.
func (e *BusEngine) Create(p Pin) (int, error) {
	for i := range e.buses {
		if e.buses[i].pin == nil {
			e.buses[i] = busSlot{pin: p}
			e.log().Debug("onewire: bus created", "bus", i)
			return i, nil
		}
	}
	return -1, ErrBusFull
}

// Destroy releases a bus slot, discarding its roster. It is the caller's
// responsibility to ensure no Scheduler conversion is in flight on this
// bus first.
func (e *BusEngine) Destroy(bus int) error {
	s, err := e.slot(bus)
	if err != nil {
		return err
	}
	*s = busSlot{}
	e.log().Debug("onewire: bus destroyed", "bus", bus)
	return nil
}

func (e *BusEngine) slot(bus int) (*busSlot, error) {
	if bus < 0 || bus >= BusMax || e.buses[bus].pin == nil {
		return nil, ErrInvalidBus
	}
	return &e.buses[bus], nil
}

// guard returns the bus slot after checking it exists and isn't currently
// strong-pulled.
func (e *BusEngine) guard(bus int) (*busSlot, error) {
	s, err := e.slot(bus)
	if err != nil {
		return nil, err
	}
	if s.strongPullupActive {
		return nil, ErrBusPowered
	}
	return s, nil
}

//
// Bit/byte/reset timing (standard speed, microseconds per spec.md 4.2).
//

func (e *BusEngine) reset(p Pin) (bool, error) {
	if err := p.SetOutput(); err != nil {
		return false, err
	}
	if err := p.DriveLow(); err != nil {
		return false, err
	}
	p.DelayMicros(480)
	if err := p.SetInput(); err != nil {
		return false, err
	}
	p.DelayMicros(70)
	present, err := p.Read()
	if err != nil {
		return false, err
	}
	p.DelayMicros(410 - 70)
	// A slave holds the line low during its presence pulse.
	return !present, nil
}

func (e *BusEngine) writeBit(p Pin, bit bool) error {
	if err := p.SetOutput(); err != nil {
		return err
	}
	if err := p.DriveLow(); err != nil {
		return err
	}
	if bit {
		p.DelayMicros(3)
		if err := p.SetInput(); err != nil {
			return err
		}
		p.DelayMicros(55)
	} else {
		p.DelayMicros(60)
		if err := p.SetInput(); err != nil {
			return err
		}
		p.DelayMicros(5)
	}
	return nil
}

func (e *BusEngine) readBit(p Pin) (bool, error) {
	if err := p.SetOutput(); err != nil {
		return false, err
	}
	if err := p.DriveLow(); err != nil {
		return false, err
	}
	p.DelayMicros(3)
	if err := p.SetInput(); err != nil {
		return false, err
	}
	p.DelayMicros(3)
	bit, err := p.Read()
	if err != nil {
		return false, err
	}
	p.DelayMicros(45)
	return bit, nil
}

func (e *BusEngine) writeByte(p Pin, b byte) error {
	for i := 0; i < 8; i++ {
		if err := e.writeBit(p, b&(1<<uint(i)) != 0); err != nil {
			return err
		}
	}
	return nil
}

func (e *BusEngine) readByte(p Pin) (byte, error) {
	var b byte
	for i := 0; i < 8; i++ {
		bit, err := e.readBit(p)
		if err != nil {
			return 0, err
		}
		if bit {
			b |= 1 << uint(i)
		}
	}
	return b, nil
}

// begin performs the reset + ROM-addressing prologue shared by every
// transaction: reset, then either SKIP_ROM (addr == nil) or MATCH_ROM
// (addr != nil).
func (e *BusEngine) begin(p Pin, addr *Address) error {
	present, err := e.reset(p)
	if err != nil {
		return err
	}
	if !present {
		return ErrResetFailed
	}
	if addr == nil {
		return e.writeByte(p, SkipROM)
	}
	if err := e.writeByte(p, MatchROM); err != nil {
		return err
	}
	rom := addr.Bytes()
	for _, b := range rom {
		if err := e.writeByte(p, b); err != nil {
			return err
		}
	}
	return nil
}

//
// Generic read/write transactions (spec.md 4.2 "Generic read/write
// transaction"). Neither performs CRC on the payload; callers do.
//

// Write issues cmd followed by payload, addressing either a single device
// (addr != nil) or all devices via SKIP_ROM (addr == nil).
func (e *BusEngine) Write(bus int, addr *Address, cmd byte, payload []byte) error {
	s, err := e.guard(bus)
	if err != nil {
		return err
	}
	if err := e.begin(s.pin, addr); err != nil {
		return err
	}
	if err := e.writeByte(s.pin, cmd); err != nil {
		return err
	}
	for _, b := range payload {
		if err := e.writeByte(s.pin, b); err != nil {
			return err
		}
	}
	return nil
}

// Read issues cmd and then reads n bytes, addressing either a single
// device (addr != nil) or all devices via SKIP_ROM (addr == nil).
func (e *BusEngine) Read(bus int, addr *Address, cmd byte, n int) ([]byte, error) {
	s, err := e.guard(bus)
	if err != nil {
		return nil, err
	}
	if err := e.begin(s.pin, addr); err != nil {
		return nil, err
	}
	if err := e.writeByte(s.pin, cmd); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	for i := range out {
		b, err := e.readByte(s.pin)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

//
// Parasite-power probe (ReadPowerSupply, 0xB4).
//

// Parasite reports whether the addressed device (or, with addr == nil, any
// device on the bus) requires parasite power. The result is cached so a
// repeat call for the same address (or bus) performs no bus transaction.
// A cached "required" result is reported as ErrParasitePower.
func (e *BusEngine) Parasite(bus int, addr *Address) (bool, error) {
	s, err := e.guard(bus)
	if err != nil {
		return false, err
	}
	if addr == nil {
		if s.busParasiteProbed {
			if s.busParasiteRequired {
				return true, ErrParasitePower
			}
			return false, nil
		}
		if err := e.begin(s.pin, nil); err != nil {
			return false, err
		}
		required, err := e.probePowerSupply(s.pin)
		if err != nil {
			return false, err
		}
		s.busParasiteProbed = true
		s.busParasiteRequired = required
		if required {
			return true, ErrParasitePower
		}
		return false, nil
	}

	if required, probed := s.addrParasite[*addr]; probed {
		if required {
			return true, ErrParasitePower
		}
		return false, nil
	}
	if err := e.begin(s.pin, addr); err != nil {
		return false, err
	}
	required, err := e.probePowerSupply(s.pin)
	if err != nil {
		return false, err
	}
	if s.addrParasite == nil {
		s.addrParasite = make(map[Address]bool)
	}
	s.addrParasite[*addr] = required
	if dev := s.findDevice(*addr); dev != nil {
		dev.ParasiteProbed = true
		dev.ParasiteRequired = required
	}
	if required {
		return true, ErrParasitePower
	}
	return false, nil
}

func (e *BusEngine) probePowerSupply(p Pin) (bool, error) {
	if err := e.writeByte(p, ReadPowerSupply); err != nil {
		return false, err
	}
	bit, err := e.readBit(p)
	if err != nil {
		return false, err
	}
	// A parasite-powered slave pulls the line low (reads as 0).
	return !bit, nil
}

func (s *busSlot) findDevice(addr Address) *Device {
	for i := range s.roster {
		if s.roster[i].Addr == addr {
			return &s.roster[i]
		}
	}
	return nil
}

//
// Strong pull-up.
//

// Power engages (on=true) or releases (on=false) the strong pull-up on
// bus. While engaged, every other bus operation returns ErrBusPowered.
func (e *BusEngine) Power(bus int, on bool) error {
	s, err := e.slot(bus)
	if err != nil {
		return err
	}
	switch {
	case on && !s.strongPullupActive:
		if err := s.pin.SetOutput(); err != nil {
			return err
		}
		if err := s.pin.ReleaseHigh(); err != nil {
			return err
		}
		s.strongPullupActive = true
		e.log().Debug("onewire: strong pull-up engaged", "bus", bus)
		return nil
	case !on && s.strongPullupActive:
		if err := s.pin.SetInput(); err != nil {
			return err
		}
		s.strongPullupActive = false
		e.log().Debug("onewire: strong pull-up released", "bus", bus)
		return nil
	default:
		return ErrInvalidRequest
	}
}

// Device returns the address at index in the most recent scan's roster.
func (e *BusEngine) Device(bus, index int) (Address, bool) {
	s, err := e.slot(bus)
	if err != nil || index < 0 || index >= len(s.roster) {
		return 0, false
	}
	return s.roster[index].Addr, true
}

// RosterLen returns the number of devices found by the most recent Scan.
func (e *BusEngine) RosterLen(bus int) int {
	s, err := e.slot(bus)
	if err != nil {
		return 0
	}
	return len(s.roster)
}
