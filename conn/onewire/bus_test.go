// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire_test

import (
	"bytes"
	"testing"

	"github.com/tinywire/onewire/conn/onewire"
	"github.com/tinywire/onewire/conn/onewire/onewiretest"
)

// newDevice builds a simulated device at addr with a zeroed, CRC-valid
// scratchpad. addr need not itself carry a valid ROM CRC8 unless the
// test also calls Scan (Write/Read/Parasite address by MATCH_ROM
// directly and never check the ROM CRC).
func newDevice(addr uint64) *onewiretest.Device {
	d := &onewiretest.Device{Addr: onewire.Address(addr)}
	d.RefreshCRC()
	return d
}

func TestCreateDestroy(t *testing.T) {
	e := onewire.NewBusEngine(onewire.Config{})
	w := &onewiretest.FakeWire{}
	bus, err := e.Create(w)
	if err != nil {
		t.Fatal(err)
	}
	if bus < 0 || bus >= onewire.BusMax {
		t.Fatalf("bad bus id %d", bus)
	}
	if err := e.Destroy(bus); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Read(bus, nil, onewire.ReadScratchpad, 1); !err.(onewire.InvalidBusError).InvalidBus() {
		t.Fatalf("expected ErrInvalidBus, got %v", err)
	}
}

func TestCreateBusFull(t *testing.T) {
	e := onewire.NewBusEngine(onewire.Config{})
	for i := 0; i < onewire.BusMax; i++ {
		if _, err := e.Create(&onewiretest.FakeWire{}); err != nil {
			t.Fatalf("bus %d: %v", i, err)
		}
	}
	if _, err := e.Create(&onewiretest.FakeWire{}); err != onewire.ErrBusFull {
		t.Fatalf("expected ErrBusFull, got %v", err)
	}
}

func TestResetNoDevices(t *testing.T) {
	e := onewire.NewBusEngine(onewire.Config{})
	bus, _ := e.Create(&onewiretest.FakeWire{})
	if _, err := e.Read(bus, nil, onewire.ReadScratchpad, 9); err != onewire.ErrResetFailed {
		t.Fatalf("expected ErrResetFailed on an empty bus, got %v", err)
	}
}

func TestReadScratchpadRoundTrip(t *testing.T) {
	dev := newDevice(0x2800000131825228)
	dev.Scratchpad = [9]byte{0x50, 0x05, 0x4b, 0x46, 0x7f, 0xff, 0x0c, 0x10, 0}
	dev.RefreshCRC()

	e := onewire.NewBusEngine(onewire.Config{})
	w := &onewiretest.FakeWire{Devices: []*onewiretest.Device{dev}}
	bus, _ := e.Create(w)

	got, err := e.Read(bus, &dev.Addr, onewire.ReadScratchpad, 9)
	if err != nil {
		t.Fatal(err)
	}
	if !onewire.CheckCRC(got) {
		t.Fatalf("scratchpad failed CRC check: % x", got)
	}
	if !bytes.Equal(got, dev.Scratchpad[:]) {
		t.Fatalf("got % x, want % x", got, dev.Scratchpad)
	}
}

func TestWriteScratchpad(t *testing.T) {
	dev := newDevice(0x2800000131825228)
	dev.RefreshCRC()

	e := onewire.NewBusEngine(onewire.Config{})
	w := &onewiretest.FakeWire{Devices: []*onewiretest.Device{dev}}
	bus, _ := e.Create(w)

	if err := e.Write(bus, &dev.Addr, onewire.WriteScratchpad, []byte{0x4b, 0x46, 0x7f}); err != nil {
		t.Fatal(err)
	}
	if dev.Scratchpad[2] != 0x4b || dev.Scratchpad[3] != 0x46 || dev.Scratchpad[4] != 0x7f {
		t.Fatalf("scratchpad not updated: % x", dev.Scratchpad)
	}
}

func TestParasiteCachedAfterFirstProbe(t *testing.T) {
	dev := newDevice(0x2800000131825228)
	dev.Parasite = true

	e := onewire.NewBusEngine(onewire.Config{})
	w := &onewiretest.FakeWire{Devices: []*onewiretest.Device{dev}}
	bus, _ := e.Create(w)

	if _, err := e.Parasite(bus, &dev.Addr); err != onewire.ErrParasitePower {
		t.Fatalf("expected ErrParasitePower, got %v", err)
	}
	// Second call must not issue another bus transaction; removing the
	// device from the wire would make a fresh probe return a wrong result.
	w.Devices = nil
	if _, err := e.Parasite(bus, &dev.Addr); err != onewire.ErrParasitePower {
		t.Fatalf("expected cached ErrParasitePower, got %v", err)
	}
}

func TestStrongPullupExclusivity(t *testing.T) {
	dev := newDevice(0x2800000131825228)
	e := onewire.NewBusEngine(onewire.Config{})
	w := &onewiretest.FakeWire{Devices: []*onewiretest.Device{dev}}
	bus, _ := e.Create(w)

	if err := e.Power(bus, true); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Read(bus, &dev.Addr, onewire.ReadScratchpad, 9); err != onewire.ErrBusPowered {
		t.Fatalf("expected ErrBusPowered while strong-pulled, got %v", err)
	}
	if err := e.Power(bus, true); err != onewire.ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest re-engaging, got %v", err)
	}
	if err := e.Power(bus, false); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Read(bus, &dev.Addr, onewire.ReadScratchpad, 9); err != nil {
		t.Fatalf("expected traffic to resume after release, got %v", err)
	}
}
