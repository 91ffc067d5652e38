// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire_test

import (
	"testing"

	"github.com/tinywire/onewire/conn/onewire"
	"github.com/tinywire/onewire/conn/onewire/onewiretest"
)

func TestScanEmptyBus(t *testing.T) {
	e := onewire.NewBusEngine(onewire.Config{})
	bus, _ := e.Create(&onewiretest.FakeWire{})
	n, err := e.Scan(bus)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("got %d devices on an empty bus", n)
	}
}

func TestScanSingleDevice(t *testing.T) {
	dev := newDevice(0x3d52823101000028) // valid ROM CRC8
	e := onewire.NewBusEngine(onewire.Config{})
	w := &onewiretest.FakeWire{Devices: []*onewiretest.Device{dev}}
	bus, _ := e.Create(w)

	n, err := e.Scan(bus)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("got %d devices, want 1", n)
	}
	got, ok := e.Device(bus, 0)
	if !ok || got != dev.Addr {
		t.Fatalf("got %v, want %v", got, dev.Addr)
	}
}

func TestScanFindsEveryDevice(t *testing.T) {
	addrs := []uint64{
		0x3d52823101000028, // valid ROM CRC8 for each of these four
		0xdd63823101000028,
		0xee56341200000010,
		0x87ffeeddccbbaa22,
	}
	var devs []*onewiretest.Device
	for _, a := range addrs {
		devs = append(devs, newDevice(a))
	}

	e := onewire.NewBusEngine(onewire.Config{})
	w := &onewiretest.FakeWire{Devices: devs}
	bus, _ := e.Create(w)

	n, err := e.Scan(bus)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(addrs) {
		t.Fatalf("got %d devices, want %d", n, len(addrs))
	}

	found := map[onewire.Address]bool{}
	for i := 0; i < n; i++ {
		a, _ := e.Device(bus, i)
		found[a] = true
	}
	for _, a := range addrs {
		if !found[onewire.Address(a)] {
			t.Errorf("missing address %#x from scan results", a)
		}
	}
}

func TestScanDeterministic(t *testing.T) {
	addrs := []uint64{0x3d52823101000028, 0xdd63823101000028, 0xee56341200000010}
	var devs []*onewiretest.Device
	for _, a := range addrs {
		devs = append(devs, newDevice(a))
	}

	e := onewire.NewBusEngine(onewire.Config{})
	w := &onewiretest.FakeWire{Devices: devs}
	bus, _ := e.Create(w)

	n1, err := e.Scan(bus)
	if err != nil {
		t.Fatal(err)
	}
	if n1 != len(addrs) {
		t.Fatalf("got %d devices, want %d", n1, len(addrs))
	}
	var first []onewire.Address
	for i := 0; i < n1; i++ {
		a, _ := e.Device(bus, i)
		first = append(first, a)
	}

	n2, err := e.Scan(bus)
	if err != nil {
		t.Fatal(err)
	}
	if n2 != n1 {
		t.Fatalf("scan counts differ across runs: %d != %d", n1, n2)
	}
	for i := 0; i < n2; i++ {
		a, _ := e.Device(bus, i)
		if a != first[i] {
			t.Fatalf("scan order differs at %d: %v != %v", i, a, first[i])
		}
	}
}

func TestScanBadROMCRCDroppedByDefault(t *testing.T) {
	dev := newDevice(0x3d52823101000028)
	dev.Addr ^= 1 << 56 // corrupt the stored CRC byte

	e := onewire.NewBusEngine(onewire.Config{})
	w := &onewiretest.FakeWire{Devices: []*onewiretest.Device{dev}}
	bus, _ := e.Create(w)

	n, err := e.Scan(bus)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("got %d devices, want the bad-crc device dropped", n)
	}
}

func TestScanBadROMCRCStrict(t *testing.T) {
	dev := newDevice(0x3d52823101000028)
	dev.Addr ^= 1 << 56

	e := onewire.NewBusEngine(onewire.Config{StrictCRC: true})
	w := &onewiretest.FakeWire{Devices: []*onewiretest.Device{dev}}
	bus, _ := e.Create(w)

	if _, err := e.Scan(bus); err != onewire.ErrBadCRC {
		t.Fatalf("expected ErrBadCRC, got %v", err)
	}
}
