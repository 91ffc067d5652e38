// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dstemp_test

import (
	"testing"

	"github.com/tinywire/onewire/conn/onewire"
	"github.com/tinywire/onewire/conn/onewire/onewiretest"
	"github.com/tinywire/onewire/devices/dstemp"
)

// fakeClock is a onewire.Clock the test advances explicitly, since ticks
// must be reproducible without a wall-clock sleep.
type fakeClock struct{ ms uint64 }

func (c *fakeClock) NowMillis() uint64 { return c.ms }

func newDevice(addr uint64, scratch [9]byte) *onewiretest.Device {
	d := &onewiretest.Device{Addr: onewire.Address(addr), Scratchpad: scratch}
	d.RefreshCRC()
	return d
}

func TestSingleDeviceConversion(t *testing.T) {
	// E1: DS18B20, raw = 0x0550 = 1360, 12-bit resolution.
	dev := newDevice(0x3d52823101000028, [9]byte{0x50, 0x05, 0x4b, 0x46, 0x7f, 0xff, 0x0c, 0x10, 0})

	e := onewire.NewBusEngine(onewire.Config{})
	w := &onewiretest.FakeWire{Devices: []*onewiretest.Device{dev}}
	bus, _ := e.Create(w)

	n, err := e.Scan(bus)
	if err != nil || n != 1 {
		t.Fatalf("scan: %d devices, err %v", n, err)
	}

	s, err := dstemp.New(e, bus, &dev.Addr, 12)
	if err != nil {
		t.Fatal(err)
	}
	if s.Resolution() != 12 {
		t.Fatalf("resolution = %d, want 12", s.Resolution())
	}

	clock := &fakeClock{}
	sch := dstemp.NewScheduler(e, clock)

	var gotTemp float64
	var gotErr error
	called := false
	if err := sch.RequestRead(s, func(c float64, err error) {
		called = true
		gotTemp, gotErr = c, err
	}); err != nil {
		t.Fatal(err)
	}

	clock.ms = 700
	sch.Process()
	if called {
		t.Fatal("callback fired before the 750ms deadline")
	}

	clock.ms = 751
	sch.Process()
	if !called {
		t.Fatal("callback did not fire after the deadline")
	}
	if gotErr != nil {
		t.Fatalf("unexpected error: %v", gotErr)
	}
	want := (1360.0 + 8) / 16.0
	if gotTemp != want {
		t.Fatalf("got %v, want %v", gotTemp, want)
	}
	if dev.ConvertRequested != 1 {
		t.Fatalf("convert requested %d times, want 1", dev.ConvertRequested)
	}
}

func TestCRCFailureDeliveredToCallback(t *testing.T) {
	dev := newDevice(0x3d52823101000028, [9]byte{0x50, 0x05, 0x4b, 0x46, 0x7f, 0xff, 0x0c, 0x10, 0})

	e := onewire.NewBusEngine(onewire.Config{})
	w := &onewiretest.FakeWire{Devices: []*onewiretest.Device{dev}}
	bus, _ := e.Create(w)

	// Construct against a good scratchpad; corrupt it only after New has
	// validated the device responds, so the failure surfaces from
	// Process/the callback instead of from New itself.
	s, err := dstemp.New(e, bus, &dev.Addr, 12)
	if err != nil {
		t.Fatal(err)
	}
	dev.Scratchpad[8] ^= 0xff

	clock := &fakeClock{}
	sch := dstemp.NewScheduler(e, clock)

	var gotErr error
	if err := sch.RequestRead(s, func(_ float64, err error) { gotErr = err }); err != nil {
		t.Fatal(err)
	}
	clock.ms = 751
	sch.Process()
	if gotErr != onewire.ErrBadCRC {
		t.Fatalf("got %v, want ErrBadCRC", gotErr)
	}
}

func TestParasiteDeviceEngagesStrongPullup(t *testing.T) {
	dev := newDevice(0x3d52823101000028, [9]byte{0x50, 0x05, 0x4b, 0x46, 0x7f, 0xff, 0x0c, 0x10, 0})
	dev.Parasite = true

	e := onewire.NewBusEngine(onewire.Config{})
	w := &onewiretest.FakeWire{Devices: []*onewiretest.Device{dev}}
	bus, _ := e.Create(w)
	e.Scan(bus)

	s, err := dstemp.New(e, bus, &dev.Addr, 9)
	if err != nil {
		t.Fatal(err)
	}
	clock := &fakeClock{}
	sch := dstemp.NewScheduler(e, clock)

	if err := sch.RequestRead(s, func(float64, error) {}); err != nil {
		t.Fatal(err)
	}
	// While the conversion is in flight the bus must be strong-pulled, so
	// ordinary traffic is refused.
	if _, err := e.Read(bus, &dev.Addr, onewire.ReadScratchpad, 9); err != onewire.ErrBusPowered {
		t.Fatalf("expected ErrBusPowered mid-conversion, got %v", err)
	}

	clock.ms = 95
	sch.Process()
	// Process must release the pull-up before completing, so normal
	// traffic works again right after.
	if _, err := e.Read(bus, &dev.Addr, onewire.ReadScratchpad, 9); err != nil {
		t.Fatalf("expected traffic to resume after conversion, got %v", err)
	}
}

func TestSlotExhaustion(t *testing.T) {
	e := onewire.NewBusEngine(onewire.Config{})
	clock := &fakeClock{}
	sch := dstemp.NewScheduler(e, clock)

	// One bus, many devices: MaxInflight is a scheduler-wide limit, not a
	// per-bus one, so they don't need separate buses.
	var devs []*onewiretest.Device
	for i := 0; i < dstemp.MaxInflight+1; i++ {
		devs = append(devs, newDevice(0x2800000000000000|uint64(i)<<8, [9]byte{0, 0, 0, 0, 0x7f, 0xff, 0, 0, 0}))
	}
	w := &onewiretest.FakeWire{Devices: devs}
	bus, _ := e.Create(w)

	var sensors []*dstemp.Sensor
	for _, dev := range devs {
		s, err := dstemp.New(e, bus, &dev.Addr, 9)
		if err != nil {
			t.Fatal(err)
		}
		sensors = append(sensors, s)
	}

	for i := 0; i < dstemp.MaxInflight; i++ {
		if err := sch.RequestRead(sensors[i], func(float64, error) {}); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if err := sch.RequestRead(sensors[dstemp.MaxInflight], func(float64, error) {}); err != dstemp.ErrNoSlots {
		t.Fatalf("expected ErrNoSlots, got %v", err)
	}
}
