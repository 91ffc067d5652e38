// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dstemp

import (
	"sort"

	"github.com/tinywire/onewire/conn/onewire"
)

// MaxInflight bounds the number of conversions a Scheduler tracks at
// once, so the table can live in a fixed-size backing array on
// constrained targets.
const MaxInflight = 16

// Callback receives the decoded temperature in Celsius, or an error
// (onewire.ErrBadCRC, or whatever the scratchpad read returned) with the
// temperature left at zero. It is invoked exactly once per RequestRead.
type Callback func(celsius float64, err error)

type pendingConversion struct {
	sensor        *Sensor
	deadline      uint64
	engagedPullup bool
	callback      Callback
}

// Scheduler runs Convert-T conversions to completion without blocking the
// caller. It owns a fixed table of MaxInflight slots.
type Scheduler struct {
	bus   *onewire.BusEngine
	clock onewire.Clock

	slots [MaxInflight]*pendingConversion
}

// NewScheduler creates a Scheduler driving bus, using clock for deadlines.
func NewScheduler(bus *onewire.BusEngine, clock onewire.Clock) *Scheduler {
	return &Scheduler{bus: bus, clock: clock}
}

// RequestRead arms a Convert-T conversion on sensor and returns
// immediately. callback fires from a future Process call once the
// device-specific conversion delay has elapsed.
func (sch *Scheduler) RequestRead(sensor *Sensor, callback Callback) error {
	if sensor.busy {
		return onewire.ErrInvalidRequest
	}
	slot := -1
	for i, p := range sch.slots {
		if p == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		return ErrNoSlots
	}

	if err := sch.bus.Write(sensor.busID, sensor.addr, onewire.ConvertT, nil); err != nil {
		return err
	}

	engagedPullup := false
	if _, err := sch.bus.Parasite(sensor.busID, sensor.addr); err == onewire.ErrParasitePower {
		if err := sch.bus.Power(sensor.busID, true); err != nil {
			return err
		}
		engagedPullup = true
	}

	sensor.busy = true
	sch.slots[slot] = &pendingConversion{
		sensor:        sensor,
		deadline:      sch.clock.NowMillis() + uint64(sensor.conversionDelay().Milliseconds()),
		engagedPullup: engagedPullup,
		callback:      callback,
	}
	return nil
}

// Process completes every slot whose deadline has passed, in deadline
// order (ties broken by slot index), and invokes each callback exactly
// once before releasing the slot.
func (sch *Scheduler) Process() {
	now := sch.clock.NowMillis()

	var ready []int
	for i, p := range sch.slots {
		if p != nil && now >= p.deadline {
			ready = append(ready, i)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool {
		return sch.slots[ready[i]].deadline < sch.slots[ready[j]].deadline
	})

	for _, i := range ready {
		p := sch.slots[i]
		sch.slots[i] = nil
		sch.complete(p)
	}
}

func (sch *Scheduler) complete(p *pendingConversion) {
	defer func() { p.sensor.busy = false }()

	if p.engagedPullup {
		if err := sch.bus.Power(p.sensor.busID, false); err != nil {
			p.callback(0, err)
			return
		}
	}

	spad, err := sch.bus.Read(p.sensor.busID, p.sensor.addr, onewire.ReadScratchpad, 9)
	if err != nil {
		p.callback(0, err)
		return
	}
	if !onewire.CheckCRC(spad) {
		p.callback(0, onewire.ErrBadCRC)
		return
	}

	p.callback(decode(p.sensor.family, spad), nil)
}

// decode converts a 9-byte scratchpad to a Celsius reading. DS18S20 uses
// its native 0.5C count-remain/count-per-c algorithm (Maxim app note 26);
// every other supported family uses the blanket (raw+8)/16.0 formula.
func decode(family byte, spad []byte) float64 {
	raw := int16(uint16(spad[0]) | uint16(spad[1])<<8)
	if family == FamilyDS18S20 {
		countRemain := int(spad[6])
		countPerC := int(spad[7])
		tempRead := int(raw >> 1)
		return float64(tempRead) - 0.25 + float64(countPerC-countRemain)/float64(countPerC)
	}
	return (float64(raw) + 8) / 16.0
}
