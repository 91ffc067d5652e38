// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire

// Scan enumerates every device on bus via the Dallas/Maxim SEARCH_ROM
// (0xF0) binary-tree algorithm and replaces the bus's roster atomically:
// on success Scan returns the device count and len(roster) == count; on
// failure the previous roster is left untouched.
//
// The roster is capped at MaxRoster devices: on a bus with more devices
// than that the search still runs to completion, but devices found after
// the cap is reached are not enrolled or counted.
func (e *BusEngine) Scan(bus int) (int, error) {
	s, err := e.guard(bus)
	if err != nil {
		return 0, err
	}

	var newRoster []Device
	lastDiscrepancy := 0
	var romBits [64]bool

	for {
		present, err := e.reset(s.pin)
		if err != nil {
			return 0, err
		}
		if !present {
			// No devices answered at all; an empty bus is not an error.
			break
		}
		if err := e.writeByte(s.pin, SearchROM); err != nil {
			return 0, err
		}

		discrepancy := 0
		for i := 1; i <= 64; i++ {
			a, err := e.readBit(s.pin)
			if err != nil {
				return 0, err
			}
			b, err := e.readBit(s.pin)
			if err != nil {
				return 0, err
			}

			var chosen bool
			switch {
			case a && b:
				// No slave answered either polarity; search was disturbed.
				return 0, ErrDataReadError
			case a && !b:
				// Every remaining candidate agrees on 1 (first slot idle,
				// complement slot pulled low).
				chosen = true
			case !a && b:
				// Every remaining candidate agrees on 0.
				chosen = false
			default:
				// Both 0: a real discrepancy, at least two ROMs disagree here.
				switch {
				case i == lastDiscrepancy:
					chosen = true
				case i > lastDiscrepancy:
					chosen = false
					discrepancy = i
				default:
					chosen = romBits[i-1]
					if !chosen {
						discrepancy = i
					}
				}
			}

			romBits[i-1] = chosen
			if err := e.writeBit(s.pin, chosen); err != nil {
				return 0, err
			}
		}

		var rom [8]byte
		for i := 0; i < 64; i++ {
			if romBits[i] {
				rom[i/8] |= 1 << uint(i%8)
			}
		}

		if !CheckCRC(rom[:]) {
			e.log().Debug("onewire: search dropped device with bad rom crc", "bus", bus)
			if e.cfg.StrictCRC {
				return 0, ErrBadCRC
			}
		} else if len(newRoster) < MaxRoster {
			newRoster = append(newRoster, Device{Addr: AddressFromBytes(rom)})
		}

		lastDiscrepancy = discrepancy
		if lastDiscrepancy == 0 {
			// No bit was ever forced to 0 at a fresh branch: every device
			// has been found.
			break
		}
	}

	s.roster = newRoster
	e.log().Debug("onewire: scan complete", "bus", bus, "devices", len(newRoster))
	return len(newRoster), nil
}
