// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire

import "strconv"

// Address represents a 1-wire device's 64-bit ROM identifier in
// little-endian format: the family code is the lowest byte, the CRC8 is
// the highest byte, and the 6 byte serial number is in between.
//
// E.g. a DS18B20, family code 0x28, might have address
// 0x7a00000131825228.
type Address uint64

// Family returns the device family byte (the lowest byte of the address).
func (a Address) Family() byte {
	return byte(a)
}

// CRC returns the CRC8 byte stored in the address (the highest byte).
func (a Address) CRC() byte {
	return byte(a >> 56)
}

// String formats the address as 16 hex digits, zero padded.
func (a Address) String() string {
	s := strconv.FormatUint(uint64(a), 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return "0x" + s
}

// Bytes returns the 8 ROM bytes in wire order (family first, CRC last).
func (a Address) Bytes() [8]byte {
	var b [8]byte
	v := uint64(a)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> uint(8*i))
	}
	return b
}

// AddressFromBytes reconstructs an Address from its 8 wire-order bytes.
func AddressFromBytes(b [8]byte) Address {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << uint(8*i)
	}
	return Address(v)
}

// Device is an entry in a bus roster: an address plus the parasite-power
// status discovered so far for it.
type Device struct {
	Addr Address

	// ParasiteProbed is true once a ReadPowerSupply query has been issued
	// for this specific address (via MATCH_ROM).
	ParasiteProbed bool
	// ParasiteRequired is the result of that query; meaningful only when
	// ParasiteProbed is true.
	ParasiteRequired bool
}
