// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package onewire

// CalcCRC computes the Dallas/Maxim CRC8 (polynomial x^8+x^5+x^4+1,
// reflected, initial register 0) over b.
func CalcCRC(b []byte) byte {
	var crc byte
	for _, v := range b {
		crc ^= v
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0x8c
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// CheckCRC reports whether the last byte of b is the correct CRC8 of the
// bytes preceding it. It returns false for an empty or nil slice.
func CheckCRC(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	return CalcCRC(b[:len(b)-1]) == b[len(b)-1]
}
