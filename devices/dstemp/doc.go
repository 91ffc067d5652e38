// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dstemp runs non-blocking temperature conversions on DS18x20-family
// 1-wire sensors (DS18S20, DS18B20, DS1822, MAX31826) on top of
// github.com/tinywire/onewire/conn/onewire.
//
// Conversions never block: RequestRead arms a deadline and returns
// immediately; the host's tick loop calls Process, which completes any
// conversion whose deadline has passed and invokes its callback exactly
// once.
package dstemp
