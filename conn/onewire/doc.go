// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package onewire implements a bit-banged Dallas Semiconductor / Maxim
// Integrated 1-wire bus master for small microcontrollers.
//
// It owns a small, fixed-size array of buses, each tied to a single
// open-drain Pin. It performs reset/presence detection, ROM
// addressing (skip/match), the SEARCH-ROM enumeration, generic read/write
// transactions, parasite-power detection, and strong pull-up control.
//
// References
//
// Overview: https://www.maximintegrated.com/en/app-notes/index.mvp/id/1796
//
// Search algorithm: https://www.maximintegrated.com/en/app-notes/index.mvp/id/187
package onewire
