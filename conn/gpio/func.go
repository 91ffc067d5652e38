// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpio

import "github.com/tinywire/onewire/conn/pin"

// Well known pin functionality. A 1-wire bus pin only ever uses the open
// collector/drain variants since the bus is wired-AND with an external
// pull-up.
const (
	IN     pin.Func = "IN"      // Input, released high via pull-up
	OUT_OC pin.Func = "OUT_OPEN" // Output, open collector/drain (drive low)
	OUT_HI pin.Func = "Out/High" // Strong pull-up: actively drive high
)
