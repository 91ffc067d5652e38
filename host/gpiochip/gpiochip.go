// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpiochip drives a single GPIO line through the Linux
// /dev/gpiochipN character device, using the legacy GPIOHANDLE line-handle
// ioctls (GPIO_GET_LINEHANDLE_IOCTL + GPIOHANDLE_SET_LINE_VALUES_IOCTL).
// This is the modern replacement for host/sysfsgpio on kernels where the
// sysfs GPIO class is disabled or deprecated.
package gpiochip

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"

	"github.com/tinywire/onewire/conn/gpio"
	"github.com/tinywire/onewire/conn/pin"
)

func syscallClose(fd int) {
	syscall.Close(fd)
}

const (
	gpioHandleFlagInput  = 1 << 0
	gpioHandleFlagOutput = 1 << 1

	maxNameSize = 32
)

// gpiohandleRequest mirrors struct gpiohandle_request from
// <linux/gpio.h>: one line, requested once, reused for every value flip.
type gpiohandleRequest struct {
	lineOffsets   [64]uint32
	flags         uint32
	defaultValues [64]byte
	consumerLabel [maxNameSize]byte
	lines         uint32
	fd            int32
}

// gpiohandleData mirrors struct gpiohandle_data.
type gpiohandleData struct {
	values [64]byte
}

var (
	gpioGetLineHandleIoctl       = ioctl.IOWR(0xb4, 0x03, unsafe.Sizeof(gpiohandleRequest{}))
	gpiohandleGetLineValuesIoctl = ioctl.IOWR(0xb4, 0x08, unsafe.Sizeof(gpiohandleData{}))
	gpiohandleSetLineValuesIoctl = ioctl.IOWR(0xb4, 0x09, unsafe.Sizeof(gpiohandleData{}))
)

// Pin drives one offset on a /dev/gpiochipN controller. It implements
// gpio.PinIO; wrap it with host/gpioadapter to get an onewire.Pin.
//
// Every direction change re-requests the line handle: the kernel ABI fixes
// a handle's direction at request time, so switching between Out and In
// means closing and reopening it.
type Pin struct {
	chip   *os.File
	offset uint32
	number int

	lineFD int
	out    bool
	state  pin.Func
}

// Open requests offset on the controller at chipPath (e.g.
// "/dev/gpiochip0"), starting in input mode.
func Open(chipPath string, offset uint32) (*Pin, error) {
	f, err := os.OpenFile(chipPath, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	p := &Pin{chip: f, offset: offset, number: int(offset), lineFD: -1}
	if err := p.request(false); err != nil {
		f.Close()
		return nil, err
	}
	return p, nil
}

func (p *Pin) request(output bool) error {
	if p.lineFD >= 0 {
		syscallClose(p.lineFD)
		p.lineFD = -1
	}
	req := gpiohandleRequest{lines: 1}
	req.lineOffsets[0] = p.offset
	if output {
		req.flags = gpioHandleFlagOutput
	} else {
		req.flags = gpioHandleFlagInput
	}
	copy(req.consumerLabel[:], "onewire")
	if err := ioctl.Ioctl(p.chip.Fd(), gpioGetLineHandleIoctl, uintptr(unsafe.Pointer(&req))); err != nil {
		return fmt.Errorf("gpiochip: request line %d: %w", p.offset, err)
	}
	p.lineFD = int(req.fd)
	p.out = output
	return nil
}

// Close releases the line handle and the controller file.
func (p *Pin) Close() error {
	if p.lineFD >= 0 {
		syscallClose(p.lineFD)
		p.lineFD = -1
	}
	return p.chip.Close()
}

func (p *Pin) String() string   { return fmt.Sprintf("gpiochip.Pin(%d)", p.offset) }
func (p *Pin) Name() string     { return p.String() }
func (p *Pin) Number() int      { return p.number }
func (p *Pin) Function() string { return string(p.state) }

// In releases the line to input (high impedance). pull is accepted but
// ignored: the legacy GPIOHANDLE ABI exposes no pull-resistor bias, and
// 1-wire relies on the bus's own pull-up anyway.
func (p *Pin) In(pull gpio.Pull) error {
	if p.out {
		if err := p.request(false); err != nil {
			return err
		}
	}
	p.state = gpio.IN
	return nil
}

// Read samples the line level.
func (p *Pin) Read() gpio.Level {
	var data gpiohandleData
	if err := ioctl.Ioctl(uintptr(p.lineFD), gpiohandleGetLineValuesIoctl, uintptr(unsafe.Pointer(&data))); err != nil {
		return gpio.Low
	}
	return data.values[0] != 0
}

// Out drives the line to l, switching to output direction first if needed.
func (p *Pin) Out(l gpio.Level) error {
	if !p.out {
		if err := p.request(true); err != nil {
			return err
		}
	}
	var data gpiohandleData
	if l {
		data.values[0] = 1
	}
	if err := ioctl.Ioctl(uintptr(p.lineFD), gpiohandleSetLineValuesIoctl, uintptr(unsafe.Pointer(&data))); err != nil {
		return err
	}
	if l {
		p.state = gpio.OUT_HI
	} else {
		p.state = gpio.OUT_OC
	}
	return nil
}

var _ gpio.PinIO = (*Pin)(nil)
