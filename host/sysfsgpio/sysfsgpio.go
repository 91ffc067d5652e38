// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sysfsgpio drives a single GPIO line through the Linux
// /sys/class/gpio/ legacy interface. It is deliberately narrow: no edge
// detection, no pull configuration, no PWM, nothing this driver's 1-wire
// bit-banging needs are absent. For a line exposed by a modern
// /dev/gpiochipN character device instead, use host/gpiochip.
package sysfsgpio

import (
	"fmt"
	"os"
	"strconv"

	"github.com/tinywire/onewire/conn/gpio"
	"github.com/tinywire/onewire/conn/pin"
)

const gpioBase = "/sys/class/gpio/"

// Pin drives one line exported by the sysfs GPIO class. It implements
// gpio.PinIO; wrap it with host/gpioadapter to get an onewire.Pin.
type Pin struct {
	number int
	root   string

	exported   bool
	fDirection *os.File
	fValue     *os.File
	state      pin.Func
}

// Open exports line number (the same number /sys/class/gpio/exportNumber
// wants) and opens its direction/value files.
func Open(number int) (*Pin, error) {
	p := &Pin{number: number, root: fmt.Sprintf("%sgpio%d/", gpioBase, number)}
	if err := p.export(); err != nil {
		return nil, err
	}
	var err error
	if p.fDirection, err = os.OpenFile(p.root+"direction", os.O_RDWR, 0); err != nil {
		p.unexport()
		return nil, err
	}
	if p.fValue, err = os.OpenFile(p.root+"value", os.O_RDWR, 0); err != nil {
		p.fDirection.Close()
		p.unexport()
		return nil, err
	}
	return p, nil
}

func (p *Pin) export() error {
	f, err := os.OpenFile(gpioBase+"export", os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(strconv.Itoa(p.number)); err != nil {
		// Already exported by a previous run is fine; a real failure shows
		// up on the direction/value opens that follow.
		if _, statErr := os.Stat(p.root); statErr != nil {
			return err
		}
	}
	p.exported = true
	return nil
}

func (p *Pin) unexport() {
	if !p.exported {
		return
	}
	if f, err := os.OpenFile(gpioBase+"unexport", os.O_WRONLY, 0); err == nil {
		f.WriteString(strconv.Itoa(p.number))
		f.Close()
	}
	p.exported = false
}

// Close releases the direction/value handles and unexports the line.
func (p *Pin) Close() error {
	if p.fValue != nil {
		p.fValue.Close()
	}
	if p.fDirection != nil {
		p.fDirection.Close()
	}
	p.unexport()
	return nil
}

func (p *Pin) String() string   { return fmt.Sprintf("sysfsgpio.Pin(%d)", p.number) }
func (p *Pin) Name() string     { return p.String() }
func (p *Pin) Number() int      { return p.number }
func (p *Pin) Function() string { return string(p.state) }

// In releases the line to high impedance. pull is accepted but ignored: the
// kernel sysfs interface exposes no pull-resistor control, and 1-wire relies
// on the bus's own pull-up (or the strong pull-up transistor) anyway.
func (p *Pin) In(pull gpio.Pull) error {
	if err := p.writeSysfs(p.fDirection, "in"); err != nil {
		return err
	}
	p.state = gpio.IN
	return nil
}

// Read samples the line level.
func (p *Pin) Read() gpio.Level {
	if _, err := p.fValue.Seek(0, 0); err != nil {
		return gpio.Low
	}
	var buf [1]byte
	if _, err := p.fValue.Read(buf[:]); err != nil {
		return gpio.Low
	}
	return buf[0] == '1'
}

// Out drives the line to l, writing the output direction first on every
// call.
func (p *Pin) Out(l gpio.Level) error {
	v := "0"
	if l {
		v = "1"
	}
	if err := p.writeSysfs(p.fDirection, "out"); err != nil {
		return err
	}
	if err := p.writeSysfs(p.fValue, v); err != nil {
		return err
	}
	if l {
		p.state = gpio.OUT_HI
	} else {
		p.state = gpio.OUT_OC
	}
	return nil
}

// writeSysfs rewinds f before writing; these pseudo-files keep their
// contents at offset 0 regardless of prior reads or writes.
func (p *Pin) writeSysfs(f *os.File, s string) error {
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err := f.WriteString(s)
	return err
}

var _ gpio.PinIO = (*Pin)(nil)
