// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// onewire-station is an operator tool for a single bit-banged 1-wire bus: it
// scans for devices, reads/writes raw scratchpad bytes, probes parasite
// power, toggles the strong pull-up, and drives the DS18x20 temperature
// scheduler for a quick one-off reading.
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/tinywire/onewire/conn/onewire"
	"github.com/tinywire/onewire/devices/dstemp"
	"github.com/tinywire/onewire/host/bitbang"
	"github.com/tinywire/onewire/host/gpioadapter"
	"github.com/tinywire/onewire/host/sysfsgpio"
)

type wallClock struct{ start time.Time }

func (w *wallClock) NowMillis() uint64 {
	return uint64(time.Since(w.start).Milliseconds())
}

func openPin(pinNumber int) (onewire.Pin, func() error, error) {
	p, err := sysfsgpio.Open(pinNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("open gpio %d: %w", pinNumber, err)
	}
	return gpioadapter.New(p), p.Close, nil
}

func out(w io.Writer, colorize bool) func(ok bool, format string, args ...interface{}) {
	return func(ok bool, format string, args ...interface{}) {
		if !colorize {
			fmt.Fprintf(w, format, args...)
			return
		}
		c := color256(ok)
		fmt.Fprint(w, c)
		fmt.Fprintf(w, format, args...)
		fmt.Fprint(w, "\033[0m")
	}
}

func color256(ok bool) string {
	if ok {
		return ansi256.Default.Block(color.NRGBA{G: 200, A: 255})
	}
	return ansi256.Default.Block(color.NRGBA{R: 200, A: 255})
}

func mainImpl() error {
	pinFlag := flag.Int("pin", -1, "sysfs GPIO number the 1-wire line is exported on")
	strictCRC := flag.Bool("strict-crc", false, "abort a scan on the first bad ROM CRC instead of dropping that device")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: onewire-station -pin N <command> [args]\n\ncommands:\n"+
			"  scan                      enumerate every device on the bus\n"+
			"  read <addr> <cmd> <n>     issue cmd, read n bytes from addr (addr=0 for SKIP_ROM)\n"+
			"  write <addr> <cmd> <hex>  issue cmd, write hex-encoded payload bytes\n"+
			"  parasite <addr>           report whether addr needs parasite power\n"+
			"  power <on|off>            engage or release the strong pull-up\n"+
			"  sense <addr> <bits>       convert and print one DS18x20 temperature\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return errors.New("missing command")
	}
	if *pinFlag < 0 {
		return errors.New("-pin is required")
	}

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	pin, closePin, err := openPin(*pinFlag)
	if err != nil {
		return err
	}
	defer closePin()

	e := onewire.NewBusEngine(onewire.Config{StrictCRC: *strictCRC, Logger: logger})
	bus, err := e.Create(pin)
	if err != nil {
		return err
	}
	defer e.Destroy(bus)

	isTerm := isatty.IsTerminal(os.Stdout.Fd())
	w := colorable.NewColorableStdout()
	paint := out(w, isTerm)

	switch args[0] {
	case "scan":
		return cmdScan(e, bus, w, paint)
	case "read":
		return cmdRead(e, bus, args[1:])
	case "write":
		return cmdWrite(e, bus, args[1:])
	case "parasite":
		return cmdParasite(e, bus, args[1:], paint)
	case "power":
		return cmdPower(e, bus, args[1:])
	case "sense":
		return cmdSense(e, bus, args[1:])
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func cmdScan(e *onewire.BusEngine, bus int, w io.Writer, paint func(bool, string, ...interface{})) error {
	n, err := e.Scan(bus)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(w, "no devices found")
		return nil
	}
	for i := 0; i < n; i++ {
		addr, _ := e.Device(bus, i)
		paint(true, "%#016x", uint64(addr))
		fmt.Fprintf(w, "  family %#02x\n", addr.Family())
	}
	return nil
}

func parseAddr(s string) (*onewire.Address, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return nil, fmt.Errorf("bad address %q: %w", s, err)
	}
	if v == 0 {
		return nil, nil
	}
	a := onewire.Address(v)
	return &a, nil
}

func parseCmd(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("bad command byte %q: %w", s, err)
	}
	return byte(v), nil
}

func cmdRead(e *onewire.BusEngine, bus int, args []string) error {
	if len(args) != 3 {
		return errors.New("read <addr> <cmd> <n>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	cmd, err := parseCmd(args[1])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("bad byte count %q: %w", args[2], err)
	}
	got, err := e.Read(bus, addr, cmd, n)
	if err != nil {
		return err
	}
	fmt.Printf("% x\n", got)
	return nil
}

func cmdWrite(e *onewire.BusEngine, bus int, args []string) error {
	if len(args) != 3 {
		return errors.New("write <addr> <cmd> <hex>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	cmd, err := parseCmd(args[1])
	if err != nil {
		return err
	}
	payload, err := hex.DecodeString(args[2])
	if err != nil {
		return fmt.Errorf("bad payload %q: %w", args[2], err)
	}
	return e.Write(bus, addr, cmd, payload)
}

func cmdParasite(e *onewire.BusEngine, bus int, args []string, paint func(bool, string, ...interface{})) error {
	if len(args) != 1 {
		return errors.New("parasite <addr>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	required, err := e.Parasite(bus, addr)
	if err != nil && !errors.Is(err, onewire.ErrParasitePower) {
		return err
	}
	paint(!required, "parasite power: %v\n", required)
	return nil
}

func cmdPower(e *onewire.BusEngine, bus int, args []string) error {
	if len(args) != 1 {
		return errors.New("power <on|off>")
	}
	switch args[0] {
	case "on":
		return e.Power(bus, true)
	case "off":
		return e.Power(bus, false)
	default:
		return fmt.Errorf("power: %q must be on or off", args[0])
	}
}

func cmdSense(e *onewire.BusEngine, bus int, args []string) error {
	if len(args) != 2 {
		return errors.New("sense <addr> <bits>")
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	if addr == nil {
		return errors.New("sense needs a concrete device address")
	}
	bits, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad resolution %q: %w", args[1], err)
	}

	sensor, err := dstemp.New(e, bus, addr, bits)
	if err != nil {
		return err
	}
	sch := dstemp.NewScheduler(e, &wallClock{start: time.Now()})

	var done bool
	var celsius float64
	var sampleErr error
	if err := sch.RequestRead(sensor, func(c float64, err error) {
		celsius, sampleErr, done = c, err, true
	}); err != nil {
		return err
	}
	for !done {
		sch.Process()
		if !done {
			bitbang.Spin(time.Millisecond)
		}
	}
	if sampleErr != nil {
		return sampleErr
	}
	fmt.Printf("%.4f C\n", celsius)
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "onewire-station: %s.\n", err)
		os.Exit(1)
	}
}
