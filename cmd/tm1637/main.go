// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// tm1637 prints text on a TM1637 4 digit LED display.
//
//	tm1637 -clk GPIO5 -dio GPIO4 -right 12.5
//	tm1637 -emulate -clock
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/jonboulle/clockwork"
	"gopkg.in/natefinch/lumberjack.v2"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/tm16xx/clockface"
	"github.com/GermanBionicSystems/tm16xx/rpiopin"
	"github.com/GermanBionicSystems/tm16xx/segimage"
	"github.com/GermanBionicSystems/tm16xx/segterm"
	"github.com/GermanBionicSystems/tm16xx/tm1637"
	"github.com/GermanBionicSystems/tm16xx/tm1637/tm1637test"
)

func newLogger(path string, v int) (logr.Logger, io.Closer) {
	var w io.Writer = os.Stderr
	var c io.Closer = io.NopCloser(nil)
	if path != "" {
		lj := &lumberjack.Logger{Filename: path, MaxSize: 1, MaxBackups: 3}
		w, c = lj, lj
	}
	stdr.SetVerbosity(v)
	return stdr.New(log.New(w, "", log.LstdFlags|log.Lmicroseconds)), c
}

// rpioPin resolves "GPIO17" or "17" to a go-rpio backed pin.
func rpioPin(name string) (gpio.PinIO, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "GPIO"))
	if err != nil {
		return nil, fmt.Errorf("invalid pin %q", name)
	}
	return rpiopin.New(n), nil
}

func hostPin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("invalid pin %q", name)
	}
	return p, nil
}

func mainImpl() error {
	clkName := flag.String("clk", "GPIO5", "CLK pin")
	dioName := flag.String("dio", "GPIO4", "DIO pin")
	useRPIO := flag.Bool("rpio", false, "drive the pins through /dev/gpiomem with go-rpio")
	emulate := flag.Bool("emulate", false, "draw an emulated display on the terminal instead")
	brightness := flag.Uint("b", tm1637.DefaultBrightness, "brightness, 0 (off) to 8")
	right := flag.Bool("right", false, "align right")
	clearDisplay := flag.Bool("clear", false, "clear the display")
	clock := flag.Bool("clock", false, "show the time until interrupted")
	png := flag.String("png", "", "save the displayed digits to a PNG file")
	logPath := flag.String("log", "", "log to this file instead of stderr, rotated")
	verbose := flag.Int("v", 0, "log verbosity")
	flag.Parse()

	logger, closer := newLogger(*logPath, *verbose)
	defer closer.Close()

	var clk, dio gpio.PinIO
	var term *segterm.Dev
	switch {
	case *emulate:
		chip := tm1637test.NewChip()
		term = segterm.New(&segterm.Opts{})
		chip.OnChange = func(c *tm1637test.Chip) {
			on, pulse := c.Display()
			level := byte(0)
			if on {
				level = pulse + 1
			}
			ram := c.RAM()
			_ = term.SetBrightness(level)
			_, _ = term.Write(ram[:tm1637.NumDigits])
		}
		clk, dio = chip.CLK(), chip.DIO()
	case *useRPIO:
		if err := rpiopin.Open(); err != nil {
			return err
		}
		defer rpiopin.Close()
		var err error
		if clk, err = rpioPin(*clkName); err != nil {
			return err
		}
		if dio, err = rpioPin(*dioName); err != nil {
			return err
		}
	default:
		if _, err := host.Init(); err != nil {
			return err
		}
		var err error
		if clk, err = hostPin(*clkName); err != nil {
			return err
		}
		if dio, err = hostPin(*dioName); err != nil {
			return err
		}
	}

	opts := tm1637.DefaultOpts
	opts.Brightness = byte(*brightness)
	opts.Logger = logger
	r := tm1637.NewRegistry(&opts)
	if err := r.Init(0, dio, clk); err != nil {
		return err
	}
	dev, err := r.Dev(0)
	if err != nil {
		return err
	}
	logger.V(1).Info("display ready", "dev", dev.String())

	align := tm1637.AlignLeft
	if *right {
		align = tm1637.AlignRight
	}
	switch {
	case *clock:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = clockface.Run(ctx, clockwork.NewRealClock(), dev, &clockface.Opts{
			Layout:   clockface.DefaultOpts.Layout,
			Interval: clockface.DefaultOpts.Interval,
			Blink:    true,
			Align:    align,
			Logger:   logger,
		})
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	case *clearDisplay:
		err = r.Clear(0)
	case flag.NArg() != 0:
		err = r.Print(0, align, strings.Join(flag.Args(), " "))
	}
	if err != nil {
		return err
	}
	if *png != "" {
		segs := dev.Segments()
		if err := segimage.SavePNG(*png, segs[:], &segimage.Opts{Caption: dev.String()}); err != nil {
			return err
		}
	}
	if term != nil {
		return term.Halt()
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "tm1637: %s.\n", err)
		os.Exit(1)
	}
}
