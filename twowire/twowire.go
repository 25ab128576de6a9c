// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package twowire bit-bangs the two-wire serial interface used by the Titan
// Micro LED controllers (TM1637, TM1638 in two-wire mode).
//
// The bus looks like I²C but is not: there is no device address, bytes are
// sent least significant bit first, and the chip acknowledges every byte by
// pulling DIO low during a ninth clock pulse.
//
// # Timing
//
// The chip accepts at most 250kHz, so the default half period is 2µs. Every
// call blocks for the whole transfer. Nothing in this package disables
// preemption; if the goroutine is descheduled in the middle of a byte the
// chip may latch garbage. Callers that care should lock the goroutine to a
// dedicated core or accept the occasional failed refresh.
//
// # Datasheet
//
// https://www.mcu.ee/download/TM1637-V2.4-EN.pdf
package twowire

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// DefaultHalfPeriod keeps the effective clock at or below 250kHz.
const DefaultHalfPeriod = 2 * time.Microsecond

// ErrNoAck is returned when the chip did not pull DIO low after a byte.
var ErrNoAck = errors.New("twowire: no acknowledge")

// Opts contains the bus timing.
type Opts struct {
	// HalfPeriod is the delay between clock edges.
	HalfPeriod time.Duration
	// Timer provides the delays. Init is called by New.
	Timer Timer
}

// DefaultOpts is the recommended timing.
var DefaultOpts = Opts{
	HalfPeriod: DefaultHalfPeriod,
	Timer:      HostTimer,
}

// Bus is a bit-banged two-wire bus on a pair of GPIO lines.
//
// A Bus is not safe for concurrent use.
type Bus struct {
	clk   gpio.PinOut
	dio   gpio.PinIO
	half  time.Duration
	timer Timer
}

// New returns a Bus on the clk and dio lines.
//
// The pins are not touched until Idle or Start is called.
func New(clk gpio.PinOut, dio gpio.PinIO, opts *Opts) (*Bus, error) {
	if clk == nil || dio == nil || clk == gpio.INVALID || dio == gpio.INVALID {
		return nil, errors.New("twowire: invalid pin")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	b := &Bus{clk: clk, dio: dio, half: opts.HalfPeriod, timer: opts.Timer}
	if b.half <= 0 {
		b.half = DefaultHalfPeriod
	}
	if b.timer == nil {
		b.timer = HostTimer
	}
	if err := b.timer.Init(); err != nil {
		return nil, fmt.Errorf("twowire: %w", err)
	}
	return b, nil
}

func (b *Bus) String() string {
	return fmt.Sprintf("twowire{clk: %s, dio: %s}", b.clk, b.dio)
}

// Idle drives both lines high as push-pull outputs.
//
// periph outputs carry no pull setting, so the DIO pull-up is requested once
// here as an input; it is kept while DIO is an output and while it is
// released for the acknowledge.
func (b *Bus) Idle() error {
	s := seq{err: b.dio.In(gpio.PullUp, gpio.NoEdge)}
	s.out(b.dio, gpio.High)
	s.out(b.clk, gpio.High)
	return s.wrap()
}

// Start issues the start condition: DIO falls while CLK is high.
//
// It must always be followed by Stop, even if a Send in between failed.
func (b *Bus) Start() error {
	var s seq
	s.out(b.clk, gpio.High)
	s.out(b.dio, gpio.High)
	b.wait(1)
	s.out(b.dio, gpio.Low)
	return s.wrap()
}

// Stop issues the stop condition: DIO rises while CLK is high. The bus is
// left idle.
func (b *Bus) Stop() error {
	var s seq
	s.out(b.clk, gpio.Low)
	s.out(b.dio, gpio.Low)
	b.wait(1)
	s.out(b.clk, gpio.High)
	b.wait(1)
	s.out(b.dio, gpio.High)
	b.wait(2)
	return s.wrap()
}

// Send clocks out v, least significant bit first, then samples the
// acknowledge bit.
//
// It returns ErrNoAck if the chip did not acknowledge.
func (b *Bus) Send(v byte) error {
	var s seq
	for i := 0; i < 8; i++ {
		s.out(b.clk, gpio.Low)
		s.out(b.dio, gpio.Level(v&1 != 0))
		v >>= 1
		b.wait(1)
		s.out(b.clk, gpio.High)
		b.wait(1)
	}
	s.out(b.clk, gpio.Low)
	b.wait(1)
	// The chip holds DIO low for the ninth clock.
	if s.err == nil {
		s.err = b.dio.In(gpio.PullUp, gpio.NoEdge)
	}
	ack := s.err == nil && b.dio.Read() == gpio.Low
	s.out(b.dio, gpio.Low)
	s.out(b.clk, gpio.High)
	b.wait(1)
	if err := s.wrap(); err != nil {
		return err
	}
	if !ack {
		return ErrNoAck
	}
	return nil
}

// Tx runs one complete transaction: Start, every byte of data, Stop.
//
// Sending stops at the first byte that fails. Stop is always issued. It
// returns the number of acknowledged bytes.
func (b *Bus) Tx(data ...byte) (int, error) {
	if err := b.Start(); err != nil {
		// Leave the lines idle anyway.
		_ = b.Stop()
		return 0, err
	}
	n := 0
	var err error
	for _, v := range data {
		if err = b.Send(v); err != nil {
			break
		}
		n++
	}
	if serr := b.Stop(); err == nil {
		err = serr
	}
	return n, err
}

func (b *Bus) wait(halves int) {
	b.timer.Delay(time.Duration(halves) * b.half)
}

// seq runs a sequence of pin writes and keeps the first error. Later writes
// are skipped once one failed.
type seq struct {
	err error
}

func (s *seq) out(p gpio.PinOut, l gpio.Level) {
	if s.err == nil {
		s.err = p.Out(l)
	}
}

func (s *seq) wrap() error {
	if s.err != nil {
		return fmt.Errorf("twowire: %w", s.err)
	}
	return nil
}

var _ fmt.Stringer = &Bus{}
