// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tm1637test emulates a TM1637 on a pair of fake GPIO pins.
//
// The emulator decodes the bus at the edge level, the same way the silicon
// does: a start is DIO falling while CLK is high, a stop is DIO rising while
// CLK is high, and data bits are latched on CLK rising edges. The acknowledge
// is driven while the master has DIO configured as an input.
package tm1637test

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// RAMSize is the number of display registers in the chip.
const RAMSize = 6

// Chip is an emulated TM1637.
//
// The zero value is not usable, use NewChip.
type Chip struct {
	// Unplugged makes the chip ignore the bus entirely; nothing is
	// acknowledged or latched.
	Unplugged bool
	// OnChange, when set, is called after every stop condition that changed
	// the display state. It is called without the chip lock held.
	OnChange func(c *Chip)

	clk *Line
	dio *Line

	mu        sync.Mutex
	clkLevel  gpio.Level
	dioLevel  gpio.Level
	dioInput  bool
	active    bool
	bits      int
	cur       byte
	ackPhase  bool
	ack       bool
	sent      int
	nack      map[int]bool
	tx        []byte
	starts    int
	stops     int
	history   [][]byte
	fixedAddr bool
	addr      int
	ram       [RAMSize]byte
	on        bool
	pulse     byte
	dirty     bool
}

// NewChip returns an idle chip with both lines pulled up.
func NewChip() *Chip {
	c := &Chip{clkLevel: gpio.High, dioLevel: gpio.High, nack: map[int]bool{}}
	c.clk = &Line{Pin: gpiotest.Pin{N: "TM1637_CLK", Num: 0, L: gpio.High}, chip: c}
	c.dio = &Line{Pin: gpiotest.Pin{N: "TM1637_DIO", Num: 1, L: gpio.High}, chip: c, data: true}
	return c
}

// CLK returns the clock line.
func (c *Chip) CLK() *Line {
	return c.clk
}

// DIO returns the data line.
func (c *Chip) DIO() *Line {
	return c.dio
}

// Nack makes the chip withhold the acknowledge of the n-th byte received,
// counting from 0 since NewChip or the last Reset.
func (c *Chip) Nack(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nack[n] = true
}

// Reset forgets the recorded traffic and pending NACKs. Display RAM and
// control state are kept.
func (c *Chip) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nack = map[int]bool{}
	c.sent = 0
	c.starts = 0
	c.stops = 0
	c.history = nil
}

// Starts returns the number of start conditions seen.
func (c *Chip) Starts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

// Stops returns the number of stop conditions seen.
func (c *Chip) Stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

// Tx returns the bytes of every completed transaction, acknowledged or not.
func (c *Chip) Tx() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.history))
	for i, t := range c.history {
		out[i] = append([]byte{}, t...)
	}
	return out
}

// RAM returns the display registers.
func (c *Chip) RAM() [RAMSize]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ram
}

// Display returns whether the display is on and its pulse width setting,
// 0 (1/16) to 7 (14/16).
func (c *Chip) Display() (bool, byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.on, c.pulse
}

func (c *Chip) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("TM1637{on: %t, pulse: %d, ram: % x}", c.on, c.pulse, c.ram[:])
}

func (c *Chip) driveCLK(l gpio.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rising := c.clkLevel == gpio.Low && l == gpio.High
	c.clkLevel = l
	if !rising || !c.active {
		return
	}
	if c.ackPhase {
		// Ninth clock: the acknowledge is done.
		c.ackPhase = false
		c.bits = 0
		c.cur = 0
		return
	}
	if c.dioLevel {
		c.cur |= 1 << uint(c.bits)
	}
	c.bits++
	if c.bits == 8 {
		c.ackPhase = true
		c.ack = c.receive(c.cur)
	}
}

func (c *Chip) driveDIO(l gpio.Level) {
	changed := false
	c.mu.Lock()
	old := c.dioLevel
	if c.dioInput {
		old = c.released()
	}
	c.dioInput = false
	c.dioLevel = l
	if c.clkLevel && old != l {
		if !l {
			c.start()
		} else {
			changed = c.stop()
		}
	}
	hook := c.OnChange
	c.mu.Unlock()
	if changed && hook != nil {
		hook(c)
	}
}

func (c *Chip) releaseDIO() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dioInput = true
}

func (c *Chip) readDIO() gpio.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dioInput {
		return c.released()
	}
	return c.dioLevel
}

// released is the level of DIO when the master does not drive it.
func (c *Chip) released() gpio.Level {
	if c.active && c.ackPhase && c.ack {
		return gpio.Low
	}
	return gpio.High
}

func (c *Chip) start() {
	c.starts++
	c.active = true
	c.bits = 0
	c.cur = 0
	c.ackPhase = false
	c.tx = []byte{}
}

func (c *Chip) stop() bool {
	c.stops++
	if !c.active {
		return false
	}
	c.active = false
	c.ackPhase = false
	c.history = append(c.history, c.tx)
	c.tx = nil
	d := c.dirty
	c.dirty = false
	return d
}

// receive latches a complete byte and reports whether it is acknowledged.
func (c *Chip) receive(b byte) bool {
	n := c.sent
	c.sent++
	c.tx = append(c.tx, b)
	if c.Unplugged || c.nack[n] {
		return false
	}
	if len(c.tx) == 1 {
		c.command(b)
		return true
	}
	if c.tx[0]&0xC0 == 0xC0 {
		c.ram[c.addr%RAMSize] = b
		if !c.fixedAddr {
			c.addr++
		}
		c.dirty = true
	}
	return true
}

func (c *Chip) command(b byte) {
	switch b & 0xC0 {
	case 0x40:
		// Data command. Bit 2 selects fixed addressing.
		c.fixedAddr = b&0x04 != 0
	case 0x80:
		c.on = b&0x08 != 0
		c.pulse = b & 0x07
		c.dirty = true
	case 0xC0:
		c.addr = int(b & 0x07)
	}
}

// Line is one emulated bus line. It implements gpio.PinIO.
type Line struct {
	gpiotest.Pin
	chip *Chip
	data bool
}

// Out drives the line.
func (l *Line) Out(level gpio.Level) error {
	if err := l.Pin.Out(level); err != nil {
		return err
	}
	if l.data {
		l.chip.driveDIO(level)
	} else {
		l.chip.driveCLK(level)
	}
	return nil
}

// In releases the line so the chip can drive it.
func (l *Line) In(pull gpio.Pull, edge gpio.Edge) error {
	if err := l.Pin.In(pull, edge); err != nil {
		return err
	}
	if l.data {
		l.chip.releaseDIO()
	}
	return nil
}

// Read returns the level currently on the line.
func (l *Line) Read() gpio.Level {
	if l.data {
		return l.chip.readDIO()
	}
	l.Pin.Lock()
	defer l.Pin.Unlock()
	return l.Pin.L
}

var _ gpio.PinIO = &Line{}
