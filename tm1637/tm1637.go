// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tm1637 drives 4 digit 7-segment LED modules built around the
// Titan Micro TM1637.
//
// The chip is bit-banged over two GPIO lines with package twowire. Text is
// printed with Print or Printf: it is translated to segment codes, a '.' or
// ',' lights the point of the digit on its left, and anything past the
// fourth digit is dropped.
//
// Failures are never retried. A missed refresh is harmless on this chip, so
// the error is returned and the caller decides.
//
// # Datasheet
//
// https://www.mcu.ee/download/TM1637-V2.4-EN.pdf
package tm1637

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/tm16xx/twowire"
)

// NumDigits is the number of digits written on every refresh.
const NumDigits = 4

// DefaultBrightness is the brightness set by New and Registry.Init.
const DefaultBrightness = 2

const (
	cmdDataAutoInc byte = 0x40
	cmdAddrZero    byte = 0xC0
	// Display control with the display off. Adding 1 to 8 turns it on with
	// pulse width 1/16 to 14/16.
	cmdBrightness byte = 0x87

	// printf into a buffer of NumDigits+2 leaves room for one point and the
	// terminator.
	textSize = NumDigits + 2
)

var (
	// ErrInvalidIndex is returned for a display index outside the registry.
	ErrInvalidIndex = errors.New("tm1637: invalid display index")
	// ErrInvalidPin is returned when a pin is nil or gpio.INVALID.
	ErrInvalidPin = errors.New("tm1637: invalid pin")
	// ErrAlreadyInitialized is returned by a second Init on the same index.
	ErrAlreadyInitialized = errors.New("tm1637: display already initialized")
	// ErrNotInitialized is returned when using an index that was never
	// initialized.
	ErrNotInitialized = errors.New("tm1637: display not initialized")
)

// Opts contains the driver settings.
type Opts struct {
	// Brightness set at initialization, 0 (off) to 8.
	Brightness byte
	// HalfPeriod of the bus clock.
	HalfPeriod time.Duration
	// Timer used for the bus delays.
	Timer twowire.Timer
	// Logger receives NACK details at V(1). The zero value discards.
	Logger logr.Logger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Brightness: DefaultBrightness,
	HalfPeriod: twowire.DefaultHalfPeriod,
	Timer:      twowire.HostTimer,
}

// Dev is a handle to a TM1637.
//
// A Dev is not safe for concurrent use.
type Dev struct {
	bus        *twowire.Bus
	log        logr.Logger
	brightness byte
	text       [textSize]byte
	segs       [NumDigits]byte
}

// New returns a TM1637 on the clk and dio lines, with the brightness from
// opts and a cleared display.
//
// An error is returned if the chip does not acknowledge.
func New(clk gpio.PinOut, dio gpio.PinIO, opts *Opts) (*Dev, error) {
	d, err := newDev(clk, dio, opts)
	if err != nil {
		return nil, err
	}
	if err := d.ready(opts); err != nil {
		return nil, err
	}
	return d, nil
}

// newDev configures the pins without talking to the chip.
func newDev(clk gpio.PinOut, dio gpio.PinIO, opts *Opts) (*Dev, error) {
	if clk == nil || dio == nil || clk == gpio.INVALID || dio == gpio.INVALID {
		return nil, ErrInvalidPin
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	bus, err := twowire.New(clk, dio, &twowire.Opts{HalfPeriod: opts.HalfPeriod, Timer: opts.Timer})
	if err != nil {
		return nil, fmt.Errorf("tm1637: %w", err)
	}
	l := opts.Logger
	if l.GetSink() == nil {
		l = logr.Discard()
	}
	d := &Dev{bus: bus, log: l}
	if err := bus.Idle(); err != nil {
		return nil, fmt.Errorf("tm1637: %w", err)
	}
	return d, nil
}

// ready checks that the chip answers by setting the brightness and clearing
// the display.
func (d *Dev) ready(opts *Opts) error {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := d.SetBrightness(opts.Brightness); err != nil {
		return err
	}
	return d.Clear()
}

func (d *Dev) String() string {
	return fmt.Sprintf("TM1637{%s}", d.bus)
}

// Brightness returns the last brightness the chip acknowledged.
func (d *Dev) Brightness() byte {
	return d.brightness
}

// Segments returns the codes of the last write the chip acknowledged.
func (d *Dev) Segments() [NumDigits]byte {
	return d.segs
}

// SetBrightness sets the brightness from 0 (display off) to 8.
//
// The level is not validated. Values above 8 are sent as is and select
// another command on the chip.
func (d *Dev) SetBrightness(level byte) error {
	if _, err := d.bus.Tx(cmdBrightness + level); err != nil {
		d.log.V(1).Info("brightness not acknowledged", "level", level, "err", err)
		return fmt.Errorf("tm1637: %w", err)
	}
	d.brightness = level
	return nil
}

// Clear blanks all the digits.
func (d *Dev) Clear() error {
	d.text = [textSize]byte{}
	return d.WriteSegments([NumDigits]byte{})
}

// Print shows text on the display.
//
// Only the first NumDigits+1 bytes of text are considered, enough for four
// digits and a point. Characters without a glyph are blank.
func (d *Dev) Print(align Alignment, text string) error {
	d.text = [textSize]byte{}
	// Keep the last byte for the terminator, like snprintf.
	copy(d.text[:textSize-1], text)
	translate(d.text[:])
	var segs [NumDigits]byte
	copy(segs[:], d.text[:NumDigits])
	if align == AlignRight {
		alignRight(&segs)
	}
	return d.WriteSegments(segs)
}

// Printf formats according to a format specifier and prints the result.
func (d *Dev) Printf(align Alignment, format string, args ...interface{}) error {
	return d.Print(align, fmt.Sprintf(format, args...))
}

// WriteSegments sends raw segment codes, digit 0 first.
//
// The digits are written with auto increment from address 0. Writing stops at
// the first digit the chip does not acknowledge; the error names that digit.
func (d *Dev) WriteSegments(segs [NumDigits]byte) error {
	if err := d.command(cmdDataAutoInc); err != nil {
		return err
	}
	if err := d.bus.Start(); err != nil {
		_ = d.bus.Stop()
		return fmt.Errorf("tm1637: %w", err)
	}
	err := d.bus.Send(cmdAddrZero)
	if errors.Is(err, twowire.ErrNoAck) {
		d.log.V(1).Info("address command not acknowledged", "cmd", cmdAddrZero)
		err = nil
	}
	failed := -1
	for i := 0; err == nil && i < NumDigits; i++ {
		if err = d.bus.Send(segs[i]); err != nil {
			failed = i
		}
	}
	if serr := d.bus.Stop(); err == nil {
		err = serr
	}
	if err == nil {
		d.segs = segs
		return nil
	}
	if failed >= 0 {
		d.log.V(1).Info("digit not written", "digit", failed, "err", err)
		return fmt.Errorf("tm1637: digit %d: %w", failed, err)
	}
	return fmt.Errorf("tm1637: %w", err)
}

// command sends a single byte transaction. A missing acknowledge is only
// logged; the data that follows decides whether the write worked.
func (d *Dev) command(c byte) error {
	_, err := d.bus.Tx(c)
	if errors.Is(err, twowire.ErrNoAck) {
		d.log.V(1).Info("command not acknowledged", "cmd", c)
		return nil
	}
	if err != nil {
		return fmt.Errorf("tm1637: %w", err)
	}
	return nil
}

// Halt turns the display off.
func (d *Dev) Halt() error {
	return d.SetBrightness(0)
}

var _ conn.Resource = &Dev{}
var _ fmt.Stringer = &Dev{}
