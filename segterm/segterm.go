// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package segterm draws 7-segment digits on the terminal using ANSI color
// codes.
//
// Useful while you are waiting for your TM1637 module to come by mail, or to
// watch an emulated chip.
package segterm

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for this display.
type Opts struct {
	// Digits is the number of digits drawn. Defaults to 4.
	Digits  int
	Palette *ansi256.Palette
	// Lit is the color of a segment at full brightness. Defaults to red.
	Lit color.NRGBA
	// W is where the frames go. Defaults to a colorable stdout.
	W io.Writer

	_ struct{}
}

// Dev is a segment display emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette
	lit     color.NRGBA
	level   byte

	segs  []byte
	drawn bool
	buf   bytes.Buffer
}

// cell is one character cell of a digit: the segment bit it shows, or 0 for
// always dark.
type cell byte

// Each digit is 3 rows of 4 cells; the last column only holds the point.
//
//	 a
//	fgb
//	edc.
var layout = [3][4]cell{
	{0, 0x01, 0, 0},
	{0x20, 0x40, 0x02, 0},
	{0x10, 0x08, 0x04, 0x80},
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	n := opts.Digits
	if n <= 0 {
		n = 4
	}
	lit := opts.Lit
	if lit == (color.NRGBA{}) {
		lit = color.NRGBA{R: 255, A: 255}
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{
		w:       w,
		palette: *p,
		lit:     lit,
		level:   8,
		segs:    make([]byte, n),
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("SegTerm{%d}", len(d.segs))
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the console is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// SetBrightness dims the lit segments, 0 (off) to 8 like the TM1637.
func (d *Dev) SetBrightness(level byte) error {
	if level > 8 {
		return errors.New("segterm: brightness out of range")
	}
	d.level = level
	_, err := d.refresh()
	return err
}

// Write accepts segment codes, digit 0 first, and redraws the digits.
//
// Extra codes are ignored.
func (d *Dev) Write(segs []byte) (int, error) {
	n := copy(d.segs, segs)
	for i := n; i < len(d.segs); i++ {
		d.segs[i] = 0
	}
	if _, err := d.refresh(); err != nil {
		return 0, err
	}
	return n, nil
}

func (d *Dev) on() color.NRGBA {
	c := d.lit
	c.R = byte(int(c.R) * int(d.level) / 8)
	c.G = byte(int(c.G) * int(d.level) / 8)
	c.B = byte(int(c.B) * int(d.level) / 8)
	return c
}

func (d *Dev) refresh() (int, error) {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	if d.drawn {
		// Back to the top of the previous frame.
		_, _ = fmt.Fprintf(&d.buf, "\033[%dA", len(layout))
	}
	on := d.palette.Block(d.on())
	off := d.palette.Block(color.NRGBA{A: 255})
	for _, row := range layout {
		_, _ = d.buf.WriteString("\r\033[0m")
		for _, s := range d.segs {
			for _, c := range row {
				if c != 0 && s&byte(c) != 0 {
					_, _ = io.WriteString(&d.buf, on)
				} else {
					_, _ = io.WriteString(&d.buf, off)
				}
			}
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	d.drawn = true
	_, err := d.buf.WriteTo(d.w)
	return len(d.segs), err
}

var _ io.Writer = &Dev{}
var _ fmt.Stringer = &Dev{}
