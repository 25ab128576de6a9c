// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tm1637

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// MaxDisplays is the number of displays a Registry can hold.
const MaxDisplays = 4

// Registry holds up to MaxDisplays displays addressed by index, each on its
// own pair of pins.
//
// Calls for the same index must not run concurrently. Different indices use
// different pins and buffers and can be driven from different goroutines
// once initialized.
type Registry struct {
	opts Opts
	devs [MaxDisplays]*Dev
}

// NewRegistry returns an empty registry. opts applies to every display
// initialized in it; nil means DefaultOpts.
func NewRegistry(opts *Opts) *Registry {
	if opts == nil {
		opts = &DefaultOpts
	}
	return &Registry{opts: *opts}
}

// Init initializes the display at index on the dio and clk lines.
//
// The slot is taken as soon as the pins are configured, even if the chip
// then fails the readiness check (brightness then clear). Calling Init again
// on the same index returns ErrAlreadyInitialized and leaves the display as
// is.
func (r *Registry) Init(index int, dio gpio.PinIO, clk gpio.PinOut) error {
	if index < 0 || index >= MaxDisplays {
		return ErrInvalidIndex
	}
	if r.devs[index] != nil {
		return ErrAlreadyInitialized
	}
	d, err := newDev(clk, dio, &r.opts)
	if err != nil {
		return err
	}
	r.devs[index] = d
	if err := d.ready(&r.opts); err != nil {
		return fmt.Errorf("tm1637: display %d: %w", index, err)
	}
	return nil
}

// Dev returns the display at index.
func (r *Registry) Dev(index int) (*Dev, error) {
	if index < 0 || index >= MaxDisplays {
		return nil, ErrInvalidIndex
	}
	if r.devs[index] == nil {
		return nil, ErrNotInitialized
	}
	return r.devs[index], nil
}

// SetBrightness sets the brightness of the display at index. See
// Dev.SetBrightness.
func (r *Registry) SetBrightness(index int, level byte) error {
	d, err := r.Dev(index)
	if err != nil {
		return err
	}
	return d.SetBrightness(level)
}

// Clear blanks the display at index.
func (r *Registry) Clear(index int) error {
	d, err := r.Dev(index)
	if err != nil {
		return err
	}
	return d.Clear()
}

// Print shows text on the display at index. See Dev.Print.
func (r *Registry) Print(index int, align Alignment, text string) error {
	d, err := r.Dev(index)
	if err != nil {
		return err
	}
	return d.Print(align, text)
}

// Printf formats and shows the result on the display at index.
func (r *Registry) Printf(index int, align Alignment, format string, args ...interface{}) error {
	d, err := r.Dev(index)
	if err != nil {
		return err
	}
	return d.Printf(align, format, args...)
}

// Halt turns off every initialized display. The first error is returned.
func (r *Registry) Halt() error {
	var first error
	for _, d := range r.devs {
		if d == nil {
			continue
		}
		if err := d.Halt(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (r *Registry) String() string {
	n := 0
	for _, d := range r.devs {
		if d != nil {
			n++
		}
	}
	return fmt.Sprintf("tm1637.Registry{%d/%d}", n, MaxDisplays)
}
