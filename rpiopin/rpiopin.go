// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rpiopin exposes Raspberry Pi GPIOs mapped through /dev/gpiomem as
// periph gpio.PinIO.
//
// Register access through go-rpio costs tens of nanoseconds per edge, which
// leaves the bit-banged buses well inside their timing on every Pi model.
// Call Open once before using any pin.
package rpiopin

import (
	"errors"
	"fmt"
	"time"

	"github.com/stianeikeland/go-rpio"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// ErrNotImplemented is returned for edge detection and PWM.
var ErrNotImplemented = errors.New("rpiopin: not implemented")

// Open maps the GPIO registers.
func Open() error {
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("rpiopin: %w", err)
	}
	return nil
}

// Close unmaps the GPIO registers.
func Close() error {
	return rpio.Close()
}

// Pin is a BCM numbered GPIO.
type Pin struct {
	pin  rpio.Pin
	num  int
	pull gpio.Pull
	fn   string
}

// New returns the GPIO with the BCM number bcm.
func New(bcm int) *Pin {
	return &Pin{pin: rpio.Pin(bcm), num: bcm, pull: gpio.PullNoChange, fn: "In"}
}

func (p *Pin) String() string {
	return p.Name()
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Name returns the name of the GPIO pin.
func (p *Pin) Name() string {
	return fmt.Sprintf("GPIO%d", p.num)
}

// Number returns the BCM number of the GPIO pin.
func (p *Pin) Number() int {
	return p.num
}

// Deprecated: returns "In" or "Out".
func (p *Pin) Function() string {
	return p.fn
}

// In switches the pin to input with the requested pull.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return ErrNotImplemented
	}
	p.pin.Input()
	switch pull {
	case gpio.PullUp:
		p.pin.PullUp()
	case gpio.PullDown:
		p.pin.PullDown()
	case gpio.Float:
		p.pin.PullOff()
	case gpio.PullNoChange:
	default:
		return fmt.Errorf("rpiopin: unsupported pull %s", pull)
	}
	if pull != gpio.PullNoChange {
		p.pull = pull
	}
	p.fn = "In"
	return nil
}

// Read returns the current level of the pin.
func (p *Pin) Read() gpio.Level {
	return p.pin.Read() == rpio.High
}

// WaitForEdge is not available.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	return false
}

// Pull returns the last pull set by In.
func (p *Pin) Pull() gpio.Pull {
	return p.pull
}

// DefaultPull returns the pull after reset, down on most GPIOs.
func (p *Pin) DefaultPull() gpio.Pull {
	if p.num <= 8 {
		return gpio.PullUp
	}
	return gpio.PullDown
}

// Out switches the pin to push-pull output and drives l.
func (p *Pin) Out(l gpio.Level) error {
	// Set the level first so the line does not glitch when the direction
	// changes.
	if l {
		p.pin.High()
	} else {
		p.pin.Low()
	}
	p.pin.Output()
	p.fn = "Out"
	return nil
}

// PWM is not available.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return ErrNotImplemented
}

var _ gpio.PinIO = &Pin{}
