// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package clockface shows the time of day on a segment display.
package clockface

import (
	"context"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"

	"github.com/GermanBionicSystems/tm16xx/tm1637"
)

// Printer is a display that takes text, like *tm1637.Dev.
type Printer interface {
	Print(align tm1637.Alignment, text string) error
}

// Opts controls the clock face.
type Opts struct {
	// Layout is a time.Format layout. The point lights the colon on most
	// clock modules. Defaults to "15.04".
	Layout string
	// Interval between refreshes. Defaults to one second.
	Interval time.Duration
	// Blink turns the separators off on every other refresh.
	Blink bool
	Align tm1637.Alignment
	// Logger receives print failures.
	Logger logr.Logger
}

// DefaultOpts is a 24h clock with a blinking colon.
var DefaultOpts = Opts{
	Layout:   "15.04",
	Interval: time.Second,
	Blink:    true,
	Align:    tm1637.AlignRight,
}

var noSeparator = strings.NewReplacer(".", "", ",", "")

// Run refreshes p with the time from clk until ctx is done.
//
// A failed refresh is logged and the next one is attempted on schedule. Run
// returns ctx.Err().
func Run(ctx context.Context, clk clockwork.Clock, p Printer, opts *Opts) error {
	if opts == nil {
		opts = &DefaultOpts
	}
	layout := opts.Layout
	if layout == "" {
		layout = DefaultOpts.Layout
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultOpts.Interval
	}
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	for tick := 0; ; tick++ {
		text := clk.Now().Format(layout)
		if opts.Blink && tick%2 == 1 {
			text = noSeparator.Replace(text)
		}
		if err := p.Print(opts.Align, text); err != nil {
			log.Error(err, "refresh failed", "text", text)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(interval):
		}
	}
}
