// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package segimage renders 7-segment codes to an image, for documentation
// and for checking what an emulated display shows.
package segimage

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/gofont/goregular"
)

// Opts controls the rendering. The zero value is usable.
type Opts struct {
	// DigitWidth and DigitHeight in pixels. Default 60x100.
	DigitWidth  int
	DigitHeight int
	// Lit, Dark and Background default to red, a dim gray and black.
	Lit        color.Color
	Dark       color.Color
	Background color.Color
	// Caption is printed under the digits when not empty.
	Caption string
}

// rect is one segment of a digit.
type rect struct {
	seg        byte
	x, y, w, h float64
}

func (o *Opts) defaults() Opts {
	r := Opts{}
	if o != nil {
		r = *o
	}
	if r.DigitWidth <= 0 {
		r.DigitWidth = 60
	}
	if r.DigitHeight <= 0 {
		r.DigitHeight = 100
	}
	if r.Lit == nil {
		r.Lit = colornames.Red
	}
	if r.Dark == nil {
		r.Dark = colornames.Dimgray
	}
	if r.Background == nil {
		r.Background = colornames.Black
	}
	return r
}

// stroke returns the segment thickness for the given digit width.
func stroke(w int) float64 {
	return float64(w) / 8
}

// segments returns the rectangles of segments a to g for a digit of size
// w x h whose top left corner is at x0, y0.
func segments(x0, y0, w, h, t float64) []rect {
	half := h / 2
	return []rect{
		{0x01, x0 + t, y0, w - 2*t, t},
		{0x02, x0 + w - t, y0 + t, t, half - 1.5*t},
		{0x04, x0 + w - t, y0 + half + t/2, t, half - 1.5*t},
		{0x08, x0 + t, y0 + h - t, w - 2*t, t},
		{0x10, x0, y0 + half + t/2, t, half - 1.5*t},
		{0x20, x0, y0 + t, t, half - 1.5*t},
		{0x40, x0 + t, y0 + half - t/2, w - 2*t, t},
	}
}

// origin returns the top left corner of digit i.
func origin(i int, o *Opts) (float64, float64) {
	t := stroke(o.DigitWidth)
	return t + float64(i)*(float64(o.DigitWidth)+3*t), t
}

// Render draws segs, digit 0 on the left.
func Render(segs []byte, opts *Opts) image.Image {
	o := opts.defaults()
	t := stroke(o.DigitWidth)
	w := int(t) + len(segs)*(o.DigitWidth+int(3*t))
	h := o.DigitHeight + int(2*t)
	if o.Caption != "" {
		h += 24
	}
	dc := gg.NewContext(w, h)
	dc.SetColor(o.Background)
	dc.Clear()
	for i, code := range segs {
		x0, y0 := origin(i, &o)
		for _, r := range segments(x0, y0, float64(o.DigitWidth), float64(o.DigitHeight), t) {
			dc.DrawRectangle(r.x, r.y, r.w, r.h)
			dc.SetColor(pick(code&r.seg != 0, &o))
			dc.Fill()
		}
		dc.DrawCircle(x0+float64(o.DigitWidth)+t, y0+float64(o.DigitHeight)-t/2, t/2)
		dc.SetColor(pick(code&0x80 != 0, &o))
		dc.Fill()
	}
	if o.Caption != "" {
		if f, err := truetype.Parse(goregular.TTF); err == nil {
			dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: 14}))
		}
		dc.SetColor(o.Dark)
		dc.DrawStringAnchored(o.Caption, float64(w)/2, float64(h)-12, 0.5, 0.5)
	}
	return dc.Image()
}

// SavePNG renders segs and writes the result to path.
func SavePNG(path string, segs []byte, opts *Opts) error {
	if err := gg.SavePNG(path, Render(segs, opts)); err != nil {
		return fmt.Errorf("segimage: %w", err)
	}
	return nil
}

func pick(lit bool, o *Opts) color.Color {
	if lit {
		return o.Lit
	}
	return o.Dark
}
