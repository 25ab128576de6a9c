// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tm1637

// Segment bits of a digit code.
const (
	SegA byte = 1 << iota
	SegB
	SegC
	SegD
	SegE
	SegF
	SegG
	// DecimalPoint is the point after the digit. On clock modules the colon
	// is wired to the point of the second digit.
	DecimalPoint
)

// Alignment selects where short text lands on the display.
type Alignment int

const (
	// AlignLeft sends the digits in the order they were printed.
	AlignLeft Alignment = iota
	// AlignRight pushes the digits against the right edge.
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "Left"
	case AlignRight:
		return "Right"
	default:
		return "Alignment(?)"
	}
}

// glyphs maps ASCII to segment codes. Missing entries are blank.
var glyphs = [128]byte{
	'0': 0x3F,
	'1': 0x06,
	'2': 0x5B,
	'3': 0x4F,
	'4': 0x66,
	'5': 0x6D,
	'6': 0x7D,
	'7': 0x07,
	'8': 0x7F,
	'9': 0x6F,

	'a': 0x77, 'A': 0x77,
	'b': 0x7C, 'B': 0x7C,
	'c': 0x58, 'C': 0x39,
	'd': 0x5E, 'D': 0x5E,
	'e': 0x79, 'E': 0x79,
	'f': 0x71, 'F': 0x71,
	'h': 0x74, 'H': 0x76,
	'i': 0x06, 'I': 0x06,
	'j': 0x1E, 'J': 0x1E,
	'l': 0x38, 'L': 0x38,
	'n': 0x54, 'N': 0x54,
	'o': 0x5C, 'O': 0x5C,
	'p': 0x73, 'P': 0x73,
	'q': 0x67, 'Q': 0x67,
	'r': 0x50, 'R': 0x50,
	's': 0x6D, 'S': 0x6D,
	't': 0x78, 'T': 0x78,
	'u': 0x1C, 'U': 0x3E,
	'y': 0x6E, 'Y': 0x6E,

	'^':  0x63,
	'-':  0x40,
	'_':  0x08,
	'=':  0x48,
	'\\': 0x64,
	'/':  0x52,
	'[':  0x39,
	']':  0x52,
	' ':  0x00,
}

// Encode returns the segment code for c. Characters that cannot be shown
// are blank.
func Encode(c byte) byte {
	if c >= byte(len(glyphs)) {
		return 0
	}
	return glyphs[c]
}

func isPoint(c byte) bool {
	return c == '.' || c == ','
}

// translate converts the text in buf into segment codes in place.
//
// A point does not take a digit of its own: it is removed from buf and set on
// the code to its left. "1.25" becomes {'1'|DecimalPoint, '2', '5', blank}.
// A point with nothing to its left is dropped.
func translate(buf []byte) {
	pending := false
	for i := 0; i < NumDigits+1 && i < len(buf); i++ {
		if isPoint(buf[i]) {
			pending = true
			copy(buf[i:], buf[i+1:])
			buf[len(buf)-1] = 0
			// Look at whatever moved into i.
			i--
			continue
		}
		buf[i] = Encode(buf[i])
		if pending {
			pending = false
			if i > 0 {
				buf[i-1] |= DecimalPoint
			}
		}
	}
}

// alignRight moves the codes right by the number of trailing blanks. Blanks
// between digits are kept.
func alignRight(segs *[NumDigits]byte) {
	shift := 0
	for i := NumDigits - 1; i >= 0 && segs[i] == 0; i-- {
		shift++
	}
	if shift == 0 || shift == NumDigits {
		return
	}
	for i := NumDigits - 1; i >= 0; i-- {
		if i >= shift {
			segs[i] = segs[i-shift]
		} else {
			segs[i] = 0
		}
	}
}
