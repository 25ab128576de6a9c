// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tm1637

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/GermanBionicSystems/tm16xx/tm1637/tm1637test"
	"github.com/GermanBionicSystems/tm16xx/twowire"
)

type fakeTimer struct {
	inits   int
	elapsed time.Duration
}

func (f *fakeTimer) Init() error {
	f.inits++
	return nil
}

func (f *fakeTimer) Delay(d time.Duration) {
	f.elapsed += d
}

func testOpts() *Opts {
	return &Opts{Brightness: DefaultBrightness, HalfPeriod: twowire.DefaultHalfPeriod, Timer: &fakeTimer{}}
}

func newTestDev(t *testing.T) (*Dev, *tm1637test.Chip) {
	chip := tm1637test.NewChip()
	dev, err := New(chip.CLK(), chip.DIO(), testOpts())
	if err != nil {
		t.Fatal(err)
	}
	chip.Reset()
	return dev, chip
}

func ram4(c *tm1637test.Chip) [NumDigits]byte {
	var out [NumDigits]byte
	r := c.RAM()
	copy(out[:], r[:NumDigits])
	return out
}

func TestEncode(t *testing.T) {
	for _, tc := range []struct {
		c    byte
		want byte
	}{
		{'0', 0x3F}, {'8', 0x7F}, {'9', 0x6F},
		{'A', 0x77}, {'a', 0x77},
		{'C', 0x39}, {'c', 0x58},
		{'H', 0x76}, {'h', 0x74},
		{'U', 0x3E}, {'u', 0x1C},
		{'-', 0x40}, {'_', 0x08}, {'=', 0x48}, {'^', 0x63},
		{'\\', 0x64}, {'/', 0x52}, {'[', 0x39}, {']', 0x52},
		{' ', 0}, {'@', 0}, {'k', 0}, {0, 0}, {0xFF, 0},
	} {
		if got := Encode(tc.c); got != tc.want {
			t.Errorf("Encode(%q) = 0x%02x, want 0x%02x", tc.c, got, tc.want)
		}
	}
}

func TestTranslate(t *testing.T) {
	for _, tc := range []struct {
		text  string
		left  [NumDigits]byte
		right [NumDigits]byte
	}{
		{"1.25", [4]byte{0x06 | DecimalPoint, 0x5B, 0x6D, 0}, [4]byte{0, 0x06 | DecimalPoint, 0x5B, 0x6D}},
		{"10", [4]byte{0x06, 0x3F, 0, 0}, [4]byte{0, 0, 0x06, 0x3F}},
		{"fail", [4]byte{0x71, 0x77, 0x06, 0x38}, [4]byte{0x71, 0x77, 0x06, 0x38}},
		{"FAIL", [4]byte{0x71, 0x77, 0x06, 0x38}, [4]byte{0x71, 0x77, 0x06, 0x38}},
		{"1@2", [4]byte{0x06, 0, 0x5B, 0}, [4]byte{0, 0x06, 0, 0x5B}},
		{"-38", [4]byte{0x40, 0x4F, 0x7F, 0}, [4]byte{0, 0x40, 0x4F, 0x7F}},
		{"4.5", [4]byte{0x66 | DecimalPoint, 0x6D, 0, 0}, [4]byte{0, 0, 0x66 | DecimalPoint, 0x6D}},
		{"4,5", [4]byte{0x66 | DecimalPoint, 0x6D, 0, 0}, [4]byte{0, 0, 0x66 | DecimalPoint, 0x6D}},
		{".5", [4]byte{0x6D, 0, 0, 0}, [4]byte{0, 0, 0, 0x6D}},
		{"12.", [4]byte{0x06, 0x5B | DecimalPoint, 0, 0}, [4]byte{0, 0, 0x06, 0x5B | DecimalPoint}},
		{"1234.", [4]byte{0x06, 0x5B, 0x4F, 0x66 | DecimalPoint}, [4]byte{0x06, 0x5B, 0x4F, 0x66 | DecimalPoint}},
		{"1..2", [4]byte{0x06 | DecimalPoint, 0x5B, 0, 0}, [4]byte{0, 0, 0x06 | DecimalPoint, 0x5B}},
		{"12345678", [4]byte{0x06, 0x5B, 0x4F, 0x66}, [4]byte{0x06, 0x5B, 0x4F, 0x66}},
		{"", [4]byte{}, [4]byte{}},
		{".....", [4]byte{}, [4]byte{}},
	} {
		t.Run(tc.text, func(t *testing.T) {
			buf := make([]byte, textSize)
			copy(buf[:textSize-1], tc.text)
			translate(buf)
			var got [NumDigits]byte
			copy(got[:], buf)
			if diff := cmp.Diff(tc.left, got); diff != "" {
				t.Errorf("left (-want +got):\n%s", diff)
			}
			alignRight(&got)
			if diff := cmp.Diff(tc.right, got); diff != "" {
				t.Errorf("right (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNew(t *testing.T) {
	chip := tm1637test.NewChip()
	timer := &fakeTimer{}
	opts := testOpts()
	opts.Timer = timer
	dev, err := New(chip.CLK(), chip.DIO(), opts)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]byte{{0x89}, {0x40}, {0xC0, 0, 0, 0, 0}}
	if diff := cmp.Diff(want, chip.Tx()); diff != "" {
		t.Errorf("Tx (-want +got):\n%s", diff)
	}
	if on, pulse := chip.Display(); !on || pulse != 1 {
		t.Errorf("Display() = %t, %d", on, pulse)
	}
	if timer.inits != 1 {
		t.Errorf("Timer.Init called %d times", timer.inits)
	}
	if timer.elapsed == 0 {
		t.Error("no delay")
	}
	if dev.Brightness() != DefaultBrightness {
		t.Errorf("Brightness() = %d", dev.Brightness())
	}
	if s := dev.String(); !strings.HasPrefix(s, "TM1637{") {
		t.Errorf("String() = %q", s)
	}
}

func TestNew_invalid(t *testing.T) {
	chip := tm1637test.NewChip()
	if _, err := New(nil, chip.DIO(), testOpts()); !errors.Is(err, ErrInvalidPin) {
		t.Errorf("nil clk: %v", err)
	}
	if _, err := New(chip.CLK(), gpio.INVALID, testOpts()); !errors.Is(err, ErrInvalidPin) {
		t.Errorf("invalid dio: %v", err)
	}
}

func TestNew_unplugged(t *testing.T) {
	chip := tm1637test.NewChip()
	chip.Unplugged = true
	if _, err := New(chip.CLK(), chip.DIO(), testOpts()); !errors.Is(err, twowire.ErrNoAck) {
		t.Fatalf("New() = %v", err)
	}
	// Clear is not attempted once the brightness failed.
	if chip.Starts() != 1 || chip.Stops() != 1 {
		t.Errorf("starts %d stops %d", chip.Starts(), chip.Stops())
	}
}

func TestSetBrightness(t *testing.T) {
	dev, chip := newTestDev(t)
	for level := byte(0); level <= 8; level++ {
		chip.Reset()
		if err := dev.SetBrightness(level); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([][]byte{{0x87 + level}}, chip.Tx()); diff != "" {
			t.Errorf("level %d (-want +got):\n%s", level, diff)
		}
		on, pulse := chip.Display()
		if on != (level != 0) {
			t.Errorf("level %d: on = %t", level, on)
		}
		if level != 0 && pulse != level-1 {
			t.Errorf("level %d: pulse = %d", level, pulse)
		}
	}
}

func TestClear(t *testing.T) {
	dev, chip := newTestDev(t)
	if err := dev.Print(AlignLeft, "8888"); err != nil {
		t.Fatal(err)
	}
	chip.Reset()
	if err := dev.Clear(); err != nil {
		t.Fatal(err)
	}
	want := [][]byte{{0x40}, {0xC0, 0, 0, 0, 0}}
	if diff := cmp.Diff(want, chip.Tx()); diff != "" {
		t.Errorf("Tx (-want +got):\n%s", diff)
	}
	if got := ram4(chip); got != [4]byte{} {
		t.Errorf("RAM = % x", got)
	}
}

func TestClear_nack(t *testing.T) {
	dev, chip := newTestDev(t)
	// 0x40, 0xC0, digit 0, digit 1, digit 2.
	chip.Nack(4)
	err := dev.Clear()
	if !errors.Is(err, twowire.ErrNoAck) {
		t.Fatalf("Clear() = %v", err)
	}
	if !strings.Contains(err.Error(), "digit 2") {
		t.Errorf("Clear() = %v", err)
	}
	want := [][]byte{{0x40}, {0xC0, 0, 0, 0}}
	if diff := cmp.Diff(want, chip.Tx()); diff != "" {
		t.Errorf("Tx (-want +got):\n%s", diff)
	}
	if chip.Starts() != 2 || chip.Stops() != 2 {
		t.Errorf("starts %d stops %d", chip.Starts(), chip.Stops())
	}
}

func TestClear_commandNack(t *testing.T) {
	dev, chip := newTestDev(t)
	chip.Nack(0)
	chip.Nack(1)
	if err := dev.Clear(); err != nil {
		t.Errorf("Clear() = %v", err)
	}
}

func TestPrint(t *testing.T) {
	dev, chip := newTestDev(t)
	for _, tc := range []struct {
		align Alignment
		text  string
		want  [NumDigits]byte
	}{
		{AlignLeft, "10", [4]byte{0x06, 0x3F, 0, 0}},
		{AlignRight, "10", [4]byte{0, 0, 0x06, 0x3F}},
		{AlignLeft, "1.25", [4]byte{0x06 | DecimalPoint, 0x5B, 0x6D, 0}},
		{AlignLeft, "fail", [4]byte{0x71, 0x77, 0x06, 0x38}},
		{AlignRight, "@", [4]byte{}},
	} {
		chip.Reset()
		if err := dev.Print(tc.align, tc.text); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(tc.want, ram4(chip)); diff != "" {
			t.Errorf("%s %q RAM (-want +got):\n%s", tc.align, tc.text, diff)
		}
		if diff := cmp.Diff(tc.want, dev.Segments()); diff != "" {
			t.Errorf("%s %q Segments (-want +got):\n%s", tc.align, tc.text, diff)
		}
		tx := chip.Tx()
		if len(tx) != 2 || len(tx[1]) != NumDigits+1 {
			t.Errorf("%q: Tx = % x", tc.text, tx)
		}
	}
}

func TestPrint_nackClosesTransaction(t *testing.T) {
	for n := 0; n < NumDigits+2; n++ {
		dev, chip := newTestDev(t)
		chip.Nack(n)
		_ = dev.Print(AlignLeft, "1234")
		if chip.Starts() != chip.Stops() {
			t.Errorf("nack %d: starts %d stops %d", n, chip.Starts(), chip.Stops())
		}
		if chip.Starts() != 2 {
			t.Errorf("nack %d: %d transactions", n, chip.Starts())
		}
	}
}

func TestFailedWriteKeepsState(t *testing.T) {
	dev, chip := newTestDev(t)
	if err := dev.Print(AlignLeft, "8888"); err != nil {
		t.Fatal(err)
	}
	chip.Reset()
	// 0x40, 0xC0, digit 0, digit 1.
	chip.Nack(3)
	if err := dev.Print(AlignLeft, "1234"); !errors.Is(err, twowire.ErrNoAck) {
		t.Fatalf("Print() = %v", err)
	}
	if diff := cmp.Diff([NumDigits]byte{0x7F, 0x7F, 0x7F, 0x7F}, dev.Segments()); diff != "" {
		t.Errorf("Segments (-want +got):\n%s", diff)
	}
	chip.Reset()
	chip.Nack(0)
	if err := dev.SetBrightness(5); !errors.Is(err, twowire.ErrNoAck) {
		t.Fatalf("SetBrightness() = %v", err)
	}
	if got := dev.Brightness(); got != DefaultBrightness {
		t.Errorf("Brightness() = %d", got)
	}
	if err := dev.SetBrightness(5); err != nil {
		t.Fatal(err)
	}
	if got := dev.Brightness(); got != 5 {
		t.Errorf("Brightness() = %d", got)
	}
}

func TestPrintf(t *testing.T) {
	dev, chip := newTestDev(t)
	if err := dev.Printf(AlignLeft, "%.1f", 4.51); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([4]byte{0x66 | DecimalPoint, 0x6D, 0, 0}, ram4(chip)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if err := dev.Printf(AlignRight, "%d", -38); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([4]byte{0, 0x40, 0x4F, 0x7F}, ram4(chip)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestHalt(t *testing.T) {
	dev, chip := newTestDev(t)
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	if on, _ := chip.Display(); on {
		t.Error("display still on")
	}
}

func TestGPIOError(t *testing.T) {
	clk := &failPin{}
	dev, err := New(clk, &gpiotest.Pin{N: "DIO"}, testOpts())
	if err == nil || dev != nil {
		t.Fatalf("New() = %v, %v", dev, err)
	}
	if errors.Is(err, twowire.ErrNoAck) {
		t.Errorf("GPIO error reported as NACK: %v", err)
	}
}

func TestLogger(t *testing.T) {
	var lines []string
	opts := testOpts()
	opts.Logger = funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})
	chip := tm1637test.NewChip()
	dev, err := New(chip.CLK(), chip.DIO(), opts)
	if err != nil {
		t.Fatal(err)
	}
	chip.Unplugged = true
	_ = dev.SetBrightness(3)
	if len(lines) != 1 || !strings.Contains(lines[0], "brightness not acknowledged") {
		t.Errorf("log = %q", lines)
	}
}

type failPin struct {
	gpiotest.Pin
}

func (f *failPin) Out(l gpio.Level) error {
	return errors.New("broken")
}
