// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sr3w

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
	"periph.io/x/devices/v3/sr3w/lcdsim"
)

// simOpts mirrors a driver pin map onto the board model.
func simOpts(opts *Opts) *lcdsim.Opts {
	if opts == nil {
		opts = &DefaultOpts
	}
	return &lcdsim.Opts{
		EN:        opts.EN,
		RW:        opts.RW,
		RS:        opts.RS,
		D4:        opts.D4,
		D5:        opts.D5,
		D6:        opts.D6,
		D7:        opts.D7,
		Backlight: opts.Backlight,
		Rows:      opts.Rows,
		Cols:      opts.Cols,
	}
}

// getDev returns an initialized driver wired to a board model, with the
// init handshake already dropped from the latch log.
func getDev(t *testing.T, opts *Opts) (*Dev, *lcdsim.Board) {
	t.Helper()
	board := lcdsim.New(simOpts(opts))
	dev, err := New(board.Data, board.Clock, board.Strobe, opts)
	if err != nil {
		t.Fatal(err)
	}
	board.ResetLatched()
	return dev, board
}

// wantLoad computes the register byte for one nibble under the given pin
// map.
func wantLoad(opts *Opts, nibble byte, rs bool, extra byte) byte {
	out := extra
	for i, pos := range []int{opts.D4, opts.D5, opts.D6, opts.D7} {
		if nibble&(1<<i) != 0 {
			out |= 1 << pos
		}
	}
	if rs {
		out |= 1 << opts.RS
	}
	return out
}

func TestSendSplitsNibbles(t *testing.T) {
	for _, tc := range []struct {
		name  string
		value byte
		mode  Mode
	}{
		{name: "command zero", value: 0x00, mode: Command},
		{name: "command init byte", value: 0x33, mode: Command},
		{name: "command mixed", value: 0xf0, mode: Command},
		{name: "data A", value: 0x41, mode: Data},
		{name: "data all bits", value: 0xff, mode: Data},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dev, board := getDev(t, nil)
			if err := dev.Send(tc.value, tc.mode); err != nil {
				t.Fatal(err)
			}
			en := byte(1) << DefaultOpts.EN
			hi := wantLoad(&DefaultOpts, tc.value>>4, tc.mode == Data, 0)
			lo := wantLoad(&DefaultOpts, tc.value&0x0f, tc.mode == Data, 0)
			want := []byte{hi | en, hi, lo | en, lo}
			if diff := cmp.Diff(board.Latched(), want); diff != "" {
				t.Errorf("register load sequence difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestSendFourBits(t *testing.T) {
	// FourBits sends a single nibble, low bits only, with RS clear even
	// though the value's high nibble is populated.
	dev, board := getDev(t, nil)
	if err := dev.Send(0xa3, FourBits); err != nil {
		t.Fatal(err)
	}
	en := byte(1) << DefaultOpts.EN
	want := []byte{0x03 | en, 0x03}
	if diff := cmp.Diff(board.Latched(), want); diff != "" {
		t.Errorf("register load sequence difference (-got +want):\n%s", diff)
	}
}

func TestDataPinRemap(t *testing.T) {
	// The four data lines can sit on any output bits, in any order. Every
	// nibble must land on exactly the configured bits.
	opts := DefaultOpts
	opts.D4, opts.D5, opts.D6, opts.D7 = 7, 5, 3, 1
	opts.EN, opts.RW, opts.RS = 0, 2, 4
	dev, board := getDev(t, &opts)

	for nibble := byte(0); nibble < 16; nibble++ {
		board.ResetLatched()
		if err := dev.Send(nibble, FourBits); err != nil {
			t.Fatal(err)
		}
		loads := board.Latched()
		if len(loads) != 2 {
			t.Fatalf("Send(%#x, FourBits) latched %d bytes, want 2", nibble, len(loads))
		}
		want := wantLoad(&opts, nibble, false, 0)
		if loads[1] != want {
			t.Errorf("nibble %#x mapped to %#08b, want %#08b", nibble, loads[1], want)
		}
		if loads[0] != want|1<<opts.EN {
			t.Errorf("nibble %#x enable load was %#08b, want %#08b", nibble, loads[0], want|1<<opts.EN)
		}
	}
}

func TestEnablePulsePairs(t *testing.T) {
	// Every nibble produces exactly two loads: enable high then enable
	// low, otherwise identical.
	dev, board := getDev(t, nil)
	if _, err := dev.WriteString("pulse"); err != nil {
		t.Fatal(err)
	}
	loads := board.Latched()
	if len(loads)%2 != 0 {
		t.Fatalf("odd number of register loads: %d", len(loads))
	}
	en := byte(1) << DefaultOpts.EN
	for i := 0; i < len(loads); i += 2 {
		if loads[i]&en == 0 {
			t.Errorf("load %d: enable not set in %#08b", i, loads[i])
		}
		if loads[i+1]&en != 0 {
			t.Errorf("load %d: enable still set in %#08b", i+1, loads[i+1])
		}
		if loads[i]&^en != loads[i+1]&^en {
			t.Errorf("load pair %d differs beyond enable: %#08b %#08b", i, loads[i], loads[i+1])
		}
	}
}

func TestRegisterSelect(t *testing.T) {
	dev, board := getDev(t, nil)
	rs := byte(1) << DefaultOpts.RS

	if err := dev.Send(0x00, Data); err != nil {
		t.Fatal(err)
	}
	for i, b := range board.Latched() {
		if b&rs == 0 {
			t.Errorf("data load %d: register select clear in %#08b", i, b)
		}
	}

	board.ResetLatched()
	if err := dev.Send(0xff, Command); err != nil {
		t.Fatal(err)
	}
	for i, b := range board.Latched() {
		if b&rs != 0 {
			t.Errorf("command load %d: register select set in %#08b", i, b)
		}
	}
}

func TestBacklight(t *testing.T) {
	for _, tc := range []struct {
		name      string
		polarity  Polarity
		intensity display.Intensity
		wantSts   byte
	}{
		{name: "positive off", polarity: Positive, intensity: 0, wantSts: 0},
		{name: "positive on", polarity: Positive, intensity: 0xff, wantSts: 0x80},
		{name: "negative off", polarity: Negative, intensity: 0, wantSts: 0x80},
		{name: "negative on", polarity: Negative, intensity: 1, wantSts: 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOpts
			opts.Backlight = 7
			opts.Polarity = tc.polarity
			dev, board := getDev(t, &opts)

			if err := dev.Backlight(tc.intensity); err != nil {
				t.Fatal(err)
			}
			if dev.backlightSts != tc.wantSts {
				t.Errorf("status mask %#08b, want %#08b", dev.backlightSts, tc.wantSts)
			}
			// The state is latched immediately, without an LCD command.
			if diff := cmp.Diff(board.Latched(), []byte{tc.wantSts}); diff != "" {
				t.Errorf("register load difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestBacklightUnconfigured(t *testing.T) {
	dev, board := getDev(t, nil)
	if err := dev.Backlight(0xff); err != nil {
		t.Fatal(err)
	}
	if dev.backlightSts != 0 {
		t.Errorf("status mask %#08b, want 0", dev.backlightSts)
	}
	if n := len(board.Latched()); n != 0 {
		t.Errorf("unconfigured backlight latched %d bytes, want none", n)
	}
}

func TestBacklightPersists(t *testing.T) {
	// Once on, the backlight bit rides along with every register load.
	opts := DefaultOpts
	opts.Backlight = 7
	dev, board := getDev(t, &opts)
	if err := dev.Backlight(0xff); err != nil {
		t.Fatal(err)
	}
	board.ResetLatched()
	if _, err := dev.WriteString("lit"); err != nil {
		t.Fatal(err)
	}
	for i, b := range board.Latched() {
		if b&0x80 == 0 {
			t.Errorf("load %d: backlight bit lost in %#08b", i, b)
		}
	}
	if level, ok := board.Backlight(); !ok || !bool(level) {
		t.Errorf("board backlight = %v, %v, want High, true", level, ok)
	}
}

func TestSetBacklightPin(t *testing.T) {
	dev, board := getDev(t, nil)
	dev.SetBacklightPin(7, Negative)
	if err := dev.Backlight(0); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(board.Latched(), []byte{0x80}); diff != "" {
		t.Errorf("register load difference (-got +want):\n%s", diff)
	}
	// Detach again: back to a no-op.
	dev.SetBacklightPin(-1, Positive)
	board.ResetLatched()
	if err := dev.Backlight(0xff); err != nil {
		t.Fatal(err)
	}
	if n := len(board.Latched()); n != 0 {
		t.Errorf("detached backlight latched %d bytes, want none", n)
	}
}

func TestInitHandshake(t *testing.T) {
	board := lcdsim.New(nil)
	dev, err := New(board.Data, board.Clock, board.Strobe, nil)
	if err != nil {
		t.Fatal(err)
	}
	loads := board.Latched()
	// Three single-nibble function sets forcing 8-bit mode, then the
	// switch to 4-bit transfers.
	want := []byte{0x13, 0x03, 0x13, 0x03, 0x13, 0x03, 0x12, 0x02}
	if len(loads) < len(want) {
		t.Fatalf("init latched %d bytes, want at least %d", len(loads), len(want))
	}
	if diff := cmp.Diff(loads[:len(want)], want); diff != "" {
		t.Errorf("handshake difference (-got +want):\n%s", diff)
	}
	if board.RWSeenHigh() {
		t.Error("R/W line driven high during init")
	}
	on, cursor, blink := board.Controls()
	if !on || cursor || blink {
		t.Errorf("controls after init: on=%v cursor=%v blink=%v, want on only", on, cursor, blink)
	}
	if got := board.Line(1); got != "                " {
		t.Errorf("line 1 after init: %q, want blank", got)
	}
	if err := dev.Halt(); err != nil {
		t.Error(err)
	}
}

func TestWriteReadsBack(t *testing.T) {
	dev, board := getDev(t, nil)
	n, err := dev.WriteString("1234567890")
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 {
		t.Errorf("WriteString returned %d, want 10", n)
	}
	if got := board.Line(1); got != "1234567890      " {
		t.Errorf("line 1: %q", got)
	}
	if err := dev.MoveTo(2, 2); err != nil {
		t.Fatal(err)
	}
	if _, err = dev.WriteString("2345678901"); err != nil {
		t.Fatal(err)
	}
	if got := board.Line(2); got != " 2345678901     " {
		t.Errorf("line 2: %q", got)
	}
	if err := dev.Clear(); err != nil {
		t.Fatal(err)
	}
	if got := board.Screen(); got != "                \n                " {
		t.Errorf("screen after clear: %q", got)
	}
}

func TestNarrowTallPanel(t *testing.T) {
	// 16x4 modules continue rows 1 and 2 in DDRAM at offsets 16 and 80
	// instead of the interleaved layout of wider panels.
	opts := DefaultOpts
	opts.Rows = 4
	dev, board := getDev(t, &opts)
	for row, text := range map[int]string{1: "one", 2: "two", 3: "three", 4: "four"} {
		if err := dev.MoveTo(row, 1); err != nil {
			t.Fatalf("MoveTo(%d, 1): %v", row, err)
		}
		if _, err := dev.WriteString(text); err != nil {
			t.Fatal(err)
		}
	}
	want := "one             \ntwo             \nthree           \nfour            "
	if got := board.Screen(); got != want {
		t.Errorf("screen:\n%q, want\n%q", got, want)
	}
	if err := dev.MoveTo(5, 1); err == nil {
		t.Error("MoveTo(5, 1) accepted")
	}
}

func TestCursorAndDisplay(t *testing.T) {
	dev, board := getDev(t, nil)
	for _, tc := range []struct {
		modes      []display.CursorMode
		wantCursor bool
		wantBlink  bool
	}{
		{modes: []display.CursorMode{display.CursorOff}},
		{modes: []display.CursorMode{display.CursorUnderline}, wantCursor: true},
		{modes: []display.CursorMode{display.CursorBlink}, wantBlink: true},
		{modes: []display.CursorMode{display.CursorBlock}, wantCursor: true, wantBlink: true},
	} {
		if err := dev.Cursor(tc.modes...); err != nil {
			t.Fatal(err)
		}
		on, cursor, blink := board.Controls()
		if !on || cursor != tc.wantCursor || blink != tc.wantBlink {
			t.Errorf("Cursor(%v): on=%v cursor=%v blink=%v, want on=true cursor=%v blink=%v",
				tc.modes, on, cursor, blink, tc.wantCursor, tc.wantBlink)
		}
	}
	// A rejected call must leave both the driver state and the last
	// written display control untouched.
	if err := dev.Cursor(display.CursorBlock); err != nil {
		t.Fatal(err)
	}
	if err := dev.Cursor(display.CursorUnderline, display.CursorMode(42)); err == nil {
		t.Error("Cursor() accepted an invalid mode")
	}
	if !dev.cursor || !dev.blink {
		t.Error("rejected Cursor() call altered the driver state")
	}
	if on, cursor, blink := board.Controls(); !on || !cursor || !blink {
		t.Errorf("rejected Cursor() call reached the controller: on=%v cursor=%v blink=%v",
			on, cursor, blink)
	}
	if err := dev.Display(false); err != nil {
		t.Fatal(err)
	}
	if on, _, _ := board.Controls(); on {
		t.Error("display still on after Display(false)")
	}
}

func TestMove(t *testing.T) {
	dev, board := getDev(t, nil)
	if err := dev.Home(); err != nil {
		t.Fatal(err)
	}
	if err := dev.Move(display.Forward); err != nil {
		t.Fatal(err)
	}
	if got := board.Addr(); got != 1 {
		t.Errorf("address after Forward: %d, want 1", got)
	}
	if err := dev.Move(display.Backward); err != nil {
		t.Fatal(err)
	}
	if got := board.Addr(); got != 0 {
		t.Errorf("address after Backward: %d, want 0", got)
	}
	if err := dev.Move(display.Up); !errors.Is(err, display.ErrNotImplemented) {
		t.Errorf("Move(Up) = %v, want ErrNotImplemented", err)
	}
}

func TestMoveToRange(t *testing.T) {
	dev, _ := getDev(t, nil)
	for _, pos := range [][2]int{{0, 1}, {1, 0}, {3, 1}, {1, 17}} {
		if err := dev.MoveTo(pos[0], pos[1]); err == nil {
			t.Errorf("MoveTo(%d, %d) accepted", pos[0], pos[1])
		}
	}
}

func TestInterface(t *testing.T) {
	dev, _ := getDev(t, nil)
	defer func() { _ = dev.Halt() }()
	errs := displaytest.TestTextDisplay(dev, false)
	for _, err := range errs {
		if !errors.Is(err, display.ErrNotImplemented) {
			t.Error(err)
		}
	}
}

func TestNewErrors(t *testing.T) {
	board := lcdsim.New(nil)
	if _, err := New(nil, board.Clock, board.Strobe, nil); err == nil {
		t.Error("New() accepted a nil data pin")
	}
	opts := DefaultOpts
	opts.EN = 8
	if _, err := New(board.Data, board.Clock, board.Strobe, &opts); err == nil {
		t.Error("New() accepted a register output beyond bit 7")
	}
	opts = DefaultOpts
	opts.Backlight = 9
	if _, err := New(board.Data, board.Clock, board.Strobe, &opts); err == nil {
		t.Error("New() accepted a backlight output beyond bit 7")
	}
	opts = DefaultOpts
	opts.Rows = 5
	if _, err := New(board.Data, board.Clock, board.Strobe, &opts); err == nil {
		t.Error("New() accepted more rows than the HD44780 can address")
	}
	opts = DefaultOpts
	opts.Cols = -1
	if _, err := New(board.Data, board.Clock, board.Strobe, &opts); err == nil {
		t.Error("New() accepted a negative column count")
	}
}
