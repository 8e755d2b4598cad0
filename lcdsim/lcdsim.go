// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim models a 3-wire latching shift register feeding an
// HD44780 character LCD in 4-bit mode.
//
// The model decodes the same waveform real hardware sees: the register
// samples the data line on every clock rising edge, latches its eight
// bits to the outputs on the strobe rising edge, and the LCD side
// assembles nibbles from enable falling edges across latched bytes. It
// exists so drivers can be exercised without hardware, both in tests and
// behind the terminal/HTTP emulators.
package lcdsim

import (
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// Opts mirrors the wiring of the register outputs to the LCD lines. All
// values are bit positions within the latched byte.
type Opts struct {
	EN, RW, RS     int
	D4, D5, D6, D7 int
	// Backlight is the output driving the backlight, -1 when not wired.
	Backlight int
	// Rows and Cols are the panel dimensions.
	Rows, Cols int
}

// DefaultOpts matches the standard SR3W wiring.
var DefaultOpts = Opts{
	EN:        4,
	RW:        5,
	RS:        6,
	D4:        0,
	D5:        1,
	D6:        2,
	D7:        3,
	Backlight: -1,
	Rows:      2,
	Cols:      16,
}

// DDRAM offsets of the first character of each row, 1-based. Same tables
// the HD44780 documents for 16 column and wider panels; on 16 column
// modules rows 3 and 4 continue rows 1 and 2 in DDRAM.
var rowOffsets = [][]byte{{0, 0, 64, 16, 80}, {0, 0, 64, 20, 84}}

// Board is a virtual shift register wired to a virtual LCD.
//
// Drive it through the Data, Clock and Strobe pins; read the resulting
// panel state back through Line, Screen and the state accessors.
type Board struct {
	Data   *Pin
	Clock  *Pin
	Strobe *Pin

	// OnUpdate, when set, runs after every executed LCD instruction or
	// data write. It must not drive the board's pins.
	OnUpdate func()

	opts Opts

	mu      sync.Mutex
	sr      byte // register input stage
	out     byte // latched outputs
	latched []byte
	rwHigh  bool

	// LCD bus state.
	prevEN      bool
	mode8       bool
	havePending bool
	pending     byte
	pendingRS   bool

	// LCD controller state.
	addr      int
	cgram     bool
	increment bool
	on        bool
	cursor    bool
	blink     bool
	ddram     [128]byte
}

// New returns a Board in the HD44780 reset state: 8-bit bus, display
// off, DDRAM blank. A nil opts selects DefaultOpts.
func New(opts *Opts) *Board {
	if opts == nil {
		opts = &DefaultOpts
	}
	b := &Board{
		opts:      *opts,
		mode8:     true,
		increment: true,
	}
	if b.opts.Rows == 0 {
		b.opts.Rows = DefaultOpts.Rows
	}
	if b.opts.Cols == 0 {
		b.opts.Cols = DefaultOpts.Cols
	}
	for i := range b.ddram {
		b.ddram[i] = ' '
	}
	b.Data = &Pin{board: b, name: "SIM_DATA", number: 0, role: roleData}
	b.Clock = &Pin{board: b, name: "SIM_CLOCK", number: 1, role: roleClock}
	b.Strobe = &Pin{board: b, name: "SIM_STROBE", number: 2, role: roleStrobe}
	return b
}

// step advances the model on a pin transition. Returns true when an LCD
// instruction or data write completed. Caller holds b.mu.
func (b *Board) step(p *Pin, l gpio.Level, rising bool) bool {
	switch p.role {
	case roleData:
		return false
	case roleClock:
		if rising {
			b.sr <<= 1
			if b.Data.l {
				b.sr |= 1
			}
		}
		return false
	case roleStrobe:
		if rising {
			return b.latch()
		}
	}
	return false
}

// latch copies the register input stage to the outputs and feeds the LCD
// side. Caller holds b.mu.
func (b *Board) latch() bool {
	b.out = b.sr
	b.latched = append(b.latched, b.out)
	if b.bit(b.opts.RW) {
		b.rwHigh = true
	}

	en := b.bit(b.opts.EN)
	fell := b.prevEN && !en
	b.prevEN = en
	if !fell {
		return false
	}

	// The controller samples RS and the data lines on the enable falling
	// edge.
	rs := b.bit(b.opts.RS)
	var nibble byte
	for i, pos := range []int{b.opts.D4, b.opts.D5, b.opts.D6, b.opts.D7} {
		if b.bit(pos) {
			nibble |= 1 << i
		}
	}

	if b.mode8 {
		// Before the 4-bit switch each enable pulse carries a full
		// instruction on the upper data lines.
		b.havePending = false
		b.execute(rs, nibble<<4)
		return true
	}
	if !b.havePending {
		b.pending = nibble << 4
		b.pendingRS = rs
		b.havePending = true
		return false
	}
	b.havePending = false
	b.execute(b.pendingRS, b.pending|nibble)
	return true
}

func (b *Board) bit(pos int) bool {
	return pos >= 0 && b.out&(1<<pos) != 0
}

// execute runs one complete instruction or data write. Caller holds
// b.mu.
func (b *Board) execute(rs bool, value byte) {
	if rs {
		if !b.cgram {
			b.ddram[b.addr&0x7f] = value
			b.moveAddr()
		}
		return
	}
	switch {
	case value >= 0x80: // set DDRAM address
		b.addr = int(value & 0x7f)
		b.cgram = false
	case value >= 0x40: // set CGRAM address
		b.cgram = true
	case value >= 0x20: // function set
		b.mode8 = value&0x10 != 0
	case value >= 0x10: // cursor/display shift
		if value&0x08 == 0 {
			if value&0x04 != 0 {
				b.addr++
			} else {
				b.addr--
			}
			b.addr &= 0x7f
		}
	case value >= 0x08: // display control
		b.on = value&0x04 != 0
		b.cursor = value&0x02 != 0
		b.blink = value&0x01 != 0
	case value >= 0x04: // entry mode
		b.increment = value&0x02 != 0
	case value >= 0x02: // return home
		b.addr = 0
		b.cgram = false
	case value&0x01 != 0: // clear display
		for i := range b.ddram {
			b.ddram[i] = ' '
		}
		b.addr = 0
		b.cgram = false
		b.increment = true
	}
}

func (b *Board) moveAddr() {
	if b.increment {
		b.addr++
	} else {
		b.addr--
	}
	b.addr &= 0x7f
}

// Latched returns a copy of every byte latched to the register outputs,
// in order.
func (b *Board) Latched() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.latched...)
}

// ResetLatched discards the latch log. State of the register and LCD is
// untouched.
func (b *Board) ResetLatched() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latched = nil
}

// Line returns the visible content of a row, 1-based.
func (b *Board) Line(row int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lineLocked(row)
}

func (b *Board) lineLocked(row int) string {
	if row < 1 || row > b.opts.Rows {
		return ""
	}
	offsets := rowOffsets[0]
	if b.opts.Cols != 16 {
		offsets = rowOffsets[1]
	}
	if row >= len(offsets) {
		return ""
	}
	start := int(offsets[row])
	return string(b.ddram[start : start+b.opts.Cols])
}

// Screen returns the whole panel, rows joined with newlines.
func (b *Board) Screen() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := make([]string, b.opts.Rows)
	for row := 1; row <= b.opts.Rows; row++ {
		lines[row-1] = b.lineLocked(row)
	}
	return strings.Join(lines, "\n")
}

// Backlight returns the level of the backlight output and whether one is
// wired. The level is electrical; polarity is the driver's business.
func (b *Board) Backlight() (gpio.Level, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.opts.Backlight < 0 {
		return gpio.Low, false
	}
	return gpio.Level(b.bit(b.opts.Backlight)), true
}

// Controls returns the display control flags decoded from the command
// stream.
func (b *Board) Controls() (on, cursor, blink bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on, b.cursor, b.blink
}

// Addr returns the current DDRAM address counter.
func (b *Board) Addr() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addr
}

// RWSeenHigh reports whether any latched byte ever drove the LCD R/W
// line high. A write-only driver must keep it low.
func (b *Board) RWSeenHigh() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rwHigh
}

func (b *Board) String() string {
	return "lcdsim.Board"
}
