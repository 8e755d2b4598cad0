// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sr3w

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Mode tags a byte passed to Send.
type Mode int

const (
	// Command writes to the LCD instruction register (RS low).
	Command Mode = iota
	// Data writes to the LCD data register (RS high).
	Data
	// FourBits sends only the low nibble of the value, tagged as a
	// command. The HD44780 power-up handshake needs single nibble writes
	// before the controller is switched to 4-bit transfers.
	FourBits
)

func (m Mode) String() string {
	switch m {
	case Command:
		return "Command"
	case Data:
		return "Data"
	case FourBits:
		return "FourBits"
	default:
		return fmt.Sprint(int(m))
	}
}

// Opts maps the shift register outputs onto the LCD lines. All values are
// bit positions (0-7) within the byte shifted into the register.
//
// The driver does not check role bits for overlaps. A pin map assigning
// the same output to two LCD lines corrupts transfers silently; there is
// no acknowledgment channel on a write-only register to detect it.
type Opts struct {
	// EN, RW, RS are the register outputs wired to the LCD enable,
	// read/write and register-select lines. RW is always driven low; the
	// busy flag is never read back.
	EN, RW, RS int

	// D4, D5, D6, D7 are the register outputs wired to the LCD data
	// lines. They can sit on any four bits of the register byte, in any
	// order.
	D4, D5, D6, D7 int

	// Backlight is the register output driving the backlight, or -1 when
	// the backlight is not wired through the register.
	Backlight int
	// Polarity is the backlight drive polarity.
	Polarity Polarity

	// Rows and Cols are the panel dimensions.
	Rows, Cols int
}

// DefaultOpts is the standard SR3W wiring: D4-D7 on outputs 0-3, enable
// on 4, read/write on 5 and register select on 6, 16x2 panel, no
// backlight.
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

const (
	// The register strobe pulse must stay high for at least 450ns. The
	// LCD enable pulse produced across two register loads is far longer
	// than the 450ns the controller needs, so only the strobe has an
	// explicit wait.
	strobePulse = 1 * time.Microsecond
	// Commands need more than 37µs to settle before the next load.
	settleDelay = 40 * time.Microsecond
	// Clear and return-home run the controller's slow path.
	clearDelay = 2 * time.Millisecond
	// Wait after VCC rises before the handshake may start.
	powerOnDelay = 50 * time.Millisecond
)

// Dev is a handle to an LCD behind a 3-wire shift register.
//
// Implements display.TextDisplay, display.DisplayBacklight and
// conn.Resource.
type Dev struct {
	data   gpio.PinOut
	clk    gpio.PinOut
	strobe gpio.PinOut

	// Single-bit masks within the register byte, resolved once from
	// Opts.
	en       byte
	rw       byte
	rs       byte
	dataMask [4]byte

	backlightPin byte
	backlightSts byte
	polarity     Polarity

	rows, cols int
	on         bool
	cursor     bool
	blink      bool
}

// New returns an initialized Dev driving an LCD through the shift
// register connected to the data, clk and strobe pins. A nil opts selects
// DefaultOpts.
//
// The LCD is brought up in 4-bit mode, cleared, and left on with the
// cursor off.
func New(data, clk, strobe gpio.PinOut, opts *Opts) (*Dev, error) {
	if data == nil || clk == nil || strobe == nil {
		return nil, errors.New("sr3w: data, clock and strobe pins are required")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	for _, bit := range []int{opts.EN, opts.RW, opts.RS, opts.D4, opts.D5, opts.D6, opts.D7} {
		if bit < 0 || bit > 7 {
			return nil, fmt.Errorf("sr3w: register output %d out of range", bit)
		}
	}
	if opts.Backlight > 7 {
		return nil, fmt.Errorf("sr3w: register output %d out of range", opts.Backlight)
	}
	rows, cols := opts.Rows, opts.Cols
	if rows == 0 {
		rows = DefaultOpts.Rows
	}
	if cols == 0 {
		cols = DefaultOpts.Cols
	}
	// The row offset tables cover the panels the HD44780 can address.
	if rows < 1 || rows > 4 {
		return nil, fmt.Errorf("sr3w: %d rows out of range", rows)
	}
	if cols < 1 {
		return nil, fmt.Errorf("sr3w: %d columns out of range", cols)
	}
	d := &Dev{
		data:   data,
		clk:    clk,
		strobe: strobe,
		en:     1 << opts.EN,
		rw:     1 << opts.RW,
		rs:     1 << opts.RS,
		dataMask: [4]byte{
			1 << opts.D4,
			1 << opts.D5,
			1 << opts.D6,
			1 << opts.D7,
		},
		polarity: opts.Polarity,
		rows:     rows,
		cols:     cols,
		on:       true,
	}
	if opts.Backlight >= 0 {
		d.backlightPin = 1 << opts.Backlight
	}
	return d, d.init()
}

// Send writes an 8 bit value to the LCD.
//
// For Command and Data the value is split into two nibbles, high nibble
// first as the HD44780 expects in 4-bit transfers. FourBits sends the low
// nibble once, tagged as a command.
func (d *Dev) Send(value byte, mode Mode) error {
	if mode == FourBits {
		return d.write4Bits(value&0x0f, Command)
	}
	if err := d.write4Bits(value>>4, mode); err != nil {
		return err
	}
	return d.write4Bits(value&0x0f, mode)
}

// write4Bits transmits one nibble. Bits 0-3 of value are remapped onto
// the configured data outputs, the register-select and backlight bits are
// merged in, and the byte is latched twice to raise and drop the LCD
// enable line. The falling edge is what makes the controller accept the
// nibble.
func (d *Dev) write4Bits(value byte, mode Mode) error {
	var out byte
	for i := range d.dataMask {
		if value&(1<<i) != 0 {
			out |= d.dataMask[i]
		}
	}
	if mode == Data {
		out |= d.rs
	}
	out |= d.backlightSts
	if err := d.loadSR(out | d.en); err != nil {
		return err
	}
	return d.loadSR(out &^ d.en)
}

// loadSR shifts value into the register MSB first over the data/clock
// pair, then pulses the strobe line to latch it into the output stage.
//
// time.Sleep only guarantees the lower bound of both waits. There is no
// interrupt masking in userspace; an oversized strobe pulse or settle
// time is harmless, a short one is not.
func (d *Dev) loadSR(value byte) error {
	if err := d.shiftOut(value); err != nil {
		return err
	}
	if err := d.strobe.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(strobePulse)
	if err := d.strobe.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(settleDelay)
	return nil
}

func (d *Dev) shiftOut(value byte) error {
	for i := 7; i >= 0; i-- {
		if err := d.data.Out(gpio.Level(value&(1<<i) != 0)); err != nil {
			return err
		}
		if err := d.clk.Out(gpio.High); err != nil {
			return err
		}
		if err := d.clk.Out(gpio.Low); err != nil {
			return err
		}
	}
	return nil
}

// init runs the HD44780U power-up sequence from the datasheet, entirely
// through the Send pipeline: three single-nibble function sets to force
// 8-bit mode from any state, the switch to 4-bit transfers, then function
// set, display control, clear and entry mode.
func (d *Dev) init() error {
	if err := d.clk.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.strobe.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(powerOnDelay)

	if err := d.Send(0x03, FourBits); err != nil {
		return err
	}
	time.Sleep(4500 * time.Microsecond)
	if err := d.Send(0x03, FourBits); err != nil {
		return err
	}
	time.Sleep(150 * time.Microsecond)
	if err := d.Send(0x03, FourBits); err != nil {
		return err
	}
	if err := d.Send(0x02, FourBits); err != nil {
		return err
	}

	functionSet := byte(0x20)
	if d.rows > 1 {
		functionSet |= 0x08
	}
	if err := d.Send(functionSet, Command); err != nil {
		return err
	}
	if err := d.Display(true); err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	// Entry mode: increment, no display shift.
	return d.Send(0x06, Command)
}
