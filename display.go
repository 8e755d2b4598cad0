// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sr3w

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

const (
	cmdClear          byte = 0x01
	cmdHome           byte = 0x02
	cmdDisplayControl byte = 0x08
	cmdShift          byte = 0x10
	cmdSetDDRAMAddr   byte = 0x80
)

// DDRAM offsets of the first character of each row, 1-based. 16 column
// panels use the first table, everything else the second. On 16x4
// modules rows 3 and 4 continue rows 1 and 2 in DDRAM; wider modules
// interleave them instead.
var rowOffsets = [][]byte{{0, 0, 64, 16, 80}, {0, 0, 64, 20, 84}}

func rowOffset(row, cols int) byte {
	var wide int
	if cols != 16 {
		wide = 1
	}
	return rowOffsets[wide][row]
}

// Not supported by this device. Returns display.ErrNotImplemented.
func (d *Dev) AutoScroll(enabled bool) error {
	return fmt.Errorf("sr3w: %w", display.ErrNotImplemented)
}

// Clear clears the screen and moves the cursor to the first position.
func (d *Dev) Clear() error {
	if err := d.Send(cmdClear, Command); err != nil {
		return err
	}
	time.Sleep(clearDelay)
	return nil
}

// Home moves the cursor to (MinRow(), MinCol()).
func (d *Dev) Home() error {
	if err := d.Send(cmdHome, Command); err != nil {
		return err
	}
	time.Sleep(clearDelay)
	return nil
}

// Cols returns the number of columns the display supports.
func (d *Dev) Cols() int {
	return d.cols
}

// Rows returns the number of rows the display supports.
func (d *Dev) Rows() int {
	return d.rows
}

// MinCol returns the min column position.
func (d *Dev) MinCol() int {
	return 1
}

// MinRow returns the min row position.
func (d *Dev) MinRow() int {
	return 1
}

// Cursor sets the cursor mode. Multiple arguments can be passed.
// Cursor(CursorOff, CursorUnderline)
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	// Resolve all modes before touching the device state so a rejected
	// call leaves the last written display control intact.
	var cursor, blink bool
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
		case display.CursorBlink:
			blink = true
		case display.CursorUnderline:
			cursor = true
		case display.CursorBlock:
			cursor = true
			blink = true
		default:
			return fmt.Errorf("sr3w: unexpected cursor mode %d: %w", mode, display.ErrInvalidCommand)
		}
	}
	d.cursor = cursor
	d.blink = blink
	return d.sendDisplayControl()
}

// Move moves the cursor forward or backward.
func (d *Dev) Move(dir display.CursorDirection) error {
	val := cmdShift
	switch dir {
	case display.Backward:
	case display.Forward:
		val |= 0x04
	case display.Down, display.Up:
		fallthrough
	default:
		return fmt.Errorf("sr3w: %w", display.ErrNotImplemented)
	}
	return d.Send(val, Command)
}

// MoveTo moves the cursor to an arbitrary position. Row and column are
// 1-based.
func (d *Dev) MoveTo(row, col int) error {
	if row < d.MinRow() || row > d.rows || col < d.MinCol() || col > d.cols {
		return fmt.Errorf("sr3w: MoveTo(%d, %d) out of range", row, col)
	}
	addr := rowOffset(row, d.cols) + byte(col-1)
	return d.Send(cmdSetDDRAMAddr|addr, Command)
}

// Display turns the display on or off without losing its content.
func (d *Dev) Display(on bool) error {
	d.on = on
	return d.sendDisplayControl()
}

func (d *Dev) sendDisplayControl() error {
	val := cmdDisplayControl
	if d.on {
		val |= 0x04
	}
	if d.cursor {
		val |= 0x02
	}
	if d.blink {
		val |= 0x01
	}
	return d.Send(val, Command)
}

// Write writes a set of characters to the display at the current cursor
// position.
func (d *Dev) Write(p []byte) (int, error) {
	for n, b := range p {
		if err := d.Send(b, Data); err != nil {
			return n, err
		}
	}
	return len(p), nil
}

// WriteString writes a string output to the display.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// Halt clears the display, turns the backlight off, and turns the
// display off.
func (d *Dev) Halt() error {
	if err := d.Clear(); err != nil {
		return err
	}
	if err := d.Backlight(0); err != nil {
		return err
	}
	return d.Display(false)
}

// String returns info about the display.
func (d *Dev) String() string {
	return fmt.Sprintf("sr3w.Dev{%s, %s, %s, %dx%d}", d.data, d.clk, d.strobe, d.cols, d.rows)
}

var _ display.TextDisplay = &Dev{}
var _ conn.Resource = &Dev{}
