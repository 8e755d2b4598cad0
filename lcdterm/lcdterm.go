// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdterm implements a character LCD emulator that outputs to
// terminal (stdout) using ANSI color codes.
//
// Useful while you are waiting for your display to come by mail, or to
// develop panel layouts on a machine without GPIOs.
package lcdterm

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	// Rows and Cols are the emulated panel dimensions.
	Rows, Cols int
	Palette    *ansi256.Palette

	_ struct{}
}

var (
	backlightOn  = color.NRGBA{R: 154, G: 208, B: 56, A: 255}
	backlightOff = color.NRGBA{R: 40, G: 44, B: 34, A: 255}
)

// Dev is a character LCD emulator that outputs to the console.
//
// Implements display.TextDisplay and display.DisplayBacklight.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette

	rows, cols int
	cells      []byte
	row, col   int
	on         bool
	backlight  bool
	started    bool
	buf        bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	return NewWriter(colorable.NewColorableStdout(), opts)
}

// NewWriter returns a Dev rendering to an arbitrary writer. The writer
// must understand ANSI escape sequences.
func NewWriter(w io.Writer, opts *Opts) *Dev {
	rows, cols := 2, 16
	var p *ansi256.Palette
	if opts != nil {
		if opts.Rows > 0 {
			rows = opts.Rows
		}
		if opts.Cols > 0 {
			cols = opts.Cols
		}
		p = opts.Palette
	}
	if p == nil {
		p = ansi256.Default
	}
	d := &Dev{
		w:       w,
		palette: *p,
		rows:    rows,
		cols:    cols,
		cells:   bytes.Repeat([]byte{' '}, rows*cols),
		on:      true,
	}
	d.refresh()
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("LCDTerm{%dx%d}", d.cols, d.rows)
}

// Halt implements conn.Resource.
//
// It drops out of the frame so the terminal is left usable.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// AutoScroll is not supported by this emulator.
func (d *Dev) AutoScroll(enabled bool) error {
	return fmt.Errorf("lcdterm: %w", display.ErrNotImplemented)
}

// Clear blanks the panel and moves the cursor home.
func (d *Dev) Clear() error {
	for i := range d.cells {
		d.cells[i] = ' '
	}
	d.row, d.col = 0, 0
	return d.refresh()
}

// Home moves the cursor to (MinRow(), MinCol()).
func (d *Dev) Home() error {
	d.row, d.col = 0, 0
	return nil
}

// Cols returns the number of columns the emulated panel supports.
func (d *Dev) Cols() int {
	return d.cols
}

// Rows returns the number of rows the emulated panel supports.
func (d *Dev) Rows() int {
	return d.rows
}

// MinCol returns the min column position.
func (d *Dev) MinCol() int {
	return 0
}

// MinRow returns the min row position.
func (d *Dev) MinRow() int {
	return 0
}

// Cursor accepts the cursor modes for interface compatibility. The
// emulator does not draw a cursor.
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	for _, mode := range modes {
		switch mode {
		case display.CursorOff, display.CursorBlink, display.CursorUnderline, display.CursorBlock:
		default:
			return fmt.Errorf("lcdterm: unexpected cursor mode %d: %w", mode, display.ErrInvalidCommand)
		}
	}
	return nil
}

// Move moves the cursor forward or backward.
func (d *Dev) Move(dir display.CursorDirection) error {
	switch dir {
	case display.Backward:
		if d.col > 0 {
			d.col--
		}
	case display.Forward:
		if d.col < d.cols-1 {
			d.col++
		}
	case display.Down, display.Up:
		fallthrough
	default:
		return fmt.Errorf("lcdterm: %w", display.ErrNotImplemented)
	}
	return nil
}

// MoveTo moves the cursor to an arbitrary position. Row and column are
// 0-based.
func (d *Dev) MoveTo(row, col int) error {
	if row < 0 || row >= d.rows || col < 0 || col >= d.cols {
		return fmt.Errorf("lcdterm: MoveTo(%d, %d) out of range", row, col)
	}
	d.row, d.col = row, col
	return nil
}

// Display turns the panel rendering on or off without losing its
// content.
func (d *Dev) Display(on bool) error {
	d.on = on
	return d.refresh()
}

// Write writes characters at the cursor position, wrapping to the next
// row at the right edge and back to the top past the last row.
func (d *Dev) Write(p []byte) (int, error) {
	for _, b := range p {
		if d.row >= d.rows {
			d.row = 0
		}
		d.cells[d.row*d.cols+d.col] = b
		d.col++
		if d.col >= d.cols {
			d.col = 0
			d.row++
		}
	}
	return len(p), d.refresh()
}

// WriteString writes a string output to the emulated panel.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// Backlight turns the emulated backlight on (any non-zero intensity) or
// off, which changes the panel color.
func (d *Dev) Backlight(intensity display.Intensity) error {
	d.backlight = intensity > 0
	return d.refresh()
}

// refresh redraws the whole panel in place, moving the cursor back up
// over the previous frame first.
func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated
	// per call.
	d.buf.Reset()
	if d.started {
		fmt.Fprintf(&d.buf, "\033[%dA", d.rows+2)
	}
	d.started = true

	bl := backlightOff
	if d.backlight {
		bl = backlightOn
	}
	border := strings.Repeat(d.palette.Block(bl), d.cols+2)

	cellColors := "\033[37;40m"
	if d.backlight {
		cellColors = "\033[30;102m"
	}

	_, _ = d.buf.WriteString("\r\033[0m" + border + "\033[0m\n")
	for row := 0; row < d.rows; row++ {
		_, _ = d.buf.WriteString(d.palette.Block(bl))
		_, _ = d.buf.WriteString(cellColors)
		line := d.cells[row*d.cols : (row+1)*d.cols]
		if d.on {
			_, _ = d.buf.Write(line)
		} else {
			_, _ = d.buf.WriteString(strings.Repeat(" ", d.cols))
		}
		_, _ = d.buf.WriteString("\033[0m" + d.palette.Block(bl) + "\033[0m\n")
	}
	_, _ = d.buf.WriteString("\r\033[0m" + border + "\033[0m\n")
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ conn.Resource = &Dev{}
