// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsink provides a character LCD emulator implementing an HTTP
// request handler. Client requests get an initial snapshot of the
// rendered panel and are updated further on every change.
//
// The primary use case is the development of panel layouts on a host
// machine. Additionally devices with network connectivity can use this
// emulator to publish a copy of their local display via a web interface.
//
// The protocol used is "MJPEG" (https://en.wikipedia.org/wiki/Motion_JPEG)
// which is often used by IP cameras. Because of its better suitability
// for computer-drawn graphics the PNG image format is used by default.
// JPEG can be selected via Options.Format or using the "format" URL
// parameter.
package lcdsink

import (
	"bytes"
	"fmt"
	"image"
	"net/http"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

// Geometry of the rendered panel. Each character cell is cellW x cellH
// pixels, the whole panel has a margin on every side.
const (
	cellW  = 14
	cellH  = 22
	margin = 10
)

// Options for lcdsink devices.
type Options struct {
	// Rows and Cols are the emulated panel dimensions.
	Rows, Cols int

	// Format specifies the image format to send to clients.
	Format ImageFormat
}

// Display is a character LCD emulator whose rendered image is served
// over HTTP.
//
// Implements display.TextDisplay, display.DisplayBacklight and
// http.Handler.
type Display struct {
	defaultFormat ImageFormat
	rows, cols    int
	face          font.Face

	mu        sync.Mutex
	cells     []byte
	row, col  int
	on        bool
	backlight bool
	clients   map[*client]struct{}
	snapshot  map[imageConfig][]byte
}

var _ display.TextDisplay = (*Display)(nil)
var _ display.DisplayBacklight = (*Display)(nil)
var _ conn.Resource = (*Display)(nil)
var _ http.Handler = (*Display)(nil)

// New creates a new lcdsink device instance.
func New(opt *Options) (*Display, error) {
	rows, cols := 2, 16
	var format ImageFormat
	if opt != nil {
		if opt.Rows > 0 {
			rows = opt.Rows
		}
		if opt.Cols > 0 {
			cols = opt.Cols
		}
		format = opt.Format
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("lcdsink: %w", err)
	}
	return &Display{
		defaultFormat: format,
		rows:          rows,
		cols:          cols,
		face:          truetype.NewFace(f, &truetype.Options{Size: 15}),
		cells:         bytes.Repeat([]byte{' '}, rows*cols),
		on:            true,
		clients:       map[*client]struct{}{},
		snapshot:      map[imageConfig][]byte{},
	}, nil
}

// String returns the name of the device.
func (d *Display) String() string {
	return fmt.Sprintf("LCDSink{%dx%d}", d.cols, d.rows)
}

// Halt implements conn.Resource and terminates all running client
// requests asynchronously.
func (d *Display) Halt() error {
	d.mu.Lock()
	d.terminateClientsLocked()
	d.mu.Unlock()
	return nil
}

// Bounds returns the pixel dimensions of the rendered panel image.
func (d *Display) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.cols*cellW+2*margin, d.rows*cellH+2*margin)
}

// renderLocked draws the panel into a fresh image: the glass colored by
// backlight state, the characters only while the display is on.
func (d *Display) renderLocked() image.Image {
	b := d.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	if d.backlight {
		dc.SetRGB(0.60, 0.82, 0.22)
	} else {
		dc.SetRGB(0.16, 0.18, 0.13)
	}
	dc.Clear()
	if d.on {
		if d.backlight {
			dc.SetRGB(0.08, 0.11, 0.04)
		} else {
			dc.SetRGB(0.52, 0.56, 0.46)
		}
		dc.SetFontFace(d.face)
		for row := 0; row < d.rows; row++ {
			for col := 0; col < d.cols; col++ {
				ch := d.cells[row*d.cols+col]
				if ch == ' ' {
					continue
				}
				x := float64(margin+col*cellW) + cellW/2
				y := float64(margin+row*cellH) + cellH/2
				dc.DrawStringAnchored(string(rune(ch)), x, y, 0.5, 0.5)
			}
		}
	}
	return dc.Image()
}

// AutoScroll is not supported by this emulator.
func (d *Display) AutoScroll(enabled bool) error {
	return fmt.Errorf("lcdsink: %w", display.ErrNotImplemented)
}

// Clear blanks the panel and moves the cursor home.
func (d *Display) Clear() error {
	d.mu.Lock()
	for i := range d.cells {
		d.cells[i] = ' '
	}
	d.row, d.col = 0, 0
	d.changedLocked()
	d.mu.Unlock()
	return nil
}

// Home moves the cursor to (MinRow(), MinCol()).
func (d *Display) Home() error {
	d.mu.Lock()
	d.row, d.col = 0, 0
	d.mu.Unlock()
	return nil
}

// Cols returns the number of columns the emulated panel supports.
func (d *Display) Cols() int {
	return d.cols
}

// Rows returns the number of rows the emulated panel supports.
func (d *Display) Rows() int {
	return d.rows
}

// MinCol returns the min column position.
func (d *Display) MinCol() int {
	return 0
}

// MinRow returns the min row position.
func (d *Display) MinRow() int {
	return 0
}

// Cursor accepts the cursor modes for interface compatibility. The
// emulator does not draw a cursor.
func (d *Display) Cursor(modes ...display.CursorMode) error {
	for _, mode := range modes {
		switch mode {
		case display.CursorOff, display.CursorBlink, display.CursorUnderline, display.CursorBlock:
		default:
			return fmt.Errorf("lcdsink: unexpected cursor mode %d: %w", mode, display.ErrInvalidCommand)
		}
	}
	return nil
}

// Move moves the cursor forward or backward.
func (d *Display) Move(dir display.CursorDirection) error {
	d.mu.Lock()
	defer d.mu.Unlock()
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
		return fmt.Errorf("lcdsink: %w", display.ErrNotImplemented)
	}
	return nil
}

// MoveTo moves the cursor to an arbitrary position. Row and column are
// 0-based.
func (d *Display) MoveTo(row, col int) error {
	if row < 0 || row >= d.rows || col < 0 || col >= d.cols {
		return fmt.Errorf("lcdsink: MoveTo(%d, %d) out of range", row, col)
	}
	d.mu.Lock()
	d.row, d.col = row, col
	d.mu.Unlock()
	return nil
}

// Display turns the panel rendering on or off without losing its
// content.
func (d *Display) Display(on bool) error {
	d.mu.Lock()
	d.on = on
	d.changedLocked()
	d.mu.Unlock()
	return nil
}

// Write writes characters at the cursor position, wrapping to the next
// row at the right edge and back to the top past the last row.
func (d *Display) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
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
	d.changedLocked()
	return len(p), nil
}

// WriteString writes a string output to the emulated panel.
func (d *Display) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// Backlight turns the emulated backlight on (any non-zero intensity) or
// off, which changes the panel color.
func (d *Display) Backlight(intensity display.Intensity) error {
	d.mu.Lock()
	d.backlight = intensity > 0
	d.changedLocked()
	d.mu.Unlock()
	return nil
}
