// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sr3w

import (
	"fmt"

	"periph.io/x/conn/v3/display"
)

// Polarity is the electrical sense of the backlight output.
type Polarity int

const (
	// Positive turns the backlight on when the register bit is set.
	Positive Polarity = iota
	// Negative turns the backlight on when the register bit is cleared.
	Negative
)

func (p Polarity) String() string {
	switch p {
	case Positive:
		return "Positive"
	case Negative:
		return "Negative"
	default:
		return fmt.Sprint(int(p))
	}
}

// SetBacklightPin assigns a register output to the backlight. It can be
// called at any time; the new wiring takes effect on the next write. A
// bit outside 0-7 detaches the backlight.
func (d *Dev) SetBacklightPin(bit int, pol Polarity) {
	d.backlightPin = 0
	if bit >= 0 && bit < 8 {
		d.backlightPin = 1 << bit
	}
	d.polarity = pol
}

// Backlight turns the backlight on (any non-zero intensity) or off. The
// output is a single register bit, so intermediate intensities are not
// available.
//
// The new state is latched immediately with a register load carrying only
// the backlight bit, so it shows without waiting for the next LCD
// command. Do not call it between the two nibble halves of a byte
// transfer; the load would tear that transfer.
//
// A no-op when no backlight output is configured.
func (d *Dev) Backlight(intensity display.Intensity) error {
	if d.backlightPin == 0 {
		return nil
	}
	if (d.polarity == Positive) == (intensity > 0) {
		d.backlightSts = d.backlightPin
	} else {
		d.backlightSts = 0
	}
	return d.loadSR(d.backlightSts)
}

var _ display.DisplayBacklight = &Dev{}
