// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

var ErrNotImplemented = errors.New("lcdsim: not implemented")

type pinRole int

const (
	roleData pinRole = iota
	roleClock
	roleStrobe
)

// Pin is one of the board's three inputs. Implements gpio.PinOut.
type Pin struct {
	board  *Board
	name   string
	number int
	role   pinRole
	l      gpio.Level
}

// Out drives the pin and advances the board model on edges.
func (p *Pin) Out(l gpio.Level) error {
	b := p.board
	b.mu.Lock()
	rising := l == gpio.High && p.l == gpio.Low
	p.l = l
	updated := b.step(p, l, rising)
	cb := b.OnUpdate
	b.mu.Unlock()
	if updated && cb != nil {
		cb()
	}
	return nil
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Name returns the name of the pin.
func (p *Pin) Name() string {
	return p.name
}

// Number returns the number of the pin.
func (p *Pin) Number() int {
	return p.number
}

// Deprecated: returns "Out".
func (p *Pin) Function() string {
	return "Out"
}

// PWM is not available on this board.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return ErrNotImplemented
}

func (p *Pin) String() string {
	return p.name
}

var _ gpio.PinOut = &Pin{}
