// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sr3w controls a Hitachi HD44780 compatible character LCD wired
// in 4-bit mode behind a 3-wire latching shift register.
//
// The driver owns three MCU output lines (data, clock, strobe) connected
// to a 74HC595 or another latching shift register such as the MC14094 or
// HEF4094. The register outputs fan out into the LCD control and data
// lines. Which register output drives which LCD line is configurable; the
// default matches the common SR3W wiring:
//
//	+--------------------------------------------+
//	|                 MCU                        |
//	|   IO1           IO2           IO3          |
//	+----+-------------+-------------+-----------+
//	     |             |             |
//	+----+-------------+-------------+-----------+
//	|    Strobe        Data          Clock       |
//	|          8-bit shift/latch register        |
//	|    Q0   Q1   Q2   Q3   Q4   Q5   Q6   Q7   |
//	+----+----+----+----+----+----+----+----+----+
//	     |    |    |    |    |    |    |
//	+----+----+----+----+----+----+----+---------+
//	|    DB4  DB5  DB6  DB7  E    Rw   RS        |
//	|                 LCD Module                 |
//	+--------------------------------------------+
//
// An eighth register output can drive the LCD backlight, with either
// drive polarity.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package sr3w
