// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsink

import (
	"errors"
	"image"
	"testing"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
)

func TestNewHalt(t *testing.T) {
	d, err := New(&Options{Rows: 4, Cols: 20})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := d.Bounds().Size(), (image.Point{20*cellW + 2*margin, 4*cellH + 2*margin}); got != want {
		t.Errorf("Bounds().Size() = %v, want %v", got, want)
	}
	if got := d.String(); got != "LCDSink{20x4}" {
		t.Errorf("String() = %q", got)
	}
	if err := d.Halt(); err != nil {
		t.Errorf("Halt() failed: %v", err)
	}
}

func TestPanelContent(t *testing.T) {
	d, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.WriteString("Hello"); err != nil {
		t.Fatal(err)
	}
	if err := d.MoveTo(1, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := d.WriteString("!"); err != nil {
		t.Fatal(err)
	}
	if got := string(d.cells); got != "Hello             !             " {
		t.Errorf("cells: %q", got)
	}
	if err := d.Clear(); err != nil {
		t.Fatal(err)
	}
	if got := string(d.cells); got != "                                " {
		t.Errorf("cells after clear: %q", got)
	}
}

func TestRender(t *testing.T) {
	d, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.WriteString("A"); err != nil {
		t.Fatal(err)
	}
	dark := d.renderLocked()
	if got, want := dark.Bounds(), d.Bounds(); got != want {
		t.Errorf("rendered bounds %v, want %v", got, want)
	}
	if err := d.Backlight(0xff); err != nil {
		t.Fatal(err)
	}
	lit := d.renderLocked()
	// The glass color in the margin area tracks the backlight.
	if dark.At(1, 1) == lit.At(1, 1) {
		t.Error("backlight change did not alter the glass color")
	}
	if err := d.Display(false); err != nil {
		t.Fatal(err)
	}
	off := d.renderLocked()
	// With the display off only the glass is drawn; the whole image is a
	// single color.
	want := off.At(1, 1)
	b := off.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += 7 {
		for x := b.Min.X; x < b.Max.X; x += 7 {
			if off.At(x, y) != want {
				t.Fatalf("pixel (%d, %d) drawn while the display is off", x, y)
			}
		}
	}
}

func TestSnapshotCache(t *testing.T) {
	d, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg := imageConfig{format: PNG}
	first := d.grabSnapshot(cfg)
	if len(first) == 0 {
		t.Fatal("empty snapshot")
	}
	d.mu.Lock()
	if _, ok := d.snapshot[cfg]; !ok {
		t.Error("snapshot not cached")
	}
	d.mu.Unlock()
	if _, err := d.WriteString("x"); err != nil {
		t.Fatal(err)
	}
	d.mu.Lock()
	if len(d.snapshot) != 0 {
		t.Error("snapshot cache not invalidated by a write")
	}
	d.mu.Unlock()
}

func TestInterface(t *testing.T) {
	d, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = d.Halt() }()
	errs := displaytest.TestTextDisplay(d, false)
	for _, err := range errs {
		if !errors.Is(err, display.ErrNotImplemented) {
			t.Error(err)
		}
	}
}
