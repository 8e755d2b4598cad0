// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsink

import (
	"image/jpeg"
	"image/png"
	"sync"
)

// pngBufferPool stores reusable png.EncoderBuffer instances shared by
// all displays.
type pngBufferPool sync.Pool

func (p *pngBufferPool) Get() *png.EncoderBuffer {
	buf, _ := (*sync.Pool)(p).Get().(*png.EncoderBuffer)
	return buf
}

func (p *pngBufferPool) Put(buf *png.EncoderBuffer) {
	(*sync.Pool)(p).Put(buf)
}

var pngPool pngBufferPool

var pngEncoder = png.Encoder{
	// Rendered panels are large flat areas; the default level shrinks
	// them well enough without burning CPU per frame.
	CompressionLevel: png.DefaultCompression,
	BufferPool:       &pngPool,
}

var jpegOptions = jpeg.Options{Quality: 90}
