// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsink

import "fmt"

// ImageFormat selects the encoding of the panel snapshots sent to
// streaming clients. PNG suits the flat-colored glyph rendering better
// and is the default; JPEG trades fidelity for frame size.
type ImageFormat int

const (
	PNG ImageFormat = iota
	JPEG

	// DefaultFormat applies when neither Options.Format nor the
	// "format" URL parameter selects one.
	DefaultFormat = PNG
)

func (f ImageFormat) String() string {
	switch f {
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	default:
		return fmt.Sprint(int(f))
	}
}

// mimeType returns the media type announced in each multipart part
// carrying a snapshot in this format.
func (f ImageFormat) mimeType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	}
	return "application/octet-stream"
}

// ImageFormatFromString parses the format abbreviation accepted in the
// "format" URL parameter.
func ImageFormatFromString(value string) (ImageFormat, error) {
	switch value {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	}
	return DefaultFormat, fmt.Errorf("unrecognized image format %q, want png, jpg or jpeg", value)
}
