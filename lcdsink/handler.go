// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsink

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"image/jpeg"
	"io"
	"log"
	"mime"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"sync"
)

// bufferPool stores reusable []byte instances.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return []byte(nil)
	},
}

type imageConfig struct {
	format ImageFormat
}

func (d *Display) configFromQuery(values url.Values) (imageConfig, error) {
	cfg := imageConfig{
		format: d.defaultFormat,
	}
	if value := values.Get("format"); value != "" {
		format, err := ImageFormatFromString(value)
		if err != nil {
			return imageConfig{}, err
		}
		cfg.format = format
	}
	return cfg, nil
}

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

// changedLocked invalidates cached snapshots and pokes every streaming
// client. Caller holds d.mu.
func (d *Display) changedLocked() {
	for cfg, buffer := range d.snapshot {
		if buffer != nil {
			//lint:ignore SA6002 buffer is []byte and thus pointer-like
			bufferPool.Put(buffer)
		}
		delete(d.snapshot, cfg)
	}
	for c := range d.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
}

func (d *Display) terminateClientsLocked() {
	for c := range d.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
}

func (d *Display) encodeLocked(format ImageFormat) ([]byte, error) {
	img := d.renderLocked()
	buf := bytes.NewBuffer(bufferPool.Get().([]byte)[:0])

	switch format {
	case PNG:
		if err := pngEncoder.Encode(buf, img); err != nil {
			return nil, err
		}
	case JPEG:
		if err := jpeg.Encode(buf, img, &jpegOptions); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unhandled image format %s", format)
	}
	return buf.Bytes(), nil
}

func (d *Display) grabSnapshot(cfg imageConfig) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	encoded, ok := d.snapshot[cfg]
	if !ok {
		var err error
		encoded, err = d.encodeLocked(cfg.format)
		if err != nil {
			panic(fmt.Sprintf("encoding image failed: %v", err))
		}
		d.snapshot[cfg] = encoded
	}
	return append(bufferPool.Get().([]byte)[:0], encoded...)
}

// randomBoundary generates a MIME multipart boundary compatible with RFC
// 2046 (section 5.1.1).
func randomBoundary() string {
	var buf [34]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", buf[:])
}

// frameWriter emits a neverending stream of MIME multipart parts, one
// per panel frame. "mime/multipart".Writer is unsuitable because each
// part must be flushed to the client with the part-ending boundary line
// while the stream stays open.
type frameWriter struct {
	u        io.Writer
	boundary string
	started  bool
}

// writeFrame sends a single part, fully written by the time the function
// returns. The caller-owned headers are modified to set Content-Length.
func (w *frameWriter) writeFrame(header textproto.MIMEHeader, body []byte) error {
	header.Set("Content-Length", strconv.FormatInt(int64(len(body)), 10))

	var buf bytes.Buffer
	if !w.started {
		fmt.Fprintf(&buf, "--%s\r\n", w.boundary)
		w.started = true
	}
	for name := range header {
		for _, value := range header[name] {
			fmt.Fprintf(&buf, "%s: %s\r\n", name, value)
		}
	}
	buf.WriteString("\r\n")

	_, err := buf.WriteTo(w.u)
	if err == nil {
		_, err = io.Copy(w.u, bytes.NewReader(body))
		if err == nil {
			_, err = fmt.Fprintf(w.u, "\r\n--%s\r\n", w.boundary)
		}
	}
	return err
}

// ServeHTTP handles HTTP GET requests and sends a stream of images
// representing the rendered panel in response. The display options
// control the default format and clients can explicitly request PNG or
// JPEG images using the "format" parameter ("?format=png",
// "?format=jpeg").
func (d *Display) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.Body.Close(); err != nil {
		log.Printf("Closing request body failed: %v", err)
	}

	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	cfg, err := d.configFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fw := frameWriter{u: w, boundary: randomBoundary()}

	w.Header().Set("Content-Type",
		mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
			"boundary": fw.boundary,
		}))

	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}

	d.mu.Lock()
	d.clients[c] = struct{}{}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.clients, c)
		d.mu.Unlock()
	}()

	partHeaders := make(textproto.MIMEHeader)
	partHeaders.Set("Content-Type", mime.FormatMediaType(cfg.format.mimeType(), nil))
	partHeaders.Set("Content-Transfer-Encoding", "binary")

	for {
		payload := d.grabSnapshot(cfg)
		err := fw.writeFrame(partHeaders, payload)

		if payload != nil {
			//lint:ignore SA6002 buffer is []byte and thus pointer-like
			bufferPool.Put(payload)
		}

		if err != nil {
			// Errors cause the request to be silently terminated. There's
			// no good way to deliver an error message to the client within
			// an image stream.
			return
		}

		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		select {
		case <-c.refresh:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}
