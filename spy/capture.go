// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spy

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadCapture reads a raw capture file: a sequence of little-endian
// 32-bit words.
func ReadCapture(r io.Reader) ([]uint32, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("spy: could not read capture: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("spy: invalid capture size (%d bytes)", len(raw))
	}

	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return words, nil
}

// WriteCapture writes words as a raw capture file.
func WriteCapture(w io.Writer, words []uint32) error {
	buf := make([]byte, 4*len(words))
	for i, v := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	_, err := w.Write(buf)
	if err != nil {
		return fmt.Errorf("spy: could not write capture: %w", err)
	}
	return nil
}

// DecodeCaptures decodes a sequence of consecutive captures of n words each.
// Frames never span two captures.
func DecodeCaptures(words []uint32, n int) []Frame {
	if n <= 0 {
		n = len(words)
	}
	var frames []Frame
	for len(words) > 0 {
		sz := n
		if sz > len(words) {
			sz = len(words)
		}
		frames = append(frames, Decode(words[:sz], sz)...)
		words = words[sz:]
	}
	return frames
}
