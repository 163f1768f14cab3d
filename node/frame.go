// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node

import (
	"bytes"
	"fmt"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/daphne/spy"
)

// MarshalFrame encodes a spy frame into a tdaq message body:
// the number of words of the frame window followed by the window words.
func MarshalFrame(f *spy.Frame) ([]byte, error) {
	var (
		buf = new(bytes.Buffer)
		enc = tdaq.NewEncoder(buf)
		win = spy.Encode(f)
	)
	enc.WriteU32(uint32(len(win)))
	for _, w := range win {
		enc.WriteU32(w)
	}
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("node: could not encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalFrame decodes a spy frame from a tdaq message body.
func UnmarshalFrame(p []byte) (spy.Frame, error) {
	var (
		dec = tdaq.NewDecoder(bytes.NewReader(p))
		n   = dec.ReadU32()
	)
	if err := dec.Err(); err != nil {
		return spy.Frame{}, fmt.Errorf("node: could not decode frame size: %w", err)
	}
	if n != spy.FrameLen {
		return spy.Frame{}, fmt.Errorf("node: invalid frame size %d", n)
	}

	win := make([]uint32, n)
	for i := range win {
		win[i] = dec.ReadU32()
	}
	if err := dec.Err(); err != nil {
		return spy.Frame{}, fmt.Errorf("node: could not decode frame: %w", err)
	}

	return spy.DecodeFrame(win)
}
