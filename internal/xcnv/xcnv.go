// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert DAPHNE spy frames to/from LCIO.
//
// Each frame is stored as one LCIO event holding three collections:
//
//   - DAPHNE_RAW: a TrackerRawData with the waveform samples,
//   - DAPHNE_HEADER: a GenericObject with the frame header fields,
//   - DAPHNE_PEAKS: a GenericObject with one record per trailer peak.
package xcnv // import "github.com/go-lpc/daphne/internal/xcnv"

const (
	Detector = "DAPHNE"

	RawCollection    = "DAPHNE_RAW"
	HeaderCollection = "DAPHNE_HEADER"
	PeaksCollection  = "DAPHNE_PEAKS"
)

// cellID packs the readout address of a frame.
func cellID(link, slot, channel uint8) int32 {
	return int32(channel) | int32(link)<<8 | int32(slot)<<16
}
