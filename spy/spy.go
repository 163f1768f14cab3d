// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spy decodes the self-triggered frames captured by the DAPHNE
// output spy buffer.
//
// A capture is a flat sequence of 32-bit words. Each frame starts one word
// after a Marker word and spans FrameLen words:
//
//	offset   0-4    header
//	offset   5-452  raw waveform, 1024 packed 14-bit samples
//	offset 453-465  trailer, 5 peak records
package spy // import "github.com/go-lpc/daphne/spy"

import (
	"gonum.org/v1/gonum/stat"
)

const (
	Marker = 0x0000003c // start-of-frame marker

	FrameLen   = 466 // number of words in a frame, marker excluded
	NumSamples = 1024
	NumPeaks   = 5
	SampleBits = 14

	hdrLen     = 5
	rawBeg     = hdrLen // first raw-data word
	rawEnd     = 453    // one past the last raw-data word
	trailerBeg = rawEnd // first trailer word
	trailerLen = 13
	sampleMask = 1<<SampleBits - 1
)

// Header is the frame header.
type Header struct {
	Link       uint8
	Slot       uint8
	CreateID   uint16
	DetectorID uint8
	Version    uint8
	TimeStamp  uint64
	RI         uint8
	Algorithm  uint8
	Channel    uint8
	Baseline   uint16
}

// Peak is a peak record from the frame trailer.
// OB and UB stand for over-baseline and under-baseline.
type Peak struct {
	Charge      uint32
	NumPeakOB   uint8
	NumPeakUB   uint8
	TimePulseOB uint16
	TimePulseUB uint16
	TimePeak    uint16
	MaxPeak     uint16
}

// Frame is a decoded self-triggered frame.
type Frame struct {
	Header  Header
	Samples [NumSamples]uint16
	Peaks   [NumPeaks]Peak
}

// Pedestal returns the mean and standard deviation of the waveform samples.
func (f *Frame) Pedestal() (mean, rms float64) {
	xs := make([]float64, len(f.Samples))
	for i, v := range f.Samples {
		xs[i] = float64(v)
	}
	return stat.MeanStdDev(xs, nil)
}
