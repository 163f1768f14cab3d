// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spy

import "fmt"

// Markers returns the positions of all the frame markers in words.
func Markers(words []uint32) []int {
	var pos []int
	for i, w := range words {
		if w == Marker {
			pos = append(pos, i)
		}
	}
	return pos
}

// Decode decodes all the complete frames held in the first size words
// of a capture.
//
// A frame whose window does not fit in the capture is skipped.
// Decode returns an empty slice when no marker is found.
func Decode(words []uint32, size int) []Frame {
	var frames []Frame
	for _, p := range Markers(words) {
		end := p + FrameLen
		if end > size || end >= len(words) {
			continue
		}
		var f Frame
		f.decode(words[p+1 : end+1])
		frames = append(frames, f)
	}
	return frames
}

// DecodeFrame decodes a single frame window, marker excluded.
func DecodeFrame(win []uint32) (Frame, error) {
	var f Frame
	if len(win) != FrameLen {
		return f, fmt.Errorf("spy: invalid frame window size (%d words)", len(win))
	}
	f.decode(win)
	return f, nil
}

func (f *Frame) decode(win []uint32) {
	f.Header = Header{
		Link:       uint8(hdrLayout.link.get(win)),
		Slot:       uint8(hdrLayout.slot.get(win)),
		CreateID:   uint16(hdrLayout.createID.get(win)),
		DetectorID: uint8(hdrLayout.detectorID.get(win)),
		Version:    uint8(hdrLayout.version.get(win)),
		TimeStamp: uint64(hdrLayout.tsHigh.get(win))<<32 |
			uint64(hdrLayout.tsLow.get(win)),
		RI:        uint8(hdrLayout.ri.get(win)),
		Algorithm: uint8(hdrLayout.algorithm.get(win)),
		Channel:   uint8(hdrLayout.channel.get(win)),
		Baseline:  uint16(hdrLayout.baseline.get(win)),
	}

	decodeSamples(&f.Samples, win[rawBeg:rawEnd])

	for i, lay := range peakLayouts {
		f.Peaks[i] = Peak{
			Charge:      lay.charge.get(win),
			NumPeakOB:   uint8(lay.numPeakOB.get(win)),
			NumPeakUB:   uint8(lay.numPeakUB.get(win)),
			TimePulseOB: uint16(lay.timePulseOB.get(win)),
			TimePulseUB: uint16(lay.timePulseUB.get(win)),
			TimePeak:    uint16(lay.timePeak.get(win)),
			MaxPeak:     uint16(lay.maxPeak.get(win)),
		}
	}
}

// decodeSamples unpacks the raw-data region.
//
// The region is read as one bit string where each word is prepended to the
// previous ones: the first raw word holds the least significant bits.
// Sample 0 is the least significant 14 bits of that string.
func decodeSamples(dst *[NumSamples]uint16, raw []uint32) {
	var (
		acc  uint64
		nbit uint
		j    int
	)
	for _, w := range raw {
		acc |= uint64(w) << nbit
		nbit += 32
		for nbit >= SampleBits && j < NumSamples {
			dst[j] = uint16(acc & sampleMask)
			acc >>= SampleBits
			nbit -= SampleBits
			j++
		}
	}
}
