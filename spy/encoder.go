// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spy

// Encode returns the FrameLen words of the frame window, marker excluded.
// Field values wider than their bit range are truncated.
func Encode(f *Frame) []uint32 {
	win := make([]uint32, FrameLen)
	f.encode(win)
	return win
}

// Append appends a marker and the encoded frame to words.
func Append(words []uint32, f *Frame) []uint32 {
	words = append(words, Marker)
	return append(words, Encode(f)...)
}

func (f *Frame) encode(win []uint32) {
	hdr := &f.Header
	hdrLayout.link.set(win, uint32(hdr.Link))
	hdrLayout.slot.set(win, uint32(hdr.Slot))
	hdrLayout.createID.set(win, uint32(hdr.CreateID))
	hdrLayout.detectorID.set(win, uint32(hdr.DetectorID))
	hdrLayout.version.set(win, uint32(hdr.Version))
	hdrLayout.tsLow.set(win, uint32(hdr.TimeStamp))
	hdrLayout.tsHigh.set(win, uint32(hdr.TimeStamp>>32))
	hdrLayout.ri.set(win, uint32(hdr.RI))
	hdrLayout.algorithm.set(win, uint32(hdr.Algorithm))
	hdrLayout.channel.set(win, uint32(hdr.Channel))
	hdrLayout.baseline.set(win, uint32(hdr.Baseline))

	encodeSamples(win[rawBeg:rawEnd], &f.Samples)

	for i, lay := range peakLayouts {
		p := &f.Peaks[i]
		lay.charge.set(win, p.Charge)
		lay.numPeakOB.set(win, uint32(p.NumPeakOB))
		lay.numPeakUB.set(win, uint32(p.NumPeakUB))
		lay.timePulseOB.set(win, uint32(p.TimePulseOB))
		lay.timePulseUB.set(win, uint32(p.TimePulseUB))
		lay.timePeak.set(win, uint32(p.TimePeak))
		lay.maxPeak.set(win, uint32(p.MaxPeak))
	}
}

func encodeSamples(raw []uint32, src *[NumSamples]uint16) {
	var (
		acc  uint64
		nbit uint
		i    int
	)
	for _, v := range src {
		acc |= uint64(v&sampleMask) << nbit
		nbit += SampleBits
		if nbit >= 32 {
			raw[i] = uint32(acc)
			acc >>= 32
			nbit -= 32
			i++
		}
	}
	if nbit > 0 && i < len(raw) {
		raw[i] = uint32(acc)
	}
}
