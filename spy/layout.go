// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spy

// field is the bit range [beg, end) of a frame word.
// Bit 0 is the most significant bit of the word.
type field struct {
	word uint16 // offset in the frame window
	beg  uint8
	end  uint8
}

func (f field) width() uint8 { return f.end - f.beg }

func (f field) mask() uint32 {
	return uint32(1)<<f.width() - 1
}

func (f field) get(win []uint32) uint32 {
	return (win[f.word] >> (32 - f.end)) & f.mask()
}

func (f field) set(win []uint32, v uint32) {
	var (
		shift = 32 - f.end
		mask  = f.mask() << shift
	)
	win[f.word] = (win[f.word] &^ mask) | ((v << shift) & mask)
}

// hdr returns a field of header word i.
func hdr(i uint16, beg, end uint8) field {
	return field{word: i, beg: beg, end: end}
}

// trl returns a field of trailer word i.
func trl(i uint16, beg, end uint8) field {
	return field{word: trailerBeg + i, beg: beg, end: end}
}

var hdrLayout = struct {
	link       field
	slot       field
	createID   field
	detectorID field
	version    field
	tsLow      field
	tsHigh     field
	ri         field
	algorithm  field
	channel    field
	baseline   field
}{
	link:       hdr(0, 0, 6),
	slot:       hdr(0, 6, 10),
	createID:   hdr(0, 10, 20),
	detectorID: hdr(0, 20, 26),
	version:    hdr(0, 26, 32),
	tsLow:      hdr(1, 0, 32),
	tsHigh:     hdr(2, 0, 32),
	ri:         hdr(3, 16, 17),
	algorithm:  hdr(3, 22, 26),
	channel:    hdr(3, 26, 32),
	baseline:   hdr(4, 2, 16),
}

type peakLayout struct {
	charge      field
	numPeakOB   field
	numPeakUB   field
	timePeak    field
	maxPeak     field
	timePulseUB field
	timePulseOB field
}

// peakLayouts holds the trailer layout of each peak record.
// Time_Pulse_OB of peak 1 is 11 bits wide.
var peakLayouts = [NumPeaks]peakLayout{
	{
		charge:      trl(0, 1, 24),
		numPeakOB:   trl(0, 24, 28),
		numPeakUB:   trl(0, 28, 32),
		timePeak:    trl(1, 9, 18),
		maxPeak:     trl(1, 18, 32),
		timePulseUB: trl(1, 0, 9),
		timePulseOB: trl(10, 0, 10),
	},
	{
		charge:      trl(2, 1, 24),
		numPeakOB:   trl(2, 24, 28),
		numPeakUB:   trl(2, 28, 32),
		timePeak:    trl(3, 9, 18),
		maxPeak:     trl(3, 18, 32),
		timePulseUB: trl(3, 0, 9),
		timePulseOB: trl(10, 10, 21),
	},
	{
		charge:      trl(4, 1, 24),
		numPeakOB:   trl(4, 24, 28),
		numPeakUB:   trl(4, 28, 32),
		timePeak:    trl(5, 9, 18),
		maxPeak:     trl(5, 18, 32),
		timePulseUB: trl(5, 0, 9),
		timePulseOB: trl(10, 21, 31),
	},
	{
		charge:      trl(6, 1, 24),
		numPeakOB:   trl(6, 24, 28),
		numPeakUB:   trl(6, 28, 32),
		timePeak:    trl(7, 9, 18),
		maxPeak:     trl(7, 18, 32),
		timePulseUB: trl(7, 0, 9),
		timePulseOB: trl(11, 0, 10),
	},
	{
		charge:      trl(8, 1, 24),
		numPeakOB:   trl(8, 24, 28),
		numPeakUB:   trl(8, 28, 32),
		timePeak:    trl(9, 9, 18),
		maxPeak:     trl(9, 18, 32),
		timePulseUB: trl(9, 0, 9),
		timePulseOB: trl(11, 10, 21),
	},
}
