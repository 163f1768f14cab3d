// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-lpc/daphne/spy"
	"go-hep.org/x/hep/lcio"
)

const (
	headerLen = 11
	peakLen   = 7
)

// LCIO2Spy reads back the frames stored in an LCIO stream.
// f is called with each frame, in event order.
func LCIO2Spy(r *lcio.Reader, f func(frame spy.Frame) error) error {
	for r.Next() {
		evt := r.Event()
		frame, err := frameFrom(&evt)
		if err != nil {
			return fmt.Errorf("could not decode event %d: %w", evt.EventNumber, err)
		}
		err = f(frame)
		if err != nil {
			return err
		}
	}

	err := r.Err()
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("could not read LCIO stream: %w", err)
	}
	return nil
}

func frameFrom(evt *lcio.Event) (spy.Frame, error) {
	var frame spy.Frame

	raw, ok := evt.Get(RawCollection).(*lcio.TrackerRawDataContainer)
	if !ok || len(raw.Data) != 1 {
		return frame, fmt.Errorf("missing %s collection", RawCollection)
	}
	if n := len(raw.Data[0].ADCs); n != spy.NumSamples {
		return frame, fmt.Errorf("invalid number of samples (%d)", n)
	}
	copy(frame.Samples[:], raw.Data[0].ADCs)

	hdr, ok := evt.Get(HeaderCollection).(*lcio.GenericObject)
	if !ok || len(hdr.Data) != 1 || len(hdr.Data[0].I32s) != headerLen {
		return frame, fmt.Errorf("missing %s collection", HeaderCollection)
	}
	vs := hdr.Data[0].I32s
	frame.Header = spy.Header{
		Link:       uint8(vs[0]),
		Slot:       uint8(vs[1]),
		CreateID:   uint16(vs[2]),
		DetectorID: uint8(vs[3]),
		Version:    uint8(vs[4]),
		TimeStamp:  uint64(uint32(vs[5])) | uint64(uint32(vs[6]))<<32,
		RI:         uint8(vs[7]),
		Algorithm:  uint8(vs[8]),
		Channel:    uint8(vs[9]),
		Baseline:   uint16(vs[10]),
	}

	peaks, ok := evt.Get(PeaksCollection).(*lcio.GenericObject)
	if !ok || len(peaks.Data) != spy.NumPeaks {
		return frame, fmt.Errorf("missing %s collection", PeaksCollection)
	}
	for i, data := range peaks.Data {
		vs := data.I32s
		if len(vs) != peakLen {
			return frame, fmt.Errorf("invalid peak record %d", i)
		}
		frame.Peaks[i] = spy.Peak{
			Charge:      uint32(vs[0]),
			NumPeakOB:   uint8(vs[1]),
			NumPeakUB:   uint8(vs[2]),
			TimePulseOB: uint16(vs[3]),
			TimePulseUB: uint16(vs[4]),
			TimePeak:    uint16(vs[5]),
			MaxPeak:     uint16(vs[6]),
		}
	}

	return frame, nil
}
