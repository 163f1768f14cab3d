// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"fmt"
	"log"

	"github.com/go-lpc/daphne/spy"
	"go-hep.org/x/hep/lcio"
)

// Spy2LCIO writes frames as LCIO events of the provided run.
func Spy2LCIO(w *lcio.Writer, frames []spy.Frame, run int32, msg *log.Logger) error {
	err := w.WriteRunHeader(&lcio.RunHeader{
		RunNumber: run,
		Detector:  Detector,
		Descr:     "DAPHNE self-triggered frames",
		Params: lcio.Params{
			Ints: map[string][]int32{
				"Samples": {spy.NumSamples},
				"Peaks":   {spy.NumPeaks},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("could not write run header: %w", err)
	}

	for i := range frames {
		if i%100 == 0 {
			msg.Printf("processing frame %d...", i)
		}
		f := &frames[i]
		evt := lcio.Event{
			RunNumber:   run,
			EventNumber: int32(i),
			TimeStamp:   int64(f.Header.TimeStamp),
			Detector:    Detector,
		}

		evt.Add(RawCollection, &lcio.TrackerRawDataContainer{
			Data: []lcio.TrackerRawData{{
				CellID0: cellID(f.Header.Link, f.Header.Slot, f.Header.Channel),
				Time:    int32(f.Header.TimeStamp),
				ADCs:    append([]uint16(nil), f.Samples[:]...),
			}},
		})
		evt.Add(HeaderCollection, &lcio.GenericObject{
			Data: []lcio.GenericObjectData{{I32s: headerI32s(&f.Header)}},
		})
		peaks := &lcio.GenericObject{
			Data: make([]lcio.GenericObjectData, len(f.Peaks)),
		}
		for j := range f.Peaks {
			peaks.Data[j].I32s = peakI32s(&f.Peaks[j])
		}
		evt.Add(PeaksCollection, peaks)

		err = w.WriteEvent(&evt)
		if err != nil {
			return fmt.Errorf("could not write frame %d: %w", i, err)
		}
	}

	return nil
}

func headerI32s(hdr *spy.Header) []int32 {
	return []int32{
		int32(hdr.Link),
		int32(hdr.Slot),
		int32(hdr.CreateID),
		int32(hdr.DetectorID),
		int32(hdr.Version),
		int32(uint32(hdr.TimeStamp)),
		int32(uint32(hdr.TimeStamp >> 32)),
		int32(hdr.RI),
		int32(hdr.Algorithm),
		int32(hdr.Channel),
		int32(hdr.Baseline),
	}
}

func peakI32s(p *spy.Peak) []int32 {
	return []int32{
		int32(p.Charge),
		int32(p.NumPeakOB),
		int32(p.NumPeakUB),
		int32(p.TimePulseOB),
		int32(p.TimePulseUB),
		int32(p.TimePeak),
		int32(p.MaxPeak),
	}
}
