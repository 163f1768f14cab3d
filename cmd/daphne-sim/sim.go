// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"math"

	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/internal/fakeoei"
	"github.com/go-lpc/daphne/spy"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	frameGap  = 8  // idle words between frames
	pulseTau  = 20 // decay time of a pulse, in samples
	maxSample = 1<<spy.SampleBits - 1
)

type simConfig struct {
	frames   int
	seed     int64
	pedestal float64
	noise    float64
}

type simulator struct {
	cfg simConfig

	noise distuv.Normal
	amp   distuv.Uniform
	t0    distuv.Uniform

	ts   uint64 // timestamp of the next frame
	next int    // index of the next self-trigger channel
}

func newSim(cfg simConfig) (*simulator, error) {
	if max := board.OutputSpyLen / (spy.FrameLen + 1 + frameGap); cfg.frames < 0 || cfg.frames > max {
		return nil, fmt.Errorf("invalid number of frames per capture %d (max=%d)", cfg.frames, max)
	}
	src := rand.NewSource(uint64(cfg.seed))
	return &simulator{
		cfg:   cfg,
		noise: distuv.Normal{Mu: 0, Sigma: cfg.noise, Src: src},
		amp:   distuv.Uniform{Min: 1000, Max: 3000, Src: src},
		t0:    distuv.Uniform{Min: 100, Max: 400, Src: src},
		ts:    1,
	}, nil
}

func (sim *simulator) onWrite(b *fakeoei.Board, addr uint64, vs []uint64) {
	if addr != board.RegSpyTrigger {
		return
	}

	mask := b.GetLocked(board.RegSelfMask)
	words := sim.capture(mask)
	for i, v := range words {
		b.SetLocked(board.RegOutputSpy+uint64(i), uint64(v))
	}
}

// capture returns a full output spy buffer.
func (sim *simulator) capture(mask uint64) []uint32 {
	var chans []uint8
	for ch := 0; ch < board.NumChans; ch++ {
		if mask&(1<<ch) != 0 {
			chans = append(chans, uint8(ch))
		}
	}

	words := make([]uint32, 0, board.OutputSpyLen)
	if len(chans) > 0 {
		for i := 0; i < sim.cfg.frames; i++ {
			ch := chans[sim.next%len(chans)]
			sim.next++
			f := sim.frame(ch)
			words = append(words, make([]uint32, frameGap)...)
			words = spy.Append(words, &f)
		}
	}
	return append(words, make([]uint32, board.OutputSpyLen-len(words))...)
}

func (sim *simulator) frame(ch uint8) spy.Frame {
	var (
		f   spy.Frame
		ped = sim.cfg.pedestal
		amp = sim.amp.Rand()
		t0  = int(sim.t0.Rand())
		sum = 0.0
	)

	f.Header = spy.Header{
		Link:       ch / 10 % board.NumLinks,
		DetectorID: 1,
		Version:    2,
		TimeStamp:  sim.ts,
		Channel:    ch,
		Baseline:   uint16(clamp(ped)),
	}
	sim.ts += 64

	for i := range f.Samples {
		v := ped + sim.noise.Rand()
		if i >= t0 {
			pulse := amp * math.Exp(-float64(i-t0)/pulseTau)
			v += pulse
			sum += pulse
		}
		f.Samples[i] = uint16(clamp(v))
	}

	f.Peaks[0] = spy.Peak{
		Charge:      uint32(sum),
		NumPeakOB:   1,
		TimePulseOB: uint16(t0),
		TimePeak:    uint16(t0),
		MaxPeak:     uint16(clamp(amp)),
	}
	return f
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > maxSample:
		return maxSample
	}
	return math.Round(v)
}
