// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package board

import (
	"fmt"
	"math/bits"

	"github.com/tkanos/gonfig"
)

// LinkMode is the operating mode of an output link.
type LinkMode uint8

const (
	LinkIdle        LinkMode = 0b00 // link disabled, send idles
	LinkStreaming   LinkMode = 0b10 // streaming mode sender
	LinkSelfTrigger LinkMode = 0b11 // self-triggered mode sender
)

func (m LinkMode) String() string {
	switch m {
	case LinkIdle:
		return "idle"
	case LinkStreaming:
		return "streaming"
	case LinkSelfTrigger:
		return "self-trigger"
	default:
		return fmt.Sprintf("LinkMode(%d)", uint8(m))
	}
}

func (m LinkMode) MarshalText() ([]byte, error) {
	switch m {
	case LinkIdle, LinkStreaming, LinkSelfTrigger:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("board: invalid link mode %d", uint8(m))
	}
}

func (m *LinkMode) UnmarshalText(p []byte) error {
	switch string(p) {
	case "idle":
		*m = LinkIdle
	case "streaming":
		*m = LinkStreaming
	case "self-trigger":
		*m = LinkSelfTrigger
	default:
		return fmt.Errorf("board: invalid link mode %q", p)
	}
	return nil
}

// SelfTrigger holds the self-trigger configuration.
type SelfTrigger struct {
	Channels []int `json:"channels"` // enabled channels, in [0, 40)

	EnableFilter       bool `json:"enable_filter"`
	Truncate           int  `json:"truncate"` // number of truncated LSBs: 1 or 2
	Window             int  `json:"window"`   // filter window in samples: 2, 4, 8 or 16
	MainDetection      bool `json:"main_detection"`
	AllowBetweenFrames bool `json:"allow_between_frames"`
	SlopeThreeSamples  bool `json:"slope_three_samples"`
	SlopeThreshold     int  `json:"slope_threshold"` // in [-64, 0)
}

// Config is the configuration of a DAPHNE board.
type Config struct {
	Addr        string                     `json:"addr" env:"DAPHNE_ADDR"`
	Links       [NumLinks]LinkMode         `json:"links"`
	StreamMux   [NumLinks][NumInputs]uint8 `json:"stream_mux"`
	SelfTrigger SelfTrigger                `json:"self_trigger"`
}

// DefaultConfig returns the reference self-trigger configuration:
// link 0 in self-trigger mode, links 1-3 streaming.
func DefaultConfig() Config {
	return Config{
		Links: [NumLinks]LinkMode{
			LinkSelfTrigger, LinkStreaming, LinkStreaming, LinkStreaming,
		},
		StreamMux: [NumLinks][NumInputs]uint8{
			{0, 2, 5, 7},
			{10, 11, 12, 13},
			{20, 21, 22, 23},
			{30, 31, 32, 33},
		},
		SelfTrigger: SelfTrigger{
			Channels:       []int{0, 2, 5, 7},
			EnableFilter:   true,
			Truncate:       1,
			Window:         4,
			MainDetection:  true,
			SlopeThreshold: -4,
		},
	}
}

// LoadConfig loads a board configuration from a JSON file.
// Fields missing from the file keep their default value.
// The board address may be overridden with $DAPHNE_ADDR.
func LoadConfig(fname string) (Config, error) {
	cfg := DefaultConfig()
	err := gonfig.GetConf(fname, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("board: could not load configuration %q: %w", fname, err)
	}
	err = cfg.Validate()
	if err != nil {
		return cfg, fmt.Errorf("board: invalid configuration %q: %w", fname, err)
	}
	return cfg, nil
}

// ValidInput returns whether v is a physical input channel number.
func ValidInput(v uint8) bool {
	return v < 48 && v%10 < 8
}

func (cfg Config) Validate() error {
	for i, m := range cfg.Links {
		switch m {
		case LinkIdle, LinkStreaming, LinkSelfTrigger:
		default:
			return fmt.Errorf("invalid mode %d for link %d", uint8(m), i)
		}
	}
	for i, mux := range cfg.StreamMux {
		for j, v := range mux {
			if !ValidInput(v) {
				return fmt.Errorf("invalid input channel %d for sender %d input %d", v, i, j)
			}
		}
	}
	return cfg.SelfTrigger.Validate()
}

func (st SelfTrigger) Validate() error {
	for _, ch := range st.Channels {
		if ch < 0 || ch >= NumChans {
			return fmt.Errorf("invalid self-trigger channel %d", ch)
		}
	}
	switch st.Truncate {
	case 1, 2:
	default:
		return fmt.Errorf("invalid number of truncated LSBs %d", st.Truncate)
	}
	switch st.Window {
	case 2, 4, 8, 16:
	default:
		return fmt.Errorf("invalid filter window %d", st.Window)
	}
	if st.SlopeThreshold >= 0 || st.SlopeThreshold < -64 {
		return fmt.Errorf("invalid slope threshold %d (must be in [-64, 0))", st.SlopeThreshold)
	}
	return nil
}

// LinkWord returns the output link control byte.
func (cfg Config) LinkWord() uint64 {
	var v uint64
	for i, m := range cfg.Links {
		v |= uint64(m&0b11) << (2 * i)
	}
	return v
}

// MuxWords returns the streaming sender input selection registers.
func (cfg Config) MuxWords() []uint64 {
	vs := make([]uint64, 0, numMuxRegs)
	for _, mux := range cfg.StreamMux {
		for _, v := range mux {
			vs = append(vs, uint64(v))
		}
	}
	return vs
}

// ChannelMask returns the self-trigger channel enable mask.
func (st SelfTrigger) ChannelMask() uint64 {
	var v uint64
	for _, ch := range st.Channels {
		v |= 1 << uint(ch)
	}
	return v
}

// ParamsWord returns the self-trigger configuration parameters word.
func (st SelfTrigger) ParamsWord() uint64 {
	b2u := func(v bool) uint64 {
		if v {
			return 1
		}
		return 0
	}
	var (
		trunc = uint64(st.Truncate-1) & 0x1
		win   = uint64(bits.TrailingZeros(uint(st.Window))-1) & 0x3
		slope = uint64(st.SlopeThreshold) & 0x7f
	)
	return b2u(st.EnableFilter) |
		trunc<<1 |
		win<<2 |
		b2u(st.MainDetection)<<4 |
		b2u(st.AllowBetweenFrames)<<5 |
		b2u(st.SlopeThreeSamples)<<6 |
		slope<<7
}

func channelsFrom(mask uint64) []int {
	var chs []int
	for i := 0; i < NumChans; i++ {
		if (mask>>i)&1 == 1 {
			chs = append(chs, i)
		}
	}
	return chs
}

func selfTriggerFrom(mask, params uint64) SelfTrigger {
	slope := int(params>>7) & 0x7f
	if slope&0x40 != 0 {
		slope -= 0x80
	}
	return SelfTrigger{
		Channels:           channelsFrom(mask),
		EnableFilter:       params&0x1 == 1,
		Truncate:           int(params>>1)&0x1 + 1,
		Window:             2 << ((params >> 2) & 0x3),
		MainDetection:      (params>>4)&0x1 == 1,
		AllowBetweenFrames: (params>>5)&0x1 == 1,
		SlopeThreeSamples:  (params>>6)&0x1 == 1,
		SlopeThreshold:     slope,
	}
}
