// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package board

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfigWords(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	if err != nil {
		t.Fatalf("invalid default configuration: %+v", err)
	}

	if got, want := cfg.LinkWord(), uint64(0xab); got != want {
		t.Fatalf("invalid link word: got=0x%x, want=0x%x", got, want)
	}
	if got, want := cfg.SelfTrigger.ChannelMask(), uint64(0xa5); got != want {
		t.Fatalf("invalid channel mask: got=0x%x, want=0x%x", got, want)
	}
	if got, want := cfg.SelfTrigger.ParamsWord(), uint64(0x3e15); got != want {
		t.Fatalf("invalid params word: got=0x%x, want=0x%x", got, want)
	}

	want := []uint64{0, 2, 5, 7, 10, 11, 12, 13, 20, 21, 22, 23, 30, 31, 32, 33}
	if got := cfg.MuxWords(); !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid mux words:\ngot= %v\nwant=%v", got, want)
	}
}

func TestParamsWord(t *testing.T) {
	for _, tc := range []struct {
		name string
		st   SelfTrigger
		want uint64
	}{
		{
			name: "minimal",
			st:   SelfTrigger{Truncate: 1, Window: 2, SlopeThreshold: -1},
			want: 0x7f << 7,
		},
		{
			name: "all-set",
			st: SelfTrigger{
				EnableFilter:       true,
				Truncate:           2,
				Window:             16,
				MainDetection:      true,
				AllowBetweenFrames: true,
				SlopeThreeSamples:  true,
				SlopeThreshold:     -64,
			},
			want: 0x7f | 0x40<<7,
		},
		{
			name: "window-8",
			st:   SelfTrigger{Truncate: 1, Window: 8, SlopeThreshold: -10},
			want: 0b10<<2 | 0b1110110<<7,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.st.ParamsWord()
			if got != tc.want {
				t.Fatalf("invalid params word: got=0x%x, want=0x%x", got, tc.want)
			}
			back := selfTriggerFrom(0, got)
			back.Channels = tc.st.Channels
			if !reflect.DeepEqual(back, tc.st) {
				t.Fatalf("invalid decoded params:\ngot= %+v\nwant=%+v", back, tc.st)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		f    func(cfg *Config)
		want string
	}{
		{
			name: "link",
			f:    func(cfg *Config) { cfg.Links[2] = 1 },
			want: "invalid mode 1 for link 2",
		},
		{
			name: "mux-8",
			f:    func(cfg *Config) { cfg.StreamMux[1][3] = 8 },
			want: "invalid input channel 8 for sender 1 input 3",
		},
		{
			name: "mux-48",
			f:    func(cfg *Config) { cfg.StreamMux[3][0] = 48 },
			want: "invalid input channel 48 for sender 3 input 0",
		},
		{
			name: "channel",
			f:    func(cfg *Config) { cfg.SelfTrigger.Channels = []int{1, 40} },
			want: "invalid self-trigger channel 40",
		},
		{
			name: "truncate",
			f:    func(cfg *Config) { cfg.SelfTrigger.Truncate = 3 },
			want: "invalid number of truncated LSBs 3",
		},
		{
			name: "window",
			f:    func(cfg *Config) { cfg.SelfTrigger.Window = 5 },
			want: "invalid filter window 5",
		},
		{
			name: "slope-positive",
			f:    func(cfg *Config) { cfg.SelfTrigger.SlopeThreshold = 0 },
			want: "invalid slope threshold 0 (must be in [-64, 0))",
		},
		{
			name: "slope-overflow",
			f:    func(cfg *Config) { cfg.SelfTrigger.SlopeThreshold = -65 },
			want: "invalid slope threshold -65 (must be in [-64, 0))",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.f(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got, want := err.Error(), tc.want; got != want {
				t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
			}
		})
	}
}

func TestValidInput(t *testing.T) {
	var n int
	for v := 0; v < 256; v++ {
		if ValidInput(uint8(v)) {
			n++
		}
	}
	if got, want := n, 40; got != want {
		t.Fatalf("invalid number of physical inputs: got=%d, want=%d", got, want)
	}
}

func TestLinkModeText(t *testing.T) {
	raw, err := json.Marshal(DefaultConfig().Links)
	if err != nil {
		t.Fatalf("could not marshal link modes: %+v", err)
	}
	if got, want := string(raw), `["self-trigger","streaming","streaming","streaming"]`; got != want {
		t.Fatalf("invalid link modes:\ngot= %s\nwant=%s", got, want)
	}

	var links [NumLinks]LinkMode
	err = json.Unmarshal([]byte(`["idle","streaming","self-trigger","idle"]`), &links)
	if err != nil {
		t.Fatalf("could not unmarshal link modes: %+v", err)
	}
	want := [NumLinks]LinkMode{LinkIdle, LinkStreaming, LinkSelfTrigger, LinkIdle}
	if links != want {
		t.Fatalf("invalid link modes: got=%v, want=%v", links, want)
	}

	err = json.Unmarshal([]byte(`["off"]`), &links)
	if err == nil {
		t.Fatalf("expected an error")
	}

	_, err = json.Marshal(LinkMode(1))
	if err == nil {
		t.Fatalf("expected an error")
	}
}

func TestLoadConfig(t *testing.T) {
	tmp := t.TempDir()

	fname := filepath.Join(tmp, "daphne.json")
	err := os.WriteFile(fname, []byte(`{
	"addr": "10.73.137.110",
	"links": ["streaming", "streaming", "idle", "idle"],
	"self_trigger": {"channels": [1, 39], "truncate": 2, "window": 16, "slope_threshold": -12}
}`), 0644)
	if err != nil {
		t.Fatalf("could not create config file: %+v", err)
	}

	cfg, err := LoadConfig(fname)
	if err != nil {
		t.Fatalf("could not load config: %+v", err)
	}

	want := DefaultConfig()
	want.Addr = "10.73.137.110"
	want.Links = [NumLinks]LinkMode{LinkStreaming, LinkStreaming, LinkIdle, LinkIdle}
	want.SelfTrigger = SelfTrigger{
		Channels:       []int{1, 39},
		Truncate:       2,
		Window:         16,
		SlopeThreshold: -12,
		EnableFilter:   true,
		MainDetection:  true,
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("invalid config:\ngot= %+v\nwant=%+v", cfg, want)
	}

	t.Run("env", func(t *testing.T) {
		t.Setenv("DAPHNE_ADDR", "192.168.133.12")
		cfg, err := LoadConfig(fname)
		if err != nil {
			t.Fatalf("could not load config: %+v", err)
		}
		if got, want := cfg.Addr, "192.168.133.12"; got != want {
			t.Fatalf("invalid address: got=%q, want=%q", got, want)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		fname := filepath.Join(tmp, "invalid.json")
		err := os.WriteFile(fname, []byte(`{"self_trigger": {"window": 3}}`), 0644)
		if err != nil {
			t.Fatalf("could not create config file: %+v", err)
		}
		_, err = LoadConfig(fname)
		if err == nil {
			t.Fatalf("expected an error")
		}
		want := `board: invalid configuration "` + fname + `": invalid filter window 3`
		if got := err.Error(); got != want {
			t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
		}
	})
}
