// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/internal/fakeoei"
)

func TestLoadConfig(t *testing.T) {
	ctx := context.Background()

	cfg, err := loadConfig(ctx, "", nil, "")
	if err != nil {
		t.Fatalf("could not load default config: %+v", err)
	}
	if !reflect.DeepEqual(cfg, board.DefaultConfig()) {
		t.Fatalf("invalid default config: %+v", cfg)
	}

	fname := filepath.Join(t.TempDir(), "daphne.json")
	err = os.WriteFile(fname, []byte(`{"addr": "10.73.137.110", "stream_mux": [[0,1,2,3],[4,5,6,7],[40,41,42,43],[44,45,46,47]]}`), 0644)
	if err != nil {
		t.Fatalf("could not write config file: %+v", err)
	}

	cfg, err = loadConfig(ctx, fname, nil, "")
	if err != nil {
		t.Fatalf("could not load config file: %+v", err)
	}
	if got, want := cfg.StreamMux[3][3], uint8(47); got != want {
		t.Fatalf("invalid stream mux: got=%d, want=%d", got, want)
	}
}

func TestProcess(t *testing.T) {
	fake, err := fakeoei.New("")
	if err != nil {
		t.Fatalf("could not start fake board: %+v", err)
	}
	defer fake.Close()

	cfg := board.DefaultConfig()
	cfg.Addr = fake.Addr()
	cfg.SelfTrigger.Channels = []int{39, 1}

	out := new(strings.Builder)
	err = process(out, cfg)
	if err != nil {
		t.Fatalf("could not configure board: %+v", err)
	}

	if got, want := fake.Get(board.RegSelfMask), uint64(1<<39|1<<1); got != want {
		t.Fatalf("invalid self-trigger mask: got=0x%x, want=0x%x", got, want)
	}

	txt := out.String()
	for _, want := range []string{
		"daphne-config: stream mux configured: [[0 2 5 7] [10 11 12 13] [20 21 22 23] [30 31 32 33]]\n",
		"daphne-config: output links configured: [self-trigger streaming streaming streaming] (0xab)\n",
		"daphne-config: self-trigger channels configured: [39 1]\n",
		"daphne-config: self-trigger configured: 0x3e15\n",
	} {
		if !strings.Contains(txt, want) {
			t.Fatalf("missing log line %q in:\n%s", want, txt)
		}
	}

	i := strings.Index(txt, "{")
	if i < 0 {
		t.Fatalf("missing configuration display in:\n%s", txt)
	}
	var got board.Config
	err = json.Unmarshal([]byte(txt[i:]), &got)
	if err != nil {
		t.Fatalf("could not decode displayed configuration: %+v", err)
	}
	want := cfg
	want.SelfTrigger.Channels = []int{1, 39}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid configuration:\ngot= %+v\nwant=%+v", got, want)
	}
}

func TestProcessInvalid(t *testing.T) {
	fake, err := fakeoei.New("")
	if err != nil {
		t.Fatalf("could not start fake board: %+v", err)
	}
	defer fake.Close()

	cfg := board.DefaultConfig()
	cfg.Addr = fake.Addr()
	cfg.StreamMux[0][0] = 18

	err = process(new(strings.Builder), cfg)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got, want := err.Error(), "board: invalid configuration: invalid input channel 18 for sender 0 input 0"; got != want {
		t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
	}
	if got := len(fake.Writes()); got != 0 {
		t.Fatalf("invalid number of writes: got=%d, want=0", got)
	}
}
