// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/conddb"
)

func TestReport(t *testing.T) {
	brds := []conddb.Board{
		{Name: "daphne-01", Addr: "10.73.137.110", Config: "CIEMAT_self_trigger"},
		{Name: "daphne-02", Addr: "10.73.137.111:2001", Config: "streaming"},
	}
	cfg := board.DefaultConfig()
	cfg.Addr = "10.73.137.110"

	out := new(strings.Builder)
	err := report(out, brds, "CIEMAT_self_trigger", cfg)
	if err != nil {
		t.Fatalf("could not write report: %+v", err)
	}

	lines := strings.Split(out.String(), "\n")
	for i, want := range []string{
		"BOARD      ADDR                CONFIG",
		"daphne-01  10.73.137.110       CIEMAT_self_trigger",
		"daphne-02  10.73.137.111:2001  streaming",
		"",
		`config "CIEMAT_self_trigger":`,
	} {
		if got := lines[i]; got != want {
			t.Fatalf("invalid line %d:\ngot= %q\nwant=%q", i, got, want)
		}
	}

	var got board.Config
	err = json.Unmarshal([]byte(strings.Join(lines[5:], "\n")), &got)
	if err != nil {
		t.Fatalf("could not decode config: %+v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Fatalf("invalid config:\ngot= %+v\nwant=%+v", got, cfg)
	}
}
