// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/internal/fakeoei"
	"github.com/go-lpc/daphne/oei"
	"github.com/go-lpc/daphne/spy"
)

func newTestShell(t *testing.T) (*shell, *fakeoei.Board, *strings.Builder) {
	t.Helper()

	fake, err := fakeoei.New("")
	if err != nil {
		t.Fatalf("could not start fake board: %+v", err)
	}
	t.Cleanup(func() { _ = fake.Close() })

	conn, err := oei.Dial(fake.Addr())
	if err != nil {
		t.Fatalf("could not dial fake board: %+v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	out := new(strings.Builder)
	return newShell(out, conn), fake, out
}

func TestShell(t *testing.T) {
	sh, fake, out := newTestShell(t)
	fake.Set(board.RegFirmware, 0x901)
	fake.Set(board.RegEndpoint, 0x1803)

	for _, tc := range []struct {
		line string
		want string
	}{
		{
			line: "read 0x9000",
			want: "0x00009000: 0x0000000000000901\n",
		},
		{
			line: "poke 0x5000 1 2 0x10",
			want: "",
		},
		{
			line: "peek 0x5000 3",
			want: "0x00005000: 0x0000000000000001\n" +
				"0x00005001: 0x0000000000000002\n" +
				"0x00005002: 0x0000000000000010\n",
		},
		{
			line: "version",
			want: "DAPHNE firmware version 901\n",
		},
		{
			line: "status",
			want: "MMCM0 is LOCKED OK\n" +
				"Master clock MMCM1 is LOCKED OK\n" +
				"CDR chip signal OK (LOS=0)\n" +
				"CDR chip LOCKED (LOL=0) OK\n" +
				"Timing SFP module optical signal OK (LOS=0)\n" +
				"Timing SFP module is present OK\n" +
				"Timing endpoint timestamp is valid\n" +
				"Endpoint State = 8 : Good to go!!!\n",
		},
		{
			line: "   ",
			want: "",
		},
	} {
		t.Run(tc.line, func(t *testing.T) {
			out.Reset()
			err := sh.exec(tc.line)
			if err != nil {
				t.Fatalf("could not run %q: %+v", tc.line, err)
			}
			if got := out.String(); got != tc.want {
				t.Fatalf("invalid output:\ngot= %q\nwant=%q", got, tc.want)
			}
		})
	}
}

func TestShellConfig(t *testing.T) {
	sh, fake, out := newTestShell(t)

	err := sh.exec("apply")
	if err != nil {
		t.Fatalf("could not apply config: %+v", err)
	}
	if got, want := fake.Get(board.RegLinkCtrl), uint64(0xab); got != want {
		t.Fatalf("invalid link register: got=0x%x, want=0x%x", got, want)
	}

	out.Reset()
	err = sh.exec("config")
	if err != nil {
		t.Fatalf("could not read config: %+v", err)
	}
	if !strings.Contains(out.String(), `"self_trigger"`) {
		t.Fatalf("invalid config output:\n%s", out.String())
	}
}

func TestShellSpy(t *testing.T) {
	sh, fake, out := newTestShell(t)

	var f spy.Frame
	f.Header.Link = 2
	f.Header.Channel = 13
	f.Header.TimeStamp = 99
	f.Header.Baseline = 8000
	for i := range f.Samples {
		f.Samples[i] = 8000
	}
	buf := spy.Append(make([]uint32, 8), &f)
	fake.OnWrite(func(b *fakeoei.Board, addr uint64, vs []uint64) {
		if addr != board.RegSpyTrigger {
			return
		}
		for i, v := range buf {
			b.SetLocked(board.RegOutputSpy+uint64(i), uint64(v))
		}
	})

	err := sh.exec("spy")
	if err != nil {
		t.Fatalf("could not spy: %+v", err)
	}
	want := "captured 4096 words, 1 frames\n" +
		"frame 0: link=2 channel=13 ts=99 baseline=8000 pedestal=8000.00±0.00\n"
	if got := out.String(); got != want {
		t.Fatalf("invalid output:\ngot= %q\nwant=%q", got, want)
	}
}

func TestShellErrors(t *testing.T) {
	sh, _, _ := newTestShell(t)

	for _, tc := range []struct {
		line string
		want string
	}{
		{"frobnicate", `unknown command "frobnicate"`},
		{"read", "usage: read ADDR [N]"},
		{"read 0xzz", `invalid value "0xzz"`},
		{"read 0x9000 many", `invalid number of words "many"`},
		{"read 0x9000 0", "oei: invalid read size 0 at 0x00009000"},
		{"write 0x3001", "usage: write ADDR V1 [V2 ...]"},
		{"write 0x3001 -1", `invalid value "-1"`},
		{"apply a b", "usage: apply [FILE]"},
	} {
		t.Run(tc.line, func(t *testing.T) {
			err := sh.exec(tc.line)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got, want := err.Error(), tc.want; got != want {
				t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
			}
		})
	}

	if err := sh.exec("quit"); !errors.Is(err, errQuit) {
		t.Fatalf("invalid quit error: %+v", err)
	}
}

func TestComplete(t *testing.T) {
	sh, _, out := newTestShell(t)

	if got, want := sh.complete("p"), []string{"peek", "poke"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid completion: got=%q, want=%q", got, want)
	}

	err := sh.exec("help")
	if err != nil {
		t.Fatalf("could not run help: %+v", err)
	}
	if got, want := strings.Count(out.String(), "\n"), 9; got != want {
		t.Fatalf("invalid number of help lines: got=%d, want=%d\n%s", got, want, out.String())
	}
}
