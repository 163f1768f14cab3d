// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/internal/xcnv"
	"github.com/go-lpc/daphne/spy"
	"go-hep.org/x/hep/lcio"
)

func testFrames() []spy.Frame {
	frames := make([]spy.Frame, 2)
	for i := range frames {
		f := &frames[i]
		f.Header.Link = 1
		f.Header.Channel = uint8(5 + i)
		f.Header.TimeStamp = uint64(42 + i)
		f.Header.Baseline = 8100
		for j := range f.Samples {
			f.Samples[j] = 100
		}
		f.Peaks[0] = spy.Peak{
			Charge:      uint32(1000 + i),
			NumPeakOB:   1,
			TimePeak:    12,
			MaxPeak:     300,
			TimePulseOB: 10,
			TimePulseUB: 20,
		}
	}
	return frames
}

func writeCaptures(t *testing.T, fname string, frames []spy.Frame) {
	t.Helper()

	f, err := os.Create(fname)
	if err != nil {
		t.Fatalf("could not create raw file: %+v", err)
	}
	defer f.Close()

	// one frame per capture.
	for i := range frames {
		words := make([]uint32, board.OutputSpyLen)
		copy(words[100:], spy.Append(nil, &frames[i]))
		err = spy.WriteCapture(f, words)
		if err != nil {
			t.Fatalf("could not write capture %d: %+v", i, err)
		}
	}

	err = f.Close()
	if err != nil {
		t.Fatalf("could not close raw file: %+v", err)
	}
}

func field(t *testing.T, out, key string, n int) string {
	t.Helper()
	var vs []string
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, key+":") {
			continue
		}
		vs = append(vs, strings.TrimSpace(strings.TrimPrefix(line, key+":")))
	}
	if len(vs) <= n {
		t.Fatalf("could not find field %q #%d", key, n)
	}
	return vs[n]
}

func TestProcess(t *testing.T) {
	tmp := t.TempDir()
	fname := filepath.Join(tmp, "run.raw")
	want := testFrames()
	writeCaptures(t, fname, want)

	out := new(strings.Builder)
	got, err := process(out, fname, board.OutputSpyLen, true)
	if err != nil {
		t.Fatalf("could not process file: %+v", err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid frames")
	}

	for _, tc := range []struct {
		key  string
		n    int
		want string
	}{
		{"=== frame 1 (run.raw) ===", 0, ""},
		{"link", 0, "1"},
		{"channel", 0, "5"},
		{"channel", 1, "6"},
		{"timestamp", 1, "43"},
		{"baseline", 0, "8100"},
		{"pedestal", 1, "mean=100.00 rms=0.00"},
	} {
		t.Run(tc.key, func(t *testing.T) {
			if tc.want == "" {
				if !strings.Contains(out.String(), tc.key) {
					t.Fatalf("missing line %q", tc.key)
				}
				return
			}
			if got := field(t, out.String(), tc.key, tc.n); got != tc.want {
				t.Fatalf("invalid %s: got=%q, want=%q", tc.key, got, tc.want)
			}
		})
	}

	if !strings.Contains(out.String(), "  peak[0]: charge=  1001 ob=1 ub=0 t-peak=  12 max=  300 t-ob=  10 t-ub=  20\n") {
		t.Fatalf("missing peak record:\n%s", out.String())
	}

	out.Reset()
	_, err = process(out, fname, board.OutputSpyLen, false)
	if err != nil {
		t.Fatalf("could not process file: %+v", err)
	}
	if strings.Contains(out.String(), "peak[") {
		t.Fatalf("unexpected peak records")
	}
}

func TestProcessLCIO(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "run.slcio")
	want := testFrames()

	w, err := lcio.Create(fname)
	if err != nil {
		t.Fatalf("could not create LCIO file: %+v", err)
	}
	defer w.Close()

	err = xcnv.Spy2LCIO(w, want, 42, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("could not write LCIO file: %+v", err)
	}
	err = w.Close()
	if err != nil {
		t.Fatalf("could not close LCIO file: %+v", err)
	}

	out := new(strings.Builder)
	got, err := process(out, fname, board.OutputSpyLen, false)
	if err != nil {
		t.Fatalf("could not process file: %+v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid frames")
	}
	if got, want := field(t, out.String(), "channel", 1), "6"; got != want {
		t.Fatalf("invalid channel: got=%q, want=%q", got, want)
	}
}

func TestProcessNoFrame(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "empty.raw")
	err := os.WriteFile(fname, make([]byte, 4*16), 0644)
	if err != nil {
		t.Fatalf("could not create raw file: %+v", err)
	}

	out := new(strings.Builder)
	frames, err := process(out, fname, 0, true)
	if err != nil {
		t.Fatalf("could not process file: %+v", err)
	}
	if len(frames) != 0 {
		t.Fatalf("invalid number of frames: got=%d, want=0", len(frames))
	}
	want := "no frame found in \"" + fname + "\" (16 words)\n"
	if got := out.String(); got != want {
		t.Fatalf("invalid output:\ngot= %q\nwant=%q", got, want)
	}
}

func TestProcessInvalid(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "odd.raw")
	err := os.WriteFile(fname, make([]byte, 7), 0644)
	if err != nil {
		t.Fatalf("could not create raw file: %+v", err)
	}

	_, err = process(new(strings.Builder), fname, 0, true)
	if err == nil {
		t.Fatalf("expected an error")
	}
	want := "could not read \"" + fname + "\": spy: invalid capture size (7 bytes)"
	if got := err.Error(); got != want {
		t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
	}
}

func TestExport(t *testing.T) {
	oname := filepath.Join(t.TempDir(), "run.cbor")
	want := []Record{{File: "run.raw", Frames: testFrames()}}

	err := export(oname, want)
	if err != nil {
		t.Fatalf("could not export frames: %+v", err)
	}

	raw, err := os.ReadFile(oname)
	if err != nil {
		t.Fatalf("could not read CBOR file: %+v", err)
	}

	var got []Record
	err = cbor.Unmarshal(raw, &got)
	if err != nil {
		t.Fatalf("could not decode CBOR file: %+v", err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid CBOR round-trip")
	}
}
