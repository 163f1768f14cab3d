// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// daphne-dump decodes and displays DAPHNE raw capture files.
//
// Usage: daphne-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Files with a .slcio extension are read as LCIO files, as written by daphne2lcio.
//
// Example:
//
//	$> daphne-dump ./run_042.raw
//	=== frame 0 (run_042.raw) ===
//	link:              1
//	slot:              0
//	create-id:         0
//	detector-id:       0
//	version:           0
//	timestamp:        42
//	channel:           5
//	baseline:       8100
//	pedestal:   mean=100.00 rms=0.00
//	  peak[0]: charge=  1000 ob=1 ub=0 t-peak=  12 max=  300 t-ob=  10 t-ub=  20
//	[...]
package main // import "github.com/go-lpc/daphne/cmd/daphne-dump"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/internal/xcnv"
	"github.com/go-lpc/daphne/spy"
	"go-hep.org/x/hep/lcio"
)

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("daphne-dump: ")
	log.SetFlags(0)

	var (
		fset  = flag.NewFlagSet("daphne-dump", flag.ExitOnError)
		size  = fset.Int("size", board.OutputSpyLen, "number of words per capture (0: whole file)")
		peaks = fset.Bool("peaks", true, "display trailer peak records")
		oname = fset.String("cbor", "", "path to output CBOR file")
	)

	fset.Usage = func() {
		fmt.Printf(`daphne-dump decodes and displays DAPHNE raw capture files.

Usage: daphne-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Files with a .slcio extension are read as LCIO files, as written by daphne2lcio.

Example:

 $> daphne-dump ./run_042.raw
 $> daphne-dump -peaks=false -cbor run_042.cbor ./run_042.raw
 $> daphne-dump ./run_042.slcio

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input raw capture file")
	}

	var recs []Record
	for _, fname := range fset.Args() {
		frames, err := process(w, fname, *size, *peaks)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
		recs = append(recs, Record{File: filepath.Base(fname), Frames: frames})
	}

	if *oname != "" {
		err = export(*oname, recs)
		if err != nil {
			log.Fatalf("could not export frames: %+v", err)
		}
	}
}

// Record holds the frames decoded from one input file.
type Record struct {
	File   string      `cbor:"1,keyasint"`
	Frames []spy.Frame `cbor:"2,keyasint"`
}

func process(w io.Writer, fname string, size int, peaks bool) ([]spy.Frame, error) {
	var (
		frames []spy.Frame
		nwords = -1
		err    error
	)
	switch filepath.Ext(fname) {
	case ".slcio":
		frames, err = readLCIO(fname)
	default:
		frames, nwords, err = readRaw(fname, size)
	}
	if err != nil {
		return nil, err
	}

	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	if len(frames) == 0 {
		switch {
		case nwords >= 0:
			fmt.Fprintf(wbuf, "no frame found in %q (%d words)\n", fname, nwords)
		default:
			fmt.Fprintf(wbuf, "no frame found in %q\n", fname)
		}
	}

	base := filepath.Base(fname)
	for i := range frames {
		frame := &frames[i]
		hdr := frame.Header
		fmt.Fprintf(wbuf, "=== frame %d (%s) ===\n", i, base)
		fmt.Fprintf(wbuf, "link:        % 6d\n", hdr.Link)
		fmt.Fprintf(wbuf, "slot:        % 6d\n", hdr.Slot)
		fmt.Fprintf(wbuf, "create-id:   % 6d\n", hdr.CreateID)
		fmt.Fprintf(wbuf, "detector-id: % 6d\n", hdr.DetectorID)
		fmt.Fprintf(wbuf, "version:     % 6d\n", hdr.Version)
		fmt.Fprintf(wbuf, "timestamp:   % 6d\n", hdr.TimeStamp)
		fmt.Fprintf(wbuf, "channel:     % 6d\n", hdr.Channel)
		fmt.Fprintf(wbuf, "baseline:    % 6d\n", hdr.Baseline)
		mean, rms := frame.Pedestal()
		fmt.Fprintf(wbuf, "pedestal:    mean=%.2f rms=%.2f\n", mean, rms)

		if !peaks {
			continue
		}
		for j, p := range frame.Peaks {
			fmt.Fprintf(wbuf,
				"  peak[%d]: charge=% 6d ob=%d ub=%d t-peak=% 4d max=% 5d t-ob=% 4d t-ub=% 4d\n",
				j, p.Charge, p.NumPeakOB, p.NumPeakUB,
				p.TimePeak, p.MaxPeak, p.TimePulseOB, p.TimePulseUB,
			)
		}
	}

	err = wbuf.Flush()
	if err != nil {
		return nil, fmt.Errorf("could not flush output: %w", err)
	}

	return frames, nil
}

func readRaw(fname string, size int) ([]spy.Frame, int, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, 0, fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	words, err := spy.ReadCapture(f)
	if err != nil {
		return nil, 0, fmt.Errorf("could not read %q: %w", fname, err)
	}

	return spy.DecodeCaptures(words, size), len(words), nil
}

func readLCIO(fname string) ([]spy.Frame, error) {
	r, err := lcio.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	var frames []spy.Frame
	err = xcnv.LCIO2Spy(r, func(f spy.Frame) error {
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not read frames from %q: %w", fname, err)
	}
	return frames, nil
}

func export(oname string, recs []Record) error {
	o, err := os.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create CBOR file: %w", err)
	}
	defer o.Close()

	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return fmt.Errorf("could not create CBOR encoder: %w", err)
	}

	err = enc.NewEncoder(o).Encode(recs)
	if err != nil {
		return fmt.Errorf("could not encode frames: %w", err)
	}

	err = o.Close()
	if err != nil {
		return fmt.Errorf("could not close CBOR file: %w", err)
	}
	return nil
}
