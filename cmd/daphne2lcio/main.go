// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command daphne2lcio converts a DAPHNE raw capture file to an LCIO one.
package main // import "github.com/go-lpc/daphne/cmd/daphne2lcio"

import (
	"compress/flate"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/internal/xcnv"
	"github.com/go-lpc/daphne/spy"
	"go-hep.org/x/hep/lcio"
)

var (
	msg = log.New(os.Stdout, "daphne2lcio: ", 0)
)

func main() {
	var (
		oname = flag.String("o", "out.slcio", "path to output LCIO file")
		compr = flag.Int("lvl", flate.DefaultCompression, "compression level for output LCIO file")
		run   = flag.Int("run", -1, "run number (default: inferred from input file name)")
		size  = flag.Int("size", board.OutputSpyLen, "number of words per capture (0: whole file)")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: daphne2lcio [OPTIONS] run_NNN.raw

ex:
 $> daphne2lcio -o out.slcio -lvl=9 ./run_042.raw
 $> daphne2lcio -o out.slcio -run=42 ./capture.raw

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		msg.Fatalf("missing input DAPHNE raw file")
	}

	if *oname == "" {
		flag.Usage()
		msg.Fatalf("invalid output LCIO file name")
	}

	err := process(*oname, *compr, flag.Arg(0), int32(*run), *size)
	if err != nil {
		msg.Fatalf("could not convert DAPHNE file: %+v", err)
	}
}

func process(oname string, lvl int, fname string, run int32, size int) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open DAPHNE file: %w", err)
	}
	defer f.Close()

	if run < 0 {
		run, err = runNbrFrom(fname)
		if err != nil {
			return fmt.Errorf("could not infer run from %q: %w", fname, err)
		}
	}

	words, err := spy.ReadCapture(f)
	if err != nil {
		return fmt.Errorf("could not read DAPHNE file: %w", err)
	}
	frames := spy.DecodeCaptures(words, size)
	msg.Printf("decoded %d frames from %q", len(frames), fname)

	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(lvl)

	err = xcnv.Spy2LCIO(w, frames, run, msg)
	if err != nil {
		return fmt.Errorf("could not convert DAPHNE to LCIO: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}

	return nil
}

func runNbrFrom(fname string) (int32, error) {
	var (
		name = filepath.Base(fname)
		run  int32
	)
	_, err := fmt.Sscanf(name, "run_%d.raw", &run)
	return run, err
}
