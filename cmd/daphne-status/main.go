// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command daphne-status reports the firmware version and the timing
// endpoint status of DAPHNE boards.
//
// Usage: daphne-status [OPTIONS] ADDR1 [ADDR2 [ADDR3 ...]]
//
// Example:
//
//	$> daphne-status 10.73.137.110
//	=== DAPHNE 10.73.137.110 ===
//	DAPHNE firmware version 2305
//	MMCM0 is LOCKED OK
//	Master clock MMCM1 is LOCKED OK
//	CDR chip signal OK (LOS=0)
//	CDR chip LOCKED (LOL=0) OK
//	Timing SFP module optical signal OK (LOS=0)
//	Timing SFP module is present OK
//	Timing endpoint timestamp is valid
//	Endpoint State = 8 : Good to go!!!
package main // import "github.com/go-lpc/daphne/cmd/daphne-status"

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/daphne"
	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/oei"
	"golang.org/x/sync/errgroup"
)

const usage = `daphne-status reports the firmware version and the timing endpoint status of DAPHNE boards.

Usage: daphne-status [OPTIONS] ADDR1 [ADDR2 [ADDR3 ...]]

Example:

 $> daphne-status 10.73.137.110
 $> daphne-status -timeout=5s 10.73.137.110 10.73.137.111:2001

options:
`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("daphne-status: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("daphne-status", flag.ExitOnError)

		timeout = fset.Duration("timeout", oei.DefaultTimeout, "timeout of a register transaction")
		version = fset.Bool("version", false, "display version and exit")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if *version {
		v, sum := daphne.Version()
		fmt.Fprintf(w, "daphne-status version %s %s\n", v, sum)
		return
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing DAPHNE board address")
	}

	err = process(w, fset.Args(), *timeout)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func process(w io.Writer, addrs []string, timeout time.Duration) error {
	var (
		grp  errgroup.Group
		outs = make([]bytes.Buffer, len(addrs))
		oks  = make([]bool, len(addrs))
	)

	for i := range addrs {
		i := i
		grp.Go(func() error {
			ok, err := report(&outs[i], addrs[i], timeout)
			if err != nil {
				return fmt.Errorf("could not get status of board %q: %w", addrs[i], err)
			}
			oks[i] = ok
			return nil
		})
	}

	err := grp.Wait()

	for i := range outs {
		_, werr := w.Write(outs[i].Bytes())
		if werr != nil && err == nil {
			err = fmt.Errorf("could not write report: %w", werr)
		}
	}
	if err != nil {
		return err
	}

	n := 0
	for _, ok := range oks {
		if !ok {
			n++
		}
	}
	if n != 0 {
		return fmt.Errorf("%d board(s) not ready", n)
	}
	return nil
}

func report(w io.Writer, addr string, timeout time.Duration) (bool, error) {
	brd, err := board.Open(
		addr,
		board.WithTimeout(timeout),
		board.WithLogger(log.New(io.Discard, "", 0)),
	)
	if err != nil {
		return false, err
	}
	defer brd.Close()

	fw, err := brd.FirmwareVersion()
	if err != nil {
		return false, err
	}

	st, err := brd.Status()
	if err != nil {
		return false, err
	}

	fmt.Fprintf(w, "=== DAPHNE %s ===\n", addr)
	fmt.Fprintf(w, "DAPHNE firmware version %X\n", fw)
	err = st.Report(w)
	if err != nil {
		return false, err
	}

	return st.OK(), nil
}
