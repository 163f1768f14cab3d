// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command daphne-sim runs a simulated DAPHNE board, serving its register
// map over OEI.
//
// Each trigger of the spy buffers fills the output spy buffer with
// synthetic self-triggered frames, for the channels enabled in the
// self-trigger channel mask.
package main // import "github.com/go-lpc/daphne/cmd/daphne-sim"

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"

	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/internal/fakeoei"
	"github.com/go-lpc/daphne/oei"
)

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("daphne-sim: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("daphne-sim", flag.ExitOnError)

		addr   = fset.String("addr", net.JoinHostPort("127.0.0.1", strconv.Itoa(oei.DefaultPort)), "[ip]:port to listen on")
		fwv    = fset.Uint64("firmware", 0x901, "firmware version")
		status = fset.Uint64("status", 0x1803, "timing endpoint status")
		cfg    simConfig
	)
	fset.IntVar(&cfg.frames, "n", 4, "number of frames per capture")
	fset.Int64Var(&cfg.seed, "seed", 1234, "seed of the frame generator")
	fset.Float64Var(&cfg.pedestal, "ped", 8000, "pedestal of the waveforms (ADC counts)")
	fset.Float64Var(&cfg.noise, "noise", 3, "noise of the waveforms (ADC counts)")

	fset.Usage = func() {
		fmt.Printf(`Usage: daphne-sim [OPTIONS]

ex:
 $> daphne-sim -addr=127.0.0.1:2001 -n=6
 $> daphne-status 127.0.0.1:2001

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err = run(ctx, w, *addr, *fwv, *status, cfg)
	if err != nil {
		log.Fatalf("could not run simulated board: %+v", err)
	}
}

func run(ctx context.Context, w io.Writer, addr string, fwv, status uint64, cfg simConfig) error {
	sim, err := newSim(cfg)
	if err != nil {
		return err
	}

	brd, err := fakeoei.New(addr)
	if err != nil {
		return fmt.Errorf("could not start board: %w", err)
	}
	defer brd.Close()

	setup(brd, sim, fwv, status)
	fmt.Fprintf(w, "simulated DAPHNE board listening on %s\n", brd.Addr())

	<-ctx.Done()
	return brd.Close()
}

// setup loads the power-up register values and installs the frame
// generator.
func setup(brd *fakeoei.Board, sim *simulator, fwv, status uint64) {
	def := board.DefaultConfig()
	brd.Set(board.RegFirmware, fwv)
	brd.Set(board.RegEndpoint, status)
	brd.Set(board.RegStreamMux, def.MuxWords()...)
	brd.Set(board.RegLinkCtrl, def.LinkWord())
	brd.Set(board.RegSelfMask, def.SelfTrigger.ChannelMask())
	brd.Set(board.RegSelfParams, def.SelfTrigger.ParamsWord())
	brd.OnWrite(sim.onWrite)
}
