// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command daphne-tdaq starts a TDAQ server for a DAPHNE board.
//
// The board address is the first positional argument.
// The capture period and queue size may be set with the
// $DAPHNE_CAPTURE_PERIOD and $DAPHNE_QUEUE_SIZE environment variables.
package main // import "github.com/go-lpc/daphne/cmd/daphne-tdaq"

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/daphne/node"
)

func main() {
	cmd := flags.New()

	if len(cmd.Args) == 0 {
		log.Panicf("missing DAPHNE board address")
	}

	opts, err := optionsFrom(os.Getenv)
	if err != nil {
		log.Panicf("invalid environment: %+v", err)
	}

	dev := node.New(cmd.Args[0], opts...)

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/frames", dev.Frames)

	srv.RunHandle(dev.Run)

	err = srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

func optionsFrom(getenv func(string) string) ([]node.Option, error) {
	var opts []node.Option

	if v := getenv("DAPHNE_CAPTURE_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("could not parse capture period %q: %w", v, err)
		}
		opts = append(opts, node.WithPeriod(d))
	}

	if v := getenv("DAPHNE_QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid queue size %q", v)
		}
		opts = append(opts, node.WithQueueSize(n))
	}

	return opts, nil
}
