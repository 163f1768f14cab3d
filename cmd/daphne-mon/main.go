// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command daphne-mon monitors the timing endpoint status of DAPHNE boards
// and sends alerts when a board is not ready.
//
// Mail alerts are configured via the $MAIL_USERNAME, $MAIL_PASSWORD,
// $MAIL_SERVER, $MAIL_PORT and $MAIL_TGTS environment variables.
// SMS alerts are posted to the $SMS_ENDPOINT end-point.
package main // import "github.com/go-lpc/daphne/cmd/daphne-mon"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/go-lpc/daphne/oei"
)

func main() {
	var (
		freq    = flag.Duration("freq", 30*time.Second, "probing interval")
		timeout = flag.Duration("timeout", oei.DefaultTimeout, "timeout of a register transaction")
		sms     = flag.Bool("sms", false, "enable SMS alerts")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: daphne-mon [OPTIONS] ADDR1 [ADDR2 [ADDR3 ...]]

ex:
 $> daphne-mon -freq=1m 10.73.137.110 10.73.137.111

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	log.SetPrefix("daphne-mon: ")
	log.SetFlags(0)

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing DAPHNE board address")
	}

	ns := []notifier{mailerFromEnv()}
	if *sms {
		ns = append(ns, smserFromEnv())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	mon := newMonitor(flag.Args(), *freq, *timeout, ns...)
	log.Printf("monitoring %d board(s) every %v...", len(mon.boards), *freq)
	mon.run(ctx)
}
