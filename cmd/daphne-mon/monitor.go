// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-lpc/daphne/board"
	"golang.org/x/sync/errgroup"
)

const maxAlerts = 5 // per board, until it recovers

type monitor struct {
	msg     *log.Logger
	boards  []string
	freq    time.Duration
	timeout time.Duration
	notify  []notifier

	mu     sync.Mutex
	alerts map[string]int // keep track of the number of alerts per board
}

func newMonitor(boards []string, freq, timeout time.Duration, ns ...notifier) *monitor {
	return &monitor{
		msg:     log.New(os.Stdout, "daphne-mon: ", 0),
		boards:  boards,
		freq:    freq,
		timeout: timeout,
		notify:  ns,
		alerts:  make(map[string]int),
	}
}

func (mon *monitor) run(ctx context.Context) {
	tick := time.NewTicker(mon.freq)
	defer tick.Stop()

	mon.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			mon.poll(ctx)
		}
	}
}

// poll probes all boards concurrently.
func (mon *monitor) poll(ctx context.Context) {
	grp, _ := errgroup.WithContext(ctx)
	for _, addr := range mon.boards {
		addr := addr
		grp.Go(func() error {
			st, err := mon.probe(addr)
			mon.check(alert{
				Board:  addr,
				Status: st,
				Err:    err,
				Time:   time.Now().UTC(),
			})
			return nil
		})
	}
	_ = grp.Wait()
}

func (mon *monitor) probe(addr string) (board.EndpointStatus, error) {
	brd, err := board.Open(addr,
		board.WithTimeout(mon.timeout),
		board.WithLogger(log.New(io.Discard, "", 0)),
	)
	if err != nil {
		return board.EndpointStatus{}, err
	}
	defer brd.Close()

	return brd.Status()
}

func (mon *monitor) check(a alert) {
	mon.mu.Lock()
	defer mon.mu.Unlock()

	if a.Err == nil && a.Status.OK() {
		if mon.alerts[a.Board] > 0 {
			mon.msg.Printf("board %q recovered (status=0x%x)", a.Board, a.Status.Raw)
		}
		delete(mon.alerts, a.Board)
		return
	}

	mon.msg.Printf("board %q not ready: %s", a.Board, a.summary())
	mon.alerts[a.Board]++
	if mon.alerts[a.Board] > maxAlerts {
		return
	}

	for _, n := range mon.notify {
		if n == nil {
			continue
		}
		err := n.notify(a)
		if err != nil {
			mon.msg.Printf("could not send alert: %+v", err)
		}
	}
}

type alert struct {
	Board  string
	Status board.EndpointStatus
	Err    error
	Time   time.Time
}

func (a alert) summary() string {
	if a.Err != nil {
		return fmt.Sprintf("error: %v", a.Err)
	}
	return fmt.Sprintf("status=0x%x, state=%v", a.Status.Raw, a.Status.State)
}

func (a alert) subject() string {
	return fmt.Sprintf("[daphne-mon] board alert: %q", a.Board)
}

func (a alert) body() string {
	o := new(strings.Builder)
	fmt.Fprintf(o, "board: %q\n", a.Board)
	fmt.Fprintf(o, "time:  %s\n", a.Time.Format(time.RFC3339))
	if a.Err != nil {
		fmt.Fprintf(o, "error: %v\n", a.Err)
		return o.String()
	}
	_ = a.Status.Report(o)
	return o.String()
}
