// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package node implements a tdaq run-control node driving a DAPHNE board.
package node // import "github.com/go-lpc/daphne/node"

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/spy"
)

// Option configures a node server.
type Option func(*Server)

// WithPeriod sets the period between two spy buffer captures.
func WithPeriod(d time.Duration) Option {
	return func(srv *Server) {
		srv.period = d
	}
}

// WithQueueSize sets the number of decoded frames buffered before
// new frames are dropped.
func WithQueueSize(n int) Option {
	return func(srv *Server) {
		srv.qsize = n
	}
}

// WithBoardOptions sets the options used to open the board.
func WithBoardOptions(opts ...board.Option) Option {
	return func(srv *Server) {
		srv.bopts = opts
	}
}

// Server is a tdaq node capturing and publishing the frames of
// a DAPHNE board.
type Server struct {
	addr   string // default board address
	period time.Duration
	qsize  int
	bopts  []board.Option

	mu     sync.Mutex
	cfg    board.Config
	brd    *board.Board
	frames chan spy.Frame

	stats struct {
		captures int
		frames   int
		dropped  int
	}
}

// New returns a node server for the board at addr.
// The address may be overridden by the board configuration.
func New(addr string, opts ...Option) *Server {
	srv := &Server{
		addr:   addr,
		period: time.Second,
		qsize:  1024,
		cfg:    board.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.frames = make(chan spy.Frame, srv.qsize)
	return srv
}

// OnConfig loads the board configuration.
// The request body may carry the path to a JSON configuration file.
func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")

	fname := ""
	if len(req.Body) != 0 {
		dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
		fname = strings.TrimSpace(dec.ReadStr())
		if err := dec.Err(); err != nil {
			ctx.Msg.Errorf("could not decode /config request: %+v", err)
			return fmt.Errorf("could not decode /config request: %w", err)
		}
	}

	cfg := board.DefaultConfig()
	if fname != "" {
		var err error
		cfg, err = board.LoadConfig(fname)
		if err != nil {
			ctx.Msg.Errorf("could not load configuration: %+v", err)
			return fmt.Errorf("could not load configuration: %w", err)
		}
		ctx.Msg.Infof("loaded configuration from %q", fname)
	}
	if cfg.Addr == "" {
		cfg.Addr = srv.addr
	}

	srv.mu.Lock()
	srv.cfg = cfg
	srv.mu.Unlock()
	return nil
}

// OnInit connects to the board, checks its timing endpoint and
// applies the configuration.
func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")

	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.brd != nil {
		_ = srv.brd.Close()
		srv.brd = nil
	}

	brd, err := board.Open(srv.cfg.Addr, srv.bopts...)
	if err != nil {
		ctx.Msg.Errorf("could not open board %q: %+v", srv.cfg.Addr, err)
		return fmt.Errorf("could not open board %q: %w", srv.cfg.Addr, err)
	}
	defer func() {
		if err != nil {
			_ = brd.Close()
		}
	}()

	fw, err := brd.FirmwareVersion()
	if err != nil {
		ctx.Msg.Errorf("could not read firmware version: %+v", err)
		return fmt.Errorf("could not read firmware version: %w", err)
	}
	ctx.Msg.Infof("board %q: firmware version %X", srv.cfg.Addr, fw)

	st, err := brd.Status()
	if err != nil {
		ctx.Msg.Errorf("could not read endpoint status: %+v", err)
		return fmt.Errorf("could not read endpoint status: %w", err)
	}
	if !st.OK() {
		for _, line := range st.Lines() {
			ctx.Msg.Errorf("%s", line)
		}
		err = fmt.Errorf("timing endpoint not ready (status=0x%x, state=%d)", st.Raw, st.State)
		return err
	}

	err = brd.Configure(srv.cfg)
	if err != nil {
		ctx.Msg.Errorf("could not configure board: %+v", err)
		return fmt.Errorf("could not configure board: %w", err)
	}

	srv.brd = brd
	return nil
}

func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.drain()
	srv.resetStats()
	if srv.brd == nil {
		return nil
	}
	err := srv.brd.Close()
	srv.brd = nil
	if err != nil {
		return fmt.Errorf("could not close board: %w", err)
	}
	return nil
}

func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.brd == nil {
		return fmt.Errorf("board not initialized")
	}
	srv.resetStats()
	return nil
}

func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	ctx.Msg.Debugf(
		"received /stop command... -> captures=%d, frames=%d, dropped=%d",
		srv.stats.captures, srv.stats.frames, srv.stats.dropped,
	)
	return nil
}

func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.brd == nil {
		return nil
	}
	err := srv.brd.Close()
	srv.brd = nil
	return err
}

// Frames publishes one decoded frame per message.
func (srv *Server) Frames(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case f := <-srv.frames:
		raw, err := MarshalFrame(&f)
		if err != nil {
			return err
		}
		dst.Body = raw
	}
	return nil
}

// Run periodically captures the output spy buffer until the run is stopped.
func (srv *Server) Run(ctx tdaq.Context) error {
	tck := time.NewTicker(srv.period)
	defer tck.Stop()

	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		case <-tck.C:
			err := srv.capture(ctx)
			if err != nil {
				ctx.Msg.Errorf("could not capture spy buffer: %+v", err)
				return fmt.Errorf("could not capture spy buffer: %w", err)
			}
		}
	}
}

func (srv *Server) capture(ctx tdaq.Context) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.brd == nil {
		return fmt.Errorf("board not initialized")
	}

	words, err := srv.brd.Capture()
	if err != nil {
		return err
	}
	srv.stats.captures++

	frames := spy.Decode(words, len(words))
	for _, f := range frames {
		select {
		case srv.frames <- f:
			srv.stats.frames++
		default:
			srv.stats.dropped++
		}
	}
	ctx.Msg.Debugf("capture %d: %d frames", srv.stats.captures, len(frames))
	return nil
}

func (srv *Server) drain() {
	for {
		select {
		case <-srv.frames:
		default:
			return
		}
	}
}

func (srv *Server) resetStats() {
	srv.stats.captures = 0
	srv.stats.frames = 0
	srv.stats.dropped = 0
}
