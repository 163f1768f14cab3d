// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package board drives a DAPHNE front-end board through its register map.
package board // import "github.com/go-lpc/daphne/board"

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/go-lpc/daphne/oei"
)

type config struct {
	msg     *log.Logger
	timeout time.Duration
	port    int
}

// Option configures a board.
type Option func(*config)

// WithLogger sets the logger used to report board operations.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithTimeout sets the timeout of a single register transaction.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = timeout
	}
}

// WithPort sets the OEI port used when the board address has none.
func WithPort(port int) Option {
	return func(cfg *config) {
		cfg.port = port
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		msg:     log.New(os.Stdout, "board: ", 0),
		timeout: oei.DefaultTimeout,
		port:    oei.DefaultPort,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Board is a DAPHNE board.
type Board struct {
	msg *log.Logger

	mu   sync.Mutex
	regs regs
	c    io.Closer
}

// Open connects to the DAPHNE board at addr.
func Open(addr string, opts ...Option) (*Board, error) {
	cfg := newConfig(opts)
	conn, err := oei.Dial(addr, oei.WithPort(cfg.port), oei.WithTimeout(cfg.timeout))
	if err != nil {
		return nil, fmt.Errorf("board: could not open %q: %w", addr, err)
	}
	brd := newBoard(conn, cfg)
	brd.c = conn
	return brd, nil
}

// New returns a board using rw to access its registers.
func New(rw RegRW, opts ...Option) *Board {
	return newBoard(rw, newConfig(opts))
}

func newBoard(rw RegRW, cfg config) *Board {
	return &Board{
		msg:  cfg.msg,
		regs: regs{rw: rw},
	}
}

// Close closes the connection to the board.
// Closing an already closed board is a no-op.
func (brd *Board) Close() error {
	brd.mu.Lock()
	defer brd.mu.Unlock()
	if brd.c == nil {
		return nil
	}
	c := brd.c
	brd.c = nil
	return c.Close()
}

// do runs f with a fresh register error state and returns the first
// register transaction error.
func (brd *Board) do(f func(r *regs)) error {
	brd.mu.Lock()
	defer brd.mu.Unlock()
	brd.regs.err = nil
	f(&brd.regs)
	return brd.regs.err
}

// FirmwareVersion returns the firmware version of the board.
func (brd *Board) FirmwareVersion() (uint64, error) {
	var v uint64
	err := brd.do(func(r *regs) {
		v = r.r64(RegFirmware)
	})
	if err != nil {
		return 0, fmt.Errorf("board: could not read firmware version: %w", err)
	}
	return v, nil
}

// Status returns the timing endpoint and master clock status.
func (brd *Board) Status() (EndpointStatus, error) {
	var v uint64
	err := brd.do(func(r *regs) {
		v = r.r64(RegEndpoint)
	})
	if err != nil {
		return EndpointStatus{}, fmt.Errorf("board: could not read endpoint status: %w", err)
	}
	return DecodeEndpointStatus(v), nil
}

// TriggerSpy triggers all spy buffers.
func (brd *Board) TriggerSpy() error {
	err := brd.do(func(r *regs) {
		r.w64(RegSpyTrigger, spyTriggerValue)
	})
	if err != nil {
		return fmt.Errorf("board: could not trigger spy buffers: %w", err)
	}
	return nil
}

// ReadOutputSpy reads the whole output spy buffer.
func (brd *Board) ReadOutputSpy() ([]uint32, error) {
	words := make([]uint32, 0, OutputSpyLen)
	err := brd.do(func(r *regs) {
		for addr := uint64(RegOutputSpy); addr < RegOutputSpy+OutputSpyLen; addr += spyBlockLen {
			for _, v := range r.read(addr, spyBlockLen) {
				words = append(words, uint32(v))
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("board: could not read output spy buffer: %w", err)
	}
	return words, nil
}

// Capture triggers the spy buffers and reads back the output spy buffer.
func (brd *Board) Capture() ([]uint32, error) {
	err := brd.TriggerSpy()
	if err != nil {
		return nil, err
	}
	return brd.ReadOutputSpy()
}

// Configure validates and applies cfg to the board.
func (brd *Board) Configure(cfg Config) error {
	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("board: invalid configuration: %w", err)
	}

	err = brd.do(func(r *regs) {
		r.w64(RegStreamMux, cfg.MuxWords()...)
		if r.err == nil {
			brd.msg.Printf("stream mux configured: %v", cfg.StreamMux)
		}

		r.w64(RegLinkCtrl, cfg.LinkWord())
		if r.err == nil {
			brd.msg.Printf("output links configured: %v (0x%02x)", cfg.Links, cfg.LinkWord())
		}

		r.w64(RegSelfMask, cfg.SelfTrigger.ChannelMask())
		if r.err == nil {
			brd.msg.Printf("self-trigger channels configured: %v", cfg.SelfTrigger.Channels)
		}

		r.w64(RegSelfParams, cfg.SelfTrigger.ParamsWord())
		if r.err == nil {
			brd.msg.Printf("self-trigger configured: 0x%04x", cfg.SelfTrigger.ParamsWord())
		}
	})
	if err != nil {
		return fmt.Errorf("board: could not configure board: %w", err)
	}
	return nil
}

// ReadConfig reads back the configuration registers of the board.
func (brd *Board) ReadConfig() (Config, error) {
	var (
		cfg    Config
		link   uint64
		mux    []uint64
		mask   uint64
		params uint64
	)
	err := brd.do(func(r *regs) {
		mux = r.read(RegStreamMux, numMuxRegs)
		link = r.r64(RegLinkCtrl)
		mask = r.r64(RegSelfMask)
		params = r.r64(RegSelfParams)
	})
	if err != nil {
		return cfg, fmt.Errorf("board: could not read configuration: %w", err)
	}

	for i := range cfg.Links {
		cfg.Links[i] = LinkMode((link >> (2 * i)) & 0b11)
		if cfg.Links[i] == 0b01 {
			cfg.Links[i] = LinkIdle
		}
	}
	for i, v := range mux {
		cfg.StreamMux[i/NumInputs][i%NumInputs] = uint8(v)
	}
	cfg.SelfTrigger = selfTriggerFrom(mask, params)
	return cfg, nil
}
