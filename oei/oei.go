// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package oei implements the OEI register access protocol over UDP.
package oei // import "github.com/go-lpc/daphne/oei"

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	DefaultPort    = 2001
	DefaultTimeout = 2 * time.Second
)

type config struct {
	port    int
	timeout time.Duration
}

func newConfig() config {
	return config{
		port:    DefaultPort,
		timeout: DefaultTimeout,
	}
}

// Option configures a connection.
type Option func(*config)

// WithPort sets the UDP port used when the dialed address has none.
func WithPort(port int) Option {
	return func(cfg *config) {
		cfg.port = port
	}
}

// WithTimeout sets the deadline of a single request/reply exchange.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = timeout
	}
}

// Conn is a connection to an OEI endpoint.
type Conn struct {
	conn    net.Conn
	timeout time.Duration
	buf     []byte
}

// Dial connects to the OEI endpoint at addr, a host or a host:port.
func Dial(addr string, opts ...Option) (*Conn, error) {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(cfg.port))
	}

	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("oei: could not dial %q: %w", addr, err)
	}

	return &Conn{
		conn:    conn,
		timeout: cfg.timeout,
		buf:     make([]byte, maxPacketSize),
	}, nil
}

// Close closes the connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Read reads n consecutive words starting at addr.
func (c *Conn) Read(addr uint64, n int) ([]uint64, error) {
	if n <= 0 || n > MaxWords {
		return nil, fmt.Errorf("oei: invalid read size %d at 0x%08x", n, addr)
	}

	rep, err := c.exchange(Packet{Op: OpRead, Count: n, Addr: addr})
	if err != nil {
		return nil, fmt.Errorf("oei: could not read %d words at 0x%08x: %w", n, addr, err)
	}
	if len(rep.Data) != n {
		return nil, fmt.Errorf(
			"oei: could not read %d words at 0x%08x: short reply (got=%d)",
			n, addr, len(rep.Data),
		)
	}

	return rep.Data, nil
}

// Write writes vs to consecutive words starting at addr.
func (c *Conn) Write(addr uint64, vs ...uint64) error {
	if len(vs) == 0 || len(vs) > MaxWords {
		return fmt.Errorf("oei: invalid write size %d at 0x%08x", len(vs), addr)
	}

	_, err := c.exchange(Packet{Op: OpWrite, Count: len(vs), Addr: addr, Data: vs})
	if err != nil {
		return fmt.Errorf("oei: could not write %d words at 0x%08x: %w", len(vs), addr, err)
	}
	return nil
}

var errMismatch = errors.New("reply header mismatch")

func (c *Conn) exchange(req Packet) (Packet, error) {
	var rep Packet

	raw, err := req.MarshalBinary()
	if err != nil {
		return rep, err
	}

	err = c.conn.SetDeadline(time.Now().Add(c.timeout))
	if err != nil {
		return rep, fmt.Errorf("could not set deadline: %w", err)
	}

	_, err = c.conn.Write(raw)
	if err != nil {
		return rep, fmt.Errorf("could not send request: %w", err)
	}

	n, err := c.conn.Read(c.buf)
	if err != nil {
		return rep, fmt.Errorf("could not receive reply: %w", err)
	}

	err = rep.UnmarshalBinary(c.buf[:n])
	if err != nil {
		return rep, err
	}

	if rep.Op != req.Op || rep.Count != req.Count || rep.Addr != req.Addr {
		return rep, fmt.Errorf(
			"%w (op=%v|%v, count=%d|%d, addr=0x%x|0x%x)", errMismatch,
			rep.Op, req.Op, rep.Count, req.Count, rep.Addr, req.Addr,
		)
	}

	return rep, nil
}
