// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakeoei provides an in-memory OEI endpoint over UDP.
package fakeoei // import "github.com/go-lpc/daphne/internal/fakeoei"

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/go-lpc/daphne/oei"
)

// Board is a fake DAPHNE register space served over UDP.
type Board struct {
	conn net.PacketConn

	mu     sync.Mutex
	regs   map[uint64]uint64
	writes []oei.Packet
	mute   bool
	hook   func(b *Board, addr uint64, vs []uint64)

	done chan struct{}
}

// New starts a fake board listening on addr.
// An empty addr listens on a random loopback port.
func New(addr string) (*Board, error) {
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("fakeoei: could not listen on %q: %w", addr, err)
	}

	b := &Board{
		conn: conn,
		regs: make(map[uint64]uint64),
		done: make(chan struct{}),
	}
	go b.serve()
	return b, nil
}

// Addr returns the host:port the board listens on.
func (b *Board) Addr() string {
	return b.conn.LocalAddr().String()
}

// Close stops the board.
func (b *Board) Close() error {
	err := b.conn.Close()
	<-b.done
	return err
}

// Mute stops (or resumes) replies to requests.
func (b *Board) Mute(v bool) {
	b.mu.Lock()
	b.mute = v
	b.mu.Unlock()
}

// OnWrite registers f to be called after each write transaction,
// with the board lock held.
func (b *Board) OnWrite(f func(b *Board, addr uint64, vs []uint64)) {
	b.mu.Lock()
	b.hook = f
	b.mu.Unlock()
}

// Set stores vs at consecutive addresses starting at addr.
func (b *Board) Set(addr uint64, vs ...uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.SetLocked(addr, vs...)
}

// SetLocked is like Set, for use from an OnWrite hook.
func (b *Board) SetLocked(addr uint64, vs ...uint64) {
	for i, v := range vs {
		b.regs[addr+uint64(i)] = v
	}
}

// GetLocked is like Get, for use from an OnWrite hook.
func (b *Board) GetLocked(addr uint64) uint64 {
	return b.regs[addr]
}

// Get returns the value stored at addr.
func (b *Board) Get(addr uint64) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.GetLocked(addr)
}

// Writes returns the write transactions received so far.
func (b *Board) Writes() []oei.Packet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]oei.Packet(nil), b.writes...)
}

func (b *Board) serve() {
	defer close(b.done)

	buf := make([]byte, 64*1024)
	for {
		n, addr, err := b.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		var req oei.Packet
		err = req.UnmarshalBinary(buf[:n])
		if err != nil {
			continue
		}

		rep, ok := b.handle(req)
		if !ok {
			continue
		}

		raw, err := rep.MarshalBinary()
		if err != nil {
			continue
		}
		_, _ = b.conn.WriteTo(raw, addr)
	}
}

func (b *Board) handle(req oei.Packet) (oei.Packet, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mute {
		return req, false
	}

	rep := oei.Packet{Op: req.Op, Count: req.Count, Addr: req.Addr}
	switch req.Op {
	case oei.OpRead:
		rep.Data = make([]uint64, req.Count)
		for i := range rep.Data {
			rep.Data[i] = b.regs[req.Addr+uint64(i)]
		}
	case oei.OpWrite:
		b.SetLocked(req.Addr, req.Data...)
		b.writes = append(b.writes, req)
		if b.hook != nil {
			b.hook(b, req.Addr, req.Data)
		}
	default:
		return req, false
	}
	return rep, true
}
