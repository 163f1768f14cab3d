// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oei

import (
	"encoding/binary"
	"fmt"
)

// Op is an OEI transaction type.
type Op uint8

const (
	OpRead  Op = 0
	OpWrite Op = 1
)

func (op Op) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
}

const (
	wordSize = 8 // bytes per OEI word
	hdrWords = 2 // header+address words

	// MaxWords is the maximum number of data words of a transaction.
	MaxWords = 0xff

	maxPacketSize = (hdrWords + MaxWords) * wordSize
)

// Packet is an OEI request or reply.
//
// On the wire, a packet is a sequence of little-endian 64-bit words:
//
//	word 0: op | count<<8
//	word 1: address
//	word 2: data...
type Packet struct {
	Op    Op
	Count int // number of data words of the transaction
	Addr  uint64
	Data  []uint64
}

func (p Packet) header() uint64 {
	return uint64(p.Op) | uint64(p.Count&0xff)<<8
}

// MarshalBinary encodes the packet into its wire format.
func (p Packet) MarshalBinary() ([]byte, error) {
	if p.Count < 0 || p.Count > MaxWords {
		return nil, fmt.Errorf("oei: invalid word count %d", p.Count)
	}
	if len(p.Data) > MaxWords {
		return nil, fmt.Errorf("oei: too many data words (%d > %d)", len(p.Data), MaxWords)
	}

	buf := make([]byte, (hdrWords+len(p.Data))*wordSize)
	binary.LittleEndian.PutUint64(buf[0:], p.header())
	binary.LittleEndian.PutUint64(buf[wordSize:], p.Addr)
	for i, v := range p.Data {
		binary.LittleEndian.PutUint64(buf[(hdrWords+i)*wordSize:], v)
	}
	return buf, nil
}

// UnmarshalBinary decodes a packet from its wire format.
func (p *Packet) UnmarshalBinary(raw []byte) error {
	if len(raw) < hdrWords*wordSize {
		return fmt.Errorf("oei: packet too short (%d bytes)", len(raw))
	}
	if len(raw)%wordSize != 0 {
		return fmt.Errorf("oei: invalid packet size (%d bytes)", len(raw))
	}

	hdr := binary.LittleEndian.Uint64(raw[0:])
	p.Op = Op(hdr & 0xff)
	p.Count = int((hdr >> 8) & 0xff)
	p.Addr = binary.LittleEndian.Uint64(raw[wordSize:])

	n := len(raw)/wordSize - hdrWords
	p.Data = make([]uint64, n)
	for i := range p.Data {
		p.Data[i] = binary.LittleEndian.Uint64(raw[(hdrWords+i)*wordSize:])
	}
	return nil
}
