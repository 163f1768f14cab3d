// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package board

import (
	"fmt"
)

// DAPHNE register map.
const (
	RegSpyTrigger = 0x00002000 // write anything: trigger all spy buffers
	RegLinkCtrl   = 0x00003001 // output link control byte
	RegEndpoint   = 0x00004000 // timing endpoint and master clock status
	RegStreamMux  = 0x00005000 // streaming sender input select, 16 words
	RegSelfMask   = 0x00006001 // self-trigger channel enable mask
	RegSelfParams = 0x00007001 // self-trigger configuration parameters
	RegFirmware   = 0x00009000 // firmware version
	RegOutputSpy  = 0x40600000 // output spy buffer
)

const (
	OutputSpyLen = 4096 // depth of the output spy buffer, in words
	spyBlockLen  = 128  // words per output spy buffer read

	spyTriggerValue = 1234

	NumLinks   = 4
	NumInputs  = 4  // inputs per streaming sender
	NumChans   = 40 // self-trigger channels
	numMuxRegs = NumLinks * NumInputs
)

// RegRW reads and writes DAPHNE registers.
type RegRW interface {
	Read(addr uint64, n int) ([]uint64, error)
	Write(addr uint64, vs ...uint64) error
}

// regs holds the first error of a sequence of register transactions.
// Once an error occurred, subsequent transactions are no-ops.
type regs struct {
	rw  RegRW
	err error
}

func (r *regs) read(addr uint64, n int) []uint64 {
	if r.err != nil {
		return make([]uint64, n)
	}
	vs, err := r.rw.Read(addr, n)
	if err != nil {
		r.err = fmt.Errorf("board: could not read register 0x%08x: %w", addr, err)
		return make([]uint64, n)
	}
	return vs
}

func (r *regs) r64(addr uint64) uint64 {
	return r.read(addr, 1)[0]
}

func (r *regs) w64(addr uint64, vs ...uint64) {
	if r.err != nil {
		return
	}
	err := r.rw.Write(addr, vs...)
	if err != nil {
		r.err = fmt.Errorf("board: could not write register 0x%08x: %w", addr, err)
	}
}
