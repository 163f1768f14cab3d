// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package board

import (
	"fmt"
	"io"
)

// EndpointState is the state of the timing endpoint state machine.
type EndpointState uint8

const (
	StateReset       EndpointState = 0
	StateGoodToGo    EndpointState = 8
	StateErrRx       EndpointState = 12
	StateErrTS       EndpointState = 13
	StateErrPhysical EndpointState = 14
)

var endpointStates = map[EndpointState]string{
	0:  "Starting state after reset",
	1:  "Waiting for SFP LOS to go low",
	2:  "Waiting for good frequency check",
	3:  "Waiting for phase adjustment to complete",
	4:  "Waiting for comma alignment, stable 62.5MHz phase",
	5:  "Waiting for 8b10 decoder good packet",
	6:  "Waiting for phase adjustment command",
	7:  "Waiting for time stamp initialization",
	8:  "Good to go!!!",
	12: "Error in rx",
	13: "Error in time stamp check",
	14: "Physical layer error after lock",
}

func (st EndpointState) String() string {
	if v, ok := endpointStates[st]; ok {
		return v
	}
	return "warning! undefined state!"
}

// EndpointStatus is the decoded timing endpoint and master clock status
// register.
type EndpointStatus struct {
	Raw uint64

	MMCM0Locked bool // bit 0
	MMCM1Locked bool // bit 1, master clock
	CDRLOS      bool // bit 4, CDR chip loss of signal
	CDRLOL      bool // bit 5, CDR chip loss of lock
	SFPLOS      bool // bit 6, timing SFP optical loss of signal
	SFPAbsent   bool // bit 7
	TSValid     bool // bit 12, endpoint timestamp valid

	State EndpointState // bits 8-11
}

// DecodeEndpointStatus decodes the content of the endpoint status register.
func DecodeEndpointStatus(v uint64) EndpointStatus {
	bit := func(i uint) bool { return (v>>i)&1 == 1 }
	return EndpointStatus{
		Raw:         v,
		MMCM0Locked: bit(0),
		MMCM1Locked: bit(1),
		CDRLOS:      bit(4),
		CDRLOL:      bit(5),
		SFPLOS:      bit(6),
		SFPAbsent:   bit(7),
		TSValid:     bit(12),
		State:       EndpointState((v & 0xf00) >> 8),
	}
}

// OK returns whether the clocks are locked, the timing link is up
// and the endpoint is ready to take data.
func (st EndpointStatus) OK() bool {
	return st.MMCM0Locked && st.MMCM1Locked &&
		!st.CDRLOS && !st.CDRLOL &&
		!st.SFPLOS && !st.SFPAbsent &&
		st.TSValid && st.State == StateGoodToGo
}

// Lines returns the human readable report of the endpoint status.
func (st EndpointStatus) Lines() []string {
	pick := func(v bool, ok, nok string) string {
		if v {
			return ok
		}
		return nok
	}
	return []string{
		pick(st.MMCM0Locked,
			"MMCM0 is LOCKED OK",
			"Warning! MMCM0 is UNLOCKED, need a hard reset!",
		),
		pick(st.MMCM1Locked,
			"Master clock MMCM1 is LOCKED OK",
			"Warning! Master clock MMCM1 is UNLOCKED!",
		),
		pick(st.CDRLOS,
			"Warning! CDR chip loss of signal (LOS=1)",
			"CDR chip signal OK (LOS=0)",
		),
		pick(st.CDRLOL,
			"Warning! CDR chip UNLOCKED (LOL=1)",
			"CDR chip LOCKED (LOL=0) OK",
		),
		pick(st.SFPLOS,
			"Warning! Timing SFP module optical loss of signal (LOS=1)",
			"Timing SFP module optical signal OK (LOS=0)",
		),
		pick(st.SFPAbsent,
			"Warning! Timing SFP module NOT DETECTED!",
			"Timing SFP module is present OK",
		),
		pick(st.TSValid,
			"Timing endpoint timestamp is valid",
			"Warning! Timing endpoint timestamp is NOT valid",
		),
		fmt.Sprintf("Endpoint State = %d : %v", st.State, st.State),
	}
}

// Report writes the human readable report of the endpoint status to w.
func (st EndpointStatus) Report(w io.Writer) error {
	for _, line := range st.Lines() {
		_, err := fmt.Fprintln(w, line)
		if err != nil {
			return fmt.Errorf("board: could not write endpoint status report: %w", err)
		}
	}
	return nil
}
