// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fakeoei

import (
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/go-lpc/daphne/oei"
)

func TestBoard(t *testing.T) {
	brd, err := New("")
	if err != nil {
		t.Fatalf("could not start fake board: %+v", err)
	}
	defer brd.Close()

	brd.OnWrite(func(b *Board, addr uint64, vs []uint64) {
		b.SetLocked(addr+0x100, vs[0]+1)
	})

	conn, err := net.Dial("udp", brd.Addr())
	if err != nil {
		t.Fatalf("could not dial: %+v", err)
	}
	defer conn.Close()

	send := func(req oei.Packet) oei.Packet {
		t.Helper()
		raw, err := req.MarshalBinary()
		if err != nil {
			t.Fatalf("could not marshal request: %+v", err)
		}
		_ = conn.SetDeadline(time.Now().Add(time.Second))
		_, err = conn.Write(raw)
		if err != nil {
			t.Fatalf("could not send request: %+v", err)
		}
		buf := make([]byte, 4096)
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("could not read reply: %+v", err)
		}
		var rep oei.Packet
		err = rep.UnmarshalBinary(buf[:n])
		if err != nil {
			t.Fatalf("could not unmarshal reply: %+v", err)
		}
		return rep
	}

	rep := send(oei.Packet{Op: oei.OpWrite, Count: 2, Addr: 0x10, Data: []uint64{41, 7}})
	if got, want := rep, (oei.Packet{Op: oei.OpWrite, Count: 2, Addr: 0x10, Data: []uint64{}}); !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid write reply:\ngot= %+v\nwant=%+v", got, want)
	}

	rep = send(oei.Packet{Op: oei.OpRead, Count: 3, Addr: 0x10})
	if got, want := rep.Data, []uint64{41, 7, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid read reply: got=%v, want=%v", got, want)
	}

	if got, want := brd.Get(0x110), uint64(42); got != want {
		t.Fatalf("invalid hook register: got=%d, want=%d", got, want)
	}

	if got, want := len(brd.Writes()), 1; got != want {
		t.Fatalf("invalid number of writes: got=%d, want=%d", got, want)
	}
}
