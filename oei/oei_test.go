// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oei_test

import (
	"errors"
	"net"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-lpc/daphne/internal/fakeoei"
	"github.com/go-lpc/daphne/oei"
)

func TestReadWrite(t *testing.T) {
	brd, err := fakeoei.New("")
	if err != nil {
		t.Fatalf("could not start fake board: %+v", err)
	}
	defer brd.Close()

	conn, err := oei.Dial(brd.Addr())
	if err != nil {
		t.Fatalf("could not dial fake board: %+v", err)
	}
	defer conn.Close()

	err = conn.Write(0x5000, 0, 2, 5, 7)
	if err != nil {
		t.Fatalf("could not write registers: %+v", err)
	}

	got, err := conn.Read(0x5000, 4)
	if err != nil {
		t.Fatalf("could not read registers: %+v", err)
	}
	if want := []uint64{0, 2, 5, 7}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid registers: got=%v, want=%v", got, want)
	}

	err = conn.Write(0x6001, 0xff_0000_00a5)
	if err != nil {
		t.Fatalf("could not write 40b register: %+v", err)
	}
	if got, want := brd.Get(0x6001), uint64(0xff_0000_00a5); got != want {
		t.Fatalf("invalid 40b register: got=0x%x, want=0x%x", got, want)
	}

	writes := brd.Writes()
	if got, want := len(writes), 2; got != want {
		t.Fatalf("invalid number of writes: got=%d, want=%d", got, want)
	}
	if got, want := writes[0].Addr, uint64(0x5000); got != want {
		t.Fatalf("invalid write address: got=0x%x, want=0x%x", got, want)
	}
}

func TestInvalidSizes(t *testing.T) {
	brd, err := fakeoei.New("")
	if err != nil {
		t.Fatalf("could not start fake board: %+v", err)
	}
	defer brd.Close()

	conn, err := oei.Dial(brd.Addr())
	if err != nil {
		t.Fatalf("could not dial fake board: %+v", err)
	}
	defer conn.Close()

	for _, tc := range []struct {
		name string
		f    func() error
		want string
	}{
		{
			name: "read-zero",
			f: func() error {
				_, err := conn.Read(0x9000, 0)
				return err
			},
			want: "oei: invalid read size 0 at 0x00009000",
		},
		{
			name: "read-too-many",
			f: func() error {
				_, err := conn.Read(0x40600000, oei.MaxWords+1)
				return err
			},
			want: "oei: invalid read size 256 at 0x40600000",
		},
		{
			name: "write-none",
			f: func() error {
				return conn.Write(0x2000)
			},
			want: "oei: invalid write size 0 at 0x00002000",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.f()
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got, want := err.Error(), tc.want; got != want {
				t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	brd, err := fakeoei.New("")
	if err != nil {
		t.Fatalf("could not start fake board: %+v", err)
	}
	defer brd.Close()
	brd.Mute(true)

	conn, err := oei.Dial(brd.Addr(), oei.WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("could not dial fake board: %+v", err)
	}
	defer conn.Close()

	_, err = conn.Read(0x9000, 1)
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, os.ErrDeadlineExceeded)
	}

	brd.Mute(false)
	_, err = conn.Read(0x9000, 1)
	if err != nil {
		t.Fatalf("could not read after unmute: %+v", err)
	}
}

func TestMismatchedReply(t *testing.T) {
	srv, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("could not listen: %+v", err)
	}
	defer srv.Close()

	go func() {
		buf := make([]byte, 4096)
		for {
			n, addr, err := srv.ReadFrom(buf)
			if err != nil {
				return
			}
			var req oei.Packet
			if err := req.UnmarshalBinary(buf[:n]); err != nil {
				return
			}
			req.Addr++
			req.Data = make([]uint64, req.Count-1)
			raw, _ := req.MarshalBinary()
			_, _ = srv.WriteTo(raw, addr)
		}
	}()

	conn, err := oei.Dial(srv.LocalAddr().String(), oei.WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("could not dial: %+v", err)
	}
	defer conn.Close()

	_, err = conn.Read(0x4000, 2)
	if err == nil {
		t.Fatalf("expected an error")
	}
	want := "oei: could not read 2 words at 0x00004000: reply header mismatch (op=read|read, count=2|2, addr=0x4001|0x4000)"
	if got := err.Error(); got != want {
		t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
	}
}

func TestDialDefaultPort(t *testing.T) {
	conn, err := oei.Dial("127.0.0.1")
	if err != nil {
		t.Fatalf("could not dial: %+v", err)
	}
	defer conn.Close()
}
