// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command daphne-spy triggers and reads back the output spy buffer of
// a DAPHNE board.
package main // import "github.com/go-lpc/daphne/cmd/daphne-spy"

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/spy"
	minio "github.com/minio/minio-go/v6"
)

const usage = `daphne-spy triggers and reads back the output spy buffer of a DAPHNE board.

Usage: daphne-spy [OPTIONS] ADDR

Captures are written back to back in the output raw file, as little-endian
32-bit words. With -s3, the raw file is also uploaded to an S3 bucket, using
the $DAPHNE_S3_ACCESS_KEY and $DAPHNE_S3_SECRET_KEY credentials.

Example:

 $> daphne-spy -hex 10.73.137.110
 $> daphne-spy -n 10 -freq 1s -o run_042.raw 10.73.137.110
 $> daphne-spy -n 10 -o run_042.raw -s3 s3.example.org:9000 -bucket daphne 10.73.137.110

options:
`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

type params struct {
	addr  string
	n     int
	freq  time.Duration
	oname string
	hex   bool

	s3 struct {
		endpoint string
		bucket   string
		secure   bool
	}
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("daphne-spy: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("daphne-spy", flag.ExitOnError)
		p    params
	)
	fset.IntVar(&p.n, "n", 1, "number of captures")
	fset.DurationVar(&p.freq, "freq", time.Second, "interval between captures")
	fset.StringVar(&p.oname, "o", "", "path to output raw capture file")
	fset.BoolVar(&p.hex, "hex", false, "display captured words")
	fset.StringVar(&p.s3.endpoint, "s3", "", "S3 endpoint to archive the raw capture file to")
	fset.StringVar(&p.s3.bucket, "bucket", "daphne", "S3 bucket")
	fset.BoolVar(&p.s3.secure, "secure", true, "use TLS to connect to the S3 endpoint")

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() != 1 {
		fset.Usage()
		log.Fatalf("missing DAPHNE board address")
	}
	p.addr = fset.Arg(0)

	if p.s3.endpoint != "" && p.oname == "" {
		log.Fatalf("-s3 requires an output raw file (-o)")
	}

	err = process(w, p)
	if err != nil {
		log.Fatalf("could not spy board: %+v", err)
	}

	if p.s3.endpoint != "" {
		err = archive(p.oname, p.s3.endpoint, p.s3.bucket, p.s3.secure)
		if err != nil {
			log.Fatalf("could not archive %q: %+v", p.oname, err)
		}
	}
}

func process(w io.Writer, p params) error {
	brd, err := board.Open(p.addr, board.WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		return err
	}
	defer brd.Close()

	var (
		out io.Writer = io.Discard
		raw *os.File
	)
	if p.oname != "" {
		raw, err = os.Create(p.oname)
		if err != nil {
			return fmt.Errorf("could not create output raw file: %w", err)
		}
		defer func() {
			if raw != nil {
				_ = raw.Close()
			}
		}()
		out = raw
	}

	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	for i := 0; i < p.n; i++ {
		if i > 0 {
			time.Sleep(p.freq)
		}
		words, err := brd.Capture()
		if err != nil {
			return fmt.Errorf("could not capture spy buffer %d: %w", i, err)
		}

		err = spy.WriteCapture(out, words)
		if err != nil {
			return fmt.Errorf("could not save spy buffer %d: %w", i, err)
		}

		frames := spy.Decode(words, len(words))
		fmt.Fprintf(wbuf, "capture %d: %d words, %d frames\n", i, len(words), len(frames))
		if p.hex {
			hexdump(wbuf, words)
		}
	}

	err = wbuf.Flush()
	if err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}

	if raw != nil {
		f := raw
		raw = nil
		err = f.Close()
		if err != nil {
			return fmt.Errorf("could not close output raw file: %w", err)
		}
	}

	err = brd.Close()
	if err != nil {
		return fmt.Errorf("could not close board: %w", err)
	}
	return nil
}

func hexdump(w io.Writer, words []uint32) {
	const perLine = 8
	for i, v := range words {
		sep := " "
		if (i+1)%perLine == 0 || i == len(words)-1 {
			sep = "\n"
		}
		fmt.Fprintf(w, "%08X%s", v, sep)
	}
}

func archive(fname, endpoint, bucket string, secure bool) error {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return fmt.Errorf("could not read raw file: %w", err)
	}

	cli, err := minio.New(
		endpoint,
		os.Getenv("DAPHNE_S3_ACCESS_KEY"),
		os.Getenv("DAPHNE_S3_SECRET_KEY"),
		secure,
	)
	if err != nil {
		return fmt.Errorf("could not create S3 client: %w", err)
	}

	ok, err := cli.BucketExists(bucket)
	if err != nil {
		return fmt.Errorf("could not check bucket %q: %w", bucket, err)
	}
	if !ok {
		err = cli.MakeBucket(bucket, "")
		if err != nil {
			return fmt.Errorf("could not create bucket %q: %w", bucket, err)
		}
	}

	name := objectName(fname, time.Now())
	_, err = cli.PutObject(
		bucket, name,
		bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"},
	)
	if err != nil {
		return fmt.Errorf("could not upload %q to %s/%s: %w", fname, bucket, name, err)
	}
	log.Printf("archived %q to %s/%s", fname, bucket, name)
	return nil
}

// objectName returns the S3 object name of a raw file, prefixed with its
// capture date.
func objectName(fname string, now time.Time) string {
	return now.UTC().Format("2006/01/02") + "/" + filepath.Base(fname)
}
