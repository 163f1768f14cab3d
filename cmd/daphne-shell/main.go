// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command daphne-shell is an interactive shell to peek and poke the
// registers of a DAPHNE board.
//
// Example:
//
//	$> daphne-shell 10.73.137.110
//	daphne> read 0x9000
//	0x00009000: 0x0000000000000901
//	daphne> write 0x3001 0xab
//	daphne> status
//	MMCM0 is LOCKED OK
//	[...]
package main // import "github.com/go-lpc/daphne/cmd/daphne-shell"

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-lpc/daphne/oei"
	"github.com/peterh/liner"
)

func main() {
	log.SetPrefix("daphne-shell: ")
	log.SetFlags(0)

	var (
		timeout = flag.Duration("timeout", oei.DefaultTimeout, "timeout of a register transaction")
		hist    = flag.String("history", filepath.Join(os.TempDir(), ".daphne-shell.history"), "path to history file")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: daphne-shell [OPTIONS] ADDR

ex:
 $> daphne-shell 10.73.137.110

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing DAPHNE board address")
	}

	conn, err := oei.Dial(flag.Arg(0), oei.WithTimeout(*timeout))
	if err != nil {
		log.Fatalf("could not connect to board: %+v", err)
	}
	defer conn.Close()

	err = run(newShell(os.Stdout, conn), *hist)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(sh *shell, hist string) error {
	term := liner.NewLiner()
	defer term.Close()

	term.SetCtrlCAborts(true)
	term.SetCompleter(sh.complete)

	if f, err := os.Open(hist); err == nil {
		_, _ = term.ReadHistory(f)
		f.Close()
	}
	defer func() {
		f, err := os.Create(hist)
		if err != nil {
			log.Printf("could not save history: %+v", err)
			return
		}
		defer f.Close()
		_, _ = term.WriteHistory(f)
	}()

	for {
		line, err := term.Prompt("daphne> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(sh.w)
				return nil
			}
			return fmt.Errorf("could not read command: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		term.AppendHistory(line)

		err = sh.exec(line)
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			fmt.Fprintf(sh.w, "error: %v\n", err)
		}
	}
}
