// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/spy"
)

var errQuit = errors.New("quit")

type shell struct {
	w   io.Writer
	rw  board.RegRW
	brd *board.Board

	cmds map[string]command
}

type command struct {
	help string
	run  func(args []string) error
}

func newShell(w io.Writer, rw board.RegRW) *shell {
	sh := &shell{
		w:   w,
		rw:  rw,
		brd: board.New(rw, board.WithLogger(log.New(w, "", 0))),
	}
	sh.cmds = map[string]command{
		"read":    {"read ADDR [N]: read N (default 1) words starting at ADDR", sh.read},
		"write":   {"write ADDR V1 [V2 ...]: write words starting at ADDR", sh.write},
		"version": {"version: display the firmware version", sh.version},
		"status":  {"status: display the timing endpoint status", sh.status},
		"config":  {"config: display the configuration registers", sh.config},
		"apply":   {"apply [FILE]: apply a JSON configuration (default: built-in)", sh.apply},
		"spy":     {"spy: trigger and decode the output spy buffer", sh.spy},
		"help":    {"help: display this help", sh.help},
		"quit":    {"quit: exit the shell", func([]string) error { return errQuit }},
	}
	sh.cmds["peek"] = sh.cmds["read"]
	sh.cmds["poke"] = sh.cmds["write"]
	sh.cmds["exit"] = sh.cmds["quit"]
	return sh
}

func (sh *shell) exec(line string) error {
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return nil
	}
	cmd, ok := sh.cmds[toks[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", toks[0])
	}
	return cmd.run(toks[1:])
}

func (sh *shell) complete(line string) []string {
	var out []string
	for name := range sh.cmds {
		if strings.HasPrefix(name, line) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func parseU64(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return v, nil
}

func (sh *shell) read(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: read ADDR [N]")
	}
	addr, err := parseU64(args[0])
	if err != nil {
		return err
	}
	n := 1
	if len(args) == 2 {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid number of words %q", args[1])
		}
		n = v
	}

	vs, err := sh.rw.Read(addr, n)
	if err != nil {
		return err
	}
	for i, v := range vs {
		fmt.Fprintf(sh.w, "0x%08x: 0x%016x\n", addr+uint64(i), v)
	}
	return nil
}

func (sh *shell) write(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: write ADDR V1 [V2 ...]")
	}
	addr, err := parseU64(args[0])
	if err != nil {
		return err
	}
	vs := make([]uint64, len(args)-1)
	for i, arg := range args[1:] {
		vs[i], err = parseU64(arg)
		if err != nil {
			return err
		}
	}
	return sh.rw.Write(addr, vs...)
}

func (sh *shell) version([]string) error {
	v, err := sh.brd.FirmwareVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.w, "DAPHNE firmware version %X\n", v)
	return nil
}

func (sh *shell) status([]string) error {
	st, err := sh.brd.Status()
	if err != nil {
		return err
	}
	return st.Report(sh.w)
}

func (sh *shell) config([]string) error {
	cfg, err := sh.brd.ReadConfig()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode configuration: %w", err)
	}
	fmt.Fprintf(sh.w, "%s\n", raw)
	return nil
}

func (sh *shell) apply(args []string) error {
	cfg := board.DefaultConfig()
	switch len(args) {
	case 0:
	case 1:
		var err error
		cfg, err = board.LoadConfig(args[0])
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("usage: apply [FILE]")
	}
	return sh.brd.Configure(cfg)
}

func (sh *shell) spy([]string) error {
	words, err := sh.brd.Capture()
	if err != nil {
		return err
	}
	frames := spy.Decode(words, len(words))
	fmt.Fprintf(sh.w, "captured %d words, %d frames\n", len(words), len(frames))
	for i, f := range frames {
		mean, rms := f.Pedestal()
		fmt.Fprintf(sh.w, "frame %d: link=%d channel=%d ts=%d baseline=%d pedestal=%.2f±%.2f\n",
			i, f.Header.Link, f.Header.Channel, f.Header.TimeStamp,
			f.Header.Baseline, mean, rms,
		)
	}
	return nil
}

func (sh *shell) help([]string) error {
	var (
		helps = make([]string, 0, len(sh.cmds))
		seen  = make(map[string]bool)
	)
	for _, cmd := range sh.cmds {
		if seen[cmd.help] {
			continue
		}
		seen[cmd.help] = true
		helps = append(helps, cmd.help)
	}
	sort.Strings(helps)
	for _, help := range helps {
		fmt.Fprintf(sh.w, "  %s\n", help)
	}
	return nil
}
