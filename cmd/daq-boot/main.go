// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command daq-boot (re)starts the TDAQ run-control and one daphne-tdaq
// process per DAPHNE board.
package main // import "github.com/go-lpc/daphne/cmd/daq-boot"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/sbinet/pmon"
	"golang.org/x/sync/errgroup"
)

var (
	dir = os.Getenv("DAPHNELOGDIR")

	doMon  = flag.Bool("pmon", false, "enable pmon monitoring")
	doFreq = flag.Duration("freq", 1*time.Second, "pmon frequency")
	rcAddr = flag.String("rc", ":44000", "[addr]:port of the run-control")
	lvl    = flag.String("lvl", "INFO", "message level of the TDAQ processes")

	stop = make(chan os.Signal, 1)
)

func main() {
	flag.Usage = func() {
		fmt.Printf(`Usage: daq-boot [OPTIONS] ADDR1 [ADDR2 [ADDR3 ...]]

ex:
 $> daq-boot -pmon 10.73.137.110 10.73.137.111

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	log.SetPrefix("daq-boot: ")
	log.SetFlags(0)

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing DAPHNE board address")
	}

	err := run(*doMon, *doFreq, commands(*rcAddr, *lvl, flag.Args()), dir, stop)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

// commands returns the run-control process followed by one TDAQ node
// per board.
func commands(rc, lvl string, boards []string) []*exec.Cmd {
	cmds := []*exec.Cmd{
		exec.Command("tdaq-runctl", "-lvl="+lvl, "-rc-addr="+rc),
	}
	for i, addr := range boards {
		cmds = append(cmds, exec.Command(
			"daphne-tdaq",
			"-lvl="+lvl,
			fmt.Sprintf("-id=daphne-%02d", i+1),
			"-rc-addr="+rc,
			addr,
		))
	}
	return cmds
}

// procName returns the name of a process, as given by its -id flag,
// or the base name of its executable.
func procName(cmd *exec.Cmd) string {
	for _, arg := range cmd.Args[1:] {
		if strings.HasPrefix(arg, "-id=") {
			return strings.TrimPrefix(arg, "-id=")
		}
	}
	return filepath.Base(cmd.Path)
}

func run(doMon bool, freq time.Duration, cmds []*exec.Cmd, dir string, stop chan os.Signal) error {
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	killed := make(map[string]bool)
	for _, cmd := range cmds {
		name := filepath.Base(cmd.Path)
		if killed[name] {
			continue
		}
		killed[name] = true
		kill := exec.Command("killall", name)
		kill.Stderr = os.Stderr
		kill.Stdout = os.Stdout
		err := kill.Run()
		if err != nil {
			log.Printf("could not kill %q: %+v", name, err)
		}
	}

	if dir == "" {
		dir = "/var/log/daphne"
	}

	var (
		grp  errgroup.Group
		kill = make(chan int)
	)
	for _, cmd := range cmds {
		cmd := cmd
		grp.Go(func() error {
			return start(cmd, dir, kill, doMon, freq)
		})
	}

	go func() {
		<-stop
		close(kill)
	}()

	err := grp.Wait()
	if err != nil {
		return fmt.Errorf("could not boot DAQ: %w", err)
	}
	return nil
}

func start(cmd *exec.Cmd, dir string, kill chan int, doMon bool, freq time.Duration) error {
	name := procName(cmd)
	out, err := os.Create(filepath.Join(dir, name+".log"))
	if err != nil {
		return fmt.Errorf("could not create output log file for %q: %w", name, err)
	}
	defer out.Close()

	cmd.Stdout = out
	cmd.Stderr = out

	log.Printf("starting %q...", name)
	err = cmd.Start()
	if err != nil {
		return fmt.Errorf("could not start %q: %w", name, err)
	}

	if doMon {
		p, err := pmon.Monitor(cmd.Process.Pid)
		if err != nil {
			return fmt.Errorf("could not start monitoring %q (pid=%d): %w", name, cmd.Process.Pid, err)
		}
		f, err := os.Create(filepath.Join(dir, name+"-pmon.log"))
		if err != nil {
			return fmt.Errorf("could not create pmon log file for command %q: %w", name, err)
		}
		defer f.Close()
		p.W = f
		p.Freq = freq

		go func() {
			log.Printf("run pmon %q...", name)
			err := p.Run()
			if err != nil {
				log.Printf("could not start monitoring %q: %+v", name, err)
			}
		}()

		defer func() {
			err := p.Kill()
			if err != nil {
				log.Printf("could not stop monitoring %q: %+v", name, err)
			}
		}()
	}

	errch := make(chan error, 1)
	go func() {
		errch <- cmd.Wait()
	}()

	select {
	case <-kill:
		err = cmd.Process.Kill()
		if err != nil {
			return fmt.Errorf("could not kill %q: %+v", name, err)
		}
	case err = <-errch:
		if err != nil {
			return fmt.Errorf("could not run %q: %w", name, err)
		}
	}

	return nil
}
