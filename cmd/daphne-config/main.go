// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command daphne-config configures the output links, the streaming
// senders and the self-trigger of a DAPHNE board.
package main // import "github.com/go-lpc/daphne/cmd/daphne-config"

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/conddb"
)

const usage = `daphne-config configures a DAPHNE board.

Usage: daphne-config [OPTIONS] [ADDR]

The configuration is taken, in that order, from a JSON file (-cfg),
from the configuration database (-db) or from the built-in defaults.
The board address is taken from the command line, then from the
configuration ($DAPHNE_ADDR overrides the "addr" field of a JSON file).

Example:

 $> daphne-config 10.73.137.110
 $> daphne-config -cfg ./daphne.json
 $> daphne-config -db daphne -name CIEMAT_self_trigger 10.73.137.110
 $> daphne-config -cfg ./daphne.json -db daphne -save np02 -n

options:
`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("daphne-config: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("daphne-config", flag.ExitOnError)

		fname  = fset.String("cfg", "", "path to a JSON board configuration file")
		dbname = fset.String("db", "", "name of the configuration database")
		name   = fset.String("name", "", "name of the configuration in the database (default: most recent)")
		save   = fset.String("save", "", "store the configuration in the database under this name")
		dryRun = fset.Bool("n", false, "do not configure the board, only display the configuration")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	ctx := context.Background()

	var db *conddb.DB
	if *dbname != "" {
		db, err = conddb.Open(*dbname)
		if err != nil {
			log.Fatalf("could not open configuration database: %+v", err)
		}
		defer db.Close()
	}

	cfg, err := loadConfig(ctx, *fname, db, *name)
	if err != nil {
		log.Fatalf("could not load configuration: %+v", err)
	}

	if fset.NArg() > 0 {
		cfg.Addr = fset.Arg(0)
	}

	if *save != "" {
		if db == nil {
			log.Fatalf("-save requires a configuration database (-db)")
		}
		err = db.SaveConfig(ctx, *save, cfg)
		if err != nil {
			log.Fatalf("could not save configuration: %+v", err)
		}
		log.Printf("configuration saved as %q", *save)
	}

	if *dryRun {
		err = display(w, cfg)
		if err != nil {
			log.Fatalf("could not display configuration: %+v", err)
		}
		return
	}

	if cfg.Addr == "" {
		fset.Usage()
		log.Fatalf("missing DAPHNE board address")
	}

	err = process(w, cfg)
	if err != nil {
		log.Fatalf("could not configure board: %+v", err)
	}
}

func loadConfig(ctx context.Context, fname string, db *conddb.DB, name string) (board.Config, error) {
	switch {
	case fname != "":
		return board.LoadConfig(fname)
	case db != nil:
		if name == "" {
			var err error
			name, err = db.LastConfigName(ctx)
			if err != nil {
				return board.Config{}, err
			}
		}
		log.Printf("using configuration %q", name)
		return db.Config(ctx, name)
	default:
		return board.DefaultConfig(), nil
	}
}

func process(w io.Writer, cfg board.Config) error {
	brd, err := board.Open(cfg.Addr, board.WithLogger(log.New(w, "daphne-config: ", 0)))
	if err != nil {
		return err
	}
	defer brd.Close()

	err = brd.Configure(cfg)
	if err != nil {
		return err
	}

	cur, err := brd.ReadConfig()
	if err != nil {
		return err
	}
	cur.Addr = cfg.Addr

	err = display(w, cur)
	if err != nil {
		return err
	}

	return brd.Close()
}

func display(w io.Writer, cfg board.Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
