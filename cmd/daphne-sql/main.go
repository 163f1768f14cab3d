// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command daphne-sql inspects the DAPHNE configuration database.
package main // import "github.com/go-lpc/daphne/cmd/daphne-sql"

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/conddb"
)

func main() {
	log.SetPrefix("daphne-sql: ")
	log.SetFlags(0)

	var (
		dbname = flag.String("db", "daphne", "name of the configuration database")
		cfg    = flag.String("cfg", "", "board configuration to inspect (default: most recent)")
	)

	flag.Parse()

	db, err := conddb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open DAPHNE db: %+v", err)
	}
	defer db.Close()

	err = doQuery(os.Stdout, db, *cfg)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(w io.Writer, db *conddb.DB, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if name == "" {
		v, err := db.LastConfigName(ctx)
		if err != nil {
			return fmt.Errorf("could not get last config name: %w", err)
		}
		name = v
	}

	cfg, err := db.Config(ctx, name)
	if err != nil {
		return fmt.Errorf("could not get board config %q: %w", name, err)
	}

	brds, err := db.Boards(ctx)
	if err != nil {
		return fmt.Errorf("could not get boards: %w", err)
	}

	return report(w, brds, name, cfg)
}

func report(w io.Writer, brds []conddb.Board, name string, cfg board.Config) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "BOARD\tADDR\tCONFIG\n")
	for _, brd := range brds {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", brd.Name, brd.Addr, brd.Config)
	}
	err := tw.Flush()
	if err != nil {
		return fmt.Errorf("could not write boards table: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode config %q: %w", name, err)
	}
	_, err = fmt.Fprintf(w, "\nconfig %q:\n%s\n", name, raw)
	if err != nil {
		return fmt.Errorf("could not write config %q: %w", name, err)
	}
	return nil
}
