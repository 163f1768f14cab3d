// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb holds types to describe the configuration database
// of the DAPHNE boards.
package conddb // import "github.com/go-lpc/daphne/conddb"

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-lpc/daphne/board"
	_ "github.com/go-sql-driver/mysql"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to easily retrieve configuration data
// from the DAPHNE database.
type DB struct {
	db   *sql.DB
	name string // name of the DAPHNE database
}

// Board describes a DAPHNE board registered in the database.
type Board struct {
	Name   string `json:"name"`
	Addr   string `json:"addr"`
	Config string `json:"config"` // name of the board configuration
}

// Open opens a connection to the DAPHNE database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// LastConfigName returns the name of the most recent board configuration.
func (db *DB) LastConfigName(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	name := ""
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT name FROM daphne_configs ORDER BY datetime DESC LIMIT 1",
	)
	if err != nil {
		return name, fmt.Errorf("conddb: could not query last config name: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&name)
		if err != nil {
			return name, fmt.Errorf("conddb: could not get config name value: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return name, fmt.Errorf("conddb: could not scan db for config name: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return name, fmt.Errorf("conddb: context error while retrieving config name: %w", err)
	}

	if name == "" {
		return name, fmt.Errorf("conddb: no board configuration in db %q", db.name)
	}

	return name, nil
}

// Config returns the most recent version of the board configuration name.
// Fields absent from the stored configuration keep their default value.
func (db *DB) Config(ctx context.Context, name string) (board.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		cfg = board.DefaultConfig()
		raw []byte
	)
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT cfg FROM daphne_configs WHERE name=? ORDER BY datetime DESC LIMIT 1",
		name,
	)
	if err != nil {
		return cfg, fmt.Errorf("conddb: could not query config %q: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&raw)
		if err != nil {
			return cfg, fmt.Errorf("conddb: could not get config %q value: %w", name, err)
		}
	}

	if err := rows.Err(); err != nil {
		return cfg, fmt.Errorf("conddb: could not scan db for config %q: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return cfg, fmt.Errorf("conddb: context error while retrieving config %q: %w", name, err)
	}

	if raw == nil {
		return cfg, fmt.Errorf("conddb: could not find config %q", name)
	}

	err = json.Unmarshal(raw, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("conddb: could not decode config %q: %w", name, err)
	}

	err = cfg.Validate()
	if err != nil {
		return cfg, fmt.Errorf("conddb: invalid config %q: %w", name, err)
	}

	return cfg, nil
}

// SaveConfig stores a new version of the board configuration name.
func (db *DB) SaveConfig(ctx context.Context, name string, cfg board.Config) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("conddb: invalid config %q: %w", name, err)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("conddb: could not encode config %q: %w", name, err)
	}

	_, err = db.db.ExecContext(
		ctx,
		"INSERT INTO daphne_configs (name, datetime, cfg) VALUES (?, ?, ?)",
		name, time.Now().UTC(), raw,
	)
	if err != nil {
		return fmt.Errorf("conddb: could not save config %q: %w", name, err)
	}

	return nil
}

// Boards returns the DAPHNE boards registered in the database.
func (db *DB) Boards(ctx context.Context) ([]Board, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var brds []Board
	rows, err := db.db.QueryContext(ctx, "SELECT name, addr, config FROM daphne_boards ORDER BY name")
	if err != nil {
		return brds, fmt.Errorf(
			"conddb: could not run boards query: %w",
			err,
		)
	}
	defer rows.Close()

	for rows.Next() {
		var brd Board
		err = rows.Scan(&brd.Name, &brd.Addr, &brd.Config)
		if err != nil {
			return brds, fmt.Errorf(
				"conddb: could not scan boards: %w",
				err,
			)
		}
		brds = append(brds, brd)
	}

	if err := rows.Err(); err != nil {
		return brds, fmt.Errorf(
			"conddb: could not scan db for boards: %w",
			err,
		)
	}

	if err := ctx.Err(); err != nil {
		return brds, fmt.Errorf(
			"conddb: context error while retrieving boards: %w",
			err,
		)
	}

	return brds, nil
}
