// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb holds types to fake an in-memory DB.
package fakedb // import "github.com/go-lpc/daphne/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"
)

// Stmt is a statement executed against the fake DB.
type Stmt struct {
	Query string
	Args  []driver.Value
}

var db struct {
	run sync.Mutex // serializes Run

	mu    sync.Mutex
	rows  Rows
	stmts []Stmt
}

// Run runs f with the fake DB answering every query with rows.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) error {
	db.run.Lock()
	defer db.run.Unlock()

	db.mu.Lock()
	db.rows = rows
	db.stmts = nil
	db.mu.Unlock()

	return f(ctx)
}

// Stmts returns the statements executed since the beginning of
// the current Run.
func Stmts() []Stmt {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]Stmt(nil), db.stmts...)
}

func record(query string, args []driver.Value) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.stmts = append(db.stmts, Stmt{
		Query: query,
		Args:  append([]driver.Value(nil), args...),
	})
}

func init() {
	sql.Register("fakedb", &Driver{})
}

type Driver struct{}

// Open returns a new connection to the database.
func (drv *Driver) Open(name string) (driver.Conn, error) {
	return &Conn{}, nil
}

type Conn struct{}

// Prepare returns a prepared statement, bound to this connection.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &stmt{query: query}, nil
}

// Close invalidates and potentially stops any current
// prepared statements and transactions, marking this
// connection as no longer in use.
func (c *Conn) Close() error {
	return nil
}

// Begin starts and returns a new transaction.
//
// Deprecated: Drivers should implement ConnBeginTx instead (or additionally).
func (c *Conn) Begin() (driver.Tx, error) {
	panic("not implemented")
}

type stmt struct {
	query string
}

func (stmt *stmt) Close() error {
	return nil
}

// NumInput returns -1: the sql package does not sanity check
// the number of arguments.
func (stmt *stmt) NumInput() int {
	return -1
}

func (stmt *stmt) Exec(args []driver.Value) (driver.Result, error) {
	record(stmt.query, args)
	return driver.RowsAffected(1), nil
}

func (stmt *stmt) Query(args []driver.Value) (driver.Rows, error) {
	record(stmt.query, args)

	db.mu.Lock()
	defer db.mu.Unlock()
	rows := db.rows
	return &rows, nil
}

type Rows struct {
	Names  []string
	Values [][]driver.Value
}

// Columns returns the names of the columns.
func (rows *Rows) Columns() []string {
	return rows.Names
}

// Close closes the rows iterator.
func (rows *Rows) Close() error {
	return nil
}

// Next is called to populate the next row of data into
// the provided slice.
func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver = (*Driver)(nil)
	_ driver.Conn   = (*Conn)(nil)
	_ driver.Stmt   = (*stmt)(nil)
	_ driver.Rows   = (*Rows)(nil)
)
