//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of DimLake.
//
// DimLake is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// DimLake is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with DimLake. If not, see https://www.gnu.org/licenses/.

package writers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/aaronlmathis/dimlake"
)

// This file implements a PostgreSQL sink used to keep a serving copy of the
// dimension tables next to the columnar lake output. The table is recreated
// each run, mirroring the overwrite semantics of the Parquet sink.

// PostgresWriterError wraps PostgreSQL-specific write errors with context about the operation.
type PostgresWriterError struct {
	Op  string // Operation that failed (e.g., "connect", "create_table", "insert")
	Err error  // Underlying error
}

// Error returns the error string for PostgresWriterError.
func (e *PostgresWriterError) Error() string {
	return fmt.Sprintf("postgres writer %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for PostgresWriterError.
func (e *PostgresWriterError) Unwrap() error {
	return e.Err
}

// PostgresWriterOptions configures the PostgreSQL writer.
type PostgresWriterOptions struct {
	DSN       string        // Connection string
	TableName string        // Destination table
	Columns   []string      // Column order; required
	BatchSize int           // Rows per multi-row INSERT
	Timeout   time.Duration // Per-statement timeout
}

// PostgresWriterOption represents a configuration function for PostgresWriterOptions.
type PostgresWriterOption func(*PostgresWriterOptions)

// WithPostgresDSN sets the connection string.
func WithPostgresDSN(dsn string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.DSN = dsn
	}
}

// WithTableName sets the destination table name.
func WithTableName(tableName string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.TableName = tableName
	}
}

// WithColumns sets the column order for inserts and table creation.
func WithColumns(columns []string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.Columns = make([]string, len(columns))
		copy(opts.Columns, columns)
	}
}

// WithPostgresBatchSize sets the number of rows per multi-row INSERT.
func WithPostgresBatchSize(size int) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.BatchSize = size
	}
}

// WithPostgresTimeout sets the per-statement timeout.
func WithPostgresTimeout(timeout time.Duration) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.Timeout = timeout
	}
}

// PostgresWriter implements dimlake.DataSink for a PostgreSQL table.
// The destination table is dropped and recreated on the first write of a run;
// column types are inferred from the first record.
type PostgresWriter struct {
	db          *sql.DB
	opts        *PostgresWriterOptions
	buffer      []dimlake.Record
	initialized bool
	closed      bool
	rows        int64
}

// NewPostgresWriter creates a PostgreSQL writer and verifies connectivity.
func NewPostgresWriter(options ...PostgresWriterOption) (*PostgresWriter, error) {
	opts := &PostgresWriterOptions{
		BatchSize: 500,
		Timeout:   30 * time.Second,
	}
	for _, option := range options {
		option(opts)
	}

	if opts.DSN == "" {
		return nil, &PostgresWriterError{Op: "validate_options", Err: fmt.Errorf("dsn is required")}
	}
	if opts.TableName == "" {
		return nil, &PostgresWriterError{Op: "validate_options", Err: fmt.Errorf("table name is required")}
	}
	if len(opts.Columns) == 0 {
		return nil, &PostgresWriterError{Op: "validate_options", Err: fmt.Errorf("columns are required")}
	}

	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, &PostgresWriterError{Op: "connect", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &PostgresWriterError{Op: "connect", Err: err}
	}

	return &PostgresWriter{
		db:     db,
		opts:   opts,
		buffer: make([]dimlake.Record, 0, opts.BatchSize),
	}, nil
}

// Rows returns the number of rows inserted so far.
func (w *PostgresWriter) Rows() int64 {
	return w.rows
}

// Write implements the dimlake.DataSink interface.
func (w *PostgresWriter) Write(ctx context.Context, record dimlake.Record) error {
	if w.closed {
		return &PostgresWriterError{Op: "write", Err: fmt.Errorf("postgres writer is closed")}
	}

	if !w.initialized {
		if err := w.recreateTable(ctx, record); err != nil {
			return err
		}
		w.initialized = true
	}

	w.buffer = append(w.buffer, record)
	if len(w.buffer) >= w.opts.BatchSize {
		return w.flushBuffer(ctx)
	}
	return nil
}

// Flush implements the dimlake.DataSink interface.
func (w *PostgresWriter) Flush() error {
	if len(w.buffer) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.opts.Timeout)
	defer cancel()
	return w.flushBuffer(ctx)
}

// Close implements the dimlake.DataSink interface.
func (w *PostgresWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.Flush(); err != nil {
		w.db.Close()
		return err
	}
	return w.db.Close()
}

// recreateTable drops and recreates the destination table from the first record.
func (w *PostgresWriter) recreateTable(ctx context.Context, record dimlake.Record) error {
	defs := make([]string, len(w.opts.Columns))
	for i, col := range w.opts.Columns {
		defs[i] = fmt.Sprintf("%q %s", col, inferSQLType(record[col]))
	}

	drop := fmt.Sprintf("DROP TABLE IF EXISTS %q", w.opts.TableName)
	if _, err := w.db.ExecContext(ctx, drop); err != nil {
		return &PostgresWriterError{Op: "drop_table", Err: err}
	}

	create := fmt.Sprintf("CREATE TABLE %q (%s)", w.opts.TableName, strings.Join(defs, ", "))
	if _, err := w.db.ExecContext(ctx, create); err != nil {
		return &PostgresWriterError{Op: "create_table", Err: err}
	}

	return nil
}

// flushBuffer writes the buffered rows in a single multi-row INSERT.
func (w *PostgresWriter) flushBuffer(ctx context.Context) error {
	if len(w.buffer) == 0 {
		return nil
	}

	cols := make([]string, len(w.opts.Columns))
	for i, col := range w.opts.Columns {
		cols[i] = fmt.Sprintf("%q", col)
	}

	placeholders := make([]string, 0, len(w.buffer))
	args := make([]interface{}, 0, len(w.buffer)*len(w.opts.Columns))
	for i, record := range w.buffer {
		row := make([]string, len(w.opts.Columns))
		for j, col := range w.opts.Columns {
			row[j] = fmt.Sprintf("$%d", i*len(w.opts.Columns)+j+1)
			args = append(args, convertSQLValue(record[col]))
		}
		placeholders = append(placeholders, "("+strings.Join(row, ", ")+")")
	}

	query := fmt.Sprintf("INSERT INTO %q (%s) VALUES %s",
		w.opts.TableName, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	if _, err := w.db.ExecContext(ctx, query, args...); err != nil {
		return &PostgresWriterError{Op: "insert", Err: err}
	}

	w.rows += int64(len(w.buffer))
	w.buffer = w.buffer[:0]
	return nil
}

// inferSQLType maps a Go value to a PostgreSQL column type.
func inferSQLType(value interface{}) string {
	switch value.(type) {
	case bool:
		return "BOOLEAN"
	case int, int32, int64:
		return "BIGINT"
	case float32, float64:
		return "DOUBLE PRECISION"
	case time.Time:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// convertSQLValue normalizes record values for database/sql.
func convertSQLValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case bool, int, int32, int64, float32, float64, string, time.Time, []byte:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
