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

package warehouse

import (
	"context"
	"path/filepath"

	"github.com/aaronlmathis/dimlake/writers"
)

// TableWriter persists one derived table with overwrite semantics: a
// successful write fully replaces the destination's prior contents for that
// table. A failed write may leave the destination in a partial state, which
// is acceptable for a batch, rerunnable pipeline.
type TableWriter interface {
	WriteTable(ctx context.Context, table *Table) error
}

// ParquetTableWriter persists tables as partitioned Parquet file sets under
// Root, one sub-path per table (e.g., <root>/songs.parquet/year=2008/...).
type ParquetTableWriter struct {
	Root    string                 // Output root for all five tables
	Options []writers.WriterOption // Forwarded to the per-partition writers
}

// WriteTable implements the TableWriter interface.
func (w *ParquetTableWriter) WriteTable(ctx context.Context, table *Table) error {
	sink, err := writers.NewPartitionedWriter(
		filepath.Join(w.Root, table.Schema.Name+".parquet"),
		table.Schema.PartitionBy,
		table.Schema.Columns,
		w.Options...,
	)
	if err != nil {
		return &SinkError{Table: table.Schema.Name, Err: err}
	}

	for _, row := range table.Rows {
		if err := sink.Write(ctx, row); err != nil {
			sink.Close()
			return &SinkError{Table: table.Schema.Name, Err: err}
		}
	}

	if err := sink.Flush(); err != nil {
		sink.Close()
		return &SinkError{Table: table.Schema.Name, Err: err}
	}
	if err := sink.Close(); err != nil {
		return &SinkError{Table: table.Schema.Name, Err: err}
	}
	return nil
}

// PostgresTableWriter persists tables into PostgreSQL, recreating each table
// per run. Used to keep a serving copy of the dimensions next to the lake.
type PostgresTableWriter struct {
	DSN string
}

// WriteTable implements the TableWriter interface.
func (w *PostgresTableWriter) WriteTable(ctx context.Context, table *Table) error {
	sink, err := writers.NewPostgresWriter(
		writers.WithPostgresDSN(w.DSN),
		writers.WithTableName(table.Schema.Name),
		writers.WithColumns(table.Schema.Columns),
	)
	if err != nil {
		return &SinkError{Table: table.Schema.Name, Err: err}
	}

	for _, row := range table.Rows {
		if err := sink.Write(ctx, row); err != nil {
			sink.Close()
			return &SinkError{Table: table.Schema.Name, Err: err}
		}
	}

	if err := sink.Close(); err != nil {
		return &SinkError{Table: table.Schema.Name, Err: err}
	}
	return nil
}
