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
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aaronlmathis/dimlake"
)

// This file implements a partitioned Parquet sink: records are routed into
// hive-style partition directories (col=value/...) under a root path, one
// Parquet file per partition per run. Partition columns are dropped from the
// file payload, the way Spark writes partitioned datasets, so the directory
// carries the value.

// hiveDefaultPartition names the directory for records whose partition value
// is null, matching Spark's convention.
const hiveDefaultPartition = "__HIVE_DEFAULT_PARTITION__"

// PartitionedWriterError wraps partitioned-writer errors with context about the operation.
type PartitionedWriterError struct {
	Op  string // Operation that failed (e.g., "overwrite", "partition", "write")
	Err error  // Underlying error
}

// Error returns the error string for PartitionedWriterError.
func (e *PartitionedWriterError) Error() string {
	return fmt.Sprintf("partitioned writer %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for PartitionedWriterError.
func (e *PartitionedWriterError) Unwrap() error {
	return e.Err
}

// PartitionedWriter implements dimlake.DataSink by fanning records out to one
// ParquetWriter per partition. Overwrite semantics: the destination root is
// fully replaced when the writer is created, so a completed run is a full
// snapshot and a rerun is idempotent at the table level. A failed run may
// leave the root in a partial state; the recovery mechanism is rerunning.
type PartitionedWriter struct {
	root        string
	partitionBy []string
	fieldOrder  []string
	options     []WriterOption
	open        map[string]*ParquetWriter
	closed      bool
	records     int64
}

// NewPartitionedWriter creates a partitioned Parquet writer rooted at root.
//
// partitionBy names the columns whose values determine the partition
// directory; an empty partitionBy writes a single unpartitioned file.
// fieldOrder is the full table column order; partition columns are removed
// from the per-file schema. Any WriterOption is forwarded to the per-partition
// Parquet writers. The root's prior contents are removed immediately.
func NewPartitionedWriter(root string, partitionBy, fieldOrder []string, options ...WriterOption) (*PartitionedWriter, error) {
	if err := os.RemoveAll(root); err != nil {
		return nil, &PartitionedWriterError{
			Op:  "overwrite",
			Err: fmt.Errorf("failed to clear %s: %w", root, err),
		}
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, &PartitionedWriterError{
			Op:  "overwrite",
			Err: fmt.Errorf("failed to create %s: %w", root, err),
		}
	}

	partitionSet := make(map[string]bool, len(partitionBy))
	for _, col := range partitionBy {
		partitionSet[col] = true
	}

	fileFields := make([]string, 0, len(fieldOrder))
	for _, col := range fieldOrder {
		if !partitionSet[col] {
			fileFields = append(fileFields, col)
		}
	}

	return &PartitionedWriter{
		root:        root,
		partitionBy: append([]string(nil), partitionBy...),
		fieldOrder:  fileFields,
		options:     options,
		open:        make(map[string]*ParquetWriter),
	}, nil
}

// Write implements the dimlake.DataSink interface.
func (w *PartitionedWriter) Write(ctx context.Context, record dimlake.Record) error {
	if w.closed {
		return &PartitionedWriterError{
			Op:  "write",
			Err: fmt.Errorf("partitioned writer is closed"),
		}
	}

	dir, err := w.partitionDir(record)
	if err != nil {
		return err
	}

	writer, exists := w.open[dir]
	if !exists {
		pw, err := NewParquetWriter(
			filepath.Join(dir, "part-00000.parquet"),
			append(w.options, WithFieldOrder(w.fieldOrder))...,
		)
		if err != nil {
			return &PartitionedWriterError{Op: "partition", Err: err}
		}
		w.open[dir] = pw
		writer = pw
	}

	payload := make(dimlake.Record, len(w.fieldOrder))
	for _, col := range w.fieldOrder {
		payload[col] = record[col]
	}

	if err := writer.Write(ctx, payload); err != nil {
		return &PartitionedWriterError{Op: "write", Err: err}
	}

	w.records++
	return nil
}

// Flush implements the dimlake.DataSink interface.
func (w *PartitionedWriter) Flush() error {
	for dir, writer := range w.open {
		if err := writer.Flush(); err != nil {
			return &PartitionedWriterError{
				Op:  "flush",
				Err: fmt.Errorf("partition %s: %w", dir, err),
			}
		}
	}
	return nil
}

// Close implements the dimlake.DataSink interface.
// All per-partition writers are closed; the first failure is returned.
func (w *PartitionedWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var firstErr error
	for dir, writer := range w.open {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = &PartitionedWriterError{
				Op:  "close",
				Err: fmt.Errorf("partition %s: %w", dir, err),
			}
		}
	}
	return firstErr
}

// Records returns the number of records routed so far.
func (w *PartitionedWriter) Records() int64 {
	return w.records
}

// Partitions returns the partition directories created so far.
func (w *PartitionedWriter) Partitions() []string {
	dirs := make([]string, 0, len(w.open))
	for dir := range w.open {
		dirs = append(dirs, dir)
	}
	return dirs
}

// partitionDir computes the hive-style directory for a record.
func (w *PartitionedWriter) partitionDir(record dimlake.Record) (string, error) {
	dir := w.root
	for _, col := range w.partitionBy {
		value, exists := record[col]

		var segment string
		if !exists || value == nil {
			segment = hiveDefaultPartition
		} else {
			formatted, err := formatPartitionValue(value)
			if err != nil {
				return "", &PartitionedWriterError{
					Op:  "partition",
					Err: fmt.Errorf("column %s: %w", col, err),
				}
			}
			segment = formatted
		}

		dir = filepath.Join(dir, col+"="+segment)
	}
	return dir, nil
}

// formatPartitionValue renders a partition column value as a path segment.
func formatPartitionValue(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return hiveDefaultPartition, nil
		}
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		// JSON numbers decode as float64; partition values are integral
		return strconv.FormatInt(int64(v), 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("unsupported partition value type %T", value)
	}
}
