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
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/dimlake"
)

// sliceSource streams a fixed set of records, for tests.
type sliceSource struct {
	records []dimlake.Record
	pos     int
	closed  bool
}

func (s *sliceSource) Read(ctx context.Context) (dimlake.Record, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	record := s.records[s.pos]
	s.pos++
	return record, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// captureWriter records written tables instead of persisting them.
type captureWriter struct {
	tables []*Table
	err    error
}

func (w *captureWriter) WriteTable(ctx context.Context, table *Table) error {
	if w.err != nil {
		return w.err
	}
	w.tables = append(w.tables, table)
	return nil
}

func (w *captureWriter) names() []string {
	names := make([]string, 0, len(w.tables))
	for _, table := range w.tables {
		names = append(names, table.Schema.Name)
	}
	return names
}

func sampleSongRecords() []dimlake.Record {
	return []dimlake.Record{
		songRecord("SOA", "ARA", "Alpha", "The Alphas", 2001, 218.93),
		songRecord("SOB", "ARB", "Beta", "The Betas", 0, 100.5),
		songRecord("SOC", "ARA", "Gamma", "The Alphas", 2003, 301.7),
	}
}

func sampleLogRecords() []dimlake.Record {
	home := logRecord(1541990000000, "15", "", "", 0)
	home["page"] = "Home"
	return []dimlake.Record{
		logRecord(1541990258796, "15", "Alpha", "The Alphas", 218.93),
		home,
		logRecord(1541990298796, "44", "No Such Song", "Nobody", 1.0),
		logRecord(1541990358796, "15", "Gamma", "The Alphas", 301.7),
	}
}

func TestSongPipeline_Run(t *testing.T) {
	writer := &captureWriter{}
	pipeline := &SongPipeline{Writer: writer}
	source := &sliceSource{records: sampleSongRecords()}

	result, err := pipeline.Run(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.RecordsRead)
	assert.Len(t, result.Songs.Rows, 3)
	assert.Len(t, result.Artists.Rows, 2)
	assert.Equal(t, 3, result.Lookup.Size())
	assert.Equal(t, []string{"songs", "artists"}, writer.names())
	assert.True(t, source.closed)
}

func TestSongPipeline_StructuralErrorAbortsBeforeWrite(t *testing.T) {
	writer := &captureWriter{}
	pipeline := &SongPipeline{Writer: writer}
	source := &sliceSource{records: []dimlake.Record{
		songRecord("SOA", "ARA", "Alpha", "The Alphas", 2001, 218.93),
		{"title": "orphan"},
	}}

	_, err := pipeline.Run(context.Background(), source)
	require.Error(t, err)

	var structural *StructuralError
	require.True(t, errors.As(err, &structural))
	assert.Empty(t, writer.tables, "nothing may be written after a structural error")
}

func TestSongPipeline_SinkErrorIsFatal(t *testing.T) {
	sinkErr := &SinkError{Table: "songs", Err: errors.New("disk full")}
	pipeline := &SongPipeline{Writer: &captureWriter{err: sinkErr}}
	source := &sliceSource{records: sampleSongRecords()}

	_, err := pipeline.Run(context.Background(), source)
	require.Error(t, err)

	var sink *SinkError
	assert.True(t, errors.As(err, &sink))
}

func TestLogPipeline_Run(t *testing.T) {
	lookup, err := BuildSongLookup(sampleSongRecords())
	require.NoError(t, err)

	writer := &captureWriter{}
	pipeline := &LogPipeline{Writer: writer}
	source := &sliceSource{records: sampleLogRecords()}

	result, err := pipeline.Run(context.Background(), source, lookup)
	require.NoError(t, err)

	assert.Equal(t, int64(4), result.RecordsRead)
	assert.Equal(t, int64(3), result.EventsKept, "non-NextSong pages are dropped")
	assert.Equal(t, int64(1), result.JoinMisses)
	assert.Len(t, result.Users.Rows, 2)
	assert.Len(t, result.Time.Rows, 3)
	assert.Len(t, result.Songplays.Rows, 3)
	assert.Equal(t, []string{"users", "time", "songplays"}, writer.names())
	assert.True(t, source.closed)
}

func TestLogPipeline_AppliesTransformers(t *testing.T) {
	lookup, err := BuildSongLookup(nil)
	require.NoError(t, err)

	record := logRecord(1541990258796, "15", "Alpha", "The Alphas", 218.93)
	record["_id"] = "507f1f77bcf86cd799439011"

	strip := dimlake.TransformFunc(func(ctx context.Context, r dimlake.Record) (dimlake.Record, error) {
		delete(r, "_id")
		return r, nil
	})

	pipeline := &LogPipeline{Writer: &captureWriter{}, Transformers: []dimlake.Transformer{strip}}
	result, err := pipeline.Run(context.Background(), &sliceSource{records: []dimlake.Record{record}}, lookup)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.EventsKept)
	assert.NotContains(t, result.Songplays.Rows[0], "_id")
}

func TestLogPipeline_TransformerErrorAbortsBeforeWrite(t *testing.T) {
	lookup, err := BuildSongLookup(nil)
	require.NoError(t, err)

	boom := dimlake.TransformFunc(func(ctx context.Context, r dimlake.Record) (dimlake.Record, error) {
		return nil, errors.New("decode failed")
	})

	writer := &captureWriter{}
	pipeline := &LogPipeline{Writer: writer, Transformers: []dimlake.Transformer{boom}}
	source := &sliceSource{records: sampleLogRecords()}

	_, err = pipeline.Run(context.Background(), source, lookup)
	require.Error(t, err)
	assert.Empty(t, writer.tables)
	assert.True(t, source.closed)
}

func TestRunner_Run(t *testing.T) {
	lake := &captureWriter{}
	serving := &captureWriter{}

	runner := &Runner{
		SongSource: &sliceSource{records: sampleSongRecords()},
		LogSource:  &sliceSource{records: sampleLogRecords()},
		Writer:     lake,
		Serving:    serving,
	}

	require.NoError(t, runner.Run(context.Background()))

	assert.Equal(t, []string{"songs", "artists", "users", "time", "songplays"}, lake.names())
	assert.Equal(t, []string{"songs", "artists", "users"}, serving.names(),
		"serving destination receives the dimension tables only")
}

func TestRunner_NoServing(t *testing.T) {
	lake := &captureWriter{}
	runner := &Runner{
		SongSource: &sliceSource{records: sampleSongRecords()},
		LogSource:  &sliceSource{records: sampleLogRecords()},
		Writer:     lake,
	}

	require.NoError(t, runner.Run(context.Background()))
	assert.Len(t, lake.tables, 5)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &Runner{
		SongSource: &sliceSource{records: sampleSongRecords()},
		LogSource:  &sliceSource{records: sampleLogRecords()},
		Writer:     &captureWriter{},
	}

	err := runner.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParquetTableWriter_HiveLayout(t *testing.T) {
	root := t.TempDir()
	writer := &ParquetTableWriter{Root: root}

	songs, err := DeriveSongs(sampleSongRecords())
	require.NoError(t, err)
	require.NoError(t, writer.WriteTable(context.Background(), songs))

	expected := []string{
		filepath.Join(root, "songs.parquet", "year=2001", "artist_id=ARA", "part-00000.parquet"),
		filepath.Join(root, "songs.parquet", "year=0", "artist_id=ARB", "part-00000.parquet"),
		filepath.Join(root, "songs.parquet", "year=2003", "artist_id=ARA", "part-00000.parquet"),
	}
	for _, path := range expected {
		info, err := os.Stat(path)
		require.NoError(t, err, "expected partition file %s", path)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestParquetTableWriter_OverwriteReplacesPriorRun(t *testing.T) {
	root := t.TempDir()
	writer := &ParquetTableWriter{Root: root}
	ctx := context.Background()

	first, err := DeriveSongs(sampleSongRecords())
	require.NoError(t, err)
	require.NoError(t, writer.WriteTable(ctx, first))

	second, err := DeriveSongs([]dimlake.Record{
		songRecord("SOZ", "ARZ", "Zeta", "Zeta Band", 1995, 50.0),
	})
	require.NoError(t, err)
	require.NoError(t, writer.WriteTable(ctx, second))

	// Partitions from the first run must be gone.
	_, err = os.Stat(filepath.Join(root, "songs.parquet", "year=2001"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(root, "songs.parquet", "year=1995", "artist_id=ARZ", "part-00000.parquet"))
	assert.NoError(t, err)
}

func TestSongPipeline_Rerun_IsIdempotent(t *testing.T) {
	run := func() *SongResult {
		pipeline := &SongPipeline{Writer: &captureWriter{}}
		result, err := pipeline.Run(context.Background(), &sliceSource{records: sampleSongRecords()})
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()

	assert.Equal(t, first.Songs.Rows, second.Songs.Rows)
	assert.Equal(t, first.Artists.Rows, second.Artists.Rows)
}

func TestRunner_EndToEndParquet(t *testing.T) {
	root := t.TempDir()
	runner := &Runner{
		SongSource: &sliceSource{records: sampleSongRecords()},
		LogSource:  &sliceSource{records: sampleLogRecords()},
		Writer:     &ParquetTableWriter{Root: root},
	}

	require.NoError(t, runner.Run(context.Background()))

	// Unpartitioned dimensions land as a single file; partitioned tables as
	// hive-style directories keyed by their partition columns.
	expected := []string{
		filepath.Join(root, "artists.parquet", "part-00000.parquet"),
		filepath.Join(root, "users.parquet", "part-00000.parquet"),
		filepath.Join(root, "time.parquet", "year=2018", "month=11", "part-00000.parquet"),
		filepath.Join(root, "songplays.parquet", "year=2018", "month=11", "part-00000.parquet"),
		filepath.Join(root, "songs.parquet", "year=2001", "artist_id=ARA", "part-00000.parquet"),
	}
	for _, path := range expected {
		_, err := os.Stat(path)
		assert.NoError(t, err, "expected output file %s", path)
	}
}
