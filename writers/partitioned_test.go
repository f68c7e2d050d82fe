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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/dimlake"
)

// TestPartitionedWriter_HiveLayout tests partition directory routing
func TestPartitionedWriter_HiveLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "songs.parquet")

	writer, err := NewPartitionedWriter(root,
		[]string{"year", "artist_id"},
		[]string{"song_id", "title", "artist_id", "year", "duration"},
	)
	require.NoError(t, err)
	defer writer.Close()

	ctx := context.Background()
	records := []dimlake.Record{
		{"song_id": "SOA", "title": "Alpha", "artist_id": "ARA", "year": int64(2001), "duration": 218.93},
		{"song_id": "SOB", "title": "Beta", "artist_id": "ARB", "year": int64(2005), "duration": 100.5},
		{"song_id": "SOC", "title": "Gamma", "artist_id": "ARA", "year": int64(2001), "duration": 301.7},
	}
	for _, record := range records {
		require.NoError(t, writer.Write(ctx, record))
	}

	assert.Equal(t, int64(3), writer.Records())
	assert.Len(t, writer.Partitions(), 2)

	require.NoError(t, writer.Flush())
	require.NoError(t, writer.Close())

	for _, path := range []string{
		filepath.Join(root, "year=2001", "artist_id=ARA", "part-00000.parquet"),
		filepath.Join(root, "year=2005", "artist_id=ARB", "part-00000.parquet"),
	} {
		info, err := os.Stat(path)
		require.NoError(t, err, "expected partition file %s", path)
		assert.Greater(t, info.Size(), int64(0))
	}
}

// TestPartitionedWriter_Unpartitioned tests single-file output
func TestPartitionedWriter_Unpartitioned(t *testing.T) {
	root := filepath.Join(t.TempDir(), "artists.parquet")

	writer, err := NewPartitionedWriter(root, nil,
		[]string{"artist_id", "name", "location", "latitude", "longitude"},
	)
	require.NoError(t, err)
	defer writer.Close()

	ctx := context.Background()
	require.NoError(t, writer.Write(ctx, dimlake.Record{
		"artist_id": "ARA", "name": "The Alphas", "latitude": 37.77,
	}))

	assert.Len(t, writer.Partitions(), 1)

	require.NoError(t, writer.Flush())
	require.NoError(t, writer.Close())

	_, err = os.Stat(filepath.Join(root, "part-00000.parquet"))
	assert.NoError(t, err)
}

// TestPartitionedWriter_NullPartitionValue tests the hive default partition
func TestPartitionedWriter_NullPartitionValue(t *testing.T) {
	root := filepath.Join(t.TempDir(), "songs.parquet")

	writer, err := NewPartitionedWriter(root,
		[]string{"year"},
		[]string{"song_id", "year"},
	)
	require.NoError(t, err)
	defer writer.Close()

	ctx := context.Background()
	require.NoError(t, writer.Write(ctx, dimlake.Record{"song_id": "SOA", "year": nil}))
	require.NoError(t, writer.Write(ctx, dimlake.Record{"song_id": "SOB"}))
	require.NoError(t, writer.Flush())
	require.NoError(t, writer.Close())

	_, err = os.Stat(filepath.Join(root, "year=__HIVE_DEFAULT_PARTITION__", "part-00000.parquet"))
	assert.NoError(t, err)
}

// TestPartitionedWriter_PayloadExcludesPartitionColumns verifies the file
// schema drops the columns encoded in the directory path
func TestPartitionedWriter_PayloadExcludesPartitionColumns(t *testing.T) {
	root := filepath.Join(t.TempDir(), "songs.parquet")

	writer, err := NewPartitionedWriter(root,
		[]string{"year", "artist_id"},
		[]string{"song_id", "title", "artist_id", "year", "duration"},
	)
	require.NoError(t, err)
	defer writer.Close()

	require.NoError(t, writer.Write(context.Background(), dimlake.Record{
		"song_id": "SOA", "title": "Alpha", "artist_id": "ARA", "year": int64(2001), "duration": 218.93,
	}))
	require.NoError(t, writer.Flush())

	dir := filepath.Join(root, "year=2001", "artist_id=ARA")
	pw := writer.open[dir]
	require.NotNil(t, pw)
	require.NotNil(t, pw.schema)

	names := make([]string, 0, len(pw.schema.Fields()))
	for _, field := range pw.schema.Fields() {
		names = append(names, field.Name)
	}
	assert.Equal(t, []string{"song_id", "title", "duration"}, names)
}

// TestPartitionedWriter_Overwrite tests that creation clears the root
func TestPartitionedWriter_Overwrite(t *testing.T) {
	root := filepath.Join(t.TempDir(), "songs.parquet")
	stale := filepath.Join(root, "year=1990", "artist_id=OLD")
	require.NoError(t, os.MkdirAll(stale, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "part-00000.parquet"), []byte("stale"), 0644))

	writer, err := NewPartitionedWriter(root,
		[]string{"year", "artist_id"},
		[]string{"song_id", "artist_id", "year"},
	)
	require.NoError(t, err)
	defer writer.Close()

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "prior contents must be removed")
}

// TestPartitionedWriter_WriteAfterClose tests error conditions
func TestPartitionedWriter_WriteAfterClose(t *testing.T) {
	root := filepath.Join(t.TempDir(), "songs.parquet")

	writer, err := NewPartitionedWriter(root, nil, []string{"song_id"})
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	err = writer.Write(context.Background(), dimlake.Record{"song_id": "SOA"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

// TestPartitionedWriter_UnsupportedPartitionType tests partition value formatting
func TestPartitionedWriter_UnsupportedPartitionType(t *testing.T) {
	root := filepath.Join(t.TempDir(), "songs.parquet")

	writer, err := NewPartitionedWriter(root, []string{"year"}, []string{"song_id", "year"})
	require.NoError(t, err)
	defer writer.Close()

	err = writer.Write(context.Background(), dimlake.Record{
		"song_id": "SOA",
		"year":    []string{"not", "scalar"},
	})
	require.Error(t, err)

	var writerErr *PartitionedWriterError
	require.ErrorAs(t, err, &writerErr)
	assert.Equal(t, "partition", writerErr.Op)
}

func TestFormatPartitionValue(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{"string", "ARA", "ARA"},
		{"empty string", "", "__HIVE_DEFAULT_PARTITION__"},
		{"int", 42, "42"},
		{"int32", int32(7), "7"},
		{"int64", int64(2018), "2018"},
		{"integral float", float64(11), "11"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatPartitionValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
