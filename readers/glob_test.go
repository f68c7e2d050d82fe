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

package readers

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/dimlake"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func drain(t *testing.T, source dimlake.DataSource) []dimlake.Record {
	t.Helper()
	var records []dimlake.Record
	for {
		record, err := source.Read(context.Background())
		if err == io.EOF {
			return records
		}
		require.NoError(t, err)
		records = append(records, record)
	}
}

// TestGlobReader_NestedLayout tests the song-metadata directory layout:
// data/song_data/A/B/C/TRABCEI128F424C983.json, one object per file
func TestGlobReader_NestedLayout(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "song_data", "A", "A", "A", "TRAAAAA.json"),
		`{"song_id": "SOA", "artist_id": "ARA"}`)
	writeFile(t, filepath.Join(root, "song_data", "A", "B", "C", "TRABCEI.json"),
		`{"song_id": "SOB", "artist_id": "ARB"}`)
	writeFile(t, filepath.Join(root, "song_data", "B", "A", "A", "TRBAAAA.json"),
		`{"song_id": "SOC", "artist_id": "ARC"}`)

	reader, err := NewGlobReader(filepath.Join(root, "song_data", "*", "*", "*", "*.json"))
	require.NoError(t, err)
	defer reader.Close()

	records := drain(t, reader)
	require.Len(t, records, 3)

	// Lexicographic file order makes the sequence stable across runs.
	assert.Equal(t, "SOA", records[0]["song_id"])
	assert.Equal(t, "SOB", records[1]["song_id"])
	assert.Equal(t, "SOC", records[2]["song_id"])

	stats := reader.Stats()
	assert.Equal(t, int64(3), stats.FilesMatched)
	assert.Equal(t, int64(3), stats.FilesRead)
	assert.Equal(t, int64(3), stats.RecordsRead)
	assert.Equal(t, int64(0), stats.FileErrors)
}

// TestGlobReader_LineDelimitedFiles tests the usage-log layout: multiple
// records per file
func TestGlobReader_LineDelimitedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "log_data", "2018", "11", "2018-11-12-events.json"),
		`{"userId": "15", "page": "NextSong"}
{"userId": "44", "page": "Home"}`)
	writeFile(t, filepath.Join(root, "log_data", "2018", "11", "2018-11-13-events.json"),
		`{"userId": "15", "page": "NextSong"}`)

	reader, err := NewGlobReader(filepath.Join(root, "log_data", "*", "*", "*.json"))
	require.NoError(t, err)
	defer reader.Close()

	records := drain(t, reader)
	assert.Len(t, records, 3)
	assert.Len(t, reader.Files(), 2)
}

// TestGlobReader_NoMatches tests that an empty match set fails construction
func TestGlobReader_NoMatches(t *testing.T) {
	root := t.TempDir()

	_, err := NewGlobReader(filepath.Join(root, "*", "*.json"))
	require.Error(t, err)

	var globErr *GlobReaderError
	require.ErrorAs(t, err, &globErr)
	assert.Equal(t, "glob", globErr.Op)
}

// TestGlobReader_MalformedFile tests that a decode error names the file
func TestGlobReader_MalformedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"), `{"ok": true}`)
	writeFile(t, filepath.Join(root, "b.json"), `{broken`)

	reader, err := NewGlobReader(filepath.Join(root, "*.json"))
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.Read(context.Background())
	require.NoError(t, err)

	_, err = reader.Read(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.json")
	assert.Equal(t, int64(1), reader.Stats().FileErrors)
}

// TestGlobReader_ContextCancellation tests cancellation between reads
func TestGlobReader_ContextCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"), `{"ok": true}`)

	reader, err := NewGlobReader(filepath.Join(root, "*.json"))
	require.NoError(t, err)
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = reader.Read(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
