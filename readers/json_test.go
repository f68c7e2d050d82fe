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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/dimlake"
)

// TestJSONReader_LineDelimited tests the usage-log layout: one object per line
func TestJSONReader_LineDelimited(t *testing.T) {
	data := `{"userId": "15", "page": "NextSong", "ts": 1541990258796}
{"userId": "44", "page": "Home", "ts": 1541990300000}
{"userId": "15", "page": "NextSong", "ts": 1541990358796}`

	reader := NewJSONReader(io.NopCloser(strings.NewReader(data)))
	defer reader.Close()

	ctx := context.Background()
	var records []dimlake.Record
	for {
		record, err := reader.Read(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		records = append(records, record)
	}

	require.Len(t, records, 3)
	assert.Equal(t, "15", records[0]["userId"])
	assert.Equal(t, "Home", records[1]["page"])
	assert.Equal(t, float64(1541990358796), records[2]["ts"])
}

// TestJSONReader_SingleObject tests the song-metadata layout: one object per file
func TestJSONReader_SingleObject(t *testing.T) {
	data := `{"song_id": "SOA", "title": "Alpha", "artist_id": "ARA", "year": 2001, "duration": 218.93}`

	reader := NewJSONReader(io.NopCloser(strings.NewReader(data)))
	defer reader.Close()

	ctx := context.Background()
	record, err := reader.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SOA", record["song_id"])
	assert.Equal(t, float64(2001), record["year"])
	assert.Equal(t, 218.93, record["duration"])

	_, err = reader.Read(ctx)
	assert.Equal(t, io.EOF, err)
}

// TestJSONReader_MalformedInput tests decode failure
func TestJSONReader_MalformedInput(t *testing.T) {
	reader := NewJSONReader(io.NopCloser(strings.NewReader(`{"ok": true}
{not json`)))
	defer reader.Close()

	ctx := context.Background()
	_, err := reader.Read(ctx)
	require.NoError(t, err)

	_, err = reader.Read(ctx)
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

// TestJSONReader_EmptyInput tests immediate EOF
func TestJSONReader_EmptyInput(t *testing.T) {
	reader := NewJSONReader(io.NopCloser(strings.NewReader("")))
	defer reader.Close()

	_, err := reader.Read(context.Background())
	assert.Equal(t, io.EOF, err)
}

// TestJSONReader_ContextCancellation tests cancellation between reads
func TestJSONReader_ContextCancellation(t *testing.T) {
	reader := NewJSONReader(io.NopCloser(strings.NewReader(`{"a": 1}`)))
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reader.Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
