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
	"encoding/json"
	"io"

	"github.com/aaronlmathis/dimlake"
)

// JSONReader implements dimlake.DataSource for JSON record files.
//
// It accepts both line-delimited JSON (one object per line, the usage-log
// layout) and whole-file JSON (a single object per file, the song-metadata
// layout): the decoder yields each top-level object in the stream in turn.
type JSONReader struct {
	decoder *json.Decoder
	closer  io.Closer
}

// NewJSONReader creates a new JSON reader over a stream of JSON objects.
func NewJSONReader(r io.ReadCloser) *JSONReader {
	return &JSONReader{
		decoder: json.NewDecoder(r),
		closer:  r,
	}
}

// Read implements the dimlake.DataSource interface.
func (j *JSONReader) Read(ctx context.Context) (dimlake.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var record dimlake.Record
	if err := j.decoder.Decode(&record); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}

	return record, nil
}

// Close implements the dimlake.DataSource interface.
func (j *JSONReader) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
