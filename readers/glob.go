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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/aaronlmathis/dimlake"
)

// GlobReaderError provides structured error information for glob reader operations.
type GlobReaderError struct {
	Op  string // Operation that failed (e.g., "glob", "open_file", "read")
	Err error  // Underlying error
}

func (e *GlobReaderError) Error() string {
	return fmt.Sprintf("glob reader %s: %v", e.Op, e.Err)
}

func (e *GlobReaderError) Unwrap() error {
	return e.Err
}

// GlobReaderStats holds statistics about the glob reader's progress.
type GlobReaderStats struct {
	FilesMatched int64    // Total files matched by the pattern
	FilesRead    int64    // Files fully consumed
	RecordsRead  int64    // Records read across all files
	FileErrors   int64    // Files that failed to open or decode
	CurrentFile  string   // File currently being read
	Processed    []string // Files successfully processed
}

// GlobReader implements dimlake.DataSource over all local files matching a
// fixed-depth glob pattern (e.g., root/song_data/*/*/*/*.json). Files are
// processed in lexicographic order so a run always consumes its inputs in a
// stable sequence.
type GlobReader struct {
	files        []string
	currentIndex int
	current      dimlake.DataSource
	stats        GlobReaderStats
}

// NewGlobReader enumerates the files matching pattern and returns a reader
// that streams their JSON records in file order.
func NewGlobReader(pattern string) (*GlobReader, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &GlobReaderError{Op: "glob", Err: err}
	}
	if len(files) == 0 {
		return nil, &GlobReaderError{Op: "glob", Err: fmt.Errorf("no files match %s", pattern)}
	}

	sort.Strings(files)

	return &GlobReader{
		files: files,
		stats: GlobReaderStats{FilesMatched: int64(len(files))},
	}, nil
}

// Read implements the dimlake.DataSource interface.
func (g *GlobReader) Read(ctx context.Context) (dimlake.Record, error) {
	select {
	case <-ctx.Done():
		return nil, &GlobReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	for {
		if g.current == nil {
			if g.currentIndex >= len(g.files) {
				return nil, io.EOF
			}
			if err := g.openNextFile(); err != nil {
				return nil, err
			}
		}

		record, err := g.current.Read(ctx)
		if err == io.EOF {
			g.closeCurrent()
			g.stats.FilesRead++
			g.stats.Processed = append(g.stats.Processed, g.files[g.currentIndex])
			g.currentIndex++
			continue
		}
		if err != nil {
			g.stats.FileErrors++
			return nil, &GlobReaderError{
				Op:  "read",
				Err: fmt.Errorf("file %s: %w", g.files[g.currentIndex], err),
			}
		}

		g.stats.RecordsRead++
		return record, nil
	}
}

// Close implements the dimlake.DataSource interface.
func (g *GlobReader) Close() error {
	return g.closeCurrent()
}

// Stats returns glob reader progress statistics.
func (g *GlobReader) Stats() GlobReaderStats {
	return g.stats
}

// Files returns the matched file list in processing order.
func (g *GlobReader) Files() []string {
	return g.files
}

func (g *GlobReader) openNextFile() error {
	name := g.files[g.currentIndex]
	g.stats.CurrentFile = name

	f, err := os.Open(name)
	if err != nil {
		g.stats.FileErrors++
		return &GlobReaderError{
			Op:  "open_file",
			Err: fmt.Errorf("failed to open %s: %w", name, err),
		}
	}

	g.current = NewJSONReader(f)
	return nil
}

func (g *GlobReader) closeCurrent() error {
	if g.current != nil {
		err := g.current.Close()
		g.current = nil
		return err
	}
	return nil
}
