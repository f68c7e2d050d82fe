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

import "fmt"

// StructuralError reports a record that lacks a field the derivation cannot
// proceed without (song_id, artist_id, userId, ts). It aborts the enclosing
// pipeline before any table is written.
type StructuralError struct {
	Table string // Table being derived
	Field string // Required field that was absent
}

// Error returns the error string for StructuralError.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("deriving %s: record is missing required field %q", e.Table, e.Field)
}

// SinkError reports a table that failed to persist. It is fatal for the run;
// the recovery mechanism is rerunning the (overwrite-safe) pipeline.
type SinkError struct {
	Table string // Table that failed to persist
	Err   error  // Underlying error
}

// Error returns the error string for SinkError.
func (e *SinkError) Error() string {
	return fmt.Sprintf("writing table %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying error for SinkError.
func (e *SinkError) Unwrap() error {
	return e.Err
}
