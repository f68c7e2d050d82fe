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
	"sync/atomic"
)

// PlaySequence is a threadsafe monotonic id generator for songplay rows.
// Ids are unique and strictly increasing within a run; they are assigned in
// input scan order, which makes a single run reproducible. Ids are never
// reused across the sequence's lifetime.
type PlaySequence struct {
	id atomic.Int64
}

// NewPlaySequence creates a new id generator starting at 0.
func NewPlaySequence() *PlaySequence {
	return &PlaySequence{}
}

// Next generates a new id and returns it.
func (s *PlaySequence) Next() int64 {
	return s.id.Add(1) - 1
}

// Last returns the most recently generated id, or -1 if none was generated.
func (s *PlaySequence) Last() int64 {
	return s.id.Load() - 1
}
