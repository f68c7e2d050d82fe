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

package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/dimlake"
)

func include(t *testing.T, f dimlake.Filter, record dimlake.Record) bool {
	t.Helper()
	ok, err := f.ShouldInclude(context.Background(), record)
	require.NoError(t, err)
	return ok
}

func TestEquals(t *testing.T) {
	f := Equals("page", "NextSong")

	assert.True(t, include(t, f, dimlake.Record{"page": "NextSong"}))
	assert.False(t, include(t, f, dimlake.Record{"page": "Home"}))
	assert.False(t, include(t, f, dimlake.Record{"level": "paid"}), "missing field is dropped")
	assert.False(t, include(t, f, dimlake.Record{"page": nil}))
}

func TestEquals_NumericValues(t *testing.T) {
	f := Equals("status", float64(200))

	assert.True(t, include(t, f, dimlake.Record{"status": float64(200)}))
	assert.False(t, include(t, f, dimlake.Record{"status": int64(200)}), "types must match exactly")
}
