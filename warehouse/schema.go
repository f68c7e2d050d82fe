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
	"github.com/aaronlmathis/dimlake"
)

// Package warehouse derives the star-schema tables of the warehouse from raw
// song-metadata and usage-log records: the songs, artists, users, and time
// dimensions and the songplays fact table. Derivations materialize the whole
// input before emitting output, since deduplication and the dimension join
// need the full set.

// Schema describes the shape and layout of one warehouse table.
type Schema struct {
	Name        string   // Table name; also the output sub-path
	Columns     []string // Column order for the persisted table
	PartitionBy []string // Partition columns; empty for unpartitioned tables
}

// The five warehouse tables.
var (
	SongsSchema = Schema{
		Name:        "songs",
		Columns:     []string{"song_id", "title", "artist_id", "year", "duration"},
		PartitionBy: []string{"year", "artist_id"},
	}

	ArtistsSchema = Schema{
		Name:    "artists",
		Columns: []string{"artist_id", "name", "location", "latitude", "longitude"},
	}

	UsersSchema = Schema{
		Name:    "users",
		Columns: []string{"user_id", "first_name", "last_name", "gender", "level"},
	}

	TimeSchema = Schema{
		Name:        "time",
		Columns:     []string{"start_time", "hour", "day", "week", "month", "year"},
		PartitionBy: []string{"year", "month"},
	}

	SongplaysSchema = Schema{
		Name: "songplays",
		Columns: []string{
			"songplay_id", "start_time", "user_id", "level", "song_id",
			"artist_id", "session_id", "location", "user_agent", "year", "month",
		},
		PartitionBy: []string{"year", "month"},
	}
)

// Table is a fully derived warehouse table, ready for a TableWriter.
type Table struct {
	Schema Schema
	Rows   []dimlake.Record
}
