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
	"github.com/aaronlmathis/dimlake/filter"
)

// Log-side derivations: the users and time dimensions and the songplays fact
// table. All of them operate on records already filtered to NextSong events.

// NextSongOnly returns the filter that selects song-play events. Every
// log-side table derives from this filtered set; records for other pages
// (Home, Login, ...) never reach users, time, or songplays.
func NextSongOnly() dimlake.Filter {
	return filter.Equals("page", "NextSong")
}

// DeriveUsers projects the users dimension from filtered log records:
// {user_id, first_name, last_name, gender, level}, one row per distinct
// user_id. The first occurrence in scan order wins, so when a user's level
// changes across records only one snapshot survives, determined by scan
// order rather than recency. A record without userId is a StructuralError.
func DeriveUsers(records []dimlake.Record) (*Table, error) {
	rows := make([]dimlake.Record, 0, len(records))
	for _, record := range records {
		userID, ok := stringValue(record, "userId")
		if !ok {
			return nil, &StructuralError{Table: UsersSchema.Name, Field: "userId"}
		}

		rows = append(rows, dimlake.Record{
			"user_id":    userID,
			"first_name": optionalString(record, "firstName"),
			"last_name":  optionalString(record, "lastName"),
			"gender":     optionalString(record, "gender"),
			"level":      optionalString(record, "level"),
		})
	}

	return &Table{
		Schema: UsersSchema,
		Rows:   dedupeRows(rows, "user_id"),
	}, nil
}

// DeriveTime decomposes each filtered log record's event timestamp into the
// time dimension: {start_time, hour, day, week, month, year}, one row per
// distinct instant. A record without ts is a StructuralError.
func DeriveTime(records []dimlake.Record) (*Table, error) {
	seen := make(map[int64]bool, len(records))
	rows := make([]dimlake.Record, 0, len(records))

	for _, record := range records {
		ts, ok := int64Value(record, "ts")
		if !ok {
			return nil, &StructuralError{Table: TimeSchema.Name, Field: "ts"}
		}

		start := StartTime(ts)
		if seen[start.Unix()] {
			continue
		}
		seen[start.Unix()] = true

		parts := DecomposeTime(start)
		rows = append(rows, dimlake.Record{
			"start_time": start,
			"hour":       parts.Hour,
			"day":        parts.Day,
			"week":       parts.Week,
			"month":      parts.Month,
			"year":       parts.Year,
		})
	}

	return &Table{
		Schema: TimeSchema,
		Rows:   rows,
	}, nil
}

// DeriveSongplays builds the fact table from filtered log records, resolving
// song_id and artist_id through the song lookup. A lookup miss leaves both
// identifiers null for that row and never aborts the run; the miss count is
// returned for reporting. Ids come from seq in scan order, so they are unique
// and strictly increasing across the output. The year and month columns come
// from the derived start_time, not from the raw record.
func DeriveSongplays(records []dimlake.Record, lookup *SongLookup, seq *PlaySequence) (*Table, int64, error) {
	var misses int64
	rows := make([]dimlake.Record, 0, len(records))

	for _, record := range records {
		ts, ok := int64Value(record, "ts")
		if !ok {
			return nil, misses, &StructuralError{Table: SongplaysSchema.Name, Field: "ts"}
		}
		userID, ok := stringValue(record, "userId")
		if !ok {
			return nil, misses, &StructuralError{Table: SongplaysSchema.Name, Field: "userId"}
		}

		start := StartTime(ts)
		parts := DecomposeTime(start)

		var songID, artistID interface{}
		title, _ := stringValue(record, "song")
		artist, _ := stringValue(record, "artist")
		length, _ := float64Value(record, "length")
		if sid, aid, ok := lookup.Resolve(title, artist, length); ok {
			songID, artistID = sid, aid
		} else {
			misses++
		}

		rows = append(rows, dimlake.Record{
			"songplay_id": seq.Next(),
			"start_time":  start,
			"user_id":     userID,
			"level":       optionalString(record, "level"),
			"song_id":     songID,
			"artist_id":   artistID,
			"session_id":  optionalInt(record, "sessionId"),
			"location":    optionalString(record, "location"),
			"user_agent":  optionalString(record, "userAgent"),
			"year":        parts.Year,
			"month":       parts.Month,
		})
	}

	return &Table{
		Schema: SongplaysSchema,
		Rows:   rows,
	}, misses, nil
}
