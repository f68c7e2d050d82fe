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
	"sort"
	"strconv"

	"github.com/aaronlmathis/dimlake"
)

// Song-side derivations: the songs and artists dimensions, and the lookup the
// fact derivation joins against.

// DeriveSongs projects the songs dimension from raw song-metadata records:
// {song_id, title, artist_id, year, duration}, one row per distinct song_id.
//
// Rows are stable-sorted by song_id before deduplication, so the surviving
// row for a duplicated id is the first in sort order regardless of how the
// input files were split. A record without song_id or artist_id is a
// StructuralError.
func DeriveSongs(records []dimlake.Record) (*Table, error) {
	rows := make([]dimlake.Record, 0, len(records))
	for _, record := range records {
		songID, ok := stringValue(record, "song_id")
		if !ok {
			return nil, &StructuralError{Table: SongsSchema.Name, Field: "song_id"}
		}
		artistID, ok := stringValue(record, "artist_id")
		if !ok {
			return nil, &StructuralError{Table: SongsSchema.Name, Field: "artist_id"}
		}

		year, _ := int64Value(record, "year")

		rows = append(rows, dimlake.Record{
			"song_id":   songID,
			"title":     optionalString(record, "title"),
			"artist_id": artistID,
			"year":      year,
			"duration":  optionalFloat(record, "duration"),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i]["song_id"].(string) < rows[j]["song_id"].(string)
	})

	return &Table{
		Schema: SongsSchema,
		Rows:   dedupeRows(rows, "song_id"),
	}, nil
}

// DeriveArtists projects the artists dimension from raw song-metadata
// records: {artist_id, name, location, latitude, longitude}, one row per
// distinct artist_id. The first occurrence in scan order wins; with
// conflicting duplicates the survivor depends on input order, a known
// limitation.
func DeriveArtists(records []dimlake.Record) (*Table, error) {
	rows := make([]dimlake.Record, 0, len(records))
	for _, record := range records {
		artistID, ok := stringValue(record, "artist_id")
		if !ok {
			return nil, &StructuralError{Table: ArtistsSchema.Name, Field: "artist_id"}
		}

		rows = append(rows, dimlake.Record{
			"artist_id": artistID,
			"name":      optionalString(record, "artist_name"),
			"location":  optionalString(record, "artist_location"),
			"latitude":  optionalFloat(record, "artist_latitude"),
			"longitude": optionalFloat(record, "artist_longitude"),
		})
	}

	return &Table{
		Schema: ArtistsSchema,
		Rows:   dedupeRows(rows, "artist_id"),
	}, nil
}

// SongLookup resolves a usage-log event's (song title, artist name, duration)
// to the identifiers of the songs and artists dimensions. The log record does
// not carry song_id or artist_id; this natural-key string match is the only
// link between the two sources, and it is inherently lossy. Events that do
// not match resolve to null identifiers rather than failing the run.
type SongLookup struct {
	byKey map[string]songRef
}

type songRef struct {
	songID   string
	artistID string
}

// BuildSongLookup indexes raw song-metadata records by (title, artist name,
// duration). With duplicate keys the first record in scan order wins.
func BuildSongLookup(records []dimlake.Record) (*SongLookup, error) {
	byKey := make(map[string]songRef, len(records))
	for _, record := range records {
		songID, ok := stringValue(record, "song_id")
		if !ok {
			return nil, &StructuralError{Table: SongsSchema.Name, Field: "song_id"}
		}
		artistID, ok := stringValue(record, "artist_id")
		if !ok {
			return nil, &StructuralError{Table: SongsSchema.Name, Field: "artist_id"}
		}

		title, _ := stringValue(record, "title")
		artist, _ := stringValue(record, "artist_name")
		duration, _ := float64Value(record, "duration")

		key := lookupKey(title, artist, duration)
		if _, exists := byKey[key]; !exists {
			byKey[key] = songRef{songID: songID, artistID: artistID}
		}
	}

	return &SongLookup{byKey: byKey}, nil
}

// Resolve returns the song and artist ids for an exact (title, artist,
// duration) match, or ok=false on a miss.
func (l *SongLookup) Resolve(title, artist string, duration float64) (songID, artistID string, ok bool) {
	ref, exists := l.byKey[lookupKey(title, artist, duration)]
	if !exists {
		return "", "", false
	}
	return ref.songID, ref.artistID, true
}

// Size returns the number of distinct keys in the lookup.
func (l *SongLookup) Size() int {
	return len(l.byKey)
}

func lookupKey(title, artist string, duration float64) string {
	return title + "\x00" + artist + "\x00" + strconv.FormatFloat(duration, 'f', -1, 64)
}

// dedupeRows keeps the first row per distinct key value, preserving order.
func dedupeRows(rows []dimlake.Record, key string) []dimlake.Record {
	seen := make(map[string]bool, len(rows))
	result := make([]dimlake.Record, 0, len(rows))
	for _, row := range rows {
		id := row[key].(string)
		if seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, row)
	}
	return result
}
