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
	"context"
	"log/slog"

	"github.com/aaronlmathis/dimlake"
)

// SongResult reports one song-pipeline run.
type SongResult struct {
	RecordsRead int64
	Songs       *Table
	Artists     *Table
	Lookup      *SongLookup
}

// SongPipeline derives and persists the song-side dimensions.
// All tables are derived before anything is written, so a structural error
// aborts the run without leaving a partial table behind.
type SongPipeline struct {
	Writer TableWriter
	Logger *slog.Logger
}

// Run consumes all song-metadata records from source, derives the songs and
// artists tables, persists them, and returns the lookup the log pipeline
// joins against.
func (p *SongPipeline) Run(ctx context.Context, source dimlake.DataSource) (*SongResult, error) {
	logger := p.logger()

	records, total, err := materialize(ctx, source, nil, nil)
	if err != nil {
		return nil, err
	}
	logger.Info("song data loaded", "records", total)

	songs, err := DeriveSongs(records)
	if err != nil {
		return nil, err
	}
	artists, err := DeriveArtists(records)
	if err != nil {
		return nil, err
	}
	lookup, err := BuildSongLookup(records)
	if err != nil {
		return nil, err
	}

	if err := p.Writer.WriteTable(ctx, songs); err != nil {
		return nil, err
	}
	if err := p.Writer.WriteTable(ctx, artists); err != nil {
		return nil, err
	}

	logger.Info("song pipeline complete",
		"songs", len(songs.Rows),
		"artists", len(artists.Rows),
	)

	return &SongResult{
		RecordsRead: total,
		Songs:       songs,
		Artists:     artists,
		Lookup:      lookup,
	}, nil
}

func (p *SongPipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// LogResult reports one log-pipeline run.
type LogResult struct {
	RecordsRead int64 // Raw log records consumed
	EventsKept  int64 // Records surviving the NextSong filter
	JoinMisses  int64 // Songplay rows with unresolved song/artist ids
	Users       *Table
	Time        *Table
	Songplays   *Table
}

// LogPipeline derives and persists the log-side tables. It runs after the
// song pipeline because songplays derivation needs the completed song/artist
// lookup.
type LogPipeline struct {
	Writer TableWriter
	// Transformers are applied to each raw record before filtering, e.g.
	// stripping source-specific fields from MongoDB documents.
	Transformers []dimlake.Transformer
	Logger       *slog.Logger
}

// Run consumes all log records from source, filters them to NextSong events,
// derives the users, time, and songplays tables, and persists them.
func (p *LogPipeline) Run(ctx context.Context, source dimlake.DataSource, lookup *SongLookup) (*LogResult, error) {
	logger := p.logger()

	records, total, err := materialize(ctx, source, p.Transformers, NextSongOnly())
	if err != nil {
		return nil, err
	}
	logger.Info("log data loaded", "records", total, "next_song_events", len(records))

	users, err := DeriveUsers(records)
	if err != nil {
		return nil, err
	}
	timeTable, err := DeriveTime(records)
	if err != nil {
		return nil, err
	}
	songplays, misses, err := DeriveSongplays(records, lookup, NewPlaySequence())
	if err != nil {
		return nil, err
	}
	if misses > 0 {
		logger.Debug("songplay rows with unresolved dimensions", "count", misses)
	}

	if err := p.Writer.WriteTable(ctx, users); err != nil {
		return nil, err
	}
	if err := p.Writer.WriteTable(ctx, timeTable); err != nil {
		return nil, err
	}
	if err := p.Writer.WriteTable(ctx, songplays); err != nil {
		return nil, err
	}

	logger.Info("log pipeline complete",
		"users", len(users.Rows),
		"time", len(timeTable.Rows),
		"songplays", len(songplays.Rows),
		"join_misses", misses,
	)

	return &LogResult{
		RecordsRead: total,
		EventsKept:  int64(len(records)),
		JoinMisses:  misses,
		Users:       users,
		Time:        timeTable,
		Songplays:   songplays,
	}, nil
}

func (p *LogPipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Runner chains the song pipeline and the log pipeline against a shared
// table writer. The pipelines share no intermediate state beyond the song
// lookup handed from one to the other.
type Runner struct {
	SongSource dimlake.DataSource
	LogSource  dimlake.DataSource
	Writer     TableWriter
	// Serving, when set, additionally persists the dimension tables (songs,
	// artists, users) to a second destination such as PostgreSQL.
	Serving         TableWriter
	LogTransformers []dimlake.Transformer
	Logger          *slog.Logger
}

// Run executes the full extraction: song pipeline, then log pipeline, then
// the optional serving copies.
func (r *Runner) Run(ctx context.Context) error {
	songs := &SongPipeline{Writer: r.Writer, Logger: r.Logger}
	songResult, err := songs.Run(ctx, r.SongSource)
	if err != nil {
		return err
	}

	logs := &LogPipeline{Writer: r.Writer, Transformers: r.LogTransformers, Logger: r.Logger}
	logResult, err := logs.Run(ctx, r.LogSource, songResult.Lookup)
	if err != nil {
		return err
	}

	if r.Serving != nil {
		for _, table := range []*Table{songResult.Songs, songResult.Artists, logResult.Users} {
			if err := r.Serving.WriteTable(ctx, table); err != nil {
				return err
			}
		}
	}

	return nil
}

// materialize drains a source into memory through a streaming pipeline,
// applying the optional transformers and filter. Deduplication and the
// dimension join need the full input set, so the derivations cannot stream;
// the pipeline's sink is an in-memory buffer.
func materialize(ctx context.Context, source dimlake.DataSource, transformers []dimlake.Transformer, keep dimlake.Filter) ([]dimlake.Record, int64, error) {
	var total int64
	sink := &recordBuffer{}

	builder := dimlake.NewPipeline().
		From(source).
		Map(func(ctx context.Context, record dimlake.Record) (dimlake.Record, error) {
			total++
			return record, nil
		})
	for _, transformer := range transformers {
		builder.Transform(transformer)
	}
	if keep != nil {
		builder.Filter(keep)
	}

	pipeline, err := builder.To(sink).Build()
	if err != nil {
		return nil, 0, err
	}
	if err := pipeline.Execute(ctx); err != nil {
		return nil, total, err
	}

	return sink.records, total, nil
}

// recordBuffer is the in-memory DataSink materialize drains into.
type recordBuffer struct {
	records []dimlake.Record
}

func (b *recordBuffer) Write(ctx context.Context, record dimlake.Record) error {
	b.records = append(b.records, record)
	return nil
}

func (b *recordBuffer) Flush() error { return nil }

func (b *recordBuffer) Close() error { return nil }
