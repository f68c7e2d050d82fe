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

// Command dimlake runs the full warehouse extraction: the song pipeline
// followed by the log pipeline, against the configured input and output
// locations. It takes no flags; all configuration comes from the environment.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"

	"github.com/aaronlmathis/dimlake"
	"github.com/aaronlmathis/dimlake/config"
	"github.com/aaronlmathis/dimlake/readers"
	"github.com/aaronlmathis/dimlake/transform"
	"github.com/aaronlmathis/dimlake/warehouse"
	"github.com/aaronlmathis/dimlake/writers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})).With("run_id", runID)
	slog.SetDefault(logger)

	ctx := context.Background()

	songSource, err := newSongSource(ctx, cfg)
	if err != nil {
		logger.Error("failed to open song source", "error", err)
		os.Exit(1)
	}

	logSource, logTransformers, err := newLogSource(ctx, cfg)
	if err != nil {
		logger.Error("failed to open log source", "error", err)
		os.Exit(1)
	}

	runner := &warehouse.Runner{
		SongSource: songSource,
		LogSource:  logSource,
		Writer: &warehouse.ParquetTableWriter{
			Root: cfg.OutputRoot,
			Options: []writers.WriterOption{
				writers.WithMetadata(map[string]string{"run_id": runID}),
			},
		},
		LogTransformers: logTransformers,
		Logger:          logger,
	}

	if cfg.PostgresDSN != "" {
		runner.Serving = &warehouse.PostgresTableWriter{DSN: cfg.PostgresDSN}
	}

	if err := runner.Run(ctx); err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}

	logger.Info("extraction complete", "output", cfg.OutputRoot)
}

// newSongSource opens the song-metadata source: S3 when a bucket is
// configured, a local glob otherwise.
func newSongSource(ctx context.Context, cfg *config.Config) (dimlake.DataSource, error) {
	if cfg.UseS3() {
		return readers.NewS3Reader(ctx,
			readers.WithS3Bucket(cfg.S3Bucket),
			readers.WithS3Prefix(cfg.SongPrefix),
			readers.WithS3Region(cfg.AWSRegion),
			readers.WithS3Endpoint(cfg.S3Endpoint),
			readers.WithS3Credentials(aws.Credentials{
				AccessKeyID:     cfg.AWSAccessKeyID,
				SecretAccessKey: cfg.AWSSecretAccessKey,
			}),
		)
	}
	return readers.NewGlobReader(filepath.Join(cfg.InputRoot, cfg.SongGlob))
}

// newLogSource opens the usage-log source: MongoDB when configured, then S3,
// then a local glob. Mongo documents carry a driver-added _id that must not
// reach the derivations.
func newLogSource(ctx context.Context, cfg *config.Config) (dimlake.DataSource, []dimlake.Transformer, error) {
	if cfg.UseMongo() {
		source, err := readers.NewMongoReader(ctx,
			readers.WithMongoURI(cfg.MongoURI),
			readers.WithMongoDB(cfg.MongoDatabase),
			readers.WithMongoCollection(cfg.MongoCollection),
		)
		if err != nil {
			return nil, nil, err
		}
		return source, []dimlake.Transformer{transform.RemoveFields("_id")}, nil
	}

	if cfg.UseS3() {
		source, err := readers.NewS3Reader(ctx,
			readers.WithS3Bucket(cfg.S3Bucket),
			readers.WithS3Prefix(cfg.LogPrefix),
			readers.WithS3Region(cfg.AWSRegion),
			readers.WithS3Endpoint(cfg.S3Endpoint),
			readers.WithS3Credentials(aws.Credentials{
				AccessKeyID:     cfg.AWSAccessKeyID,
				SecretAccessKey: cfg.AWSSecretAccessKey,
			}),
		)
		return source, nil, err
	}

	source, err := readers.NewGlobReader(filepath.Join(cfg.InputRoot, cfg.LogGlob))
	return source, nil, err
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
