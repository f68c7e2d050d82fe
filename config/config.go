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

package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Package config loads the run configuration from the environment. It is the
// only place that reads process state; everything downstream receives the
// values explicitly, including storage credentials.

// Config holds one extraction run's configuration.
type Config struct {
	// Input/output roots. When S3Bucket is set the inputs are read from S3
	// using SongPrefix/LogPrefix; otherwise InputRoot is a local directory
	// searched with SongGlob/LogGlob.
	InputRoot  string `env:"DIMLAKE_INPUT_ROOT" envDefault:"data"`
	OutputRoot string `env:"DIMLAKE_OUTPUT_ROOT" envDefault:"warehouse"`

	// Fixed-depth glob patterns, relative to InputRoot.
	SongGlob string `env:"DIMLAKE_SONG_GLOB" envDefault:"song_data/*/*/*/*.json"`
	LogGlob  string `env:"DIMLAKE_LOG_GLOB" envDefault:"log_data/*/*/*/*.json"`

	// S3 input source.
	S3Bucket           string `env:"DIMLAKE_S3_BUCKET"`
	S3Endpoint         string `env:"DIMLAKE_S3_ENDPOINT"`
	SongPrefix         string `env:"DIMLAKE_SONG_PREFIX" envDefault:"song_data/"`
	LogPrefix          string `env:"DIMLAKE_LOG_PREFIX" envDefault:"log_data/"`
	AWSRegion          string `env:"AWS_REGION" envDefault:"us-west-2"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	// MongoDB log source, used instead of file-based logs when set.
	MongoURI        string `env:"DIMLAKE_MONGO_URI"`
	MongoDatabase   string `env:"DIMLAKE_MONGO_DB" envDefault:"events"`
	MongoCollection string `env:"DIMLAKE_MONGO_COLLECTION" envDefault:"usage_logs"`

	// Optional PostgreSQL serving copy of the dimension tables.
	PostgresDSN string `env:"DIMLAKE_POSTGRES_DSN"`

	LogLevel string `env:"DIMLAKE_LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment, after loading an optional
// .env file for local development.
func Load() (*Config, error) {
	// The .env file is optional; missing is not an error.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// UseS3 reports whether the inputs come from S3.
func (c *Config) UseS3() bool {
	return c.S3Bucket != ""
}

// UseMongo reports whether the log events come from MongoDB.
func (c *Config) UseMongo() bool {
	return c.MongoURI != ""
}
