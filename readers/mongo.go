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
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aaronlmathis/dimlake"
)

// MongoReaderError provides structured error information for MongoDB reader operations.
type MongoReaderError struct {
	Op  string // Operation that failed (e.g., "connect", "find", "decode")
	Err error  // Underlying error
}

func (e *MongoReaderError) Error() string {
	return fmt.Sprintf("mongo reader %s: %v", e.Op, e.Err)
}

func (e *MongoReaderError) Unwrap() error {
	return e.Err
}

// MongoReaderOptions configures the MongoDB reader.
type MongoReaderOptions struct {
	URI        string        // Connection URI
	Database   string        // Database name
	Collection string        // Collection name
	Filter     bson.M        // Query filter
	Sort       bson.M        // Sort specification; defaults to _id for a stable scan order
	BatchSize  int32         // Cursor batch size
	Timeout    time.Duration // Connect timeout
}

// ReaderOptionMongo represents a configuration function for MongoReader.
type ReaderOptionMongo func(*MongoReaderOptions)

func WithMongoURI(uri string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) {
		opts.URI = uri
	}
}

func WithMongoDB(database string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) {
		opts.Database = database
	}
}

func WithMongoCollection(collection string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) {
		opts.Collection = collection
	}
}

func WithMongoFilter(filter bson.M) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) {
		opts.Filter = filter
	}
}

func WithMongoSort(sort bson.M) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) {
		opts.Sort = sort
	}
}

func WithMongoBatchSize(batchSize int32) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) {
		opts.BatchSize = batchSize
	}
}

func WithMongoTimeout(timeout time.Duration) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) {
		opts.Timeout = timeout
	}
}

// MongoReader implements dimlake.DataSource for a MongoDB collection, for
// deployments that land usage events in a collection instead of JSON files.
// Documents are scanned in _id order unless another sort is configured.
type MongoReader struct {
	client *mongo.Client
	cursor *mongo.Cursor
	opts   MongoReaderOptions
	read   int64
}

// NewMongoReader creates a reader and opens its cursor.
func NewMongoReader(ctx context.Context, opt ...ReaderOptionMongo) (*MongoReader, error) {
	opts := MongoReaderOptions{
		Filter:    bson.M{},
		Sort:      bson.M{"_id": 1},
		BatchSize: 1000,
		Timeout:   10 * time.Second,
	}
	for _, o := range opt {
		o(&opts)
	}

	if opts.URI == "" || opts.Database == "" || opts.Collection == "" {
		return nil, &MongoReaderError{
			Op:  "validate_options",
			Err: fmt.Errorf("uri, database, and collection are required"),
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, &MongoReaderError{Op: "connect", Err: err}
	}

	coll := client.Database(opts.Database).Collection(opts.Collection)
	findOpts := options.Find().
		SetSort(opts.Sort).
		SetBatchSize(opts.BatchSize)

	cursor, err := coll.Find(ctx, opts.Filter, findOpts)
	if err != nil {
		client.Disconnect(context.Background())
		return nil, &MongoReaderError{Op: "find", Err: err}
	}

	return &MongoReader{
		client: client,
		cursor: cursor,
		opts:   opts,
	}, nil
}

// Read implements the dimlake.DataSource interface.
func (mr *MongoReader) Read(ctx context.Context) (dimlake.Record, error) {
	if !mr.cursor.Next(ctx) {
		if err := mr.cursor.Err(); err != nil {
			return nil, &MongoReaderError{Op: "cursor", Err: err}
		}
		return nil, io.EOF
	}

	var doc bson.M
	if err := mr.cursor.Decode(&doc); err != nil {
		return nil, &MongoReaderError{Op: "decode", Err: err}
	}

	mr.read++
	return convertBSONToRecord(doc), nil
}

// Close implements the dimlake.DataSource interface.
func (mr *MongoReader) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if mr.cursor != nil {
		mr.cursor.Close(ctx)
	}
	if mr.client != nil {
		return mr.client.Disconnect(ctx)
	}
	return nil
}

// Records returns the number of documents read so far.
func (mr *MongoReader) Records() int64 {
	return mr.read
}

// convertBSONToRecord converts a BSON document to a pipeline record,
// normalizing driver-specific types to the plain values the rest of the
// pipeline expects.
func convertBSONToRecord(doc bson.M) dimlake.Record {
	record := make(dimlake.Record, len(doc))
	for key, value := range doc {
		record[key] = convertBSONValue(value)
	}
	return record
}

func convertBSONValue(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time()
	case primitive.Decimal128:
		return v.String()
	case primitive.A:
		converted := make([]interface{}, len(v))
		for i, item := range v {
			converted[i] = convertBSONValue(item)
		}
		return converted
	case bson.M:
		return convertBSONToRecord(v)
	case int32:
		return int64(v)
	default:
		return v
	}
}
