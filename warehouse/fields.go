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
	"math"
	"strconv"

	"github.com/aaronlmathis/dimlake"
)

// Field coercion for raw JSON records. JSON numbers decode as float64 and
// identifiers as strings, but records arriving through other sources (e.g.,
// MongoDB) may carry native integer types, so the accessors accept both.

// stringValue extracts a field as a non-empty string.
// Integral numbers are rendered without a decimal point, so a numeric userId
// matches its string form.
func stringValue(record dimlake.Record, field string) (string, bool) {
	value, exists := record[field]
	if !exists || value == nil {
		return "", false
	}

	switch v := value.(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case int:
		return strconv.Itoa(v), true
	default:
		return "", false
	}
}

// int64Value extracts a field as an int64.
func int64Value(record dimlake.Record, field string) (int64, bool) {
	value, exists := record[field]
	if !exists || value == nil {
		return 0, false
	}

	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	default:
		return 0, false
	}
}

// float64Value extracts a field as a float64.
func float64Value(record dimlake.Record, field string) (float64, bool) {
	value, exists := record[field]
	if !exists || value == nil {
		return 0, false
	}

	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// optionalString returns the field as a string value or nil, for columns that
// tolerate missing data.
func optionalString(record dimlake.Record, field string) interface{} {
	if s, ok := stringValue(record, field); ok {
		return s
	}
	return nil
}

// optionalInt returns the field as an int64 value or nil.
func optionalInt(record dimlake.Record, field string) interface{} {
	if n, ok := int64Value(record, field); ok {
		return n
	}
	return nil
}

// optionalFloat returns the field as a float64 value or nil.
func optionalFloat(record dimlake.Record, field string) interface{} {
	if f, ok := float64Value(record, field); ok {
		return f
	}
	return nil
}
