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

// Package filter provides record predicates used to select which raw
// events enter the warehouse derivations, such as keeping only
// song-play events from the usage log.
package filter

import (
	"context"
	"reflect"

	"github.com/aaronlmathis/dimlake"
)

// Equals returns a filter that keeps records whose field equals the
// expected value. Records missing the field are dropped.
func Equals(field string, expectedValue interface{}) dimlake.Filter {
	return dimlake.FilterFunc(func(ctx context.Context, record dimlake.Record) (bool, error) {
		value, exists := record[field]
		if !exists {
			return false, nil
		}
		return reflect.DeepEqual(value, expectedValue), nil
	})
}
