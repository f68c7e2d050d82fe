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
	"time"
)

// StartTime converts an epoch-milliseconds event timestamp to the point in
// time recorded in the warehouse. The value is truncated to whole seconds and
// always interpreted in UTC, so the derivation is the same on every machine.
func StartTime(tsMillis int64) time.Time {
	return time.Unix(tsMillis/1000, 0).UTC()
}

// TimeParts is the decomposition of a start_time into the columns of the
// time dimension.
type TimeParts struct {
	Hour  int64 // Hour of day, 0-23
	Day   int64 // Day of month, 1-31
	Week  int64 // ISO 8601 week of year, 1-53
	Month int64 // Month, 1-12
	Year  int64 // Calendar year
}

// DecomposeTime computes the time-dimension columns for a start_time.
// The week is the ISO 8601 week; the year is the calendar year, not the ISO
// week-numbering year, matching the other calendar columns.
func DecomposeTime(t time.Time) TimeParts {
	_, week := t.ISOWeek()
	return TimeParts{
		Hour:  int64(t.Hour()),
		Day:   int64(t.Day()),
		Week:  int64(week),
		Month: int64(t.Month()),
		Year:  int64(t.Year()),
	}
}
