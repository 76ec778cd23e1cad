/*
 * ocsync, Copyright 2023 ocsync authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package webdav

import (
	"strconv"
	"strings"
)

var rfc1123Months = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// parseHTTPDate parses an RFC 1123 date ("Sun, 06 Nov 1994 08:49:37
// GMT") into UTC epoch seconds. Month names are matched case
// sensitively; an unknown month yields 0. Local timezone is never
// consulted.
func parseHTTPDate(s string) int64 {
	// "Sun, 06 Nov 1994 08:49:37 GMT"
	fields := strings.Fields(s)
	if len(fields) != 6 {
		return 0
	}
	day, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	month := monthNumber(fields[2])
	if month == 0 {
		return 0
	}
	year, err := strconv.Atoi(fields[3])
	if err != nil {
		return 0
	}
	hh, mm, ss, ok := splitClock(fields[4])
	if !ok {
		return 0
	}
	return daysFromCivil(year, month, day)*86400 + int64(hh)*3600 + int64(mm)*60 + int64(ss)
}

func monthNumber(name string) int {
	for i, m := range rfc1123Months {
		if m == name {
			return i + 1
		}
	}
	return 0
}

func splitClock(s string) (hh, mm, ss int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var err error
	if hh, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if mm, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, false
	}
	if ss, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, false
	}
	return hh, mm, ss, true
}

// daysFromCivil converts a proleptic Gregorian (year, month, day) into
// a day count relative to the Unix epoch (1970-01-01), using Howard
// Hinnant's days_from_civil algorithm. Always timezone-agnostic.
func daysFromCivil(y, m, d int) int64 {
	y -= boolToInt(m <= 2)
	era := divFloor(y, 400)
	yoe := int64(y - era*400)
	doy := int64((153*(m+12*boolToInt(m <= 2)-3)+2)/5 + d - 1)
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return int64(era)*146097 + doe - 719468
}

func divFloor(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
