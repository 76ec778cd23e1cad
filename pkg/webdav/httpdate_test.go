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
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseHTTPDate(t *testing.T) {
	Convey("parse_httpdate is timezone-agnostic", t, func() {
		So(parseHTTPDate("Sun, 06 Nov 1994 08:49:37 GMT"), ShouldEqual, int64(784111777))
	})

	Convey("round-trips against time.Date computed in UTC", t, func() {
		want := time.Date(2023, time.March, 15, 12, 0, 0, 0, time.UTC).Unix()
		So(parseHTTPDate("Wed, 15 Mar 2023 12:00:00 GMT"), ShouldEqual, want)
	})

	Convey("malformed input yields 0", t, func() {
		So(parseHTTPDate(""), ShouldEqual, int64(0))
		So(parseHTTPDate("not a date"), ShouldEqual, int64(0))
		So(parseHTTPDate("Sun, 06 Xyz 1994 08:49:37 GMT"), ShouldEqual, int64(0))
	})
}
